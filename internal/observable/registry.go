// Package observable implements the last-value-wins topic registry that
// backs the realtime bus (§4.B). Unlike internal/events' multi-subscriber
// pub/sub, a topic here only ever remembers its most recent value: a new
// subscriber is caught up immediately, and publishers never block on a
// slow reader.
package observable

import (
	"sync"
)

// Well-known topic names (§4.B).
const (
	TopicSessionStatus       = "session.status"
	TopicContextStatus       = "context.status"
	TopicRealityChecks       = "reality.checks"
	TopicProjectStatus       = "project.status"
	TopicProjectVelocity     = "project.velocity"
	TopicDocumentationStatus = "documentation.status"
	TopicAgentSuggestions    = "agent:suggestions"
	TopicToolExecution       = "tool:execution"
	TopicUIState             = "ui:state"
)

// subscriberQueueSize bounds how far behind a subscriber may fall before
// it is considered slow and dropped (§5 back-pressure).
const subscriberQueueSize = 32

type subscriber struct {
	id    uint64
	ch    chan Update
	dirty bool // true once a send to ch has ever been dropped
}

// Update is one value published to a topic.
type Update struct {
	Topic string      `json:"topic"`
	Value interface{} `json:"value"`
}

// Registry holds the current value of every topic and the set of
// subscribers waiting on updates.
type Registry struct {
	mu       sync.Mutex
	values   map[string]interface{}
	subs     map[string]map[uint64]*subscriber
	nextSubID uint64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		values: make(map[string]interface{}),
		subs:   make(map[string]map[uint64]*subscriber),
	}
}

// Publish sets a topic's current value and fans it out to every live
// subscriber. Never blocks: a subscriber whose queue is full is marked
// dirty and dropped from future delivery, per §5's back-pressure rule.
// Callers publish only after their owning store transaction commits.
func (r *Registry) Publish(topic string, value interface{}) {
	r.mu.Lock()
	r.values[topic] = value
	subs := r.subs[topic]
	snapshot := make([]*subscriber, 0, len(subs))
	for _, sub := range subs {
		snapshot = append(snapshot, sub)
	}
	r.mu.Unlock()

	update := Update{Topic: topic, Value: value}
	for _, sub := range snapshot {
		select {
		case sub.ch <- update:
		default:
			r.dropSlow(topic, sub.id)
		}
	}
}

func (r *Registry) dropSlow(topic string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if subs, ok := r.subs[topic]; ok {
		if sub, ok := subs[id]; ok {
			sub.dirty = true
			close(sub.ch)
			delete(subs, id)
		}
	}
}

// Subscription is a live handle on a topic. Updates arrives on C; the
// current value (if the topic has ever been published to) is delivered
// immediately as the first item, synchronously, before Subscribe returns.
type Subscription struct {
	C      <-chan Update
	topic  string
	id     uint64
	reg    *Registry
}

// Close stops delivery and releases the subscription's queue.
func (s *Subscription) Close() {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	if subs, ok := s.reg.subs[s.topic]; ok {
		if sub, ok := subs[s.id]; ok && !sub.dirty {
			close(sub.ch)
		}
		delete(subs, s.id)
	}
}

// Subscribe registers interest in a topic. If the topic already has a
// value, it is delivered as the subscription's first update before any
// later Publish calls are observed.
func (r *Registry) Subscribe(topic string) *Subscription {
	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	sub := &subscriber{id: id, ch: make(chan Update, subscriberQueueSize)}
	if r.subs[topic] == nil {
		r.subs[topic] = make(map[uint64]*subscriber)
	}
	r.subs[topic][id] = sub
	// The replay send happens while still holding r.mu so a concurrent
	// Publish on this topic cannot interleave its own send to sub.ch
	// ahead of this one — sub.ch is buffered, so this never blocks.
	if current, hasValue := r.values[topic]; hasValue {
		sub.ch <- Update{Topic: topic, Value: current}
	}
	r.mu.Unlock()

	return &Subscription{C: sub.ch, topic: topic, id: id, reg: r}
}

// Current returns a topic's last published value, if any.
func (r *Registry) Current(topic string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[topic]
	return v, ok
}

// Topics returns every topic name that has ever been published to.
func (r *Registry) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.values))
	for t := range r.values {
		out = append(out, t)
	}
	return out
}
