package bus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/DEVCOACH/internal/observable"
	"github.com/gorilla/websocket"
)

// Connection is one client's session on the bus: its state machine,
// outbound queue, and topic subscriptions.
type Connection struct {
	bus  *Bus
	conn *websocket.Conn
	send chan []byte

	mu            sync.Mutex
	state         connState
	subscriptions map[string]*observable.Subscription
	closed        bool
}

func newConnection(b *Bus, conn *websocket.Conn) *Connection {
	return &Connection{
		bus:           b,
		conn:          conn,
		send:          make(chan []byte, sendQueueSize),
		state:         stateConnected,
		subscriptions: make(map[string]*observable.Subscription),
	}
}

// readPump reads frames off the wire and feeds them to handleRaw until
// the connection errors, is closed, or fails to authenticate in time.
func (c *Connection) readPump() {
	defer c.bus.unregister(c)

	c.setState(stateAuthenticating)
	if c.conn != nil {
		c.conn.SetReadDeadline(time.Now().Add(authWindowSeconds * time.Second))
	}

	for {
		if c.conn == nil {
			return
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.handleRaw(raw) {
			return
		}
	}
}

// writePump drains the send queue to the wire.
func (c *Connection) writePump() {
	defer func() {
		if c.conn != nil {
			c.conn.Close()
		}
	}()

	for msg := range c.send {
		if c.conn == nil {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// enqueue queues a frame for delivery. If the connection's queue is
// already full the connection is slow; per §5 it is dropped rather than
// letting a publisher block.
func (c *Connection) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	// closed is only ever set to true under c.mu, and c.send is only ever
	// closed after that; checking closed and sending under the same
	// critical section rules out a send racing a close of this channel.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- data:
		c.mu.Unlock()
		return
	default:
	}
	c.mu.Unlock()
	c.bus.unregister(c)
}

// closeConnection releases subscriptions and the send channel. Safe to
// call more than once.
func (c *Connection) closeConnection() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subscriptions
	c.subscriptions = nil
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	close(c.send)
}

// handleRaw parses and dispatches one inbound frame. It returns false
// when the connection should be torn down (authentication failure);
// malformed JSON and unknown message types report an error frame but
// keep the connection open, per §4.J.
func (c *Connection) handleRaw(raw []byte) bool {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.enqueue(Message{Type: TypeError, Error: "malformed JSON"})
		return true
	}
	return c.handleMessage(msg)
}

func (c *Connection) handleMessage(msg Message) bool {
	state := c.getState()

	if state != stateAuthenticated {
		if msg.Type != TypeAuthenticate {
			c.enqueue(Message{Type: TypeError, Error: "authentication required"})
			return true
		}
		return c.handleAuthenticate(msg)
	}

	switch msg.Type {
	case TypeSubscribe:
		c.handleSubscribe(msg)
	case TypeUnsubscribe:
		c.handleUnsubscribe(msg)
	case TypeExecute:
		c.handleExecute(msg)
	case TypeUIState:
		c.handleUIState(msg)
	case TypePing:
		c.enqueue(Message{Type: TypePong})
	default:
		c.enqueue(Message{Type: TypeError, Error: "unknown message type"})
	}
	return true
}

func (c *Connection) handleAuthenticate(msg Message) bool {
	if !c.bus.checkToken(msg.Auth) {
		c.enqueue(Message{Type: TypeAuth, Data: map[string]bool{"authenticated": false}})
		return false
	}
	if c.conn != nil {
		c.conn.SetReadDeadline(time.Time{})
	}
	c.setState(stateAuthenticated)
	c.enqueue(Message{Type: TypeAuth, Data: map[string]bool{"authenticated": true}})
	return true
}

func (c *Connection) handleSubscribe(msg Message) {
	if !validTopics[msg.Topic] {
		c.enqueue(Message{Type: TypeError, Error: "Unknown topic"})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, already := c.subscriptions[msg.Topic]; already {
		c.mu.Unlock()
		return
	}
	sub := c.bus.obs.Subscribe(msg.Topic)
	c.subscriptions[msg.Topic] = sub
	c.mu.Unlock()

	go c.pumpSubscription(msg.Topic, sub)
}

func (c *Connection) handleUnsubscribe(msg Message) {
	c.mu.Lock()
	sub, ok := c.subscriptions[msg.Topic]
	if ok {
		delete(c.subscriptions, msg.Topic)
	}
	c.mu.Unlock()
	if ok {
		sub.Close()
	}
}

// pumpSubscription forwards one topic's updates to the connection's
// outbound queue until the subscription is closed, preserving publish
// order for this (subscriber, topic) pair (§4.J ordering guarantee).
func (c *Connection) pumpSubscription(topic string, sub *observable.Subscription) {
	for update := range sub.C {
		c.enqueue(Message{Type: TypeEvent, Topic: topic, Data: update.Value})
	}
}

// handleUIState publishes a client-pushed, free-form UI state blob onto
// the observable registry's ui:state topic. It is fire-and-forget: any
// other connection subscribed to the topic (§4.B) sees the replayed
// value, and this connection gets no response frame.
func (c *Connection) handleUIState(msg Message) {
	c.bus.obs.Publish(observable.TopicUIState, msg.Data)
}

func (c *Connection) handleExecute(msg Message) {
	startedAt := time.Now()
	c.bus.obs.Publish(observable.TopicToolExecution, executionEvent(msg, "pending", startedAt, 0))

	result := c.bus.dispatcher.Dispatch(msg.Tool, msg.Params)

	duration := time.Since(startedAt)
	status := "ok"
	var errPayload interface{}
	if result.Error != nil {
		status = "error"
		errPayload = result.Error
	}
	c.bus.obs.Publish(observable.TopicToolExecution, executionEvent(msg, status, startedAt, duration))

	c.enqueue(Message{Type: TypeResult, RequestID: msg.RequestID, Result: result.Value, Error: errPayload})
}

func executionEvent(msg Message, status string, startedAt time.Time, duration time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"id":          msg.RequestID,
		"timestamp":   startedAt,
		"tool":        msg.Tool,
		"params":      redactParams(msg.Params),
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}
}

// redactParams returns a shallow copy of params with any field named
// like a secret replaced, so the tool:execution broadcast never leaks
// credentials to every subscriber.
func redactParams(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		if isSensitiveParamName(k) {
			out[k] = "[redacted]"
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveParamName(name string) bool {
	switch name {
	case "auth", "token", "password", "secret", "auth_token":
		return true
	default:
		return false
	}
}

func (c *Connection) setState(s connState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Connection) getState() connState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
