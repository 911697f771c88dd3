package notifications

import (
	"log"
	"sync"
)

// Router dispatches notifications to multiple notification channels.
type Router struct {
	channels []NotificationChannel
	mu       sync.RWMutex
}

// NewRouter creates a new notification router with the provided channels.
func NewRouter(channels []NotificationChannel) *Router {
	if channels == nil {
		channels = []NotificationChannel{}
	}
	return &Router{channels: channels}
}

// AddChannel adds a notification channel to the router.
func (r *Router) AddChannel(channel NotificationChannel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
}

// RemoveChannel removes a notification channel by name.
func (r *Router) RemoveChannel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := make([]NotificationChannel, 0, len(r.channels))
	for _, ch := range r.channels {
		if ch.Name() != name {
			filtered = append(filtered, ch)
		}
	}
	r.channels = filtered
}

// Route sends a notification to every matching channel asynchronously,
// logging failures without returning them (fire-and-forget).
func (r *Router) Route(n Notification) {
	r.mu.RLock()
	channels := make([]NotificationChannel, len(r.channels))
	copy(channels, r.channels)
	r.mu.RUnlock()

	for _, ch := range channels {
		go func(channel NotificationChannel) {
			if !channel.ShouldNotify(n) {
				return
			}
			if err := channel.Send(n); err != nil {
				log.Printf("[NOTIFY-ROUTER] failed to send %s to channel %s: %v", n.ID, channel.Name(), err)
			}
		}(ch)
	}
}

// RouteWithWait routes a notification and blocks until every channel has
// finished processing it.
func (r *Router) RouteWithWait(n Notification) {
	r.mu.RLock()
	channels := make([]NotificationChannel, len(r.channels))
	copy(channels, r.channels)
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(channel NotificationChannel) {
			defer wg.Done()
			if !channel.ShouldNotify(n) {
				return
			}
			if err := channel.Send(n); err != nil {
				log.Printf("[NOTIFY-ROUTER] failed to send %s to channel %s: %v", n.ID, channel.Name(), err)
			}
		}(ch)
	}
	wg.Wait()
}

// GetChannels returns the name of every registered channel.
func (r *Router) GetChannels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.channels))
	for i, ch := range r.channels {
		names[i] = ch.Name()
	}
	return names
}
