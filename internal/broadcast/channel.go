// Package broadcast replicates deltas between contexts on one device, the
// control panel and projector windows of a single presenter machine. There
// is no room concept: every subscriber of a channel sees every delta.
package broadcast

import (
	"log"
	"sync"

	"github.com/Vasu1712/worship-sync/internal/models"
)

// DefaultChannel is the fixed channel name shared by all local contexts.
const DefaultChannel = "worship-sync"

// Channel fans deltas out to local subscribers.
type Channel struct {
	name string
	mu   sync.RWMutex
	subs map[*Subscription]bool
}

// Subscription is one receiving context.
type Subscription struct {
	C       <-chan models.Delta
	ch      chan models.Delta
	channel *Channel
	once    sync.Once
}

// New creates a channel with the given name.
func New(name string) *Channel {
	return &Channel{name: name, subs: make(map[*Subscription]bool)}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Subscribe registers a receiver with a buffer of size buffer.
func (c *Channel) Subscribe(buffer int) *Subscription {
	ch := make(chan models.Delta, buffer)
	sub := &Subscription{C: ch, ch: ch, channel: c}
	c.mu.Lock()
	c.subs[sub] = true
	c.mu.Unlock()
	return sub
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.channel.mu.Lock()
		delete(s.channel.subs, s)
		s.channel.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers d to every subscriber without blocking. A subscriber
// whose buffer is full misses the delta.
func (c *Channel) Publish(d models.Delta) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for sub := range c.subs {
		select {
		case sub.ch <- d:
		default:
			log.Printf("[Broadcast] %s: subscriber buffer full, dropping delta", c.name)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (c *Channel) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}
