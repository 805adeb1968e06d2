// Package pubsub fans layout frames out to live viewers. A slow subscriber
// never blocks the publisher: when its buffer is full the oldest queued
// message is discarded so it always catches up to the newest frame.
package pubsub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 8

// ErrShutdown is returned by Subscribe after Shutdown.
var ErrShutdown = errors.New("pubsub shut down")

// PubSub provides topic based publish/subscribe.
type PubSub struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
}

// Subscription is one receiver on a topic.
type Subscription struct {
	topic     string
	channel   chan any
	ps        *PubSub
	cancel    context.CancelFunc
	closeOnce sync.Once
	sendMu    sync.Mutex
	closed    bool
	dropped   atomic.Uint64
}

// NewPubSub creates a PubSub with the default subscription buffer.
func NewPubSub() *PubSub {
	return NewPubSubWithBuffer(DefaultBuffer)
}

// NewPubSubWithBuffer creates a PubSub whose subscriptions queue up to size
// messages.
func NewPubSubWithBuffer(size int) *PubSub {
	if size < 1 {
		size = 1
	}
	return &PubSub{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		buffer:      size,
	}
}

// Subscribe creates a subscription to topic. It is removed when ctx is done.
func (ps *PubSub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	ps.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan any, ps.buffer),
		ps:      ps,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription]bool)
	}
	ps.subscribers[topic][sub] = true
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish delivers message to every subscriber of topic without blocking.
func (ps *PubSub) Publish(topic string, message any) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.shutdownMu.Unlock()

	// Snapshot so a concurrent Unsubscribe cannot modify the map mid-range.
	ps.mu.RLock()
	topicSubs := ps.subscribers[topic]
	if len(topicSubs) == 0 {
		ps.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	ps.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(message)
	}
}

// SubscriberCount returns the number of subscribers for a topic.
func (ps *PubSub) SubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Shutdown closes all subscriptions. Later publishes are ignored.
func (ps *PubSub) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	ps.shutdownMu.Unlock()

	close(ps.shutdown)

	ps.mu.Lock()
	for topic := range ps.subscribers {
		for sub := range ps.subscribers[topic] {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Channel returns the subscription's message channel. It is closed when the
// subscription ends.
func (s *Subscription) Channel() <-chan any {
	return s.channel
}

// Dropped returns how many messages were discarded because the subscriber
// fell behind.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	if s.ps.subscribers[s.topic] != nil {
		delete(s.ps.subscribers[s.topic], s)
		if len(s.ps.subscribers[s.topic]) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}
	s.ps.mu.Unlock()

	s.close()
}

// deliver queues message, evicting the oldest queued message when full.
func (s *Subscription) deliver(message any) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return
	}

	for {
		select {
		case s.channel <- message:
			return
		default:
		}
		select {
		case <-s.channel:
			s.dropped.Add(1)
		default:
		}
	}
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		s.sendMu.Lock()
		s.closed = true
		close(s.channel)
		s.sendMu.Unlock()
	})
}
