package signaling

import (
	"context"
	"sync"
)

// memoryRelay is an in-process relay for tests and single-node deployments.
type memoryRelay struct {
	mu          sync.Mutex
	subscribers map[string]map[int]*memorySubscriber
	nextId      int
}

func NewMemoryRelay() Relay {
	return &memoryRelay{
		subscribers: map[string]map[int]*memorySubscriber{},
	}
}

func (r *memoryRelay) Publish(_ context.Context, sessionId string, message Message) error {
	r.mu.Lock()
	subscribers := make([]*memorySubscriber, 0, len(r.subscribers[sessionId]))
	for _, subscriber := range r.subscribers[sessionId] {
		subscribers = append(subscribers, subscriber)
	}
	r.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber.deliver(message)
	}
	return nil
}

func (r *memoryRelay) Subscribe(_ context.Context, sessionId string) (<-chan Message, func(), error) {
	subscriber := &memorySubscriber{
		ch: make(chan Message, 64),
	}

	r.mu.Lock()
	if r.subscribers[sessionId] == nil {
		r.subscribers[sessionId] = map[int]*memorySubscriber{}
	}
	id := r.nextId
	r.nextId++
	r.subscribers[sessionId][id] = subscriber
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		delete(r.subscribers[sessionId], id)
		if len(r.subscribers[sessionId]) == 0 {
			delete(r.subscribers, sessionId)
		}
		r.mu.Unlock()
		subscriber.close()
	}
	return subscriber.ch, cancel, nil
}

// memorySubscriber guards its channel so a cancel racing an in-flight
// publish never sends on a closed channel.
type memorySubscriber struct {
	mu     sync.Mutex
	closed bool
	ch     chan Message
}

func (s *memorySubscriber) deliver(message Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- message:
	default:
		// Slow consumer; delivery is best effort, peers tolerate loss the
		// same way they tolerate relay duplicates.
	}
}

func (s *memorySubscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
