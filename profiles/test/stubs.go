package test

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/medsync-org/medsync/outbox"
)

// FakeSource is an in-memory profile source. Tests push documents through
// Push to simulate remote writes. Every Watch call gets a fresh channel so a
// source can be re-subscribed after a cancel.
type FakeSource struct {
	mu          sync.Mutex
	doc         bson.M
	getErr      error
	watchErr    error
	ensureErr   error
	current     chan bson.M
	watchCount  int
	cancelCount int
	EnsureCalls []string
}

func NewFakeSource(doc bson.M) *FakeSource {
	return &FakeSource{doc: doc}
}

func (f *FakeSource) FailGet(err error)   { f.mu.Lock(); f.getErr = err; f.mu.Unlock() }
func (f *FakeSource) FailWatch(err error) { f.mu.Lock(); f.watchErr = err; f.mu.Unlock() }
func (f *FakeSource) FailEnsure(err error) {
	f.mu.Lock()
	f.ensureErr = err
	f.mu.Unlock()
}

// Push delivers a document to the live subscription.
func (f *FakeSource) Push(doc bson.M) {
	f.mu.Lock()
	ch := f.current
	f.mu.Unlock()
	if ch != nil {
		ch <- doc
	}
}

func (f *FakeSource) Get(_ context.Context, _ string) (bson.M, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.doc, nil
}

func (f *FakeSource) Watch(_ context.Context, _ string) (<-chan bson.M, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return nil, nil, f.watchErr
	}
	f.watchCount++
	ch := make(chan bson.M, 16)
	f.current = ch
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			f.cancelCount++
			if f.current == ch {
				f.current = nil
			}
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (f *FakeSource) EnsureExists(_ context.Context, patientId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EnsureCalls = append(f.EnsureCalls, patientId)
	return f.ensureErr
}

func (f *FakeSource) Cancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelCount
}

func (f *FakeSource) Watches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watchCount
}

// FakeSink collects emitted outbox events.
type FakeSink struct {
	mu     sync.Mutex
	err    error
	events []outbox.Event
}

func (f *FakeSink) Fail(err error) { f.mu.Lock(); f.err = err; f.mu.Unlock() }

func (f *FakeSink) Create(_ context.Context, event outbox.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *FakeSink) Events() []outbox.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]outbox.Event{}, f.events...)
}
