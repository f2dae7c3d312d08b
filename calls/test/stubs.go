package test

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/medsync-org/medsync/calls"
)

// StaticMediaProvider hands out a fixed set of tracks without touching any
// capture device.
type StaticMediaProvider struct {
	Tracks []calls.Track
	Err    error
}

func (p *StaticMediaProvider) Acquire(_ context.Context) ([]calls.Track, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Tracks, nil
}

// FakeTrack records enabled-state flips and never binds real media.
type FakeTrack struct {
	TrackKind calls.TrackKind

	mu      sync.Mutex
	enabled bool
	closed  int
}

func NewFakeTrack(kind calls.TrackKind) *FakeTrack {
	return &FakeTrack{
		TrackKind: kind,
		enabled:   true,
	}
}

func (t *FakeTrack) Kind() calls.TrackKind {
	return t.TrackKind
}

func (t *FakeTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *FakeTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *FakeTrack) Bind(_ *webrtc.PeerConnection) error {
	return nil
}

func (t *FakeTrack) Close() error {
	t.mu.Lock()
	t.closed++
	t.mu.Unlock()
	return nil
}

func (t *FakeTrack) CloseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
