package calls

import (
	"context"
	"errors"

	"github.com/pion/webrtc/v4"
)

var ErrAlreadySetUp = errors.New("call session is already set up")
var ErrSessionClosed = errors.New("call session is closed")

type Role string

const (
	RoleCaller Role = "caller"
	RoleCallee Role = "callee"
)

// State is the coarse connection state exposed to callers. Disconnected is
// terminal; there is no automatic reconnect, a retry is a full re-setup.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// Track is one local capture track. Enabled toggling is purely local: the
// remote side infers silence or black frames from the track itself, no
// signaling message is sent.
type Track interface {
	Kind() TrackKind
	Enabled() bool
	SetEnabled(enabled bool)
	Bind(pc *webrtc.PeerConnection) error
	Close() error
}

// MediaProvider acquires local capture tracks. Capture failures surface
// through the session's error callback; no fallback device is attempted.
type MediaProvider interface {
	Acquire(ctx context.Context) ([]Track, error)
}
