package signaling

import (
	"context"
	"encoding/json"
)

const (
	MessageTypeOffer     = "offer"
	MessageTypeAnswer    = "answer"
	MessageTypeCandidate = "candidate"
	MessageTypeHangup    = "hangup"
)

// Message is the signaling envelope exchanged through the relay. Delivery
// order and at-least-once semantics are assumed, not verified; consumers must
// tolerate duplicates.
type Message struct {
	Type    string          `json:"type"`
	From    string          `json:"from"`
	Role    string          `json:"role,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Relay is a publish/subscribe channel keyed by call session id.
type Relay interface {
	Publish(ctx context.Context, sessionId string, message Message) error
	// Subscribe delivers every message published for the session, including
	// the subscriber's own, until the cancel function is called. Cancel is
	// safe to call more than once.
	Subscribe(ctx context.Context, sessionId string) (<-chan Message, func(), error)
}
