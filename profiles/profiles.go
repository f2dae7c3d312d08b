package profiles

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/medsync-org/medsync/outbox"
)

var ErrAlreadyInitialized = errors.New("synchronizer is already initialized")
var ErrClosed = errors.New("synchronizer is closed")

// Source delivers full-document snapshots for a single record kind. Get
// returns the current document, or nil when none exists. Watch delivers a
// snapshot on every remote change until the cancel function is called.
type Source interface {
	Get(ctx context.Context, patientId string) (bson.M, error)
	Watch(ctx context.Context, patientId string) (<-chan bson.M, func(), error)
}

// PatientSource additionally supports the one-time lazy creation of the
// clinical record from the account document.
type PatientSource interface {
	Source
	EnsureExists(ctx context.Context, patientId string) error
}

// EventSink receives the derived-profile-update events emitted when intake
// data changes. The outbox worker consumes them.
type EventSink interface {
	Create(ctx context.Context, event outbox.Event) error
}

// View is the merged profile exposed to callers. Readers may observe a
// partially-merged profile at any point; there are no snapshot semantics
// across the three sources.
type View struct {
	Profile        map[string]interface{} `json:"profile"`
	HasIntakeData  bool                   `json:"hasIntakeData"`
	IntakeComplete bool                   `json:"intakeComplete"`
	Loading        bool                   `json:"loading"`
}
