package outbox

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollectionName = "outbox"

// EventType identifies the kind of event
type EventType string

const (
	EventTypeIntakeProfileSync EventType = "intakeProfileSync"
)

// Event is the common envelope for all outbox events
type Event struct {
	Id          *primitive.ObjectID `bson:"_id,omitempty"`
	EventType   EventType           `bson:"eventType"`
	CreatedTime time.Time           `bson:"createdTime"`
	Payload     bson.Raw            `bson:"payload"`
}

// IntakeProfileSyncPayload is the payload for intakeProfileSync events. It
// carries the intake answers that cascade into the clinical record.
type IntakeProfileSyncPayload struct {
	PatientId         string    `bson:"patientId"`
	Allergies         *[]string `bson:"allergies,omitempty"`
	Medications       *[]string `bson:"medications,omitempty"`
	ChronicConditions *[]string `bson:"chronicConditions,omitempty"`
	BloodType         *string   `bson:"bloodType,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, event Event) error
	List(ctx context.Context, limit int) ([]Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Initialize(ctx context.Context) error
}

// NewEvent creates an Event from a typed payload
func NewEvent(eventType EventType, payload interface{}) (Event, error) {
	raw, err := bson.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("error marshaling outbox event payload: %w", err)
	}

	return Event{
		EventType:   eventType,
		CreatedTime: time.Now(),
		Payload:     bson.Raw(raw),
	}, nil
}
