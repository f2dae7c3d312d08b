package intake

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

var ErrNotFound = errors.New("intake record not found")

// Record is the anamnesis questionnaire document. Owned by the intake-form
// workflow; read-only here.
type Record struct {
	Id                *string   `bson:"_id,omitempty"`
	PatientId         *string   `bson:"patientId,omitempty"`
	IsCompleted       *bool     `bson:"isCompleted,omitempty"`
	Allergies         *[]string `bson:"allergies,omitempty"`
	Medications       *[]string `bson:"medications,omitempty"`
	ChronicConditions *[]string `bson:"chronicConditions,omitempty"`
	BloodType         *string   `bson:"bloodType,omitempty"`
	Notes             *string   `bson:"notes,omitempty"`
}

type Repository interface {
	Get(ctx context.Context, patientId string) (*Record, error)
	Watch(ctx context.Context, patientId string) (<-chan bson.M, func(), error)
}
