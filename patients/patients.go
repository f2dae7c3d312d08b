package patients

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("patient not found")
var ErrDuplicate = errors.New("patient record already exists")

// Patient is the clinical record for a patient. It is authoritative over
// the account document for overlapping fields.
type Patient struct {
	Id                *primitive.ObjectID `bson:"_id,omitempty"`
	UserId            *string             `bson:"userId,omitempty"`
	FullName          *string             `bson:"fullName,omitempty"`
	Email             *string             `bson:"email,omitempty"`
	BirthDate         *string             `bson:"birthDate,omitempty"`
	Mrn               *string             `bson:"mrn,omitempty"`
	BloodType         *string             `bson:"bloodType,omitempty"`
	Allergies         *[]string           `bson:"allergies,omitempty"`
	Medications       *[]string           `bson:"medications,omitempty"`
	ChronicConditions *[]string           `bson:"chronicConditions,omitempty"`
}

type Repository interface {
	Get(ctx context.Context, userId string) (*Patient, error)
	Create(ctx context.Context, patient Patient) (*Patient, error)
	Update(ctx context.Context, userId string, patient Patient) (*Patient, error)
	Watch(ctx context.Context, userId string) (<-chan bson.M, func(), error)
}

// IntakeUpdate carries the intake answers that cascade into the clinical
// record when the anamnesis document changes.
type IntakeUpdate struct {
	Allergies         *[]string
	Medications       *[]string
	ChronicConditions *[]string
	BloodType         *string
}

type Service interface {
	Get(ctx context.Context, userId string) (*Patient, error)
	Update(ctx context.Context, userId string, patient Patient) (*Patient, error)
	EnsureExists(ctx context.Context, userId string) error
	ApplyIntake(ctx context.Context, userId string, update IntakeUpdate) error
	Watch(ctx context.Context, userId string) (<-chan bson.M, func(), error)
}
