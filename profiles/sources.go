package profiles

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/medsync-org/medsync/accounts"
	"github.com/medsync-org/medsync/intake"
	"github.com/medsync-org/medsync/patients"
)

// The repository adapters below turn the typed record repositories into the
// snapshot sources the synchronizer consumes. Absence is not an error at
// this level; it is reported as a nil snapshot.

type accountSource struct {
	repo accounts.Repository
}

func NewAccountSource(repo accounts.Repository) Source {
	return &accountSource{repo: repo}
}

func (s *accountSource) Get(ctx context.Context, patientId string) (bson.M, error) {
	account, err := s.repo.Get(ctx, patientId)
	if errors.Is(err, accounts.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return toDocument(account)
}

func (s *accountSource) Watch(ctx context.Context, patientId string) (<-chan bson.M, func(), error) {
	return s.repo.Watch(ctx, patientId)
}

type patientSource struct {
	service patients.Service
}

func NewPatientSource(service patients.Service) PatientSource {
	return &patientSource{service: service}
}

func (s *patientSource) Get(ctx context.Context, patientId string) (bson.M, error) {
	patient, err := s.service.Get(ctx, patientId)
	if errors.Is(err, patients.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return toDocument(patient)
}

func (s *patientSource) Watch(ctx context.Context, patientId string) (<-chan bson.M, func(), error) {
	return s.service.Watch(ctx, patientId)
}

func (s *patientSource) EnsureExists(ctx context.Context, patientId string) error {
	return s.service.EnsureExists(ctx, patientId)
}

type intakeSource struct {
	repo intake.Repository
}

func NewIntakeSource(repo intake.Repository) Source {
	return &intakeSource{repo: repo}
}

func (s *intakeSource) Get(ctx context.Context, patientId string) (bson.M, error) {
	record, err := s.repo.Get(ctx, patientId)
	if errors.Is(err, intake.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return toDocument(record)
}

func (s *intakeSource) Watch(ctx context.Context, patientId string) (<-chan bson.M, func(), error) {
	return s.repo.Watch(ctx, patientId)
}

func toDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	return doc, nil
}
