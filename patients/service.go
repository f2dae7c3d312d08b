package patients

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/accounts"
)

type service struct {
	repo     Repository
	accounts accounts.Repository
	logger   *zap.SugaredLogger
}

var _ Service = &service{}

type Params struct {
	fx.In

	Repo     Repository
	Accounts accounts.Repository
	Logger   *zap.SugaredLogger
}

func NewService(p Params) (Service, error) {
	return &service{
		repo:     p.Repo,
		accounts: p.Accounts,
		logger:   p.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, userId string) (*Patient, error) {
	return s.repo.Get(ctx, userId)
}

func (s *service) Update(ctx context.Context, userId string, patient Patient) (*Patient, error) {
	return s.repo.Update(ctx, userId, patient)
}

// EnsureExists lazily creates the clinical record from the account document
// the first time a patient is accessed. Existing records are left untouched.
func (s *service) EnsureExists(ctx context.Context, userId string) error {
	_, err := s.repo.Get(ctx, userId)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	account, err := s.accounts.Get(ctx, userId)
	if err != nil {
		return err
	}

	patient := Patient{
		UserId:    &userId,
		FullName:  account.FullName,
		Email:     account.Email,
		BirthDate: account.BirthDate,
	}
	_, err = s.repo.Create(ctx, patient)
	if errors.Is(err, ErrDuplicate) {
		// created concurrently, which is what we wanted anyway
		return nil
	}
	return err
}

func (s *service) ApplyIntake(ctx context.Context, userId string, update IntakeUpdate) error {
	patient := Patient{
		Allergies:         update.Allergies,
		Medications:       update.Medications,
		ChronicConditions: update.ChronicConditions,
		BloodType:         update.BloodType,
	}
	_, err := s.repo.Update(ctx, userId, patient)
	return err
}

func (s *service) Watch(ctx context.Context, userId string) (<-chan bson.M, func(), error) {
	return s.repo.Watch(ctx, userId)
}
