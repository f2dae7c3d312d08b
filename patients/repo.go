package patients

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/store"
)

const CollectionName = "patients"

type repository struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

func NewRepository(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(CollectionName),
		logger:     logger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

func (r *repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniquePatient"),
		},
		{
			Keys: bson.D{
				{Key: "fullName", Value: "text"},
				{Key: "email", Value: "text"},
				{Key: "mrn", Value: "text"},
			},
			Options: options.Index().
				SetName("PatientSearch"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, userId string) (*Patient, error) {
	selector := bson.M{
		"userId": userId,
	}

	patient := &Patient{}
	err := r.collection.FindOne(ctx, selector).Decode(patient)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error fetching patient: %w", err)
	}

	return patient, nil
}

func (r *repository) Create(ctx context.Context, patient Patient) (*Patient, error) {
	if patient.UserId == nil || *patient.UserId == "" {
		return nil, fmt.Errorf("user id is missing")
	}

	if _, err := r.collection.InsertOne(ctx, patient); err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("error creating patient: %w", err)
	}

	return r.Get(ctx, *patient.UserId)
}

func (r *repository) Update(ctx context.Context, userId string, patient Patient) (*Patient, error) {
	selector := bson.M{
		"userId": userId,
	}

	update := bson.M{
		"$set": patient,
	}
	err := r.collection.FindOneAndUpdate(ctx, selector, update).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error updating patient: %w", err)
	}

	return r.Get(ctx, userId)
}

func (r *repository) Watch(ctx context.Context, userId string) (<-chan bson.M, func(), error) {
	return store.WatchDocuments(ctx, r.collection, bson.M{"userId": userId}, r.logger)
}
