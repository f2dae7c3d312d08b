package intake

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/store"
)

const CollectionName = "intake"

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
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "patientId", Value: 1},
		},
	})
	return err
}

// Get looks up the record under its expected id first. Intake documents are
// keyed by patient id, but records written by older versions of the intake
// form have generated ids, so absence of the expected document falls back to
// scanning the collection for any document belonging to the patient. The
// first match wins.
func (r *repository) Get(ctx context.Context, patientId string) (*Record, error) {
	record := &Record{}
	err := r.collection.FindOne(ctx, bson.M{"_id": patientId}).Decode(record)
	if err == nil {
		return record, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("error fetching intake record: %w", err)
	}

	err = r.collection.FindOne(ctx, bson.M{"patientId": patientId}).Decode(record)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error scanning intake records: %w", err)
	}

	return record, nil
}

func (r *repository) Watch(ctx context.Context, patientId string) (<-chan bson.M, func(), error) {
	return store.WatchDocuments(ctx, r.collection, bson.M{"patientId": patientId}, r.logger)
}
