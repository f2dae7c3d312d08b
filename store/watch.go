package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// changeEvent is the subset of the change stream envelope we care about.
type changeEvent struct {
	OperationType string `bson:"operationType"`
	FullDocument  bson.M `bson:"fullDocument"`
}

// WatchDocuments opens a change stream on the collection and delivers the full
// document of every matching change until the returned close function is
// called. The selector keys are matched against fields of the changed
// document. Stream errors are logged and terminate the subscription without
// propagating to the consumer.
func WatchDocuments(ctx context.Context, collection *mongo.Collection, selector bson.M, logger *zap.SugaredLogger) (<-chan bson.M, func(), error) {
	match := bson.M{}
	for key, value := range selector {
		match["fullDocument."+key] = value
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
	}

	streamCtx, cancel := context.WithCancel(ctx)
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := collection.Watch(streamCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	updates := make(chan bson.M)
	var once sync.Once
	closeFn := func() {
		once.Do(cancel)
	}

	go func() {
		defer close(updates)
		defer func() {
			_ = stream.Close(context.Background())
		}()

		for stream.Next(streamCtx) {
			var event changeEvent
			if err := stream.Decode(&event); err != nil {
				logger.Errorw("error decoding change stream event",
					"collection", collection.Name(), "error", err)
				continue
			}
			if event.FullDocument == nil {
				continue
			}
			select {
			case updates <- event.FullDocument:
			case <-streamCtx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			logger.Errorw("change stream terminated",
				"collection", collection.Name(), "error", err)
		}
	}()

	return updates, closeFn, nil
}
