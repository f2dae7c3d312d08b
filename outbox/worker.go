package outbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/patients"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 100
)

// Worker drains the outbox and applies the events to their handlers. It is
// the independently-tested consumer of the events the profile synchronizer
// emits; failed events stay in the outbox for the next pass.
type Worker struct {
	repo     Repository
	patients patients.Service
	logger   *zap.SugaredLogger

	PollInterval time.Duration
	BatchSize    int
}

type WorkerParams struct {
	fx.In

	Repo     Repository
	Patients patients.Service
	Logger   *zap.SugaredLogger
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		repo:         p.Repo,
		patients:     p.Patients,
		logger:       p.Logger,
		PollInterval: defaultPollInterval,
		BatchSize:    defaultBatchSize,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.ProcessOnce(ctx); err != nil {
			w.logger.Errorw("error processing outbox", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// ProcessOnce drains a single batch. Events are deleted only after their
// handler succeeded, so delivery is at-least-once and handlers must be
// tolerant of replays.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	events, err := w.repo.List(ctx, w.BatchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := w.handle(ctx, event); err != nil {
			w.logger.Errorw("error handling outbox event",
				"eventType", event.EventType, "eventId", event.Id, "error", err)
			continue
		}
		if event.Id != nil {
			if err := w.repo.Delete(ctx, *event.Id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, event Event) error {
	switch event.EventType {
	case EventTypeIntakeProfileSync:
		var payload IntakeProfileSyncPayload
		if err := bson.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		return w.patients.ApplyIntake(ctx, payload.PatientId, patients.IntakeUpdate{
			Allergies:         payload.Allergies,
			Medications:       payload.Medications,
			ChronicConditions: payload.ChronicConditions,
			BloodType:         payload.BloodType,
		})
	default:
		w.logger.Warnw("skipping outbox event with unknown type", "eventType", event.EventType)
		return nil
	}
}
