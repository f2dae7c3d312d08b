package outbox_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/outbox"
	"github.com/medsync-org/medsync/patients"
	"github.com/medsync-org/medsync/pointer"
)

var _ = Describe("Worker", func() {
	var repo *fakeOutbox
	var service *fakePatients
	var worker *outbox.Worker

	BeforeEach(func() {
		repo = &fakeOutbox{}
		service = &fakePatients{}
		worker = outbox.NewWorker(outbox.WorkerParams{
			Repo:     repo,
			Patients: service,
			Logger:   zap.NewNop().Sugar(),
		})
	})

	newSyncEvent := func(patientId string) outbox.Event {
		event, err := outbox.NewEvent(outbox.EventTypeIntakeProfileSync, outbox.IntakeProfileSyncPayload{
			PatientId: patientId,
			BloodType: pointer.FromAny("O-"),
			Allergies: pointer.FromAny([]string{"latex"}),
		})
		Expect(err).ToNot(HaveOccurred())
		event.Id = pointer.FromAny(primitive.NewObjectID())
		return event
	}

	Describe("ProcessOnce", func() {
		It("applies intake sync events to the clinical record and deletes them", func() {
			event := newSyncEvent("patient-1")
			repo.events = []outbox.Event{event}

			Expect(worker.ProcessOnce(context.Background())).To(Succeed())

			Expect(service.applied).To(HaveLen(1))
			Expect(service.applied[0].patientId).To(Equal("patient-1"))
			Expect(service.applied[0].update.BloodType).To(Equal(pointer.FromAny("O-")))
			Expect(service.applied[0].update.Allergies).To(Equal(pointer.FromAny([]string{"latex"})))
			Expect(repo.deleted).To(ConsistOf(*event.Id))
		})

		It("leaves failed events in the outbox for the next pass", func() {
			service.err = errors.New("database unavailable")
			event := newSyncEvent("patient-1")
			repo.events = []outbox.Event{event}

			Expect(worker.ProcessOnce(context.Background())).To(Succeed())

			Expect(repo.deleted).To(BeEmpty())
		})

		It("continues with the remaining events after a failure", func() {
			first := newSyncEvent("patient-1")
			second := newSyncEvent("patient-2")
			repo.events = []outbox.Event{first, second}
			service.failFor = "patient-1"

			Expect(worker.ProcessOnce(context.Background())).To(Succeed())

			Expect(repo.deleted).To(ConsistOf(*second.Id))
		})

		It("deletes events with unknown types without applying them", func() {
			event := outbox.Event{
				Id:        pointer.FromAny(primitive.NewObjectID()),
				EventType: outbox.EventType("unknown"),
			}
			repo.events = []outbox.Event{event}

			Expect(worker.ProcessOnce(context.Background())).To(Succeed())

			Expect(service.applied).To(BeEmpty())
			Expect(repo.deleted).To(ConsistOf(*event.Id))
		})

		It("propagates listing failures", func() {
			repo.listErr = errors.New("database unavailable")
			Expect(worker.ProcessOnce(context.Background())).To(MatchError(repo.listErr))
		})
	})

	Describe("Run", func() {
		It("polls until the context is cancelled", func() {
			worker.PollInterval = time.Millisecond
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			Expect(worker.Run(ctx)).To(Succeed())
			Expect(repo.listCalls).To(BeNumerically(">", 1))
		})
	})
})

type fakeOutbox struct {
	events    []outbox.Event
	deleted   []primitive.ObjectID
	listErr   error
	listCalls int
}

func (f *fakeOutbox) Create(_ context.Context, event outbox.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) List(_ context.Context, limit int) ([]outbox.Event, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	remaining := make([]outbox.Event, 0, len(f.events))
	for _, event := range f.events {
		if !f.isDeleted(event) {
			remaining = append(remaining, event)
		}
	}
	if len(remaining) > limit {
		remaining = remaining[:limit]
	}
	return remaining, nil
}

func (f *fakeOutbox) Delete(_ context.Context, id primitive.ObjectID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeOutbox) Initialize(_ context.Context) error {
	return nil
}

func (f *fakeOutbox) isDeleted(event outbox.Event) bool {
	for _, id := range f.deleted {
		if event.Id != nil && id == *event.Id {
			return true
		}
	}
	return false
}

type appliedIntake struct {
	patientId string
	update    patients.IntakeUpdate
}

type fakePatients struct {
	applied []appliedIntake
	err     error
	failFor string
}

func (f *fakePatients) Get(_ context.Context, _ string) (*patients.Patient, error) {
	return nil, patients.ErrNotFound
}

func (f *fakePatients) Update(_ context.Context, _ string, _ patients.Patient) (*patients.Patient, error) {
	return nil, patients.ErrNotFound
}

func (f *fakePatients) EnsureExists(_ context.Context, _ string) error {
	return nil
}

func (f *fakePatients) ApplyIntake(_ context.Context, patientId string, update patients.IntakeUpdate) error {
	if f.err != nil {
		return f.err
	}
	if f.failFor != "" && f.failFor == patientId {
		return errors.New("database unavailable")
	}
	f.applied = append(f.applied, appliedIntake{patientId: patientId, update: update})
	return nil
}

func (f *fakePatients) Watch(_ context.Context, _ string) (<-chan bson.M, func(), error) {
	ch := make(chan bson.M)
	return ch, func() {}, nil
}
