package profiles

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/TwiN/deepmerge"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/intake"
	"github.com/medsync-org/medsync/outbox"
	"github.com/medsync-org/medsync/pointer"
	"github.com/medsync-org/medsync/store"
)

type state int

const (
	stateUninitialized state = iota
	stateSubscribing
	stateActive
	stateClosed
)

// Synchronizer keeps a continuously updated merged profile for one patient.
// It subscribes to the account, clinical and intake documents and merges
// updates in arrival order: account fields fill gaps, clinical fields win on
// conflict. Which concurrent write lands last is timing-dependent and left
// that way on purpose.
type Synchronizer struct {
	accounts Source
	patients PatientSource
	intake   Source
	events   EventSink
	logger   *zap.SugaredLogger

	mu             sync.Mutex
	state          state
	patientId      string
	accountLayer   map[string]interface{}
	clinicalLayer  map[string]interface{}
	merged         []byte
	hasIntake      bool
	intakeComplete bool
	cancels        []func()
}

func NewSynchronizer(accounts Source, patients PatientSource, intakeSource Source, events EventSink, logger *zap.SugaredLogger) *Synchronizer {
	return &Synchronizer{
		accounts:      accounts,
		patients:      patients,
		intake:        intakeSource,
		events:        events,
		logger:        logger,
		accountLayer:  map[string]interface{}{},
		clinicalLayer: map[string]interface{}{},
	}
}

// Initialize ensures the clinical record exists and opens the three live
// subscriptions. An empty patient id leaves the synchronizer in its empty
// loading state. Initializing twice without Close is a checked error and
// opens no additional subscriptions.
func (s *Synchronizer) Initialize(ctx context.Context, patientId string) error {
	if patientId == "" {
		return nil
	}

	s.mu.Lock()
	switch s.state {
	case stateClosed:
		s.mu.Unlock()
		return ErrClosed
	case stateSubscribing, stateActive:
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.state = stateSubscribing
	s.patientId = patientId
	s.mu.Unlock()

	// Degrades to "clinical record absent" instead of blocking startup.
	if err := s.patients.EnsureExists(ctx, patientId); err != nil {
		s.logger.Warnw("unable to ensure clinical record exists",
			"patientId", patientId, "error", err)
	}

	s.subscribe(ctx, "account", s.accounts, s.applyAccount)
	s.subscribe(ctx, "patient", s.patients, s.applyClinical)
	s.subscribe(ctx, "intake", s.intake, s.applyIntake)

	s.mu.Lock()
	if s.state == stateSubscribing {
		s.state = stateActive
	}
	s.mu.Unlock()
	return nil
}

// Switch closes the current subscriptions and re-initializes for a new
// patient. A no-op when the id is unchanged.
func (s *Synchronizer) Switch(ctx context.Context, patientId string) error {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.patientId == patientId {
		s.mu.Unlock()
		return nil
	}
	cancels := s.cancels
	s.cancels = nil
	s.state = stateUninitialized
	s.patientId = ""
	s.accountLayer = map[string]interface{}{}
	s.clinicalLayer = map[string]interface{}{}
	s.merged = nil
	s.hasIntake = false
	s.intakeComplete = false
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return s.Initialize(ctx, patientId)
}

// Close tears down all subscriptions. Idempotent; callbacks that were already
// scheduled become no-ops once the synchronizer is closed.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	s.state = stateClosed
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := map[string]interface{}{}
	if len(s.merged) > 0 {
		if err := json.Unmarshal(s.merged, &profile); err != nil {
			s.logger.Errorw("error decoding merged profile", "error", err)
		}
	}
	return View{
		Profile:        profile,
		HasIntakeData:  s.hasIntake,
		IntakeComplete: s.intakeComplete,
		Loading:        s.state == stateUninitialized || s.state == stateSubscribing,
	}
}

// subscribe applies the current snapshot, then consumes the live stream.
// A failure is logged and stops updates for this slice of the view only.
func (s *Synchronizer) subscribe(ctx context.Context, name string, source Source, apply func(bson.M)) {
	doc, err := source.Get(ctx, s.patientId)
	if err != nil {
		s.logger.Errorw("error reading initial snapshot",
			"source", name, "patientId", s.patientId, "error", err)
	} else if doc != nil {
		apply(doc)
	}

	// Subscriptions outlive the initializing request. They stay open until
	// Close cancels them, so the watch must not inherit the caller's
	// cancellation; only the initial reads above do.
	updates, cancel, err := source.Watch(context.WithoutCancel(ctx), s.patientId)
	if err != nil {
		s.logger.Errorw("error subscribing to updates",
			"source", name, "patientId", s.patientId, "error", err)
		return
	}

	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()

	go func() {
		for doc := range updates {
			apply(doc)
		}
	}()
}

// applyAccount merges incoming account fields without clobbering fields the
// update doesn't carry. Clinical fields keep precedence in the merged view.
func (s *Synchronizer) applyAccount(doc bson.M) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	for key, value := range doc {
		if key == "_id" {
			continue
		}
		s.accountLayer[key] = value
	}
	s.recomputeLocked()
}

// applyClinical merges incoming clinical fields; they overwrite any
// same-named account fields.
func (s *Synchronizer) applyClinical(doc bson.M) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	for key, value := range doc {
		if key == "_id" {
			continue
		}
		s.clinicalLayer[key] = value
	}
	s.recomputeLocked()
}

// applyIntake flips the derived flags and emits a derived-profile-update
// event for the outbox worker instead of writing the clinical record inline.
func (s *Synchronizer) applyIntake(doc bson.M) {
	delete(doc, "_id")
	raw, err := bson.Marshal(doc)
	if err != nil {
		s.logger.Errorw("error encoding intake document", "error", err)
		return
	}
	var record intake.Record
	if err := bson.Unmarshal(raw, &record); err != nil {
		s.logger.Errorw("error decoding intake record", "error", err)
		return
	}

	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	s.hasIntake = true
	s.intakeComplete = pointer.Deref(record.IsCompleted)
	patientId := s.patientId
	s.mu.Unlock()

	payload := outbox.IntakeProfileSyncPayload{
		PatientId:         patientId,
		Allergies:         record.Allergies,
		Medications:       record.Medications,
		ChronicConditions: record.ChronicConditions,
		BloodType:         record.BloodType,
	}
	event, err := outbox.NewEvent(outbox.EventTypeIntakeProfileSync, payload)
	if err != nil {
		s.logger.Errorw("error creating intake sync event", "patientId", patientId, "error", err)
		return
	}
	if err := s.events.Create(store.NewDbContext(), event); err != nil {
		s.logger.Errorw("error emitting intake sync event", "patientId", patientId, "error", err)
	}
}

func (s *Synchronizer) recomputeLocked() {
	accountJSON, err := json.Marshal(s.accountLayer)
	if err != nil {
		s.logger.Errorw("error encoding account layer", "error", err)
		return
	}
	clinicalJSON, err := json.Marshal(s.clinicalLayer)
	if err != nil {
		s.logger.Errorw("error encoding clinical layer", "error", err)
		return
	}

	merged, err := deepmerge.JSON(accountJSON, clinicalJSON, deepmerge.Config{
		PreventMultipleDefinitionsOfKeysWithPrimitiveValue: false,
	})
	if err != nil {
		s.logger.Errorw("error merging profile layers", "error", err)
		return
	}
	s.merged = merged
}
