package profiles

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/accounts"
	"github.com/medsync-org/medsync/intake"
	"github.com/medsync-org/medsync/outbox"
	"github.com/medsync-org/medsync/patients"
)

// Manager hands out one synchronizer per patient and tears all of them down
// when the service stops.
type Manager struct {
	accounts Source
	patients PatientSource
	intake   Source
	events   EventSink
	logger   *zap.SugaredLogger

	mu            sync.Mutex
	synchronizers map[string]*Synchronizer
	closed        bool
}

type Params struct {
	fx.In

	Accounts accounts.Repository
	Patients patients.Service
	Intake   intake.Repository
	Outbox   outbox.Repository
	Logger   *zap.SugaredLogger
}

func NewManager(p Params, lifecycle fx.Lifecycle) *Manager {
	m := &Manager{
		accounts:      NewAccountSource(p.Accounts),
		patients:      NewPatientSource(p.Patients),
		intake:        NewIntakeSource(p.Intake),
		events:        p.Outbox,
		logger:        p.Logger,
		synchronizers: map[string]*Synchronizer{},
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			m.Close()
			return nil
		},
	})

	return m
}

func (m *Manager) GetOrCreate(ctx context.Context, patientId string) (*Synchronizer, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if synchronizer, ok := m.synchronizers[patientId]; ok {
		m.mu.Unlock()
		return synchronizer, nil
	}
	synchronizer := NewSynchronizer(m.accounts, m.patients, m.intake, m.events, m.logger)
	m.synchronizers[patientId] = synchronizer
	m.mu.Unlock()

	if err := synchronizer.Initialize(ctx, patientId); err != nil {
		m.Remove(patientId)
		return nil, err
	}
	return synchronizer, nil
}

func (m *Manager) Remove(patientId string) {
	m.mu.Lock()
	synchronizer, ok := m.synchronizers[patientId]
	delete(m.synchronizers, patientId)
	m.mu.Unlock()
	if ok {
		synchronizer.Close()
	}
}

func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	synchronizers := m.synchronizers
	m.synchronizers = map[string]*Synchronizer{}
	m.mu.Unlock()

	for _, synchronizer := range synchronizers {
		synchronizer.Close()
	}
}
