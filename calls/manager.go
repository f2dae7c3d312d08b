package calls

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Descriptor identifies one ephemeral call session. It lives for the
// duration of the call only; nothing is persisted.
type Descriptor struct {
	Id          string    `json:"id"`
	PatientId   string    `json:"patientId"`
	ClinicianId string    `json:"clinicianId"`
	CreatedTime time.Time `json:"createdTime"`
}

type Manager struct {
	logger *zap.SugaredLogger

	mu          sync.Mutex
	descriptors map[string]*Descriptor
}

func NewManager(logger *zap.SugaredLogger) *Manager {
	return &Manager{
		logger:      logger,
		descriptors: map[string]*Descriptor{},
	}
}

func (m *Manager) Create(patientId, clinicianId string) *Descriptor {
	descriptor := &Descriptor{
		Id:          uuid.NewString(),
		PatientId:   patientId,
		ClinicianId: clinicianId,
		CreatedTime: time.Now(),
	}

	m.mu.Lock()
	m.descriptors[descriptor.Id] = descriptor
	m.mu.Unlock()

	m.logger.Infow("call session created",
		"sessionId", descriptor.Id, "patientId", patientId, "clinicianId", clinicianId)
	return descriptor
}

func (m *Manager) Get(id string) (*Descriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	descriptor, ok := m.descriptors[id]
	return descriptor, ok
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.descriptors, id)
	m.mu.Unlock()
}
