package state

import (
	"context"
	"sync"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// MemoryStore keeps all state in process memory. It is the default backend
// and the one the tests use.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]model.PlantStatus
	alerts   map[string][]model.AlertEvent
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statuses: make(map[string]model.PlantStatus),
		alerts:   make(map[string][]model.AlertEvent),
	}
}

func (m *MemoryStore) PlantStatus(_ context.Context, userID string) (model.PlantStatus, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[userID]
	return st, ok, nil
}

func (m *MemoryStore) SetPlantStatus(_ context.Context, userID string, st model.PlantStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[userID] = st
	return nil
}

func (m *MemoryStore) Alerts(_ context.Context, userID string) ([]model.AlertEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.alerts[userID]
	out := make([]model.AlertEvent, len(src))
	copy(out, src)
	return out, nil
}

func (m *MemoryStore) SetAlerts(_ context.Context, userID string, alerts []model.AlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.AlertEvent, len(alerts))
	copy(cp, alerts)
	m.alerts[userID] = cp
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, userID)
	delete(m.alerts, userID)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
