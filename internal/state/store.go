// Package state persists the per-user monitoring state: the debounced plant
// status and the accumulated alert list. Both are keyed by user id and cleared
// on logout or device disconnect.
package state

import (
	"context"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// Store is the key-value persistence boundary of the engine. Implementations
// must be safe for concurrent use.
type Store interface {
	// PlantStatus returns the last persisted status for the user.
	// ok is false when nothing has been persisted yet.
	PlantStatus(ctx context.Context, userID string) (st model.PlantStatus, ok bool, err error)

	// SetPlantStatus overwrites the persisted status for the user.
	SetPlantStatus(ctx context.Context, userID string, st model.PlantStatus) error

	// Alerts returns the accumulated alert list, newest first.
	Alerts(ctx context.Context, userID string) ([]model.AlertEvent, error)

	// SetAlerts replaces the accumulated alert list.
	SetAlerts(ctx context.Context, userID string, alerts []model.AlertEvent) error

	// Clear removes all state for the user.
	Clear(ctx context.Context, userID string) error

	// Close releases any backing connections.
	Close() error
}
