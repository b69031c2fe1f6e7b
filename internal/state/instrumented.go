package state

import (
	"context"

	"github.com/oksi-iot/oksi-engine/internal/metrics"
	"github.com/oksi-iot/oksi-engine/internal/model"
)

// Instrumented wraps a Store and counts every operation in Prometheus.
type Instrumented struct {
	backend string
	next    Store
}

var _ Store = (*Instrumented)(nil)

func Instrument(backend string, next Store) *Instrumented {
	return &Instrumented{backend: backend, next: next}
}

func (i *Instrumented) record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.StateOpsTotal.WithLabelValues(i.backend, op, result).Inc()
}

func (i *Instrumented) PlantStatus(ctx context.Context, userID string) (model.PlantStatus, bool, error) {
	st, ok, err := i.next.PlantStatus(ctx, userID)
	i.record("get_status", err)
	return st, ok, err
}

func (i *Instrumented) SetPlantStatus(ctx context.Context, userID string, st model.PlantStatus) error {
	err := i.next.SetPlantStatus(ctx, userID, st)
	i.record("set_status", err)
	return err
}

func (i *Instrumented) Alerts(ctx context.Context, userID string) ([]model.AlertEvent, error) {
	alerts, err := i.next.Alerts(ctx, userID)
	i.record("get_alerts", err)
	return alerts, err
}

func (i *Instrumented) SetAlerts(ctx context.Context, userID string, alerts []model.AlertEvent) error {
	err := i.next.SetAlerts(ctx, userID, alerts)
	i.record("set_alerts", err)
	return err
}

func (i *Instrumented) Clear(ctx context.Context, userID string) error {
	err := i.next.Clear(ctx, userID)
	i.record("clear", err)
	return err
}

func (i *Instrumented) Close() error { return i.next.Close() }
