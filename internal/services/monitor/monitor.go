package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/oksi-iot/oksi-engine/internal/metrics"
	"github.com/oksi-iot/oksi-engine/internal/model"
	"github.com/oksi-iot/oksi-engine/internal/model/messages"
	"github.com/oksi-iot/oksi-engine/internal/state"
	"github.com/oksi-iot/oksi-engine/pkg/broker"
)

// ===================== Collaborator contracts =====================

// SensorSource provides the most recent raw rows for a device and its
// owner's tank.
type SensorSource interface {
	LatestSensorRow(ctx context.Context, deviceID string) (model.RawSensorRow, bool, error)
	LatestTankRow(ctx context.Context, userID string) (model.RawTankRow, bool, error)
}

// RelaySink is the append-only pump command channel.
type RelaySink interface {
	AppendRelayCommand(ctx context.Context, cmd model.RelayCommand) error
}

// PreferenceStore exposes the user's enabled alert categories, read-only.
type PreferenceStore interface {
	EnabledCategories(ctx context.Context, userID string) (map[model.AlertCategory]bool, error)
}

// ===================== Config =====================

type Config struct {
	UserID   string
	DeviceID string

	SensorInterval time.Duration // evaluation cycle, default 10s
	StatusInterval time.Duration // device liveness probe, default 5s
	StaleAfter     time.Duration // snapshot age after which the device counts as inactive

	RelayEventTopic  string // e.g. event/relay/{user}
	StatusEventTopic string // e.g. event/plantStatus/{user}
	AlertEventTopic  string // e.g. event/alert/{user}
}

func (c *Config) applyDefaults() {
	if c.SensorInterval <= 0 {
		c.SensorInterval = 10 * time.Second
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = 5 * time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 2 * time.Minute
	}
	if c.RelayEventTopic == "" {
		c.RelayEventTopic = "event/relay/{user}"
	}
	if c.StatusEventTopic == "" {
		c.StatusEventTopic = "event/plantStatus/{user}"
	}
	if c.AlertEventTopic == "" {
		c.AlertEventTopic = "event/alert/{user}"
	}
}

// ===================== Monitor =====================

// Monitor owns the two polling loops for one watched device: the 5s liveness
// probe and the 10s evaluation cycle. All computation and writes for one
// cycle finish before the next tick fires; nothing here runs concurrently
// with itself.
type Monitor struct {
	cfg      Config
	source   SensorSource
	relay    RelaySink
	prefs    PreferenceStore
	engine   *Engine
	store    state.Store
	notifier Notifier
	pub      broker.IPublisher

	requestCycle chan struct{}

	mu       sync.Mutex
	snapshot *model.SensorSnapshot
}

func New(cfg Config, source SensorSource, relay RelaySink, prefs PreferenceStore,
	engine *Engine, store state.Store, notifier Notifier, pub broker.IPublisher,
	requestCycle chan struct{}) (*Monitor, error) {

	if cfg.UserID == "" || cfg.DeviceID == "" {
		return nil, errors.New("monitor: user id and device id are required")
	}
	cfg.applyDefaults()
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Monitor{
		cfg:          cfg,
		source:       source,
		relay:        relay,
		prefs:        prefs,
		engine:       engine,
		store:        store,
		notifier:     notifier,
		pub:          pub,
		requestCycle: requestCycle,
	}, nil
}

// Start runs both loops until ctx is cancelled. Teardown also cancels the
// engine's deferred rain re-check, so no timer outlives the monitor.
func (m *Monitor) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); m.statusLoop(ctx) }()
	go func() { defer wg.Done(); m.sensorLoop(ctx) }()
	wg.Wait()
	m.engine.Stop()
}

// statusLoop probes device liveness. A device whose latest reading is older
// than StaleAfter counts as inactive; on the transition the in-memory
// snapshot is cleared so the sensor loop idles.
func (m *Monitor) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			row, ok, err := m.source.LatestSensorRow(ctx, m.cfg.DeviceID)
			if err != nil {
				log.Warn().Err(err).Msg("monitor: liveness probe failed")
				continue
			}
			active := ok && row.CreatedAt != nil && time.Since(*row.CreatedAt) <= m.cfg.StaleAfter
			switch {
			case !active && m.currentSnapshot() != nil:
				log.Info().Str("device", m.cfg.DeviceID).Msg("monitor: device inactive, clearing snapshot")
				m.setSnapshot(nil)
			case active && m.currentSnapshot() == nil:
				// device came back; wake the sensor loop
				select {
				case m.requestCycle <- struct{}{}:
				default:
				}
			}
		}
	}
}

// sensorLoop runs one evaluation cycle per tick, plus any cycle the engine's
// deferred rain re-check requests. The first cycle runs immediately.
func (m *Monitor) sensorLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SensorInterval)
	defer ticker.Stop()

	m.runCycle(ctx, true)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runCycle(ctx, false)
		case <-m.requestCycle:
			log.Info().Msg("monitor: deferred rain re-check cycle")
			m.runCycle(ctx, true)
		}
	}
}

// runCycle is one fetch → normalize → score → decide → alert → write pass.
// Transient fetch failures abort the cycle early; the next tick retries.
func (m *Monitor) runCycle(ctx context.Context, force bool) {
	if !force && m.currentSnapshot() == nil {
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		return
	}

	sensorRow, ok, err := m.source.LatestSensorRow(ctx, m.cfg.DeviceID)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("monitor: sensor fetch failed, skipping cycle")
		return
	}
	if !ok {
		m.setSnapshot(nil)
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		return
	}
	tankRow, _, err := m.source.LatestTankRow(ctx, m.cfg.UserID)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("monitor: tank fetch failed, skipping cycle")
		return
	}

	snap, tank := Normalize(sensorRow, tankRow)
	m.setSnapshot(&snap)

	enabled, err := m.prefs.EnabledCategories(ctx, m.cfg.UserID)
	if err != nil {
		// preferences are an overlay; default to everything enabled
		log.Warn().Err(err).Msg("monitor: preference fetch failed, using defaults")
		enabled = DefaultEnabledCategories()
	}

	alerts, alertIntents := GenerateAlerts(snap, tank, enabled, time.Now())
	decision := m.engine.Decide(ctx, m.cfg.UserID, snap)

	intents := make([]RelayIntent, 0, len(alertIntents)+1)
	intents = append(intents, RelayIntent{Source: "decision-engine", State: decision.FinalRelay})
	intents = append(intents, alertIntents...)
	final := ArbitrateRelay(intents)

	m.emitRelay(ctx, final, decision)
	m.persistAndDeliverAlerts(ctx, alerts, enabled)
	if decision.StatusChanged {
		m.emitStatus(decision)
	}

	metrics.CyclesTotal.WithLabelValues("ok").Inc()
}

// emitRelay appends exactly one command per cycle and publishes the matching
// event. Write failures are logged, never retried in-cycle.
func (m *Monitor) emitRelay(ctx context.Context, final model.RelayState, decision Decision) {
	cmd := model.RelayCommand{
		ID:       uuid.NewString(),
		UserID:   m.cfg.UserID,
		State:    final,
		Source:   "monitor",
		IssuedAt: time.Now().UTC(),
	}
	if err := m.relay.AppendRelayCommand(ctx, cmd); err != nil {
		metrics.RelayWriteErrorsTotal.Inc()
		log.Error().Err(err).Str("state", string(final)).Msg("monitor: relay append failed")
	} else {
		metrics.RelayCommandsTotal.WithLabelValues(string(final)).Inc()
	}

	if m.pub == nil {
		return
	}
	evt := messages.RelayCommandEvent{
		CommandID:    cmd.ID,
		UserID:       cmd.UserID,
		DeviceID:     m.cfg.DeviceID,
		RelayState:   final,
		OverriddenBy: decision.OverriddenBy,
		Score:        decision.Score.WeightedScore,
		Timestamp:    cmd.IssuedAt,
	}
	topic := broker.ExpandTopic(m.cfg.RelayEventTopic, "{user}", m.cfg.UserID)
	if err := m.pub.PublishJSON(topic, 1, evt); err != nil {
		log.Error().Err(err).Msg("monitor: relay event publish failed")
	}
}

// persistAndDeliverAlerts merges the new batch into the accumulated list
// (exact title+message duplicates dropped from the batch), then hands
// undelivered alerts in enabled categories to the notifier, marking each
// delivered only on success.
func (m *Monitor) persistAndDeliverAlerts(ctx context.Context, batch []model.AlertEvent, enabled map[model.AlertCategory]bool) {
	prev, err := m.store.Alerts(ctx, m.cfg.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("monitor: alert list read failed")
	}
	merged := model.MergeAlerts(prev, batch)

	for _, a := range batch {
		metrics.AlertsTotal.WithLabelValues(string(a.Category)).Inc()
	}

	changed := len(merged) != len(prev)
	for i, a := range merged {
		if a.Delivered || !enabled[a.Category] {
			continue
		}
		if err := m.notifier.Deliver(ctx, m.cfg.UserID, a); err != nil {
			log.Error().Err(err).Str("alert", a.ID).Msg("monitor: notification delivery failed")
			continue
		}
		merged[i].Delivered = true
		metrics.NotificationsDeliveredTotal.Inc()
		changed = true

		if m.pub != nil {
			topic := broker.ExpandTopic(m.cfg.AlertEventTopic, "{user}", m.cfg.UserID)
			evt := messages.AlertNotificationEvent{
				UserID:    m.cfg.UserID,
				Category:  a.Category,
				AlertID:   a.ID,
				Title:     a.Title,
				Message:   a.Message,
				Timestamp: time.Now().UTC(),
			}
			if err := m.pub.PublishJSON(topic, 1, evt); err != nil {
				log.Error().Err(err).Msg("monitor: alert event publish failed")
			}
		}
	}

	if changed {
		if err := m.store.SetAlerts(ctx, m.cfg.UserID, merged); err != nil {
			log.Error().Err(err).Msg("monitor: alert list write failed")
		}
	}
}

func (m *Monitor) emitStatus(decision Decision) {
	if m.pub == nil {
		return
	}
	evt := messages.PlantStatusEvent{
		UserID:    m.cfg.UserID,
		DeviceID:  m.cfg.DeviceID,
		Label:     decision.Score.Status.Label,
		Color:     decision.Score.Status.SeverityColor,
		Score:     decision.Score.WeightedScore,
		Timestamp: decision.Score.Status.ComputedAt,
	}
	topic := broker.ExpandTopic(m.cfg.StatusEventTopic, "{user}", m.cfg.UserID)
	if err := m.pub.PublishJSON(topic, 1, evt); err != nil {
		log.Error().Err(err).Msg("monitor: status event publish failed")
	}
}

func (m *Monitor) currentSnapshot() *model.SensorSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *Monitor) setSnapshot(s *model.SensorSnapshot) {
	m.mu.Lock()
	m.snapshot = s
	m.mu.Unlock()
}
