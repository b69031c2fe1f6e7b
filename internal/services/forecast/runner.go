package forecast

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oksi-iot/oksi-engine/internal/metrics"
	"github.com/oksi-iot/oksi-engine/internal/model"
	"github.com/oksi-iot/oksi-engine/internal/model/messages"
	"github.com/oksi-iot/oksi-engine/pkg/broker"
)

// HistorySource provides the tank history window, newest rows included,
// in chronological order.
type HistorySource interface {
	TankHistory(ctx context.Context, userID string, limit int) ([]model.RawTankRow, error)
}

type Config struct {
	UserID   string
	Interval time.Duration
	Window   int    // number of history rows fetched per cycle
	Topic    string // event topic template, default event/tankForecast/{user}
}

// Runner polls tank history on its own cycle, independent of the irrigation
// engine, and publishes one forecast event per pass.
type Runner struct {
	src Config
	hs  HistorySource
	pub broker.IPublisher
}

func NewRunner(hs HistorySource, pub broker.IPublisher, cfg Config) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = 48
	}
	if cfg.Topic == "" {
		cfg.Topic = "event/tankForecast/{user}"
	}
	return &Runner{src: cfg, hs: hs, pub: pub}
}

// Start blocks until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.src.Interval)
	defer ticker.Stop()

	log.Info().Str("user", r.src.UserID).Dur("interval", r.src.Interval).Msg("forecast: runner started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("forecast: runner stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	rows, err := r.hs.TankHistory(ctx, r.src.UserID, r.src.Window)
	if err != nil {
		metrics.ForecastRunsTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("forecast: history fetch failed")
		return
	}

	points := model.DeriveTankPoints(rows)
	res := Forecast(points)

	outcome := "ok"
	if !res.HasForecast {
		outcome = "no_data"
	}
	metrics.ForecastRunsTotal.WithLabelValues(outcome).Inc()

	var level float64
	if len(points) > 0 {
		level = points[len(points)-1].LevelPercent
	}
	log.Info().
		Float64("level", level).
		Str("usage_rate", res.UsageLabel).
		Str("time_to_empty", res.TimeToEmpty).
		Bool("refill_needed", res.RefillNeeded).
		Str("insight", res.Insight).
		Msg("forecast: cycle")

	if r.pub == nil {
		return
	}
	evt := messages.TankForecastEvent{
		UserID:       r.src.UserID,
		LevelPercent: level,
		UsageRate:    res.UsageLabel,
		TimeToEmpty:  res.TimeToEmpty,
		RefillNeeded: res.RefillNeeded,
		Insight:      res.Insight,
		Timestamp:    time.Now().UTC(),
	}
	topic := broker.ExpandTopic(r.src.Topic, "{user}", r.src.UserID)
	if err := r.pub.PublishJSON(topic, 1, evt); err != nil {
		log.Error().Err(err).Msg("forecast: event publish failed")
	}
}
