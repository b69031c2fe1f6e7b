package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oksi-iot/oksi-engine/internal/metrics"
	"github.com/oksi-iot/oksi-engine/internal/model"
	"github.com/oksi-iot/oksi-engine/internal/state"
)

// ===================== Collaborator contracts =====================

// WeatherConditions is the subset of the forecast upstream the engine reads.
type WeatherConditions struct {
	Raining bool
	Main    string
	City    string
	TempC   float64
}

// WeatherClient reports current conditions for the configured coordinates.
// Any error means "unknown", which the engine treats as not raining.
type WeatherClient interface {
	Current(ctx context.Context) (WeatherConditions, error)
}

// ===================== Relay intents =====================

// RelayIntent is one writer's opinion about the pump. The decision engine and
// the alert rules decide independently; a single arbitration point merges
// their intents so only one command reaches the channel per cycle.
type RelayIntent struct {
	Source string
	State  model.RelayState
}

// ArbitrateRelay merges intents into the final relay state. Any OFF intent
// wins: every OFF source (rain, low tank, healthy soil) is a reason water
// must not flow, so OFF is the fail-safe.
func ArbitrateRelay(intents []RelayIntent) model.RelayState {
	if len(intents) == 0 {
		return model.RelayOff
	}
	for _, in := range intents {
		if in.State == model.RelayOff {
			return model.RelayOff
		}
	}
	return model.RelayOn
}

// ===================== Decision engine =====================

// Override sources, in precedence order. Sensor-confirmed rain short-circuits
// the forecast check.
const (
	OverrideSensorRain   = "sensor-rain"
	OverrideForecastRain = "forecast-rain"
)

type Decision struct {
	Score         ScoreResult
	FinalRelay    model.RelayState
	StatusChanged bool
	OverriddenBy  string            // "" when the tier default stood
	Weather       WeatherConditions // zero value when the sensor short-circuited or the fetch failed
}

// Engine combines the health scorer with the rain overrides and debounces
// status persistence. One Engine instance watches one device for one user.
type Engine struct {
	scorer  *Scorer
	weather WeatherClient
	store   state.Store

	recheckDelay time.Duration
	requestCycle chan<- struct{}

	mu           sync.Mutex
	recheckTimer *time.Timer
	recheckArmed bool
}

// NewEngine wires the engine. requestCycle receives a signal when the
// deferred rain re-check fires; a nil channel disables re-check scheduling.
func NewEngine(scorer *Scorer, weather WeatherClient, store state.Store, recheckDelay time.Duration, requestCycle chan<- struct{}) *Engine {
	return &Engine{
		scorer:       scorer,
		weather:      weather,
		store:        store,
		recheckDelay: recheckDelay,
		requestCycle: requestCycle,
	}
}

// Decide evaluates one snapshot: tier default, then rain overrides, then the
// debounced status write. It never fails the cycle on a weather error.
func (e *Engine) Decide(ctx context.Context, userID string, snap model.SensorSnapshot) Decision {
	res := e.scorer.Score(snap)

	final := res.DesiredRelay
	override := ""
	var weather WeatherConditions

	if snap.Rain == model.Rain {
		// Sensor-confirmed rain forces the pump off regardless of tier.
		final = model.RelayOff
		override = OverrideSensorRain
	} else if e.weather != nil {
		cond, err := e.weather.Current(ctx)
		if err != nil {
			// Unknown forecast: skip override 2, proceed on tier default.
			metrics.WeatherFailuresTotal.Inc()
			log.Warn().Err(err).Msg("engine: weather unavailable, skipping forecast override")
		} else {
			weather = cond
			if cond.Raining {
				final = model.RelayOff
				override = OverrideForecastRain
				e.scheduleRecheck()
			}
		}
	}

	changed := e.persistStatus(ctx, userID, res.Status)

	log.Debug().
		Str("user", userID).
		Float64("score", res.WeightedScore).
		Str("tier", res.Status.Label).
		Str("relay", string(final)).
		Str("override", override).
		Str("conditions", weather.Main).
		Str("city", weather.City).
		Float64("temp_c", weather.TempC).
		Bool("status_changed", changed).
		Msg("engine: decision")

	return Decision{
		Score:         res,
		FinalRelay:    final,
		StatusChanged: changed,
		OverriddenBy:  override,
		Weather:       weather,
	}
}

// persistStatus writes the new status only when the label differs from the
// last persisted one, so the "last updated" timestamp moves only on real
// transitions. A store read error counts as "nothing persisted yet".
func (e *Engine) persistStatus(ctx context.Context, userID string, st model.PlantStatus) bool {
	prev, ok, err := e.store.PlantStatus(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("engine: status read failed")
		ok = false
	}
	if ok && prev.Label == st.Label {
		return false
	}
	if err := e.store.SetPlantStatus(ctx, userID, st); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("engine: status write failed")
		return false
	}
	return true
}

// scheduleRecheck arms a single one-shot re-evaluation after the configured
// delay. Only one may be pending at a time.
func (e *Engine) scheduleRecheck() {
	if e.requestCycle == nil || e.recheckDelay <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recheckArmed {
		return
	}
	e.recheckArmed = true
	e.recheckTimer = time.AfterFunc(e.recheckDelay, func() {
		e.mu.Lock()
		e.recheckArmed = false
		e.mu.Unlock()
		select {
		case e.requestCycle <- struct{}{}:
		default:
		}
	})
	log.Info().Dur("delay", e.recheckDelay).Msg("engine: forecast rain, re-check scheduled")
}

// Stop cancels a pending re-check. The monitor calls it on teardown so the
// deferred timer cannot outlive the owning loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recheckTimer != nil {
		e.recheckTimer.Stop()
		e.recheckTimer = nil
	}
	e.recheckArmed = false
}
