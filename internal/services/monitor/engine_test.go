package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oksi-iot/oksi-engine/internal/model"
	"github.com/oksi-iot/oksi-engine/internal/state"
)

type fakeWeather struct {
	cond  WeatherConditions
	err   error
	calls int
}

func (f *fakeWeather) Current(_ context.Context) (WeatherConditions, error) {
	f.calls++
	return f.cond, f.err
}

func drySnapshot() model.SensorSnapshot {
	// scores 0.235, Stressed / Critical, tier wants the pump on
	return model.SensorSnapshot{
		SoilMoisturePercent: 5,
		TemperatureC:        20,
		HumidityPercent:     70,
		LightRaw:            10000,
		Rain:                model.RainNone,
	}
}

func newTestEngine(w WeatherClient, recheck time.Duration, cycle chan<- struct{}) (*Engine, *state.MemoryStore) {
	store := state.NewMemoryStore()
	eng := NewEngine(NewScorer(FourTierTable()), w, store, recheck, cycle)
	return eng, store
}

func TestDecideTierDefaultWhenClear(t *testing.T) {
	w := &fakeWeather{cond: WeatherConditions{Raining: false}}
	eng, _ := newTestEngine(w, 0, nil)

	d := eng.Decide(context.Background(), "u1", drySnapshot())
	if d.FinalRelay != model.RelayOn {
		t.Errorf("relay = %q, want ON for stressed tier", d.FinalRelay)
	}
	if d.OverriddenBy != "" {
		t.Errorf("override = %q, want none", d.OverriddenBy)
	}
	if w.calls != 1 {
		t.Errorf("weather calls = %d, want 1", w.calls)
	}
}

func TestDecideSensorRainShortCircuits(t *testing.T) {
	w := &fakeWeather{cond: WeatherConditions{Raining: false}}
	eng, _ := newTestEngine(w, 0, nil)

	snap := drySnapshot()
	snap.Rain = model.Rain

	d := eng.Decide(context.Background(), "u1", snap)
	if d.FinalRelay != model.RelayOff {
		t.Errorf("relay = %q, want OFF under sensor rain", d.FinalRelay)
	}
	if d.OverriddenBy != OverrideSensorRain {
		t.Errorf("override = %q, want %q", d.OverriddenBy, OverrideSensorRain)
	}
	if w.calls != 0 {
		t.Errorf("weather consulted %d times, want 0 when the sensor already reports rain", w.calls)
	}
}

func TestDecideForecastRainOverrides(t *testing.T) {
	w := &fakeWeather{cond: WeatherConditions{Raining: true, Main: "Rain"}}
	cycle := make(chan struct{}, 1)
	eng, _ := newTestEngine(w, 10*time.Millisecond, cycle)
	defer eng.Stop()

	d := eng.Decide(context.Background(), "u1", drySnapshot())
	if d.FinalRelay != model.RelayOff {
		t.Errorf("relay = %q, want OFF under forecast rain", d.FinalRelay)
	}
	if d.OverriddenBy != OverrideForecastRain {
		t.Errorf("override = %q, want %q", d.OverriddenBy, OverrideForecastRain)
	}

	select {
	case <-cycle:
	case <-time.After(time.Second):
		t.Fatal("re-check signal never arrived")
	}
}

func TestDecideCarriesWeatherConditions(t *testing.T) {
	w := &fakeWeather{cond: WeatherConditions{Main: "Clouds", City: "Quezon City", TempC: 28.5}}
	eng, _ := newTestEngine(w, 0, nil)

	d := eng.Decide(context.Background(), "u1", drySnapshot())
	if d.Weather.Main != "Clouds" || d.Weather.City != "Quezon City" || d.Weather.TempC != 28.5 {
		t.Errorf("weather = %+v", d.Weather)
	}

	w.err = errors.New("upstream down")
	d = eng.Decide(context.Background(), "u1", drySnapshot())
	if d.Weather != (WeatherConditions{}) {
		t.Errorf("weather after fetch failure = %+v, want zero value", d.Weather)
	}
}

func TestDecideSinglePendingRecheck(t *testing.T) {
	w := &fakeWeather{cond: WeatherConditions{Raining: true}}
	cycle := make(chan struct{}, 4)
	eng, _ := newTestEngine(w, 50*time.Millisecond, cycle)
	defer eng.Stop()

	for i := 0; i < 3; i++ {
		eng.Decide(context.Background(), "u1", drySnapshot())
	}

	time.Sleep(200 * time.Millisecond)
	if n := len(cycle); n != 1 {
		t.Errorf("pending re-checks fired %d signals, want 1", n)
	}
}

func TestStopCancelsPendingRecheck(t *testing.T) {
	w := &fakeWeather{cond: WeatherConditions{Raining: true}}
	cycle := make(chan struct{}, 1)
	eng, _ := newTestEngine(w, 50*time.Millisecond, cycle)

	eng.Decide(context.Background(), "u1", drySnapshot())
	eng.Stop()

	select {
	case <-cycle:
		t.Fatal("re-check fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDecideWeatherFailureFallsBackToTier(t *testing.T) {
	w := &fakeWeather{err: errors.New("upstream 503")}
	eng, _ := newTestEngine(w, 0, nil)

	d := eng.Decide(context.Background(), "u1", drySnapshot())
	if d.FinalRelay != model.RelayOn {
		t.Errorf("relay = %q, want tier default ON on weather failure", d.FinalRelay)
	}
	if d.OverriddenBy != "" {
		t.Errorf("override = %q, want none", d.OverriddenBy)
	}
}

func TestDecideDebouncesStatusWrites(t *testing.T) {
	w := &fakeWeather{}
	eng, store := newTestEngine(w, 0, nil)
	ctx := context.Background()

	d1 := eng.Decide(ctx, "u1", drySnapshot())
	if !d1.StatusChanged {
		t.Error("first decision did not persist status")
	}

	d2 := eng.Decide(ctx, "u1", drySnapshot())
	if d2.StatusChanged {
		t.Error("same tier persisted again")
	}

	healthy := model.SensorSnapshot{SoilMoisturePercent: 40, TemperatureC: 32, HumidityPercent: 60, LightRaw: 20000}
	d3 := eng.Decide(ctx, "u1", healthy)
	if !d3.StatusChanged {
		t.Error("tier transition did not persist status")
	}

	st, ok, err := store.PlantStatus(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("store read: ok=%v err=%v", ok, err)
	}
	if st.Label != "Optimal / Healthy" {
		t.Errorf("persisted label = %q", st.Label)
	}
}

func TestArbitrateRelay(t *testing.T) {
	cases := []struct {
		name    string
		intents []RelayIntent
		want    model.RelayState
	}{
		{"no intents fail safe", nil, model.RelayOff},
		{"single on", []RelayIntent{{State: model.RelayOn}}, model.RelayOn},
		{"single off", []RelayIntent{{State: model.RelayOff}}, model.RelayOff},
		{"off wins over on", []RelayIntent{{State: model.RelayOn}, {State: model.RelayOff}}, model.RelayOff},
		{"order irrelevant", []RelayIntent{{State: model.RelayOff}, {State: model.RelayOn}}, model.RelayOff},
		{"all on", []RelayIntent{{State: model.RelayOn}, {State: model.RelayOn}}, model.RelayOn},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ArbitrateRelay(c.intents); got != c.want {
				t.Errorf("ArbitrateRelay(%+v) = %q, want %q", c.intents, got, c.want)
			}
		})
	}
}
