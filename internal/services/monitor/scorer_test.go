package monitor

import (
	"math"
	"testing"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

func TestScoreKnownVectors(t *testing.T) {
	cases := []struct {
		name      string
		snap      model.SensorSnapshot
		wantScore float64
		wantLabel string
		wantRelay model.RelayState
	}{
		{
			name:      "dry soil scores critical",
			snap:      model.SensorSnapshot{SoilMoisturePercent: 5, TemperatureC: 20, HumidityPercent: 70, LightRaw: 10000},
			wantScore: 0.235,
			wantLabel: "Stressed / Critical",
			wantRelay: model.RelayOn,
		},
		{
			name:      "moderate stress band",
			snap:      model.SensorSnapshot{SoilMoisturePercent: 25, TemperatureC: 32, HumidityPercent: 60, LightRaw: 20000},
			wantScore: 0.506,
			wantLabel: "Moderate Stress",
			wantRelay: model.RelayOn,
		},
		{
			name:      "optimal band",
			snap:      model.SensorSnapshot{SoilMoisturePercent: 40, TemperatureC: 32, HumidityPercent: 60, LightRaw: 20000},
			wantScore: 0.686,
			wantLabel: "Optimal / Healthy",
			wantRelay: model.RelayOff,
		},
		{
			name:      "all terms capped",
			snap:      model.SensorSnapshot{SoilMoisturePercent: 60, TemperatureC: 50, HumidityPercent: 100, LightRaw: 20000},
			wantScore: 0.92,
			wantLabel: "Very Healthy / Ideal",
			wantRelay: model.RelayOff,
		},
		{
			name:      "zero snapshot",
			snap:      model.SensorSnapshot{},
			wantScore: 0,
			wantLabel: "Stressed / Critical",
			wantRelay: model.RelayOn,
		},
	}

	s := NewScorer(FourTierTable())
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := s.Score(c.snap)
			if math.Abs(res.WeightedScore-c.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", res.WeightedScore, c.wantScore)
			}
			if res.Status.Label != c.wantLabel {
				t.Errorf("label = %q, want %q", res.Status.Label, c.wantLabel)
			}
			if res.DesiredRelay != c.wantRelay {
				t.Errorf("relay = %q, want %q", res.DesiredRelay, c.wantRelay)
			}
		})
	}
}

func TestScoreStaysInUnitInterval(t *testing.T) {
	s := NewScorer(FourTierTable())
	extremes := []model.SensorSnapshot{
		{},
		{SoilMoisturePercent: 100, TemperatureC: 1000, HumidityPercent: 100, LightRaw: 1e9},
	}
	for _, snap := range extremes {
		res := s.Score(snap)
		if res.WeightedScore < 0 || res.WeightedScore > 1 {
			t.Errorf("score %v outside [0,1] for %+v", res.WeightedScore, snap)
		}
	}
}

func TestTierBoundariesAreLowerInclusive(t *testing.T) {
	// A score equal to a tier's MaxScore belongs to the NEXT tier.
	s := NewScorer(FourTierTable())
	cases := []struct {
		score     float64
		wantLabel string
	}{
		{0.0, "Stressed / Critical"},
		{0.4999, "Stressed / Critical"},
		{0.50, "Moderate Stress"},
		{0.5999, "Moderate Stress"},
		{0.60, "Optimal / Healthy"},
		{0.7999, "Optimal / Healthy"},
		{0.80, "Very Healthy / Ideal"},
		{1.0, "Very Healthy / Ideal"},
	}
	for _, c := range cases {
		if got := s.tierFor(c.score); got.Label != c.wantLabel {
			t.Errorf("tierFor(%v) = %q, want %q", c.score, got.Label, c.wantLabel)
		}
	}
}

func TestThreeTierTableCollapsesHealthyBands(t *testing.T) {
	s := NewScorer(ThreeTierTable())
	for _, score := range []float64{0.60, 0.79, 0.85, 1.0} {
		tier := s.tierFor(score)
		if tier.Label != "Healthy" {
			t.Errorf("tierFor(%v) = %q, want Healthy", score, tier.Label)
		}
		if tier.Relay != model.RelayOff {
			t.Errorf("tierFor(%v) relay = %q, want OFF", score, tier.Relay)
		}
	}
}

func TestTierTableByName(t *testing.T) {
	if got := TierTableByName("three"); len(got) != 3 {
		t.Errorf("three preset has %d tiers", len(got))
	}
	if got := TierTableByName("four"); len(got) != 4 {
		t.Errorf("four preset has %d tiers", len(got))
	}
	if got := TierTableByName("bogus"); len(got) != 4 {
		t.Errorf("unknown preset did not fall back to four tiers, got %d", len(got))
	}
}

func TestEveryScoreResolvesToATier(t *testing.T) {
	for _, table := range []TierTable{FourTierTable(), ThreeTierTable()} {
		s := NewScorer(table)
		for score := 0.0; score <= 1.0; score += 0.005 {
			tier := s.tierFor(score)
			if tier.Label == "" {
				t.Fatalf("score %v resolved to empty tier", score)
			}
		}
	}
}
