package monitor

import (
	"math"
	"time"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// ===================== Scoring policy =====================

// Normalization divisors and caps. These are policy constants shared with the
// deployed firmware dashboards; changing them breaks score compatibility.
const (
	soilDivisor  = 30
	soilCap      = 0.60
	tempDivisor  = 32
	tempCap      = 0.64
	humDivisor   = 60
	humCap       = 0.60
	lightDivisor = 20000
	lightCap     = 0.20

	soilWeight  = 0.60
	tempWeight  = 0.15
	humWeight   = 0.15
	lightWeight = 0.10
)

// Tier is one labeled band of the weighted health score. A score belongs to
// the first tier whose MaxScore exceeds it.
type Tier struct {
	MaxScore float64
	Label    string
	Color    string
	Relay    model.RelayState
}

// TierTable is an ascending list of tiers; the last entry must be a
// catch-all (MaxScore = +Inf).
type TierTable []Tier

// FourTierTable is the canonical policy.
func FourTierTable() TierTable {
	return TierTable{
		{MaxScore: 0.50, Label: "Stressed / Critical", Color: "#d32f2f", Relay: model.RelayOn},
		{MaxScore: 0.60, Label: "Moderate Stress", Color: "#f57c00", Relay: model.RelayOn},
		{MaxScore: 0.80, Label: "Optimal / Healthy", Color: "#2e7d32", Relay: model.RelayOff},
		{MaxScore: math.Inf(1), Label: "Very Healthy / Ideal", Color: "#1b5e20", Relay: model.RelayOff},
	}
}

// ThreeTierTable collapses the top two bands into a single "Healthy" tier.
func ThreeTierTable() TierTable {
	return TierTable{
		{MaxScore: 0.50, Label: "Stressed / Critical", Color: "#d32f2f", Relay: model.RelayOn},
		{MaxScore: 0.60, Label: "Moderate Stress", Color: "#f57c00", Relay: model.RelayOn},
		{MaxScore: math.Inf(1), Label: "Healthy", Color: "#2e7d32", Relay: model.RelayOff},
	}
}

// TierTableByName resolves a config value to a preset; unknown names fall
// back to the canonical four-tier table.
func TierTableByName(name string) TierTable {
	if name == "three" {
		return ThreeTierTable()
	}
	return FourTierTable()
}

// ===================== Scorer =====================

type ScoreResult struct {
	WeightedScore float64
	Status        model.PlantStatus
	DesiredRelay  model.RelayState
}

type Scorer struct {
	tiers TierTable
}

func NewScorer(tiers TierTable) *Scorer {
	return &Scorer{tiers: tiers}
}

// Score computes the weighted health score and maps it to a tier. Each
// normalized term is capped at 1, so the weighted sum stays in [0,1].
func (s *Scorer) Score(snap model.SensorSnapshot) ScoreResult {
	soilNorm := math.Min(snap.SoilMoisturePercent/soilDivisor*soilCap, 1)
	tempNorm := math.Min(snap.TemperatureC/tempDivisor*tempCap, 1)
	humNorm := math.Min(snap.HumidityPercent/humDivisor*humCap, 1)
	lightNorm := math.Min(snap.LightRaw/lightDivisor*lightCap, 1)

	score := soilNorm*soilWeight + tempNorm*tempWeight + humNorm*humWeight + lightNorm*lightWeight

	tier := s.tierFor(score)
	return ScoreResult{
		WeightedScore: score,
		Status: model.PlantStatus{
			Label:         tier.Label,
			SeverityColor: tier.Color,
			ComputedAt:    time.Now().UTC(),
		},
		DesiredRelay: tier.Relay,
	}
}

func (s *Scorer) tierFor(score float64) Tier {
	for _, t := range s.tiers {
		if score < t.MaxScore {
			return t
		}
	}
	// unreachable with a well-formed table; the catch-all absorbs everything
	return s.tiers[len(s.tiers)-1]
}
