// Package forecast estimates water-tank depletion from a short window of
// level history. It is a two-point linear estimator, not a regression: only
// the oldest and newest point in the window matter, and noise spikes are
// clipped rather than smoothed.
package forecast

import (
	"fmt"
	"math"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// Insight strings surfaced to the user. The thresholds they hang off are
// policy constants below.
const (
	InsightNoData     = "Not enough data yet."
	InsightWaiting    = "Waiting for more readings"
	InsightSpike      = "Usage spike detected"
	InsightStable     = "Tank level stable or refilling"
	InsightImmediate  = "Immediate refill required!"
	InsightRefillSoon = "Refill soon"
	InsightSufficient = "Water level is sufficient"
	InsightTankFull   = "Tank is full and ready"
)

const (
	spikeRatePctPerHour  = 20 // above: reading glitch or bulk draw, suppress forecast
	stableRatePctPerHour = 0.01
	emptyLevelPct        = 5 // at or below: refill now, whatever the math says
	fullLevelPct         = 95
	refillSoonHours      = 3
	immediateHours       = 1
)

// Result is one forecasting outcome. HasForecast is false when the estimator
// declined to project (not enough data, flat usage, or a spike).
type Result struct {
	HasForecast  bool
	UsageRate    float64 // percent drained per hour
	UsageLabel   string  // UsageRate formatted "%.2f"
	HoursToEmpty float64
	TimeToEmpty  string
	RefillNeeded bool
	Insight      string
}

// Forecast estimates usage rate and time-to-empty from chronological history.
// Fewer than two points is a "not enough data" result, never an error.
func Forecast(history []model.TankHistoryPoint) Result {
	if len(history) < 2 {
		return Result{TimeToEmpty: "--", Insight: InsightNoData}
	}

	first, last := history[0], history[len(history)-1]
	hoursPassed := float64(last.Timestamp-first.Timestamp) / 3_600_000
	if hoursPassed <= 0 {
		return Result{TimeToEmpty: "--", Insight: InsightWaiting}
	}

	rate := (first.LevelPercent - last.LevelPercent) / hoursPassed
	label := fmt.Sprintf("%.2f", rate)

	if rate > spikeRatePctPerHour {
		return Result{UsageRate: rate, UsageLabel: label, TimeToEmpty: "--", Insight: InsightSpike}
	}
	if rate <= stableRatePctPerHour {
		return Result{UsageRate: rate, UsageLabel: label, TimeToEmpty: "--", Insight: InsightStable}
	}

	hoursToEmpty := last.LevelPercent / rate
	if last.LevelPercent <= emptyLevelPct || hoursToEmpty <= 0 {
		return Result{
			HasForecast:  true,
			UsageRate:    rate,
			UsageLabel:   label,
			HoursToEmpty: 0,
			TimeToEmpty:  "0h 0m",
			RefillNeeded: true,
			Insight:      InsightImmediate,
		}
	}

	res := Result{
		HasForecast:  true,
		UsageRate:    rate,
		UsageLabel:   label,
		HoursToEmpty: hoursToEmpty,
		TimeToEmpty:  formatHours(hoursToEmpty),
		RefillNeeded: hoursToEmpty <= immediateHours,
	}

	switch {
	case last.LevelPercent >= fullLevelPct:
		res.Insight = InsightTankFull
	case hoursToEmpty <= immediateHours:
		res.Insight = InsightImmediate
	case hoursToEmpty <= refillSoonHours:
		res.Insight = InsightRefillSoon
	default:
		res.Insight = InsightSufficient
	}
	return res
}

// formatHours renders "3h 25m" under a day, and "49h / 2d 1h" beyond it.
func formatHours(hours float64) string {
	if hours < 24 {
		totalMin := int(math.Round(hours * 60))
		return fmt.Sprintf("%dh %dm", totalMin/60, totalMin%60)
	}
	totalHours := int(math.Round(hours))
	return fmt.Sprintf("%dh / %dd %dh", totalHours, totalHours/24, totalHours%24)
}
