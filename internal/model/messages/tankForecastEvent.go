package messages

import "time"

// TankForecastEvent is published after each forecasting cycle.
type TankForecastEvent struct {
	UserID       string    `json:"user_id"`
	LevelPercent float64   `json:"level_pct"`
	UsageRate    string    `json:"usage_rate_pct_per_hour"`
	TimeToEmpty  string    `json:"time_to_empty"`
	RefillNeeded bool      `json:"refill_needed"`
	Insight      string    `json:"insight"`
	Timestamp    time.Time `json:"timestamp"`
}
