package messages

import (
	"time"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// RelayCommandEvent is published by the monitor service every evaluation
// cycle to record WHAT was commanded and WHY.
type RelayCommandEvent struct {
	CommandID    string           `json:"command_id"`
	UserID       string           `json:"user_id"`
	DeviceID     string           `json:"device_id"`
	RelayState   model.RelayState `json:"relay_state"`
	OverriddenBy string           `json:"overridden_by,omitempty"` // "" | "sensor-rain" | "forecast-rain" | "alert"
	Score        float64          `json:"weighted_score"`
	Timestamp    time.Time        `json:"timestamp"`
}
