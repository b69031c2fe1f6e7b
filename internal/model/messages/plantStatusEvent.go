package messages

import "time"

// PlantStatusEvent records a debounced plant-status transition.
type PlantStatusEvent struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Label     string    `json:"label"`
	Color     string    `json:"severity_color"`
	Score     float64   `json:"weighted_score"`
	Timestamp time.Time `json:"timestamp"`
}
