package messages

import (
	"time"

	"github.com/oksi-iot/oksi-engine/internal/model"
)

// AlertNotificationEvent wraps one AlertEvent for delivery and recording.
type AlertNotificationEvent struct {
	UserID    string              `json:"user_id"`
	Category  model.AlertCategory `json:"category"`
	AlertID   string              `json:"alert_id"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Timestamp time.Time           `json:"timestamp"`
}
