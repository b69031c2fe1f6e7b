package monitor

import (
	"context"
	"time"

	"github.com/oksi-iot/oksi-engine/pkg/broker"

	"github.com/oksi-iot/oksi-engine/internal/model"
	"github.com/oksi-iot/oksi-engine/internal/model/messages"
)

// Notifier schedules an immediate user-visible notification for one alert.
// The caller marks the alert delivered only when Deliver returns nil.
type Notifier interface {
	Deliver(ctx context.Context, userID string, alert model.AlertEvent) error
}

// MQTTNotifier publishes alert notifications to notify/{user}, where the
// companion app's push bridge picks them up.
type MQTTNotifier struct {
	pub       broker.IPublisher
	topicTmpl string
}

var _ Notifier = (*MQTTNotifier)(nil)

func NewMQTTNotifier(pub broker.IPublisher, topicTmpl string) *MQTTNotifier {
	if topicTmpl == "" {
		topicTmpl = "notify/{user}"
	}
	return &MQTTNotifier{pub: pub, topicTmpl: topicTmpl}
}

func (n *MQTTNotifier) Deliver(_ context.Context, userID string, alert model.AlertEvent) error {
	evt := messages.AlertNotificationEvent{
		UserID:    userID,
		Category:  alert.Category,
		AlertID:   alert.ID,
		Title:     alert.Title,
		Message:   alert.Message,
		Timestamp: time.Now().UTC(),
	}
	topic := broker.ExpandTopic(n.topicTmpl, "{user}", userID)
	return n.pub.PublishJSON(topic, 1, evt)
}

// NopNotifier drops everything; used when no delivery channel is configured.
type NopNotifier struct{}

func (NopNotifier) Deliver(context.Context, string, model.AlertEvent) error { return nil }
