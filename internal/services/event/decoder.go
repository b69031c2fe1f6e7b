// Package event records engine activity (relay commands, alerts, status
// transitions, tank forecasts) into InfluxDB for dashboards and audits.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/oksi-iot/oksi-engine/internal/model/messages"
	"github.com/oksi-iot/oksi-engine/pkg/dedup"
)

// CommonEvent is the normalized form every recorded event flows through.
type CommonEvent struct {
	EventType string // relay.command | alert.raised | plant.status_change | tank.forecast
	UserID    string
	DeviceID  string
	Severity  string // info | warning
	Fields    map[string]interface{}
	Timestamp time.Time
}

// MQTTHandler decodes event topics into CommonEvents and hands them to sink.
// Event topics ride QoS 1, so identical redeliveries are dropped by payload
// hash before decoding.
type MQTTHandler struct {
	sink    func(CommonEvent)
	deduper *dedup.Deduper
}

func NewMQTTHandler(sink func(CommonEvent)) *MQTTHandler {
	return &MQTTHandler{
		sink:    sink,
		deduper: dedup.New(10*time.Minute, 20000),
	}
}

func (h *MQTTHandler) Handle(_ string, m mqtt.Message) error {
	sum := sha256.Sum256(m.Payload())
	if !h.deduper.FirstSeen(hex.EncodeToString(sum[:])) {
		return nil
	}

	topic := m.Topic()
	var (
		evt CommonEvent
		err error
	)
	switch {
	case strings.HasPrefix(topic, "event/relay/"):
		evt, err = decodeRelay(m.Payload())
	case strings.HasPrefix(topic, "event/alert/"):
		evt, err = decodeAlert(m.Payload())
	case strings.HasPrefix(topic, "event/plantStatus/"):
		evt, err = decodeStatus(m.Payload())
	case strings.HasPrefix(topic, "event/tankForecast/"):
		evt, err = decodeForecast(m.Payload())
	default:
		return nil // not ours
	}
	if err != nil {
		return err
	}
	if h.sink != nil {
		h.sink(evt)
	}
	return nil
}

func decodeRelay(payload []byte) (CommonEvent, error) {
	var e messages.RelayCommandEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return CommonEvent{}, err
	}
	relayOn := int64(0)
	if e.RelayState == "ON" {
		relayOn = 1
	}
	return CommonEvent{
		EventType: "relay.command",
		UserID:    e.UserID,
		DeviceID:  e.DeviceID,
		Severity:  "info",
		Fields: map[string]interface{}{
			"relay_on":       relayOn,
			"relay_state":    string(e.RelayState),
			"overridden_by":  e.OverriddenBy,
			"weighted_score": e.Score,
		},
		Timestamp: e.Timestamp,
	}, nil
}

func decodeAlert(payload []byte) (CommonEvent, error) {
	var e messages.AlertNotificationEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return CommonEvent{}, err
	}
	return CommonEvent{
		EventType: "alert.raised",
		UserID:    e.UserID,
		Severity:  "warning",
		Fields: map[string]interface{}{
			"category": string(e.Category),
			"title":    e.Title,
			"message":  e.Message,
		},
		Timestamp: e.Timestamp,
	}, nil
}

func decodeStatus(payload []byte) (CommonEvent, error) {
	var e messages.PlantStatusEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return CommonEvent{}, err
	}
	return CommonEvent{
		EventType: "plant.status_change",
		UserID:    e.UserID,
		DeviceID:  e.DeviceID,
		Severity:  "info",
		Fields: map[string]interface{}{
			"label":          e.Label,
			"weighted_score": e.Score,
		},
		Timestamp: e.Timestamp,
	}, nil
}

func decodeForecast(payload []byte) (CommonEvent, error) {
	var e messages.TankForecastEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return CommonEvent{}, err
	}
	sev := "info"
	if e.RefillNeeded {
		sev = "warning"
	}
	return CommonEvent{
		EventType: "tank.forecast",
		UserID:    e.UserID,
		Severity:  sev,
		Fields: map[string]interface{}{
			"level_pct":     e.LevelPercent,
			"usage_rate":    e.UsageRate,
			"time_to_empty": e.TimeToEmpty,
			"refill_needed": e.RefillNeeded,
			"insight":       e.Insight,
		},
		Timestamp: e.Timestamp,
	}, nil
}
