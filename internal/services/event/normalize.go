package event

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// EventToPoint normalizes a CommonEvent into an InfluxDB point.
// All events land in the single "oksi_event" measurement, distinguished
// by the event_type tag.
func EventToPoint(evt CommonEvent) *write.Point {
	tags := map[string]string{
		"event_type": evt.EventType,
		"severity":   evt.Severity,
	}
	if evt.UserID != "" {
		tags["user_id"] = evt.UserID
	}
	if evt.DeviceID != "" {
		tags["device_id"] = evt.DeviceID
	}

	fields := map[string]interface{}{}
	for k, v := range evt.Fields {
		fields[k] = v
	}

	// ensure at least one field so the point is never dropped
	if _, ok := fields["count"]; !ok {
		fields["count"] = int64(1)
	}

	return influxdb2.NewPoint("oksi_event", tags, fields, evt.Timestamp)
}
