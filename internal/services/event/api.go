package event

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// RelayCommand is the API payload for recorded relay commands.
type RelayCommand struct {
	DeviceID string `json:"device_id,omitempty"`
	State    string `json:"state"` // ON | OFF
	Time     string `json:"time"`  // RFC3339
}

type relayQueryParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
}

func parseRelayQuery(r *http.Request, defMin, defLim, defTOms int) relayQueryParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	return relayQueryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
}

func buildRelayFlux(bucket string, minutes, limit int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == "oksi_event" and r.event_type == "relay.command")
  |> filter(fn: (r) => r._field == "relay_on")
  |> keep(columns: ["_time","_value","device_id"])
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, bucket, minutes, limit)
}

func runRelayQuery(w http.ResponseWriter, r *http.Request, influx influxdb2.Client, org, bucket string, defMin, defLim int) {
	p := parseRelayQuery(r, defMin, defLim, 2000)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
	defer cancel()

	api := influx.QueryAPI(org)
	res, err := api.Query(ctx, buildRelayFlux(bucket, p.Minutes, p.Limit))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Error", "influx-query-error")
		_, _ = w.Write([]byte("[]"))
		return
	}
	defer func() {
		_ = res.Close()
	}()

	out := make([]RelayCommand, 0, p.Limit)
	for res.Next() {
		rec := res.Record()

		var on bool
		switch v := rec.Value().(type) {
		case int64:
			on = v != 0
		case float64:
			on = v != 0
		case bool:
			on = v
		}
		state := "OFF"
		if on {
			state = "ON"
		}

		var deviceID string
		if v := rec.ValueByKey("device_id"); v != nil {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				deviceID = s
			}
		}

		out = append(out, RelayCommand{
			DeviceID: deviceID,
			State:    state,
			Time:     rec.Time().UTC().Format(time.RFC3339),
		})
	}
	if res.Err() != nil {
		w.Header().Set("X-Error", "influx-iter-error")
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// NewRelayLatestHandler serves GET /events/relay/latest?limit=20[&minutes=1440].
func NewRelayLatestHandler(influx influxdb2.Client, org, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runRelayQuery(w, r, influx, org, bucket, 1440, 20)
	})
}
