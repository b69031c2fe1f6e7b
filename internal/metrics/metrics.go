package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "oksi"

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "monitor_cycles_total",
		Help:      "Evaluation cycles run by the monitor service, by outcome.",
	}, []string{"outcome"}) // ok | skipped | error

	RelayCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "relay_commands_total",
		Help:      "Relay commands appended to the command channel, by state.",
	}, []string{"state"})

	RelayWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "relay_write_errors_total",
		Help:      "Failed appends to the relay command channel (logged, not retried).",
	})

	AlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "alerts_total",
		Help:      "Alerts generated, by category.",
	}, []string{"category"})

	NotificationsDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "notifications_delivered_total",
		Help:      "Alerts successfully handed to the notification collaborator.",
	})

	WeatherFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "weather_failures_total",
		Help:      "Weather fetches that failed or were short-circuited by the breaker.",
	})

	ForecastRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "forecast_runs_total",
		Help:      "Tank forecasting cycles, by outcome.",
	}, []string{"outcome"}) // ok | no_data | error

	StateOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "state_ops_total",
		Help:      "State store operations, by backend, op and result.",
	}, []string{"backend", "op", "result"})

	EventsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "events_recorded_total",
		Help:      "Events written to InfluxDB by the recorder, by type.",
	}, []string{"event_type"})
)
