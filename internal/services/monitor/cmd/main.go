package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oksi-iot/oksi-engine/internal/config"
	"github.com/oksi-iot/oksi-engine/internal/services/forecast"
	"github.com/oksi-iot/oksi-engine/internal/services/monitor"
	"github.com/oksi-iot/oksi-engine/internal/state"
	"github.com/oksi-iot/oksi-engine/pkg/broker"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	userID := config.MonitorUserID()
	deviceID := config.MonitorDeviceID()
	if userID == "" || deviceID == "" {
		log.Fatal().Msg("MONITOR_USER_ID and MONITOR_DEVICE_ID are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MQTT
	mqClient, err := broker.Connect(ctx, broker.Config{
		Host:     config.MQTTHost(),
		Port:     config.MQTTPort(),
		User:     config.MQTTUser(),
		Password: config.MQTTPassword(),
		ClientID: fmt.Sprintf("oksi-monitor-%s", uuid.NewString()[:8]),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}
	pub := broker.NewPublisher(mqClient)

	// State store
	var store state.Store
	switch config.StateBackend() {
	case "redis":
		store = state.Instrument("redis", state.NewRedisStore(config.RedisAddr()))
	default:
		store = state.Instrument("memory", state.NewMemoryStore())
	}
	defer store.Close()

	// Collaborators
	supa := monitor.NewSupabaseClient(config.SupabaseURL(), config.SupabaseAnonKey(), 5*time.Second)
	weather := monitor.NewOWMClient(config.OWMAPIKey(), config.OWMLat(), config.OWMLon())
	notifier := monitor.NewMQTTNotifier(pub, "notify/{user}")

	// Engine + monitor
	requestCycle := make(chan struct{}, 1)
	scorer := monitor.NewScorer(monitor.TierTableByName(config.TierTableName()))
	engine := monitor.NewEngine(scorer, weather, store, config.RainRecheckDelay(), requestCycle)

	mon, err := monitor.New(monitor.Config{
		UserID:         userID,
		DeviceID:       deviceID,
		SensorInterval: config.SensorPollInterval(),
		StatusInterval: config.StatusPollInterval(),
		StaleAfter:     config.DeviceStaleAfter(),
	}, supa, supa, supa, engine, store, notifier, pub, requestCycle)
	if err != nil {
		log.Fatal().Err(err).Msg("monitor init failed")
	}

	// Tank forecasting runs on its own cycle over the history window.
	runner := forecast.NewRunner(supa, pub, forecast.Config{
		UserID:   userID,
		Interval: config.ForecastPollInterval(),
		Window:   config.TankHistoryWindow(),
	})

	go mon.Start(ctx)
	go runner.Start(ctx)

	// Admin API + metrics
	var esp32 *monitor.ESP32Client
	if base := config.ESP32BaseURL(); base != "" {
		esp32 = monitor.NewESP32Client(base)
	}
	router := mux.NewRouter()
	monitor.NewAdminAPI(userID, store, esp32).Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	srv := &http.Server{Addr: config.MonitorHTTPAddr(), Handler: router}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("monitor: http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server exit")
		}
	}()

	log.Info().Str("user", userID).Str("device", deviceID).Msg("monitor: running")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
