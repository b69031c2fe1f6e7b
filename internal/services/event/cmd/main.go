package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oksi-iot/oksi-engine/internal/config"
	"github.com/oksi-iot/oksi-engine/internal/services/event"
	"github.com/oksi-iot/oksi-engine/pkg/broker"
)

var eventTopics = []string{
	"event/relay/#",
	"event/alert/#",
	"event/plantStatus/#",
	"event/tankForecast/#",
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("event-svc: config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := influxdb2.DefaultOptions().
		SetBatchSize(10).
		SetFlushInterval(200)
	influx := influxdb2.NewClientWithOptions(config.InfluxURL(), config.InfluxToken(), opts)
	defer influx.Close()
	writeAPI := influx.WriteAPI(config.InfluxOrg(), config.InfluxBucket())
	writer := event.NewWriter(writeAPI)

	mqttClient, err := broker.Connect(ctx, broker.Config{
		Host:     config.MQTTHost(),
		Port:     config.MQTTPort(),
		User:     config.MQTTUser(),
		Password: config.MQTTPassword(),
		ClientID: fmt.Sprintf("oksi-event-%s", uuid.NewString()[:8]),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("event-svc: mqtt connection failed")
	}

	r := mux.NewRouter()
	r.Handle("/healthz", event.NewHealthHandler(mqttClient, influx, writer)).Methods(http.MethodGet)
	r.Handle("/readyz", event.NewReadyHandler(mqttClient, influx, writer, 2*time.Second)).Methods(http.MethodGet)
	r.Handle("/events/relay/latest", event.NewRelayLatestHandler(influx, config.InfluxOrg(), config.InfluxBucket())).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	hs := &http.Server{
		Addr:              config.EventHTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", hs.Addr).Msg("event-svc: http listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("event-svc: http server error")
		}
	}()

	handler := event.NewMQTTHandler(writer.Record)
	consumer := broker.NewConsumer(mqttClient, eventTopics, handler.Handle)
	go consumer.Consume(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("event-svc: shutting down")
	cancel()

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)

	// let the async writer flush before the client closes
	time.Sleep(300 * time.Millisecond)
}
