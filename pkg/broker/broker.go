// Package broker wraps the paho MQTT client with backoff-retried connection
// handling and small publisher/consumer helpers shared by the services.
package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
}

const connectRetries = 5

// Connect dials the broker, retrying with exponential backoff. The returned
// client disconnects itself when ctx is cancelled.
func Connect(ctx context.Context, cfg Config) (mqtt.Client, error) {
	addr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(addr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("broker", addr).Msg("broker: connect failed, retrying")
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, connectRetries-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("broker: connect to %s: %w", addr, err)
	}

	log.Info().Str("broker", addr).Str("client_id", cfg.ClientID).Msg("broker: connected")

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Info().Msg("broker: connection closed")
	}()

	return client, nil
}
