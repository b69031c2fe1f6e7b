package broker

import (
	"context"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Handler processes one inbound message. Returning an error only logs it;
// the subscription stays alive.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes to one or more topics and dispatches to a handler.
type IConsumer interface {
	SetHandler(h Handler)
	Consume(ctx context.Context)
}

// qosFor picks the subscription QoS by topic family. Event topics carry
// records the recorder must not lose, so they ride at QoS 1.
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "event/") || strings.HasPrefix(t, "notify/") {
		return 1
	}
	return 0
}

// Consumer subscribes to a set of topic filters and blocks until the context
// is cancelled, then unsubscribes.
type Consumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

var _ IConsumer = (*Consumer)(nil)

func NewConsumer(client mqtt.Client, topics []string, handler Handler) *Consumer {
	return &Consumer{client: client, topics: topics, handler: handler}
}

func (c *Consumer) SetHandler(h Handler) { c.handler = h }

func (c *Consumer) Consume(ctx context.Context) {
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if c.handler == nil {
				log.Warn().Str("topic", topic).Msg("broker: no handler set")
				return
			}
			if err := c.handler(topic, msg); err != nil {
				log.Error().Err(err).Str("topic", msg.Topic()).Msg("broker: handler error")
			}
		})
		token.Wait()
		if token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("broker: subscribe failed")
			continue
		}
		log.Info().Str("topic", topic).Msg("broker: subscribed")
	}

	<-ctx.Done()

	for _, topic := range c.topics {
		c.client.Unsubscribe(topic)
	}
}
