package broker

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher is the one-way event emission boundary. Errors are for the
// caller to log; nothing downstream waits on them.
type IPublisher interface {
	Publish(topic string, qos byte, payload []byte) error
	PublishJSON(topic string, qos byte, v any) error
	Close()
}

type Publisher struct {
	client mqtt.Client
}

var _ IPublisher = (*Publisher)(nil)

func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(topic string, qos byte, payload []byte) error {
	token := p.client.Publish(topic, qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("broker: publish to %s: %w", topic, token.Error())
	}
	return nil
}

func (p *Publisher) PublishJSON(topic string, qos byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("broker: marshal for %s: %w", topic, err)
	}
	return p.Publish(topic, qos, b)
}

func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// ExpandTopic fills {user} style placeholders in a topic template.
func ExpandTopic(tmpl string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
