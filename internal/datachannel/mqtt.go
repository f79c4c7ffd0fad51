// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datachannel

import (
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/swerve_dashboard/internal/monitoring"
)

// Connect creates a paho client for broker and connects it. The onConnect
// handlers run after every successful connection, reconnects included.
func Connect(broker, clientID string, onConnect ...mqtt.OnConnectHandler) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			monitoring.Logf("datachannel: connected to %s", broker)
			for _, h := range onConnect {
				h(c)
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			monitoring.Logf("datachannel: connection to %s lost: %v", broker, err)
		}).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			monitoring.Logf("datachannel: reconnecting to %s", broker)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, token.Error())
	}
	return client, nil
}

// Subscriber keeps one Channel per subscribed MQTT topic.
type Subscriber struct {
	history int

	mu       sync.Mutex
	client   mqtt.Client
	channels map[string]*Channel
}

// NewSubscriber wraps a connected client. history is the per-channel record
// history (see NewChannel).
func NewSubscriber(client mqtt.Client, history int) *Subscriber {
	return &Subscriber{
		client:   client,
		history:  history,
		channels: make(map[string]*Channel),
	}
}

// ConnectSubscriber connects to broker with a Subscriber whose topics are
// subscribed again every time the client reconnects. The caller disconnects
// the returned client.
func ConnectSubscriber(broker, clientID string, history int) (*Subscriber, mqtt.Client, error) {
	s := NewSubscriber(nil, history)
	client, err := Connect(broker, clientID, s.Resubscribe)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	return s, client, nil
}

// Watch subscribes to topic and returns its channel. Watching the same topic
// twice returns the existing channel.
func (s *Subscriber) Watch(topic string) (*Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[topic]; ok {
		return ch, nil
	}

	ch := NewChannel(topic, s.history)
	if err := subscribe(s.client, ch); err != nil {
		return nil, err
	}

	s.channels[topic] = ch
	monitoring.Logf("datachannel: subscribed to %s", topic)
	return ch, nil
}

// Resubscribe subscribes client to every watched topic again. A clean-session
// reconnect loses the broker-side subscriptions; the channels and their
// history are kept.
func (s *Subscriber) Resubscribe(client mqtt.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		if err := subscribe(client, ch); err != nil {
			monitoring.Logf("datachannel: %v", err)
			continue
		}
		monitoring.Logf("datachannel: resubscribed to %s", ch.Name())
	}
}

func subscribe(client mqtt.Client, ch *Channel) error {
	topic := ch.Name()
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := Ingest(ch, msg.Payload()); err != nil {
			monitoring.Logf("datachannel: %s: dropping payload: %v", topic, err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// Channel returns the channel for an already watched topic.
func (s *Subscriber) Channel(topic string) (*Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[topic]
	return ch, ok
}

// Ingest decodes an envelope payload and appends it to ch.
func Ingest(ch *Channel, payload []byte) error {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	ch.Append(env.Type, env.Value, env.Timestamp)
	return nil
}

// Publisher publishes typed values as envelopes.
type Publisher struct {
	client mqtt.Client
}

// NewPublisher wraps a connected client.
func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends value on topic as a retained QoS 0 message.
func (p *Publisher) Publish(topic string, st StructuredType, value any) error {
	payload, err := EncodeEnvelope(st, value, 0)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, 0, true, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}
