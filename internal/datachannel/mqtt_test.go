// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datachannel

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// fakeClient records subscriptions. Methods the subscriber does not use
// panic through the nil embedded interface.
type fakeClient struct {
	mqtt.Client

	mu       sync.Mutex
	handlers map[string]mqtt.MessageHandler
	err      error
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (c *fakeClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return doneToken{err: c.err}
	}
	c.handlers[topic] = callback
	return doneToken{}
}

func (c *fakeClient) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for topic := range c.handlers {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}

func (c *fakeClient) deliver(topic string, payload []byte) {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	h(c, fakeMessage{topic: topic, payload: payload})
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

const telemetryPayload = `{"type":{"format":"struct","name":"SwerveTelemetry"},"value":{},"timestamp":5}`

func TestSubscriberWatch(t *testing.T) {
	client := newFakeClient()
	sub := NewSubscriber(client, 4)

	ch, err := sub.Watch("robot/swerve")
	require.NoError(t, err)
	again, err := sub.Watch("robot/swerve")
	require.NoError(t, err)
	assert.Same(t, ch, again)

	client.deliver("robot/swerve", []byte(telemetryPayload))
	client.deliver("robot/swerve", []byte(`not json`))
	assert.Len(t, ch.Records(), 1)

	got, ok := sub.Channel("robot/swerve")
	require.True(t, ok)
	assert.Same(t, ch, got)
	_, ok = sub.Channel("robot/other")
	assert.False(t, ok)
}

func TestSubscriberWatchError(t *testing.T) {
	client := newFakeClient()
	client.err = errors.New("not authorized")
	sub := NewSubscriber(client, 4)

	_, err := sub.Watch("robot/swerve")
	assert.ErrorContains(t, err, "not authorized")
	_, ok := sub.Channel("robot/swerve")
	assert.False(t, ok)
}

func TestSubscriberResubscribeAfterReconnect(t *testing.T) {
	first := newFakeClient()
	sub := NewSubscriber(first, 4)
	states, err := sub.Watch("robot/swerve/states")
	require.NoError(t, err)
	telemetry, err := sub.Watch("robot/swerve")
	require.NoError(t, err)
	first.deliver("robot/swerve", []byte(telemetryPayload))

	// A clean-session reconnect starts with no broker-side subscriptions.
	reconnected := newFakeClient()
	sub.Resubscribe(reconnected)
	assert.Equal(t, []string{"robot/swerve", "robot/swerve/states"}, reconnected.topics())

	reconnected.deliver("robot/swerve", []byte(telemetryPayload))
	assert.Len(t, telemetry.Records(), 2, "history survives the reconnect")
	assert.Empty(t, states.Records())
}

func TestSubscriberResubscribeKeepsGoingOnError(t *testing.T) {
	sub := NewSubscriber(newFakeClient(), 4)
	_, err := sub.Watch("robot/swerve")
	require.NoError(t, err)

	failing := newFakeClient()
	failing.err = errors.New("connection closed")
	assert.NotPanics(t, func() { sub.Resubscribe(failing) })
	assert.Empty(t, failing.topics())
}
