package bridge

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

type doneToken struct{ err error }

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *doneToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  string
}

type fakeClient struct {
	mu        sync.Mutex
	published []published
	handlers  map[string]mqtt.MessageHandler
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	var body string
	switch p := payload.(type) {
	case string:
		body = p
	case []byte:
		body = string(p)
	}
	c.published = append(c.published, published{topic: topic, retained: retained, payload: body})
	return &doneToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = map[string]mqtt.MessageHandler{}
	}
	c.handlers[topic] = callback
	return &doneToken{}
}

func (c *fakeClient) deliver(topic, payload string) {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	h(nil, &fakeMessage{topic: topic, payload: []byte(payload)})
}

func (c *fakeClient) on(topic string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, p := range c.published {
		if p.topic == topic {
			out = append(out, p.payload)
		}
	}
	return out
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type requests struct {
	values []int
}

func (r *requests) Request(percent int) error {
	r.values = append(r.values, percent)
	return nil
}

func TestConversions(t *testing.T) {
	tests := []struct {
		percent int
		mqtt    int
	}{
		{0, 0},
		{50, 128},
		{100, 255},
		{10, 26},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.mqtt, PercentToMQTT(tt.percent))
		assert.Equal(t, tt.percent, PercentFromMQTT(tt.mqtt))
	}
	assert.Equal(t, 100, PercentFromMQTT(400))
	assert.Equal(t, 255, PercentToMQTT(130))
}

func TestSetup(t *testing.T) {
	client := &fakeClient{}
	b := New(client, &requests{}, "Desk Screen", zerolog.Nop())
	require.NoError(t, b.Setup())

	topics := b.Topics()
	assert.Equal(t, "homeassistant/light/desk_screen/config", topics.Config)

	configs := client.on(topics.Config)
	require.Len(t, configs, 1)

	var cfg LightConfig
	require.NoError(t, json.Unmarshal([]byte(configs[0]), &cfg))
	assert.Equal(t, "Desk Screen", cfg.Name)
	assert.Equal(t, "json", cfg.Schema)
	assert.True(t, cfg.Brightness)
	assert.Equal(t, topics.Command, cfg.CommandTopic)
	assert.NotEmpty(t, cfg.UniqueID)

	assert.Equal(t, []string{"online"}, client.on(topics.Availability))
	require.NoError(t, b.Close())
	assert.Equal(t, []string{"online", "offline"}, client.on(topics.Availability))
}

func TestCommands(t *testing.T) {
	client := &fakeClient{}
	r := &requests{}
	b := New(client, r, "luxflex", zerolog.Nop())
	require.NoError(t, b.Setup())

	cmd := b.Topics().Command
	client.deliver(cmd, `{"state":"ON","brightness":128}`)
	client.deliver(cmd, `{"state":"OFF"}`)

	b.Publish(dimmer.State{Brightness: 30})
	client.deliver(cmd, `{"state":"ON"}`)

	client.deliver(cmd, `not json`)
	client.deliver(cmd, `{"state":"BLINK"}`)

	assert.Equal(t, []int{50, 0, 30}, r.values)
}

func TestPublishSkipsUnchanged(t *testing.T) {
	client := &fakeClient{}
	b := New(client, &requests{}, "luxflex", zerolog.Nop())

	b.Publish(dimmer.State{Brightness: 50, OverlayEnabled: true})
	b.Publish(dimmer.State{Brightness: 50, OverlayEnabled: false})
	b.Publish(dimmer.State{Brightness: 0})

	states := client.on(b.Topics().State)
	assert.Equal(t, []string{
		`{"state":"ON","brightness":128}`,
		`{"state":"OFF","brightness":0}`,
	}, states)
}
