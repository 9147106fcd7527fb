// Package bridge exposes the dimmer to Home Assistant as an MQTT light.
package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

const (
	publishTimeout = 5 * time.Second
	online         = "online"
	offline        = "offline"
)

// Client is the part of mqtt.Client the bridge uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Target receives brightness commands.
type Target interface {
	Request(percent int) error
}

// Options configures the broker connection.
type Options struct {
	Broker   string
	Username string
	Password string
	Name     string
}

// LightConfig is the Home Assistant discovery payload.
type LightConfig struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	CommandTopic      string `json:"command_topic"`
	StateTopic        string `json:"state_topic"`
	AvailabilityTopic string `json:"availability_topic"`
	Schema            string `json:"schema"`
	Brightness        bool   `json:"brightness"`
	BrightnessScale   int    `json:"brightness_scale"`
}

// LightState is both the published state and the command payload.
type LightState struct {
	State      string `json:"state"`
	Brightness *int   `json:"brightness,omitempty"`
}

type Topics struct {
	Config       string
	Command      string
	State        string
	Availability string
}

func topicsFor(name string) Topics {
	entity := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	return Topics{
		Config:       fmt.Sprintf("homeassistant/light/%s/config", entity),
		Command:      fmt.Sprintf("luxflex/light/%s/set", entity),
		State:        fmt.Sprintf("luxflex/light/%s/state", entity),
		Availability: fmt.Sprintf("luxflex/light/%s/availability", entity),
	}
}

type Bridge struct {
	client Client
	target Target
	name   string
	topics Topics
	log    zerolog.Logger

	mu     sync.Mutex
	lastOn int
	last   *LightState
}

func New(client Client, target Target, name string, log zerolog.Logger) *Bridge {
	if name == "" {
		name = "luxflex"
	}
	return &Bridge{
		client: client,
		target: target,
		name:   name,
		topics: topicsFor(name),
		log:    log,
		lastOn: dimmer.MaxBrightness,
	}
}

func (b *Bridge) Topics() Topics {
	return b.topics
}

// Connect opens a paho client whose will marks the light offline.
func Connect(opts Options) (mqtt.Client, error) {
	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(fmt.Sprintf("luxflex-%s", uuid.NewString()[:8])).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout).
		SetWill(topicsFor(defaultName(opts.Name)).Availability, offline, 0, true)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(co)
	if t := client.Connect(); t.WaitTimeout(publishTimeout) && t.Error() != nil {
		return nil, fmt.Errorf("MQTT connection error: %w", t.Error())
	}
	if !client.IsConnected() {
		return nil, fmt.Errorf("MQTT connection to %s timed out", opts.Broker)
	}
	return client, nil
}

func defaultName(name string) string {
	if name == "" {
		return "luxflex"
	}
	return name
}

// Setup publishes the discovery config, marks the light online and
// subscribes to the command topic.
func (b *Bridge) Setup() error {
	cfg := LightConfig{
		Name:              b.name,
		UniqueID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte("luxflex/"+b.name)).String(),
		CommandTopic:      b.topics.Command,
		StateTopic:        b.topics.State,
		AvailabilityTopic: b.topics.Availability,
		Schema:            "json",
		Brightness:        true,
		BrightnessScale:   255,
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshalling light configuration: %w", err)
	}
	if err := b.publish(b.topics.Config, payload); err != nil {
		return err
	}
	if err := b.publish(b.topics.Availability, online); err != nil {
		return err
	}

	if t := b.client.Subscribe(b.topics.Command, 0, b.onCommand); t.WaitTimeout(publishTimeout) && t.Error() != nil {
		return fmt.Errorf("MQTT subscribe error: %w", t.Error())
	}

	b.log.Info().Str("name", b.name).Msg("registered with Home Assistant")
	return nil
}

// Close marks the light offline.
func (b *Bridge) Close() error {
	return b.publish(b.topics.Availability, offline)
}

// Publish sends s as the light state, skipping unchanged values.
func (b *Bridge) Publish(s dimmer.State) {
	state := StateFor(s)

	b.mu.Lock()
	if s.Brightness > 0 {
		b.lastOn = s.Brightness
	}
	if b.last != nil && b.last.State == state.State && *b.last.Brightness == *state.Brightness {
		b.mu.Unlock()
		return
	}
	b.last = &state
	b.mu.Unlock()

	payload, err := json.Marshal(state)
	if err != nil {
		b.log.Error().Err(err).Msg("error marshalling light state")
		return
	}
	if err := b.publish(b.topics.State, payload); err != nil {
		b.log.Warn().Err(err).Msg("failed to publish state")
	}
}

func (b *Bridge) onCommand(_ mqtt.Client, msg mqtt.Message) {
	var cmd LightState
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		b.log.Warn().Err(err).Str("payload", string(msg.Payload())).Msg("invalid MQTT command")
		return
	}

	percent, err := b.percentFor(cmd)
	if err != nil {
		b.log.Warn().Err(err).Msg("invalid MQTT command")
		return
	}

	b.log.Info().Str("state", cmd.State).Int("brightness", percent).Msg("MQTT command")
	if err := b.target.Request(percent); err != nil {
		b.log.Warn().Err(err).Msg("MQTT command rejected")
	}
}

func (b *Bridge) percentFor(cmd LightState) (int, error) {
	switch strings.ToUpper(cmd.State) {
	case "OFF":
		return dimmer.MinBrightness, nil
	case "ON":
		if cmd.Brightness != nil {
			return PercentFromMQTT(*cmd.Brightness), nil
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.lastOn, nil
	default:
		return 0, fmt.Errorf("unknown state %q", cmd.State)
	}
}

func (b *Bridge) publish(topic string, payload interface{}) error {
	t := b.client.Publish(topic, 0, true, payload)
	if t.WaitTimeout(publishTimeout) && t.Error() != nil {
		return fmt.Errorf("[%s] publish error: %w", topic, t.Error())
	}
	return nil
}

// StateFor maps a dimmer state to the Home Assistant light state.
func StateFor(s dimmer.State) LightState {
	v := PercentToMQTT(s.Brightness)
	state := "OFF"
	if s.Brightness > 0 {
		state = "ON"
	}
	return LightState{State: state, Brightness: &v}
}

// PercentToMQTT converts 0..100 to Home Assistant's 0..255 scale.
func PercentToMQTT(percent int) int {
	p := dimmer.ClampBrightness(percent)
	return int(math.Round(float64(p) * 255 / 100))
}

// PercentFromMQTT converts 0..255 to a brightness percentage.
func PercentFromMQTT(v int) int {
	return dimmer.ClampBrightness(int(math.Round(float64(v) * 100 / 255)))
}
