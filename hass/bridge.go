package hass

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/angas/nmcweather-go/config"
	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/nmc"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

// Bridge exposes the station to Home Assistant through MQTT discovery.
// Discovery configs are sent once per connection, state on every update and
// image urls only when they changed.
type Bridge struct {
	client      mqtt.Client
	logger      *slog.Logger
	topics      topics
	stationCode string
	stationName string
	kinds       []nmc.ImageKind
	publish     func(m message) error

	mu        sync.Mutex
	last      *nmc.Snapshot
	announced bool
}

func New(cnfg config.AppConfigMqtt, station config.AppConfigStation) *Bridge {
	logger := slog.Default().With("module", "hass")
	b := &Bridge{
		logger: logger,
		topics: topics{
			discoveryPrefix: cnfg.GetDiscoveryPrefix(),
			topicPrefix:     cnfg.GetTopicPrefix(),
		},
		stationCode: station.Code,
		stationName: station.Name,
		kinds:       station.ImageKinds(),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.GetPort()))
	opts.SetClientID("nmcweather-" + uuid.NewString()[:8])
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetWill(b.topics.availability(station.Code), "offline", 1, true)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("MQTT connected")
		// Publishing waits for acks, which must not happen on paho's callback goroutine.
		go b.republish()
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
		b.mu.Lock()
		b.announced = false
		b.mu.Unlock()
	}

	mqttLogger := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLogger, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLogger, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLogger, slog.LevelWarn)

	b.client = mqtt.NewClient(opts)
	b.publish = b.mqttPublish
	return b
}

func (b *Bridge) Connect() error {
	b.logger.Debug("connecting MQTT client")
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (b *Bridge) Disconnect() {
	b.logger.Info("disconnecting MQTT client")
	if err := b.publish(message{Topic: b.topics.availability(b.stationCode), Payload: []byte("offline"), Retained: true}); err != nil {
		b.logger.Warn("could not publish availability", slog.Any("error", err))
	}
	b.client.Disconnect(250)
}

func (b *Bridge) mqttPublish(m message) error {
	token := b.client.Publish(m.Topic, 1, m.Retained, m.Payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout when publishing to %s", m.Topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", m.Topic, token.Error())
	}
	return nil
}

// Seed hands over a snapshot restored from storage. It is published on the
// next (re)connect unless an update has arrived in the meantime.
func (b *Bridge) Seed(s *nmc.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		b.last = s
	}
}

// HandleUpdate is registered as a coordinator listener.
func (b *Bridge) HandleUpdate(u coordinator.Update) {
	b.mu.Lock()
	b.last = u.Current
	announced := b.announced
	b.mu.Unlock()

	// OnConnect publishes the snapshot once the broker is reachable.
	if b.client != nil && !b.client.IsConnected() {
		return
	}
	if !announced {
		b.republish()
		return
	}
	b.send(u, false)
}

// republish sends everything for the last known snapshot, used after a
// (re)connect since the broker may have lost retained messages.
func (b *Bridge) republish() {
	b.mu.Lock()
	s := b.last
	b.mu.Unlock()

	if err := b.publish(message{Topic: b.topics.availability(b.stationCode), Payload: []byte("online"), Retained: true}); err != nil {
		b.logger.Error("could not publish availability", slog.Any("error", err))
		return
	}
	if s == nil {
		return
	}

	msgs, err := b.topics.discoveryMessages(s, b.stationName, b.kinds)
	if err != nil {
		b.logger.Error("could not build discovery configs", slog.Any("error", err))
		return
	}
	for _, m := range msgs {
		if err := b.publish(m); err != nil {
			b.logger.Error("discovery publish failed", slog.Any("error", err))
			return
		}
	}

	b.mu.Lock()
	b.announced = true
	b.mu.Unlock()

	b.send(coordinator.Update{Current: s}, true)
}

func (b *Bridge) send(u coordinator.Update, force bool) {
	st, err := b.topics.stateMessage(u.Current)
	if err != nil {
		b.logger.Error("could not build state", slog.Any("error", err))
		return
	}
	msgs := append([]message{st}, b.topics.imageMessages(u, b.kinds, force)...)

	for _, m := range msgs {
		if err := b.publish(m); err != nil {
			b.logger.Error("publish failed", slog.String("topic", m.Topic), slog.Any("error", err))
			return
		}
	}
	b.logger.Debug("published station update", slog.Int("messages", len(msgs)))
}
