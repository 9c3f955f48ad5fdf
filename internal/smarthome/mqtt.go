package smarthome

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/evahub/eva-gateway/internal/command"
	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/logging"
)

// MQTT controls bare IoT devices over an MQTT broker. Devices publish
// retained state to <prefix>/<device>/state and listen on
// <prefix>/<device>/set.
type MQTT struct {
	prefix string
	client mqtt.Client
	log    *slog.Logger

	mu      sync.RWMutex
	devices map[string]command.Device
}

func NewMQTT(cfg config.MQTTConfig) *MQTT {
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "eva"
	}
	m := &MQTT{
		prefix:  prefix,
		log:     logging.WithComponent("mqtt"),
		devices: map[string]command.Device{},
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("eva-gateway").
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		m.log.Info("connected to mqtt broker", "broker", cfg.Broker)
		c.Subscribe(m.prefix+"/+/state", 0, m.onState)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		m.log.Error("mqtt connection lost", "error", err)
	}
	m.client = mqtt.NewClient(opts)
	return m
}

func (m *MQTT) Name() string    { return "mqtt" }
func (m *MQTT) Connected() bool { return m.client.IsConnected() }

// Connect dials the broker; retained state messages populate the device
// table shortly after the state subscription lands.
func (m *MQTT) Connect(ctx context.Context) error {
	token := m.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (m *MQTT) Disconnect() {
	m.client.Disconnect(250)
}

// topic layout: <prefix>/<device>/state
func (m *MQTT) onState(_ mqtt.Client, msg mqtt.Message) {
	parts := strings.Split(msg.Topic(), "/")
	if len(parts) < 3 {
		return
	}
	id := parts[len(parts)-2]
	state := string(msg.Payload())

	m.mu.Lock()
	m.devices[id] = command.Device{ID: id, Name: strings.ReplaceAll(id, "_", " "), State: state}
	m.mu.Unlock()
	m.log.Debug("device state updated", "device", id, "state", state)
}

// Devices implements command.Integration. Listing order is stable (sorted by
// ID) so fuzzy device matching resolves the same way on every call.
func (m *MQTT) Devices(ctx context.Context) ([]command.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	devices := make([]command.Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices, nil
}

// Execute implements command.Integration.
func (m *MQTT) Execute(ctx context.Context, action, deviceID string) (string, error) {
	m.mu.RLock()
	device, ok := m.devices[deviceID]
	m.mu.RUnlock()
	if !ok {
		return "", command.ErrNotFound
	}

	switch action {
	case "turn_on", "turn_off":
		payload := "ON"
		if action == "turn_off" {
			payload = "OFF"
		}
		token := m.client.Publish(m.prefix+"/"+deviceID+"/set", 0, false, payload)
		if !token.WaitTimeout(5 * time.Second) {
			return "", fmt.Errorf("mqtt publish timed out")
		}
		if err := token.Error(); err != nil {
			return "", fmt.Errorf("mqtt publish: %w", err)
		}
		m.log.Info("command published", "device", deviceID, "payload", payload)
		if payload == "OFF" {
			return fmt.Sprintf("Выключила «%s» ✅", device.Name), nil
		}
		return fmt.Sprintf("Включила «%s» ✅", device.Name), nil

	case "get_state":
		return fmt.Sprintf("«%s» сейчас: %s", device.Name, stateRu(device.State)), nil
	}
	return "", fmt.Errorf("unknown action: %s", action)
}
