package smarthome

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/evahub/eva-gateway/internal/command"
	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/logging"
)

// domains EVA is allowed to control by voice
var controllableDomains = map[string]bool{
	"light":        true,
	"switch":       true,
	"fan":          true,
	"media_player": true,
	"climate":      true,
	"cover":        true,
}

// HomeAssistant talks to a Home Assistant instance over its REST API.
type HomeAssistant struct {
	url        string
	token      string
	httpClient *http.Client
	log        *slog.Logger
	connected  atomic.Bool
}

func NewHomeAssistant(cfg config.HomeAssistantConfig) *HomeAssistant {
	return &HomeAssistant{
		url:        strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logging.WithComponent("homeassistant"),
	}
}

func (h *HomeAssistant) Name() string    { return "home_assistant" }
func (h *HomeAssistant) Connected() bool { return h.connected.Load() }

// Connect verifies the API is reachable with the configured token.
func (h *HomeAssistant) Connect(ctx context.Context) error {
	if h.url == "" || h.token == "" {
		return fmt.Errorf("home assistant url and token are required")
	}
	var ping struct {
		Message string `json:"message"`
	}
	if err := h.get(ctx, "/api/", &ping); err != nil {
		return fmt.Errorf("home assistant unreachable: %w", err)
	}
	h.connected.Store(true)
	h.log.Info("connected to home assistant", "url", h.url)
	return nil
}

func (h *HomeAssistant) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.url+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("home assistant returned status %d: %s", resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (h *HomeAssistant) get(ctx context.Context, path string, out any) error {
	return h.do(ctx, http.MethodGet, path, nil, out)
}

type entityState struct {
	EntityID   string `json:"entity_id"`
	State      string `json:"state"`
	Attributes struct {
		FriendlyName string `json:"friendly_name"`
	} `json:"attributes"`
}

func (e entityState) device() command.Device {
	name := e.Attributes.FriendlyName
	if name == "" {
		name = e.EntityID
	}
	return command.Device{ID: e.EntityID, Name: name, State: e.State}
}

// Devices implements command.Integration. Only controllable domains are
// exposed to voice commands.
func (h *HomeAssistant) Devices(ctx context.Context) ([]command.Device, error) {
	var states []entityState
	if err := h.get(ctx, "/api/states", &states); err != nil {
		return nil, err
	}
	var devices []command.Device
	for _, s := range states {
		domain, _, ok := strings.Cut(s.EntityID, ".")
		if !ok || !controllableDomains[domain] {
			continue
		}
		devices = append(devices, s.device())
	}
	return devices, nil
}

// Execute implements command.Integration.
func (h *HomeAssistant) Execute(ctx context.Context, action, deviceID string) (string, error) {
	switch action {
	case "turn_on", "turn_off", "toggle":
		payload := map[string]string{"entity_id": deviceID}
		if err := h.do(ctx, http.MethodPost, "/api/services/homeassistant/"+action, payload, nil); err != nil {
			return "", err
		}
		name := h.friendlyName(ctx, deviceID)
		h.log.Info("service called", "action", action, "entity", deviceID)
		if action == "turn_off" {
			return fmt.Sprintf("Выключила «%s» ✅", name), nil
		}
		return fmt.Sprintf("Включила «%s» ✅", name), nil

	case "get_state":
		var state entityState
		if err := h.get(ctx, "/api/states/"+deviceID, &state); err != nil {
			return "", err
		}
		d := state.device()
		return fmt.Sprintf("«%s» сейчас: %s", d.Name, stateRu(d.State)), nil
	}
	return "", fmt.Errorf("unknown action: %s", action)
}

func (h *HomeAssistant) friendlyName(ctx context.Context, deviceID string) string {
	var state entityState
	if err := h.get(ctx, "/api/states/"+deviceID, &state); err != nil {
		return deviceID
	}
	return state.device().Name
}

func stateRu(state string) string {
	switch strings.ToLower(state) {
	case "on":
		return "включено"
	case "off":
		return "выключено"
	case "unavailable":
		return "недоступно"
	}
	return state
}
