// Package tts hands replies to a speech synthesis sidecar. Speech stays out
// of process; the gateway only exchanges text for an audio URL.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/logging"
)

// Client calls the sidecar's synthesis endpoint.
type Client struct {
	url        string
	voice      string
	enabled    bool
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg config.TTSConfig) *Client {
	return &Client{
		url:        strings.TrimRight(cfg.URL, "/"),
		voice:      cfg.Voice,
		enabled:    cfg.Enabled && cfg.URL != "",
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
		log:        logging.WithComponent("tts"),
	}
}

func (c *Client) Enabled() bool { return c.enabled }

type synthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Emotion  string `json:"emotion,omitempty"`
	Voice    string `json:"voice,omitempty"`
}

type synthesizeResponse struct {
	AudioURL string `json:"audio_url"`
}

// Synthesize converts text to speech and returns the audio URL. Errors are
// logged and swallowed so a broken sidecar never blocks a chat reply.
func (c *Client) Synthesize(ctx context.Context, text, language, emotion string) string {
	if !c.enabled || text == "" {
		return ""
	}

	body, err := json.Marshal(synthesizeRequest{
		Text:     text,
		Language: language,
		Emotion:  emotion,
		Voice:    c.voice,
	})
	if err != nil {
		c.log.Error("synthesize request marshal failed", "error", err)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/v1/synthesize", bytes.NewReader(body))
	if err != nil {
		c.log.Error("synthesize request failed", "error", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("tts sidecar unreachable", "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.log.Error("tts sidecar error", "status", resp.StatusCode, "body", string(raw))
		return ""
	}

	var parsed synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Error("synthesize response decode failed", "error", err)
		return ""
	}
	return parsed.AudioURL
}

// Health checks the sidecar's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if !c.enabled {
		return fmt.Errorf("tts is disabled")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts health check returned status %d", resp.StatusCode)
	}
	return nil
}
