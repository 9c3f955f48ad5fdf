package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// wsMessage mirrors the webchat wire format.
type wsMessage struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	UserID   string `json:"user_id,omitempty"`
	Emotion  string `json:"emotion,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
}

// Client connects the TUI to a running gateway over its websocket.
type Client struct {
	baseURL string
	userID  string
	conn    *websocket.Conn
	http    *http.Client
}

func NewClient(baseURL, userID string) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Connect dials the gateway websocket.
func (c *Client) Connect() error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("bad gateway url: %w", err)
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	wsURL := fmt.Sprintf("%s://%s/ws?user_id=%s", scheme, u.Host, url.QueryEscape(c.userID))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect to gateway: %w", err)
	}
	c.conn = conn
	return nil
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// Send pushes one user message to the gateway.
func (c *Client) Send(text string) error {
	return c.conn.WriteJSON(wsMessage{Type: "message", Content: text, UserID: c.userID})
}

// Receive blocks until the next reply arrives.
func (c *Client) Receive() (wsMessage, error) {
	var msg wsMessage
	err := c.conn.ReadJSON(&msg)
	return msg, err
}

// gatewayStatus is the subset of /api/v1/status the status panel shows.
type gatewayStatus struct {
	Status   string          `json:"status"`
	Uptime   string          `json:"uptime"`
	Channels map[string]bool `json:"channels"`
	Services map[string]struct {
		Status string `json:"status"`
	} `json:"services"`
}

// FetchStatus pulls the gateway status snapshot.
func (c *Client) FetchStatus() (gatewayStatus, error) {
	var status gatewayStatus
	resp, err := c.http.Get(c.baseURL + "/api/v1/status")
	if err != nil {
		return status, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&status)
	return status, err
}
