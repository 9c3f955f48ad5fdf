package webchat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evahub/eva-gateway/internal/channel"
	"github.com/evahub/eva-gateway/internal/logging"
)

// Adapter serves browser chat over a websocket mounted on the gateway's HTTP
// server at /ws.
type Adapter struct {
	enabled  bool
	incoming chan *channel.Message
	upgrader websocket.Upgrader
	log      *slog.Logger

	connMux sync.RWMutex
	conns   map[string]*websocket.Conn
	stopCh  chan struct{}
}

// WSMessage is the wire format in both directions.
type WSMessage struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	UserID   string `json:"user_id,omitempty"`
	Emotion  string `json:"emotion,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
}

func New(enabled bool) *Adapter {
	return &Adapter{
		enabled:  enabled,
		incoming: make(chan *channel.Message, 100),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:    logging.WithComponent("webchat"),
		conns:  make(map[string]*websocket.Conn),
		stopCh: make(chan struct{}),
	}
}

func (w *Adapter) Name() string {
	return "webchat"
}

func (w *Adapter) IsEnabled() bool {
	return w.enabled
}

// Start is a no-op, the websocket handler is mounted by the HTTP server.
func (w *Adapter) Start(ctx context.Context) error {
	return nil
}

func (w *Adapter) Stop() error {
	close(w.stopCh)
	w.connMux.Lock()
	for _, conn := range w.conns {
		conn.Close()
	}
	w.connMux.Unlock()
	close(w.incoming)
	return nil
}

func (w *Adapter) SendMessage(userID string, resp *channel.Response) error {
	w.connMux.RLock()
	conn, exists := w.conns[userID]
	w.connMux.RUnlock()
	if !exists {
		return nil
	}

	msg := WSMessage{
		Type:     "message",
		Content:  resp.Content,
		Emotion:  resp.Emotion,
		AudioURL: resp.AudioURL,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (w *Adapter) Incoming() <-chan *channel.Message {
	return w.incoming
}

// Handler returns the websocket endpoint for the HTTP server.
func (w *Adapter) Handler() http.Handler {
	return http.HandlerFunc(w.wsHandler)
}

func (w *Adapter) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.Error("websocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous_" + strconv.FormatInt(time.Now().Unix(), 10)
	}

	w.connMux.Lock()
	w.conns[userID] = conn
	w.connMux.Unlock()

	defer func() {
		w.connMux.Lock()
		delete(w.conns, userID)
		w.connMux.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-w.stopCh:
			return
		default:
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					w.log.Debug("websocket read ended", "user", userID, "error", err)
				}
				return
			}
			if msg.Type != "message" {
				continue
			}
			w.incoming <- &channel.Message{
				ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
				Channel:   "webchat",
				UserID:    userID,
				Content:   msg.Content,
				Metadata:  map[string]string{"connection_id": userID},
				Timestamp: time.Now().Unix(),
			}
		}
	}
}
