package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evahub/eva-gateway/internal/assistant"
	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/metrics"
	"github.com/evahub/eva-gateway/internal/notify"
)

// Responder turns an incoming message into a reply.
type Responder interface {
	HandleMessage(ctx context.Context, userID, text string) (assistant.Reply, error)
}

// Manager starts the enabled adapters, pumps their incoming messages through
// the responder, and routes proactive notifications back out.
type Manager struct {
	responder Responder
	adapters  []Adapter
	log       *slog.Logger

	mu          sync.RWMutex
	lastChannel map[string]string // user -> adapter name they last wrote from
}

func NewManager(responder Responder, adapters ...Adapter) *Manager {
	return &Manager{
		responder:   responder,
		adapters:    adapters,
		log:         logging.WithComponent("channel"),
		lastChannel: map[string]string{},
	}
}

// Start launches every enabled adapter and its message pump.
func (m *Manager) Start(ctx context.Context) error {
	for _, a := range m.adapters {
		if !a.IsEnabled() {
			continue
		}
		if err := a.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", a.Name(), err)
		}
		m.log.Info("channel started", "channel", a.Name())
		go m.pump(ctx, a)
	}
	return nil
}

// Stop shuts down every enabled adapter.
func (m *Manager) Stop() {
	for _, a := range m.adapters {
		if !a.IsEnabled() {
			continue
		}
		if err := a.Stop(); err != nil {
			m.log.Error("channel stop failed", "channel", a.Name(), "error", err)
		}
	}
}

func (m *Manager) pump(ctx context.Context, a Adapter) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-a.Incoming():
			if !ok {
				return
			}
			m.handle(ctx, a, msg)
		}
	}
}

func (m *Manager) handle(ctx context.Context, a Adapter, msg *Message) {
	m.mu.Lock()
	m.lastChannel[msg.UserID] = a.Name()
	m.mu.Unlock()

	reply, err := m.responder.HandleMessage(ctx, msg.UserID, msg.Content)
	if err != nil {
		m.log.Error("message handling failed", "channel", a.Name(), "user", msg.UserID, "error", err)
		return
	}

	resp := &Response{
		Content:  reply.Text,
		Emotion:  reply.Emotion,
		AudioURL: reply.AudioURL,
	}
	if err := a.SendMessage(msg.UserID, resp); err != nil {
		m.log.Error("reply send failed", "channel", a.Name(), "user", msg.UserID, "error", err)
	}
}

// Notify delivers a proactive notification. It prefers the channel the user
// last wrote from and falls back to broadcasting. Used as the stream consumer
// handler, so a returned error triggers a retry.
func (m *Manager) Notify(ctx context.Context, n notify.Notification) error {
	resp := &Response{Content: n.Message, Emotion: n.Emotion}

	m.mu.RLock()
	preferred := m.lastChannel[n.UserID]
	m.mu.RUnlock()

	if preferred != "" {
		for _, a := range m.adapters {
			if a.Name() != preferred || !a.IsEnabled() {
				continue
			}
			if err := a.SendMessage(n.UserID, resp); err == nil {
				metrics.NotificationsSent.WithLabelValues(a.Name()).Inc()
				return nil
			}
		}
	}

	delivered := false
	for _, a := range m.adapters {
		if !a.IsEnabled() {
			continue
		}
		if err := a.SendMessage(n.UserID, resp); err != nil {
			m.log.Error("notification send failed", "channel", a.Name(), "user", n.UserID, "error", err)
			continue
		}
		metrics.NotificationsSent.WithLabelValues(a.Name()).Inc()
		delivered = true
	}
	if !delivered {
		return fmt.Errorf("no channel delivered notification for user %s", n.UserID)
	}
	return nil
}
