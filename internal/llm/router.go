package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/logging"
)

// Router holds configured providers and fails over between them. The
// default provider is tried first, then the rest in config order.
type Router struct {
	mu      sync.RWMutex
	clients []Client
	log     *slog.Logger
}

func NewRouter(cfg config.LLMConfig) (*Router, error) {
	r := &Router{log: logging.WithComponent("llm")}
	for _, pc := range cfg.Providers {
		client, err := newClient(pc)
		if err != nil {
			r.log.Error("provider skipped", "provider", pc.Name, "error", err)
			continue
		}
		if pc.Name == cfg.DefaultProvider {
			r.clients = append([]Client{client}, r.clients...)
		} else {
			r.clients = append(r.clients, client)
		}
	}
	if len(r.clients) == 0 {
		return nil, fmt.Errorf("no usable llm providers configured")
	}
	return r, nil
}

func newClient(pc config.ProviderConfig) (Client, error) {
	switch pc.Type {
	case "ollama":
		return NewOllamaClient(pc)
	case "openai":
		return NewOpenAIClient(pc)
	}
	return nil, fmt.Errorf("unsupported provider type: %s", pc.Type)
}

// Chat tries each provider in order until one succeeds.
func (r *Router) Chat(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	r.mu.RLock()
	clients := r.clients
	r.mu.RUnlock()

	var lastErr error
	for _, client := range clients {
		text, err := client.Chat(ctx, system, messages, maxTokens)
		if err == nil {
			return text, nil
		}
		r.log.Error("provider failed, trying next", "provider", client.Name(), "error", err)
		lastErr = err
	}
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}

// Health reports per-provider health.
func (r *Router) Health(ctx context.Context) map[string]error {
	r.mu.RLock()
	clients := r.clients
	r.mu.RUnlock()

	results := make(map[string]error, len(clients))
	for _, client := range clients {
		results[client.Name()] = client.Health(ctx)
	}
	return results
}
