// Package smarthome connects EVA to smart home backends. Home Assistant is
// reached over its REST API, bare IoT devices over MQTT.
package smarthome

import (
	"sync"

	"github.com/evahub/eva-gateway/internal/command"
)

// Integration extends the executor contract with connection state.
type Integration interface {
	command.Integration
	Connected() bool
}

// Registry holds integrations in registration order.
type Registry struct {
	mu           sync.RWMutex
	integrations []Integration
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(integration Integration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrations = append(r.integrations, integration)
}

// Connected implements command.HomeRegistry. Order is registration order,
// which decides device resolution precedence across backends.
func (r *Registry) Connected() []command.Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []command.Integration
	for _, integration := range r.integrations {
		if integration.Connected() {
			out = append(out, integration)
		}
	}
	return out
}

// All returns every registered integration, connected or not.
func (r *Registry) All() []Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Integration, len(r.integrations))
	copy(out, r.integrations)
	return out
}
