package smarthome

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evahub/eva-gateway/internal/command"
)

type stubIntegration struct {
	name      string
	connected bool
}

func (s *stubIntegration) Name() string    { return s.name }
func (s *stubIntegration) Connected() bool { return s.connected }
func (s *stubIntegration) Devices(context.Context) ([]command.Device, error) {
	return nil, nil
}
func (s *stubIntegration) Execute(context.Context, string, string) (string, error) {
	return "", nil
}

func TestRegistryConnectedOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubIntegration{name: "home_assistant", connected: true})
	r.Register(&stubIntegration{name: "mqtt", connected: false})
	r.Register(&stubIntegration{name: "second_ha", connected: true})

	connected := r.Connected()
	assert.Len(t, connected, 2)
	assert.Equal(t, "home_assistant", connected[0].Name())
	assert.Equal(t, "second_ha", connected[1].Name())
	assert.Len(t, r.All(), 3)
}

func TestRegistryEmpty(t *testing.T) {
	assert.Empty(t, NewRegistry().Connected())
}

func TestStateRu(t *testing.T) {
	assert.Equal(t, "включено", stateRu("on"))
	assert.Equal(t, "выключено", stateRu("OFF"))
	assert.Equal(t, "недоступно", stateRu("unavailable"))
	assert.Equal(t, "22.5", stateRu("22.5"))
}
