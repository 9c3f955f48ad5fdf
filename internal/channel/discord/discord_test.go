package discord

import "testing"

func TestName(t *testing.T) {
	adapter := New("token", true)
	if adapter.Name() != "discord" {
		t.Errorf("expected name discord, got %s", adapter.Name())
	}
	if !adapter.IsEnabled() {
		t.Error("expected adapter with token to be enabled")
	}
	if New("", true).IsEnabled() {
		t.Error("expected adapter without token to be disabled")
	}
}
