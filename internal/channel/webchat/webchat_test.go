package webchat

import "testing"

func TestName(t *testing.T) {
	adapter := New(true)
	if adapter.Name() != "webchat" {
		t.Errorf("expected name webchat, got %s", adapter.Name())
	}
	if !adapter.IsEnabled() {
		t.Error("expected enabled adapter")
	}
}
