package telegram

import (
	"testing"
)

func TestAdapterName(t *testing.T) {
	adapter := New("test", true)
	if adapter.Name() != "telegram" {
		t.Errorf("Expected telegram, got %s", adapter.Name())
	}
	if New("", true).IsEnabled() {
		t.Error("Expected adapter without token to be disabled")
	}
}
