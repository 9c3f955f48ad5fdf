package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"который час", "ru"},
		{"what time is it", "en"},
		{"привет, how are you doing today my friend", "en"},
		{"ok привет как дела", "ru"},
		{"12345", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.text), tt.text)
	}
}
