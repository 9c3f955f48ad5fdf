package mood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeywords(t *testing.T) {
	tr := &Tracker{}

	tests := []struct {
		text  string
		mood  string
		score int
	}{
		{"настроение отличное", "happy", 9},
		{"я сегодня устал", "tired", 4},
		{"чувствую себя плохо", "sad", 2},
		{"всё бесит", "angry", 2},
		{"i feel happy today", "happy", 9},
		{"настроение так себе", "neutral", 4},
	}
	for _, tt := range tests {
		entry, ok := tr.Parse(tt.text)
		require.True(t, ok, tt.text)
		assert.Equal(t, tt.mood, entry.Mood, tt.text)
		assert.Equal(t, tt.score, entry.Score, tt.text)
	}
}

func TestParseNumericScore(t *testing.T) {
	tr := &Tracker{}

	entry, ok := tr.Parse("настроение на 7 из 10")
	require.True(t, ok)
	assert.Equal(t, "good", entry.Mood)
	assert.Equal(t, 7, entry.Score)

	entry, ok = tr.Parse("mood 9/10")
	require.True(t, ok)
	assert.Equal(t, "happy", entry.Mood)
}

func TestParseNoMood(t *testing.T) {
	tr := &Tracker{}

	_, ok := tr.Parse("настроение непонятное")
	assert.False(t, ok)
}
