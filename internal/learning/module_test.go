package learning

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestModule(t *testing.T) *Module {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return NewModule(rdb)
}

func TestFeedbackAdjustsVerbosity(t *testing.T) {
	m := setupTestModule(t)
	ctx := context.Background()
	userID := "test-learning-" + t.Name()
	defer m.rdb.Del(ctx, key(userID))

	resp, err := m.Feedback(ctx, userID, "отвечай короче")
	require.NoError(t, err)
	assert.Equal(t, "Поняла, учту! 🎯", resp)

	style, err := m.Style(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, style.Verbosity, 0.001)
}

func TestFeedbackUnrecognized(t *testing.T) {
	m := setupTestModule(t)
	ctx := context.Background()
	userID := "test-learning-" + t.Name()
	defer m.rdb.Del(ctx, key(userID))

	resp, err := m.Feedback(ctx, userID, "будь оранжевой")
	require.NoError(t, err)
	assert.Equal(t, "Поняла, постараюсь учесть!", resp)

	style, err := m.Style(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, defaultStyle(), style)
}

func TestStatusFresh(t *testing.T) {
	m := setupTestModule(t)
	ctx := context.Background()
	userID := "test-learning-" + t.Name()
	defer m.rdb.Del(ctx, key(userID))

	status, err := m.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Я только начинаю узнавать тебя!", status)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-0.1))
	assert.Equal(t, 1.0, clamp(1.3))
	assert.Equal(t, 0.5, clamp(0.5))
}

func TestDefaultStyle(t *testing.T) {
	s := defaultStyle()
	assert.Equal(t, 0.5, s.Formality)
	assert.Equal(t, 0.5, s.Verbosity)
	assert.Equal(t, 0.5, s.HumorLevel)
	assert.Equal(t, 0.3, s.EmojiUsage)
}
