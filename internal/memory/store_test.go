package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return NewStore(rdb)
}

func TestAppendAndRecent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "test-memory-" + t.Name()
	defer s.Clear(ctx, userID)

	require.NoError(t, s.Append(ctx, userID, Message{Role: "user", Content: "привет"}))
	require.NoError(t, s.Append(ctx, userID, Message{Role: "assistant", Content: "Привет! 😊", Emotion: "friendly"}))

	messages, err := s.Recent(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "привет", messages[0].Content)
	assert.Equal(t, "friendly", messages[1].Emotion)
	assert.False(t, messages[0].Timestamp.IsZero())
}

func TestHistoryIsCapped(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "test-memory-" + t.Name()
	defer s.Clear(ctx, userID)

	for i := 0; i < maxHistory+20; i++ {
		require.NoError(t, s.Append(ctx, userID, Message{Role: "user", Content: fmt.Sprintf("msg %d", i)}))
	}

	messages, err := s.All(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, messages, maxHistory)
	assert.Equal(t, "msg 20", messages[0].Content)
}

func TestClear(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "test-memory-" + t.Name()

	require.NoError(t, s.Append(ctx, userID, Message{Role: "user", Content: "x"}))
	require.NoError(t, s.Clear(ctx, userID))

	messages, err := s.All(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "test-memory-" + t.Name()
	defer s.Clear(ctx, userID)

	require.NoError(t, s.Append(ctx, userID, Message{Role: "user", Content: "a"}))
	require.NoError(t, s.Append(ctx, userID, Message{Role: "assistant", Content: "b"}))
	require.NoError(t, s.Append(ctx, userID, Message{Role: "user", Content: "c"}))

	stats, err := s.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, 2, stats.UserCount)
	assert.Equal(t, 1, stats.AssistantCount)
	assert.False(t, stats.LastMessage.IsZero())
}
