package habits

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evahub/eva-gateway/internal/command"
)

func setupTracker(t *testing.T) (*Tracker, string) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	user := "test-" + t.Name()
	t.Cleanup(func() {
		rdb.Del(context.Background(), habitsKey(user), logsKey(user))
	})
	return NewTracker(rdb), user
}

func TestAddAndList(t *testing.T) {
	tr, user := setupTracker(t)
	ctx := context.Background()

	list, err := tr.List(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "У тебя пока нет привычек. Скажи 'новая привычка: название' чтобы добавить!", list)

	require.NoError(t, tr.Add(ctx, user, "зарядка"))
	require.NoError(t, tr.Add(ctx, user, "чтение"))

	list, err = tr.List(ctx, user)
	require.NoError(t, err)
	assert.Contains(t, list, "📊 Твои привычки (2):")
	assert.Contains(t, list, "  • зарядка")
	assert.Contains(t, list, "  • чтение")
}

func TestCompleteBuildsStreak(t *testing.T) {
	tr, user := setupTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, user, "зарядка"))

	// backdated completions for yesterday and the day before
	habits, err := tr.Habits(ctx, user)
	require.NoError(t, err)
	id := habits[0].ID
	for days := 1; days <= 2; days++ {
		date := time.Now().AddDate(0, 0, -days).Format(dateLayout)
		require.NoError(t, tr.rdb.SAdd(ctx, logsKey(user), id+":"+date).Err())
	}

	msg, err := tr.Complete(ctx, user, "ЗАРЯДКА")
	require.NoError(t, err)
	assert.Contains(t, msg, "«зарядка» выполнена!")
	assert.Contains(t, msg, "Стрик: 3 дня 🔥")

	// second completion on the same day keeps the streak
	msg, err = tr.Complete(ctx, user, "зарядка")
	require.NoError(t, err)
	assert.Contains(t, msg, "3 дня")
}

func TestStreakBreaksOnGap(t *testing.T) {
	tr, user := setupTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, user, "медитация"))
	habits, err := tr.Habits(ctx, user)
	require.NoError(t, err)
	id := habits[0].ID

	// completed three days ago only, no streak survives
	date := time.Now().AddDate(0, 0, -3).Format(dateLayout)
	require.NoError(t, tr.rdb.SAdd(ctx, logsKey(user), id+":"+date).Err())

	streak, err := tr.Streak(ctx, user, id)
	require.NoError(t, err)
	assert.Equal(t, 0, streak)
}

func TestCompleteUnknownHabit(t *testing.T) {
	tr, user := setupTracker(t)
	_, err := tr.Complete(context.Background(), user, "полёты")
	assert.ErrorIs(t, err, command.ErrNotFound)
}

func TestTodayStatus(t *testing.T) {
	tr, user := setupTracker(t)
	ctx := context.Background()

	status, err := tr.TodayStatus(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "У тебя пока нет привычек для отслеживания.", status)

	require.NoError(t, tr.Add(ctx, user, "зарядка"))
	require.NoError(t, tr.Add(ctx, user, "чтение"))
	_, err = tr.Complete(ctx, user, "зарядка")
	require.NoError(t, err)

	status, err = tr.TodayStatus(ctx, user)
	require.NoError(t, err)
	assert.Contains(t, status, "Привычки на сегодня: 1/2")
	assert.Contains(t, status, "✅ зарядка")
	assert.Contains(t, status, "⬜ чтение")
	assert.Contains(t, status, "Осталось: 1")

	_, err = tr.Complete(ctx, user, "чтение")
	require.NoError(t, err)
	status, err = tr.TodayStatus(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "🎉 Отлично! Все 2 привычек выполнены сегодня!", status)
}
