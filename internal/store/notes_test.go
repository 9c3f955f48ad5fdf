package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evahub/eva-gateway/internal/command"
)

func setupTestRedis(t *testing.T) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	user := testUser(t)
	t.Cleanup(func() {
		rdb.Del(context.Background(), notesKey(user), tasksKey(user))
	})
	return rdb
}

func testUser(t *testing.T) string {
	return "test-" + t.Name()
}

func TestFormatNotesEmpty(t *testing.T) {
	assert.Equal(t, "У тебя пока нет заметок.", FormatNotes(nil))
}

func TestFormatNotesTruncatesList(t *testing.T) {
	notes := make([]Note, 7)
	for i := range notes {
		notes[i] = Note{Content: fmt.Sprintf("заметка %d", i+1)}
	}
	got := FormatNotes(notes)
	assert.Contains(t, got, "У тебя 7 заметок:")
	assert.Contains(t, got, "5. заметка 5")
	assert.Contains(t, got, "...и ещё 2")
	assert.NotContains(t, got, "6. заметка 6")
}

func TestFormatNotesPlural(t *testing.T) {
	assert.Contains(t, FormatNotes([]Note{{Content: "x"}}), "У тебя 1 заметка:")
	assert.Contains(t, FormatNotes([]Note{{Content: "x"}, {Content: "y"}}), "У тебя 2 заметки:")
}

func TestFormatTasksGroupsByPriority(t *testing.T) {
	tasks := []Task{
		{Title: "сдать отчёт", Priority: "urgent"},
		{Title: "купить продукты", Priority: "normal"},
		{Title: "разобрать почту", Priority: "low"},
	}
	got := FormatTasks(tasks)
	assert.Contains(t, got, "У тебя 3 задачи:")
	assert.Contains(t, got, "🔴 Срочные (1):")
	assert.Contains(t, got, "🟡 Обычные (1):")
	assert.Contains(t, got, "🟢 Неспешные (1):")
	assert.Contains(t, got, "  • сдать отчёт")
}

func TestFormatTasksEmpty(t *testing.T) {
	assert.Equal(t, "У тебя нет активных задач. Отличная работа!", FormatTasks(nil))
}

func TestNotesRoundTrip(t *testing.T) {
	rdb := setupTestRedis(t)
	n := NewNotes(rdb)
	ctx := context.Background()
	user := testUser(t)

	require.NoError(t, n.AddNote(ctx, user, "купить молоко"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, n.AddNote(ctx, user, "позвонить в банк"))

	notes, err := n.GetNotes(ctx, user, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "позвонить в банк", notes[0].Content) // newest first

	found, err := n.Search(ctx, user, "МОЛОКО")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "купить молоко", found[0].Content)

	msg, err := n.SearchNotes(ctx, user, "такси")
	require.NoError(t, err)
	assert.Equal(t, "Ничего не нашла по запросу «такси»", msg)
}

func TestTasksPriorityAndCompletion(t *testing.T) {
	rdb := setupTestRedis(t)
	n := NewNotes(rdb)
	ctx := context.Background()
	user := testUser(t)

	require.NoError(t, n.AddTask(ctx, user, "погулять с собакой", "low"))
	require.NoError(t, n.AddTask(ctx, user, "сдать отчёт", "urgent"))
	require.NoError(t, n.AddTask(ctx, user, "что-то странное", "nonsense")) // falls back to normal

	tasks, err := n.GetTasks(ctx, user)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "сдать отчёт", tasks[0].Title)
	assert.Equal(t, "normal", tasks[1].Priority)

	done, err := n.Complete(ctx, user, "отчёт")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)

	// completed tasks disappear from the pending view
	tasks, err = n.GetTasks(ctx, user)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, err = n.Complete(ctx, user, "отчёт")
	assert.ErrorIs(t, err, command.ErrNotFound)
}
