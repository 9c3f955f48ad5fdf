package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/evahub/eva-gateway/internal/command"
	"github.com/evahub/eva-gateway/internal/logging"
)

const (
	StatusPending = "pending"
	StatusDone    = "done"
)

var priorityOrder = map[string]int{"urgent": 0, "high": 1, "normal": 2, "low": 3}

// Note is a free-form saved note.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
}

// Task is a todo item with a priority and completion status.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	UserID    string    `json:"user_id"`
}

// Notes manages notes and tasks, keyed per user in Redis hashes.
type Notes struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewNotes(rdb *redis.Client) *Notes {
	return &Notes{rdb: rdb, log: logging.WithComponent("store")}
}

func notesKey(userID string) string { return "eva:notes:" + userID }
func tasksKey(userID string) string { return "eva:tasks:" + userID }

// AddNote stores a new note. Duplicate content creates a second record.
func (n *Notes) AddNote(ctx context.Context, userID, content string) error {
	note := Note{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: time.Now(),
		UserID:    userID,
	}
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	if err := n.rdb.HSet(ctx, notesKey(userID), note.ID, data).Err(); err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	n.log.Info("note added", "user", userID)
	return nil
}

// GetNotes returns the user's notes, newest first.
func (n *Notes) GetNotes(ctx context.Context, userID string, limit int) ([]Note, error) {
	values, err := n.rdb.HVals(ctx, notesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	notes := make([]Note, 0, len(values))
	for _, v := range values {
		var note Note
		if err := json.Unmarshal([]byte(v), &note); err != nil {
			n.log.Error("corrupt note skipped", "user", userID, "error", err)
			continue
		}
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// Search returns notes whose content contains the query, case-insensitive.
// An empty query matches everything.
func (n *Notes) Search(ctx context.Context, userID, query string) ([]Note, error) {
	notes, err := n.GetNotes(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	matches := notes[:0]
	for _, note := range notes {
		if strings.Contains(strings.ToLower(note.Content), q) {
			matches = append(matches, note)
		}
	}
	return matches, nil
}

// AddTask stores a new pending task.
func (n *Notes) AddTask(ctx context.Context, userID, title, priority string) error {
	if _, ok := priorityOrder[priority]; !ok {
		priority = "normal"
	}
	task := Task{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now(),
		Priority:  priority,
		Status:    StatusPending,
		UserID:    userID,
	}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := n.rdb.HSet(ctx, tasksKey(userID), task.ID, data).Err(); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	n.log.Info("task added", "user", userID, "priority", priority)
	return nil
}

// GetTasks returns pending tasks sorted by priority, then age.
func (n *Notes) GetTasks(ctx context.Context, userID string) ([]Task, error) {
	values, err := n.rdb.HVals(ctx, tasksKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	tasks := make([]Task, 0, len(values))
	for _, v := range values {
		var task Task
		if err := json.Unmarshal([]byte(v), &task); err != nil {
			n.log.Error("corrupt task skipped", "user", userID, "error", err)
			continue
		}
		if task.Status == StatusDone {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		pi, pj := priorityOrder[tasks[i].Priority], priorityOrder[tasks[j].Priority]
		if pi != pj {
			return pi < pj
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// Complete marks the first pending task whose title contains the given text
// (case-insensitive) as done and returns it. Completing an already-done
// match again is not an error; the lookup only sees pending tasks, so a
// repeat call reports not found via command.ErrNotFound.
func (n *Notes) Complete(ctx context.Context, userID, title string) (Task, error) {
	tasks, err := n.GetTasks(ctx, userID)
	if err != nil {
		return Task{}, err
	}
	q := strings.ToLower(title)
	for _, task := range tasks {
		if !strings.Contains(strings.ToLower(task.Title), q) {
			continue
		}
		task.Status = StatusDone
		data, err := json.Marshal(task)
		if err != nil {
			return Task{}, fmt.Errorf("marshal task: %w", err)
		}
		if err := n.rdb.HSet(ctx, tasksKey(userID), task.ID, data).Err(); err != nil {
			return Task{}, fmt.Errorf("save task: %w", err)
		}
		return task, nil
	}
	return Task{}, command.ErrNotFound
}

// ListNotes implements command.NotesStore.
func (n *Notes) ListNotes(ctx context.Context, userID string) (string, error) {
	notes, err := n.GetNotes(ctx, userID, 0)
	if err != nil {
		return "", err
	}
	return FormatNotes(notes), nil
}

// SearchNotes implements command.NotesStore.
func (n *Notes) SearchNotes(ctx context.Context, userID, query string) (string, error) {
	notes, err := n.Search(ctx, userID, query)
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return fmt.Sprintf("Ничего не нашла по запросу «%s»", query), nil
	}
	return FormatNotes(notes), nil
}

// ListTasks implements command.NotesStore.
func (n *Notes) ListTasks(ctx context.Context, userID string) (string, error) {
	tasks, err := n.GetTasks(ctx, userID)
	if err != nil {
		return "", err
	}
	return FormatTasks(tasks), nil
}

// CompleteTask implements command.NotesStore.
func (n *Notes) CompleteTask(ctx context.Context, userID, title string) (string, error) {
	task, err := n.Complete(ctx, userID, title)
	if err != nil {
		return "", err
	}
	return task.Title, nil
}

// FormatNotes renders notes for voice output.
func FormatNotes(notes []Note) string {
	if len(notes) == 0 {
		return "У тебя пока нет заметок."
	}
	lines := []string{fmt.Sprintf("У тебя %d %s:", len(notes),
		command.PluralRu(len(notes), "заметка", "заметки", "заметок"))}
	for i, note := range notes {
		if i == 5 {
			lines = append(lines, fmt.Sprintf("...и ещё %d", len(notes)-5))
			break
		}
		content := note.Content
		if len([]rune(content)) > 100 {
			content = string([]rune(content)[:100]) + "..."
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, content))
	}
	return strings.Join(lines, "\n")
}

// FormatTasks renders pending tasks grouped by priority.
func FormatTasks(tasks []Task) string {
	if len(tasks) == 0 {
		return "У тебя нет активных задач. Отличная работа!"
	}

	groups := []struct {
		priority string
		header   string
		max      int
	}{
		{"urgent", "🔴 Срочные", 3},
		{"high", "🟠 Важные", 3},
		{"normal", "🟡 Обычные", 3},
		{"low", "🟢 Неспешные", 2},
	}

	lines := []string{fmt.Sprintf("У тебя %d %s:", len(tasks),
		command.PluralRu(len(tasks), "задача", "задачи", "задач"))}
	for _, g := range groups {
		var in []Task
		for _, t := range tasks {
			if t.Priority == g.priority {
				in = append(in, t)
			}
		}
		if len(in) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%d):", g.header, len(in)))
		for i, t := range in {
			if i == g.max {
				break
			}
			lines = append(lines, "  • "+t.Title)
		}
	}
	return strings.Join(lines, "\n")
}
