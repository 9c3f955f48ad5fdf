// Package habits tracks daily habits and completion streaks.
package habits

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

const dateLayout = "2006-01-02"

// Habit is a tracked habit.
type Habit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
	Active    bool      `json:"active"`
}

// Tracker stores habits and per-day completion marks in Redis.
type Tracker struct {
	rdb *redis.Client
	log *slog.Logger
	now func() time.Time
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb, log: logging.WithComponent("habits"), now: time.Now}
}

func habitsKey(userID string) string { return "eva:habits:" + userID }

// completion marks live in a set of "habitID:YYYY-MM-DD" members
func logsKey(userID string) string { return "eva:habitlogs:" + userID }

// Add registers a new habit.
func (t *Tracker) Add(ctx context.Context, userID, name string) error {
	habit := Habit{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: t.now(),
		UserID:    userID,
		Active:    true,
	}
	data, err := json.Marshal(habit)
	if err != nil {
		return fmt.Errorf("marshal habit: %w", err)
	}
	if err := t.rdb.HSet(ctx, habitsKey(userID), habit.ID, data).Err(); err != nil {
		return fmt.Errorf("save habit: %w", err)
	}
	t.log.Info("habit added", "user", userID, "name", name)
	return nil
}

// Habits returns the user's active habits, oldest first.
func (t *Tracker) Habits(ctx context.Context, userID string) ([]Habit, error) {
	values, err := t.rdb.HVals(ctx, habitsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	habits := make([]Habit, 0, len(values))
	for _, v := range values {
		var h Habit
		if err := json.Unmarshal([]byte(v), &h); err != nil {
			continue
		}
		if h.Active {
			habits = append(habits, h)
		}
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].CreatedAt.Before(habits[j].CreatedAt) })
	return habits, nil
}

// Count reports how many active habits the user tracks.
func (t *Tracker) Count(ctx context.Context, userID string) (int, error) {
	habits, err := t.Habits(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(habits), nil
}

func (t *Tracker) find(ctx context.Context, userID, name string) (Habit, error) {
	habits, err := t.Habits(ctx, userID)
	if err != nil {
		return Habit{}, err
	}
	q := strings.ToLower(name)
	for _, h := range habits {
		if strings.Contains(strings.ToLower(h.Name), q) {
			return h, nil
		}
	}
	return Habit{}, command.ErrNotFound
}

// Complete marks a habit done for today and reports the streak. Marking the
// same habit twice on one day is a no-op success.
func (t *Tracker) Complete(ctx context.Context, userID, name string) (string, error) {
	habit, err := t.find(ctx, userID, name)
	if err != nil {
		return "", err
	}
	today := t.now().Format(dateLayout)
	if err := t.rdb.SAdd(ctx, logsKey(userID), habit.ID+":"+today).Err(); err != nil {
		return "", fmt.Errorf("log habit: %w", err)
	}
	streak, err := t.Streak(ctx, userID, habit.ID)
	if err != nil {
		return "", err
	}
	t.log.Info("habit completed", "user", userID, "habit", habit.Name, "streak", streak)
	return fmt.Sprintf("✅ «%s» выполнена! Стрик: %s 🔥", habit.Name, command.Days(streak)), nil
}

// Streak counts consecutive completed days ending today or yesterday.
func (t *Tracker) Streak(ctx context.Context, userID, habitID string) (int, error) {
	members, err := t.rdb.SMembers(ctx, logsKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("load habit logs: %w", err)
	}
	done := map[string]bool{}
	for _, m := range members {
		if id, date, ok := strings.Cut(m, ":"); ok && id == habitID {
			done[date] = true
		}
	}
	if len(done) == 0 {
		return 0, nil
	}

	day := t.now()
	if !done[day.Format(dateLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for done[day.Format(dateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

// List implements command.HabitTracker.
func (t *Tracker) List(ctx context.Context, userID string) (string, error) {
	habits, err := t.Habits(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(habits) == 0 {
		return "У тебя пока нет привычек. Скажи 'новая привычка: название' чтобы добавить!", nil
	}
	lines := []string{fmt.Sprintf("📊 Твои привычки (%d):", len(habits))}
	for _, h := range habits {
		streak, err := t.Streak(ctx, userID, h.ID)
		if err != nil {
			return "", err
		}
		line := "  • " + h.Name
		if streak > 0 {
			line += fmt.Sprintf(" 🔥%d", streak)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// TodayStatus implements command.HabitTracker.
func (t *Tracker) TodayStatus(ctx context.Context, userID string) (string, error) {
	habits, err := t.Habits(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(habits) == 0 {
		return "У тебя пока нет привычек для отслеживания.", nil
	}

	today := t.now().Format(dateLayout)
	members, err := t.rdb.SMembers(ctx, logsKey(userID)).Result()
	if err != nil {
		return "", fmt.Errorf("load habit logs: %w", err)
	}
	doneToday := map[string]bool{}
	for _, m := range members {
		if id, date, ok := strings.Cut(m, ":"); ok && date == today {
			doneToday[id] = true
		}
	}

	completed := 0
	for _, h := range habits {
		if doneToday[h.ID] {
			completed++
		}
	}
	if completed == len(habits) {
		return fmt.Sprintf("🎉 Отлично! Все %d привычек выполнены сегодня!", len(habits)), nil
	}

	lines := []string{fmt.Sprintf("📊 Привычки на сегодня: %d/%d", completed, len(habits))}
	for _, h := range habits {
		mark := "⬜"
		if doneToday[h.ID] {
			mark = "✅"
		}
		streak, err := t.Streak(ctx, userID, h.ID)
		if err != nil {
			return "", err
		}
		line := fmt.Sprintf("  %s %s", mark, h.Name)
		if streak > 0 {
			line += fmt.Sprintf(" 🔥%d", streak)
		}
		lines = append(lines, line)
	}
	lines = append(lines, fmt.Sprintf("\nОсталось: %d", len(habits)-completed))
	return strings.Join(lines, "\n"), nil
}
