// Package briefing composes the daily morning summary.
package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evahub/eva-gateway/internal/calendar"
	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/store"
	"github.com/evahub/eva-gateway/internal/weather"
)

// WeatherSource provides raw conditions for the weather section.
type WeatherSource interface {
	Configured() bool
	Conditions(ctx context.Context, city string) (weather.Current, error)
}

// CalendarSource provides today's raw events.
type CalendarSource interface {
	Configured() bool
	TodayEvents(ctx context.Context, userID string) ([]calendar.Event, error)
}

// TaskSource provides pending tasks, priority order first.
type TaskSource interface {
	GetTasks(ctx context.Context, userID string) ([]store.Task, error)
}

// HabitSource provides today's habit status line. Count gates the section:
// users without habits get no habit block at all.
type HabitSource interface {
	Count(ctx context.Context, userID string) (int, error)
	TodayStatus(ctx context.Context, userID string) (string, error)
}

// Generator builds briefings from whatever sources are available. Each
// section fails soft: a broken integration drops its section, never the
// whole briefing.
type Generator struct {
	weather  WeatherSource
	calendar CalendarSource
	tasks    TaskSource
	habits   HabitSource
	log      *slog.Logger
	now      func() time.Time
}

func NewGenerator(w WeatherSource, c CalendarSource, t TaskSource, h HabitSource) *Generator {
	return &Generator{
		weather:  w,
		calendar: c,
		tasks:    t,
		habits:   h,
		log:      logging.WithComponent("briefing"),
		now:      time.Now,
	}
}

// Generate implements command.BriefingGenerator.
func (g *Generator) Generate(ctx context.Context, userID string) (string, error) {
	sections := []string{g.greeting()}

	if s := g.weatherSection(ctx); s != "" {
		sections = append(sections, s)
	}
	if s := g.calendarSection(ctx, userID); s != "" {
		sections = append(sections, s)
	}
	if s := g.tasksSection(ctx, userID); s != "" {
		sections = append(sections, s)
	}
	if s := g.habitsSection(ctx, userID); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, "Как ты себя сегодня чувствуешь?")

	return strings.Join(sections, "\n\n"), nil
}

func (g *Generator) greeting() string {
	switch hour := g.now().Hour(); {
	case hour >= 5 && hour < 12:
		return "Доброе утро! ☀️"
	case hour >= 12 && hour < 17:
		return "Добрый день! 👋"
	case hour >= 17 && hour < 22:
		return "Добрый вечер! 🌆"
	default:
		return "Доброй ночи! 🌙"
	}
}

func (g *Generator) weatherSection(ctx context.Context) string {
	if g.weather == nil || !g.weather.Configured() {
		return ""
	}
	cur, err := g.weather.Conditions(ctx, "")
	if err != nil {
		g.log.Error("briefing weather failed", "error", err)
		return ""
	}
	content := fmt.Sprintf("В %s сейчас %s, %d°C.", cur.City, cur.DescriptionRu, cur.Temp)
	switch {
	case cur.Temp < 0:
		content += " Одевайся теплее!"
	case cur.Temp > 30:
		content += " Не забудь воду!"
	case strings.Contains(strings.ToLower(cur.DescriptionRu), "дождь"):
		content += " Возьми зонт!"
	}
	return content
}

func (g *Generator) calendarSection(ctx context.Context, userID string) string {
	if g.calendar == nil || !g.calendar.Configured() {
		return ""
	}
	events, err := g.calendar.TodayEvents(ctx, userID)
	if err != nil {
		g.log.Error("briefing calendar failed", "error", err)
		return ""
	}
	if len(events) == 0 {
		return "На сегодня встреч нет - свободный день!"
	}

	lines := []string{fmt.Sprintf("📅 Сегодня у тебя %d событий:", len(events))}
	for i, e := range events {
		if i == 5 {
			lines = append(lines, fmt.Sprintf("  ...и ещё %d", len(events)-5))
			break
		}
		t := "весь день"
		if !e.AllDay {
			t = e.Start.Format("15:04")
		}
		lines = append(lines, fmt.Sprintf("  • %s - %s", t, e.Summary))
	}
	return strings.Join(lines, "\n")
}

var priorityEmoji = map[string]string{
	"urgent": "🔴", "high": "🟠", "normal": "🟡", "low": "🟢",
}

func (g *Generator) tasksSection(ctx context.Context, userID string) string {
	if g.tasks == nil {
		return ""
	}
	tasks, err := g.tasks.GetTasks(ctx, userID)
	if err != nil {
		g.log.Error("briefing tasks failed", "error", err)
		return ""
	}
	if len(tasks) == 0 {
		return ""
	}

	urgent, high := 0, 0
	for _, t := range tasks {
		switch t.Priority {
		case "urgent":
			urgent++
		case "high":
			high++
		}
	}

	var content string
	switch {
	case urgent > 0:
		content = fmt.Sprintf("⚠️ У тебя %d срочных задач из %d!", urgent, len(tasks))
	case high > 0:
		content = fmt.Sprintf("📋 У тебя %d важных задач из %d.", high, len(tasks))
	default:
		content = fmt.Sprintf("📋 У тебя %d задач в списке.", len(tasks))
	}

	for i, t := range tasks {
		if i == 3 {
			break
		}
		emoji, ok := priorityEmoji[t.Priority]
		if !ok {
			emoji = "📌"
		}
		content += fmt.Sprintf("\n  %s %s", emoji, t.Title)
	}
	return content
}

func (g *Generator) habitsSection(ctx context.Context, userID string) string {
	if g.habits == nil {
		return ""
	}
	n, err := g.habits.Count(ctx, userID)
	if err != nil {
		g.log.Error("briefing habits failed", "error", err)
		return ""
	}
	if n == 0 {
		return ""
	}
	status, err := g.habits.TodayStatus(ctx, userID)
	if err != nil {
		g.log.Error("briefing habits failed", "error", err)
		return ""
	}
	return status
}
