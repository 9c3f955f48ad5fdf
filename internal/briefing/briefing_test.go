package briefing

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evahub/eva-gateway/internal/calendar"
	"github.com/evahub/eva-gateway/internal/store"
	"github.com/evahub/eva-gateway/internal/weather"
)

type fakeWeather struct {
	configured bool
	current    weather.Current
	err        error
}

func (f *fakeWeather) Configured() bool { return f.configured }
func (f *fakeWeather) Conditions(context.Context, string) (weather.Current, error) {
	return f.current, f.err
}

type fakeCalendar struct {
	configured bool
	events     []calendar.Event
	err        error
}

func (f *fakeCalendar) Configured() bool { return f.configured }
func (f *fakeCalendar) TodayEvents(context.Context, string) ([]calendar.Event, error) {
	return f.events, f.err
}

type fakeTasks struct {
	tasks []store.Task
	err   error
}

func (f *fakeTasks) GetTasks(context.Context, string) ([]store.Task, error) {
	return f.tasks, f.err
}

type fakeHabits struct {
	count  int
	status string
}

func (f *fakeHabits) Count(context.Context, string) (int, error) { return f.count, nil }
func (f *fakeHabits) TodayStatus(context.Context, string) (string, error) {
	return f.status, nil
}

func newTestGenerator(w WeatherSource, c CalendarSource, t TaskSource, h HabitSource, hour int) *Generator {
	g := NewGenerator(w, c, t, h)
	g.log = slog.Default()
	g.now = func() time.Time {
		return time.Date(2026, 8, 31, hour, 0, 0, 0, time.UTC)
	}
	return g
}

func TestGenerateMinimal(t *testing.T) {
	g := newTestGenerator(nil, nil, nil, nil, 8)

	text, err := g.Generate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Доброе утро! ☀️\n\nКак ты себя сегодня чувствуешь?", text)
}

func TestGreetingByHour(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{8, "Доброе утро! ☀️"},
		{13, "Добрый день! 👋"},
		{19, "Добрый вечер! 🌆"},
		{23, "Доброй ночи! 🌙"},
		{3, "Доброй ночи! 🌙"},
	}
	for _, tt := range tests {
		g := newTestGenerator(nil, nil, nil, nil, tt.hour)
		assert.Equal(t, tt.want, g.greeting())
	}
}

func TestGenerateFullBriefing(t *testing.T) {
	w := &fakeWeather{
		configured: true,
		current:    weather.Current{City: "Киев", Temp: -3, DescriptionRu: "снег"},
	}
	c := &fakeCalendar{
		configured: true,
		events: []calendar.Event{
			{Summary: "Стендап", Start: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)},
		},
	}
	tasks := &fakeTasks{tasks: []store.Task{
		{Title: "Сдать отчёт", Priority: "urgent"},
		{Title: "Почта", Priority: "normal"},
	}}
	h := &fakeHabits{count: 1, status: "📊 Привычки на сегодня: 0/1\n  ⬜ Зарядка\n\nОсталось: 1"}

	g := newTestGenerator(w, c, tasks, h, 8)
	text, err := g.Generate(context.Background(), "u1")
	require.NoError(t, err)

	assert.Contains(t, text, "Доброе утро! ☀️")
	assert.Contains(t, text, "В Киев сейчас снег, -3°C. Одевайся теплее!")
	assert.Contains(t, text, "📅 Сегодня у тебя 1 событий:\n  • 10:00 - Стендап")
	assert.Contains(t, text, "⚠️ У тебя 1 срочных задач из 2!")
	assert.Contains(t, text, "🔴 Сдать отчёт")
	assert.Contains(t, text, "Привычки на сегодня")
	assert.Contains(t, text, "Как ты себя сегодня чувствуешь?")
}

func TestGenerateFailSoft(t *testing.T) {
	w := &fakeWeather{configured: true, err: errors.New("api down")}
	c := &fakeCalendar{configured: true, err: errors.New("bridge down")}
	tasks := &fakeTasks{err: errors.New("redis down")}

	g := newTestGenerator(w, c, tasks, nil, 13)
	text, err := g.Generate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Добрый день! 👋\n\nКак ты себя сегодня чувствуешь?", text)
}

func TestHabitsSectionSkippedWithoutHabits(t *testing.T) {
	h := &fakeHabits{count: 0, status: "что угодно"}
	g := newTestGenerator(nil, nil, nil, h, 8)
	assert.Equal(t, "", g.habitsSection(context.Background(), "u1"))

	h.count = 2
	assert.Equal(t, "что угодно", g.habitsSection(context.Background(), "u1"))
}

func TestCalendarSectionFreeDay(t *testing.T) {
	c := &fakeCalendar{configured: true}
	g := newTestGenerator(nil, c, nil, nil, 8)
	assert.Equal(t, "На сегодня встреч нет - свободный день!", g.calendarSection(context.Background(), "u1"))
}
