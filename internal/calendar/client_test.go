package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/evahub/eva-gateway/internal/config"
)

func date(day int, hour int) time.Time {
	return time.Date(2026, 8, day, hour, 0, 0, 0, time.UTC)
}

func TestFormatTodayEmpty(t *testing.T) {
	assert.Equal(t, "На сегодня ничего не запланировано. Свободный день!", FormatToday(nil))
}

func TestFormatToday(t *testing.T) {
	events := []Event{
		{Summary: "Стендап", Start: date(31, 10)},
		{Summary: "День рождения", Start: date(31, 0), AllDay: true},
	}
	assert.Equal(t,
		"📅 Сегодня у тебя:\n  • 10:00 - Стендап\n  • весь день - День рождения",
		FormatToday(events))
}

func TestFormatUpcomingGroupsByDay(t *testing.T) {
	now := date(31, 9)
	events := []Event{
		{Summary: "Стендап", Start: date(31, 10)},
		{Summary: "Врач", Start: time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)},
		{Summary: "Отчёт", Start: time.Date(2026, 9, 3, 12, 0, 0, 0, time.UTC)},
	}
	got := FormatUpcoming(events, now)
	assert.Contains(t, got, "У тебя 3 событий:")
	assert.Contains(t, got, "📅 Сегодня:\n  • 10:00 - Стендап")
	assert.Contains(t, got, "📅 Завтра:\n  • 15:30 - Врач")
	assert.Contains(t, got, "📅 Чт, 03.09:\n  • 12:00 - Отчёт")
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient(config.CalendarConfig{}).Configured())
	assert.True(t, NewClient(config.CalendarConfig{URL: "http://bridge:8080"}).Configured())
}
