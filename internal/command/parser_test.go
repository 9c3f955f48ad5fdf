package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	// Monday, 31 Aug 2026, 14:05
	at := time.Date(2026, 8, 31, 14, 5, 0, 0, time.Local)
	return func() time.Time { return at }
}

func TestParseTimeQuery(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	for _, input := range []string{"который час", "Сколько времени?", "what time is it"} {
		res := p.Parse(input, "u1")
		assert.True(t, res.IsCommand, input)
		assert.Equal(t, TypeTime, res.Type, input)
		assert.Equal(t, "Сейчас 14:05", res.Response, input)
		assert.False(t, res.Execute, input)
	}
}

func TestParseDateQuery(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("какой сегодня день", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeDate, res.Type)
	assert.Equal(t, "Сегодня понедельник, 31 августа 2026 года", res.Response)
}

func TestParseReminderWithText(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("напомни через 10 минут: купить молоко", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeReminder, res.Type)
	assert.Equal(t, "u1", res.UserID)
	assert.Contains(t, res.Response, "купить молоко")

	params := res.Params.(ScheduleParams)
	assert.Equal(t, 10, params.Minutes)
	assert.Equal(t, "купить молоко", params.Message)
	assert.Equal(t, fixedClock()().Add(10*time.Minute), params.RunAt)
}

func TestParseReminderWithTextHours(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("напомни через 2 часа: позвонить маме", "u1")
	require.True(t, res.IsCommand)

	params := res.Params.(ScheduleParams)
	assert.Equal(t, 120, params.Minutes)
	assert.Equal(t, "позвонить маме", params.Message)
	assert.Contains(t, res.Response, "2 часа")
	assert.Equal(t, fixedClock()().Add(2*time.Hour), params.RunAt)
}

func TestParseBareReminderMinutes(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("напомни через 10 минут", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeReminder, res.Type)
	assert.Equal(t, "Окей, напомню через 10 минут!", res.Response)
	assert.Equal(t, "Время пришло!", res.Params.(ScheduleParams).Message)
}

func TestParseBareReminderHoursPlural(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	tests := []struct {
		input    string
		response string
	}{
		{"напомни через 1 час", "Окей, напомню через 1 час!"},
		{"напомни через 3 часа", "Окей, напомню через 3 часа!"},
		{"напомни через 5 часов", "Окей, напомню через 5 часов!"},
		{"напомни через 21 час", "Окей, напомню через 21 час!"},
	}
	for _, tt := range tests {
		res := p.Parse(tt.input, "u1")
		require.True(t, res.IsCommand, tt.input)
		assert.Equal(t, tt.response, res.Response, tt.input)
	}
}

func TestParseTimer(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("таймер на 15 минут", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeTimer, res.Type)
	assert.Equal(t, "Таймер на 15 минут запущен!", res.Response)

	params := res.Params.(ScheduleParams)
	assert.Equal(t, 15, params.Minutes)
	assert.Equal(t, "Таймер на 15 минут завершён!", params.Message)
}

func TestParsePomodoroDefaults(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("запусти помодоро", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypePomodoro, res.Type)
	assert.Equal(t, 25, res.Params.(ScheduleParams).Minutes)

	res = p.Parse("перерыв", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeBreak, res.Type)
	assert.Equal(t, 5, res.Params.(ScheduleParams).Minutes)
}

func TestParseBreakVariants(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	tests := []struct {
		input   string
		minutes int
	}{
		{"перерыв на 10 минут", 10},
		{"сделай перерыв", 5},
		{"отдых на 15 минут", 15},
		{"take a break for 20 minutes", 20},
	}
	for _, tt := range tests {
		res := p.Parse(tt.input, "u1")
		require.True(t, res.IsCommand, tt.input)
		assert.Equal(t, TypeBreak, res.Type, tt.input)
		assert.Equal(t, tt.minutes, res.Params.(ScheduleParams).Minutes, tt.input)
	}
}

func TestParseTomatoNoteIsNotAPomodoro(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("запиши: купить помидоры", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeNoteAdd, res.Type)
	assert.Equal(t, "купить помидоры", res.Params.(NoteParams).Title)

	res = p.Parse("помидоры подорожали", "u1")
	assert.False(t, res.IsCommand)
	assert.True(t, res.Execute)
}

func TestParseRestTalkIsNotABreak(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	for _, input := range []string{
		"посоветуй отдых на выходные",
		"мне нужен отдых",
		"перерывы между встречами утомляют",
	} {
		res := p.Parse(input, "u1")
		assert.False(t, res.IsCommand, input)
		assert.True(t, res.Execute, input)
	}
}

func TestParseWeather(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("погода в Киеве", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeWeather, res.Type)
	params := res.Params.(WeatherParams)
	assert.Equal(t, "Киеве", params.City)
	assert.False(t, params.Forecast)

	res = p.Parse("прогноз погоды в Минске на 5 дней", "u1")
	require.True(t, res.IsCommand)
	params = res.Params.(WeatherParams)
	assert.True(t, params.Forecast)
	assert.Equal(t, "Минске", params.City)
	assert.Equal(t, 5, params.Days)
}

func TestParseTask(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("задача: купить молоко", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeTaskAdd, res.Type)
	params := res.Params.(TaskParams)
	assert.Equal(t, "купить молоко", params.Title)
	assert.Equal(t, "normal", params.Priority)

	res = p.Parse("срочно: оплатить счёт", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, "urgent", res.Params.(TaskParams).Priority)
}

func TestParseNoteBeforeTask(t *testing.T) {
	// The note-add rule precedes task-add; a message carrying both trigger
	// phrases resolves to note_add.
	p := NewParserWithClock(fixedClock())

	res := p.Parse("запиши: задача: купить молоко", "u1")
	require.True(t, res.IsCommand)
	assert.Equal(t, TypeNoteAdd, res.Type)
	assert.Equal(t, "задача: купить молоко", res.Params.(NoteParams).Title)
}

func TestParseSmartHome(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	tests := []struct {
		input  string
		action string
		device string
	}{
		{"включи свет в гостиной", "turn_on", "свет в гостиной"},
		{"выключи чайник", "turn_off", "чайник"},
		{"turn on the lamp", "turn_on", "the lamp"},
		{"что с обогревателем", "get_state", "обогревателем"},
	}
	for _, tt := range tests {
		res := p.Parse(tt.input, "u1")
		require.True(t, res.IsCommand, tt.input)
		assert.Equal(t, TypeSmartHome, res.Type, tt.input)
		params := res.Params.(SmartHomeParams)
		assert.Equal(t, tt.action, params.Action, tt.input)
		assert.Equal(t, tt.device, params.Device, tt.input)
	}
}

func TestParseIntentTable(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	tests := []struct {
		input string
		typ   Type
	}{
		{"запиши: идея для подарка", TypeNoteAdd},
		{"покажи мои заметки", TypeNoteList},
		{"найди заметку про отпуск", TypeNoteSearch},
		{"мои задачи", TypeTaskList},
		{"сделано: купить молоко", TypeTaskDone},
		{"статистика настроения", TypeMoodStats},
		{"настроение отличное", TypeMoodLog},
		{"встречи сегодня", TypeCalendarToday},
		{"ближайшие события", TypeCalendarUpcoming},
		{"утренняя сводка", TypeBriefing},
		{"статус привычек", TypeHabitStatus},
		{"привычка: зарядка", TypeHabitAdd},
		{"мои привычки", TypeHabitList},
		{"отметь привычку: зарядка", TypeHabitDone},
		{"что ты знаешь обо мне", TypeLearningStatus},
		{"отвечай короче", TypeLearningFeedback},
	}
	for _, tt := range tests {
		res := p.Parse(tt.input, "u1")
		require.True(t, res.IsCommand, tt.input)
		assert.Equal(t, tt.typ, res.Type, tt.input)
		assert.False(t, res.Execute, tt.input)
		assert.Equal(t, "u1", res.UserID, tt.input)
	}
}

func TestParseNoMatch(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	for _, input := range []string{"привет, как дела?", "расскажи анекдот", ""} {
		res := p.Parse(input, "u1")
		assert.False(t, res.IsCommand, input)
		assert.True(t, res.Execute, input)
	}
}

func TestParseIsRepeatable(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	first := p.Parse("напомни через 45 минут: размяться", "u1")
	second := p.Parse("напомни через 45 минут: размяться", "u1")
	assert.Equal(t, first, second)
}

func TestParseDefaultUser(t *testing.T) {
	p := NewParserWithClock(fixedClock())

	res := p.Parse("который час", "")
	assert.Equal(t, "default", res.UserID)
}
