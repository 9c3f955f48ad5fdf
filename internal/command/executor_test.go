package command

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	reminders []string
	err       error
}

func (f *fakeScheduler) AddReminder(userID, message string, runAt time.Time) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.reminders = append(f.reminders, message)
	return fmt.Sprintf("r-%d", len(f.reminders)), nil
}

type fakeRegistry struct {
	integrations []Integration
}

func (f *fakeRegistry) Connected() []Integration { return f.integrations }

type fakeIntegration struct {
	devices  []Device
	executed []string
}

func (f *fakeIntegration) Name() string { return "fake" }

func (f *fakeIntegration) Devices(context.Context) ([]Device, error) { return f.devices, nil }

func (f *fakeIntegration) Execute(_ context.Context, action, deviceID string) (string, error) {
	f.executed = append(f.executed, action+":"+deviceID)
	return "Готово!", nil
}

type fakeWeather struct {
	configured bool
}

func (f *fakeWeather) Configured() bool { return f.configured }

func (f *fakeWeather) Current(context.Context, string) (string, error) {
	return "В Киеве +20°C, тепло", nil
}

func (f *fakeWeather) Forecast(context.Context, string, int) (string, error) {
	return "Прогноз: солнечно", nil
}

type fakeNotes struct {
	tasks map[string]string // title -> priority
}

func (f *fakeNotes) AddNote(context.Context, string, string) error { return nil }

func (f *fakeNotes) ListNotes(context.Context, string) (string, error) {
	return "Заметок пока нет.", nil
}

func (f *fakeNotes) SearchNotes(context.Context, string, string) (string, error) {
	return "Ничего не нашла.", nil
}

func (f *fakeNotes) AddTask(_ context.Context, _, title, priority string) error {
	if f.tasks == nil {
		f.tasks = map[string]string{}
	}
	f.tasks[title] = priority
	return nil
}

func (f *fakeNotes) ListTasks(context.Context, string) (string, error) {
	return "Задач пока нет.", nil
}

func (f *fakeNotes) CompleteTask(_ context.Context, _, title string) (string, error) {
	if _, ok := f.tasks[title]; !ok {
		return "", ErrNotFound
	}
	return title, nil
}

type fakeMood struct{}

func (fakeMood) Parse(text string) (MoodEntry, bool) {
	if text == "настроение отличное" {
		return MoodEntry{Mood: "отличное", Score: 9}, true
	}
	return MoodEntry{}, false
}

func (fakeMood) Log(context.Context, string, MoodEntry, string) error { return nil }

func (fakeMood) Stats(context.Context, string) (string, error) { return "Среднее: 7/10", nil }

func newTestExecutor(deps Deps) *Executor {
	if deps.Notes == nil {
		deps.Notes = &fakeNotes{}
	}
	if deps.Mood == nil {
		deps.Mood = fakeMood{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = &fakeScheduler{}
	}
	return NewExecutor(deps)
}

func TestExecuteNonCommand(t *testing.T) {
	e := newTestExecutor(Deps{})

	ok, msg := e.Execute(context.Background(), NoMatch())
	assert.False(t, ok)
	assert.Empty(t, msg)
}

func TestExecuteTimeReturnsScriptedResponse(t *testing.T) {
	e := newTestExecutor(Deps{})
	p := NewParserWithClock(fixedClock())

	ok, msg := e.Execute(context.Background(), p.Parse("который час", "u1"))
	assert.True(t, ok)
	assert.Equal(t, "Сейчас 14:05", msg)
}

func TestExecuteReminderSchedules(t *testing.T) {
	sched := &fakeScheduler{}
	e := newTestExecutor(Deps{Scheduler: sched})
	p := NewParserWithClock(fixedClock())

	res := p.Parse("напомни через 10 минут: купить молоко", "u1")
	ok, msg := e.Execute(context.Background(), res)
	require.True(t, ok)
	assert.Contains(t, msg, "купить молоко")
	assert.Equal(t, []string{"купить молоко"}, sched.reminders)
}

func TestExecuteReminderSchedulerFailure(t *testing.T) {
	sched := &fakeScheduler{err: errors.New("redis down")}
	e := newTestExecutor(Deps{Scheduler: sched})
	p := NewParserWithClock(fixedClock())

	ok, msg := e.Execute(context.Background(), p.Parse("таймер на 5 минут", "u1"))
	assert.False(t, ok)
	assert.Contains(t, msg, "Ошибка: ")
	assert.Contains(t, msg, "redis down")
}

func TestExecuteSmartHomeNoIntegrations(t *testing.T) {
	e := newTestExecutor(Deps{Home: &fakeRegistry{}})
	p := NewParserWithClock(fixedClock())

	ok, msg := e.Execute(context.Background(), p.Parse("включи свет в гостиной", "u1"))
	assert.False(t, ok)
	assert.Contains(t, msg, "Нет подключенных интеграций умного дома")
}

func TestExecuteSmartHomeResolvesDevice(t *testing.T) {
	integ := &fakeIntegration{devices: []Device{
		{ID: "light.kitchen", Name: "Свет кухня"},
		{ID: "light.living", Name: "Свет гостиная"},
	}}
	e := newTestExecutor(Deps{Home: &fakeRegistry{integrations: []Integration{integ}}})
	p := NewParserWithClock(fixedClock())

	ok, _ := e.Execute(context.Background(), p.Parse("включи свет кухня", "u1"))
	require.True(t, ok)
	assert.Equal(t, []string{"turn_on:light.kitchen"}, integ.executed)
}

func TestExecuteSmartHomeDeviceNotFound(t *testing.T) {
	integ := &fakeIntegration{devices: []Device{{ID: "light.kitchen", Name: "Свет кухня"}}}
	e := newTestExecutor(Deps{Home: &fakeRegistry{integrations: []Integration{integ}}})
	p := NewParserWithClock(fixedClock())

	ok, msg := e.Execute(context.Background(), p.Parse("включи кофеварку", "u1"))
	assert.False(t, ok)
	assert.Contains(t, msg, "Не нашла устройство")
}

func TestExecuteWeatherUnconfigured(t *testing.T) {
	p := NewParserWithClock(fixedClock())
	res := p.Parse("погода в Киеве", "u1")

	// Nil service and unconfigured service behave the same.
	e := newTestExecutor(Deps{})
	ok, msg := e.Execute(context.Background(), res)
	assert.False(t, ok)
	assert.Contains(t, msg, "Погода не настроена")

	e = newTestExecutor(Deps{Weather: &fakeWeather{configured: false}})
	ok, msg = e.Execute(context.Background(), res)
	assert.False(t, ok)
	assert.Contains(t, msg, "Погода не настроена")
}

func TestExecuteWeatherConfigured(t *testing.T) {
	e := newTestExecutor(Deps{Weather: &fakeWeather{configured: true}})
	p := NewParserWithClock(fixedClock())

	ok, msg := e.Execute(context.Background(), p.Parse("погода в Киеве", "u1"))
	assert.True(t, ok)
	assert.Contains(t, msg, "тепло")
}

func TestExecuteTaskAddAndDone(t *testing.T) {
	notes := &fakeNotes{}
	e := newTestExecutor(Deps{Notes: notes})
	p := NewParserWithClock(fixedClock())

	ok, msg := e.Execute(context.Background(), p.Parse("задача: купить молоко", "u1"))
	require.True(t, ok)
	assert.Contains(t, msg, "купить молоко")
	assert.Equal(t, "normal", notes.tasks["купить молоко"])

	ok, msg = e.Execute(context.Background(), p.Parse("сделано: купить молоко", "u1"))
	require.True(t, ok)
	assert.Contains(t, msg, "купить молоко")

	ok, msg = e.Execute(context.Background(), p.Parse("сделано: несуществующая", "u1"))
	assert.False(t, ok)
	assert.Contains(t, msg, "Не нашла задачу")
}

func TestExecuteMoodLog(t *testing.T) {
	e := newTestExecutor(Deps{})
	p := NewParserWithClock(fixedClock())

	ok, msg := e.Execute(context.Background(), p.Parse("настроение отличное", "u1"))
	require.True(t, ok)
	assert.Contains(t, msg, "отличное")

	ok, msg = e.Execute(context.Background(), p.Parse("настроение непонятное", "u1"))
	assert.False(t, ok)
	assert.Contains(t, msg, "Не поняла")
}

func TestExecuteCalendarUnconfigured(t *testing.T) {
	e := newTestExecutor(Deps{})
	p := NewParserWithClock(fixedClock())

	ok, msg := e.Execute(context.Background(), p.Parse("встречи сегодня", "u1"))
	assert.False(t, ok)
	assert.Contains(t, msg, "Календарь не настроен")
}

func TestResolveDeviceTiers(t *testing.T) {
	devices := []Device{
		{ID: "switch.heater_bedroom", Name: "Обогреватель"},
		{ID: "light.kitchen", Name: "Свет кухня"},
		{ID: "light.living", Name: "Свет гостиная"},
	}

	d, ok := ResolveDevice(devices, "свет кухня")
	require.True(t, ok)
	assert.Equal(t, "light.kitchen", d.ID)

	// Substring tier: first listed wins.
	d, ok = ResolveDevice(devices, "свет")
	require.True(t, ok)
	assert.Equal(t, "light.kitchen", d.ID)

	// Entity-id tier.
	d, ok = ResolveDevice(devices, "heater")
	require.True(t, ok)
	assert.Equal(t, "switch.heater_bedroom", d.ID)

	_, ok = ResolveDevice(devices, "кофеварка")
	assert.False(t, ok)
}
