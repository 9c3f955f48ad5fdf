package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/metrics"
)

// Sentinel errors collaborators return so the executor can pick the right
// user-facing message.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotConfigured = errors.New("not configured")
)

const (
	msgNoWeather  = "Погода не настроена. Добавь API ключ OpenWeatherMap в настройках."
	msgNoHome     = "Нет подключенных интеграций умного дома. Подключи Home Assistant или MQTT в настройках."
	msgNoCalendar = "Календарь не настроен. Добавь адрес календаря в настройках."
)

// Scheduler schedules one-shot reminders.
type Scheduler interface {
	AddReminder(userID, message string, runAt time.Time) (string, error)
}

// Device is a controllable smart-home entity.
type Device struct {
	ID    string
	Name  string
	State string
}

// Integration is a connected smart-home backend.
type Integration interface {
	Name() string
	Devices(ctx context.Context) ([]Device, error)
	Execute(ctx context.Context, action, deviceID string) (string, error)
}

// HomeRegistry lists connected smart-home integrations.
type HomeRegistry interface {
	Connected() []Integration
}

// WeatherService produces formatted weather reports.
type WeatherService interface {
	Configured() bool
	Current(ctx context.Context, city string) (string, error)
	Forecast(ctx context.Context, city string, days int) (string, error)
}

// NotesStore holds notes and tasks. List and search methods return
// formatted, user-facing text.
type NotesStore interface {
	AddNote(ctx context.Context, userID, title string) error
	ListNotes(ctx context.Context, userID string) (string, error)
	SearchNotes(ctx context.Context, userID, query string) (string, error)
	AddTask(ctx context.Context, userID, title, priority string) error
	ListTasks(ctx context.Context, userID string) (string, error)
	CompleteTask(ctx context.Context, userID, title string) (string, error)
}

// MoodEntry is a scored mood detected in free text.
type MoodEntry struct {
	Mood  string
	Score int
}

// MoodTracker parses, logs and summarizes moods.
type MoodTracker interface {
	Parse(text string) (MoodEntry, bool)
	Log(ctx context.Context, userID string, entry MoodEntry, text string) error
	Stats(ctx context.Context, userID string) (string, error)
}

// CalendarService reads events from the configured calendar.
type CalendarService interface {
	Configured() bool
	Today(ctx context.Context, userID string) (string, error)
	Upcoming(ctx context.Context, userID string, days int) (string, error)
}

// BriefingGenerator composes the daily briefing text.
type BriefingGenerator interface {
	Generate(ctx context.Context, userID string) (string, error)
}

// HabitTracker manages habits and completion streaks.
type HabitTracker interface {
	Add(ctx context.Context, userID, name string) error
	List(ctx context.Context, userID string) (string, error)
	Complete(ctx context.Context, userID, name string) (string, error)
	TodayStatus(ctx context.Context, userID string) (string, error)
}

// LearningModule adapts the reply style from user feedback.
type LearningModule interface {
	Status(ctx context.Context, userID string) (string, error)
	Feedback(ctx context.Context, userID, text string) (string, error)
}

// Deps bundles the executor collaborators. Optional integrations (weather,
// calendar, smart home) may be nil.
type Deps struct {
	Scheduler Scheduler
	Home      HomeRegistry
	Weather   WeatherService
	Notes     NotesStore
	Mood      MoodTracker
	Calendar  CalendarService
	Briefing  BriefingGenerator
	Habits    HabitTracker
	Learning  LearningModule
}

// Executor dispatches a parsed Result to the owning subsystem and converts
// every failure into a user-facing message. Nothing escapes as an error or
// panic; the worst case is (false, "Ошибка: ...").
type Executor struct {
	deps Deps
	log  *slog.Logger
}

func NewExecutor(deps Deps) *Executor {
	return &Executor{deps: deps, log: logging.WithComponent("executor")}
}

// Execute runs the side effects for a matched command and returns the final
// message. For unmatched results it returns (false, "") and the caller must
// route to the conversational fallback.
func (e *Executor) Execute(ctx context.Context, res Result) (ok bool, message string) {
	if !res.IsCommand {
		return false, ""
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("command execution panicked", "type", res.Type, "panic", r)
			metrics.CommandFailures.Inc()
			ok, message = false, fmt.Sprintf("Ошибка: %v", r)
		}
	}()

	metrics.CommandsParsed.WithLabelValues(string(res.Type)).Inc()

	ok, message = e.dispatch(ctx, res)
	if !ok {
		metrics.CommandFailures.Inc()
	}
	return ok, message
}

func (e *Executor) dispatch(ctx context.Context, res Result) (bool, string) {
	switch res.Type {
	case TypeTime, TypeDate:
		return true, res.Response

	case TypeReminder, TypeTimer, TypePomodoro, TypeBreak:
		return e.schedule(res)

	case TypeWeather:
		return e.weather(ctx, res)

	case TypeNoteAdd, TypeNoteList, TypeNoteSearch:
		return e.notes(ctx, res)

	case TypeTaskAdd, TypeTaskList, TypeTaskDone:
		return e.tasks(ctx, res)

	case TypeMoodLog, TypeMoodStats:
		return e.mood(ctx, res)

	case TypeCalendarToday, TypeCalendarUpcoming:
		return e.calendar(ctx, res)

	case TypeBriefing:
		text, err := e.deps.Briefing.Generate(ctx, res.UserID)
		if err != nil {
			return failure(err)
		}
		return true, text

	case TypeHabitAdd, TypeHabitList, TypeHabitDone, TypeHabitStatus:
		return e.habits(ctx, res)

	case TypeLearningStatus, TypeLearningFeedback:
		return e.learning(ctx, res)

	case TypeSmartHome:
		return e.smartHome(ctx, res)
	}
	return false, fmt.Sprintf("Ошибка: неизвестная команда %q", res.Type)
}

func (e *Executor) schedule(res Result) (bool, string) {
	p := res.Params.(ScheduleParams)
	if _, err := e.deps.Scheduler.AddReminder(res.UserID, p.Message, p.RunAt); err != nil {
		return failure(err)
	}
	e.log.Info("scheduled", "type", res.Type, "user", res.UserID, "run_at", p.RunAt)
	return true, res.Response
}

func (e *Executor) weather(ctx context.Context, res Result) (bool, string) {
	if e.deps.Weather == nil || !e.deps.Weather.Configured() {
		return false, msgNoWeather
	}
	p := res.Params.(WeatherParams)

	var (
		text string
		err  error
	)
	if p.Forecast {
		text, err = e.deps.Weather.Forecast(ctx, p.City, p.Days)
	} else {
		text, err = e.deps.Weather.Current(ctx, p.City)
	}
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return false, msgNoWeather
		}
		return failure(err)
	}
	return true, text
}

func (e *Executor) notes(ctx context.Context, res Result) (bool, string) {
	switch res.Type {
	case TypeNoteAdd:
		p := res.Params.(NoteParams)
		if err := e.deps.Notes.AddNote(ctx, res.UserID, p.Title); err != nil {
			return failure(err)
		}
		return true, fmt.Sprintf("Записала заметку: «%s»", p.Title)

	case TypeNoteSearch:
		p := res.Params.(NoteParams)
		text, err := e.deps.Notes.SearchNotes(ctx, res.UserID, p.Query)
		if err != nil {
			return failure(err)
		}
		return true, text

	default:
		text, err := e.deps.Notes.ListNotes(ctx, res.UserID)
		if err != nil {
			return failure(err)
		}
		return true, text
	}
}

func (e *Executor) tasks(ctx context.Context, res Result) (bool, string) {
	switch res.Type {
	case TypeTaskAdd:
		p := res.Params.(TaskParams)
		if err := e.deps.Notes.AddTask(ctx, res.UserID, p.Title, p.Priority); err != nil {
			return failure(err)
		}
		if p.Priority == "urgent" {
			return true, fmt.Sprintf("Добавила срочную задачу: «%s» 🔴", p.Title)
		}
		return true, fmt.Sprintf("Добавила задачу: «%s»", p.Title)

	case TypeTaskDone:
		p := res.Params.(TaskParams)
		title, err := e.deps.Notes.CompleteTask(ctx, res.UserID, p.Title)
		if errors.Is(err, ErrNotFound) {
			return false, fmt.Sprintf("Не нашла задачу «%s»", p.Title)
		}
		if err != nil {
			return failure(err)
		}
		return true, fmt.Sprintf("Отметила выполненной: «%s» ✅", title)

	default:
		text, err := e.deps.Notes.ListTasks(ctx, res.UserID)
		if err != nil {
			return failure(err)
		}
		return true, text
	}
}

func (e *Executor) mood(ctx context.Context, res Result) (bool, string) {
	if res.Type == TypeMoodStats {
		text, err := e.deps.Mood.Stats(ctx, res.UserID)
		if err != nil {
			return failure(err)
		}
		return true, text
	}

	p := res.Params.(MoodParams)
	entry, found := e.deps.Mood.Parse(p.Text)
	if !found {
		return false, "Не поняла, какое настроение записать. Скажи, например: настроение отличное"
	}
	if err := e.deps.Mood.Log(ctx, res.UserID, entry, p.Text); err != nil {
		return failure(err)
	}
	return true, fmt.Sprintf("Записала! Настроение: %s.", entry.Mood)
}

func (e *Executor) calendar(ctx context.Context, res Result) (bool, string) {
	if e.deps.Calendar == nil || !e.deps.Calendar.Configured() {
		return false, msgNoCalendar
	}

	var (
		text string
		err  error
	)
	if res.Type == TypeCalendarToday {
		text, err = e.deps.Calendar.Today(ctx, res.UserID)
	} else {
		days := res.Params.(CalendarParams).Days
		text, err = e.deps.Calendar.Upcoming(ctx, res.UserID, days)
	}
	if err != nil {
		return failure(err)
	}
	return true, text
}

func (e *Executor) habits(ctx context.Context, res Result) (bool, string) {
	switch res.Type {
	case TypeHabitAdd:
		p := res.Params.(HabitParams)
		if err := e.deps.Habits.Add(ctx, res.UserID, p.Name); err != nil {
			return failure(err)
		}
		return true, fmt.Sprintf("Новая привычка: «%s». Начнём отслеживать!", p.Name)

	case TypeHabitDone:
		p := res.Params.(HabitParams)
		text, err := e.deps.Habits.Complete(ctx, res.UserID, p.Name)
		if errors.Is(err, ErrNotFound) {
			return false, fmt.Sprintf("Не нашла привычку «%s»", p.Name)
		}
		if err != nil {
			return failure(err)
		}
		return true, text

	case TypeHabitStatus:
		text, err := e.deps.Habits.TodayStatus(ctx, res.UserID)
		if err != nil {
			return failure(err)
		}
		return true, text

	default:
		text, err := e.deps.Habits.List(ctx, res.UserID)
		if err != nil {
			return failure(err)
		}
		return true, text
	}
}

func (e *Executor) learning(ctx context.Context, res Result) (bool, string) {
	if res.Type == TypeLearningStatus {
		text, err := e.deps.Learning.Status(ctx, res.UserID)
		if err != nil {
			return failure(err)
		}
		return true, text
	}

	p := res.Params.(LearningParams)
	text, err := e.deps.Learning.Feedback(ctx, res.UserID, p.Feedback)
	if err != nil {
		return failure(err)
	}
	return true, text
}

func (e *Executor) smartHome(ctx context.Context, res Result) (bool, string) {
	if e.deps.Home == nil {
		return false, msgNoHome
	}
	connected := e.deps.Home.Connected()
	if len(connected) == 0 {
		return false, msgNoHome
	}

	p := res.Params.(SmartHomeParams)
	for _, integ := range connected {
		devices, err := integ.Devices(ctx)
		if err != nil {
			e.log.Error("device listing failed", "integration", integ.Name(), "error", err)
			continue
		}
		device, found := ResolveDevice(devices, p.Device)
		if !found {
			continue
		}
		msg, err := integ.Execute(ctx, p.Action, device.ID)
		if err != nil {
			return failure(err)
		}
		return true, msg
	}
	return false, fmt.Sprintf("Не нашла устройство «%s»", p.Device)
}

// ResolveDevice maps a free-text device phrase to an entity: exact name
// match first, then name substring, then entity-id substring. Within each
// tier the first device in listing order wins.
func ResolveDevice(devices []Device, query string) (Device, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Device{}, false
	}
	for _, d := range devices {
		if strings.ToLower(d.Name) == q {
			return d, true
		}
	}
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), q) {
			return d, true
		}
	}
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.ID), q) {
			return d, true
		}
	}
	return Device{}, false
}

func failure(err error) (bool, string) {
	return false, fmt.Sprintf("Ошибка: %v", err)
}
