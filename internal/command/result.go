package command

import "time"

// Type is the closed set of command intents the parser can produce.
type Type string

const (
	TypeTime             Type = "time"
	TypeDate             Type = "date"
	TypeReminder         Type = "reminder"
	TypeTimer            Type = "timer"
	TypePomodoro         Type = "pomodoro"
	TypeBreak            Type = "break"
	TypeWeather          Type = "weather"
	TypeNoteAdd          Type = "note_add"
	TypeNoteList         Type = "note_list"
	TypeNoteSearch       Type = "note_search"
	TypeTaskAdd          Type = "task_add"
	TypeTaskList         Type = "task_list"
	TypeTaskDone         Type = "task_done"
	TypeMoodLog          Type = "mood_log"
	TypeMoodStats        Type = "mood_stats"
	TypeCalendarToday    Type = "calendar_today"
	TypeCalendarUpcoming Type = "calendar_upcoming"
	TypeBriefing         Type = "briefing"
	TypeHabitAdd         Type = "habit_add"
	TypeHabitList        Type = "habit_list"
	TypeHabitDone        Type = "habit_done"
	TypeHabitStatus      Type = "habit_status"
	TypeLearningStatus   Type = "learning_status"
	TypeLearningFeedback Type = "learning_feedback"
	TypeSmartHome        Type = "smart_home"
)

// Params carries the intent-specific extracted values of a Result.
type Params interface {
	isParams()
}

// ScheduleParams backs reminder, timer, pomodoro and break intents.
type ScheduleParams struct {
	Minutes int
	Message string
	RunAt   time.Time
}

// WeatherParams backs current-weather and forecast intents.
type WeatherParams struct {
	City     string
	Days     int
	Forecast bool
}

// NoteParams backs note_add (Title) and note_search (Query).
type NoteParams struct {
	Title string
	Query string
}

// TaskParams backs task_add and task_done.
type TaskParams struct {
	Title    string
	Priority string
}

// MoodParams carries the raw utterance for mood keyword scoring.
type MoodParams struct {
	Text string
}

// CalendarParams backs calendar_upcoming.
type CalendarParams struct {
	Days int
}

// HabitParams backs habit_add and habit_done.
type HabitParams struct {
	Name string
}

// LearningParams carries the feedback utterance.
type LearningParams struct {
	Feedback string
}

// SmartHomeParams backs all three smart-home intents.
type SmartHomeParams struct {
	Device string
	Action string // turn_on, turn_off, get_state
}

func (ScheduleParams) isParams()  {}
func (WeatherParams) isParams()   {}
func (NoteParams) isParams()      {}
func (TaskParams) isParams()      {}
func (MoodParams) isParams()      {}
func (CalendarParams) isParams()  {}
func (HabitParams) isParams()     {}
func (LearningParams) isParams()  {}
func (SmartHomeParams) isParams() {}

// Result is the outcome of classifying one utterance. Exactly one Result is
// produced per input; it is never mutated after construction.
//
// Execute is false for every matched command: the caller must run the
// Executor to produce side effects and the final message. Execute is true
// only for the unmatched case, which routes to the conversational fallback.
type Result struct {
	IsCommand bool
	Type      Type
	UserID    string
	Params    Params
	Response  string
	Execute   bool
}

// NoMatch is the result for input that matched no rule.
func NoMatch() Result {
	return Result{Execute: true}
}
