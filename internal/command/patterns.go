package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// rule pairs a matcher with its result builder. Rules are evaluated in the
// order they appear in rules(); the first match wins and later rules are
// never consulted, even if they would also match.
type rule struct {
	typ   Type
	re    *regexp.Regexp
	build func(p *Parser, text, userID string, m []string) Result
}

var (
	reTime = regexp.MustCompile(`(?i)который\s+час|сколько\s+времени|what\s+time|current\s+time`)
	reDate = regexp.MustCompile(`(?i)какой\s+сегодня\s+день|какая\s+дата|what\s+day|today'?s?\s+date|current\s+date`)

	reReminderText = regexp.MustCompile(`(?i)(?:напомни|напомнить|remind\s+me?).*?(?:через|in)\s*(\d+)\s*(?:минут|мин|час|часа|часов|minutes?|mins?|hours?|hrs?)[:\s]+["']?(.+?)["']?$`)
	reReminderMins = regexp.MustCompile(`(?i)(?:напомни|напомнить|reminder).*?(?:через|in)\s*(\d+)\s*(?:минут|мин|minutes?|mins?)`)
	reReminderHrs  = regexp.MustCompile(`(?i)(?:напомни|напомнить|reminder).*?(?:через|in)\s*(\d+)\s*(?:час|часа|часов|hours?|hrs?)`)
	reTimer        = regexp.MustCompile(`(?i)(?:таймер|timer).*?(?:на|for)\s*(\d+)\s*(?:минут|мин|minutes?|mins?)`)
	// "помидор" alone is just a tomato; the technique needs either the proper
	// name or a launch verb. Same for "отдых": only the command form schedules
	// a break, chatter about rest falls through to the LLM.
	rePomodoro = regexp.MustCompile(`(?i)(?:помодоро|pomodoro|(?:запусти|поставь|начн[иеё]м?|start)\s+помидор[а-яё]*)(?:\D*?(\d+))?`)
	reBreak    = regexp.MustCompile(`(?i)^(?:(?:давай|сделай(?:те)?|сделаем|take|a|let'?s)\s+)*(?:перерыв|break)(?:\s+(?:на|for))?\s*(\d+)?\s*(?:минут[а-яё]*|мин|minutes?|mins?)?\s*[!.?]*$|^отдых\s+на\s+(\d+)\s*(?:минут[а-яё]*|мин|minutes?|mins?)`)

	reWeatherNow      = regexp.MustCompile(`(?i)^(?:какая\s+)?(?:сегодня\s+|сейчас\s+)?(?:погода|weather)(?:\s+(?:сегодня|сейчас))?(?:\s+(?:в|in)\s+(.+?))?\s*\??$`)
	reWeatherForecast = regexp.MustCompile(`(?i)прогноз|forecast`)
	reForecastCity    = regexp.MustCompile(`(?i)(?:в|in)\s+([\p{L}][\p{L}\- ]*?)(?:\s+(?:на|for)\s+\d|\s*\??$)`)
	reForecastDays    = regexp.MustCompile(`(?i)(?:на|for)\s*(\d+)\s*(?:дня|дней|день|days?)`)

	reNoteAdd    = regexp.MustCompile(`(?i)^(?:запиши(?:\s+заметку)?|заметка|note)[:\s]+(.+)$`)
	reNoteList   = regexp.MustCompile(`(?i)(?:покажи|мои|список|show|my|list).*(?:заметк|notes?)`)
	reNoteSearch = regexp.MustCompile(`(?i)(?:найди|поищи|найти|search|find).*?(?:заметк[а-яё]*|notes?)(?:\s+(?:про|об|о|about)\s+)?\s*(.*)$`)

	reTaskUrgent = regexp.MustCompile(`(?i)^(?:срочная\s+задача|срочно)[:\s]+(.+)$`)
	reTaskAdd    = regexp.MustCompile(`(?i)^(?:задача|задание|task|todo)[:\s]+(.+)$`)
	reTaskList   = regexp.MustCompile(`(?i)(?:покажи|мои|список|show|my|list).*(?:задач|tasks?)`)
	reTaskDone   = regexp.MustCompile(`(?i)^(?:сделал[аи]?|выполнил[аи]?|сделано|выполнено|готово|done|completed?)[:\s]+(.+)$`)

	reMoodStats = regexp.MustCompile(`(?i)статистика\s+настроени|настроение\s+за\s+неделю|mood\s+stats|how'?s\s+my\s+mood`)
	reMoodLog   = regexp.MustCompile(`(?i)настроени|чувствую|самочувствие|i\s+feel|feeling|my\s+mood`)

	reCalToday    = regexp.MustCompile(`(?i)что\s+у\s+меня\s+сегодня|встреч[иа]?\s+(?:на\s+)?сегодня|события\s+сегодня|план\s+на\s+сегодня|meetings?\s+today|today'?s\s+(?:meetings?|events?|schedule)|calendar\s+today`)
	reCalUpcoming = regexp.MustCompile(`(?i)ближайшие\s+(?:встречи|события)|предстоящие\s+(?:встречи|события)|что\s+на\s+неделе|план\s+на\s+неделю|upcoming\s+(?:meetings?|events?)|this\s+week|календарь|calendar`)

	reBriefing = regexp.MustCompile(`(?i)брифинг|сводка|что\s+нового|briefing|daily\s+summary`)

	reHabitStatus = regexp.MustCompile(`(?i)привычки\s+(?:на\s+)?сегодня|статус\s+привычек|как\s+(?:мои\s+)?привычки|habits?\s+(?:for\s+)?today|habit\s+status`)
	reHabitAdd    = regexp.MustCompile(`(?i)^(?:новая\s+привычка|привычка|habit)[:\s]+(.+)$`)
	reHabitList   = regexp.MustCompile(`(?i)(?:покажи|мои|список|show|my|list).*(?:привычк|habits?)`)
	reHabitDone   = regexp.MustCompile(`(?i)^(?:отметь\s+привычку|выполнил[аи]?\s+привычку|сделал[аи]?\s+привычку|habit\s+done)[:\s]+(.+)$`)

	reLearningStatus   = regexp.MustCompile(`(?i)что\s+ты\s+(?:обо\s+мне\s+)?(?:знаешь|выучила|запомнила)|learning\s+status|what\s+(?:have\s+you\s+learned|do\s+you\s+know)\s+about\s+me`)
	reLearningFeedback = regexp.MustCompile(`(?i)^(?:отвечай|говори|будь|пиши|answer|speak|be|reply)\s+(.+)$`)

	reSmartOn     = regexp.MustCompile(`(?i)(?:включи|вруби|зажги|turn\s+on|switch\s+on)\s+(.+)$`)
	reSmartOff    = regexp.MustCompile(`(?i)(?:выключи|выруби|погаси|потуши|turn\s+off|switch\s+off)\s+(.+)$`)
	reSmartStatus = regexp.MustCompile(`(?i)(?:что\s+с|какой\s+статус|статус|состояние|status\s+of|state\s+of)\s+(.+)$`)
)

// rules returns the full table in precedence order. Narrow rules come before
// broad ones: reminder-with-text before bare reminders, urgent task before
// plain task, mood-stats before mood-log, habit-status before habit-add.
func rules() []rule {
	return []rule{
		{TypeTime, reTime, buildTime},
		{TypeDate, reDate, buildDate},
		{TypeReminder, reReminderText, buildReminderText},
		{TypeReminder, reReminderMins, buildReminderMinutes},
		{TypeReminder, reReminderHrs, buildReminderHours},
		{TypeTimer, reTimer, buildTimer},
		{TypePomodoro, rePomodoro, buildPomodoro},
		{TypeBreak, reBreak, buildBreak},
		{TypeWeather, reWeatherNow, buildWeatherCurrent},
		{TypeWeather, reWeatherForecast, buildWeatherForecast},
		{TypeNoteAdd, reNoteAdd, buildNoteAdd},
		{TypeNoteList, reNoteList, buildSimple(TypeNoteList)},
		{TypeNoteSearch, reNoteSearch, buildNoteSearch},
		{TypeTaskAdd, reTaskUrgent, buildTaskAdd("urgent")},
		{TypeTaskAdd, reTaskAdd, buildTaskAdd("normal")},
		{TypeTaskList, reTaskList, buildSimple(TypeTaskList)},
		{TypeTaskDone, reTaskDone, buildTaskDone},
		{TypeMoodStats, reMoodStats, buildSimple(TypeMoodStats)},
		{TypeMoodLog, reMoodLog, buildMoodLog},
		{TypeCalendarToday, reCalToday, buildSimple(TypeCalendarToday)},
		{TypeCalendarUpcoming, reCalUpcoming, buildCalendarUpcoming},
		{TypeBriefing, reBriefing, buildSimple(TypeBriefing)},
		{TypeHabitStatus, reHabitStatus, buildSimple(TypeHabitStatus)},
		{TypeHabitAdd, reHabitAdd, buildHabit(TypeHabitAdd)},
		{TypeHabitList, reHabitList, buildSimple(TypeHabitList)},
		{TypeHabitDone, reHabitDone, buildHabit(TypeHabitDone)},
		{TypeLearningStatus, reLearningStatus, buildSimple(TypeLearningStatus)},
		{TypeLearningFeedback, reLearningFeedback, buildLearningFeedback},
		{TypeSmartHome, reSmartOn, buildSmartHome("turn_on")},
		{TypeSmartHome, reSmartOff, buildSmartHome("turn_off")},
		{TypeSmartHome, reSmartStatus, buildSmartHome("get_state")},
	}
}

func matched(typ Type, userID string, params Params, response string) Result {
	return Result{
		IsCommand: true,
		Type:      typ,
		UserID:    userID,
		Params:    params,
		Response:  response,
	}
}

func buildTime(p *Parser, _, userID string, _ []string) Result {
	return matched(TypeTime, userID, nil,
		fmt.Sprintf("Сейчас %s", p.now().Format("15:04")))
}

func buildDate(p *Parser, _, userID string, _ []string) Result {
	return matched(TypeDate, userID, nil,
		fmt.Sprintf("Сегодня %s", FormatDateRu(p.now())))
}

func buildReminderText(p *Parser, text, userID string, m []string) Result {
	amount, _ := strconv.Atoi(m[1])
	message := strings.TrimSpace(m[2])

	minutes := amount
	timeStr := Minutes(amount)
	if hasHourWord(text) {
		minutes = amount * 60
		timeStr = Hours(amount)
	}

	return matched(TypeReminder, userID, ScheduleParams{
		Minutes: minutes,
		Message: message,
		RunAt:   p.now().Add(time.Duration(minutes) * time.Minute),
	}, fmt.Sprintf("Хорошо, напомню тебе через %s: \"%s\"", timeStr, message))
}

func buildReminderMinutes(p *Parser, _, userID string, m []string) Result {
	minutes, _ := strconv.Atoi(m[1])
	return matched(TypeReminder, userID, ScheduleParams{
		Minutes: minutes,
		Message: "Время пришло!",
		RunAt:   p.now().Add(time.Duration(minutes) * time.Minute),
	}, fmt.Sprintf("Окей, напомню через %s!", Minutes(minutes)))
}

func buildReminderHours(p *Parser, _, userID string, m []string) Result {
	hours, _ := strconv.Atoi(m[1])
	return matched(TypeReminder, userID, ScheduleParams{
		Minutes: hours * 60,
		Message: "Время пришло!",
		RunAt:   p.now().Add(time.Duration(hours) * time.Hour),
	}, fmt.Sprintf("Окей, напомню через %s!", Hours(hours)))
}

func buildTimer(p *Parser, _, userID string, m []string) Result {
	minutes, _ := strconv.Atoi(m[1])
	return matched(TypeTimer, userID, ScheduleParams{
		Minutes: minutes,
		Message: fmt.Sprintf("Таймер на %s завершён!", Minutes(minutes)),
		RunAt:   p.now().Add(time.Duration(minutes) * time.Minute),
	}, fmt.Sprintf("Таймер на %s запущен!", Minutes(minutes)))
}

func buildPomodoro(p *Parser, _, userID string, m []string) Result {
	minutes := 25
	if m[1] != "" {
		minutes, _ = strconv.Atoi(m[1])
	}
	return matched(TypePomodoro, userID, ScheduleParams{
		Minutes: minutes,
		Message: "Помидор завершён! Время отдохнуть.",
		RunAt:   p.now().Add(time.Duration(minutes) * time.Minute),
	}, fmt.Sprintf("Помодоро на %s. Поехали! 🍅", Minutes(minutes)))
}

func buildBreak(p *Parser, _, userID string, m []string) Result {
	minutes := 5
	for _, g := range m[1:] {
		if g != "" {
			minutes, _ = strconv.Atoi(g)
			break
		}
	}
	return matched(TypeBreak, userID, ScheduleParams{
		Minutes: minutes,
		Message: "Перерыв окончен, возвращаемся!",
		RunAt:   p.now().Add(time.Duration(minutes) * time.Minute),
	}, fmt.Sprintf("Перерыв на %s. Отдыхай!", Minutes(minutes)))
}

func buildWeatherCurrent(_ *Parser, _, userID string, m []string) Result {
	return matched(TypeWeather, userID, WeatherParams{
		City: cleanCapture(m[1]),
	}, "")
}

func buildWeatherForecast(_ *Parser, text, userID string, _ []string) Result {
	city := ""
	if m := reForecastCity.FindStringSubmatch(text); m != nil {
		city = cleanCapture(m[1])
	}
	days := 3
	if m := reForecastDays.FindStringSubmatch(text); m != nil {
		days, _ = strconv.Atoi(m[1])
	}
	return matched(TypeWeather, userID, WeatherParams{
		City:     city,
		Days:     days,
		Forecast: true,
	}, "")
}

func buildNoteAdd(_ *Parser, _, userID string, m []string) Result {
	return matched(TypeNoteAdd, userID, NoteParams{Title: cleanCapture(m[1])}, "")
}

func buildNoteSearch(_ *Parser, _, userID string, m []string) Result {
	return matched(TypeNoteSearch, userID, NoteParams{Query: cleanCapture(m[1])}, "")
}

func buildTaskAdd(priority string) func(*Parser, string, string, []string) Result {
	return func(_ *Parser, _, userID string, m []string) Result {
		return matched(TypeTaskAdd, userID, TaskParams{
			Title:    cleanCapture(m[1]),
			Priority: priority,
		}, "")
	}
}

func buildTaskDone(_ *Parser, _, userID string, m []string) Result {
	return matched(TypeTaskDone, userID, TaskParams{Title: cleanCapture(m[1])}, "")
}

func buildMoodLog(_ *Parser, text, userID string, _ []string) Result {
	return matched(TypeMoodLog, userID, MoodParams{Text: text}, "")
}

func buildCalendarUpcoming(_ *Parser, _, userID string, _ []string) Result {
	return matched(TypeCalendarUpcoming, userID, CalendarParams{Days: 7}, "")
}

func buildHabit(typ Type) func(*Parser, string, string, []string) Result {
	return func(_ *Parser, _, userID string, m []string) Result {
		name := ""
		for _, g := range m[1:] {
			if g != "" {
				name = g
				break
			}
		}
		return matched(typ, userID, HabitParams{Name: cleanCapture(name)}, "")
	}
}

func buildLearningFeedback(_ *Parser, text, userID string, _ []string) Result {
	return matched(TypeLearningFeedback, userID, LearningParams{Feedback: text}, "")
}

func buildSmartHome(action string) func(*Parser, string, string, []string) Result {
	return func(_ *Parser, _, userID string, m []string) Result {
		return matched(TypeSmartHome, userID, SmartHomeParams{
			Device: cleanCapture(m[1]),
			Action: action,
		}, "")
	}
}

func buildSimple(typ Type) func(*Parser, string, string, []string) Result {
	return func(_ *Parser, _, userID string, _ []string) Result {
		return matched(typ, userID, nil, "")
	}
}

func hasHourWord(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range []string{"час", "hour", "hr"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func cleanCapture(s string) string {
	return strings.Trim(strings.TrimSpace(s), `.,!?"'«»`)
}
