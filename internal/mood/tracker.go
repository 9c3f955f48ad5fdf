// Package mood tracks the user's emotional state over time.
package mood

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evahub/eva-gateway/internal/command"
	"github.com/evahub/eva-gateway/internal/logging"
)

const maxEntries = 1000

// Entry is one logged mood observation.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Mood      string    `json:"mood"`
	Score     int       `json:"score"`
	Note      string    `json:"note"`
	UserID    string    `json:"user_id"`
}

// keyword scoring table, checked in listing order. Longer and more specific
// words come before their prefixes (устала before устал is unnecessary since
// containment, but отлично must not be shadowed).
var moodKeywords = []struct {
	word  string
	mood  string
	score int
}{
	{"счастлив", "happy", 9},
	{"happy", "happy", 9},
	{"великолепно", "happy", 10},
	{"отлично", "happy", 9},
	{"хорошо", "good", 7},
	{"good", "good", 7},
	{"неплохо", "good", 6},
	{"нормально", "neutral", 5},
	{"normal", "neutral", 5},
	{"так себе", "neutral", 4},
	{"устал", "tired", 4},
	{"tired", "tired", 4},
	{"вымотан", "tired", 3},
	{"грустно", "sad", 3},
	{"sad", "sad", 3},
	{"печально", "sad", 3},
	{"плохо", "sad", 2},
	{"стресс", "stressed", 3},
	{"stressed", "stressed", 3},
	{"напряжён", "stressed", 4},
	{"тревожно", "anxious", 3},
	{"anxious", "anxious", 3},
	{"волнуюсь", "anxious", 4},
	{"злюсь", "angry", 3},
	{"angry", "angry", 3},
	{"раздражён", "angry", 4},
	{"бесит", "angry", 2},
}

var moodEmoji = map[string]string{
	"happy": "😊", "good": "🙂", "neutral": "😐", "tired": "😴",
	"sad": "😢", "stressed": "😰", "anxious": "😟", "angry": "😠",
}

var moodRu = map[string]string{
	"happy": "счастливым", "good": "хорошим", "neutral": "нормальным",
	"tired": "уставшим", "sad": "грустным", "stressed": "напряжённым",
	"anxious": "тревожным", "angry": "раздражённым",
}

var reNumericScore = regexp.MustCompile(`(\d+)\s*(?:из|/|of)\s*10`)

// Tracker logs moods to Redis and summarizes them.
type Tracker struct {
	rdb *redis.Client
	log *slog.Logger
	now func() time.Time
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb, log: logging.WithComponent("mood"), now: time.Now}
}

func key(userID string) string { return "eva:mood:" + userID }

// Parse detects a mood in free text: keyword scan first, then a numeric
// "7 из 10" style score.
func (t *Tracker) Parse(text string) (command.MoodEntry, bool) {
	lower := strings.ToLower(text)

	for _, kw := range moodKeywords {
		if strings.Contains(lower, kw.word) {
			return command.MoodEntry{Mood: kw.mood, Score: kw.score}, true
		}
	}

	if m := reNumericScore.FindStringSubmatch(lower); m != nil {
		score, _ := strconv.Atoi(m[1])
		if score < 1 {
			score = 1
		}
		if score > 10 {
			score = 10
		}
		mood := "sad"
		switch {
		case score >= 8:
			mood = "happy"
		case score >= 6:
			mood = "good"
		case score >= 4:
			mood = "neutral"
		case score >= 2:
			mood = "tired"
		}
		return command.MoodEntry{Mood: mood, Score: score}, true
	}

	return command.MoodEntry{}, false
}

// Log appends a mood entry, keeping the newest thousand.
func (t *Tracker) Log(ctx context.Context, userID string, entry command.MoodEntry, note string) error {
	e := Entry{
		Timestamp: t.now(),
		Mood:      entry.Mood,
		Score:     entry.Score,
		Note:      note,
		UserID:    userID,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal mood: %w", err)
	}
	pipe := t.rdb.TxPipeline()
	pipe.RPush(ctx, key(userID), data)
	pipe.LTrim(ctx, key(userID), -maxEntries, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save mood: %w", err)
	}
	t.log.Info("mood logged", "user", userID, "mood", entry.Mood, "score", entry.Score)
	return nil
}

// Stats summarizes the last seven days: average score, dominant mood and a
// first-half vs second-half trend.
func (t *Tracker) Stats(ctx context.Context, userID string) (string, error) {
	values, err := t.rdb.LRange(ctx, key(userID), 0, -1).Result()
	if err != nil {
		return "", fmt.Errorf("load moods: %w", err)
	}

	cutoff := t.now().AddDate(0, 0, -7)
	var recent []Entry
	for _, v := range values {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		if e.Timestamp.After(cutoff) {
			recent = append(recent, e)
		}
	}

	if len(recent) == 0 {
		return "У меня пока нет данных о твоём настроении. Расскажи, как ты себя чувствуешь?", nil
	}

	sum := 0
	counts := map[string]int{}
	for _, e := range recent {
		sum += e.Score
		counts[e.Mood]++
	}
	avg := float64(sum) / float64(len(recent))

	mostCommon := ""
	for mood, c := range counts {
		if mostCommon == "" || c > counts[mostCommon] {
			mostCommon = mood
		}
	}

	trend := "стабильное 📊"
	if mid := len(recent) / 2; mid > 0 {
		var firstSum, secondSum int
		for _, e := range recent[:mid] {
			firstSum += e.Score
		}
		for _, e := range recent[mid:] {
			secondSum += e.Score
		}
		first := float64(firstSum) / float64(mid)
		second := float64(secondSum) / float64(len(recent)-mid)
		switch {
		case second > first+0.5:
			trend = "улучшается 📈"
		case second < first-0.5:
			trend = "ухудшается 📉"
		}
	}

	return fmt.Sprintf(
		"За последнюю неделю ты чаще всего был(а) %s %s\nСредняя оценка настроения: %.1f/10\nТренд: %s",
		moodRu[mostCommon], moodEmoji[mostCommon], avg, trend), nil
}
