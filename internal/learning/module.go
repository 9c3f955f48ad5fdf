// Package learning adapts the assistant's reply style to the user.
package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/evahub/eva-gateway/internal/logging"
)

// Style is the learned communication preference, each axis in [0,1].
type Style struct {
	Formality  float64 `json:"formality"`
	Verbosity  float64 `json:"verbosity"`
	HumorLevel float64 `json:"humor_level"`
	EmojiUsage float64 `json:"emoji_usage"`
}

func defaultStyle() Style {
	return Style{Formality: 0.5, Verbosity: 0.5, HumorLevel: 0.5, EmojiUsage: 0.3}
}

type userData struct {
	Style         Style `json:"style"`
	TotalMessages int   `json:"total_messages"`
	FeedbackCount int   `json:"feedback_count"`
}

// Module persists per-user learning state in Redis.
type Module struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewModule(rdb *redis.Client) *Module {
	return &Module{rdb: rdb, log: logging.WithComponent("learning")}
}

func key(userID string) string { return "eva:learning:" + userID }

func (m *Module) load(ctx context.Context, userID string) (userData, error) {
	raw, err := m.rdb.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return userData{Style: defaultStyle()}, nil
	}
	if err != nil {
		return userData{}, fmt.Errorf("load learning data: %w", err)
	}
	var data userData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return userData{Style: defaultStyle()}, nil
	}
	return data, nil
}

func (m *Module) save(ctx context.Context, userID string, data userData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal learning data: %w", err)
	}
	if err := m.rdb.Set(ctx, key(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save learning data: %w", err)
	}
	return nil
}

// Style returns the learned style for the persona prompt.
func (m *Module) Style(ctx context.Context, userID string) (Style, error) {
	data, err := m.load(ctx, userID)
	return data.Style, err
}

// RecordInteraction bumps counters and nudges verbosity from message length.
func (m *Module) RecordInteraction(ctx context.Context, userID, message string) error {
	data, err := m.load(ctx, userID)
	if err != nil {
		return err
	}
	data.TotalMessages++
	switch n := len([]rune(message)); {
	case n > 200:
		data.Style.Verbosity = clamp(data.Style.Verbosity + 0.075)
	case n < 30:
		data.Style.Verbosity = clamp(data.Style.Verbosity - 0.075)
	}
	return m.save(ctx, userID, data)
}

// Feedback applies an explicit style request ("отвечай короче") with a
// fixed 0.2 step per axis.
func (m *Module) Feedback(ctx context.Context, userID, feedback string) (string, error) {
	data, err := m.load(ctx, userID)
	if err != nil {
		return "", err
	}
	lower := strings.ToLower(feedback)
	adjusted := false

	apply := func(words []string, axis *float64, delta float64) {
		for _, w := range words {
			if strings.Contains(lower, w) {
				*axis = clamp(*axis + delta)
				adjusted = true
				return
			}
		}
	}

	apply([]string{"короче", "кратко", "shorter", "brief"}, &data.Style.Verbosity, -0.2)
	apply([]string{"подробнее", "детальнее", "more detail"}, &data.Style.Verbosity, 0.2)
	apply([]string{"серьёзн", "серьезн", "без шуток", "serious"}, &data.Style.HumorLevel, -0.2)
	apply([]string{"веселее", "шутить", "funnier"}, &data.Style.HumorLevel, 0.2)
	apply([]string{"проще", "неформально", "casual"}, &data.Style.Formality, -0.2)
	apply([]string{"официальн", "формальн", "formal"}, &data.Style.Formality, 0.2)

	if !adjusted {
		return "Поняла, постараюсь учесть!", nil
	}

	data.FeedbackCount++
	if err := m.save(ctx, userID, data); err != nil {
		return "", err
	}
	m.log.Info("style updated from feedback", "user", userID)
	return "Поняла, учту! 🎯", nil
}

// Status summarizes what has been learned so far.
func (m *Module) Status(ctx context.Context, userID string) (string, error) {
	data, err := m.load(ctx, userID)
	if err != nil {
		return "", err
	}

	var parts []string
	if data.TotalMessages > 0 {
		parts = append(parts, fmt.Sprintf("Мы общаемся уже %d сообщений", data.TotalMessages))
	}

	var styleDesc []string
	if data.Style.Formality < 0.4 {
		styleDesc = append(styleDesc, "неформальному общению")
	}
	if data.Style.HumorLevel > 0.5 {
		styleDesc = append(styleDesc, "шуткам")
	}
	if data.Style.Verbosity < 0.4 {
		styleDesc = append(styleDesc, "кратким ответам")
	} else if data.Style.Verbosity > 0.6 {
		styleDesc = append(styleDesc, "подробным ответам")
	}
	if len(styleDesc) > 0 {
		parts = append(parts, "Адаптировалась к: "+strings.Join(styleDesc, ", "))
	}

	if len(parts) == 0 {
		return "Я только начинаю узнавать тебя!", nil
	}
	return strings.Join(parts, ". "), nil
}

// StylePrompt renders the learned style as persona prompt lines.
func (m *Module) StylePrompt(ctx context.Context, userID string) string {
	data, err := m.load(ctx, userID)
	if err != nil {
		return ""
	}

	var parts []string
	if data.Style.Formality < 0.3 {
		parts = append(parts, "Общайся неформально и дружелюбно")
	} else if data.Style.Formality > 0.7 {
		parts = append(parts, "Поддерживай вежливый и формальный тон")
	}
	if data.Style.Verbosity < 0.3 {
		parts = append(parts, "Отвечай кратко и по делу")
	} else if data.Style.Verbosity > 0.7 {
		parts = append(parts, "Давай развёрнутые ответы с деталями")
	}
	if data.Style.HumorLevel > 0.6 {
		parts = append(parts, "Используй юмор и шутки")
	} else if data.Style.HumorLevel < 0.2 {
		parts = append(parts, "Будь серьёзной, избегай шуток")
	}
	if data.Style.EmojiUsage > 0.5 {
		parts = append(parts, "Используй эмодзи в ответах")
	}
	return strings.Join(parts, ". ")
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
