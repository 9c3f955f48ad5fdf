package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/profile"
)

func TestDetectEmotion(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Круто, получилось!", EmotionExcited},
		{"Понимаю тебя, держись", EmotionSupportive},
		{"Хах, шучу конечно", EmotionPlayful},
		{"Ты как? Беспокоюсь немного", EmotionConcerned},
		{"Спокойно, не спеши", EmotionCalm},
		{"Хорошего дня", EmotionFriendly},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectEmotion(tt.text), tt.text)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	s := NewService(&Router{}, config.AssistantConfig{Name: "EVA"}, config.LLMConfig{}, nil)
	s.now = func() time.Time {
		return time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	}

	p := &profile.Profile{
		UserID:              "u1",
		Name:                "Александра",
		PreferredName:       "Саша",
		OnboardingStage:     profile.StageSettlingIn,
		OnboardingDay:       3,
		MotivationStyle:     "мягкий",
		EffectiveApproaches: []string{"короткие цели"},
		PersonalNotes:       []string{"[2026-08-30] любит кофе"},
	}

	prompt := s.buildSystemPrompt(context.Background(), p)
	assert.Contains(t, prompt, "Ты — EVA, персональный AI-компаньон.")
	assert.Contains(t, prompt, "Пользователь: Саша")
	assert.Contains(t, prompt, "Время: утро (09:30)")
	assert.Contains(t, prompt, "РЕЖИМ ПРИТИРКИ (день 3/5)")
	assert.Contains(t, prompt, "Что работает: короткие цели")
	assert.Contains(t, prompt, "любит кофе")
}

func TestBuildSystemPromptDefaults(t *testing.T) {
	s := NewService(&Router{}, config.AssistantConfig{}, config.LLMConfig{}, nil)
	s.now = func() time.Time {
		return time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	}

	prompt := s.buildSystemPrompt(context.Background(), &profile.Profile{UserID: "u1", OnboardingStage: profile.StageFull})
	assert.Contains(t, prompt, "Пользователь: друг")
	assert.Contains(t, prompt, "Время: ночь")
	assert.NotContains(t, prompt, "РЕЖИМ ОНБОРДИНГА")
	assert.NotContains(t, prompt, "РЕЖИМ ПРИТИРКИ")
}

func TestRouterRequiresProviders(t *testing.T) {
	_, err := NewRouter(config.LLMConfig{})
	assert.Error(t, err)
}

func TestRouterDefaultProviderFirst(t *testing.T) {
	r, err := NewRouter(config.LLMConfig{
		DefaultProvider: "local",
		Providers: []config.ProviderConfig{
			{Name: "cloud", Type: "openai", URL: "https://api.openai.com/v1", APIKey: "k", Model: "gpt-4o-mini"},
			{Name: "local", Type: "ollama", URL: "http://localhost:11434", Model: "llama3"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, "local", r.clients[0].Name())
	assert.Equal(t, "cloud", r.clients[1].Name())
}
