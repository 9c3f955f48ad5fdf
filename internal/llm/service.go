package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/memory"
	"github.com/evahub/eva-gateway/internal/metrics"
	"github.com/evahub/eva-gateway/internal/profile"
)

// Emotions attached to replies, used for TTS voice shaping.
const (
	EmotionExcited    = "excited"
	EmotionSupportive = "supportive"
	EmotionPlayful    = "playful"
	EmotionConcerned  = "concerned"
	EmotionCalm       = "calm"
	EmotionFriendly   = "friendly"
)

const proactiveSystem = "Ты EVA — тёплая, дружелюбная боевая подруга. Отвечай коротко и от души."

// StyleHinter supplies learned style lines for the system prompt.
type StyleHinter interface {
	StylePrompt(ctx context.Context, userID string) string
}

// Service builds EVA's persona prompt and generates replies.
type Service struct {
	router    *Router
	name      string
	maxTokens int
	style     StyleHinter
	now       func() time.Time
}

func NewService(router *Router, cfg config.AssistantConfig, llmCfg config.LLMConfig, style StyleHinter) *Service {
	maxTokens := llmCfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	name := cfg.Name
	if name == "" {
		name = "EVA"
	}
	return &Service{
		router:    router,
		name:      name,
		maxTokens: maxTokens,
		style:     style,
		now:       time.Now,
	}
}

// Chat produces a reply to the user message given recent history and the
// profile, and tags it with a detected emotion.
func (s *Service) Chat(ctx context.Context, userMsg string, history []memory.Message, p *profile.Profile) (string, string, error) {
	system := s.buildSystemPrompt(ctx, p)

	if len(history) > memory.ContextWindow {
		history = history[len(history)-memory.ContextWindow:]
	}
	messages := make([]Message, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, Message{Role: "user", Content: userMsg})

	start := s.now()
	text, err := s.router.Chat(ctx, system, messages, s.maxTokens)
	if err != nil {
		return "", "", err
	}
	metrics.LLMLatency.Observe(time.Since(start).Seconds())

	return text, DetectEmotion(text), nil
}

// Proactive generates a message EVA initiates herself for the given
// trigger (morning, break, checkin, encouragement).
func (s *Service) Proactive(ctx context.Context, p *profile.Profile, trigger string) (string, string, error) {
	name := p.DisplayName()
	if name == "" {
		name = "эй"
	}

	prompts := map[string]string{
		"morning":       fmt.Sprintf("Сгенерируй короткое (1-2 предложения) доброе утреннее приветствие для %s. Будь тёплой и позитивной.", name),
		"break":         fmt.Sprintf("Сгенерируй мягкое напоминание о перерыве для %s. 1 предложение, заботливо.", name),
		"checkin":       fmt.Sprintf("Сгенерируй мягкий check-in для %s, спроси как дела. 1 предложение.", name),
		"encouragement": fmt.Sprintf("Сгенерируй подбадривание для %s. 1-2 предложения, тепло.", name),
	}
	prompt, ok := prompts[trigger]
	if !ok {
		prompt = prompts["checkin"]
	}

	text, err := s.router.Chat(ctx, proactiveSystem, []Message{{Role: "user", Content: prompt}}, 150)
	if err != nil {
		return "", "", err
	}
	return text, DetectEmotion(text), nil
}

// Health exposes the router's provider health.
func (s *Service) Health(ctx context.Context) map[string]error {
	return s.router.Health(ctx)
}

func (s *Service) buildSystemPrompt(ctx context.Context, p *profile.Profile) string {
	userName := p.DisplayName()
	if userName == "" {
		userName = "друг"
	}

	now := s.now()
	var timeOfDay string
	switch hour := now.Hour(); {
	case hour >= 5 && hour < 12:
		timeOfDay = "утро"
	case hour >= 12 && hour < 17:
		timeOfDay = "день"
	case hour >= 17 && hour < 22:
		timeOfDay = "вечер"
	default:
		timeOfDay = "ночь"
	}

	var onboarding string
	switch p.OnboardingStage {
	case profile.StageSettlingIn:
		onboarding = fmt.Sprintf(`
РЕЖИМ ПРИТИРКИ (день %d/5):
Ты всё ещё изучаешь пользователя. Больше слушай, меньше советуй.
Можешь иногда спрашивать: "Как тебе такой подход?" или "Это было полезно?"
`, p.OnboardingDay)
	case profile.StageNotStarted:
		onboarding = `
РЕЖИМ ОНБОРДИНГА:
Ты сейчас знакомишься с пользователем. Задавай вопросы по одному, не перегружай.
- Если ещё не знаешь имя — спроси как его зовут
- Если знаешь имя, но не знаешь как обращаться — уточни
- Спрашивай о предпочтениях постепенно, в контексте разговора
`
	}

	var approaches string
	if len(p.EffectiveApproaches) > 0 {
		approaches += "\nЧто работает: " + strings.Join(p.EffectiveApproaches, ", ")
	}
	if len(p.IneffectiveApproaches) > 0 {
		approaches += "\nЧто НЕ работает: " + strings.Join(p.IneffectiveApproaches, ", ")
	}

	var personal string
	if n := len(p.PersonalNotes); n > 0 {
		notes := p.PersonalNotes
		if n > 5 {
			notes = notes[n-5:]
		}
		personal = "\nЗаметки о пользователе: " + strings.Join(notes, "; ")
	}

	var styleLines string
	if s.style != nil {
		if hint := s.style.StylePrompt(ctx, p.UserID); hint != "" {
			styleLines = "\nСТИЛЬ ОБЩЕНИЯ: " + hint
		}
	}

	return fmt.Sprintf(`Ты — %s, персональный AI-компаньон.

ХАРАКТЕР:
- Ты мягкая, поддерживающая боевая подруга
- Дружелюбная, с лёгким юмором
- Никогда не давишь, не осуждаешь, не критикуешь
- Поддерживаешь и подбадриваешь
- Лаконична: 1-3 предложения для простых вопросов, больше только если нужно

ЗАПРЕЩЕНО:
- Говорить "хватит прокрастинировать" или подобное
- Давить, стыдить, упрекать
- Быть формальной или роботизированной
- Использовать канцеляризмы
- Начинать ответ с "Привет" если пользователь не поздоровался

ПРАВИЛА:
- Отвечай на языке, на котором к тебе обратились
- Если обратились на русском — отвечай на русском
- Если на английском — на английском
- Учитывай время суток и контекст
- Если не знаешь — честно скажи

ТЕКУЩИЙ КОНТЕКСТ:
- Пользователь: %s
- Время: %s (%s)
- Стиль мотивации: %s
%s%s%s%s

Помни: ты не просто ассистент, ты боевая подруга. Будь живой, тёплой, настоящей.`,
		s.name, userName, timeOfDay, now.Format("15:04"), p.MotivationStyle,
		onboarding, approaches, personal, styleLines)
}

var emotionKeywords = []struct {
	emotion string
	words   []string
}{
	{EmotionExcited, []string{"круто", "отлично", "супер", "класс", "ура", "!"}},
	{EmotionSupportive, []string{"понимаю", "сочувствую", "держись", "всё будет"}},
	{EmotionPlayful, []string{"хах", "хех", "шучу", "прикол"}},
	{EmotionConcerned, []string{"ты как", "всё хорошо", "беспокоюсь"}},
	{EmotionCalm, []string{"спокойно", "не спеши", "расслабься"}},
}

// DetectEmotion scans a reply for emotional markers; friendly is the
// neutral default.
func DetectEmotion(text string) string {
	lower := strings.ToLower(text)
	for _, group := range emotionKeywords {
		for _, word := range group.words {
			if strings.Contains(lower, word) {
				return group.emotion
			}
		}
	}
	return EmotionFriendly
}
