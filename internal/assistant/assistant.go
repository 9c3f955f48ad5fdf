// Package assistant is the message pipeline: command parsing first, the
// LLM as conversational fallback, memory and TTS around both.
package assistant

import (
	"context"
	"log/slog"
	"unicode"

	"github.com/evahub/eva-gateway/internal/command"
	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/memory"
	"github.com/evahub/eva-gateway/internal/profile"
)

// Reply is the outcome of one user message.
type Reply struct {
	Text        string `json:"text"`
	Emotion     string `json:"emotion"`
	IsCommand   bool   `json:"is_command"`
	CommandType string `json:"command_type,omitempty"`
	AudioURL    string `json:"audio_url,omitempty"`
}

// Chatter is the conversational fallback.
type Chatter interface {
	Chat(ctx context.Context, userMsg string, history []memory.Message, p *profile.Profile) (string, string, error)
}

// Speech converts a reply to audio, fail-soft.
type Speech interface {
	Enabled() bool
	Synthesize(ctx context.Context, text, language, emotion string) string
}

// Learner observes interactions for style adaptation.
type Learner interface {
	RecordInteraction(ctx context.Context, userID, message string) error
}

// Assistant wires the parser, executor, memory, profile, LLM and TTS into
// one HandleMessage entry point used by every channel.
type Assistant struct {
	parser   *command.Parser
	executor *command.Executor
	memory   *memory.Store
	profiles *profile.Manager
	chatter  Chatter
	speech   Speech
	learner  Learner
	log      *slog.Logger
}

func New(parser *command.Parser, executor *command.Executor, mem *memory.Store,
	profiles *profile.Manager, chatter Chatter, speech Speech, learner Learner) *Assistant {
	return &Assistant{
		parser:   parser,
		executor: executor,
		memory:   mem,
		profiles: profiles,
		chatter:  chatter,
		speech:   speech,
		learner:  learner,
		log:      logging.WithComponent("assistant"),
	}
}

// HandleMessage runs the full pipeline for one user message.
func (a *Assistant) HandleMessage(ctx context.Context, userID, text string) (Reply, error) {
	lang := DetectLanguage(text)

	res := a.parser.Parse(text, userID)
	if res.IsCommand {
		_, message := a.executor.Execute(ctx, res)
		if message == "" {
			message = res.Response
		}

		reply := Reply{
			Text:        message,
			Emotion:     "friendly",
			IsCommand:   true,
			CommandType: string(res.Type),
		}
		a.remember(ctx, res.UserID, text, reply)
		a.speak(ctx, lang, &reply)
		return reply, nil
	}

	return a.converse(ctx, userID, text, lang)
}

func (a *Assistant) converse(ctx context.Context, userID, text, lang string) (Reply, error) {
	p, err := a.profiles.Get(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	history, err := a.memory.Recent(ctx, userID, memory.ContextWindow)
	if err != nil {
		a.log.Error("history load failed, continuing without", "user", userID, "error", err)
		history = nil
	}

	answer, emotion, err := a.chatter.Chat(ctx, text, history, p)
	if err != nil {
		a.log.Error("llm chat failed", "user", userID, "error", err)
		return Reply{
			Text:    "Ой, что-то я задумалась. Попробуй ещё раз?",
			Emotion: "friendly",
		}, nil
	}

	if a.learner != nil {
		if err := a.learner.RecordInteraction(ctx, userID, text); err != nil {
			a.log.Error("interaction record failed", "user", userID, "error", err)
		}
	}

	reply := Reply{Text: answer, Emotion: emotion}
	a.remember(ctx, userID, text, reply)
	a.speak(ctx, lang, &reply)
	return reply, nil
}

func (a *Assistant) remember(ctx context.Context, userID, userText string, reply Reply) {
	if err := a.memory.Append(ctx, userID, memory.Message{Role: "user", Content: userText}); err != nil {
		a.log.Error("memory append failed", "user", userID, "error", err)
		return
	}
	msg := memory.Message{Role: "assistant", Content: reply.Text, Emotion: reply.Emotion}
	if err := a.memory.Append(ctx, userID, msg); err != nil {
		a.log.Error("memory append failed", "user", userID, "error", err)
	}
}

func (a *Assistant) speak(ctx context.Context, lang string, reply *Reply) {
	if a.speech == nil || !a.speech.Enabled() {
		return
	}
	reply.AudioURL = a.speech.Synthesize(ctx, reply.Text, lang, reply.Emotion)
}

// DetectLanguage guesses ru vs en from the cyrillic share of the letters.
func DetectLanguage(text string) string {
	letters, cyrillic := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Cyrillic, r) {
				cyrillic++
			}
		}
	}
	if letters > 0 && float64(cyrillic)/float64(letters) > 0.3 {
		return "ru"
	}
	return "en"
}
