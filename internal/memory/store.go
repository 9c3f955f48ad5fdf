// Package memory keeps per-user conversation history in Redis.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/metrics"
)

const (
	// maxHistory caps the stored history per user.
	maxHistory = 200
	// ContextWindow is how many recent messages are fed to the LLM.
	ContextWindow = 15
)

// Message is one turn of the conversation.
type Message struct {
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Emotion   string    `json:"emotion,omitempty"`
}

// Stats summarizes a user's stored history.
type Stats struct {
	TotalMessages  int       `json:"total_messages"`
	UserCount      int       `json:"user_messages"`
	AssistantCount int       `json:"assistant_messages"`
	LastMessage    time.Time `json:"last_message,omitempty"`
}

// Store reads and writes conversation history.
type Store struct {
	rdb *redis.Client
	log *slog.Logger
	now func() time.Time
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, log: logging.WithComponent("memory"), now: time.Now}
}

func key(userID string) string { return "eva:history:" + userID }

// Append adds a message to the user's history, trimming to the cap.
func (s *Store) Append(ctx context.Context, userID string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key(userID), raw)
	pipe.LTrim(ctx, key(userID), -maxHistory, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	metrics.MemoryOperations.Inc()
	return nil
}

// Recent returns the newest limit messages in chronological order.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = ContextWindow
	}
	values, err := s.rdb.LRange(ctx, key(userID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	messages := make([]Message, 0, len(values))
	for _, v := range values {
		var msg Message
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			s.log.Error("corrupt history entry skipped", "user", userID, "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// All returns the full stored history.
func (s *Store) All(ctx context.Context, userID string) ([]Message, error) {
	return s.Recent(ctx, userID, maxHistory)
}

// Clear wipes a user's history.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.log.Info("history cleared", "user", userID)
	return nil
}

// Stats counts stored messages per role.
func (s *Store) Stats(ctx context.Context, userID string) (*Stats, error) {
	messages, err := s.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalMessages: len(messages)}
	for _, msg := range messages {
		switch msg.Role {
		case "user":
			stats.UserCount++
		case "assistant":
			stats.AssistantCount++
		}
		if msg.Timestamp.After(stats.LastMessage) {
			stats.LastMessage = msg.Timestamp
		}
	}
	return stats, nil
}
