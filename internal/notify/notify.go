// Package notify fans reminders and proactive messages out through Redis
// Streams so every gateway instance can deliver them.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/metrics"
)

const (
	// Stream carries pending notifications.
	Stream = "eva:notifications"
	// DeadLetterStream collects notifications that exhausted retries.
	DeadLetterStream = "eva:notifications:dlq"
)

// Notification is one message EVA wants delivered to a user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Trigger   string    `json:"trigger"` // reminder, morning, break, checkin, encouragement
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (n Notification) toValues() map[string]interface{} {
	return map[string]interface{}{
		"id":         n.ID,
		"user_id":    n.UserID,
		"message":    n.Message,
		"trigger":    n.Trigger,
		"emotion":    n.Emotion,
		"created_at": strconv.FormatInt(n.CreatedAt.Unix(), 10),
	}
}

func fromValues(values map[string]interface{}) Notification {
	var n Notification
	if v, ok := values["id"].(string); ok {
		n.ID = v
	}
	if v, ok := values["user_id"].(string); ok {
		n.UserID = v
	}
	if v, ok := values["message"].(string); ok {
		n.Message = v
	}
	if v, ok := values["trigger"].(string); ok {
		n.Trigger = v
	}
	if v, ok := values["emotion"].(string); ok {
		n.Emotion = v
	}
	if v, ok := values["created_at"].(string); ok {
		ts, _ := strconv.ParseInt(v, 10, 64)
		n.CreatedAt = time.Unix(ts, 0)
	}
	return n
}

// Publisher appends notifications to the stream.
type Publisher struct {
	rdb *redis.Client
	now func() time.Time
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb, now: time.Now}
}

// Publish enqueues a notification and returns its stream entry ID.
func (p *Publisher) Publish(ctx context.Context, n Notification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = p.now()
	}
	id, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: n.toValues(),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd failed: %w", err)
	}
	logging.WithComponent("notify").Info("notification published",
		"user", n.UserID, "trigger", n.Trigger, "entry", id)
	metrics.NotificationsSent.WithLabelValues("stream").Inc()
	return id, nil
}
