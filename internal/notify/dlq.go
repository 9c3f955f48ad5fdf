package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeadLetter is a notification that exhausted its delivery retries.
type DeadLetter struct {
	EntryID      string       `json:"entry_id"`
	Notification Notification `json:"notification"`
	Error        string       `json:"error"`
	RetryCount   int          `json:"retry_count"`
	DeadAt       time.Time    `json:"dead_at"`
}

// DeadLetterQueue inspects and replays dead-lettered notifications.
type DeadLetterQueue struct {
	rdb *redis.Client
}

func NewDeadLetterQueue(rdb *redis.Client) *DeadLetterQueue {
	return &DeadLetterQueue{rdb: rdb}
}

// DeadLetters returns the newest limit entries.
func (d *DeadLetterQueue) DeadLetters(ctx context.Context, limit int) ([]DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	results, err := d.rdb.XRevRangeN(ctx, DeadLetterStream, "+", "-", int64(limit)).Result()
	if errors.Is(err, redis.Nil) {
		return []DeadLetter{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dead letters: %w", err)
	}

	letters := make([]DeadLetter, 0, len(results))
	for _, msg := range results {
		letters = append(letters, parseDeadLetter(msg))
	}
	return letters, nil
}

// Retry republishes a dead letter onto the live stream and removes it.
func (d *DeadLetterQueue) Retry(ctx context.Context, entryID string) error {
	results, err := d.rdb.XRange(ctx, DeadLetterStream, entryID, entryID).Result()
	if err != nil {
		return fmt.Errorf("read dead letter: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("dead letter not found: %s", entryID)
	}

	letter := parseDeadLetter(results[0])
	if _, err := d.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: letter.Notification.toValues(),
	}).Result(); err != nil {
		return fmt.Errorf("republish failed: %w", err)
	}
	return d.rdb.XDel(ctx, DeadLetterStream, entryID).Err()
}

// Delete drops a dead letter without replaying it.
func (d *DeadLetterQueue) Delete(ctx context.Context, entryID string) error {
	return d.rdb.XDel(ctx, DeadLetterStream, entryID).Err()
}

// Count returns the dead letter backlog size.
func (d *DeadLetterQueue) Count(ctx context.Context) (int64, error) {
	return d.rdb.XLen(ctx, DeadLetterStream).Result()
}

func parseDeadLetter(msg redis.XMessage) DeadLetter {
	letter := DeadLetter{
		EntryID:      msg.ID,
		Notification: fromValues(msg.Values),
	}
	if v, ok := msg.Values["error"].(string); ok {
		letter.Error = v
	}
	if v, ok := msg.Values["retry_count"].(string); ok {
		letter.RetryCount, _ = strconv.Atoi(v)
	}
	if v, ok := msg.Values["dead_at"].(string); ok {
		ts, _ := strconv.ParseInt(v, 10, 64)
		letter.DeadAt = time.Unix(ts, 0)
	}
	return letter
}
