package notify

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evahub/eva-gateway/internal/logging"
)

const maxRetries = 3

// Handler delivers one notification. A non-nil error triggers a retry.
type Handler func(ctx context.Context, n Notification) error

// Consumer reads the notification stream in a consumer group and pushes
// entries through the handler. Failed entries are retried and eventually
// parked in the dead letter stream.
type Consumer struct {
	rdb      *redis.Client
	group    string
	consumer string
	handler  Handler
	log      *slog.Logger

	retries map[string]int
}

func NewConsumer(rdb *redis.Client, group, consumer string, handler Handler) *Consumer {
	return &Consumer{
		rdb:      rdb,
		group:    group,
		consumer: consumer,
		handler:  handler,
		log:      logging.WithComponent("notify"),
		retries:  map[string]int{},
	}
}

// Start runs the read loop until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	// group may already exist, that's fine
	c.rdb.XGroupCreateMkStream(ctx, Stream, c.group, "0")
	go c.readLoop(ctx)
}

func (c *Consumer) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{Stream, ">"},
			Count:    10,
			Block:    time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			c.log.Error("stream read failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, result := range results {
			for _, msg := range result.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	n := fromValues(msg.Values)

	if err := c.handler(ctx, n); err != nil {
		// retries are tracked by notification ID, which survives requeueing
		c.retries[n.ID]++
		count := c.retries[n.ID]
		if count < maxRetries {
			c.log.Error("delivery failed, will retry",
				"id", n.ID, "user", n.UserID, "attempt", count, "error", err)
			c.rdb.XAdd(ctx, &redis.XAddArgs{Stream: Stream, Values: msg.Values})
			c.rdb.XAck(ctx, Stream, c.group, msg.ID)
			return
		}

		c.log.Error("delivery failed permanently, dead lettering",
			"id", n.ID, "user", n.UserID, "error", err)
		values := msg.Values
		values["error"] = err.Error()
		values["retry_count"] = strconv.Itoa(count)
		values["dead_at"] = strconv.FormatInt(time.Now().Unix(), 10)
		c.rdb.XAdd(ctx, &redis.XAddArgs{Stream: DeadLetterStream, Values: values})
		c.rdb.XAck(ctx, Stream, c.group, msg.ID)
		delete(c.retries, n.ID)
		return
	}

	c.rdb.XAck(ctx, Stream, c.group, msg.ID)
	delete(c.retries, n.ID)
}
