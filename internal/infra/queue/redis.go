package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	fieldData        = "data"
	fieldOrderingKey = "orderingKey"
)

// RedisAPI is the subset of *redis.Client used by Redis.
type RedisAPI interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	Close() error
}

// RedisOptions configures a Redis Streams queue.
type RedisOptions struct {
	Stream   string
	Group    string
	Consumer string
	Count    int64
	Block    time.Duration
	// Reclaim is how often the pending list is walked again. Entries idle
	// for longer than Reclaim in other consumers are claimed first.
	Reclaim time.Duration
}

// Redis publishes with XADD and consumes through a consumer group. Entries
// are acknowledged with XACK after the handler succeeds. Entries left
// pending by a failed handler are retried on the next pending walk.
type Redis struct {
	client RedisAPI
	opts   RedisOptions
}

// NewRedis creates a Redis Streams queue.
func NewRedis(client RedisAPI, opts RedisOptions) (*Redis, error) {
	if opts.Stream == "" {
		return nil, errors.New("redis queue: stream name is required")
	}
	if opts.Group == "" {
		opts.Group = "question-bank"
	}
	if opts.Consumer == "" {
		opts.Consumer = "worker-1"
	}
	if opts.Count <= 0 {
		opts.Count = 10
	}
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	if opts.Reclaim <= 0 {
		opts.Reclaim = 30 * time.Second
	}
	return &Redis{client: client, opts: opts}, nil
}

func (q *Redis) Publish(ctx context.Context, m Message) (string, error) {
	body, err := encode(m, time.Now())
	if err != nil {
		return "", err
	}

	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.opts.Stream,
		Values: map[string]interface{}{
			fieldData:        string(body),
			fieldOrderingKey: m.OrderingKey,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add to stream %s: %w", q.opts.Stream, err)
	}
	return id, nil
}

// Run walks this consumer's pending entries by id, then reads new ones.
// Every Reclaim interval it claims idle entries and walks the pending list
// again. After an entry fails, later entries with the same ordering key are
// left pending until the next walk.
func (q *Redis) Run(ctx context.Context, h Handler) error {
	err := q.client.XGroupCreateMkStream(ctx, q.opts.Stream, q.opts.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	start := "0"
	blocked := map[string]bool{}
	walked := time.Now()
	for {
		if start == ">" && time.Since(walked) >= q.opts.Reclaim {
			q.claimIdle(ctx)
			start = "0"
			blocked = map[string]bool{}
			walked = time.Now()
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.opts.Group,
			Consumer: q.opts.Consumer,
			Streams:  []string{q.opts.Stream, start},
			Count:    q.opts.Count,
			Block:    q.opts.Block,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			slog.Error("redis read failed", "stream", q.opts.Stream, "error", err)
			if err := sleep(ctx, time.Second); err != nil {
				return err
			}
			continue
		}

		received := 0
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				received++
				if start != ">" {
					start = msg.ID
				}
				key, _ := msg.Values[fieldOrderingKey].(string)
				if key != "" && blocked[key] {
					slog.Debug("redis entry deferred", "id", msg.ID, "orderingKey", key)
					continue
				}
				if !q.handle(ctx, msg, h) && key != "" {
					blocked[key] = true
				}
			}
		}
		if start != ">" && received == 0 {
			start = ">"
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// claimIdle moves entries idle longer than Reclaim to this consumer.
func (q *Redis) claimIdle(ctx context.Context) {
	cursor := "0-0"
	for {
		msgs, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   q.opts.Stream,
			Group:    q.opts.Group,
			Consumer: q.opts.Consumer,
			MinIdle:  q.opts.Reclaim,
			Start:    cursor,
			Count:    q.opts.Count,
		}).Result()
		if err != nil {
			slog.Error("redis claim failed", "stream", q.opts.Stream, "error", err)
			return
		}
		if len(msgs) > 0 {
			slog.Info("redis entries claimed", "stream", q.opts.Stream, "count", len(msgs))
		}
		if next == "" || next == "0-0" {
			return
		}
		cursor = next
	}
}

// handle reports whether msg was acknowledged.
func (q *Redis) handle(ctx context.Context, msg redis.XMessage, h Handler) bool {
	data, _ := msg.Values[fieldData].(string)
	key, _ := msg.Values[fieldOrderingKey].(string)

	env, err := decode([]byte(data))
	if err != nil {
		slog.Error("redis entry dropped", "id", msg.ID, "error", err)
		return q.ack(ctx, msg.ID)
	}

	if err := h(ctx, Delivery{ID: msg.ID, OrderingKey: key, Envelope: env}); err != nil {
		slog.Warn("redis entry not acknowledged", "id", msg.ID, "eventType", env.EventType, "error", err)
		return false
	}
	return q.ack(ctx, msg.ID)
}

func (q *Redis) ack(ctx context.Context, id string) bool {
	if err := q.client.XAck(ctx, q.opts.Stream, q.opts.Group, id).Err(); err != nil {
		slog.Error("redis ack failed", "id", id, "error", err)
		return false
	}
	return true
}

func (q *Redis) Close() error {
	return q.client.Close()
}
