package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KindFunded is emitted after a contribution is recorded.
	KindFunded = "funded"
	// KindWithdrawn is emitted after the owner drains the contract.
	KindWithdrawn = "withdrawn"

	// DefaultChannel is the Redis channel events are published on.
	DefaultChannel = "fundme:events"
)

// Message describes a contract event.
type Message struct {
	Kind       string    `json:"kind"`
	Contract   string    `json:"contract"`
	Account    string    `json:"account"`
	AmountWei  string    `json:"amount_wei"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier delivers events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes events to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("contract event",
		slog.String("kind", message.Kind),
		slog.String("contract", message.Contract),
		slog.String("account", message.Account),
		slog.String("amount_wei", message.AmountWei),
		slog.String("detail", message.Detail),
	)
	return nil
}

// RedisNotifier publishes events as JSON on a Redis channel.
type RedisNotifier struct {
	cache   *redis.Client
	channel string
}

// NewRedisNotifier publishes on channel, or DefaultChannel when empty.
func NewRedisNotifier(cache *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{cache: cache, channel: channel}
}

// Send publishes the message.
func (n *RedisNotifier) Send(ctx context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.cache.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Fanout delivers to every notifier and returns the first error.
type Fanout []Notifier

// Send delivers message to all notifiers.
func (f Fanout) Send(ctx context.Context, message Message) error {
	var first error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}
