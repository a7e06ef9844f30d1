// Package kafka carries the service's two event streams over
// segmentio/kafka-go: corpus-update notifications that trigger a reload,
// and search analytics. Producers write JSON; consumers hand raw message
// values to a MessageHandler.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

// MessageHandler processes one message value. A returned error makes the
// consumer retry the message with backoff.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// messageReader is the part of *kafka.Reader the consume loop uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     messageReader
	handler    MessageHandler
	retry      resilience.RetryConfig
	fetchDelay time.Duration
	logger     *slog.Logger
}

// NewConsumer creates a Consumer for topic in consumer group groupID, or
// cfg.ConsumerGroup when groupID is empty. Instances that must each see
// every message, such as searchers reacting to corpus updates, need
// distinct group IDs.
func NewConsumer(cfg config.KafkaConfig, topic, groupID string, handler MessageHandler) *Consumer {
	if groupID == "" {
		groupID = cfg.ConsumerGroup
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.LastOffset,
	})
	return newConsumer(r, handler,
		slog.Default().With("component", "kafka-consumer", "topic", topic, "group", groupID))
}

// InstanceGroupID returns a consumer group owned by this process alone,
// built from base, role, hostname and pid. Streams that every instance
// must read in full use it instead of the shared group.
func InstanceGroupID(base, role string) (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolving hostname for %s group: %w", role, err)
	}
	return fmt.Sprintf("%s-%s-%s-%d", base, role, host, os.Getpid()), nil
}

func newConsumer(r messageReader, handler MessageHandler, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:  r,
		handler: handler,
		retry: resilience.RetryConfig{
			MaxAttempts:  5,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
		},
		fetchDelay: time.Second,
		logger:     logger,
	}
}

// Start consumes until ctx is cancelled. A message whose handler still
// fails after the retry budget is logged and committed so one bad event
// cannot stall the partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			select {
			case <-time.After(c.fetchDelay):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		c.process(ctx, msg)
		if ctx.Err() != nil {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("message received",
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
		"value_size", len(msg.Value),
	)
	err := resilience.Retry(ctx, "kafka-handler", c.retry, func(ctx context.Context) error {
		return c.handler(ctx, msg.Key, msg.Value)
	})
	if err != nil && ctx.Err() == nil {
		c.logger.Error("dropping message after failed retries",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
