package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config holds Kafka producer settings.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	MaxAttempts  int
	// BatchTimeout bounds how long a synchronous write waits for a batch to
	// fill. kafka-go defaults to one second.
	BatchTimeout time.Duration
}

// Producer writes domain events to a single topic, keyed by event type.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a synchronous writer for cfg.Topic.
func NewProducer(cfg Config, logger *slog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: no topic configured")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.WriteTimeout,
		MaxAttempts:            cfg.MaxAttempts,
		BatchTimeout:           cfg.BatchTimeout,
		BatchSize:              1,
	}
	logger.Info("kafka producer configured", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &Producer{writer: w, logger: logger}, nil
}

// Publish writes body under routingKey, which doubles as the message key so
// events of one type keep their order within a partition.
func (p *Producer) Publish(ctx context.Context, routingKey string, body []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(routingKey),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(routingKey)},
		},
		Time: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("kafka: write %s: %w", routingKey, err)
	}
	p.logger.Debug("event published", "topic", p.writer.Topic, "key", routingKey)
	return nil
}

// Close flushes pending writes and releases connections.
func (p *Producer) Close() error {
	return p.writer.Close()
}
