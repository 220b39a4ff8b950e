package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streadway/amqp"

	"marketplace/internal/app"
	"marketplace/internal/config"
	"marketplace/internal/logging"
	"marketplace/internal/repositories"
	"marketplace/internal/search"
	"marketplace/internal/services"
	"marketplace/pkg/kafka"
	"marketplace/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		slog.Error("marketplace stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	store, err := repositories.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("error closing store", "error", err)
		}
	}()

	// --- Events ---
	events, closeEvents, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEvents.Close(); err != nil {
			logger.Error("error closing event publisher", "error", err)
		}
	}()

	// --- Search ---
	index, err := newIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}

	deps := app.Deps{Config: cfg, Store: store, Events: events, Logger: logger}
	if index != nil {
		deps.Index = index
	}
	server := app.New(deps)

	// --- Start HTTP Server ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.AppPort, "store", store.Driver, "events", cfg.EventsDriver)
		errCh <- server.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during fiber shutdown", "error", err)
	}
	logger.Info("server gracefully stopped")
	return nil
}

// newPublisher builds the event publisher selected by EVENTS_DRIVER. The
// returned closer is always non-nil.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.EventPublisher, io.Closer, error) {
	switch cfg.EventsDriver {
	case config.EventsRabbitMQ:
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init rabbitmq: %w", err)
		}
		if err := client.Consume(ctx, logEvent(logger)); err != nil {
			logger.Warn("event consumer not started", "error", err)
		}
		return client, client, nil
	case config.EventsKafka:
		producer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init kafka: %w", err)
		}
		return producer, producer, nil
	default:
		return services.NopPublisher{}, nopCloser{}, nil
	}
}

// newIndex connects the product search index when ES_URL is set. A nil
// index means keyword search runs against the store.
func newIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*search.ProductIndex, error) {
	if cfg.ESURL == "" {
		return nil, nil
	}
	client, err := search.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch: %w", err)
	}
	index := search.NewProductIndex(client, cfg.ESIndex, logger)
	if err := index.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return index, nil
}

// logEvent records every event delivered from the marketplace queue.
func logEvent(logger *slog.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.Event
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			// Undecodable bodies would be redelivered forever.
			logger.Warn("dropping malformed event", "delivery_tag", msg.DeliveryTag, "error", err)
			return nil
		}
		logger.Info("event received", "type", event.Type, "routing_key", msg.RoutingKey, "occurred_at", event.OccurredAt)
		return nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
