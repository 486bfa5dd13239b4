package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/hireside/marketplace-api/internal/email"
	"github.com/hireside/marketplace-api/internal/repository/postgres"
	"github.com/hireside/marketplace-api/internal/service/notification"
	"github.com/hireside/marketplace-api/pkg/logger"
	"github.com/hireside/marketplace-api/pkg/messaging"
	"github.com/hireside/marketplace-api/pkg/messaging/redis"
	"github.com/hireside/marketplace-api/pkg/metrics"
	"github.com/hireside/marketplace-api/pkg/worker"
)

// Config is read from the environment; the worker carries no config
// file so it can run as a sidecar with nothing but env vars.
type Config struct {
	DatabaseURL  string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL     string        `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	MaxRetries   int           `envconfig:"OUTBOX_MAX_RETRIES" default:"3"`
	RetryDelay   time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"5s"`
	RetentionAge time.Duration `envconfig:"OUTBOX_RETENTION_AGE" default:"168h"`
	HealthAddr   string        `envconfig:"HEALTH_ADDR" default:":8081"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM"`
}

func main() {
	appLogger := logger.NewLogger(nil)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		appLogger.Fatal(err, "failed to load config")
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &log.Logger)
	if err != nil {
		appLogger.Fatal(err, "failed to create redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	m := metrics.NewMetrics("marketplace_worker")

	var emailSender notification.EmailSender
	if cfg.SMTPHost != "" {
		emailSender = email.NewService(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	dispatcher := notification.NewDispatcher(
		notification.NewService(notificationRepo),
		userRepo,
		emailSender,
		m,
		appLogger,
	)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
		RetentionAge: cfg.RetentionAge,
	}, appLogger, m)

	setupHealthCheck(cfg.HealthAddr, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down worker")
		cancel()
	}()

	go consumeEvents(ctx, broker, dispatcher, appLogger)

	processor.Start(ctx)
}

// consumeEvents turns published domain events into notifications. A
// failed dispatch is only logged: the idempotent notification writes
// mean the event can be re-driven from the outbox without duplicates.
func consumeEvents(ctx context.Context, broker messaging.Broker, dispatcher *notification.Dispatcher, appLogger *logger.Logger) {
	messages, err := broker.Subscribe(ctx, "events")
	if err != nil {
		appLogger.Fatal(err, "failed to subscribe to events channel")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-messages:
			if !ok {
				return
			}

			var msg messaging.Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				appLogger.Error(err, "failed to unmarshal message")
				continue
			}

			if err := dispatcher.Dispatch(ctx, msg.Type, msg.Payload); err != nil {
				appLogger.Error(err, "failed to dispatch event", "event_type", msg.Type)
			}
		}
	}
}

func setupHealthCheck(addr string, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			appLogger.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}
