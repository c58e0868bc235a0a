package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/vaidashi/pool-dealer-portal/internal/api"
	"github.com/vaidashi/pool-dealer-portal/internal/config"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/handlers"
	"github.com/vaidashi/pool-dealer-portal/internal/mailer"
	"github.com/vaidashi/pool-dealer-portal/internal/metrics"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/outbox"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/internal/session"
	"github.com/vaidashi/pool-dealer-portal/internal/storage"
	"github.com/vaidashi/pool-dealer-portal/pkg/kafka"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var eventTypes = []string{
	models.EventOrderCreated,
	models.EventOrderStatusChanged,
	models.EventDealerApproved,
	models.EventDealerRevoked,
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.NewLogger(cfg.LogLevel)
	l.Info("Starting dealer portal...", "env", cfg.Env)

	if err := run(cfg, l); err != nil {
		l.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	l.Info("Server exiting")
}

func run(cfg *config.Config, l logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	db, err := database.New(cfg, l)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return err
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeSessions()

	store, err := storage.New(cfg.Storage, l)
	if err != nil {
		return err
	}

	svc := api.BuildServices(db, store, sessions, l)
	if _, err := svc.Auth.BootstrapAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
		return err
	}

	m := mailer.New(cfg.SMTP, l)
	emails := handlers.NewEmailHandler(repository.NewDealerRepository(db, l), m, cfg.PortalURL, l)

	processor := outbox.NewProcessor(repository.NewOutboxRepository(db, l), outbox.ProcessorConfig{
		PollingInterval: cfg.Outbox.PollingInterval,
		BatchSize:       cfg.Outbox.BatchSize,
		MaxRetries:      cfg.Outbox.MaxRetries,
	}, l)

	opts := api.Options{}
	if guarded, ok := m.(*mailer.Guarded); ok {
		opts.MailBreaker = guarded.Breaker()
	}
	if local, ok := store.(*storage.LocalStore); ok {
		opts.UploadsDir = local.Dir()
	}
	server := api.NewServer(cfg, db, svc, opts, l)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, l)
		if err != nil {
			return err
		}
		defer producer.Close()

		relay := outbox.NewKafkaHandler(producer, cfg.Kafka.OrdersTopic, l)
		for _, eventType := range eventTypes {
			processor.RegisterHandler(eventType, relay)
		}

		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topics:        []string{cfg.Kafka.OrdersTopic},
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
		}, l)
		if err != nil {
			return err
		}
		consumer.RegisterHandler(cfg.Kafka.OrdersTopic, emails)
		g.Go(func() error { return consumer.Run(ctx) })
	} else {
		l.Info("Kafka disabled, outbox events are mailed directly")
		direct := outbox.NewDirectHandler(emails, l)
		for _, eventType := range eventTypes {
			processor.RegisterHandler(eventType, direct)
		}
	}

	g.Go(func() error { return processor.Run(ctx) })
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		l.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newSessionStore uses Redis when REDIS_ADDR is set and process memory otherwise
func newSessionStore(ctx context.Context, cfg *config.Config, l logger.Logger) (session.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		l.Warn("REDIS_ADDR not set, sessions are kept in memory")
		return session.NewMemoryStore(cfg.Auth.SessionTTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	l.Info("Connected to Redis", "addr", cfg.Redis.Addr)
	return session.NewRedisStore(rdb, cfg.Auth.SessionTTL), func() { _ = rdb.Close() }, nil
}
