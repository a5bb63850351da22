package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/cache"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/mq"
	"github.com/Domenick1991/travelbooking/internal/notify"
	"github.com/Domenick1991/travelbooking/internal/provider"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/datasets"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var datasetRepo repository.DatasetRepository
	if cfg.Database.Driver == config.DriverMemory {
		datasetRepo = repository.NewMemoryDatasetRepository()
	} else {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		if err := repository.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		datasetRepo = repository.NewDatasetRepository(pool)
	}

	source := provider.Source(provider.NewHTTPSource(cfg.Provider.URL, cfg.Provider.APIKey))
	if cfg.Provider.File != "" {
		source = provider.FileSource{Path: cfg.Provider.File}
	}
	fetcher := provider.NewFetcher(source, time.Duration(cfg.Provider.TimeoutSeconds)*time.Second)

	opts := []datasets.DatasetServiceOption{datasets.WithMaxRetained(cfg.Dataset.MaxRetained)}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Redis.SnapshotTTLSeconds)*time.Second)
		defer redisCache.Close()
		opts = append(opts, datasets.WithSnapshotCache(redisCache))
	}
	if cfg.Events.Broker == config.BrokerKafka && len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		opts = append(opts, datasets.WithEvents(producer, cfg.Kafka.DatasetTopic))
	}
	datasetService := datasets.NewDatasetService(datasetRepo, fetcher, opts...)

	notifier := notify.NewNotifier(notify.NewConsole())
	go consumeNotifications(ctx, cfg, notifier.Handle)

	refreshTicker := time.NewTicker(time.Duration(cfg.Worker.RefreshMinutes) * time.Minute)
	defer refreshTicker.Stop()

	_, _ = datasetService.Refresh(ctx)
	for {
		select {
		case <-refreshTicker.C:
			_, _ = datasetService.Refresh(ctx)
		case <-ctx.Done():
			log.Printf("[WORKER] shutting down")
			return
		}
	}
}

func consumeNotifications(ctx context.Context, cfg *config.Config, handle func(context.Context, domain.BookingEvent) error) {
	switch cfg.Events.Broker {
	case config.BrokerKafka:
		if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.NotificationsTopic == "" {
			return
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()
		if err := consumer.ConsumeBookingEvents(ctx, handle); err != nil {
			log.Printf("[WORKER] consumer stopped: %v", err)
		}
	case config.BrokerRabbitMQ:
		consumer, err := mq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.NotificationQueue, []string{cfg.Kafka.NotificationsTopic})
		if err != nil {
			log.Printf("[WORKER] rabbitmq consumer unavailable: %v", err)
			return
		}
		defer consumer.Close()
		if err := consumer.ConsumeBookingEvents(ctx, handle); err != nil {
			log.Printf("[WORKER] consumer stopped: %v", err)
		}
	}
}
