package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/Domenick1991/travelbooking/internal/cache"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/mq"
	"github.com/Domenick1991/travelbooking/internal/provider"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/service/datasets"
	"github.com/Domenick1991/travelbooking/internal/service/search"
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

	datasetRepo, bookingRepo, closeStore := openStore(ctx, cfg.Database)
	defer closeStore()

	producer, closeProducer := openProducer(cfg)
	defer closeProducer()

	fetcher := provider.NewFetcher(newSource(cfg.Provider), time.Duration(cfg.Provider.TimeoutSeconds)*time.Second)

	opts := []datasets.DatasetServiceOption{datasets.WithMaxRetained(cfg.Dataset.MaxRetained)}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Redis.SnapshotTTLSeconds)*time.Second)
		defer redisCache.Close()
		opts = append(opts, datasets.WithSnapshotCache(redisCache))
	}
	if producer != nil {
		opts = append(opts, datasets.WithEvents(producer, cfg.Kafka.DatasetTopic))
	}
	datasetService := datasets.NewDatasetService(datasetRepo, fetcher, opts...)

	var bookingProducer booking.Producer
	if producer != nil {
		bookingProducer = producer
	}
	bookingService := booking.NewBookingService(
		bookingRepo,
		datasetService,
		bookingProducer,
		cfg.Kafka.BookingTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, bootstrap.Services{
		Datasets: datasetService,
		Search:   search.NewSearchService(datasetService),
		Bookings: bookingService,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.DatasetRepository, repository.BookingRepository, func()) {
	if cfg.Driver == config.DriverMemory {
		log.Printf("[APP] storage=memory")
		return repository.NewMemoryDatasetRepository(), repository.NewMemoryBookingRepository(), func() {}
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("[APP] storage=postgres host=%s db=%s", cfg.Host, cfg.Name)
	return repository.NewDatasetRepository(pool), repository.NewBookingRepository(pool), pool.Close
}

// eventProducer is satisfied by both the Kafka and the RabbitMQ publisher.
type eventProducer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// openProducer returns nil when events are disabled or the broker is not
// reachable at startup.
func openProducer(cfg *config.Config) (eventProducer, func()) {
	switch cfg.Events.Broker {
	case config.BrokerKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, func() {}
		}
		p := kafka.NewProducer(cfg.Kafka.Brokers)
		return p, func() { _ = p.Close() }
	case config.BrokerRabbitMQ:
		p, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Printf("[APP] WARNING: rabbitmq unavailable, events disabled: %v", err)
			return nil, func() {}
		}
		return p, func() { _ = p.Close() }
	default:
		return nil, func() {}
	}
}

func newSource(cfg config.ProviderConfig) provider.Source {
	if cfg.File != "" {
		return provider.FileSource{Path: cfg.File}
	}
	return provider.NewHTTPSource(cfg.URL, cfg.APIKey)
}
