package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. APP_DATABASE_HOST.
const EnvPrefix = "APP"

type Config struct {
	HTTP     HTTPConfig     `yaml:"http" split_words:"true"`
	Database DatabaseConfig `yaml:"database" split_words:"true"`
	Redis    RedisConfig    `yaml:"redis" split_words:"true"`
	Kafka    KafkaConfig    `yaml:"kafka" split_words:"true"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq" split_words:"true"`
	Events   EventsConfig   `yaml:"events" split_words:"true"`
	Provider ProviderConfig `yaml:"provider" split_words:"true"`
	Dataset  DatasetConfig  `yaml:"dataset" split_words:"true"`
	Worker   WorkerConfig   `yaml:"worker" split_words:"true"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" split_words:"true"`
	SwaggerDir     string   `yaml:"swagger_dir" split_words:"true"`
	AllowedOrigins []string `yaml:"allowed_origins" split_words:"true"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver" split_words:"true"`
	Host     string `yaml:"host" split_words:"true"`
	Port     int    `yaml:"port" split_words:"true"`
	User     string `yaml:"user" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	Name     string `yaml:"name" split_words:"true"`
	SSLMode  string `yaml:"ssl_mode" split_words:"true"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	DB       int    `yaml:"db" split_words:"true"`
	// SnapshotTTLSeconds bounds how long a dataset snapshot stays in Redis.
	SnapshotTTLSeconds int `yaml:"snapshot_ttl_seconds" split_words:"true"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" split_words:"true"`
	DatasetTopic       string   `yaml:"dataset_topic" split_words:"true"`
	BookingTopic       string   `yaml:"booking_topic" split_words:"true"`
	NotificationsTopic string   `yaml:"notifications_topic" split_words:"true"`
	GroupID            string   `yaml:"group_id" split_words:"true"`
}

type RabbitMQConfig struct {
	URL               string `yaml:"url" split_words:"true"`
	Exchange          string `yaml:"exchange" split_words:"true"`
	NotificationQueue string `yaml:"notification_queue" split_words:"true"`
}

const (
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
	BrokerNone     = "none"
)

type EventsConfig struct {
	Broker string `yaml:"broker" split_words:"true"`
}

type ProviderConfig struct {
	// URL of the upstream schedule endpoint. File is used instead when set.
	URL            string `yaml:"url" split_words:"true"`
	File           string `yaml:"file" split_words:"true"`
	APIKey         string `yaml:"api_key" split_words:"true"`
	TimeoutSeconds int    `yaml:"timeout_seconds" split_words:"true"`
}

type DatasetConfig struct {
	MaxRetained int `yaml:"max_retained" split_words:"true"`
}

type WorkerConfig struct {
	RefreshMinutes int `yaml:"refresh_minutes" split_words:"true"`
}

// LoadConfig reads the YAML file at path, then applies APP_* environment
// overrides. A .env file in the working directory is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Events.Broker == "" {
		c.Events.Broker = BrokerKafka
	}
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = 10
	}
	if c.Dataset.MaxRetained <= 0 {
		c.Dataset.MaxRetained = 15
	}
	if c.Worker.RefreshMinutes <= 0 {
		c.Worker.RefreshMinutes = 5
	}
	if c.Redis.SnapshotTTLSeconds <= 0 {
		c.Redis.SnapshotTTLSeconds = 3600
	}
}
