package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  port: 5432
  user: travel
  name: travel
  ssl_mode: disable
kafka:
  brokers: ["localhost:9092"]
  booking_topic: bookings
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, BrokerKafka, cfg.Events.Broker)
	assert.Equal(t, 15, cfg.Dataset.MaxRetained)
	assert.Equal(t, 10, cfg.Provider.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Worker.RefreshMinutes)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "host=localhost port=5432 user=travel password= dbname=travel sslmode=disable", cfg.Database.DSN())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  host: localhost
dataset:
  max_retained: 20
`)
	t.Setenv("APP_DATABASE_HOST", "db.internal")
	t.Setenv("APP_DATABASE_DRIVER", "memory")
	t.Setenv("APP_DATASET_MAX_RETAINED", "3")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Dataset.MaxRetained)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, "database: [not a map")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
