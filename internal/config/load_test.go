package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	require.NoError(t, os.Mkdir(tempConfigsSubDir, 0755))

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\n",
		"portal-api-test", 9090, "debug", "kafka1:9092",
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	require.NoError(t, os.WriteFile(envFilePath, []byte(envContent), 0644))

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Values from the file win over defaults
	assert.Equal(t, "portal-api-test", cfg.Application.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "kafka1:9092", cfg.Kafka.Brokers)

	// Everything else falls back to defaults
	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "backfill_requests", cfg.Kafka.BackfillTopic)
	assert.Equal(t, "backfill_requests_dlq", cfg.Kafka.DLQTopic)
	assert.Equal(t, "migrations/postgres", cfg.Postgres.MigrationsPath)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, 5, cfg.Outbox.MaxRetryAttempts)
	assert.Equal(t, 10, cfg.WorkerPool.Size)

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	assert.Equal(t, "portal-api-test", cfgWithName.Application.Name)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test_defaults")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("does_not_exist")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "billing-worker-group", cfg.Kafka.ConsumerGroup)
}

func TestConfig_Validate_DefaultsAreValid(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{
		Application: ApplicationConfig{Env: v.GetString("APP_ENV"), Name: v.GetString("APP_NAME")},
		Logging:     LoggingConfig{Level: v.GetString("LOG_LEVEL")},
		Server:      serverConfig(v),
		Kafka:       kafkaConfig(v),
		Postgres:    postgresConfig(v),
		MongoDB:     mongoConfig(v),
		Outbox:      outboxConfig(v),
		WorkerPool:  WorkerPoolConfig{Size: v.GetInt("WORKER_POOL_SIZE")},
	}

	assert.NoError(t, cfg.validate())
}

func TestConfig_Validate_ReportsEveryFailure(t *testing.T) {
	cfg := &Config{}

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT must be greater than 0")
	assert.Contains(t, err.Error(), "KAFKA_BACKFILL_TOPIC is required")
	assert.Contains(t, err.Error(), "POSTGRES_URL is required")
	assert.Contains(t, err.Error(), "MONGO_URI is required")
	assert.Contains(t, err.Error(), "OUTBOX_BATCH_SIZE must be greater than 0")
	assert.Contains(t, err.Error(), "WORKER_POOL_SIZE must be greater than 0")
}
