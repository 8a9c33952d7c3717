package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"CONNECTION_STR", "DB_MAX_CONNS", "DB_MAX_IDLE", "OBO_DATA_FOLDER", "OBO_URL_TEMPLATE",
		"OBO_NAMES", "OBO_CATALOG", "FETCH_TIMEOUT", "FETCH_RETRY_COUNT", "PARSE_TIMEOUT",
		"BULK_BATCH_SIZE", "NOTIFY_BACKEND", "NOTIFY_STREAM", "NOTIFY_TOPIC",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "MQTT_BROKER", "MQTT_CLIENT_ID",
		"MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_QOS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite:///"+filepath.Join(home, ".biokb", "biokb.db"), cfg.Database.ConnectionString)
	assert.Equal(t, filepath.Join(home, ".biokb", "obo", "data"), cfg.Fetcher.DataFolder)
	assert.Equal(t, DefaultURLTemplate, cfg.Fetcher.URLTemplate)
	assert.Equal(t, 10*time.Minute, cfg.Fetcher.Timeout)
	assert.Equal(t, 0, cfg.Fetcher.RetryCount)
	assert.Equal(t, 30*time.Minute, cfg.Import.ParseTimeout)
	assert.Equal(t, 500, cfg.Import.BatchSize)
	assert.Empty(t, cfg.Import.Ontologies)
	assert.Equal(t, "none", cfg.Notify.Backend)
	assert.Equal(t, "localhost:6379", cfg.Notify.Redis.Addr)
	assert.Equal(t, 0, cfg.Notify.Redis.DB)
	assert.Equal(t, "biokb-obo", cfg.Notify.MQTT.ClientID)
	assert.Equal(t, byte(1), cfg.Notify.MQTT.QoS)
	assert.Equal(t, zapcore.InfoLevel, cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONNECTION_STR", "postgres://obo:obo@db:5432/biokb?sslmode=disable")
	t.Setenv("OBO_NAMES", "doid, go,,hp ")
	t.Setenv("FETCH_TIMEOUT", "45s")
	t.Setenv("FETCH_RETRY_COUNT", "2")
	t.Setenv("BULK_BATCH_SIZE", "100")
	t.Setenv("NOTIFY_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://obo:obo@db:5432/biokb?sslmode=disable", cfg.Database.ConnectionString)
	assert.Equal(t, []string{"doid", "go", "hp"}, cfg.Import.Ontologies)
	assert.Equal(t, 45*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 2, cfg.Fetcher.RetryCount)
	assert.Equal(t, 100, cfg.Import.BatchSize)
	assert.Equal(t, "redis", cfg.Notify.Backend)
	assert.Equal(t, "redis:6380", cfg.Notify.Redis.Addr)
	assert.Equal(t, 3, cfg.Notify.Redis.DB)
	assert.Equal(t, byte(2), cfg.Notify.MQTT.QoS)
	assert.Equal(t, zapcore.DebugLevel, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("FETCH_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")

	invalid := map[string]string{
		"NOTIFY_BACKEND": "kafka",
		"REDIS_DB":       "one",
		"MQTT_QOS":       "3",
		"LOG_LEVEL":      "verbose",
		"LOG_FORMAT":     "xml",
	}
	for key, value := range invalid {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
