package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPrimaryURL, cfg.PrimaryURL)
	assert.Equal(t, DefaultInterpURL, cfg.InterpURL)
	assert.Equal(t, DefaultAlternateURL, cfg.AlternateURL)
	assert.Equal(t, "data/atcf", cfg.CacheDir)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.InsecureTLS)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "111111", cfg.Regions.String())
	assert.Equal(t, "data/ibtracs.db", cfg.BestTrackDBPath)
	assert.Equal(t, DefaultBestTrackURL, cfg.BestTrackBaseURL)
	assert.Equal(t, 256, cfg.BestTrackCacheSize)
	assert.Equal(t, "data/record.json", cfg.RecordFile)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "active-storms", cfg.KafkaSinkTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("ATCF_PRIMARY_URL", "http://feed.test/sector")
	t.Setenv("ATCF_INTERP_URL", "http://feed.test/interp")
	t.Setenv("ATCF_ALT_URL", "http://mirror.test/v2")
	t.Setenv("ATCF_CACHE_DIR", "/var/cache/atcf")
	t.Setenv("ATCF_FETCH_TIMEOUT", "3s")
	t.Setenv("ATCF_INSECURE_TLS", "false")
	t.Setenv("ATCF_REGIONS", "100100")
	t.Setenv("REFRESH_INTERVAL", "90s")
	t.Setenv("BESTTRACK_DB_PATH", "/tmp/bt.db")
	t.Setenv("BESTTRACK_CACHE_SIZE", "32")
	t.Setenv("RECORD_FILE", "/tmp/record.json")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://feed.test/sector", cfg.PrimaryURL)
	assert.Equal(t, "http://feed.test/interp", cfg.InterpURL)
	assert.Equal(t, "http://mirror.test/v2", cfg.AlternateURL)
	assert.Equal(t, "/var/cache/atcf", cfg.CacheDir)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.InsecureTLS)
	assert.True(t, cfg.Regions.Allows(domain.BasinAtlantic))
	assert.True(t, cfg.Regions.Allows(domain.BasinWestPacific))
	assert.False(t, cfg.Regions.Allows(domain.BasinEastPacific))
	assert.Equal(t, 90*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "/tmp/bt.db", cfg.BestTrackDBPath)
	assert.Equal(t, 32, cfg.BestTrackCacheSize)
	assert.Equal(t, "/tmp/record.json", cfg.RecordFile)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("ATCF_FETCH_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ATCF_FETCH_TIMEOUT")
}

func TestLoad_NegativeRefreshInterval(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_InvalidRegions(t *testing.T) {
	t.Setenv("ATCF_REGIONS", "12")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ATCF_REGIONS")
}

func TestLoad_BadCacheSizeFallsBackToDefault(t *testing.T) {
	t.Setenv("BESTTRACK_CACHE_SIZE", "-4")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.BestTrackCacheSize)
}
