package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
)

// Default feed locations.
const (
	DefaultPrimaryURL   = "https://www.nrlmry.navy.mil/tcdat/sectors/atcf_sector_file"
	DefaultInterpURL    = "https://www.nrlmry.navy.mil/tcdat/sectors/interp_sector_file"
	DefaultAlternateURL = "https://api.knackwx.com/atcf/v2"
	DefaultBestTrackURL = "https://www.ncei.noaa.gov/data/international-best-track-archive-for-climate-stewardship-ibtracs/v04r01/access/csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// ATCF feeds.
	PrimaryURL      string
	InterpURL       string
	AlternateURL    string
	CacheDir        string
	FetchTimeout    time.Duration
	InsecureTLS     bool
	RefreshInterval time.Duration
	Regions         domain.BasinMask

	// Best-track archive.
	BestTrackDBPath    string
	BestTrackBaseURL   string
	BestTrackCacheSize int

	RecordFile string

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("ATCF_FETCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	regions, ok := domain.ParseBasinMask(sharedcfg.EnvOrDefault("ATCF_REGIONS", "111111"))
	if !ok {
		return nil, errors.New("invalid ATCF_REGIONS: want six 0/1 flags")
	}

	cfg := &Config{
		PrimaryURL:      sharedcfg.EnvOrDefault("ATCF_PRIMARY_URL", DefaultPrimaryURL),
		InterpURL:       sharedcfg.EnvOrDefault("ATCF_INTERP_URL", DefaultInterpURL),
		AlternateURL:    sharedcfg.EnvOrDefault("ATCF_ALT_URL", DefaultAlternateURL),
		CacheDir:        sharedcfg.EnvOrDefault("ATCF_CACHE_DIR", "data/atcf"),
		FetchTimeout:    fetchTimeout,
		InsecureTLS:     parseBool("ATCF_INSECURE_TLS", true),
		RefreshInterval: refreshInterval,
		Regions:         regions,

		BestTrackDBPath:    sharedcfg.EnvOrDefault("BESTTRACK_DB_PATH", "data/ibtracs.db"),
		BestTrackBaseURL:   sharedcfg.EnvOrDefault("BESTTRACK_BASE_URL", DefaultBestTrackURL),
		BestTrackCacheSize: parsePositiveInt("BESTTRACK_CACHE_SIZE", 256),

		RecordFile: sharedcfg.EnvOrDefault("RECORD_FILE", "data/record.json"),

		KafkaEnabled:   parseBool("KAFKA_ENABLED", false),
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "active-storms"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.PrimaryURL == "" && cfg.AlternateURL == "" {
		return nil, errors.New("at least one of ATCF_PRIMARY_URL or ATCF_ALT_URL is required")
	}
	if cfg.PrimaryURL != "" && cfg.InterpURL == "" {
		return nil, errors.New("ATCF_INTERP_URL is required when ATCF_PRIMARY_URL is set")
	}
	if cfg.CacheDir == "" {
		return nil, errors.New("ATCF_CACHE_DIR is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, def bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return def
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
