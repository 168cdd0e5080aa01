package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-data-atcf/internal/adapter/atcfhttp"
	httpadapter "github.com/couchcryptid/storm-data-atcf/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-data-atcf/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-atcf/internal/besttrack"
	"github.com/couchcryptid/storm-data-atcf/internal/config"
	"github.com/couchcryptid/storm-data-atcf/internal/feed"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
	"github.com/couchcryptid/storm-data-atcf/internal/pipeline"
	"github.com/couchcryptid/storm-data-atcf/internal/record"
	"github.com/couchcryptid/storm-data-atcf/internal/table"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := atcfhttp.NewClient(atcfhttp.Options{Timeout: cfg.FetchTimeout, InsecureSkipVerify: cfg.InsecureTLS}, logger)
	loader := feed.NewLoader(table.New(), feed.NewCache(cfg.CacheDir), client, feed.Sources{
		PrimaryURL:   cfg.PrimaryURL,
		InterpURL:    cfg.InterpURL,
		AlternateURL: cfg.AlternateURL,
	}, logger, metrics)

	var store record.Store = record.NewMemoryStore()
	if cfg.RecordFile != "" {
		store = record.NewFileStore(cfg.RecordFile)
	}
	tracker := record.NewTracker(store, logger, metrics)

	db, err := besttrack.Open(cfg.BestTrackDBPath)
	if err != nil {
		logger.Error("failed to open best-track archive", "error", err, "path", cfg.BestTrackDBPath)
		os.Exit(1)
	}
	archive := besttrack.NewCachedArchive(besttrack.NewArchive(db, logger), cfg.BestTrackCacheSize, metrics)

	// Publishing is feature-flagged via KAFKA_ENABLED.
	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(loader, tracker, publisher, clockwork.NewRealClock(), logger, metrics,
		pipeline.Options{Interval: cfg.RefreshInterval})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, httpadapter.API{
		Storms:    p,
		Live:      loader.Table(),
		BestTrack: archive,
		Records:   tracker,
		Regions:   cfg.Regions,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("best-track db close error", "error", err)
	}

	logger.Info("shutdown complete")
}
