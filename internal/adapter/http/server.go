package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-data-atcf/internal/besttrack"
	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/pipeline"
	"github.com/couchcryptid/storm-data-atcf/internal/record"
)

// SnapshotSource returns the latest classified storms.
type SnapshotSource interface {
	Latest() (pipeline.Snapshot, bool)
}

// RecordSource returns the strongest storm on record.
type RecordSource interface {
	Current(ctx context.Context) (record.Record, bool, error)
}

// StormFinder looks up one storm in the live table.
type StormFinder interface {
	Find(name, id string) (domain.StormRecord, bool, error)
}

// API holds the read-side collaborators. Nil fields disable their routes.
type API struct {
	Storms    SnapshotSource
	Live      StormFinder
	BestTrack besttrack.Finder
	Records   RecordSource
	// Regions is applied to /v1/storms when the request has no regions parameter.
	Regions domain.BasinMask
}

// Server exposes health, readiness, metrics and the read API.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1 routes backed by api.
func NewServer(addr string, ready sharedobs.ReadinessChecker, api API, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if api.Storms != nil {
		mux.HandleFunc("GET /v1/storms", s.handleStorms)
	}
	if api.Storms != nil && api.Live != nil {
		mux.HandleFunc("GET /v1/storms/{id}", s.handleStorm)
	}
	if api.BestTrack != nil {
		mux.HandleFunc("GET /v1/besttrack", s.handleBestTrack)
	}
	if api.Records != nil {
		mux.HandleFunc("GET /v1/record", s.handleRecord)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
