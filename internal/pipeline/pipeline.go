package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/feed"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
	"github.com/couchcryptid/storm-data-atcf/internal/table"
)

// Feed refreshes the live storm table.
type Feed interface {
	Refresh(ctx context.Context) error
	LoadFromDisk(ctx context.Context) error
	Table() *table.Table
}

// RecordTracker keeps the strongest-storm record.
type RecordTracker interface {
	ConsiderStorms(ctx context.Context, storms []domain.ActiveStorm) (bool, error)
}

// Publisher delivers each refresh cycle's storms downstream.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// Snapshot is the classified view of the table after one refresh cycle.
type Snapshot struct {
	CycleID     string
	RefreshedAt time.Time
	Storms      []domain.ActiveStorm
	// Partial is set when the auxiliary half failed to load and storms carry
	// no flag or movement data.
	Partial bool
}

// Options tunes the refresh loop.
type Options struct {
	Interval   time.Duration
	MinBackoff time.Duration
}

// Pipeline periodically refreshes the feed, classifies the active storms,
// updates the record and publishes the result.
type Pipeline struct {
	feed      Feed
	records   RecordTracker
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	ready     atomic.Bool
	latest    atomic.Pointer[Snapshot]
}

// New creates a Pipeline. records and publisher may be nil.
func New(f Feed, records RecordTracker, publisher Publisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.MinBackoff <= 0 || opts.MinBackoff > opts.Interval {
		opts.MinBackoff = min(30*time.Second, opts.Interval)
	}
	return &Pipeline{
		feed:      f,
		records:   records,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once a refresh cycle has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no refresh cycle has completed yet")
	}
	return nil
}

// Latest returns the most recent snapshot, or false before the first cycle.
func (p *Pipeline) Latest() (Snapshot, bool) {
	s := p.latest.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Run warms the table from the on-disk cache, then refreshes every interval
// until the context is cancelled. Failed cycles are retried with exponential
// backoff capped at the interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.opts.Interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if err := p.feed.LoadFromDisk(ctx); err != nil {
		p.logger.Warn("loading cached atcf data failed", "error", err)
	}

	backoff := p.opts.MinBackoff
	for {
		wait := p.opts.Interval
		if err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("refresh cycle failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, p.opts.Interval)
		} else {
			backoff = p.opts.MinBackoff
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce performs one refresh cycle. An interpolation mismatch still
// publishes the primary half and is returned afterwards.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	start := p.clock.Now()
	cycleID := uuid.NewString()
	log := p.logger.With("cycle_id", cycleID)

	refreshErr := p.feed.Refresh(ctx)
	if refreshErr != nil && !errors.Is(refreshErr, feed.ErrInterpolationMismatch) {
		return fmt.Errorf("refresh: %w", refreshErr)
	}
	if refreshErr != nil {
		log.Warn("interp data did not match sector data", "error", refreshErr)
	}

	tbl := p.feed.Table()
	snap := Snapshot{
		CycleID:     cycleID,
		RefreshedAt: p.clock.Now().UTC(),
		Storms:      domain.DescribeAll(tbl.AllRecords()),
		Partial:     !tbl.Complete(),
	}
	p.observeCategories(snap.Storms)

	if p.records != nil && !snap.Partial {
		if _, err := p.records.ConsiderStorms(ctx, snap.Storms); err != nil {
			log.Warn("updating storm record failed", "error", err)
		}
	}

	p.latest.Store(&snap)

	if p.publisher != nil && len(snap.Storms) > 0 {
		if err := p.publisher.Publish(ctx, snap); err != nil {
			p.metrics.PublishErrors.Inc()
			return fmt.Errorf("publish: %w", err)
		}
		p.metrics.MessagesProduced.Add(float64(len(snap.Storms)))
	}

	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	log.Info("refresh cycle complete", "storms", len(snap.Storms), "partial", snap.Partial)
	return refreshErr
}

func (p *Pipeline) observeCategories(storms []domain.ActiveStorm) {
	p.metrics.StormsByCategory.Reset()
	for _, s := range storms {
		p.metrics.StormsByCategory.WithLabelValues(string(s.Class.Category)).Inc()
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
