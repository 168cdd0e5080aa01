package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/feed"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
	"github.com/couchcryptid/storm-data-atcf/internal/pipeline"
	"github.com/couchcryptid/storm-data-atcf/internal/record"
	"github.com/couchcryptid/storm-data-atcf/internal/table"
)

const (
	ernestoFix    = "05L ERNESTO 240815 1800 251N 669W ATL 85 972"
	ernestoInterp = "AL052024 ERNESTO 240815 1800 25.1 -66.9 L HU 85 972 12 15"
	yagiFix       = "11W YAGI 240905 0600 197N 1119E WPAC 140 915"
	yagiInterp    = "WP112024 YAGI 240905 0600 19.7 111.9 W ST 140 915 9 290"
)

// --- mocks ---

type mockFeed struct {
	tbl        *table.Table
	refreshErr func(n int) error
	calls      atomic.Int32
	refreshed  chan struct{}
}

func newMockFeed(t *testing.T, pairs ...[2]string) *mockFeed {
	t.Helper()
	tbl := table.New()
	for _, p := range pairs {
		require.NoError(t, tbl.AppendPair(p[0], p[1]))
	}
	return &mockFeed{tbl: tbl, refreshed: make(chan struct{}, 16)}
}

func (m *mockFeed) Refresh(ctx context.Context) error {
	n := int(m.calls.Add(1))
	defer func() {
		select {
		case m.refreshed <- struct{}{}:
		default:
		}
	}()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if m.refreshErr != nil {
		return m.refreshErr(n)
	}
	return nil
}

func (m *mockFeed) LoadFromDisk(_ context.Context) error { return nil }

func (m *mockFeed) Table() *table.Table { return m.tbl }

type mockPublisher struct {
	mu    sync.Mutex
	snaps []pipeline.Snapshot
	err   error
}

func (m *mockPublisher) Publish(_ context.Context, snap pipeline.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *mockPublisher) published() []pipeline.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pipeline.Snapshot(nil), m.snaps...)
}

type harness struct {
	p       *pipeline.Pipeline
	feed    *mockFeed
	pub     *mockPublisher
	tracker *record.Tracker
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
}

func newHarness(t *testing.T, f *mockFeed, opts pipeline.Options) *harness {
	t.Helper()
	clk := clockwork.NewFakeClockAt(time.Date(2024, 9, 5, 7, 0, 0, 0, time.UTC))
	domain.SetClock(clk)
	t.Cleanup(func() { domain.SetClock(nil) })

	metrics := observability.NewMetricsForTesting()
	logger := observability.DiscardLogger()
	tracker := record.NewTracker(record.NewMemoryStore(), logger, metrics)
	pub := &mockPublisher{}
	p := pipeline.New(f, tracker, pub, clk, logger, metrics, opts)
	return &harness{p: p, feed: f, pub: pub, tracker: tracker, clock: clk, metrics: metrics}
}

func waitRefresh(t *testing.T, f *mockFeed) {
	t.Helper()
	select {
	case <-f.refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}

// --- tests ---

func TestRunOnce_PublishesClassifiedStorms(t *testing.T) {
	f := newMockFeed(t, [2]string{ernestoFix, ernestoInterp}, [2]string{yagiFix, yagiInterp})
	h := newHarness(t, f, pipeline.Options{})

	require.Error(t, h.p.CheckReadiness(context.Background()))
	require.NoError(t, h.p.RunOnce(context.Background()))
	require.NoError(t, h.p.CheckReadiness(context.Background()))

	snaps := h.pub.published()
	require.Len(t, snaps, 1)
	snap := snaps[0]
	assert.NotEmpty(t, snap.CycleID)
	assert.Equal(t, h.clock.Now(), snap.RefreshedAt)
	assert.False(t, snap.Partial)
	require.Len(t, snap.Storms, 2)
	assert.Equal(t, domain.CategoryHurricane, snap.Storms[0].Class.Category)
	assert.Equal(t, domain.CategorySuperTyphoon, snap.Storms[1].Class.Category)

	latest, ok := h.p.Latest()
	require.True(t, ok)
	assert.Equal(t, snap.CycleID, latest.CycleID)

	rec, ok, err := h.tracker.Current(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "11W", rec.ID)

	assert.InDelta(t, 2, testutil.ToFloat64(h.metrics.MessagesProduced), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.StormsByCategory.WithLabelValues("Super Typhoon")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.StormsByCategory.WithLabelValues("Hurricane")), 0)
}

func TestRunOnce_CycleIDsAreUnique(t *testing.T) {
	f := newMockFeed(t, [2]string{ernestoFix, ernestoInterp})
	h := newHarness(t, f, pipeline.Options{})

	require.NoError(t, h.p.RunOnce(context.Background()))
	require.NoError(t, h.p.RunOnce(context.Background()))

	snaps := h.pub.published()
	require.Len(t, snaps, 2)
	assert.NotEqual(t, snaps[0].CycleID, snaps[1].CycleID)
}

func TestRunOnce_RefreshErrorPublishesNothing(t *testing.T) {
	f := newMockFeed(t, [2]string{ernestoFix, ernestoInterp})
	f.refreshErr = func(int) error { return feed.ErrSourceUnavailable }
	h := newHarness(t, f, pipeline.Options{})

	err := h.p.RunOnce(context.Background())
	require.ErrorIs(t, err, feed.ErrSourceUnavailable)
	assert.Empty(t, h.pub.published())
	_, ok := h.p.Latest()
	assert.False(t, ok)
	assert.Error(t, h.p.CheckReadiness(context.Background()))
}

func TestRunOnce_InterpMismatchPublishesPrimaryHalf(t *testing.T) {
	f := newMockFeed(t)
	require.NoError(t, f.tbl.AppendLine(yagiFix, domain.ModeFix))
	f.refreshErr = func(int) error {
		return &feed.InterpolationMismatchError{Missing: []string{"11W"}}
	}
	h := newHarness(t, f, pipeline.Options{})

	err := h.p.RunOnce(context.Background())
	require.ErrorIs(t, err, feed.ErrInterpolationMismatch)

	snaps := h.pub.published()
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Partial)
	require.Len(t, snaps[0].Storms, 1)
	assert.Equal(t, "11W", snaps[0].Storms[0].ID)
	assert.False(t, snaps[0].Storms[0].Movement.Available)

	// Partial cycles do not touch the record.
	_, ok, err := h.tracker.Current(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunOnce_PublishError(t *testing.T) {
	f := newMockFeed(t, [2]string{ernestoFix, ernestoInterp})
	h := newHarness(t, f, pipeline.Options{})
	h.pub.err = errors.New("broker down")

	err := h.p.RunOnce(context.Background())
	require.Error(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.PublishErrors), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(h.metrics.MessagesProduced), 0)

	// The snapshot is still served even though delivery failed.
	_, ok := h.p.Latest()
	assert.True(t, ok)
}

func TestRunOnce_EmptyTableSkipsPublish(t *testing.T) {
	f := newMockFeed(t)
	h := newHarness(t, f, pipeline.Options{})

	require.NoError(t, h.p.RunOnce(context.Background()))
	assert.Empty(t, h.pub.published())
	assert.NoError(t, h.p.CheckReadiness(context.Background()))
}

func TestRun_ContextCancellation(t *testing.T) {
	f := newMockFeed(t, [2]string{ernestoFix, ernestoInterp})
	h := newHarness(t, f, pipeline.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.p.Run(ctx))
	assert.Empty(t, h.pub.published())
	assert.InDelta(t, 0, testutil.ToFloat64(h.metrics.PipelineRunning), 0)
}

func TestRun_RefreshesEveryInterval(t *testing.T) {
	f := newMockFeed(t, [2]string{ernestoFix, ernestoInterp})
	h := newHarness(t, f, pipeline.Options{Interval: 10 * time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.p.Run(ctx) }()

	waitRefresh(t, f)
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(10 * time.Minute)
	waitRefresh(t, f)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Len(t, h.pub.published(), 2)
}

func TestRun_BacksOffAfterFailure(t *testing.T) {
	f := newMockFeed(t, [2]string{ernestoFix, ernestoInterp})
	f.refreshErr = func(n int) error {
		if n == 1 {
			return feed.ErrSourceUnavailable
		}
		return nil
	}
	h := newHarness(t, f, pipeline.Options{Interval: 10 * time.Minute, MinBackoff: 30 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.p.Run(ctx) }()

	waitRefresh(t, f)
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	// The retry comes after the backoff, well before the interval.
	h.clock.Advance(30 * time.Second)
	waitRefresh(t, f)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Len(t, h.pub.published(), 1)
}
