package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
	"github.com/couchcryptid/storm-data-atcf/internal/pipeline"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func snapshot() pipeline.Snapshot {
	return pipeline.Snapshot{
		CycleID:     "c0ffee00-0000-4000-8000-000000000001",
		RefreshedAt: time.Date(2024, 9, 5, 7, 0, 0, 0, time.UTC),
		Storms: []domain.ActiveStorm{
			{ID: "05L", Name: "ERNESTO", BasinCode: "ATL", WindKT: 85,
				Class: domain.Classification{Category: domain.CategoryHurricane, Tier: domain.TierCat2}},
			{ID: "11W", Name: "YAGI", BasinCode: "WPAC", WindKT: 140,
				Class: domain.Classification{Category: domain.CategorySuperTyphoon, Tier: domain.TierCat5}},
		},
	}
}

func TestSerializeToMessage(t *testing.T) {
	snap := snapshot()
	msg, err := serializeToMessage(snap.Storms[1], snap.CycleID, snap.RefreshedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("11W"), msg.Key)
	assert.Contains(t, string(msg.Value), `"category":"Super Typhoon"`)
	assert.Contains(t, string(msg.Value), `"basin":"WPAC"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "category", msg.Headers[0].Key)
	assert.Equal(t, []byte("Super Typhoon"), msg.Headers[0].Value)
	assert.Equal(t, "cycle_id", msg.Headers[1].Key)
	assert.Equal(t, []byte(snap.CycleID), msg.Headers[1].Value)
	assert.Equal(t, "refreshed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-09-05T07:00:00Z"), msg.Headers[2].Value)
}

func TestWriter_Publish(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: observability.DiscardLogger()}

	require.NoError(t, w.Publish(context.Background(), snapshot()))
	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("05L"), fw.msgs[0].Key)
	assert.Equal(t, []byte("11W"), fw.msgs[1].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_PublishEmptySnapshot(t *testing.T) {
	fw := &fakeWriter{err: errors.New("must not be called")}
	w := &Writer{writer: fw, logger: observability.DiscardLogger()}
	require.NoError(t, w.Publish(context.Background(), pipeline.Snapshot{}))
}

func TestWriter_PublishError(t *testing.T) {
	fw := &fakeWriter{err: kafkago.LeaderNotAvailable}
	w := &Writer{writer: fw, logger: observability.DiscardLogger()}

	err := w.Publish(context.Background(), snapshot())
	require.ErrorIs(t, err, kafkago.LeaderNotAvailable)
}
