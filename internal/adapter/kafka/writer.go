package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-data-atcf/internal/config"
	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/pipeline"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per active storm to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every storm in the snapshot and writes them in a single
// WriteMessages call. Messages are keyed by storm ID so a storm's updates stay
// on one partition.
func (w *Writer) Publish(ctx context.Context, snap pipeline.Snapshot) error {
	if len(snap.Storms) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Storms))
	for i := range snap.Storms {
		msg, err := serializeToMessage(snap.Storms[i], snap.CycleID, snap.RefreshedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d storms: %w", len(msgs), err)
	}
	w.logger.Debug("published active storms", "cycle_id", snap.CycleID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an ActiveStorm into a Kafka message.
func serializeToMessage(s domain.ActiveStorm, cycleID string, refreshedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize storm %s: %w", s.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(s.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(s.Class.Category)},
			{Key: "cycle_id", Value: []byte(cycleID)},
			{Key: "refreshed_at", Value: []byte(refreshedAt.Format(time.RFC3339))},
		},
	}, nil
}
