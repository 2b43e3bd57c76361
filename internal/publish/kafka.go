// Package publish sends dashboard data out of the process: refresh snapshots
// to Kafka and device commands to MQTT.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/energy-dashboard/internal/scheduler"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the renderer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a writer that keys messages by hash so a period's
// snapshots stay ordered on one partition.
func NewKafkaWriter(brokers []string, topic string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, nil
}

// KafkaRenderer publishes every refresh snapshot as a JSON message keyed by
// period.
type KafkaRenderer struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaRenderer(w MessageWriter, logger *zap.Logger) *KafkaRenderer {
	if w == nil {
		panic("nil MessageWriter provided to NewKafkaRenderer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaRenderer{writer: w, logger: logger.Named("kafka")}
}

func (r *KafkaRenderer) Name() string { return "kafka" }

func (r *KafkaRenderer) Render(ctx context.Context, snap scheduler.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(snap.Period),
		Value: payload,
		Time:  snap.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "tick_id", Value: []byte(snap.TickID)},
		},
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.Period, err)
	}
	r.logger.Debug("snapshot published", zap.String("period", snap.Period), zap.String("tick_id", snap.TickID))
	return nil
}

func (r *KafkaRenderer) Close() error {
	return r.writer.Close()
}
