// Package kafka publishes violations to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/effectus/sig/adapters"
)

// Config holds Kafka reporter configuration.
type Config struct {
	Brokers      []string      `json:"brokers" yaml:"brokers"`
	Topic        string        `json:"topic" yaml:"topic"`
	BatchTimeout time.Duration `json:"batch_timeout" yaml:"batch_timeout"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reporter writes one JSON message per violation, keyed by method so the
// violations of one method stay ordered.
type Reporter struct {
	writer messageWriter
}

// New creates a reporter writing to the configured brokers.
func New(cfg Config) (*Reporter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka reporter requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka reporter requires a topic")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 100 * time.Millisecond
	}

	return NewReporter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}), nil
}

// NewReporter reports through an existing writer.
func NewReporter(w messageWriter) *Reporter {
	return &Reporter{writer: w}
}

// Report publishes v.
func (r *Reporter) Report(ctx context.Context, v adapters.Violation) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode violation %s: %w", v.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(v.Method),
		Value: body,
		Time:  v.OccurredAt,
		Headers: []kafka.Header{
			{Key: "violation_id", Value: []byte(v.ID)},
			{Key: "kind", Value: []byte(v.Kind)},
		},
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish violation %s: %w", v.ID, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (r *Reporter) Close() error {
	return r.writer.Close()
}
