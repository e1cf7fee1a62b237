// Package redis appends violations to a Redis stream.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/effectus/sig/adapters"
)

// Config holds configuration for the stream reporter.
type Config struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Stream   string `json:"stream" yaml:"stream"`
	MaxLen   int64  `json:"max_len" yaml:"max_len"`
}

const (
	defaultAddr   = "localhost:6379"
	defaultStream = "sig:violations"
	defaultMaxLen = 10000
)

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.Stream == "" {
		c.Stream = defaultStream
	}
	if c.MaxLen == 0 {
		c.MaxLen = defaultMaxLen
	}
	return c
}

type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamReporter appends one stream entry per violation. The stream is
// trimmed approximately to MaxLen entries.
type StreamReporter struct {
	client streamClient
	stream string
	maxLen int64
	close  func() error
}

// New connects a reporter to the configured Redis server.
func New(cfg Config) *StreamReporter {
	cfg = cfg.WithDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := NewStreamReporter(client, cfg.Stream, cfg.MaxLen)
	r.close = client.Close
	return r
}

// NewStreamReporter reports through an existing client.
func NewStreamReporter(client streamClient, stream string, maxLen int64) *StreamReporter {
	return &StreamReporter{client: client, stream: stream, maxLen: maxLen}
}

// Report appends v to the stream.
func (r *StreamReporter) Report(ctx context.Context, v adapters.Violation) error {
	failures, err := json.Marshal(v.Failures)
	if err != nil {
		return fmt.Errorf("failed to encode failures: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: r.maxLen > 0,
		Values: map[string]interface{}{
			"id":          v.ID,
			"kind":        string(v.Kind),
			"target":      v.Target,
			"method":      v.Method,
			"failures":    string(failures),
			"occurred_at": v.OccurredAt.Format(time.RFC3339Nano),
		},
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append violation %s to stream %s: %w", v.ID, r.stream, err)
	}
	return nil
}

// Close releases the connection when the reporter owns it.
func (r *StreamReporter) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
