// Package logging reports violations to a zap logger.
package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/effectus/sig/adapters"
)

// Reporter writes one log entry per violation.
type Reporter struct {
	logger *zap.Logger
	level  zapcore.Level
}

// New creates a reporter logging at warn level.
func New(logger *zap.Logger) *Reporter {
	return NewWithLevel(logger, zapcore.WarnLevel)
}

// NewWithLevel creates a reporter logging at level.
func NewWithLevel(logger *zap.Logger, level zapcore.Level) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{logger: logger, level: level}
}

// Report logs v.
func (r *Reporter) Report(_ context.Context, v adapters.Violation) error {
	if ce := r.logger.Check(r.level, "signature violation"); ce != nil {
		ce.Write(
			zap.String("violation_id", v.ID),
			zap.String("kind", string(v.Kind)),
			zap.String("target", v.Target),
			zap.String("method", v.Method),
			zap.Strings("failures", v.Failures),
			zap.Time("occurred_at", v.OccurredAt),
		)
	}
	return nil
}
