// Package bootstrap wires a Config into a ready declarer, reporter and
// manifest loader.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/effectus/sig"
	"github.com/effectus/sig/adapters"
	sigamqp "github.com/effectus/sig/adapters/amqp"
	sigkafka "github.com/effectus/sig/adapters/kafka"
	"github.com/effectus/sig/adapters/logging"
	sigredis "github.com/effectus/sig/adapters/redis"
	"github.com/effectus/sig/config"
	"github.com/effectus/sig/loader"
	"github.com/effectus/sig/none"
	"github.com/effectus/sig/runtime"
)

// Env is a configured signature environment.
type Env struct {
	Config   *config.Config
	Classes  *runtime.Registry
	Declarer sig.Declarer
	Reporter adapters.Multi
	Loader   *loader.Loader
	Logger   *zap.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	reporters []adapters.Reporter
}

// WithLogger uses logger instead of building one from the config.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReporter adds a reporter next to the configured sink.
func WithReporter(r adapters.Reporter) Option {
	return func(o *options) {
		if r != nil {
			o.reporters = append(o.reporters, r)
		}
	}
}

// New builds an Env. When checking is disabled the declarer is the no-op
// variant and no sink is opened.
func New(cfg *config.Config, classes *runtime.Registry, opts ...Option) (*Env, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if classes == nil {
		classes = runtime.NewRegistry()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = cfg.BuildLogger(); err != nil {
			return nil, err
		}
	}

	env := &Env{Config: cfg, Classes: classes, Logger: logger}

	if cfg.IsEnabled() {
		sink, err := newSink(cfg, logger)
		if err != nil {
			return nil, err
		}
		if sink != nil {
			env.Reporter = append(env.Reporter, sink)
		}
		env.Reporter = append(env.Reporter, o.reporters...)

		installerOpts := []sig.Option{sig.WithLogger(logger), sig.WithReportTimeout(cfg.Report.Timeout)}
		if len(env.Reporter) > 0 {
			installerOpts = append(installerOpts, sig.WithReporter(env.Reporter))
		}
		env.Declarer = sig.NewInstaller(installerOpts...)
	} else {
		env.Declarer = none.Declarer{}
	}

	env.Loader = loader.New(classes, env.Declarer, loader.WithLogger(logger))

	logger.Info("signature checking configured",
		zap.Bool("enabled", cfg.IsEnabled()),
		zap.String("sink", cfg.Sink()),
		zap.Int("manifests", len(cfg.Manifests)),
	)
	return env, nil
}

func newSink(cfg *config.Config, logger *zap.Logger) (adapters.Reporter, error) {
	switch cfg.Sink() {
	case config.SinkLog:
		return logging.NewWithLevel(logger, cfg.ReportLevel()), nil
	case config.SinkRedis:
		return sigredis.New(cfg.Report.Redis), nil
	case config.SinkKafka:
		r, err := sigkafka.New(cfg.Report.Kafka)
		if err != nil {
			return nil, fmt.Errorf("report.kafka: %w", err)
		}
		return r, nil
	case config.SinkAMQP:
		r, err := sigamqp.Dial(cfg.Report.AMQP)
		if err != nil {
			return nil, fmt.Errorf("report.amqp: %w", err)
		}
		return r, nil
	case config.SinkNone:
		return nil, nil
	}
	return nil, fmt.Errorf("report.sink: unknown sink %q", cfg.Report.Sink)
}

// LoadManifests applies every configured manifest.
func (e *Env) LoadManifests() (int, error) {
	if len(e.Config.Manifests) == 0 {
		return 0, nil
	}
	return e.Loader.LoadFiles(e.Config.Manifests...)
}

// Watch reapplies the configured manifests as they change, until ctx is
// done. It returns at once when watching is off.
func (e *Env) Watch(ctx context.Context) error {
	if !e.Config.Watch || len(e.Config.Manifests) == 0 {
		return nil
	}
	return e.Loader.Watch(ctx, e.Config.Manifests...)
}

// Close releases the sink connections and flushes the logger.
func (e *Env) Close() error {
	err := e.Reporter.Close()
	// syncing stderr fails on some platforms
	_ = e.Logger.Sync()
	return err
}
