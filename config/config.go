// Package config loads the runtime settings for signature checking.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	sigamqp "github.com/effectus/sig/adapters/amqp"
	sigkafka "github.com/effectus/sig/adapters/kafka"
	sigredis "github.com/effectus/sig/adapters/redis"
)

// Violation sinks.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
	SinkKafka = "kafka"
	SinkAMQP  = "amqp"
	SinkNone  = "none"
)

// Environment overrides.
const (
	EnvEnabled    = "SIG_ENABLED"
	EnvLogLevel   = "SIG_LOG_LEVEL"
	EnvReportSink = "SIG_REPORT_SINK"
)

// Config holds the settings for signature checking.
type Config struct {
	// Enabled switches between the checking installer and the no-op
	// declarer. Unset means enabled.
	Enabled   *bool        `yaml:"enabled" json:"enabled"`
	LogLevel  string       `yaml:"log_level" json:"log_level"`
	Manifests []string     `yaml:"manifests" json:"manifests"`
	Watch     bool         `yaml:"watch" json:"watch"`
	Report    ReportConfig `yaml:"report" json:"report"`
}

// ReportConfig selects where contract violations are sent. Timeout bounds
// each report made from a failing call; zero keeps the installer default.
type ReportConfig struct {
	Sink    string          `yaml:"sink" json:"sink"`
	Level   string          `yaml:"level" json:"level"`
	Timeout time.Duration   `yaml:"timeout" json:"timeout"`
	Redis   sigredis.Config `yaml:"redis" json:"redis"`
	Kafka   sigkafka.Config `yaml:"kafka" json:"kafka"`
	AMQP    sigamqp.Config  `yaml:"amqp" json:"amqp"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Report: ReportConfig{
			Sink:  SinkLog,
			Level: "warn",
		},
	}
}

// Load reads a YAML or JSON config file by extension. A missing file
// yields DefaultConfig. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config yaml: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	if enabled, ok := envBool(EnvEnabled); ok {
		c.Enabled = &enabled
	}
	if level, ok := envString(EnvLogLevel); ok {
		c.LogLevel = level
	}
	if sink, ok := envString(EnvReportSink); ok {
		c.Report.Sink = sink
	}
	return c.Validate()
}

// Validate checks the log levels and the sink name.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := parseLevel(c.Report.Level); err != nil {
		return fmt.Errorf("report.level: %w", err)
	}
	switch c.Sink() {
	case SinkLog, SinkRedis, SinkKafka, SinkAMQP, SinkNone:
		return nil
	default:
		return fmt.Errorf("report.sink: unknown sink %q", c.Report.Sink)
	}
}

// IsEnabled reports whether signatures are checked.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Sink returns the normalised sink name, SinkLog when unset.
func (c *Config) Sink() string {
	sink := strings.ToLower(strings.TrimSpace(c.Report.Sink))
	if sink == "" {
		return SinkLog
	}
	return sink
}

// ReportLevel returns the level the log sink writes violations at.
func (c *Config) ReportLevel() zapcore.Level {
	level, err := parseLevel(c.Report.Level)
	if err != nil || c.Report.Level == "" {
		return zapcore.WarnLevel
	}
	return level
}

// BuildLogger creates a production logger at the configured level.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func parseLevel(raw string) (zapcore.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(strings.TrimSpace(raw))
}

func envBool(key string) (bool, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return false, false
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func envString(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	return value, value != ""
}
