package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/effectus/sig"
	"github.com/effectus/sig/adapters"
	"github.com/effectus/sig/config"
	"github.com/effectus/sig/internal/testutils"
	"github.com/effectus/sig/none"
	"github.com/effectus/sig/runtime"
)

const manifest = `signatures:
  - class: Calculator
    method: sum
    signature: "(Numeric, Numeric) -> Numeric"
`

type recorder struct {
	mu         sync.Mutex
	violations []adapters.Violation
}

func (r *recorder) Report(_ context.Context, v adapters.Violation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, v)
	return nil
}

func setup(t *testing.T) (*runtime.Registry, *runtime.Class, string) {
	t.Helper()
	classes := runtime.NewRegistry()
	calc := testutils.NewCalculator()
	require.NoError(t, classes.Register(calc))

	path := filepath.Join(t.TempDir(), "sigs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return classes, calc, path
}

func TestEnabledEnvChecksAndReports(t *testing.T) {
	classes, calc, path := setup(t)
	cfg := config.DefaultConfig()
	cfg.Manifests = []string{path}

	rec := &recorder{}
	env, err := New(cfg, classes, WithLogger(zap.NewNop()), WithReporter(rec))
	require.NoError(t, err)
	defer env.Close()

	assert.IsType(t, &sig.Installer{}, env.Declarer)
	assert.Len(t, env.Reporter, 2)

	applied, err := env.LoadManifests()
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	_, err = calc.New().Send("sum", "a", 1)
	var argErr *sig.ArgumentTypeError
	require.True(t, errors.As(err, &argErr))

	require.Len(t, rec.violations, 1)
	assert.Equal(t, adapters.KindArgument, rec.violations[0].Kind)
	assert.Equal(t, "Calculator#sum", rec.violations[0].Method)
}

func TestDisabledEnvInstallsNothing(t *testing.T) {
	classes, calc, path := setup(t)
	disabled := false
	cfg := config.DefaultConfig()
	cfg.Enabled = &disabled
	cfg.Manifests = []string{path}

	env, err := New(cfg, classes, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, none.Declarer{}, env.Declarer)
	assert.Empty(t, env.Reporter)

	applied, err := env.LoadManifests()
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Nil(t, calc.Layer())

	out, err := calc.New().Send("sum", 1.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, out)
}

func TestSinks(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		sinks   int
		wantErr string
	}{
		{name: "log", mutate: func(*config.Config) {}, sinks: 1},
		{name: "none", mutate: func(c *config.Config) { c.Report.Sink = config.SinkNone }, sinks: 0},
		{name: "redis", mutate: func(c *config.Config) { c.Report.Sink = config.SinkRedis }, sinks: 1},
		{name: "kafka", mutate: func(c *config.Config) {
			c.Report.Sink = config.SinkKafka
			c.Report.Kafka.Brokers = []string{"localhost:9092"}
			c.Report.Kafka.Topic = "sig-violations"
		}, sinks: 1},
		{name: "kafka without topic", mutate: func(c *config.Config) { c.Report.Sink = config.SinkKafka }, wantErr: "report.kafka"},
		{name: "amqp without url", mutate: func(c *config.Config) { c.Report.Sink = config.SinkAMQP }, wantErr: "report.amqp"},
		{name: "unknown", mutate: func(c *config.Config) { c.Report.Sink = "fax" }, wantErr: "report.sink"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.mutate(cfg)

			env, err := New(cfg, nil, WithLogger(zap.NewNop()))
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, env.Reporter, tc.sinks)
			assert.NoError(t, env.Close())
		})
	}
}

func TestWatchIsOffByDefault(t *testing.T) {
	classes, _, path := setup(t)
	cfg := config.DefaultConfig()
	cfg.Manifests = []string{path}

	env, err := New(cfg, classes, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.NoError(t, env.Watch(context.Background()))
}

func TestNilConfigUsesDefaults(t *testing.T) {
	env, err := New(nil, nil, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.True(t, env.Config.IsEnabled())
	assert.NotNil(t, env.Classes)

	applied, err := env.LoadManifests()
	require.NoError(t, err)
	assert.Zero(t, applied)
}
