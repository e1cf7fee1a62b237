package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/effectus/sig"
	"github.com/effectus/sig/common"
	"github.com/effectus/sig/internal/testutils"
	"github.com/effectus/sig/loader"
	"github.com/effectus/sig/none"
	"github.com/effectus/sig/runtime"
)

const yamlManifest = `signatures:
  - class: Calculator
    method: sum
    signature: "(Numeric, Numeric) -> Numeric"
  - class: Calculator
    method: mul
    static: true
    signature: "(Integer, Integer)"
`

const jsonManifest = `{
  "signatures": [
    {"class": "Calculator", "method": "sum", "signature": "(Numeric, Numeric) -> Numeric"},
    {"class": "Calculator", "method": "mul", "static": true, "signature": "(Integer, Integer)"}
  ]
}`

func newRegistry(t *testing.T) (*runtime.Registry, *runtime.Class) {
	t.Helper()
	classes := runtime.NewRegistry()
	calc := testutils.NewCalculator()
	require.NoError(t, classes.Register(calc))
	return classes, calc
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseYAML(t *testing.T) {
	m, err := loader.ParseYAML("sigs.yaml", []byte(yamlManifest))
	require.NoError(t, err)
	require.Len(t, m.Declarations, 2)

	assert.Equal(t, loader.Declaration{
		Class:     "Calculator",
		Method:    "sum",
		Signature: "(Numeric, Numeric) -> Numeric",
		Line:      2,
	}, m.Declarations[0])
	assert.True(t, m.Declarations[1].Static)
	assert.Equal(t, 5, m.Declarations[1].Line)
	assert.Equal(t, "Calculator.mul", m.Declarations[1].Target())
	assert.Equal(t, "sigs.yaml:5", m.Location(m.Declarations[1]))
}

func TestParseJSON(t *testing.T) {
	m, err := loader.ParseJSON("sigs.json", []byte(jsonManifest))
	require.NoError(t, err)
	require.Len(t, m.Declarations, 2)
	assert.Equal(t, "Calculator#sum", m.Declarations[0].Target())
	assert.Equal(t, "(Integer, Integer)", m.Declarations[1].Signature)
	assert.True(t, m.Declarations[1].Static)
	assert.Equal(t, 3, m.Declarations[0].Line)
	assert.Equal(t, 4, m.Declarations[1].Line)
	assert.Equal(t, "sigs.json:3", m.Location(m.Declarations[0]))

	_, err = loader.ParseJSON("bad.json", []byte(`{"signatures": [`))
	assert.Error(t, err)

	_, err = loader.ParseJSON("bad.json", []byte(`{"signatures": {"class": "Calculator"}}`))
	assert.Error(t, err)

	_, err = loader.ParseJSON("bad.json", []byte(`{"signatures": ["sum"]}`))
	assert.Error(t, err)

	_, err = loader.ParseJSON("bad.json", []byte(`{"signatures": [{"class": "C", "method": "m", "static": "yes", "signature": "()"}]}`))
	assert.ErrorContains(t, err, "static must be a boolean")

	m, err = loader.ParseJSON("one.json", []byte(`{"signatures": [{"class": "C", "method": "m", "static": false, "signature": "()"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Declarations[0].Line)
	assert.False(t, m.Declarations[0].Static)
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()

	m, err := loader.LoadFile(writeFile(t, dir, "sigs.json", jsonManifest))
	require.NoError(t, err)
	assert.Len(t, m.Declarations, 2)

	m, err = loader.LoadFile(writeFile(t, dir, "sigs.yml", yamlManifest))
	require.NoError(t, err)
	assert.Len(t, m.Declarations, 2)

	_, err = loader.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyInstallsSignatures(t *testing.T) {
	classes, calc := newRegistry(t)
	l := loader.New(classes, sig.NewInstaller())

	m, err := loader.ParseYAML("sigs.yaml", []byte(yamlManifest))
	require.NoError(t, err)

	applied, err := l.Apply(m)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	out, err := calc.New().Send("sum", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	_, err = calc.New().Send("sum", 1, "2")
	var argErr *common.ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, []string{"#1"}, argErr.Slots())

	out, err = calc.Send("mul", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, out)

	_, err = calc.Send("mul", 2, 1.5)
	require.True(t, errors.As(err, &argErr))
}

func TestApplyReportsEveryFailure(t *testing.T) {
	classes, calc := newRegistry(t)
	l := loader.New(classes, sig.NewInstaller())

	m := &loader.Manifest{Path: "sigs.yaml", Declarations: []loader.Declaration{
		{Class: "Widget", Method: "sum", Signature: "(Numeric)", Line: 2},
		{Class: "Calculator", Method: "sum", Signature: "(Numeric,, Numeric)", Line: 5},
		{Class: "Calculator", Method: "nope", Signature: "(Numeric)", Line: 8},
		{Class: "Calculator", Method: "half", Signature: "(Integer) -> Integer", Line: 11},
		{Method: "half", Signature: "()", Line: 14},
	}}

	applied, err := l.Apply(m)
	assert.Equal(t, 1, applied)
	errs := multierr.Errors(err)
	require.Len(t, errs, 4)
	assert.Contains(t, errs[0].Error(), "sigs.yaml:2: Widget#sum: unknown class Widget")
	assert.Contains(t, errs[1].Error(), "sigs.yaml:5: Calculator#sum")
	assert.Contains(t, errs[3].Error(), "class and method are required")

	var cfgErr *common.ConfigurationError
	require.True(t, errors.As(errs[2], &cfgErr))
	assert.Equal(t, "No method with that name", cfgErr.Reason)

	_, err = calc.New().Send("half", 1.5)
	assert.Error(t, err)
}

func TestApplyThroughNoopDeclarer(t *testing.T) {
	classes, calc := newRegistry(t)
	l := loader.New(classes, none.Declarer{})

	m, err := loader.ParseYAML("sigs.yaml", []byte(yamlManifest))
	require.NoError(t, err)
	applied, err := l.Apply(m)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	out, err := calc.New().Send("sum", 1.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, out)

	_, err = calc.New().Send("sum", "a", "b")
	require.Error(t, err)
	var argErr *common.ArgumentTypeError
	assert.False(t, errors.As(err, &argErr))
	assert.ErrorContains(t, err, "cannot add a and b")
	assert.Nil(t, calc.Layer())
}

func TestLoadFiles(t *testing.T) {
	classes, _ := newRegistry(t)
	l := loader.New(classes, sig.NewInstaller())
	dir := t.TempDir()

	applied, err := l.LoadFiles(
		writeFile(t, dir, "a.yaml", yamlManifest),
		filepath.Join(dir, "missing.yaml"),
		writeFile(t, dir, "b.json", jsonManifest),
	)
	assert.Equal(t, 4, applied)
	assert.Len(t, multierr.Errors(err), 1)
}

func TestWatchReappliesOnWrite(t *testing.T) {
	classes, calc := newRegistry(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "sigs.yaml", "signatures: []\n")

	reloaded := make(chan int, 16)
	l := loader.New(classes, sig.NewInstaller(), loader.WithReloadHook(func(_ string, applied int, err error) {
		if err != nil {
			return
		}
		select {
		case reloaded <- applied:
		default:
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx, path) }()

	// the watcher starts asynchronously, so keep rewriting until it notices
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(yamlManifest), 0o644)
		select {
		case n := <-reloaded:
			return n == 2
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	_, err := calc.New().Send("sum", "a", 2)
	var argErr *common.ArgumentTypeError
	assert.True(t, errors.As(err, &argErr))

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchNeedsPaths(t *testing.T) {
	classes, _ := newRegistry(t)
	l := loader.New(classes, none.Declarer{})
	assert.Error(t, l.Watch(context.Background()))
}
