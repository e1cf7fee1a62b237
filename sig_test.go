package sig

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/effectus/sig/adapters"
	"github.com/effectus/sig/internal/testutils"
	"github.com/effectus/sig/runtime"
	"github.com/effectus/sig/schema/expect"
	"github.com/effectus/sig/schema/types"
)

func TestSumEndToEnd(t *testing.T) {
	calc := testutils.NewCalculator()
	name, err := Sig(calc, []any{types.Numeric, types.Numeric}, types.Numeric, "sum")
	require.NoError(t, err)
	assert.Equal(t, "sum", name)

	out, err := calc.New().Send("sum", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	_, err = calc.New().Send("sum", "a", 2)
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), "Numeric")
	assert.Equal(t, []string{"#0"}, argErr.Slots())
	assert.True(t, errors.Is(err, ErrContract))
}

func TestReportsEveryFailingArgument(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, []any{types.Numeric, types.Numeric}, nil, "sum")

	_, err := calc.New().Send("sum", "a", "b")
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, []string{"#0", "#1"}, argErr.Slots())
	assert.Equal(t,
		"invalid arguments for Calculator#sum:\n"+
			"- #0: Expected \"a\" to be a Numeric, but is a String\n"+
			"- #1: Expected \"b\" to be a Numeric, but is a String",
		err.Error())
}

func TestKeywordEndToEnd(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, []any{types.Numeric, Keywords{"word": types.String}}, nil, "key")
	obj := calc.New()

	out, err := obj.SendKeywords("key", map[string]any{"word": "ok"}, 42)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = obj.SendKeywords("key", map[string]any{"word": 1}, 42)
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, []string{"word"}, argErr.Slots())
}

func TestKeywordOnlyDeclaration(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, Keywords{"word": types.String}, nil, "key")

	_, err := calc.New().SendKeywords("key", map[string]any{"word": 42})
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, []string{"word"}, argErr.Slots())
	assert.Contains(t, err.Error(), "Expected 42 to be a String, but is a Integer")
}

func TestUndeclaredKeywordsFoldIntoPositionals(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, []any{types.Numeric, types.String}, nil, "key")

	_, err := calc.New().SendKeywords("key", map[string]any{"word": "ok"}, 42)
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, []string{"#1"}, argErr.Slots())
	assert.Contains(t, err.Error(), `Expected {word: "ok"} to be a String, but is a Map`)
}

func TestResultOnlyDeclaration(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, nil, types.Float, "half")

	out, err := calc.New().Send("half", 3.0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, out)

	_, err = calc.New().Send("half", 4)
	var resErr *ResultTypeError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "Calculator#half", resErr.Method)
	assert.Equal(t, "Expected 2 to be a Float, but is a Integer", resErr.Failure.Message)
}

func TestBodyErrorsPassThrough(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, []any{types.Integer, types.Integer}, types.String, "div")

	_, err := calc.New().Send("div", 1, 0)
	assert.ErrorIs(t, err, testutils.ErrDivideByZero)
	assert.False(t, errors.Is(err, ErrContract))

	_, err = calc.New().Send("div", 4, 2)
	var resErr *ResultTypeError
	assert.True(t, errors.As(err, &resErr))
}

func TestArgumentFailureSkipsBody(t *testing.T) {
	cls := runtime.NewClass("Counter", nil)
	calls := 0
	cls.Define("bump", func(*runtime.Call) (any, error) {
		calls++
		return calls, nil
	})
	MustSig(cls, []any{types.Integer}, nil, "bump")

	_, err := cls.New().Send("bump", "x")
	assert.Error(t, err)
	assert.Zero(t, calls)

	_, err = cls.New().Send("bump", 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestVisibilityIsPreserved(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, nil, types.Integer, "secret")
	MustSig(calc, nil, types.Integer, "shared")
	MustSig(calc, nil, types.Integer, "reveal")
	obj := calc.New()

	var noMethod *runtime.NoMethodError
	_, err := obj.Send("secret")
	require.True(t, errors.As(err, &noMethod))
	assert.Equal(t, runtime.Private, noMethod.Visibility)

	_, err = obj.Send("shared")
	require.True(t, errors.As(err, &noMethod))
	assert.Equal(t, runtime.Protected, noMethod.Visibility)

	out, err := obj.Send("reveal")
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	out, err = obj.Send("peek", calc.New())
	require.NoError(t, err)
	assert.Equal(t, 7, out)

	vis, ok := calc.Layer().Visibility("secret")
	require.True(t, ok)
	assert.Equal(t, runtime.Private, vis)
}

func TestOneLayerPerTarget(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, []any{types.Numeric, types.Numeric}, nil, "sum")
	first := calc.Layer()
	MustSig(calc, nil, types.Float, "half")

	assert.Same(t, first, calc.Layer())
	assert.Equal(t, []string{"half", "sum"}, calc.Layer().Methods())
}

func TestUnknownMethodIsConfigurationError(t *testing.T) {
	calc := testutils.NewCalculator()

	_, err := Sig(calc, []any{types.Integer}, nil, "unknown")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Calculator", cfgErr.Target)
	assert.Equal(t, "unknown", cfgErr.Method)
	assert.Nil(t, calc.Layer())

	assert.Panics(t, func() { MustSig(calc, nil, nil, "unknown") })
}

func TestUnknownExpectationFailsAtCallTime(t *testing.T) {
	calc := testutils.NewCalculator()
	_, err := Sig(calc, []any{struct{}{}}, nil, "sum")
	require.NoError(t, err)

	_, err = calc.New().Send("sum", 1, 2)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "Invalid signature definition")
}

func TestRedeclareReplacesWrapper(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSig(calc, []any{types.Integer, types.Integer}, nil, "sum")
	MustSig(calc, []any{types.Integer, types.Integer}, nil, "sum")

	_, err := calc.New().Send("sum", "x", 1)
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Len(t, argErr.Failures, 1)

	MustSig(calc, []any{types.String, types.String}, nil, "sum")
	_, err = calc.New().Send("sum", 1, 2)
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, []string{"#0", "#1"}, argErr.Slots())
	assert.Equal(t, []string{"sum"}, calc.Layer().Methods())
}

func TestSigSelfTargetsClassLevelMethods(t *testing.T) {
	calc := testutils.NewCalculator()
	MustSigSelf(calc, []any{types.Integer, types.Integer}, types.Integer, "mul")

	out, err := calc.Send("mul", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, out)

	_, err = calc.Send("mul", 3, "4")
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "#<Class:Calculator>#mul", argErr.Method)
	assert.Nil(t, calc.Layer())
	assert.NotNil(t, calc.Singleton().Layer())
}

func TestSigOnInstanceTargetsOnlyThatObject(t *testing.T) {
	calc := testutils.NewCalculator()
	checked := calc.New()
	MustSig(checked, []any{types.Integer, types.Integer}, nil, "sum")

	_, err := checked.Send("sum", 1.5, 1)
	assert.Error(t, err)

	out, err := calc.New().Send("sum", 1.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, out)
	assert.Nil(t, calc.Layer())
}

func TestSubclassSignature(t *testing.T) {
	calc := testutils.NewCalculator()
	scientific := runtime.NewClass("Scientific", calc)
	MustSig(scientific, []any{types.Float, types.Float}, nil, "sum")

	out, err := scientific.New().Send("sum", 0.5, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 0.75, out)

	_, err = scientific.New().Send("sum", 1, 2)
	assert.Error(t, err)

	out, err = calc.New().Send("sum", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestRecursiveWrappedCalls(t *testing.T) {
	cls := runtime.NewClass("Math", nil)
	cls.Define("fact", func(c *runtime.Call) (any, error) {
		n := c.Arg(0).(int)
		if n <= 1 {
			return 1, nil
		}
		rest, err := c.Invoke("fact", n-1)
		if err != nil {
			return nil, err
		}
		return n * rest.(int), nil
	})
	MustSig(cls, []any{expect.Range{Min: 0}}, types.Integer, "fact")

	out, err := cls.New().Send("fact", 5)
	require.NoError(t, err)
	assert.Equal(t, 120, out)

	_, err = cls.New().Send("fact", -1)
	assert.Error(t, err)
}

func TestMixedExpectations(t *testing.T) {
	cls := runtime.NewClass("Mixed", nil)
	cls.Define("call", func(c *runtime.Call) (any, error) { return c.Args, nil })
	MustSig(cls, []any{
		expect.Capability("string"),
		expect.MatchString(`^[a-z]+$`),
		expect.Until(1, 100),
		true,
		[]any{types.String, false},
	}, nil, "call")

	obj := cls.New()
	_, err := obj.Send("call", types.Integer, "abc", 99, 0, nil)
	require.NoError(t, err)

	_, err = obj.Send("call", 1, "ABC", 100, false, 3)
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, []string{"#0", "#1", "#2", "#3", "#4"}, argErr.Slots())
	assert.Equal(t, "Expected 3 to be a String, but is a Integer OR Expected 3 to be falsy", argErr.Failures[4].Message)
}

func TestViolationsAreReportedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var mu sync.Mutex
	var reported []adapters.Violation
	in := NewInstaller(
		WithLogger(zap.New(core)),
		WithReporter(adapters.ReporterFunc(func(_ context.Context, v adapters.Violation) error {
			mu.Lock()
			defer mu.Unlock()
			reported = append(reported, v)
			return errors.New("sink down")
		})),
	)

	calc := testutils.NewCalculator()
	_, err := in.Sig(calc, []any{types.Numeric, types.Numeric}, types.Integer, "sum")
	require.NoError(t, err)

	_, err = calc.New().Send("sum", "a", 1)
	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))

	_, err = calc.New().Send("sum", 0.5, 1)
	var resErr *ResultTypeError
	require.True(t, errors.As(err, &resErr))

	require.Len(t, reported, 2)
	assert.Equal(t, adapters.KindArgument, reported[0].Kind)
	assert.Equal(t, "Calculator", reported[0].Target)
	assert.Equal(t, "Calculator#sum", reported[0].Method)
	assert.Equal(t, []string{`- #0: Expected "a" to be a Numeric, but is a String`}, reported[0].Failures)
	assert.Equal(t, adapters.KindResult, reported[1].Kind)

	assert.Equal(t, 1, logs.FilterMessage("installed signature").Len())
	assert.Equal(t, 2, logs.FilterMessage("signature violation").Len())
	assert.Equal(t, 2, logs.FilterMessage("failed to report signature violation").Len())
}

func TestSlowReporterDoesNotStallCalls(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	deadlines := make(chan bool, 1)
	release := make(chan struct{})
	defer close(release)

	in := NewInstaller(
		WithLogger(zap.New(core)),
		WithReportTimeout(20*time.Millisecond),
		WithReporter(adapters.ReporterFunc(func(ctx context.Context, _ adapters.Violation) error {
			_, ok := ctx.Deadline()
			deadlines <- ok
			<-release
			return nil
		})),
	)

	calc := testutils.NewCalculator()
	_, err := in.Sig(calc, []any{types.Numeric, types.Numeric}, types.Numeric, "sum")
	require.NoError(t, err)

	start := time.Now()
	_, err = calc.New().Send("sum", "a", 1)
	elapsed := time.Since(start)

	var argErr *ArgumentTypeError
	require.True(t, errors.As(err, &argErr))
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.True(t, <-deadlines)

	warned := logs.FilterMessage("failed to report signature violation").All()
	require.Len(t, warned, 1)
	assert.Contains(t, warned[0].ContextMap()["error"], context.DeadlineExceeded.Error())
}

func TestConcurrentInstallsShareOneLayer(t *testing.T) {
	cls := runtime.NewClass("Wide", nil)
	names := []string{"m0", "m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8", "m9"}
	for _, name := range names {
		cls.Define(name, func(c *runtime.Call) (any, error) { return c.Arg(0), nil })
	}

	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			_, err := Define(cls, []any{types.Integer}, types.Integer, name)
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, names, cls.Layer().Methods())

	var calls errgroup.Group
	for i, name := range names {
		i, name := i, name
		calls.Go(func() error {
			out, err := cls.New().Send(name, i)
			if err != nil {
				return err
			}
			if out != i {
				return errors.New("unexpected result")
			}
			return nil
		})
	}
	assert.NoError(t, calls.Wait())
}

func TestNilTargets(t *testing.T) {
	_, err := Define(nil, nil, nil, "sum")
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = SigSelf(nil, nil, nil, "sum")
	assert.True(t, errors.As(err, &cfgErr))

	var inst *runtime.Instance
	_, err = SigSelf(inst, nil, nil, "sum")
	assert.True(t, errors.As(err, &cfgErr))

	_, err = Sig(inst, nil, nil, "sum")
	assert.True(t, errors.As(err, &cfgErr))

	var cls *runtime.Class
	_, err = Sig(cls, nil, nil, "sum")
	assert.True(t, errors.As(err, &cfgErr))
}
