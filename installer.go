package sig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/effectus/sig/adapters"
	"github.com/effectus/sig/common"
	"github.com/effectus/sig/runtime"
	"github.com/effectus/sig/schema/signature"
	"github.com/effectus/sig/schema/types"
)

// DefaultReportTimeout bounds how long a failing call waits for its
// violation to be reported.
const DefaultReportTimeout = 200 * time.Millisecond

// Installer wraps methods with signature checks.
type Installer struct {
	logger        *zap.Logger
	reporter      adapters.Reporter
	reportTimeout time.Duration
}

// Option configures an Installer.
type Option func(*Installer)

// WithLogger sets the logger used for installs and violations.
func WithLogger(logger *zap.Logger) Option {
	return func(in *Installer) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// WithReporter forwards every contract violation to r. Reporting failures
// are logged and never change the outcome of the checked call.
func WithReporter(r adapters.Reporter) Option {
	return func(in *Installer) {
		in.reporter = r
	}
}

// WithReportTimeout bounds each report. A failing call returns once the
// reporter finishes or the timeout expires, whichever comes first; the
// reporter's context is cancelled at the timeout.
func WithReportTimeout(d time.Duration) Option {
	return func(in *Installer) {
		if d > 0 {
			in.reportTimeout = d
		}
	}
}

// NewInstaller creates an installer.
func NewInstaller(opts ...Option) *Installer {
	in := &Installer{logger: zap.NewNop(), reportTimeout: DefaultReportTimeout}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Define installs the signature on target and returns the method name. The
// method must already be defined on target or one of its ancestors; its
// visibility carries over to the wrapper. Declaring again for the same
// method replaces the previous wrapper.
func (in *Installer) Define(target *runtime.Class, expectedArgs, expectedResult any, method string) (string, error) {
	if target == nil {
		return "", &common.ConfigurationError{Method: method, Reason: "No target class"}
	}

	contract := signature.New(expectedArgs, expectedResult)
	label := qualifiedName(target, method)

	layer, err := target.Intercept(method, func(vis runtime.Visibility) runtime.Func {
		return in.wrap(contract, target.Name(), label)
	})
	if err != nil {
		var noMethod *runtime.NoMethodError
		if errors.As(err, &noMethod) {
			return "", &common.ConfigurationError{
				Target: target.Name(),
				Method: method,
				Reason: "No method with that name",
			}
		}
		return "", err
	}

	in.logger.Debug("installed signature",
		zap.String("method", label),
		zap.String("signature", contract.String()),
		zap.Stringer("layer", layer),
	)
	return method, nil
}

// Sig targets self when it is a class and the singleton of self otherwise.
func (in *Installer) Sig(self runtime.Receiver, expectedArgs, expectedResult any, method string) (string, error) {
	if cls, ok := self.(*runtime.Class); ok {
		return in.Define(cls, expectedArgs, expectedResult, method)
	}
	return in.SigSelf(self, expectedArgs, expectedResult, method)
}

// SigSelf always targets the singleton class of self.
func (in *Installer) SigSelf(self runtime.Receiver, expectedArgs, expectedResult any, method string) (string, error) {
	if types.IsNil(self) {
		return "", &common.ConfigurationError{Method: method, Reason: "No receiver"}
	}
	return in.Define(self.Singleton(), expectedArgs, expectedResult, method)
}

func (in *Installer) wrap(contract *signature.Signature, target, label string) runtime.Func {
	return func(call *runtime.Call) (any, error) {
		if err := contract.CheckArguments(label, call.Args, call.Kwargs); err != nil {
			in.violation(err, adapters.KindArgument, target, label)
			return nil, err
		}

		result, err := call.Super()
		if err != nil {
			return result, err
		}

		if err := contract.CheckResult(label, result); err != nil {
			in.violation(err, adapters.KindResult, target, label)
			return nil, err
		}
		return result, nil
	}
}

func (in *Installer) violation(err error, kind adapters.Kind, target, label string) {
	var messages []string
	var argErr *common.ArgumentTypeError
	var resErr *common.ResultTypeError
	switch {
	case errors.As(err, &argErr):
		for _, f := range argErr.Failures {
			messages = append(messages, f.String())
		}
	case errors.As(err, &resErr):
		messages = []string{resErr.Failure.String()}
	default:
		// configuration errors are not contract violations
		return
	}

	in.logger.Debug("signature violation",
		zap.String("method", label),
		zap.String("kind", string(kind)),
		zap.Strings("failures", messages),
	)
	if in.reporter == nil {
		return
	}
	v := adapters.NewViolation(kind, label, messages)
	v.Target = target
	if rerr := in.report(v); rerr != nil {
		in.logger.Warn("failed to report signature violation",
			zap.String("violation_id", v.ID),
			zap.Duration("timeout", in.reportTimeout),
			zap.Error(rerr),
		)
	}
}

// report delivers v without holding the checked call past reportTimeout,
// even when the reporter ignores its context.
func (in *Installer) report(v adapters.Violation) error {
	ctx, cancel := context.WithTimeout(context.Background(), in.reportTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- in.reporter.Report(ctx, v)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("reporting violation %s: %w", v.ID, ctx.Err())
	}
}

func qualifiedName(target *runtime.Class, method string) string {
	return fmt.Sprintf("%s#%s", target.Name(), method)
}
