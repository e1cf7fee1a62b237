// Package sig installs runtime signature checks on methods of the runtime
// object model.
//
//	calc := runtime.NewClass("Calculator", nil)
//	calc.Define("sum", sumImpl)
//	sig.MustSig(calc, []any{types.Numeric, types.Numeric}, types.Numeric, "sum")
//
// Every call to sum is then checked before and after the original body
// runs. Violations return *ArgumentTypeError or *ResultTypeError listing
// every failing slot.
package sig

import (
	"github.com/effectus/sig/common"
	"github.com/effectus/sig/runtime"
	"github.com/effectus/sig/schema/signature"
)

// Keywords declares keyword argument expectations. Pass it as the last
// element of the positional expectations, or on its own.
type Keywords = signature.Keywords

// Error types returned by declarations and checked calls.
type (
	ConfigurationError = common.ConfigurationError
	ArgumentTypeError  = common.ArgumentTypeError
	ResultTypeError    = common.ResultTypeError
	Failure            = common.Failure
)

// ErrContract is wrapped by ArgumentTypeError and ResultTypeError.
var ErrContract = common.ErrContract

// Declarer is the declaration surface shared by the checking installer and
// the no-op variant.
type Declarer interface {
	Define(target *runtime.Class, expectedArgs, expectedResult any, method string) (string, error)
	Sig(self runtime.Receiver, expectedArgs, expectedResult any, method string) (string, error)
	SigSelf(self runtime.Receiver, expectedArgs, expectedResult any, method string) (string, error)
}

var (
	defaultInstaller = NewInstaller()

	_ Declarer = (*Installer)(nil)
)

// Default returns the installer used by the package-level functions.
func Default() *Installer { return defaultInstaller }

// Define installs a signature on target with the default installer.
func Define(target *runtime.Class, expectedArgs, expectedResult any, method string) (string, error) {
	return defaultInstaller.Define(target, expectedArgs, expectedResult, method)
}

// Sig declares a signature for a method of self. A class declares for its
// instances; any other receiver declares for itself alone.
func Sig(self runtime.Receiver, expectedArgs, expectedResult any, method string) (string, error) {
	return defaultInstaller.Sig(self, expectedArgs, expectedResult, method)
}

// SigSelf declares a signature on the singleton class of self, which for a
// class means its class-level methods.
func SigSelf(self runtime.Receiver, expectedArgs, expectedResult any, method string) (string, error) {
	return defaultInstaller.SigSelf(self, expectedArgs, expectedResult, method)
}

// MustSig is Sig that panics on a configuration error.
func MustSig(self runtime.Receiver, expectedArgs, expectedResult any, method string) string {
	name, err := Sig(self, expectedArgs, expectedResult, method)
	if err != nil {
		panic(err)
	}
	return name
}

// MustSigSelf is SigSelf that panics on a configuration error.
func MustSigSelf(self runtime.Receiver, expectedArgs, expectedResult any, method string) string {
	name, err := SigSelf(self, expectedArgs, expectedResult, method)
	if err != nil {
		panic(err)
	}
	return name
}
