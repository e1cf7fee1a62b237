// Package none has the declaration surface of package sig without any
// checking. Swap the import to strip signature checks from a build.
package none

import "github.com/effectus/sig/runtime"

// Declarer installs nothing.
type Declarer struct{}

// Define returns method.
func (Declarer) Define(_ *runtime.Class, _, _ any, method string) (string, error) {
	return method, nil
}

// Sig returns method.
func (Declarer) Sig(_ runtime.Receiver, _, _ any, method string) (string, error) {
	return method, nil
}

// SigSelf returns method.
func (Declarer) SigSelf(_ runtime.Receiver, _, _ any, method string) (string, error) {
	return method, nil
}

// Define returns method.
func Define(target *runtime.Class, expectedArgs, expectedResult any, method string) (string, error) {
	return Declarer{}.Define(target, expectedArgs, expectedResult, method)
}

// Sig returns method.
func Sig(self runtime.Receiver, expectedArgs, expectedResult any, method string) (string, error) {
	return Declarer{}.Sig(self, expectedArgs, expectedResult, method)
}

// SigSelf returns method.
func SigSelf(self runtime.Receiver, expectedArgs, expectedResult any, method string) (string, error) {
	return Declarer{}.SigSelf(self, expectedArgs, expectedResult, method)
}

// MustSig returns method.
func MustSig(_ runtime.Receiver, _, _ any, method string) string {
	return method
}

// MustSigSelf returns method.
func MustSigSelf(_ runtime.Receiver, _, _ any, method string) string {
	return method
}
