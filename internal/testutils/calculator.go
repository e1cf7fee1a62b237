// Package testutils provides object model fixtures shared by tests.
package testutils

import (
	"errors"
	"fmt"

	"github.com/effectus/sig/runtime"
)

// ErrDivideByZero is returned by the fixture's div method.
var ErrDivideByZero = errors.New("divide by zero")

// NewCalculator builds a fresh Calculator class:
//
//	sum(x, y)       x + y
//	key(arg, word:) the word keyword
//	half(x)         x / 2, integer division for integers
//	div(x, y)       x / y, ErrDivideByZero for y == 0
//	secret()        private, 42
//	shared()        protected, 7
//	reveal()        calls secret without a receiver
//	peek(other)     calls shared on other
//	mul(a, b)       class-level, a * b
func NewCalculator() *runtime.Class {
	calc := runtime.NewClass("Calculator", nil)

	calc.Define("sum", func(c *runtime.Call) (any, error) {
		return Add(c.Arg(0), c.Arg(1))
	})
	calc.Define("key", func(c *runtime.Call) (any, error) {
		word, _ := c.Kwarg("word")
		return word, nil
	})
	calc.Define("half", func(c *runtime.Call) (any, error) {
		switch x := c.Arg(0).(type) {
		case int:
			return x / 2, nil
		case float64:
			return x / 2, nil
		}
		return nil, fmt.Errorf("cannot halve %v", c.Arg(0))
	})
	calc.Define("div", func(c *runtime.Call) (any, error) {
		x, _ := c.Arg(0).(int)
		y, _ := c.Arg(1).(int)
		if y == 0 {
			return nil, ErrDivideByZero
		}
		return x / y, nil
	})
	calc.DefineWithVisibility("secret", func(*runtime.Call) (any, error) { return 42, nil }, runtime.Private)
	calc.DefineWithVisibility("shared", func(*runtime.Call) (any, error) { return 7, nil }, runtime.Protected)
	calc.Define("reveal", func(c *runtime.Call) (any, error) {
		return c.Invoke("secret")
	})
	calc.Define("peek", func(c *runtime.Call) (any, error) {
		other, ok := c.Arg(0).(runtime.Receiver)
		if !ok {
			return nil, fmt.Errorf("peek needs a receiver")
		}
		return c.SendTo(other, "shared")
	})

	calc.Singleton().Define("mul", func(c *runtime.Call) (any, error) {
		a, _ := c.Arg(0).(int)
		b, _ := c.Arg(1).(int)
		return a * b, nil
	})
	return calc
}

// Add sums two ints, two floats or an int and a float.
func Add(x, y any) (any, error) {
	switch a := x.(type) {
	case int:
		switch b := y.(type) {
		case int:
			return a + b, nil
		case float64:
			return float64(a) + b, nil
		}
	case float64:
		switch b := y.(type) {
		case int:
			return a + float64(b), nil
		case float64:
			return a + b, nil
		}
	}
	return nil, fmt.Errorf("cannot add %v and %v", x, y)
}
