package integrators

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrUnknownIntegrator = errors.New("integrators: unknown integrator")
	ErrStepRejected      = errors.New("integrators: step rejected by error control")
	ErrStepTooSmall      = errors.New("integrators: adaptive step below minimum")
	ErrInvalidState      = errors.New("integrators: invalid state (NaN or Inf detected)")
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a first-order ODE x' = f(x, t).
type System interface {
	Derive(x State, t float64) State
}

// Func adapts a plain function to System.
type Func func(x State, t float64) State

func (f Func) Derive(x State, t float64) State { return f(x, t) }

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// Adaptive integrators estimate their local error and propose the next
// step size. A step whose error exceeds tol is returned with
// ErrStepRejected and must be retried with the proposed size.
type Adaptive interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

var registry = map[string]func() Integrator{
	"rk4":  func() Integrator { return NewRK4() },
	"rk45": func() Integrator { return NewRK45() },
}

func New(name string) (Integrator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
	}
	return factory(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
