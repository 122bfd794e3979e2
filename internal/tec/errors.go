package tec

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates an electrode or device field outside its
	// physical domain.
	ErrValidation = errors.New("tec: validation failed")

	// ErrGeometry indicates a zero or negative interelectrode gap.
	ErrGeometry = errors.New("tec: collector must sit beyond the emitter")

	// ErrConvergence indicates an iterative solver hit its iteration cap.
	ErrConvergence = errors.New("tec: iteration did not converge")

	// ErrDomain indicates a quantity requested where its formula is not
	// defined.
	ErrDomain = errors.New("tec: outside model domain")

	ErrUnknownModel = errors.New("tec: unknown model")
	ErrUnknownField = errors.New("tec: unknown field")
)

type ValidationError struct {
	Field      string
	Value      float64
	Constraint string
	Err        error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tec: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("tec: %s = %g, must be %s", e.Field, e.Value, e.Constraint)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

type GeometryError struct {
	EmitterPosition   float64
	CollectorPosition float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("tec: gap %g um (emitter at %g um, collector at %g um) must be positive",
		e.CollectorPosition-e.EmitterPosition, e.EmitterPosition, e.CollectorPosition)
}

func (e *GeometryError) Unwrap() []error {
	return []error{ErrGeometry, ErrValidation}
}

type ConvergenceError struct {
	Op         string
	Iterations int
	Err        error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("tec: %s did not converge after %d iterations: %v", e.Op, e.Iterations, e.Err)
}

func (e *ConvergenceError) Unwrap() []error {
	return []error{ErrConvergence, e.Err}
}

type DomainError struct {
	Quantity string
	Reason   string
	Err      error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("tec: %s undefined: %s", e.Quantity, e.Reason)
}

func (e *DomainError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDomain, e.Err}
	}
	return []error{ErrDomain}
}
