package integrators

import (
	"errors"
	"fmt"
	"math"
)

type Config struct {
	Dt        float64
	Tolerance float64
	MinDt     float64
	MaxDt     float64
	MaxSteps  int
	Adaptive  bool
}

func DefaultConfig() Config {
	return Config{
		Dt:        1e-3,
		Tolerance: 1e-10,
		MinDt:     1e-12,
		MaxDt:     0.1,
		MaxSteps:  1_000_000,
		Adaptive:  true,
	}
}

type Trajectory struct {
	Times  []float64
	States []State
}

func (tr *Trajectory) Final() (float64, State) {
	last := len(tr.Times) - 1
	return tr.Times[last], tr.States[last]
}

// Solve integrates sys from t0 to t1, which may be less than t0.
// Adaptive stepping uses the integrator's own error estimate when it has
// one and step doubling otherwise, and is capped by MaxDt. Fixed stepping
// always advances by Dt. The stop callback, when non-nil, ends
// the integration early after the step on which it returns true.
func Solve(sys System, integ Integrator, x0 State, t0, t1 float64, cfg Config, stop func(t float64, x State) bool) (*Trajectory, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return nil, fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultConfig().MaxSteps
	}

	dir := 1.0
	if t1 < t0 {
		dir = -1
	}
	span := math.Abs(t1 - t0)

	tr := &Trajectory{
		Times:  []float64{t0},
		States: []State{x0.Clone()},
	}

	x := x0.Clone()
	t := t0
	dt := cfg.Dt
	for steps := 0; math.Abs(t-t0) < span; steps++ {
		if steps >= cfg.MaxSteps {
			return tr, fmt.Errorf("integration stopped after %d steps at t=%g", steps, t)
		}
		h := math.Min(dt, span-math.Abs(t-t0))

		var newX State
		var next float64
		var err error
		if cfg.Adaptive {
			newX, h, next, err = adaptiveStep(sys, integ, x, t, h*dir, cfg)
			if err != nil {
				return tr, err
			}
			h = math.Abs(h)
		} else {
			newX = integ.Step(sys, x, t, h*dir)
			next = dt
		}

		if !newX.IsValid() {
			return tr, fmt.Errorf("%w at t=%g", ErrInvalidState, t)
		}

		x = newX
		t += dir * h
		dt = next
		if cfg.Adaptive && cfg.MaxDt > 0 && dt > cfg.MaxDt {
			dt = cfg.MaxDt
		}

		tr.Times = append(tr.Times, t)
		tr.States = append(tr.States, x.Clone())

		if stop != nil && stop(t, x) {
			break
		}
	}

	return tr, nil
}

// adaptiveStep returns the accepted state, the signed step actually
// taken and the magnitude proposed for the next step.
func adaptiveStep(sys System, integ Integrator, x State, t, h float64, cfg Config) (State, float64, float64, error) {
	if adaptive, ok := integ.(Adaptive); ok {
		for {
			newX, proposed, err := adaptive.StepAdaptive(sys, x, t, h, cfg.Tolerance)
			if err == nil {
				return newX, h, math.Abs(proposed), nil
			}
			if !errors.Is(err, ErrStepRejected) {
				return nil, 0, 0, err
			}
			if math.Abs(proposed) < cfg.MinDt {
				return nil, 0, 0, fmt.Errorf("%w at t=%g", ErrStepTooSmall, t)
			}
			h = proposed
		}
	}

	for {
		x1 := integ.Step(sys, x, t, h)
		xHalf := integ.Step(sys, x, t, h/2)
		x2 := integ.Step(sys, xHalf, t+h/2, h/2)

		errNorm := 0.0
		for i := range x1 {
			d := x1[i] - x2[i]
			errNorm += d * d
		}
		errNorm = math.Sqrt(errNorm)

		if errNorm > cfg.Tolerance {
			if math.Abs(h)/2 < cfg.MinDt {
				return nil, 0, 0, fmt.Errorf("%w at t=%g", ErrStepTooSmall, t)
			}
			h /= 2
			continue
		}

		next := math.Abs(h)
		if errNorm < cfg.Tolerance/10 {
			next *= 2
		}
		return x2, h, next, nil
	}
}
