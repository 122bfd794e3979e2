// Package optim searches the collector voltage that maximizes a
// converter metric.
//
// The search is a coarse parallel grid followed by Brent's bounded
// method inside the best grid cell. It assumes the metric is unimodal
// over the voltage domain; where it is not, the result is a local
// maximum and no global guarantee is made.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/san-kum/tecsim/internal/numeric"
	"github.com/san-kum/tecsim/internal/perf"
	"github.com/san-kum/tecsim/internal/tec"
)

var ErrUnknownTarget = errors.New("optim: unknown target")

type Target int

const (
	Power Target = iota
	Efficiency
)

func (t Target) String() string {
	switch t {
	case Power:
		return "output_power_density"
	case Efficiency:
		return "total_efficiency"
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// ParseTarget accepts the metric name or its short form.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "power", "output_power_density":
		return Power, nil
	case "efficiency", "total_efficiency":
		return Efficiency, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

func (t Target) metric() (perf.Metric, error) {
	return perf.MetricByName(t.String())
}

type Config struct {
	Target Target

	// MinVoltage and MaxVoltage bound the collector voltage in V. A zero
	// bound is automatic: VE below, VE + (φE + φC)/e above.
	MinVoltage float64
	MaxVoltage float64

	// Tolerance is the absolute voltage tolerance in V.
	Tolerance float64
	MaxTrials int
	// GridPoints is the size of the bracketing grid; negative disables it.
	GridPoints   int
	Workers      int
	RetainDevice bool
}

func DefaultConfig() Config {
	return Config{
		Target:     Power,
		Tolerance:  1e-6,
		MaxTrials:  500,
		GridPoints: 16,
	}
}

type Result struct {
	Target  Target
	Voltage float64 // collector voltage
	Value   float64
	Trials  int

	// Device is the device biased at Voltage, set with RetainDevice.
	Device *tec.Device
}

type Optimizer struct {
	cfg Config
}

func New(cfg Config) *Optimizer {
	def := DefaultConfig()
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.MaxTrials <= 0 {
		cfg.MaxTrials = def.MaxTrials
	}
	if cfg.GridPoints == 0 {
		cfg.GridPoints = def.GridPoints
	}
	return &Optimizer{cfg: cfg}
}

func (o *Optimizer) Config() Config { return o.cfg }

// Domain returns the collector voltage interval searched for d.
// Each unset bound is defaulted on its own; an empty interval is
// rejected by Maximize.
func (o *Optimizer) Domain(d *tec.Device) (lo, hi float64) {
	ve := d.Emitter().Voltage()
	lo, hi = o.cfg.MinVoltage, o.cfg.MaxVoltage
	if lo == 0 {
		lo = ve
	}
	if hi == 0 {
		hi = ve + d.Emitter().Barrier() + d.Collector().Barrier()
	}
	return lo, hi
}

// Maximize finds the collector voltage of d that maximizes the target.
func (o *Optimizer) Maximize(ctx context.Context, d *tec.Device) (Result, error) {
	m, err := o.cfg.Target.metric()
	if err != nil {
		return Result{}, err
	}
	lo, hi := o.Domain(d)
	if !(lo < hi) {
		return Result{}, &tec.DomainError{Quantity: "optimizer domain", Reason: fmt.Sprintf("[%g, %g] is empty", lo, hi)}
	}

	var (
		trials     atomic.Int64
		infeasible atomic.Pointer[error]
	)
	eval := func(ctx context.Context, v float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return math.NaN(), err
		}
		trials.Add(1)
		dv, err := d.WithCollectorVoltage(v)
		if err != nil {
			return math.NaN(), err
		}
		val, err := m.Value(dv)
		if errors.Is(err, tec.ErrDomain) {
			infeasible.Store(&err)
			return math.Inf(-1), nil
		}
		return val, err
	}

	if o.cfg.GridPoints > 0 {
		if o.cfg.GridPoints >= o.cfg.MaxTrials {
			return Result{}, &tec.ConvergenceError{Op: "voltage search", Iterations: o.cfg.GridPoints, Err: numeric.ErrMaxIter}
		}
		grid := NewGridSearch(lo, hi, o.cfg.GridPoints, o.cfg.Workers)
		best, _, err := grid.Search(ctx, eval)
		if err != nil {
			return Result{}, err
		}
		if best < 0 {
			return Result{}, noFeasible(infeasible.Load())
		}
		lo, hi = grid.Bracket(best)
	}

	var evalErr error
	budget := o.cfg.MaxTrials - int(trials.Load())
	ext, err := numeric.Maximize(func(v float64) float64 {
		val, err := eval(ctx, v)
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.NaN()
		}
		return val
	}, lo, hi, o.cfg.Tolerance, budget)
	if evalErr != nil {
		return Result{}, evalErr
	}
	if errors.Is(err, numeric.ErrMaxIter) {
		return Result{}, &tec.ConvergenceError{Op: "voltage search", Iterations: int(trials.Load()), Err: err}
	}
	if err != nil {
		return Result{}, fmt.Errorf("optim: %w", err)
	}
	if math.IsInf(ext.F, -1) {
		return Result{}, noFeasible(infeasible.Load())
	}

	res := Result{
		Target:  o.cfg.Target,
		Voltage: ext.X,
		Value:   ext.F,
		Trials:  int(trials.Load()),
	}
	if o.cfg.RetainDevice {
		if res.Device, err = d.WithCollectorVoltage(ext.X); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func noFeasible(cause *error) error {
	if cause != nil {
		return fmt.Errorf("optim: no feasible voltage: %w", *cause)
	}
	return &tec.DomainError{Quantity: "optimum", Reason: "no feasible voltage"}
}
