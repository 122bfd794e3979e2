package langmuir

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/tecsim/internal/integrators"
)

var (
	ErrOutOfDomain = errors.New("langmuir: position beyond the LHS asymptote")
	ErrNegative    = errors.New("langmuir: negative dimensionless motive")
	ErrTable       = errors.New("langmuir: table construction failed")
)

type Branch int

const (
	// LHS is the emitter side of the motive maximum (ξ < 0).
	LHS Branch = iota
	// RHS is the collector side (ξ > 0).
	RHS
)

func (b Branch) String() string {
	if b == LHS {
		return "lhs"
	}
	return "rhs"
}

type Config struct {
	Integrator    string  `yaml:"integrator"`
	Interpolation string  `yaml:"interpolation"`
	MinStep       float64 `yaml:"min_step"`
	RelStep       float64 `yaml:"rel_step"`
	MaxMotiveLHS  float64 `yaml:"max_motive_lhs"`
	MaxMotiveRHS  float64 `yaml:"max_motive_rhs"`
}

func DefaultConfig() Config {
	return Config{
		Integrator:    "rk4",
		Interpolation: "fritsch-butland",
		MinStep:       2e-3,
		RelStep:       2e-3,
		MaxMotiveLHS:  25,
		MaxMotiveRHS:  1e6,
	}
}

var interpolators = map[string]func() interp.FittablePredictor{
	"linear":          func() interp.FittablePredictor { return &interp.PiecewiseLinear{} },
	"akima":           func() interp.FittablePredictor { return &interp.AkimaSpline{} },
	"fritsch-butland": func() interp.FittablePredictor { return &interp.FritschButland{} },
}

func Interpolations() []string {
	names := make([]string, 0, len(interpolators))
	for name := range interpolators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type branchTable struct {
	u, xi    []float64
	position interp.FittablePredictor // u -> ξ
	inverse  interp.FittablePredictor // |ξ| -> u
}

func (bt *branchTable) uMax() float64  { return bt.u[len(bt.u)-1] }
func (bt *branchTable) xiEnd() float64 { return bt.xi[len(bt.xi)-1] }

// Table holds both branches of Langmuir's dimensionless space-charge
// solution, γ(ξ), as interpolants in u = √γ. Lookups beyond the
// tabulated range use the asymptotic forms of each branch. A Table is
// read-only after construction and safe for concurrent use.
type Table struct {
	cfg       Config
	lhs, rhs  branchTable
	asymptote float64
}

func NewTable(cfg Config) (*Table, error) {
	d := DefaultConfig()
	if cfg.Integrator == "" {
		cfg.Integrator = d.Integrator
	}
	if cfg.Interpolation == "" {
		cfg.Interpolation = d.Interpolation
	}
	if cfg.MinStep <= 0 {
		cfg.MinStep = d.MinStep
	}
	if cfg.RelStep <= 0 {
		cfg.RelStep = d.RelStep
	}
	if cfg.MaxMotiveLHS <= 0 {
		cfg.MaxMotiveLHS = d.MaxMotiveLHS
	}
	if cfg.MaxMotiveRHS <= 0 {
		cfg.MaxMotiveRHS = d.MaxMotiveRHS
	}
	if _, ok := interpolators[cfg.Interpolation]; !ok {
		return nil, fmt.Errorf("%w: unknown interpolation %q", ErrTable, cfg.Interpolation)
	}

	t := &Table{cfg: cfg}
	var err error
	if t.lhs, err = buildBranch(LHS, math.Sqrt(cfg.MaxMotiveLHS), cfg); err != nil {
		return nil, err
	}
	if t.rhs, err = buildBranch(RHS, math.Sqrt(cfg.MaxMotiveRHS), cfg); err != nil {
		return nil, err
	}
	um := t.lhs.uMax()
	t.asymptote = t.lhs.xiEnd() - math.Sqrt2*math.Exp(-um*um/2)
	return t, nil
}

// buildBranch integrates dξ/du on a grid that is uniform (MinStep) near
// u = 0 and geometric (RelStep) further out. The grid itself is generated
// by integrating du/dw in the same state vector with unit steps in w.
func buildBranch(b Branch, uMax float64, cfg Config) (branchTable, error) {
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return branchTable{}, fmt.Errorf("%w: %v", ErrTable, err)
	}
	sign := 1.0
	if b == LHS {
		sign = -1
	}
	sys := integrators.Func(func(x integrators.State, w float64) integrators.State {
		du := math.Max(cfg.MinStep, cfg.RelStep*x[0])
		return integrators.State{du, sign * slope(x[0], b) * du}
	})

	icfg := integrators.DefaultConfig()
	icfg.Dt = 1
	icfg.MaxDt = 0
	icfg.Adaptive = false
	steps := uMax/cfg.MinStep + 2
	icfg.MaxSteps = int(steps) + 1

	tr, err := integrators.Solve(sys, integ, integrators.State{0, 0}, 0, steps, icfg, func(w float64, x integrators.State) bool {
		return x[0] >= uMax
	})
	if err != nil {
		return branchTable{}, fmt.Errorf("%w: %s branch: %v", ErrTable, b, err)
	}

	bt := branchTable{
		u:  make([]float64, 0, len(tr.States)),
		xi: make([]float64, 0, len(tr.States)),
	}
	for _, x := range tr.States {
		n := len(bt.u)
		if n > 0 && (x[0] <= bt.u[n-1] || math.Abs(x[1]) <= math.Abs(bt.xi[n-1])) {
			break
		}
		bt.u = append(bt.u, x[0])
		bt.xi = append(bt.xi, x[1])
	}
	if len(bt.u) < 3 {
		return branchTable{}, fmt.Errorf("%w: %s branch has %d points", ErrTable, b, len(bt.u))
	}

	absXi := make([]float64, len(bt.xi))
	for i, v := range bt.xi {
		absXi[i] = math.Abs(v)
	}
	bt.position = interpolators[cfg.Interpolation]()
	if err := bt.position.Fit(bt.u, bt.xi); err != nil {
		return branchTable{}, fmt.Errorf("%w: %v", ErrTable, err)
	}
	bt.inverse = interpolators[cfg.Interpolation]()
	if err := bt.inverse.Fit(absXi, bt.u); err != nil {
		return branchTable{}, fmt.Errorf("%w: %v", ErrTable, err)
	}
	return bt, nil
}

// Asymptote is the limit of ξ on the LHS branch as γ → ∞ (about -2.5539).
func (t *Table) Asymptote() float64 { return t.asymptote }

func (t *Table) Config() Config { return t.cfg }

// Position returns ξ(γ) on branch b; negative on LHS.
func (t *Table) Position(gamma float64, b Branch) (float64, error) {
	if gamma < 0 || math.IsNaN(gamma) {
		return math.NaN(), fmt.Errorf("%w: %g", ErrNegative, gamma)
	}
	u := math.Sqrt(gamma)
	if b == LHS {
		if u > t.lhs.uMax() {
			return t.asymptote + math.Sqrt2*math.Exp(-gamma/2), nil
		}
		return t.lhs.position.Predict(u), nil
	}
	if u > t.rhs.uMax() {
		// Child-Langmuir scaling γ ∝ ξ^(4/3)
		return t.rhs.xiEnd() * math.Pow(u/t.rhs.uMax(), 1.5), nil
	}
	return t.rhs.position.Predict(u), nil
}

func (t *Table) PositionLHS(gamma float64) (float64, error) { return t.Position(gamma, LHS) }
func (t *Table) PositionRHS(gamma float64) (float64, error) { return t.Position(gamma, RHS) }

// Motive returns γ(ξ), choosing the branch from the sign of ξ. Positions
// at or beyond the LHS asymptote have no solution.
func (t *Table) Motive(xi float64) (float64, error) {
	if math.IsNaN(xi) {
		return math.NaN(), fmt.Errorf("%w: NaN position", ErrOutOfDomain)
	}
	if xi >= 0 {
		if xi > t.rhs.xiEnd() {
			um := t.rhs.uMax()
			return um * um * math.Pow(xi/t.rhs.xiEnd(), 4.0/3.0), nil
		}
		u := t.rhs.inverse.Predict(xi)
		return u * u, nil
	}
	if xi <= t.asymptote {
		return math.Inf(1), fmt.Errorf("%w: ξ = %g, asymptote %g", ErrOutOfDomain, xi, t.asymptote)
	}
	if xi < t.lhs.xiEnd() {
		return -2 * math.Log((xi-t.asymptote)/math.Sqrt2), nil
	}
	u := t.lhs.inverse.Predict(-xi)
	return u * u, nil
}

// Points returns copies of the tabulated (γ, ξ) pairs of a branch.
func (t *Table) Points(b Branch) (gamma, xi []float64) {
	bt := &t.rhs
	if b == LHS {
		bt = &t.lhs
	}
	gamma = make([]float64, len(bt.u))
	for i, u := range bt.u {
		gamma[i] = u * u
	}
	xi = append([]float64(nil), bt.xi...)
	return gamma, xi
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// DefaultTable is built on first use with DefaultConfig. A build failure is
// cached and returned on every call.
func DefaultTable() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = NewTable(DefaultConfig())
	})
	return defaultTable, defaultErr
}
