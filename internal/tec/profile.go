package tec

import (
	"fmt"
	"math"

	"github.com/san-kum/tecsim/internal/langmuir"
)

type Regime int

const (
	// Accelerating: the motive falls monotonically from the emitter.
	Accelerating Regime = iota
	// SpaceChargeLimited: a motive maximum forms at or beyond the emitter
	// surface and limits the current.
	SpaceChargeLimited
	// Retarding: the collector vacuum level is the highest point.
	Retarding
)

func (r Regime) String() string {
	switch r {
	case Accelerating:
		return "accelerating"
	case SpaceChargeLimited:
		return "space charge limited"
	case Retarding:
		return "retarding"
	}
	return fmt.Sprintf("regime(%d)", int(r))
}

// Profile is the motive of one device. Energies are in eV relative to
// the electrical ground, positions in µm. A Profile never changes after
// it is built.
type Profile struct {
	Model             string
	Regime            Regime
	EmitterPosition   float64
	CollectorPosition float64
	EmitterMotive     float64
	CollectorMotive   float64
	MaxMotive         float64
	MaxPosition       float64
	// VirtualCathode is set when the maximum lies strictly inside the gap.
	VirtualCathode bool

	// space-charge shape, used only in the SpaceChargeLimited regime
	table  *langmuir.Table
	kT     float64
	length float64
}

func linearProfile(model string, emitter, collector Electrode) *Profile {
	p := &Profile{
		Model:             model,
		EmitterPosition:   emitter.Position(),
		CollectorPosition: collector.Position(),
		EmitterMotive:     emitter.Motive(),
		CollectorMotive:   collector.Motive(),
	}
	if p.EmitterMotive >= p.CollectorMotive {
		p.Regime = Accelerating
		p.MaxMotive = p.EmitterMotive
		p.MaxPosition = p.EmitterPosition
	} else {
		p.Regime = Retarding
		p.MaxMotive = p.CollectorMotive
		p.MaxPosition = p.CollectorPosition
	}
	return p
}

// At returns the motive at position x (µm), which must lie in the gap.
func (p *Profile) At(x float64) (float64, error) {
	gap := p.CollectorPosition - p.EmitterPosition
	slack := 1e-12 * math.Max(1, math.Abs(gap))
	if math.IsNaN(x) || x < p.EmitterPosition-slack || x > p.CollectorPosition+slack {
		return math.NaN(), &DomainError{
			Quantity: "motive",
			Reason:   fmt.Sprintf("position %g um outside [%g, %g]", x, p.EmitterPosition, p.CollectorPosition),
		}
	}

	switch {
	case x <= p.EmitterPosition:
		return p.EmitterMotive, nil
	case x >= p.CollectorPosition:
		return p.CollectorMotive, nil
	}

	if p.Regime != SpaceChargeLimited || p.table == nil {
		frac := (x - p.EmitterPosition) / gap
		return p.EmitterMotive + frac*(p.CollectorMotive-p.EmitterMotive), nil
	}

	gamma, err := p.table.Motive((x - p.MaxPosition) / p.length)
	if err != nil {
		return math.NaN(), &DomainError{Quantity: "motive", Reason: err.Error(), Err: err}
	}
	return p.MaxMotive - gamma*p.kT, nil
}

// Sample evaluates the motive at n evenly spaced points across the gap,
// electrode surfaces included.
func (p *Profile) Sample(n int) (xs, motive []float64, err error) {
	if n < 2 {
		n = 2
	}
	xs = make([]float64, n)
	motive = make([]float64, n)
	step := (p.CollectorPosition - p.EmitterPosition) / float64(n-1)
	for i := range xs {
		x := p.EmitterPosition + float64(i)*step
		if i == n-1 {
			x = p.CollectorPosition
		}
		xs[i] = x
		if motive[i], err = p.At(x); err != nil {
			return nil, nil, err
		}
	}
	return xs, motive, nil
}
