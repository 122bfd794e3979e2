package tec

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/tecsim/internal/langmuir"
	"github.com/san-kum/tecsim/internal/numeric"
)

// rootTolerance bounds the dimensionless emitter barrier γE searches.
var rootTolerance = numeric.Tolerance{XTol: 1e-12, RTol: 1e-14, MaxIter: 100}

// OperatingPoint is a regime boundary of a space-charge device.
type OperatingPoint struct {
	Voltage        float64 // V, collector relative to emitter
	CurrentDensity float64 // A/cm²
	EmitterGamma   float64 // dimensionless barrier at the emitter
	CollectorGamma float64 // dimensionless barrier at the collector
}

type spaceCharge struct {
	table *langmuir.Table
	d     *Device
	jsat  float64
	kT    float64
	xiSat float64 // gap in units of x0(Jsat)
}

func (m LangmuirModel) prepare(d *Device) (spaceCharge, error) {
	table, err := m.table()
	if err != nil {
		return spaceCharge{}, err
	}
	em := d.emitter
	jsat := em.SaturationCurrentDensity()
	sc := spaceCharge{
		table: table,
		d:     d,
		jsat:  jsat,
		kT:    BoltzmannEV * em.Temperature(),
	}
	if jsat > 0 {
		sc.xiSat = d.Gap() / NormalizationLength(em.Temperature(), jsat)
	}
	return sc, nil
}

// SaturationPoint is the output voltage below which the motive maximum
// sits on the emitter and the full saturation current flows.
func (m LangmuirModel) SaturationPoint(d *Device) (OperatingPoint, error) {
	sc, err := m.prepare(d)
	if err != nil {
		return OperatingPoint{}, err
	}
	if sc.jsat == 0 {
		return OperatingPoint{}, &DomainError{Quantity: "saturation point", Reason: "saturation current density is zero"}
	}
	return sc.saturationPoint()
}

// CriticalPoint is the output voltage above which the collector vacuum
// level is the motive maximum.
func (m LangmuirModel) CriticalPoint(d *Device) (OperatingPoint, error) {
	sc, err := m.prepare(d)
	if err != nil {
		return OperatingPoint{}, err
	}
	if sc.jsat == 0 {
		return OperatingPoint{}, &DomainError{Quantity: "critical point", Reason: "saturation current density is zero"}
	}
	return sc.criticalPoint()
}

func (sc spaceCharge) contact() float64 {
	return sc.d.emitter.Barrier() - sc.d.collector.Barrier()
}

func (sc spaceCharge) saturationPoint() (OperatingPoint, error) {
	gammaC, err := sc.table.Motive(sc.xiSat)
	if err != nil {
		return OperatingPoint{}, &DomainError{Quantity: "saturation point", Reason: err.Error(), Err: err}
	}
	return OperatingPoint{
		Voltage:        sc.contact() - gammaC*sc.kT,
		CurrentDensity: sc.jsat,
		CollectorGamma: gammaC,
	}, nil
}

// collectorPosition is ξ at the collector when the emitter barrier is
// gammaE: the gap in units of x0(J) measured from the maximum.
func (sc spaceCharge) collectorPosition(gammaE float64) (float64, error) {
	xiE, err := sc.table.PositionLHS(gammaE)
	if err != nil {
		return math.NaN(), err
	}
	return sc.xiSat*math.Exp(-gammaE/2) + xiE, nil
}

func (sc spaceCharge) criticalPoint() (OperatingPoint, error) {
	f := func(gammaE float64) float64 {
		xiC, err := sc.collectorPosition(gammaE)
		if err != nil {
			return math.NaN()
		}
		return xiC
	}

	hi := 1.0
	for i := 0; f(hi) > 0; i++ {
		if i >= 64 {
			return OperatingPoint{}, &ConvergenceError{Op: "critical point bracket", Iterations: i, Err: numeric.ErrNoBracket}
		}
		hi *= 2
	}

	root, err := numeric.Brent(f, 0, hi, rootTolerance)
	if err != nil {
		return OperatingPoint{}, &ConvergenceError{Op: "critical point", Iterations: root.Iterations, Err: err}
	}
	gammaE := root.X
	return OperatingPoint{
		Voltage:        sc.contact() + gammaE*sc.kT,
		CurrentDensity: sc.jsat * math.Exp(-gammaE),
		EmitterGamma:   gammaE,
	}, nil
}

// voltageAt is the output voltage that puts the emitter barrier at gammaE.
func (sc spaceCharge) voltageAt(gammaE float64) (float64, error) {
	xiC, err := sc.collectorPosition(gammaE)
	if err != nil {
		return math.NaN(), err
	}
	gammaC, err := sc.table.Motive(xiC)
	if err != nil {
		return math.NaN(), err
	}
	return sc.contact() + (gammaE-gammaC)*sc.kT, nil
}

func (m LangmuirModel) solve(d *Device) (*Profile, error) {
	sc, err := m.prepare(d)
	if err != nil {
		return nil, err
	}
	if sc.jsat == 0 {
		return linearProfile(m.Name(), d.emitter, d.collector), nil
	}

	sat, err := sc.saturationPoint()
	if err != nil {
		return nil, err
	}
	crit, err := sc.criticalPoint()
	if err != nil {
		return nil, err
	}

	// Outside [V_S, V_R] the maximum sits on an electrode surface and the
	// linear profile's regime already agrees with the voltage.
	v := d.OutputVoltage()
	if v < sat.Voltage || v > crit.Voltage {
		return linearProfile(m.Name(), d.emitter, d.collector), nil
	}

	target := func(gammaE float64) float64 {
		vt, err := sc.voltageAt(gammaE)
		if err != nil {
			return math.NaN()
		}
		return vt - v
	}
	root, err := numeric.Brent(target, 0, crit.EmitterGamma, rootTolerance)
	if errors.Is(err, numeric.ErrNoBracket) {
		// v sits on a regime boundary to within rounding
		root, err = boundaryRoot(target, crit.EmitterGamma)
	}
	if err != nil {
		if errors.Is(err, numeric.ErrNoBracket) {
			return nil, &DomainError{
				Quantity: "space-charge motive",
				Reason:   fmt.Sprintf("voltage %g V not bracketed by [%g, %g]", v, sat.Voltage, crit.Voltage),
				Err:      err,
			}
		}
		return nil, &ConvergenceError{Op: "space-charge motive", Iterations: root.Iterations, Err: err}
	}

	gammaE := root.X
	current := sc.jsat * math.Exp(-gammaE)
	length := NormalizationLength(d.emitter.Temperature(), current)
	xiE, err := sc.table.PositionLHS(gammaE)
	if err != nil {
		return nil, &DomainError{Quantity: "space-charge motive", Reason: err.Error(), Err: err}
	}

	p := &Profile{
		Model:             m.Name(),
		Regime:            SpaceChargeLimited,
		EmitterPosition:   d.emitter.Position(),
		CollectorPosition: d.collector.Position(),
		EmitterMotive:     d.emitter.Motive(),
		CollectorMotive:   d.collector.Motive(),
		MaxMotive:         d.emitter.Motive() + gammaE*sc.kT,
		MaxPosition:       d.emitter.Position() - xiE*length,
		table:             sc.table,
		kT:                sc.kT,
		length:            length,
	}
	if p.MaxPosition > p.CollectorPosition {
		p.MaxPosition = p.CollectorPosition
	}
	p.VirtualCathode = p.MaxPosition > p.EmitterPosition && p.MaxPosition < p.CollectorPosition
	return p, nil
}

func boundaryRoot(f func(float64) float64, hi float64) (numeric.Root, error) {
	const slack = 1e-9
	lo, fhi := f(0), f(hi)
	switch {
	case math.Abs(lo) <= slack && math.Abs(lo) <= math.Abs(fhi):
		return numeric.Root{X: 0, F: lo}, nil
	case math.Abs(fhi) <= slack:
		return numeric.Root{X: hi, F: fhi}, nil
	}
	return numeric.Root{}, numeric.ErrNoBracket
}
