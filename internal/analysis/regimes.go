package analysis

import (
	"github.com/san-kum/tecsim/internal/tec"
)

// Boundaries are the output voltages that separate the accelerating,
// space-charge limited and retarding regimes of a Langmuir device.
type Boundaries struct {
	Saturation tec.OperatingPoint
	Critical   tec.OperatingPoint
}

// RegimeBoundaries fails with a DomainError for models without space
// charge or emitters that do not emit.
func RegimeBoundaries(d *tec.Device) (Boundaries, error) {
	m, ok := d.Model().(tec.LangmuirModel)
	if !ok {
		return Boundaries{}, &tec.DomainError{Quantity: "regime boundaries", Reason: "model " + d.Model().Name() + " has no space charge"}
	}
	sat, err := m.SaturationPoint(d)
	if err != nil {
		return Boundaries{}, err
	}
	crit, err := m.CriticalPoint(d)
	if err != nil {
		return Boundaries{}, err
	}
	return Boundaries{Saturation: sat, Critical: crit}, nil
}

// Transitions lists the sweep indices where the regime changes.
func Transitions(points []Point) []int {
	var idx []int
	for i := 1; i < len(points); i++ {
		if points[i].Regime != points[i-1].Regime {
			idx = append(idx, i)
		}
	}
	return idx
}
