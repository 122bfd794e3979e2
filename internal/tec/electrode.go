package tec

import (
	"fmt"
	"math"

	"github.com/san-kum/tecsim/internal/units"
)

// Electrode is one electrode's state in canonical units. The zero value
// is not valid; use NewElectrode or ElectrodeFromArgs.
type Electrode struct {
	temperature float64
	barrier     float64
	richardson  float64
	emissivity  float64
	voltage     float64
	position    float64
}

// ElectrodeParams carries unit-tagged inputs. Bare (dimensionless)
// numbers are read in canonical units. Zero-value quantities fall back to
// the defaults of DefaultElectrodeArgs; temperature and barrier are
// required.
type ElectrodeParams struct {
	Temperature units.Quantity `yaml:"temperature" json:"temperature"`
	Barrier     units.Quantity `yaml:"barrier" json:"barrier"`
	Richardson  units.Quantity `yaml:"richardson" json:"richardson"`
	Emissivity  units.Quantity `yaml:"emissivity" json:"emissivity"`
	Voltage     units.Quantity `yaml:"voltage" json:"voltage"`
	Position    units.Quantity `yaml:"position" json:"position"`
}

// ElectrodeArgs is the flattened form, plain numbers in K, eV,
// A/(cm² K²), 1, V and µm.
type ElectrodeArgs struct {
	Temperature float64 `yaml:"temperature" json:"temperature"`
	Barrier     float64 `yaml:"barrier" json:"barrier"`
	Richardson  float64 `yaml:"richardson" json:"richardson"`
	Emissivity  float64 `yaml:"emissivity" json:"emissivity"`
	Voltage     float64 `yaml:"voltage" json:"voltage"`
	Position    float64 `yaml:"position" json:"position"`
}

// DefaultElectrodeArgs leaves temperature and barrier unset (NaN) so that
// omitting them fails validation.
func DefaultElectrodeArgs() ElectrodeArgs {
	return ElectrodeArgs{
		Temperature: math.NaN(),
		Barrier:     math.NaN(),
		Richardson:  FreeElectronRichardson,
		Emissivity:  1,
		Voltage:     0,
		Position:    0,
	}
}

func ElectrodeFromArgs(a ElectrodeArgs) (Electrode, error) {
	e := Electrode{
		temperature: a.Temperature,
		barrier:     a.Barrier,
		richardson:  a.Richardson,
		emissivity:  a.Emissivity,
		voltage:     a.Voltage,
		position:    a.Position,
	}
	if err := e.validate(); err != nil {
		return Electrode{}, err
	}
	return e, nil
}

func NewElectrode(p ElectrodeParams) (Electrode, error) {
	def := DefaultElectrodeArgs()
	var a ElectrodeArgs
	var err error
	if a.Temperature, err = canonicalValue("temperature", p.Temperature, units.Temperature, def.Temperature); err != nil {
		return Electrode{}, err
	}
	if a.Barrier, err = canonicalValue("barrier", p.Barrier, units.Energy, def.Barrier); err != nil {
		return Electrode{}, err
	}
	if a.Richardson, err = canonicalValue("richardson", p.Richardson, units.Richardson, def.Richardson); err != nil {
		return Electrode{}, err
	}
	if a.Emissivity, err = canonicalValue("emissivity", p.Emissivity, units.Dimensionless, def.Emissivity); err != nil {
		return Electrode{}, err
	}
	if a.Voltage, err = canonicalValue("voltage", p.Voltage, units.Voltage, def.Voltage); err != nil {
		return Electrode{}, err
	}
	if a.Position, err = canonicalValue("position", p.Position, units.Length, def.Position); err != nil {
		return Electrode{}, err
	}
	return ElectrodeFromArgs(a)
}

func canonicalValue(field string, q units.Quantity, dim units.Dimension, def float64) (float64, error) {
	if q == (units.Quantity{}) {
		if math.IsNaN(def) {
			return 0, &ValidationError{Field: field, Value: math.NaN(), Constraint: "set"}
		}
		return def, nil
	}
	v, err := q.WithDefault(units.Canonical(dim)).As(dim)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: q.Value, Err: err}
	}
	return v, nil
}

func (e Electrode) validate() error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	switch {
	case !(e.temperature > 0) || math.IsInf(e.temperature, 0):
		return &ValidationError{Field: "temperature", Value: e.temperature, Constraint: "finite and > 0 K"}
	case !finite(e.barrier):
		return &ValidationError{Field: "barrier", Value: e.barrier, Constraint: "finite"}
	case !(e.richardson >= 0) || math.IsInf(e.richardson, 0):
		return &ValidationError{Field: "richardson", Value: e.richardson, Constraint: "finite and >= 0 A/(cm2 K2)"}
	case !(e.emissivity >= 0 && e.emissivity <= 1):
		return &ValidationError{Field: "emissivity", Value: e.emissivity, Constraint: "in [0, 1]"}
	case !finite(e.voltage):
		return &ValidationError{Field: "voltage", Value: e.voltage, Constraint: "finite"}
	case !finite(e.position):
		return &ValidationError{Field: "position", Value: e.position, Constraint: "finite"}
	}
	return nil
}

func (e Electrode) Temperature() float64 { return e.temperature }
func (e Electrode) Barrier() float64     { return e.barrier }
func (e Electrode) Richardson() float64  { return e.richardson }
func (e Electrode) Emissivity() float64  { return e.emissivity }
func (e Electrode) Voltage() float64     { return e.voltage }
func (e Electrode) Position() float64    { return e.position }

// Args returns the flattened form of e.
func (e Electrode) Args() ElectrodeArgs {
	return ElectrodeArgs{
		Temperature: e.temperature,
		Barrier:     e.barrier,
		Richardson:  e.richardson,
		Emissivity:  e.emissivity,
		Voltage:     e.voltage,
		Position:    e.position,
	}
}

func (e Electrode) with(mutate func(a *ElectrodeArgs)) (Electrode, error) {
	a := e.Args()
	mutate(&a)
	return ElectrodeFromArgs(a)
}

func (e Electrode) WithTemperature(v float64) (Electrode, error) {
	return e.with(func(a *ElectrodeArgs) { a.Temperature = v })
}

func (e Electrode) WithBarrier(v float64) (Electrode, error) {
	return e.with(func(a *ElectrodeArgs) { a.Barrier = v })
}

func (e Electrode) WithRichardson(v float64) (Electrode, error) {
	return e.with(func(a *ElectrodeArgs) { a.Richardson = v })
}

func (e Electrode) WithEmissivity(v float64) (Electrode, error) {
	return e.with(func(a *ElectrodeArgs) { a.Emissivity = v })
}

func (e Electrode) WithVoltage(v float64) (Electrode, error) {
	return e.with(func(a *ElectrodeArgs) { a.Voltage = v })
}

func (e Electrode) WithPosition(v float64) (Electrode, error) {
	return e.with(func(a *ElectrodeArgs) { a.Position = v })
}

// Motive is the vacuum level at the surface, barrier + e·voltage, in eV.
func (e Electrode) Motive() float64 {
	return e.barrier + e.voltage
}

// SaturationCurrentDensity is the Richardson-Dushman emission in A/cm².
func (e Electrode) SaturationCurrentDensity() float64 {
	return RichardsonDushman(e.richardson, e.temperature, e.barrier)
}

func (e Electrode) String() string {
	return fmt.Sprintf("T=%g K, phi=%g eV, A=%g A/(cm2 K2), eps=%g, V=%g V, x=%g um",
		e.temperature, e.barrier, e.richardson, e.emissivity, e.voltage, e.position)
}
