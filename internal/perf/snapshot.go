package perf

import (
	"errors"
	"math"

	"github.com/san-kum/tecsim/internal/tec"
)

// Snapshot gathers every metric of one device. Efficiencies that are
// undefined for the device are NaN.
type Snapshot struct {
	Model             string       `json:"model" yaml:"model"`
	Regime            string       `json:"regime" yaml:"regime"`
	OutputVoltage     float64      `json:"output_voltage" yaml:"output_voltage"`
	ContactPotential  float64      `json:"contact_potential" yaml:"contact_potential"`
	SaturationCurrent float64      `json:"saturation_current_density" yaml:"saturation_current_density"`
	ForwardCurrent    float64      `json:"forward_current_density" yaml:"forward_current_density"`
	BackCurrent       float64      `json:"back_current_density" yaml:"back_current_density"`
	OutputCurrent     float64      `json:"output_current_density" yaml:"output_current_density"`
	OutputPower       float64      `json:"output_power_density" yaml:"output_power_density"`
	ElectronCooling   float64      `json:"electron_cooling" yaml:"electron_cooling"`
	RadiationLoss     float64      `json:"radiation_loss" yaml:"radiation_loss"`
	HeatSupply        float64      `json:"heat_supply" yaml:"heat_supply"`
	CarnotEfficiency  float64      `json:"carnot_efficiency" yaml:"carnot_efficiency"`
	TotalEfficiency   float64      `json:"total_efficiency" yaml:"total_efficiency"`
	MaxMotive         float64      `json:"max_motive" yaml:"max_motive"`
	MaxPosition       float64      `json:"max_position" yaml:"max_position"`
	VirtualCathode    bool         `json:"virtual_cathode" yaml:"virtual_cathode"`
	Profile           *tec.Profile `json:"-" yaml:"-"`
}

// Evaluate computes all metrics of d. Only motive failures are returned as
// errors; undefined efficiencies are recorded as NaN.
func Evaluate(d *tec.Device) (Snapshot, error) {
	p, err := d.Motive()
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		Model:             d.Model().Name(),
		Regime:            p.Regime.String(),
		OutputVoltage:     d.OutputVoltage(),
		ContactPotential:  d.ContactPotential(),
		SaturationCurrent: SaturationCurrentDensity(d),
		RadiationLoss:     RadiationLoss(d),
		MaxMotive:         p.MaxMotive,
		MaxPosition:       p.MaxPosition,
		VirtualCathode:    p.VirtualCathode,
		Profile:           p,
	}
	if s.ForwardCurrent, err = ForwardCurrentDensity(d); err != nil {
		return Snapshot{}, err
	}
	if s.BackCurrent, err = BackCurrentDensity(d); err != nil {
		return Snapshot{}, err
	}
	s.OutputCurrent = s.ForwardCurrent - s.BackCurrent
	s.OutputPower = s.OutputCurrent * s.OutputVoltage
	if s.ElectronCooling, err = ElectronCooling(d); err != nil {
		return Snapshot{}, err
	}
	s.HeatSupply = s.ElectronCooling + s.RadiationLoss

	if s.CarnotEfficiency, err = CarnotEfficiency(d); err != nil && !errors.Is(err, tec.ErrDomain) {
		return Snapshot{}, err
	}
	if s.TotalEfficiency, err = TotalEfficiency(d); err != nil && !errors.Is(err, tec.ErrDomain) {
		return Snapshot{}, err
	}
	return s, nil
}

// Efficient reports whether the snapshot has a defined total efficiency.
func (s Snapshot) Efficient() bool {
	return !math.IsNaN(s.TotalEfficiency)
}
