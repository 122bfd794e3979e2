// Package perf derives converter performance from a device's motive.
//
// Current densities are in A/cm², voltages in V, power and heat fluxes in
// W/cm² and efficiencies are fractions. Every function is a pure function
// of the device value; the motive is solved once per device and shared
// through its cache.
package perf

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/tecsim/internal/tec"
)

// ErrNoPower reports an efficiency requested where the device delivers
// no power. It also matches tec.ErrDomain.
var ErrNoPower = errors.New("perf: output power is not positive")

func noPower(quantity string, p float64) error {
	return &tec.DomainError{
		Quantity: quantity,
		Reason:   fmt.Sprintf("output power density %g W/cm2", p),
		Err:      ErrNoPower,
	}
}

func kT(e tec.Electrode) float64 {
	return tec.BoltzmannEV * e.Temperature()
}

func SaturationCurrentDensity(d *tec.Device) float64 {
	return d.Emitter().SaturationCurrentDensity()
}

func OutputVoltage(d *tec.Device) float64 {
	return d.OutputVoltage()
}

func ContactPotential(d *tec.Device) float64 {
	return d.ContactPotential()
}

// ForwardCurrentDensity is the emitter current that clears the motive
// maximum.
func ForwardCurrentDensity(d *tec.Device) (float64, error) {
	p, err := d.Motive()
	if err != nil {
		return math.NaN(), err
	}
	em := d.Emitter()
	return overBarrier(em.SaturationCurrentDensity(), p.MaxMotive-p.EmitterMotive, kT(em)), nil
}

// BackCurrentDensity is the collector current reaching the emitter. It
// is zero unless the model includes back emission.
func BackCurrentDensity(d *tec.Device) (float64, error) {
	p, err := d.Motive()
	if err != nil {
		return math.NaN(), err
	}
	if !d.Model().BackEmission() {
		return 0, nil
	}
	co := d.Collector()
	return overBarrier(co.SaturationCurrentDensity(), p.MaxMotive-p.CollectorMotive, kT(co)), nil
}

func overBarrier(jsat, height, kT float64) float64 {
	if jsat == 0 {
		return 0
	}
	if height <= 0 {
		return jsat
	}
	return jsat * math.Exp(-height/kT)
}

func OutputCurrentDensity(d *tec.Device) (float64, error) {
	jf, err := ForwardCurrentDensity(d)
	if err != nil {
		return math.NaN(), err
	}
	jb, err := BackCurrentDensity(d)
	if err != nil {
		return math.NaN(), err
	}
	return jf - jb, nil
}

func OutputPowerDensity(d *tec.Device) (float64, error) {
	j, err := OutputCurrentDensity(d)
	if err != nil {
		return math.NaN(), err
	}
	return j * d.OutputVoltage(), nil
}

// LoadResistance is V/J in Ω·cm².
func LoadResistance(d *tec.Device) (float64, error) {
	j, err := OutputCurrentDensity(d)
	if err != nil {
		return math.NaN(), err
	}
	if j == 0 {
		return math.NaN(), &tec.DomainError{Quantity: "load resistance", Reason: "no output current"}
	}
	return d.OutputVoltage() / j, nil
}

// CarnotEfficiency is 1 - TC/TE. A collector at or above the emitter
// temperature is a DomainError.
func CarnotEfficiency(d *tec.Device) (float64, error) {
	if err := hotEmitter(d, "carnot efficiency"); err != nil {
		return math.NaN(), err
	}
	return 1 - d.Collector().Temperature()/d.Emitter().Temperature(), nil
}

func hotEmitter(d *tec.Device, quantity string) error {
	te, tc := d.Emitter().Temperature(), d.Collector().Temperature()
	if tc >= te {
		return &tec.DomainError{
			Quantity: quantity,
			Reason:   fmt.Sprintf("collector temperature %g K not below emitter temperature %g K", tc, te),
		}
	}
	return nil
}

// ElectronCooling is the heat carried off the emitter by the net
// electron flow: each electron takes the barrier it crosses plus 2kT of
// kinetic energy.
func ElectronCooling(d *tec.Device) (float64, error) {
	p, err := d.Motive()
	if err != nil {
		return math.NaN(), err
	}
	jf, err := ForwardCurrentDensity(d)
	if err != nil {
		return math.NaN(), err
	}
	jb, err := BackCurrentDensity(d)
	if err != nil {
		return math.NaN(), err
	}
	height := p.MaxMotive - d.Emitter().Voltage()
	return jf*(height+2*kT(d.Emitter())) - jb*(height+2*kT(d.Collector())), nil
}

// RadiationLoss is the net blackbody exchange between two parallel
// plates.
func RadiationLoss(d *tec.Device) float64 {
	em, co := d.Emitter(), d.Collector()
	te, tc := em.Temperature(), co.Temperature()
	return tec.StefanBoltzmann * (te*te*te*te - tc*tc*tc*tc) * NetEmissivity(em.Emissivity(), co.Emissivity())
}

// NetEmissivity is 1/(1/εE + 1/εC - 1); zero if either surface is zero.
func NetEmissivity(emitter, collector float64) float64 {
	if emitter == 0 || collector == 0 {
		return 0
	}
	return 1 / (1/emitter + 1/collector - 1)
}

// HeatSupply is the heat flux the emitter needs to hold its temperature.
func HeatSupply(d *tec.Device) (float64, error) {
	qe, err := ElectronCooling(d)
	if err != nil {
		return math.NaN(), err
	}
	return qe + RadiationLoss(d), nil
}

// TotalEfficiency is P/(Q_E + Q_r).
func TotalEfficiency(d *tec.Device) (float64, error) {
	return efficiency(d, "total efficiency", HeatSupply)
}

// ElectronicEfficiency ignores radiation.
func ElectronicEfficiency(d *tec.Device) (float64, error) {
	return efficiency(d, "electronic efficiency", ElectronCooling)
}

// RadiationEfficiency ignores electron cooling.
func RadiationEfficiency(d *tec.Device) (float64, error) {
	return efficiency(d, "radiation efficiency", func(d *tec.Device) (float64, error) {
		return RadiationLoss(d), nil
	})
}

func efficiency(d *tec.Device, quantity string, heat func(*tec.Device) (float64, error)) (float64, error) {
	if err := hotEmitter(d, quantity); err != nil {
		return math.NaN(), err
	}
	p, err := OutputPowerDensity(d)
	if err != nil {
		return math.NaN(), err
	}
	if !(p > 0) {
		return math.NaN(), noPower(quantity, p)
	}
	q, err := heat(d)
	if err != nil {
		return math.NaN(), err
	}
	if !(q > 0) {
		return math.NaN(), &tec.DomainError{Quantity: quantity, Reason: fmt.Sprintf("heat supply %g W/cm2", q)}
	}
	return p / q, nil
}

// Regime reports where the motive maximum sits.
func Regime(d *tec.Device) (tec.Regime, error) {
	p, err := d.Motive()
	if err != nil {
		return 0, err
	}
	return p.Regime, nil
}
