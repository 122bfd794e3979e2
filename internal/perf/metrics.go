package perf

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/tecsim/internal/tec"
)

var ErrUnknownMetric = errors.New("perf: unknown metric")

// Metric is a named scalar of a device, used by the optimizer, sweeps
// and the CLI.
type Metric struct {
	Name string
	Unit string
	Eval func(*tec.Device) (float64, error)
}

func (m Metric) Value(d *tec.Device) (float64, error) {
	return m.Eval(d)
}

func plain(f func(*tec.Device) float64) func(*tec.Device) (float64, error) {
	return func(d *tec.Device) (float64, error) { return f(d), nil }
}

var metrics = map[string]Metric{
	"saturation_current_density": {"saturation_current_density", "A/cm2", plain(SaturationCurrentDensity)},
	"forward_current_density":    {"forward_current_density", "A/cm2", ForwardCurrentDensity},
	"back_current_density":       {"back_current_density", "A/cm2", BackCurrentDensity},
	"output_current_density":     {"output_current_density", "A/cm2", OutputCurrentDensity},
	"output_voltage":             {"output_voltage", "V", plain(OutputVoltage)},
	"output_power_density":       {"output_power_density", "W/cm2", OutputPowerDensity},
	"contact_potential":          {"contact_potential", "V", plain(ContactPotential)},
	"load_resistance":            {"load_resistance", "ohm cm2", LoadResistance},
	"carnot_efficiency":          {"carnot_efficiency", "", CarnotEfficiency},
	"electron_cooling":           {"electron_cooling", "W/cm2", ElectronCooling},
	"radiation_loss":             {"radiation_loss", "W/cm2", plain(RadiationLoss)},
	"heat_supply":                {"heat_supply", "W/cm2", HeatSupply},
	"total_efficiency":           {"total_efficiency", "", TotalEfficiency},
	"electronic_efficiency":      {"electronic_efficiency", "", ElectronicEfficiency},
	"radiation_efficiency":       {"radiation_efficiency", "", RadiationEfficiency},
}

func MetricByName(name string) (Metric, error) {
	m, ok := metrics[name]
	if !ok {
		return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return m, nil
}

func MetricNames() []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
