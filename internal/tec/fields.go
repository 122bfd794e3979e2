package tec

import (
	"fmt"
	"sort"

	"github.com/san-kum/tecsim/internal/units"
)

// Field names of the electrode mapping contract.
const (
	FieldTemperature = "temperature"
	FieldBarrier     = "barrier"
	FieldRichardson  = "richardson"
	FieldEmissivity  = "emissivity"
	FieldVoltage     = "voltage"
	FieldPosition    = "position"
)

var FieldNames = []string{FieldTemperature, FieldBarrier, FieldRichardson, FieldEmissivity, FieldVoltage, FieldPosition}

// FieldMap maps field names to unit-tagged values.
type FieldMap map[string]units.Quantity

type DeviceFields struct {
	Model     string   `json:"model" yaml:"model"`
	Emitter   FieldMap `json:"emitter" yaml:"emitter"`
	Collector FieldMap `json:"collector" yaml:"collector"`
}

func (e Electrode) Fields() FieldMap {
	return FieldMap{
		FieldTemperature: units.New(e.temperature, units.Kelvin),
		FieldBarrier:     units.New(e.barrier, units.ElectronVolt),
		FieldRichardson:  units.New(e.richardson, units.RichardsonCGS),
		FieldEmissivity:  units.New(e.emissivity, units.One),
		FieldVoltage:     units.New(e.voltage, units.Volt),
		FieldPosition:    units.New(e.position, units.Micrometer),
	}
}

// ElectrodeFromFields rebuilds an Electrode. Missing optional fields take
// their defaults; unknown names are rejected.
func ElectrodeFromFields(m FieldMap) (Electrode, error) {
	var unknown []string
	for name := range m {
		switch name {
		case FieldTemperature, FieldBarrier, FieldRichardson, FieldEmissivity, FieldVoltage, FieldPosition:
		default:
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Electrode{}, fmt.Errorf("%w: %v", ErrUnknownField, unknown)
	}
	return NewElectrode(ElectrodeParams{
		Temperature: m[FieldTemperature],
		Barrier:     m[FieldBarrier],
		Richardson:  m[FieldRichardson],
		Emissivity:  m[FieldEmissivity],
		Voltage:     m[FieldVoltage],
		Position:    m[FieldPosition],
	})
}

func (d *Device) Fields() DeviceFields {
	return DeviceFields{
		Model:     d.model.Name(),
		Emitter:   d.emitter.Fields(),
		Collector: d.collector.Fields(),
	}
}

func DeviceFromFields(f DeviceFields, opts ...Option) (*Device, error) {
	model, err := ModelByName(f.Model)
	if err != nil {
		return nil, err
	}
	em, err := ElectrodeFromFields(f.Emitter)
	if err != nil {
		return nil, prefixField("emitter", err)
	}
	co, err := ElectrodeFromFields(f.Collector)
	if err != nil {
		return nil, prefixField("collector", err)
	}
	return NewDevice(em, co, model, opts...)
}
