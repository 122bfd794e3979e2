package config

import (
	"sort"

	"github.com/san-kum/tecsim/internal/tec"
	"github.com/san-kum/tecsim/internal/units"
)

// Preset is a named pair of electrodes.
type Preset struct {
	Emitter, Collector tec.FieldMap
}

func fields(pairs ...any) tec.FieldMap {
	m := tec.FieldMap{}
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i].(string)] = units.MustParse(pairs[i+1].(string))
	}
	return m
}

var reference = Preset{
	Emitter:   fields(tec.FieldTemperature, "2000 K", tec.FieldBarrier, "2 eV"),
	Collector: fields(tec.FieldTemperature, "300 K", tec.FieldBarrier, "0.8 eV", tec.FieldPosition, "10 um"),
}

// Presets are grouped by model name.
var Presets = map[string]map[string]Preset{
	"base": {
		"reference": reference,
		"hot": {
			Emitter:   fields(tec.FieldTemperature, "2500 K", tec.FieldBarrier, "2.4 eV", tec.FieldEmissivity, "0.3"),
			Collector: fields(tec.FieldTemperature, "500 K", tec.FieldBarrier, "1.0 eV", tec.FieldEmissivity, "0.3", tec.FieldPosition, "5 um"),
		},
	},
	"base-back": {
		"symmetric": {
			Emitter:   fields(tec.FieldTemperature, "1500 K", tec.FieldBarrier, "2 eV"),
			Collector: fields(tec.FieldTemperature, "1500 K", tec.FieldBarrier, "2 eV", tec.FieldPosition, "10 um"),
		},
		"warm-collector": {
			Emitter:   fields(tec.FieldTemperature, "1600 K", tec.FieldBarrier, "2.2 eV"),
			Collector: fields(tec.FieldTemperature, "900 K", tec.FieldBarrier, "1.2 eV", tec.FieldPosition, "10 um"),
		},
	},
	"langmuir": {
		"reference": reference,
		"narrow-gap": {
			Emitter:   fields(tec.FieldTemperature, "2000 K", tec.FieldBarrier, "2 eV"),
			Collector: fields(tec.FieldTemperature, "300 K", tec.FieldBarrier, "0.8 eV", tec.FieldPosition, "1 um"),
		},
		"wide-gap": {
			Emitter:   fields(tec.FieldTemperature, "1800 K", tec.FieldBarrier, "1.8 eV"),
			Collector: fields(tec.FieldTemperature, "400 K", tec.FieldBarrier, "0.9 eV", tec.FieldPosition, "100 um"),
		},
	},
}

// GetPreset returns a default configuration carrying the preset's model
// and electrodes, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = preset
	cfg.Model = model
	cfg.Emitter = cloneFields(p.Emitter)
	cfg.Collector = cloneFields(p.Collector)
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
