package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tecsim/internal/analysis"
	"github.com/san-kum/tecsim/internal/langmuir"
	"github.com/san-kum/tecsim/internal/optim"
	"github.com/san-kum/tecsim/internal/tec"
	"github.com/san-kum/tecsim/internal/units"
)

const (
	DefaultModel   = "base"
	DefaultRunsDir = "runs"
)

// Config is one run description: the device, the solver settings and
// what to do with it. Electrode fields accept plain numbers in canonical
// units or unit strings such as "1727 degC".
type Config struct {
	Name      string               `yaml:"name,omitempty"`
	Model     string               `yaml:"model"`
	Emitter   tec.FieldMap         `yaml:"emitter"`
	Collector tec.FieldMap         `yaml:"collector"`
	Optimize  OptimizeConfig       `yaml:"optimize"`
	Sweep     analysis.SweepConfig `yaml:"sweep"`
	Langmuir  langmuir.Config      `yaml:"langmuir"`
	RunsDir   string               `yaml:"runs_dir"`
}

type OptimizeConfig struct {
	Target     string  `yaml:"target"`
	MinVoltage float64 `yaml:"min_voltage"`
	MaxVoltage float64 `yaml:"max_voltage"`
	Tolerance  float64 `yaml:"tolerance"`
	MaxTrials  int     `yaml:"max_trials"`
	GridPoints int     `yaml:"grid_points"`
	Workers    int     `yaml:"workers"`
}

func DefaultConfig() *Config {
	oc := optim.DefaultConfig()
	return &Config{
		Model: DefaultModel,
		Emitter: tec.FieldMap{
			tec.FieldTemperature: units.New(2000, units.Kelvin),
			tec.FieldBarrier:     units.New(2, units.ElectronVolt),
		},
		Collector: tec.FieldMap{
			tec.FieldTemperature: units.New(300, units.Kelvin),
			tec.FieldBarrier:     units.New(0.8, units.ElectronVolt),
			tec.FieldPosition:    units.New(10, units.Micrometer),
		},
		Optimize: OptimizeConfig{
			Target:     oc.Target.String(),
			Tolerance:  oc.Tolerance,
			MaxTrials:  oc.MaxTrials,
			GridPoints: oc.GridPoints,
		},
		Sweep:    analysis.DefaultSweepConfig(),
		Langmuir: langmuir.DefaultConfig(),
		RunsDir:  DefaultRunsDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Electrode keys present in data
// replace the default entries; the others are kept.
func Parse(data []byte) (*Config, error) {
	return ParseOver(data, DefaultConfig())
}

// ParseOver decodes YAML over a copy of base, so a file can refine a
// preset. base is not modified.
func ParseOver(data []byte, base *Config) (*Config, error) {
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseOver(data, base)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Fields returns the device part of the configuration.
func (c *Config) Fields() tec.DeviceFields {
	return tec.DeviceFields{Model: c.Model, Emitter: c.Emitter, Collector: c.Collector}
}

// Device builds the configured device. A Langmuir model gets its own
// table unless the table settings are the defaults.
func (c *Config) Device(opts ...tec.Option) (*tec.Device, error) {
	d, err := tec.DeviceFromFields(c.Fields(), opts...)
	if err != nil {
		return nil, err
	}
	if _, ok := d.Model().(tec.LangmuirModel); !ok || c.Langmuir == langmuir.DefaultConfig() {
		return d, nil
	}
	table, err := langmuir.NewTable(c.Langmuir)
	if err != nil {
		return nil, fmt.Errorf("config: langmuir table: %w", err)
	}
	return d.WithModel(tec.LangmuirModel{Table: table})
}

func (c *Config) Optimizer() (*optim.Optimizer, error) {
	target, err := optim.ParseTarget(c.Optimize.Target)
	if err != nil {
		return nil, err
	}
	return optim.New(optim.Config{
		Target:     target,
		MinVoltage: c.Optimize.MinVoltage,
		MaxVoltage: c.Optimize.MaxVoltage,
		Tolerance:  c.Optimize.Tolerance,
		MaxTrials:  c.Optimize.MaxTrials,
		GridPoints: c.Optimize.GridPoints,
		Workers:    c.Optimize.Workers,
	}), nil
}

// Clone returns a deep copy; electrode maps are not shared.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Emitter = cloneFields(c.Emitter)
	cp.Collector = cloneFields(c.Collector)
	return &cp
}

func cloneFields(m tec.FieldMap) tec.FieldMap {
	if m == nil {
		return nil
	}
	out := make(tec.FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
