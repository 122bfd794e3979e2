package tec

import (
	"errors"
	"fmt"
	"sync"
)

// Device is an emitter and a collector across a vacuum gap, solved with
// one Model. Devices are immutable and must be passed by pointer.
type Device struct {
	emitter   Electrode
	collector Electrode
	model     Model
	cache     *MotiveCache

	once    sync.Once
	profile *Profile
	err     error
}

type Option func(*Device)

// WithCache shares motive results through c instead of
// DefaultMotiveCache. A nil cache disables sharing.
func WithCache(c *MotiveCache) Option {
	return func(d *Device) { d.cache = c }
}

// NewDevice validates the gap and binds a model; a nil model is Base.
func NewDevice(emitter, collector Electrode, model Model, opts ...Option) (*Device, error) {
	if err := emitter.validate(); err != nil {
		return nil, err
	}
	if err := collector.validate(); err != nil {
		return nil, err
	}
	if !(collector.Position() > emitter.Position()) {
		return nil, &GeometryError{EmitterPosition: emitter.Position(), CollectorPosition: collector.Position()}
	}
	if model == nil {
		model = BaseModel{}
	}
	d := &Device{
		emitter:   emitter,
		collector: collector,
		model:     model,
		cache:     DefaultMotiveCache,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Args is the flattened construction form: plain numbers in K, eV,
// A/(cm² K²), 1, V and µm, one field per electrode parameter.
type Args struct {
	EmitterTemperature float64
	EmitterBarrier     float64
	EmitterRichardson  float64
	EmitterEmissivity  float64
	EmitterVoltage     float64
	EmitterPosition    float64

	CollectorTemperature float64
	CollectorBarrier     float64
	CollectorRichardson  float64
	CollectorEmissivity  float64
	CollectorVoltage     float64
	CollectorPosition    float64
}

// DefaultArgs carries the electrode defaults and a 10 µm gap.
// Temperatures and barriers are left unset.
func DefaultArgs() Args {
	def := DefaultElectrodeArgs()
	return Args{
		EmitterTemperature: def.Temperature,
		EmitterBarrier:     def.Barrier,
		EmitterRichardson:  def.Richardson,
		EmitterEmissivity:  def.Emissivity,
		EmitterVoltage:     def.Voltage,
		EmitterPosition:    0,

		CollectorTemperature: def.Temperature,
		CollectorBarrier:     def.Barrier,
		CollectorRichardson:  def.Richardson,
		CollectorEmissivity:  def.Emissivity,
		CollectorVoltage:     def.Voltage,
		CollectorPosition:    10,
	}
}

func (a Args) Emitter() ElectrodeArgs {
	return ElectrodeArgs{a.EmitterTemperature, a.EmitterBarrier, a.EmitterRichardson, a.EmitterEmissivity, a.EmitterVoltage, a.EmitterPosition}
}

func (a Args) Collector() ElectrodeArgs {
	return ElectrodeArgs{a.CollectorTemperature, a.CollectorBarrier, a.CollectorRichardson, a.CollectorEmissivity, a.CollectorVoltage, a.CollectorPosition}
}

// FromArgs builds and validates a Device from flattened arguments.
func FromArgs(a Args, model Model, opts ...Option) (*Device, error) {
	em, err := ElectrodeFromArgs(a.Emitter())
	if err != nil {
		return nil, prefixField("emitter", err)
	}
	co, err := ElectrodeFromArgs(a.Collector())
	if err != nil {
		return nil, prefixField("collector", err)
	}
	return NewDevice(em, co, model, opts...)
}

func prefixField(side string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		c := *ve
		c.Field = side + "." + c.Field
		return &c
	}
	return err
}

func (d *Device) Emitter() Electrode   { return d.emitter }
func (d *Device) Collector() Electrode { return d.collector }
func (d *Device) Model() Model         { return d.model }

// Gap is the interelectrode spacing in µm.
func (d *Device) Gap() float64 {
	return d.collector.Position() - d.emitter.Position()
}

// OutputVoltage is the collector voltage relative to the emitter.
func (d *Device) OutputVoltage() float64 {
	return d.collector.Voltage() - d.emitter.Voltage()
}

// ContactPotential is (φE - φC)/e in V.
func (d *Device) ContactPotential() float64 {
	return d.emitter.Barrier() - d.collector.Barrier()
}

func (d *Device) derive(emitter, collector Electrode, model Model) (*Device, error) {
	return NewDevice(emitter, collector, model, WithCache(d.cache))
}

func (d *Device) WithEmitter(e Electrode) (*Device, error) {
	return d.derive(e, d.collector, d.model)
}

func (d *Device) WithCollector(c Electrode) (*Device, error) {
	return d.derive(d.emitter, c, d.model)
}

func (d *Device) WithModel(m Model) (*Device, error) {
	return d.derive(d.emitter, d.collector, m)
}

// WithCollectorVoltage returns a copy with the collector biased to v.
func (d *Device) WithCollectorVoltage(v float64) (*Device, error) {
	c, err := d.collector.WithVoltage(v)
	if err != nil {
		return nil, prefixField("collector", err)
	}
	return d.derive(d.emitter, c, d.model)
}

// WithOutputVoltage biases the collector so that OutputVoltage is v.
func (d *Device) WithOutputVoltage(v float64) (*Device, error) {
	return d.WithCollectorVoltage(d.emitter.Voltage() + v)
}

// Motive returns the device's motive profile, solving it on first use.
func (d *Device) Motive() (*Profile, error) {
	d.once.Do(func() {
		if d.cache == nil {
			d.profile, d.err = d.model.solve(d)
			return
		}
		d.profile, d.err = d.cache.Get(d.key(), func() (*Profile, error) {
			return d.model.solve(d)
		})
	})
	return d.profile, d.err
}

func (d *Device) key() cacheKey {
	return cacheKey{emitter: d.emitter, collector: d.collector, model: d.model}
}

// Equal compares electrode values and model, ignoring cached state.
func (d *Device) Equal(o *Device) bool {
	return d.key() == o.key()
}

func (d *Device) String() string {
	return fmt.Sprintf("%s device, gap %g um, V=%g V", d.model.Name(), d.Gap(), d.OutputVoltage())
}
