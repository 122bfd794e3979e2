package tec_test

import (
	"encoding/json"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tecsim/internal/tec"
)

// exampleArgs is a 2000 K, 2 eV emitter facing a 300 K, 0.8 eV collector
// biased at 5 V across 10 µm.
func exampleArgs() tec.Args {
	a := tec.DefaultArgs()
	a.EmitterTemperature = 2000
	a.EmitterBarrier = 2
	a.CollectorTemperature = 300
	a.CollectorBarrier = 0.8
	a.CollectorVoltage = 5
	a.CollectorPosition = 10
	return a
}

func exampleDevice(model tec.Model, opts ...tec.Option) *tec.Device {
	d, err := tec.FromArgs(exampleArgs(), model, opts...)
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("Device", func() {
	It("rejects a zero gap", func() {
		a := exampleArgs()
		a.CollectorPosition = a.EmitterPosition
		_, err := tec.FromArgs(a, nil)
		Expect(err).To(MatchError(tec.ErrGeometry))
		Expect(err).To(MatchError(tec.ErrValidation))
		var ge *tec.GeometryError
		Expect(errors.As(err, &ge)).To(BeTrue())
		Expect(ge.CollectorPosition).To(Equal(ge.EmitterPosition))
	})

	It("rejects a negative gap", func() {
		a := exampleArgs()
		a.CollectorPosition = -1
		_, err := tec.FromArgs(a, tec.LangmuirModel{})
		Expect(err).To(MatchError(tec.ErrGeometry))
	})

	It("names the offending electrode in validation errors", func() {
		a := exampleArgs()
		a.CollectorEmissivity = 3
		_, err := tec.FromArgs(a, nil)
		var ve *tec.ValidationError
		Expect(errors.As(err, &ve)).To(BeTrue())
		Expect(ve.Field).To(Equal("collector.emissivity"))
	})

	It("defaults to the base model", func() {
		d := exampleDevice(nil)
		Expect(d.Model().Name()).To(Equal("base"))
		Expect(d.Gap()).To(Equal(10.0))
		Expect(d.OutputVoltage()).To(Equal(5.0))
		Expect(d.ContactPotential()).To(BeNumerically("~", 1.2, 1e-15))
	})

	It("derives new devices without touching the original", func() {
		d := exampleDevice(nil)
		d2, err := d.WithOutputVoltage(0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(d2.Collector().Voltage()).To(Equal(0.5))
		Expect(d.Collector().Voltage()).To(Equal(5.0))
		Expect(d2.Equal(d)).To(BeFalse())

		d3, err := d2.WithCollectorVoltage(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(d3.Equal(d)).To(BeTrue())

		_, err = d.WithCollectorVoltage(math.Inf(1))
		Expect(err).To(MatchError(tec.ErrValidation))
	})

	It("resolves models by name", func() {
		for _, name := range tec.ModelNames() {
			m, err := tec.ModelByName(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Name()).To(Equal(name))
		}
		_, err := tec.ModelByName("schottky")
		Expect(err).To(MatchError(tec.ErrUnknownModel))
	})

	It("round-trips through its field mapping", func() {
		d := exampleDevice(tec.LangmuirModel{})
		data, err := json.Marshal(d.Fields())
		Expect(err).NotTo(HaveOccurred())

		var f tec.DeviceFields
		Expect(json.Unmarshal(data, &f)).To(Succeed())
		back, err := tec.DeviceFromFields(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(back.Equal(d)).To(BeTrue())
		Expect(back.Emitter()).To(Equal(d.Emitter()))
		Expect(back.Collector()).To(Equal(d.Collector()))

		p1, err := d.Motive()
		Expect(err).NotTo(HaveOccurred())
		p2, err := back.Motive()
		Expect(err).NotTo(HaveOccurred())
		Expect(*p2).To(Equal(*p1))
	})

	Describe("base motive", func() {
		It("is pinned to the vacuum levels at both surfaces", func() {
			for _, v := range []float64{-3, 0, 0.7, 1.2, 5} {
				d, err := exampleDevice(nil).WithOutputVoltage(v)
				Expect(err).NotTo(HaveOccurred())
				p, err := d.Motive()
				Expect(err).NotTo(HaveOccurred())

				atE, err := p.At(d.Emitter().Position())
				Expect(err).NotTo(HaveOccurred())
				atC, err := p.At(d.Collector().Position())
				Expect(err).NotTo(HaveOccurred())
				Expect(atE).To(Equal(d.Emitter().Barrier() + d.Emitter().Voltage()))
				Expect(atC).To(Equal(d.Collector().Barrier() + d.Collector().Voltage()))
				Expect(p.VirtualCathode).To(BeFalse())
			}
		})

		It("puts the maximum on the higher surface", func() {
			p, err := exampleDevice(nil).Motive()
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Regime).To(Equal(tec.Retarding))
			Expect(p.MaxMotive).To(BeNumerically("~", 5.8, 1e-15))
			Expect(p.MaxPosition).To(Equal(10.0))

			d, err := exampleDevice(nil).WithOutputVoltage(0)
			Expect(err).NotTo(HaveOccurred())
			p, err = d.Motive()
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Regime).To(Equal(tec.Accelerating))
			Expect(p.MaxMotive).To(Equal(2.0))
			Expect(p.MaxPosition).To(Equal(0.0))
		})

		It("is linear between the surfaces", func() {
			p, err := exampleDevice(nil).Motive()
			Expect(err).NotTo(HaveOccurred())
			xs, ys, err := p.Sample(11)
			Expect(err).NotTo(HaveOccurred())
			Expect(xs).To(HaveLen(11))
			for i := range xs {
				Expect(ys[i]).To(BeNumerically("~", 2+0.38*xs[i], 1e-12))
			}
		})

		It("refuses positions outside the gap", func() {
			p, err := exampleDevice(nil).Motive()
			Expect(err).NotTo(HaveOccurred())
			_, err = p.At(-0.5)
			Expect(err).To(MatchError(tec.ErrDomain))
			_, err = p.At(math.NaN())
			Expect(err).To(MatchError(tec.ErrDomain))
		})
	})
})
