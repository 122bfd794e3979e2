package tec_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tecsim/internal/tec"
)

// outputCurrent is the forward emission over the profile's barrier.
func outputCurrent(d *tec.Device, p *tec.Profile) float64 {
	em := d.Emitter()
	return em.SaturationCurrentDensity() * math.Exp(-(p.MaxMotive-p.EmitterMotive)/(tec.BoltzmannEV*em.Temperature()))
}

func langmuirAt(v float64) (*tec.Device, *tec.Profile) {
	d, err := exampleDevice(tec.LangmuirModel{}).WithOutputVoltage(v)
	Expect(err).NotTo(HaveOccurred())
	p, err := d.Motive()
	Expect(err).NotTo(HaveOccurred())
	return d, p
}

var _ = Describe("Langmuir model", func() {
	var (
		model tec.LangmuirModel
		d     *tec.Device
		sat   tec.OperatingPoint
		crit  tec.OperatingPoint
	)

	BeforeEach(func() {
		d = exampleDevice(model)
		var err error
		sat, err = model.SaturationPoint(d)
		Expect(err).NotTo(HaveOccurred())
		crit, err = model.CriticalPoint(d)
		Expect(err).NotTo(HaveOccurred())
	})

	It("orders the regime boundaries", func() {
		jsat := d.Emitter().SaturationCurrentDensity()
		Expect(sat.Voltage).To(BeNumerically("<", crit.Voltage))
		Expect(sat.CurrentDensity).To(Equal(jsat))
		Expect(crit.CurrentDensity).To(BeNumerically("<", jsat))
		Expect(crit.EmitterGamma).To(BeNumerically(">", 0))
		// γE at the critical point is near 2 ln(ξsat/|ξ∞|) for wide gaps
		Expect(crit.EmitterGamma).To(BeNumerically("~", 8.77, 0.05))
		Expect(crit.Voltage).To(BeNumerically("~", 1.2+crit.EmitterGamma*tec.BoltzmannEV*2000, 1e-12))
	})

	It("matches the base profile when emission is switched off", func() {
		a := exampleArgs()
		a.EmitterRichardson = 0
		for _, v := range []float64{-1, 0.5, 5} {
			a.CollectorVoltage = v
			dl, err := tec.FromArgs(a, tec.LangmuirModel{})
			Expect(err).NotTo(HaveOccurred())
			db, err := dl.WithModel(tec.BaseModel{})
			Expect(err).NotTo(HaveOccurred())

			pl, err := dl.Motive()
			Expect(err).NotTo(HaveOccurred())
			pb, err := db.Motive()
			Expect(err).NotTo(HaveOccurred())

			Expect(pl.VirtualCathode).To(BeFalse())
			Expect(pl.Regime).To(Equal(pb.Regime))
			Expect(pl.EmitterMotive).To(Equal(pb.EmitterMotive))
			Expect(pl.CollectorMotive).To(Equal(pb.CollectorMotive))
			Expect(pl.MaxMotive).To(Equal(pb.MaxMotive))
			Expect(pl.MaxPosition).To(Equal(pb.MaxPosition))
			for _, x := range []float64{0, 2.5, 7, 10} {
				yl, err := pl.At(x)
				Expect(err).NotTo(HaveOccurred())
				yb, err := pb.At(x)
				Expect(err).NotTo(HaveOccurred())
				Expect(yl).To(Equal(yb))
			}
		}
		_, err := tec.LangmuirModel{}.SaturationPoint(mustWithRichardson(0))
		Expect(err).To(MatchError(tec.ErrDomain))
	})

	It("forms a virtual cathode inside the gap between the boundaries", func() {
		dv, p := langmuirAt(0.5)
		Expect(p.Regime).To(Equal(tec.SpaceChargeLimited))
		Expect(p.VirtualCathode).To(BeTrue())
		Expect(p.MaxPosition).To(BeNumerically(">", 0))
		Expect(p.MaxPosition).To(BeNumerically("<", 10))
		Expect(p.MaxMotive).To(BeNumerically(">", p.EmitterMotive))
		Expect(p.MaxMotive).To(BeNumerically(">", p.CollectorMotive))

		top, err := p.At(p.MaxPosition)
		Expect(err).NotTo(HaveOccurred())
		Expect(top).To(BeNumerically("~", p.MaxMotive, 1e-9))

		// the profile meets both surface values
		nearE, err := p.At(dv.Emitter().Position() + 1e-6)
		Expect(err).NotTo(HaveOccurred())
		Expect(nearE).To(BeNumerically("~", p.EmitterMotive, 1e-3))
		nearC, err := p.At(dv.Collector().Position() - 1e-6)
		Expect(err).NotTo(HaveOccurred())
		Expect(nearC).To(BeNumerically("~", p.CollectorMotive, 1e-3))

		_, ys, err := p.Sample(101)
		Expect(err).NotTo(HaveOccurred())
		for _, y := range ys {
			Expect(y).To(BeNumerically("<=", p.MaxMotive+1e-9))
		}
	})

	It("is continuous across the critical point", func() {
		const dv = 1e-7
		dLo, pLo := langmuirAt(crit.Voltage - dv)
		dHi, pHi := langmuirAt(crit.Voltage + dv)
		Expect(pLo.Regime).To(Equal(tec.SpaceChargeLimited))
		Expect(pHi.Regime).To(Equal(tec.Retarding))
		Expect(outputCurrent(dLo, pLo)).To(BeNumerically("~", crit.CurrentDensity, 1e-5*crit.CurrentDensity))
		Expect(outputCurrent(dHi, pHi)).To(BeNumerically("~", crit.CurrentDensity, 1e-5*crit.CurrentDensity))
	})

	It("is continuous across the saturation point", func() {
		const dv = 1e-7
		dLo, pLo := langmuirAt(sat.Voltage - dv)
		dHi, pHi := langmuirAt(sat.Voltage + dv)
		Expect(pLo.Regime).To(Equal(tec.Accelerating))
		Expect(pHi.Regime).To(Equal(tec.SpaceChargeLimited))
		Expect(outputCurrent(dLo, pLo)).To(Equal(sat.CurrentDensity))
		Expect(outputCurrent(dHi, pHi)).To(BeNumerically("~", sat.CurrentDensity, 1e-5*sat.CurrentDensity))
	})

	It("never exceeds saturation and falls with voltage", func() {
		jsat := d.Emitter().SaturationCurrentDensity()
		prev := math.Inf(1)
		for v := -2.0; v <= 4; v += 0.25 {
			dv, p := langmuirAt(v)
			j := outputCurrent(dv, p)
			Expect(j).To(BeNumerically("<=", jsat))
			Expect(j).To(BeNumerically("<=", prev*(1+1e-9)))
			prev = j
		}
	})

	It("limits current below the base model inside the space-charge regime", func() {
		dl, pl := langmuirAt(0.5)
		db, err := dl.WithModel(tec.BaseModel{})
		Expect(err).NotTo(HaveOccurred())
		pb, err := db.Motive()
		Expect(err).NotTo(HaveOccurred())
		Expect(outputCurrent(dl, pl)).To(BeNumerically("<", outputCurrent(db, pb)))
	})
})

func mustWithRichardson(a float64) *tec.Device {
	args := exampleArgs()
	args.EmitterRichardson = a
	d, err := tec.FromArgs(args, tec.LangmuirModel{})
	Expect(err).NotTo(HaveOccurred())
	return d
}
