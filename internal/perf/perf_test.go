package perf_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tecsim/internal/perf"
	"github.com/san-kum/tecsim/internal/tec"
)

type fixture struct {
	Method  string `yaml:"method"`
	Records []struct {
		Input       tec.DeviceFields `yaml:"input"`
		Expected    float64          `yaml:"expected"`
		Uncertainty float64          `yaml:"uncertainty"`
	} `yaml:"records"`
}

func device(v float64, model tec.Model) *tec.Device {
	a := tec.DefaultArgs()
	a.EmitterTemperature = 2000
	a.EmitterBarrier = 2
	a.CollectorTemperature = 300
	a.CollectorBarrier = 0.8
	a.CollectorVoltage = v
	d, err := tec.FromArgs(a, model)
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("calculator", func() {
	files, _ := filepath.Glob("testdata/*.yaml")

	It("has fixtures", func() {
		Expect(files).NotTo(BeEmpty())
	})

	for _, path := range files {
		path := path
		It("reproduces "+filepath.Base(path), func() {
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			var f fixture
			Expect(yaml.Unmarshal(data, &f)).To(Succeed())

			m, err := perf.MetricByName(f.Method)
			Expect(err).NotTo(HaveOccurred())
			for i, r := range f.Records {
				d, err := tec.DeviceFromFields(r.Input)
				Expect(err).NotTo(HaveOccurred(), "record %d", i)
				got, err := m.Value(d)
				Expect(err).NotTo(HaveOccurred(), "record %d", i)
				Expect(got).To(BeNumerically("~", r.Expected, r.Uncertainty*math.Abs(r.Expected)), "record %d", i)
			}
		})
	}

	It("gives the reference output of the example device", func() {
		d := device(5, nil)
		j, err := perf.OutputCurrentDensity(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(j).To(BeNumerically("~", 1.1638164719922855e-06, 1e-18))
		p, err := perf.OutputPowerDensity(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeNumerically("~", 5.819082359961427e-06, 1e-17))
		Expect(perf.SaturationCurrentDensity(d)).To(BeNumerically("~", 4379.888472385521, 1e-9))
		Expect(perf.ContactPotential(d)).To(BeNumerically("~", 1.2, 1e-15))
		Expect(perf.OutputVoltage(d)).To(Equal(5.0))

		r, err := perf.Regime(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(tec.Retarding))
	})

	It("is idempotent", func() {
		d := device(0.9, tec.LangmuirModel{})
		for _, name := range perf.MetricNames() {
			m, err := perf.MetricByName(name)
			Expect(err).NotTo(HaveOccurred())
			first, err1 := m.Value(d)
			second, err2 := m.Value(d)
			if err1 != nil {
				Expect(err2).To(MatchError(err1.Error()), name)
				continue
			}
			Expect(err2).NotTo(HaveOccurred(), name)
			Expect(second).To(Equal(first), name)
		}
	})

	It("has no back current unless the model emits from the collector", func() {
		jb, err := perf.BackCurrentDensity(device(2, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(jb).To(BeZero())
		jb, err = perf.BackCurrentDensity(device(2, tec.LangmuirModel{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(jb).To(BeZero())
		jb, err = perf.BackCurrentDensity(device(2, tec.BaseModel{CollectorEmission: true}))
		Expect(err).NotTo(HaveOccurred())
		Expect(jb).To(BeNumerically(">", 0))
	})

	It("balances a symmetric device at zero bias", func() {
		a := tec.DefaultArgs()
		a.EmitterTemperature, a.CollectorTemperature = 1500, 1500
		a.EmitterBarrier, a.CollectorBarrier = 2, 2
		d, err := tec.FromArgs(a, tec.BaseModel{CollectorEmission: true})
		Expect(err).NotTo(HaveOccurred())
		j, err := perf.OutputCurrentDensity(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(j).To(BeZero())
	})

	Describe("radiation", func() {
		It("uses the parallel plate net emissivity", func() {
			Expect(perf.NetEmissivity(1, 1)).To(Equal(1.0))
			Expect(perf.NetEmissivity(0.5, 0.5)).To(BeNumerically("~", 1.0/3, 1e-15))
			Expect(perf.NetEmissivity(0, 0.7)).To(BeZero())
			Expect(perf.RadiationLoss(device(1, nil))).To(BeNumerically("~", 90.68006067120609, 1e-10))
		})
	})

	Describe("efficiency policy", func() {
		It("gives the Carnot limit", func() {
			eta, err := perf.CarnotEfficiency(device(1, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(eta).To(BeNumerically("~", 0.85, 1e-15))
		})

		It("refuses a collector hotter than the emitter", func() {
			a := tec.DefaultArgs()
			a.EmitterTemperature, a.EmitterBarrier = 1000, 2
			a.CollectorTemperature, a.CollectorBarrier = 1200, 0.8
			a.CollectorVoltage = 0.5
			d, err := tec.FromArgs(a, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = perf.CarnotEfficiency(d)
			Expect(err).To(MatchError(tec.ErrDomain))
			_, err = perf.TotalEfficiency(d)
			Expect(err).To(MatchError(tec.ErrDomain))
			Expect(err).NotTo(MatchError(perf.ErrNoPower))
		})

		It("refuses equal temperatures", func() {
			a := tec.DefaultArgs()
			a.EmitterTemperature, a.EmitterBarrier = 1000, 2
			a.CollectorTemperature, a.CollectorBarrier = 1000, 0.8
			d, err := tec.FromArgs(a, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = perf.CarnotEfficiency(d)
			var de *tec.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Quantity).To(Equal("carnot efficiency"))
		})

		It("reports ErrNoPower without output power", func() {
			for _, v := range []float64{0, -0.5} {
				_, err := perf.TotalEfficiency(device(v, nil))
				Expect(err).To(MatchError(perf.ErrNoPower))
				Expect(err).To(MatchError(tec.ErrDomain))
			}
		})

		It("stays below Carnot", func() {
			for _, v := range []float64{0.5, 1, 1.2, 1.5, 2} {
				for _, m := range []tec.Model{tec.BaseModel{}, tec.LangmuirModel{}} {
					d := device(v, m)
					eta, err := perf.TotalEfficiency(d)
					Expect(err).NotTo(HaveOccurred())
					carnot, err := perf.CarnotEfficiency(d)
					Expect(err).NotTo(HaveOccurred())
					Expect(eta).To(BeNumerically(">", 0))
					Expect(eta).To(BeNumerically("<", carnot))
				}
			}
		})

		It("splits the heat supply", func() {
			d := device(2, nil)
			qe, err := perf.ElectronCooling(d)
			Expect(err).NotTo(HaveOccurred())
			q, err := perf.HeatSupply(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(q).To(Equal(qe + perf.RadiationLoss(d)))

			el, err := perf.ElectronicEfficiency(d)
			Expect(err).NotTo(HaveOccurred())
			rad, err := perf.RadiationEfficiency(d)
			Expect(err).NotTo(HaveOccurred())
			tot, err := perf.TotalEfficiency(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(1 / tot).To(BeNumerically("~", 1/el+1/rad, 1e-9))
		})
	})

	Describe("Evaluate", func() {
		It("agrees with the individual functions", func() {
			d := device(0.9, tec.LangmuirModel{})
			s, err := perf.Evaluate(d)
			Expect(err).NotTo(HaveOccurred())

			j, _ := perf.OutputCurrentDensity(d)
			p, _ := perf.OutputPowerDensity(d)
			eta, _ := perf.TotalEfficiency(d)
			Expect(s.Model).To(Equal("langmuir"))
			Expect(s.Regime).To(Equal(tec.SpaceChargeLimited.String()))
			Expect(s.VirtualCathode).To(BeTrue())
			Expect(s.OutputCurrent).To(Equal(j))
			Expect(s.OutputPower).To(Equal(p))
			Expect(s.TotalEfficiency).To(Equal(eta))
			Expect(s.Efficient()).To(BeTrue())
		})

		It("records undefined efficiency as NaN", func() {
			s, err := perf.Evaluate(device(0, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(math.IsNaN(s.TotalEfficiency)).To(BeTrue())
			Expect(s.Efficient()).To(BeFalse())
			Expect(s.CarnotEfficiency).To(BeNumerically("~", 0.85, 1e-15))
		})
	})

	It("rejects unknown metrics", func() {
		_, err := perf.MetricByName("figure_of_merit")
		Expect(err).To(MatchError(perf.ErrUnknownMetric))
	})
})
