package tec_test

import (
	"errors"
	"math"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tecsim/internal/tec"
	"github.com/san-kum/tecsim/internal/units"
)

type fixture struct {
	Method  string `yaml:"method"`
	Records []struct {
		Input       tec.FieldMap `yaml:"input"`
		Expected    float64      `yaml:"expected"`
		Uncertainty float64      `yaml:"uncertainty"`
	} `yaml:"records"`
}

func loadFixture(path string) fixture {
	data, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())
	var f fixture
	Expect(yaml.Unmarshal(data, &f)).To(Succeed())
	Expect(f.Records).NotTo(BeEmpty())
	return f
}

func electrode(temperature, barrier float64) tec.Electrode {
	a := tec.DefaultElectrodeArgs()
	a.Temperature = temperature
	a.Barrier = barrier
	e, err := tec.ElectrodeFromArgs(a)
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("Electrode", func() {
	It("applies the documented defaults", func() {
		e := electrode(2000, 2)
		Expect(e.Richardson()).To(Equal(120.0))
		Expect(e.Emissivity()).To(Equal(1.0))
		Expect(e.Voltage()).To(Equal(0.0))
		Expect(e.Position()).To(Equal(0.0))
	})

	It("converts unit-tagged parameters to canonical units", func() {
		e, err := tec.NewElectrode(tec.ElectrodeParams{
			Temperature: units.MustParse("1726.85 degC"),
			Barrier:     units.MustParse("2000 meV"),
			Voltage:     units.MustParse("500 mV"),
			Position:    units.MustParse("0.01 mm"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Temperature()).To(BeNumerically("~", 2000, 1e-9))
		Expect(e.Barrier()).To(BeNumerically("~", 2, 1e-12))
		Expect(e.Voltage()).To(BeNumerically("~", 0.5, 1e-12))
		Expect(e.Position()).To(BeNumerically("~", 10, 1e-12))
		Expect(e.Richardson()).To(Equal(tec.FreeElectronRichardson))
	})

	It("reads bare numbers in canonical units", func() {
		e, err := tec.NewElectrode(tec.ElectrodeParams{
			Temperature: units.New(300, units.One),
			Barrier:     units.New(0.8, units.One),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Temperature()).To(Equal(300.0))
		Expect(e.Barrier()).To(Equal(0.8))
	})

	It("rejects a quantity of the wrong dimension", func() {
		_, err := tec.NewElectrode(tec.ElectrodeParams{
			Temperature: units.MustParse("2 eV"),
			Barrier:     units.MustParse("2 eV"),
		})
		Expect(err).To(MatchError(tec.ErrValidation))
		Expect(err).To(MatchError(units.ErrIncompatible))
		var ve *tec.ValidationError
		Expect(errors.As(err, &ve)).To(BeTrue())
		Expect(ve.Field).To(Equal("temperature"))
	})

	It("requires temperature and barrier", func() {
		_, err := tec.NewElectrode(tec.ElectrodeParams{Temperature: units.MustParse("300 K")})
		var ve *tec.ValidationError
		Expect(errors.As(err, &ve)).To(BeTrue())
		Expect(ve.Field).To(Equal("barrier"))
		Expect(ve.Constraint).To(Equal("set"))
	})

	DescribeTable("field domain validation",
		func(mutate func(a *tec.ElectrodeArgs), field string) {
			a := tec.DefaultElectrodeArgs()
			a.Temperature = 1000
			a.Barrier = 2
			mutate(&a)
			_, err := tec.ElectrodeFromArgs(a)
			Expect(err).To(MatchError(tec.ErrValidation))
			var ve *tec.ValidationError
			Expect(errors.As(err, &ve)).To(BeTrue())
			Expect(ve.Field).To(Equal(field))
		},
		Entry("zero temperature", func(a *tec.ElectrodeArgs) { a.Temperature = 0 }, "temperature"),
		Entry("negative temperature", func(a *tec.ElectrodeArgs) { a.Temperature = -10 }, "temperature"),
		Entry("NaN temperature", func(a *tec.ElectrodeArgs) { a.Temperature = math.NaN() }, "temperature"),
		Entry("infinite barrier", func(a *tec.ElectrodeArgs) { a.Barrier = math.Inf(1) }, "barrier"),
		Entry("negative richardson", func(a *tec.ElectrodeArgs) { a.Richardson = -1 }, "richardson"),
		Entry("emissivity above one", func(a *tec.ElectrodeArgs) { a.Emissivity = 1.5 }, "emissivity"),
		Entry("negative emissivity", func(a *tec.ElectrodeArgs) { a.Emissivity = -0.1 }, "emissivity"),
		Entry("NaN voltage", func(a *tec.ElectrodeArgs) { a.Voltage = math.NaN() }, "voltage"),
		Entry("infinite position", func(a *tec.ElectrodeArgs) { a.Position = math.Inf(-1) }, "position"),
	)

	It("returns a new value from With methods", func() {
		e := electrode(2000, 2)
		biased, err := e.WithVoltage(1.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(biased.Voltage()).To(Equal(1.5))
		Expect(e.Voltage()).To(Equal(0.0))

		_, err = e.WithEmissivity(2)
		Expect(err).To(MatchError(tec.ErrValidation))
	})

	It("places the vacuum level at barrier plus voltage", func() {
		e, err := electrode(300, 0.8).WithVoltage(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Motive()).To(BeNumerically("~", 5.8, 1e-15))
	})

	It("reproduces Richardson-Dushman special cases", func() {
		f := loadFixture("testdata/saturation_current_density.yaml")
		Expect(f.Method).To(Equal("saturation_current_density"))
		for _, r := range f.Records {
			e, err := tec.ElectrodeFromFields(r.Input)
			Expect(err).NotTo(HaveOccurred())
			got := e.SaturationCurrentDensity()
			Expect(got).To(BeNumerically("~", r.Expected, r.Uncertainty*math.Abs(r.Expected)),
				"input %v", r.Input)
		}
	})

	It("round-trips through its field mapping", func() {
		a := tec.DefaultElectrodeArgs()
		a.Temperature, a.Barrier, a.Richardson, a.Emissivity, a.Voltage, a.Position = 1234.5, 1.7, 87.25, 0.3, -0.25, 3.5
		e, err := tec.ElectrodeFromArgs(a)
		Expect(err).NotTo(HaveOccurred())

		data, err := yaml.Marshal(e.Fields())
		Expect(err).NotTo(HaveOccurred())
		var m tec.FieldMap
		Expect(yaml.Unmarshal(data, &m)).To(Succeed())
		back, err := tec.ElectrodeFromFields(m)
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(e))
	})

	It("rejects unknown field names", func() {
		m := electrode(2000, 2).Fields()
		m["work_function"] = units.MustParse("2 eV")
		_, err := tec.ElectrodeFromFields(m)
		Expect(err).To(MatchError(tec.ErrUnknownField))
	})
})
