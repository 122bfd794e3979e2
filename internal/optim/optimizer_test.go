package optim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tecsim/internal/optim"
	"github.com/san-kum/tecsim/internal/perf"
	"github.com/san-kum/tecsim/internal/tec"
)

func device(emitterBarrier, collectorBarrier float64, model tec.Model) *tec.Device {
	a := tec.DefaultArgs()
	a.EmitterTemperature, a.EmitterBarrier = 2000, emitterBarrier
	a.CollectorTemperature, a.CollectorBarrier = 300, collectorBarrier
	a.CollectorVoltage = 5
	d, err := tec.FromArgs(a, model)
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("Optimizer", func() {
	ctx := context.Background()

	It("finds the flat-band voltage for base power", func() {
		res, err := optim.New(optim.DefaultConfig()).Maximize(ctx, device(2, 0.8, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Voltage).To(BeNumerically("~", 1.2, 1e-5))
		Expect(res.Value).To(BeNumerically("~", 5255.866166862625, 0.05))
		Expect(res.Target).To(Equal(optim.Power))
		Expect(res.Device).To(BeNil())
		Expect(res.Trials).To(BeNumerically(">", 16))
		Expect(res.Trials).To(BeNumerically("<=", 500))
	})

	It("finds kT/e when the barriers match", func() {
		res, err := optim.New(optim.Config{MaxVoltage: 4}).Maximize(ctx, device(2, 2, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Voltage).To(BeNumerically("~", tec.BoltzmannEV*2000, 1e-5))
	})

	It("maximizes total efficiency", func() {
		res, err := optim.New(optim.Config{Target: optim.Efficiency}).Maximize(ctx, device(2, 0.8, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Voltage).To(BeNumerically("~", 1.5351744104816407, 1e-5))
		Expect(res.Value).To(BeNumerically("~", 0.5434960268507422, 1e-9))
	})

	It("retains the optimal device on request", func() {
		d := device(2, 0.8, tec.LangmuirModel{})
		res, err := optim.New(optim.Config{RetainDevice: true}).Maximize(ctx, d)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Device).NotTo(BeNil())
		Expect(res.Device.Collector().Voltage()).To(Equal(res.Voltage))
		Expect(d.Collector().Voltage()).To(Equal(5.0))

		p, err := perf.OutputPowerDensity(res.Device)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(res.Value))

		// no grid point beats the refined optimum
		for v := 0.0; v <= 2.8; v += 0.05 {
			dv, err := d.WithCollectorVoltage(v)
			Expect(err).NotTo(HaveOccurred())
			pv, err := perf.OutputPowerDensity(dv)
			Expect(err).NotTo(HaveOccurred())
			Expect(pv).To(BeNumerically("<=", res.Value*(1+1e-9)))
		}
	})

	It("searches a fixed domain without the grid", func() {
		cfg := optim.Config{MinVoltage: 0.2, MaxVoltage: 1, GridPoints: -1}
		o := optim.New(cfg)
		d := device(2, 0.8, nil)
		lo, hi := o.Domain(d)
		Expect(lo).To(Equal(0.2))
		Expect(hi).To(Equal(1.0))

		res, err := o.Maximize(ctx, d)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Voltage).To(BeNumerically("~", 1, 1e-5))
	})

	It("defaults to the barrier sum above the emitter voltage", func() {
		lo, hi := optim.New(optim.Config{}).Domain(device(2, 0.8, nil))
		Expect(lo).To(Equal(0.0))
		Expect(hi).To(BeNumerically("~", 2.8, 1e-15))
	})

	It("defaults only the unset bound", func() {
		d := device(2, 0.8, nil)
		lo, hi := optim.New(optim.Config{MinVoltage: 0.5}).Domain(d)
		Expect(lo).To(Equal(0.5))
		Expect(hi).To(BeNumerically("~", 2.8, 1e-15))

		lo, hi = optim.New(optim.Config{MaxVoltage: 1.5}).Domain(d)
		Expect(lo).To(Equal(0.0))
		Expect(hi).To(Equal(1.5))

		res, err := optim.New(optim.Config{MinVoltage: 1.5}).Maximize(ctx, d)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Voltage).To(BeNumerically(">=", 1.5))
	})

	It("rejects an empty domain", func() {
		_, err := optim.New(optim.Config{MinVoltage: 3}).Maximize(ctx, device(2, 0.8, nil))
		Expect(err).To(MatchError(tec.ErrDomain))

		_, err = optim.New(optim.Config{MinVoltage: 1, MaxVoltage: 0.5}).Maximize(ctx, device(2, 0.8, nil))
		Expect(err).To(MatchError(tec.ErrDomain))
	})

	It("fails with a convergence error past the trial cap", func() {
		_, err := optim.New(optim.Config{MaxTrials: 3, GridPoints: -1}).Maximize(ctx, device(2, 2, nil))
		Expect(err).To(MatchError(tec.ErrConvergence))

		_, err = optim.New(optim.Config{MaxTrials: 10, GridPoints: 16}).Maximize(ctx, device(2, 0.8, nil))
		Expect(err).To(MatchError(tec.ErrConvergence))
	})

	It("reports when no voltage delivers power", func() {
		a := tec.DefaultArgs()
		a.EmitterTemperature, a.EmitterBarrier = 1000, 2
		a.CollectorTemperature, a.CollectorBarrier = 1200, 0.8
		d, err := tec.FromArgs(a, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = optim.New(optim.Config{Target: optim.Efficiency}).Maximize(ctx, d)
		Expect(err).To(MatchError(tec.ErrDomain))
	})

	It("stops on a cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := optim.New(optim.DefaultConfig()).Maximize(cctx, device(2, 0.8, nil))
		Expect(err).To(MatchError(context.Canceled))
	})

	DescribeTable("ParseTarget",
		func(in string, want optim.Target) {
			got, err := optim.ParseTarget(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("short power", "power", optim.Power),
		Entry("metric name", "output_power_density", optim.Power),
		Entry("short efficiency", "Efficiency", optim.Efficiency),
		Entry("metric efficiency", "total_efficiency", optim.Efficiency),
	)

	It("rejects unknown targets", func() {
		_, err := optim.ParseTarget("current")
		Expect(err).To(MatchError(optim.ErrUnknownTarget))
	})
})

var _ = Describe("GridSearch", func() {
	It("returns the best point and its neighbours", func() {
		g := optim.NewGridSearch(0, 4, 5, 2)
		Expect(g.Values()).To(Equal([]float64{0, 1, 2, 3, 4}))
		best, scores, err := g.Search(context.Background(), func(_ context.Context, v float64) (float64, error) {
			if v == 4 {
				return math.Inf(-1), nil
			}
			return -(v - 1.2) * (v - 1.2), nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(1))
		Expect(scores).To(HaveLen(5))
		lo, hi := g.Bracket(best)
		Expect(lo).To(Equal(0.0))
		Expect(hi).To(Equal(2.0))

		lo, hi = g.Bracket(4)
		Expect(lo).To(Equal(3.0))
		Expect(hi).To(Equal(4.0))
	})

	It("reports no feasible point", func() {
		g := optim.NewGridSearch(0, 1, 3, 0)
		best, _, err := g.Search(context.Background(), func(context.Context, float64) (float64, error) {
			return math.Inf(-1), nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(-1))
	})
})
