package tec

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tecsim/internal/numeric"
)

var _ = Describe("Langmuir root searches", Serial, func() {
	var device *Device

	BeforeEach(func() {
		saved := rootTolerance
		rootTolerance.MaxIter = 2
		DeferCleanup(func() { rootTolerance = saved })

		a := DefaultArgs()
		a.EmitterTemperature = 2000
		a.EmitterBarrier = 2
		a.CollectorTemperature = 300
		a.CollectorBarrier = 0.8
		d, err := FromArgs(a, LangmuirModel{}, WithCache(nil))
		Expect(err).NotTo(HaveOccurred())
		device, err = d.WithOutputVoltage(0.5)
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports ErrConvergence from the critical point when iterations run out", func() {
		_, err := LangmuirModel{}.CriticalPoint(device)
		Expect(err).To(MatchError(ErrConvergence))
		Expect(err).To(MatchError(numeric.ErrMaxIter))

		var ce *ConvergenceError
		Expect(err).To(BeAssignableToTypeOf(ce))
		Expect(err.(*ConvergenceError).Iterations).To(Equal(2))
	})

	It("reports ErrConvergence from the motive solve", func() {
		_, err := device.Motive()
		Expect(err).To(MatchError(ErrConvergence))
	})
})

var _ = Describe("Langmuir root tolerance", func() {
	It("holds the emitter barrier to 1e-12 absolute within 100 iterations", func() {
		Expect(rootTolerance.XTol).To(Equal(1e-12))
		Expect(rootTolerance.RTol).To(Equal(1e-14))
		Expect(rootTolerance.MaxIter).To(Equal(100))
	})
})
