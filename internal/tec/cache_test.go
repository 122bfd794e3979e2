package tec_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tecsim/internal/tec"
)

var _ = Describe("MotiveCache", func() {
	var cache *tec.MotiveCache

	BeforeEach(func() {
		cache = tec.NewMotiveCache(0)
	})

	It("returns the same profile on repeated population", func() {
		d := exampleDevice(tec.LangmuirModel{}, tec.WithCache(cache))
		p1, err := d.Motive()
		Expect(err).NotTo(HaveOccurred())
		p2, err := d.Motive()
		Expect(err).NotTo(HaveOccurred())
		Expect(p2).To(BeIdenticalTo(p1))

		// a distinct but equal device hits the cache
		twin := exampleDevice(tec.LangmuirModel{}, tec.WithCache(cache))
		p3, err := twin.Motive()
		Expect(err).NotTo(HaveOccurred())
		Expect(p3).To(BeIdenticalTo(p1))

		hits, solves := cache.Stats()
		Expect(hits).To(Equal(int64(1)))
		Expect(solves).To(Equal(int64(1)))
		Expect(cache.Len()).To(Equal(1))
	})

	It("solves once under concurrent demand", func() {
		const n = 32
		base := exampleDevice(tec.LangmuirModel{}, tec.WithCache(cache))
		d, err := base.WithOutputVoltage(0.75)
		Expect(err).NotTo(HaveOccurred())

		profiles := make([]*tec.Profile, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				dev, err := d.WithOutputVoltage(0.75)
				if err != nil {
					errs[i] = err
					return
				}
				profiles[i], errs[i] = dev.Motive()
			}(i)
		}
		wg.Wait()

		for i := 0; i < n; i++ {
			Expect(errs[i]).NotTo(HaveOccurred())
			Expect(profiles[i]).To(BeIdenticalTo(profiles[0]))
		}
		_, solves := cache.Stats()
		Expect(solves).To(Equal(int64(1)))
	})

	It("keys on the model as well as the electrodes", func() {
		d := exampleDevice(tec.BaseModel{}, tec.WithCache(cache))
		back, err := d.WithModel(tec.BaseModel{CollectorEmission: true})
		Expect(err).NotTo(HaveOccurred())

		p1, err := d.Motive()
		Expect(err).NotTo(HaveOccurred())
		p2, err := back.Motive()
		Expect(err).NotTo(HaveOccurred())
		Expect(p2).NotTo(BeIdenticalTo(p1))
		Expect(p1.Model).To(Equal("base"))
		Expect(p2.Model).To(Equal("base-back"))
		Expect(cache.Len()).To(Equal(2))
	})

	It("evicts the oldest entry when full", func() {
		small := tec.NewMotiveCache(2)
		d := exampleDevice(nil, tec.WithCache(small))
		for _, v := range []float64{1, 2, 3} {
			dv, err := d.WithOutputVoltage(v)
			Expect(err).NotTo(HaveOccurred())
			_, err = dv.Motive()
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(small.Len()).To(Equal(2))

		// voltage 1 was evicted and is solved again
		dv, err := d.WithOutputVoltage(1)
		Expect(err).NotTo(HaveOccurred())
		_, err = dv.Motive()
		Expect(err).NotTo(HaveOccurred())
		_, solves := small.Stats()
		Expect(solves).To(Equal(int64(4)))

		small.Reset()
		Expect(small.Len()).To(BeZero())
	})

	It("works without a cache", func() {
		d := exampleDevice(tec.LangmuirModel{}, tec.WithCache(nil))
		p, err := d.Motive()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Model).To(Equal("langmuir"))
	})
})
