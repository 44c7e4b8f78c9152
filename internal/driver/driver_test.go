package driver_test

import (
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/driver"
	"github.com/san-kum/planetsim/internal/particle"
	"github.com/san-kum/planetsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

type tickCounter struct{ ticks int }

func (c *tickCounter) OnTick(o *sim.Observation) { c.ticks++ }

var _ = Describe("Driver", func() {
	var d *driver.Driver

	BeforeEach(func() {
		opts := driver.DefaultOptions()
		opts.Particles = 256
		opts.Backend = compute.NewSerialBackend()

		var err error
		d, err = driver.New(opts)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts paused and holds still", func() {
		Expect(d.Paused()).To(BeTrue())
		before := d.Snapshot()
		defer d.Release(before)

		stats, err := d.Frame()
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Ticked).To(BeFalse())
		Expect(stats.Time).To(BeZero())

		after := d.Snapshot()
		defer d.Release(after)
		Expect(after).To(Equal(before))
	})

	It("advances the clock by one time step per running frame", func() {
		Expect(d.TogglePause()).To(BeFalse())

		for i := 0; i < 4; i++ {
			_, err := d.Frame()
			Expect(err).NotTo(HaveOccurred())
		}

		stats, err := d.Frame()
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Frame).To(Equal(5))
		Expect(stats.Time).To(BeNumerically("~", 5*driver.DefaultTimeStep, 1e-9))
		Expect(d.Params().Time).To(Equal(stats.Time))
	})

	It("applies a queued impulse once, even while paused", func() {
		Expect(d.QueueImpulse(r3.Vec{X: 25})).To(Succeed())

		stats, err := d.Frame()
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Impulse).To(BeTrue())
		Expect(stats.Ticked).To(BeFalse())

		stats, err = d.Frame()
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Impulse).To(BeFalse())
	})

	It("rejects a non-finite impulse point", func() {
		inf := r3.Vec{X: 1, Y: 2, Z: math.Inf(1)}
		Expect(d.QueueImpulse(inf)).To(MatchError(particle.ErrParameterBounds))
	})

	It("keeps every particle outside the planet while running", func() {
		d.SetPaused(false)
		for i := 0; i < 50; i++ {
			_, err := d.Frame()
			Expect(err).NotTo(HaveOccurred())
		}

		p := d.Params()
		pos := d.Snapshot()
		defer d.Release(pos)
		for _, v := range pos {
			Expect(r3.Norm(r3.Sub(v, p.Center))).To(BeNumerically(">=", p.PlanetRadius()-1e-9))
		}
	})

	It("moves the planet along its orbit when enabled", func() {
		Expect(d.ToggleOrbit()).To(BeTrue())
		d.SetPaused(false)

		stats, err := d.Frame()
		Expect(err).NotTo(HaveOccurred())

		p := d.Params()
		Expect(p.Center).To(Equal(particle.OrbitCenter(p.PlanetSize, stats.Time)))
	})

	It("validates parameter changes", func() {
		Expect(d.SetParam("bounce", 0.3)).To(Succeed())
		Expect(d.Params().Bounce).To(Equal(0.3))

		Expect(d.SetParam("bounce", 4)).To(MatchError(particle.ErrParameterBounds))
		Expect(d.SetParam("spin", 1)).To(MatchError(particle.ErrUnknownParam))
		Expect(d.Params().Bounce).To(Equal(0.3))

		Expect(d.SetCenter(r3.Vec{Y: 2})).To(Succeed())
		Expect(d.Params().Center).To(Equal(r3.Vec{Y: 2}))
		Expect(d.SetCenter(r3.Vec{Y: 5000})).To(MatchError(particle.ErrParameterBounds))
	})

	It("nudges parameters by ten percent or a unit step", func() {
		Expect(d.NudgeParam("friction", 1)).To(Succeed())
		Expect(d.Params().Friction).To(BeNumerically("~", 0.55, 1e-12))
		Expect(d.NudgeParam("friction", -1)).To(Succeed())
		Expect(d.Params().Friction).To(BeNumerically("~", 0.5, 1e-12))

		Expect(d.NudgeParam("center_x", -1)).To(Succeed())
		Expect(d.Params().Center.X).To(Equal(-1.0))

		Expect(d.SetParam("gravity", 0)).To(Succeed())
		Expect(d.NudgeParam("gravity", 1)).To(Succeed())
		Expect(d.Params().Gravity).To(BeNumerically(">", 0))

		Expect(d.NudgeParam("bounce", 1)).To(Succeed())
		Expect(d.NudgeParam("bounce", 1)).To(MatchError(particle.ErrParameterBounds))
		Expect(d.NudgeParam("spin", 1)).To(MatchError(particle.ErrUnknownParam))
	})

	It("toggles collisions", func() {
		Expect(d.Collisions()).To(BeFalse())
		Expect(d.ToggleCollisions()).To(BeTrue())
		Expect(d.Collisions()).To(BeTrue())

		d.SetPaused(false)
		_, err := d.Frame()
		Expect(err).NotTo(HaveOccurred())
	})

	It("restores the starting cloud on reset", func() {
		initial := d.Snapshot()
		defer d.Release(initial)
		colors := d.Colors()

		d.SetPaused(false)
		Expect(d.SetParam("friction", 0.9)).To(Succeed())
		for i := 0; i < 10; i++ {
			_, err := d.Frame()
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(d.Reset()).To(Succeed())
		Expect(d.Paused()).To(BeTrue())
		Expect(d.Params()).To(Equal(particle.DefaultParams()))

		pos := d.Snapshot()
		defer d.Release(pos)
		Expect(pos).To(Equal(initial))
		Expect(d.Colors()).To(Equal(colors))
	})

	It("notifies observers on every tick", func() {
		counter := &tickCounter{}
		d.AddObserver(counter)
		d.SetPaused(false)

		for i := 0; i < 3; i++ {
			_, err := d.Frame()
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(counter.ticks).To(Equal(3))
	})

	It("serialises parameter changes against running frames", func() {
		d.SetPaused(false)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, err := d.Frame()
				Expect(err).NotTo(HaveOccurred())
			}
		}()
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			for i := 0; i < 20; i++ {
				Expect(d.SetParam("gravity", -0.001*float64(i%3))).To(Succeed())
				Expect(d.QueueImpulse(r3.Vec{Z: float64(i)})).To(Succeed())
			}
		}()
		wg.Wait()

		Expect(d.Params().Time).To(BeNumerically("~", 20*driver.DefaultTimeStep, 1e-9))
	})
})

var _ = Describe("OptionsFromConfig", func() {
	It("carries the preset into the driver", func() {
		cfg := config.GetPreset("sticky")
		cfg.Particles = 64

		opts, err := driver.OptionsFromConfig(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Collisions).To(BeTrue())
		Expect(opts.StartPaused).To(BeTrue())
		Expect(opts.Params.Bounce).To(Equal(0.1))

		d, err := driver.New(opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Len()).To(Equal(64))
		Expect(d.Collisions()).To(BeTrue())
	})

	It("rejects invalid parameters", func() {
		opts := driver.DefaultOptions()
		opts.Params.Friction = -1
		_, err := driver.New(opts)
		Expect(err).To(MatchError(particle.ErrParameterBounds))
	})
})
