package sim

import (
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

const frameDt = 1.0 / 60

var _ = Describe("Solver", func() {
	var (
		cfg    Config
		solver *Solver
	)

	BeforeEach(func() {
		cfg = DefaultConfig()
		var err error
		solver, err = New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		solver.Destroy()
	})

	Describe("construction", func() {
		DescribeTable("rejects degenerate configs",
			func(edit func(c *Config), want error) {
				c := DefaultConfig()
				edit(&c)
				s, err := New(c)
				Expect(s).To(BeNil())
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			},
			Entry("zero width", func(c *Config) { c.WorldSize.X = 0 }, dynamo.ErrInvalidWorldSize),
			Entry("negative height", func(c *Config) { c.WorldSize.Y = -5 }, dynamo.ErrInvalidWorldSize),
			Entry("infinite world", func(c *Config) { c.WorldSize.X = math.Inf(1) }, dynamo.ErrInvalidWorldSize),
			Entry("NaN world", func(c *Config) { c.WorldSize.Y = math.NaN() }, dynamo.ErrInvalidWorldSize),
			Entry("zero sub-steps", func(c *Config) { c.SubSteps = 0 }, dynamo.ErrInvalidSubSteps),
			Entry("NaN gravity", func(c *Config) { c.Gravity.Y = math.NaN() }, dynamo.ErrInvalidGravity),
		)

		It("starts running unless configured paused", func() {
			Expect(solver.Paused()).To(BeFalse())

			cfg.Paused = true
			s, err := New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Paused()).To(BeTrue())
		})

		It("rejects particles with a non-positive radius", func() {
			p := dynamo.NewParticle(r2.Vec{})
			p.Radius = 0
			_, err := solver.AddParticle(p)
			Expect(err).To(MatchError(dynamo.ErrInvalidParticle))
			Expect(solver.ParticleCount()).To(BeZero())
		})
	})

	Describe("Update", func() {
		It("matches the golden single-particle trajectory", func() {
			p := dynamo.NewParticle(r2.Vec{X: 0, Y: 250})
			p.Radius = 10
			p.Elasticity = 1
			h, err := solver.AddParticle(p)
			Expect(err).NotTo(HaveOccurred())

			Expect(solver.Edit(h, func(p *dynamo.Particle) {
				p.SetVelocity(r2.Vec{X: 100, Y: 50}, solver.StepDt(frameDt))
			})).To(Succeed())

			solver.Update(frameDt)

			got, err := solver.Get(h)
			Expect(err).NotTo(HaveOccurred())
			// 8 sub-steps of h=1/480: p0 + v/60 + g*h^2*(8*9/2)
			Expect(got.Position.X).To(BeNumerically("~", 1.6666667, 1e-4))
			Expect(got.Position.Y).To(BeNumerically("~", 250.7708333, 1e-4))
			Expect(got.Velocity(solver.StepDt(frameDt)).X).To(BeNumerically("~", 100, 1e-6))
		})

		It("advances counters once per executed update", func() {
			for i := 0; i < 3; i++ {
				solver.Update(frameDt)
			}
			Expect(solver.TotalSteps()).To(Equal(uint64(3)))
			Expect(solver.TotalTimeElapsed()).To(BeNumerically("~", 3*frameDt, 1e-12))
		})

		It("never moves fixed particles", func() {
			peg := dynamo.NewParticle(r2.Vec{X: 0, Y: -480})
			peg.Fixed = true
			ph, err := solver.AddParticle(peg)
			Expect(err).NotTo(HaveOccurred())

			corner := dynamo.NewParticle(r2.Vec{X: 600, Y: 600})
			corner.Fixed = true
			ch, err := solver.AddParticle(corner)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 20; i++ {
				_, err := solver.AddParticle(dynamo.NewParticle(r2.Vec{X: float64(i%3) - 1, Y: -400 + float64(i)*25}))
				Expect(err).NotTo(HaveOccurred())
			}

			for i := 0; i < 240; i++ {
				solver.Update(frameDt)
			}

			for h, want := range map[Handle]dynamo.Particle{ph: peg, ch: corner} {
				got, err := solver.Get(h)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Position).To(Equal(want.Position))
				Expect(got.PositionLast).To(Equal(want.PositionLast))
			}
		})

		It("separates overlapping particles without gravity", func() {
			Expect(solver.SetGravity(r2.Vec{})).To(Succeed())
			a, _ := solver.AddParticle(dynamo.NewParticle(r2.Vec{X: 0}))
			b, _ := solver.AddParticle(dynamo.NewParticle(r2.Vec{X: 5}))

			for i := 0; i < 3; i++ {
				solver.Update(frameDt)
			}

			pa, _ := solver.Get(a)
			pb, _ := solver.Get(b)
			Expect(r2.Norm(r2.Sub(pa.Position, pb.Position))).To(BeNumerically(">=", 20-1e-3))
		})

		It("keeps particles near the world bounds", func() {
			// Clamping runs before integration, so a particle can sit one
			// sub-step of travel past the wall between updates.
			const slack = 30.0
			for i := 0; i < 50; i++ {
				h, err := solver.AddParticle(dynamo.NewParticle(r2.Vec{X: float64(i*15) - 375, Y: 0}))
				Expect(err).NotTo(HaveOccurred())
				Expect(solver.Edit(h, func(p *dynamo.Particle) {
					p.SetVelocity(r2.Vec{X: 600, Y: -400}, solver.StepDt(frameDt))
				})).To(Succeed())
			}

			for i := 0; i < 120; i++ {
				solver.Update(frameDt)
			}

			solver.Each(func(_ Handle, p dynamo.Particle) bool {
				Expect(math.Abs(p.Position.X)).To(BeNumerically("<=", 500-p.Radius+slack))
				Expect(math.Abs(p.Position.Y)).To(BeNumerically("<=", 500-p.Radius+slack))
				return true
			})
		})
	})

	Describe("pause and single step", func() {
		var h Handle

		BeforeEach(func() {
			var err error
			h, err = solver.AddParticle(dynamo.NewParticle(r2.Vec{}))
			Expect(err).NotTo(HaveOccurred())
			solver.Pause()
		})

		It("ignores updates while paused", func() {
			before, _ := solver.Get(h)
			solver.Update(frameDt)
			after, _ := solver.Get(h)

			Expect(after).To(Equal(before))
			Expect(solver.TotalSteps()).To(BeZero())
			Expect(solver.TotalTimeElapsed()).To(BeZero())
		})

		It("runs exactly one update per single-step request", func() {
			solver.SingleStep()
			solver.Update(frameDt)
			solver.Update(frameDt)

			Expect(solver.TotalSteps()).To(Equal(uint64(1)))
			Expect(solver.Paused()).To(BeTrue())

			solver.SingleStep()
			solver.Update(frameDt)
			Expect(solver.TotalSteps()).To(Equal(uint64(2)))
		})

		It("resumes normal stepping", func() {
			solver.Resume()
			solver.Update(frameDt)
			solver.Update(frameDt)
			Expect(solver.TotalSteps()).To(Equal(uint64(2)))
		})
	})

	Describe("observers", func() {
		It("reports per-update stats", func() {
			var got []StepStats
			solver.AddObserver(ObserverFunc(func(st StepStats) { got = append(got, st) }))

			Expect(solver.SetGravity(r2.Vec{})).To(Succeed())
			_, _ = solver.AddParticle(dynamo.NewParticle(r2.Vec{X: 0}))
			_, _ = solver.AddParticle(dynamo.NewParticle(r2.Vec{X: 15}))

			solver.Update(frameDt)
			solver.Pause()
			solver.Update(frameDt)

			Expect(got).To(HaveLen(1))
			Expect(got[0].Step).To(Equal(uint64(1)))
			Expect(got[0].SubSteps).To(Equal(8))
			Expect(got[0].Particles).To(Equal(2))
			Expect(got[0].Contacts).To(BeNumerically(">", 0))
			Expect(got[0].Candidates).To(BeNumerically(">=", got[0].Contacts))
		})

		It("lets observers call back into the solver", func() {
			solver.AddObserver(ObserverFunc(func(st StepStats) {
				_, err := solver.AddParticle(dynamo.NewParticle(r2.Vec{}))
				Expect(err).NotTo(HaveOccurred())
			}))
			solver.Update(frameDt)
			Expect(solver.ParticleCount()).To(Equal(1))
		})
	})

	Describe("concurrent readers", func() {
		It("snapshots while the physics path updates", func() {
			for i := 0; i < 200; i++ {
				_, err := solver.AddParticle(dynamo.NewParticle(r2.Vec{X: float64(i%20)*22 - 220, Y: float64(i/20) * 22}))
				Expect(err).NotTo(HaveOccurred())
			}

			var wg sync.WaitGroup
			done := make(chan struct{})
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				pool := NewFramePool(200)
				for {
					select {
					case <-done:
						return
					default:
					}
					frame := solver.Snapshot(pool.Get(), solver.StepDt(frameDt))
					Expect(frame).To(HaveLen(200))
					pool.Put(frame)
				}
			}()

			for i := 0; i < 60; i++ {
				solver.Update(frameDt)
			}
			close(done)
			wg.Wait()

			Expect(solver.TotalSteps()).To(Equal(uint64(60)))
		})
	})

	Describe("Destroy", func() {
		It("is idempotent and invalidates handles", func() {
			h, err := solver.AddParticle(dynamo.NewParticle(r2.Vec{}))
			Expect(err).NotTo(HaveOccurred())

			solver.Destroy()
			solver.Destroy()

			_, err = solver.Get(h)
			Expect(err).To(MatchError(dynamo.ErrDestroyed))
			Expect(solver.Edit(h, func(*dynamo.Particle) {})).To(MatchError(dynamo.ErrDestroyed))
			_, err = solver.AddParticle(dynamo.NewParticle(r2.Vec{}))
			Expect(err).To(MatchError(dynamo.ErrDestroyed))

			solver.Update(frameDt)
			Expect(solver.ParticleCount()).To(BeZero())
			Expect(solver.TotalSteps()).To(BeZero())
		})
	})

	Describe("handles", func() {
		It("rejects handles it never issued", func() {
			_, err := solver.Get(3)
			Expect(errors.Is(err, dynamo.ErrUnknownHandle)).To(BeTrue())
		})

		It("rejects degenerate runtime world sizes", func() {
			Expect(solver.SetWorldSize(r2.Vec{X: 0, Y: 10})).To(MatchError(dynamo.ErrInvalidWorldSize))
			Expect(solver.SetWorldSize(r2.Vec{X: 200, Y: 100})).To(Succeed())
			Expect(solver.WorldSize()).To(Equal(r2.Vec{X: 200, Y: 100}))
		})
	})
})
