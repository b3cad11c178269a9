package sim

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/collide"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/integrators"
)

// Solver owns a set of particles and advances them in fixed sub-steps:
// broad phase, pair and world resolution, then gravity and integration.
//
// Update, AddParticle and Destroy are serialized with each other. Readers
// (Snapshot, Get, Each, counters) may run concurrently with Update; they lock
// one particle at a time and never wait for a whole collision pass.
type Solver struct {
	// stepMu serializes structural operations. Always taken before mu.
	stepMu sync.Mutex

	// mu guards the arena slice header and the fields below it.
	mu         sync.RWMutex
	bodies     []*dynamo.Body
	gravity    r2.Vec
	worldSize  r2.Vec
	totalSteps uint64
	totalTime  float64
	destroyed  bool

	subSteps      int
	paused        atomic.Bool
	stepRequested atomic.Bool

	resolver   *collide.Resolver
	integrator *integrators.Verlet
	forces     []dynamo.Force
	observers  []Observer
	log        *log.Logger
}

// New validates cfg and returns an empty solver.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid solver config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Solver{
		gravity:    cfg.Gravity,
		worldSize:  cfg.WorldSize,
		subSteps:   cfg.SubSteps,
		resolver:   collide.NewResolver(),
		integrator: integrators.NewVerlet(cfg.Workers),
		log:        logger.WithPrefix("solver"),
	}
	s.paused.Store(cfg.Paused)

	s.log.Debug("created", "world", cfg.WorldSize, "substeps", cfg.SubSteps, "gravity", cfg.Gravity, "paused", cfg.Paused)
	return s, nil
}

func (s *Solver) AddForce(f dynamo.Force) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.forces = append(s.forces, f)
}

func (s *Solver) AddObserver(o Observer) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.observers = append(s.observers, o)
}

// AddParticle inserts p and returns its handle. The particle can be edited
// through the handle before the next Update.
func (s *Solver) AddParticle(p dynamo.Particle) (Handle, error) {
	if !p.IsValid() {
		return -1, dynamo.ErrInvalidParticle
	}

	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return -1, dynamo.ErrDestroyed
	}
	s.bodies = append(s.bodies, dynamo.NewBody(p))
	return Handle(len(s.bodies) - 1), nil
}

func (s *Solver) body(h Handle) (*dynamo.Body, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, dynamo.ErrDestroyed
	}
	if h < 0 || int(h) >= len(s.bodies) {
		return nil, fmt.Errorf("handle %d: %w", h, dynamo.ErrUnknownHandle)
	}
	return s.bodies[h], nil
}

// Edit runs fn with exclusive access to the particle behind h.
func (s *Solver) Edit(h Handle, fn func(p *dynamo.Particle)) error {
	b, err := s.body(h)
	if err != nil {
		return err
	}
	b.Edit(fn)
	return nil
}

// Get returns a copy of the particle behind h.
func (s *Solver) Get(h Handle) (dynamo.Particle, error) {
	b, err := s.body(h)
	if err != nil {
		return dynamo.Particle{}, err
	}
	return b.Load(), nil
}

func (s *Solver) arena() []*dynamo.Body {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bodies
}

// Each calls fn with a copy of every particle in insertion order until fn
// returns false.
func (s *Solver) Each(fn func(h Handle, p dynamo.Particle) bool) {
	for i, b := range s.arena() {
		if !fn(Handle(i), b.Load()) {
			return
		}
	}
}

// Snapshot appends the drawable state of every particle to buf. dt is the
// step used to derive velocities, normally the sub-step of the last update.
func (s *Solver) Snapshot(buf []dynamo.Drawable, dt float64) []dynamo.Drawable {
	for i, b := range s.arena() {
		p := b.Load()
		d := dynamo.Drawable{
			Handle:   Handle(i),
			Position: p.Position,
			Radius:   p.Radius,
			Color:    p.Color,
			Visible:  p.Visible,
			Fixed:    p.Fixed,
		}
		if dt > 0 {
			d.Velocity = p.Velocity(dt)
		}
		buf = append(buf, d)
	}
	return buf
}

// Update advances the simulation by dt split into equal sub-steps. It does
// nothing while paused unless a single step was requested.
func (s *Solver) Update(dt float64) {
	st, ran := s.update(dt)
	if !ran {
		return
	}
	for _, o := range s.observerList() {
		o.OnUpdate(st)
	}
}

func (s *Solver) update(dt float64) (StepStats, bool) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	if s.paused.Load() {
		if !s.stepRequested.CompareAndSwap(true, false) {
			return StepStats{}, false
		}
	} else {
		s.stepRequested.Store(false)
	}

	s.mu.RLock()
	bodies, gravity, size, destroyed := s.bodies, s.gravity, s.worldSize, s.destroyed
	s.mu.RUnlock()
	if destroyed {
		return StepStats{}, false
	}

	start := time.Now()
	st := StepStats{Dt: dt, SubSteps: s.subSteps, Particles: len(bodies)}
	stepDt := dt / float64(s.subSteps)

	for i := 0; i < s.subSteps; i++ {
		st.add(s.resolver.Resolve(bodies, size))

		t0 := time.Now()
		for _, f := range s.forces {
			f.Apply(bodies)
		}
		s.integrator.Step(bodies, gravity, stepDt)
		st.Integrate += time.Since(t0)
	}

	s.mu.Lock()
	s.totalTime += dt
	s.totalSteps++
	st.Step = s.totalSteps
	s.mu.Unlock()

	st.Total = time.Since(start)
	return st, true
}

func (s *Solver) observerList() []Observer {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	return s.observers
}

func (s *Solver) Pause()  { s.paused.Store(true) }
func (s *Solver) Resume() { s.paused.Store(false) }

// SingleStep lets exactly one Update run while paused.
func (s *Solver) SingleStep() { s.stepRequested.Store(true) }

func (s *Solver) Paused() bool { return s.paused.Load() }

func (s *Solver) ParticleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bodies)
}

func (s *Solver) TotalSteps() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSteps
}

func (s *Solver) TotalTimeElapsed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalTime
}

func (s *Solver) SubSteps() int { return s.subSteps }

// StepDt returns the sub-step length used for a frame of length dt.
func (s *Solver) StepDt(dt float64) float64 { return dt / float64(s.subSteps) }

func (s *Solver) Gravity() r2.Vec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gravity
}

func (s *Solver) SetGravity(g r2.Vec) error {
	if err := validateGravity(g); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gravity = g
	return nil
}

func (s *Solver) WorldSize() r2.Vec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.worldSize
}

// SetWorldSize takes effect at the next Update.
func (s *Solver) SetWorldSize(size r2.Vec) error {
	if err := validateWorldSize(size); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worldSize = size
	return nil
}

// Destroy releases the arena. Handles become invalid and later calls to
// Update do nothing. Destroy is idempotent.
func (s *Solver) Destroy() {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.log.Debug("destroyed", "particles", len(s.bodies), "steps", s.totalSteps, "time", s.totalTime)
	s.destroyed = true
	s.bodies = nil
	s.forces = nil
	s.observers = nil
}
