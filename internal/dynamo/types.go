package dynamo

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultRadius     = 10.0
	DefaultElasticity = 1.0
)

// Color is an opaque render attribute. The solver never reads it.
type Color struct {
	R, G, B float64
}

var White = Color{R: 1, G: 1, B: 1}

// Handle identifies a particle inside a solver arena. Handles are stable for
// the lifetime of the solver.
type Handle int

// Particle is a circular body integrated with position Verlet. Velocity is
// never stored; it is the difference between Position and PositionLast.
type Particle struct {
	Position     r2.Vec
	PositionLast r2.Vec
	Acceleration r2.Vec
	Color        Color
	Radius       float64
	Elasticity   float64
	Fixed        bool
	Visible      bool
}

// NewParticle returns a visible, white, movable particle at rest at pos.
func NewParticle(pos r2.Vec) Particle {
	return Particle{
		Position:     pos,
		PositionLast: pos,
		Color:        White,
		Radius:       DefaultRadius,
		Elasticity:   DefaultElasticity,
		Visible:      true,
	}
}

// Integrate advances the particle by one Verlet step and clears the
// accumulated acceleration.
func (p *Particle) Integrate(dt float64) {
	if p.Fixed {
		return
	}
	displacement := r2.Sub(p.Position, p.PositionLast)
	p.PositionLast = p.Position
	p.Position = r2.Add(p.Position, r2.Add(displacement, r2.Scale(dt*dt, p.Acceleration)))
	p.Acceleration = r2.Vec{}
}

// ApplyForce accumulates an acceleration for the next Integrate call.
func (p *Particle) ApplyForce(a r2.Vec) {
	if p.Fixed {
		return
	}
	p.Acceleration = r2.Add(p.Acceleration, a)
}

// SetVelocity rebuilds PositionLast so that Velocity(dt) returns v.
func (p *Particle) SetVelocity(v r2.Vec, dt float64) {
	if p.Fixed {
		return
	}
	p.PositionLast = r2.Sub(p.Position, r2.Scale(dt, v))
}

// AddVelocity adds v to the derived velocity.
func (p *Particle) AddVelocity(v r2.Vec, dt float64) {
	if p.Fixed {
		return
	}
	p.PositionLast = r2.Sub(p.PositionLast, r2.Scale(dt, v))
}

// Velocity derives the velocity over dt. dt must match the step used since
// the last Integrate for the result to be the true velocity.
func (p *Particle) Velocity(dt float64) r2.Vec {
	return r2.Scale(1/dt, r2.Sub(p.Position, p.PositionLast))
}

// Left and Right bound the particle on the x axis.
func (p *Particle) Left() float64  { return p.Position.X - p.Radius }
func (p *Particle) Right() float64 { return p.Position.X + p.Radius }

func (p *Particle) IsValid() bool {
	if !(p.Radius > 0) || math.IsInf(p.Radius, 0) {
		return false
	}
	for _, v := range []float64{p.Position.X, p.Position.Y, p.PositionLast.X, p.PositionLast.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Body is a particle shared between the physics path and readers. Every
// access goes through the per-body lock.
type Body struct {
	mu sync.Mutex
	p  Particle
}

func NewBody(p Particle) *Body {
	return &Body{p: p}
}

// Lock acquires the body. Particle may only be used while the lock is held.
func (b *Body) Lock()   { b.mu.Lock() }
func (b *Body) Unlock() { b.mu.Unlock() }

// Particle returns the guarded particle. Callers must hold the lock.
func (b *Body) Particle() *Particle { return &b.p }

// Load returns a copy of the particle.
func (b *Body) Load() Particle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.p
}

// Edit runs fn with exclusive access to the particle.
func (b *Body) Edit(fn func(p *Particle)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.p)
}

// Drawable is the read-only per-frame state handed to renderers.
type Drawable struct {
	Handle   Handle
	Position r2.Vec
	Velocity r2.Vec
	Radius   float64
	Color    Color
	Visible  bool
	Fixed    bool
}

// Force contributes accelerations to a set of bodies. Implementations lock
// each body they touch.
type Force interface {
	Name() string
	Apply(bodies []*Body)
}
