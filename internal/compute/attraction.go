package compute

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Attraction pulls every particle toward every other one. Fixed particles
// attract but never move.
type Attraction struct {
	// Backend computes the accelerations; nil means the direct sum.
	Backend   Backend
	Strength  float64
	Softening float64

	pos  []r2.Vec
	mass []float64
}

func NewAttraction(b Backend, strength, softening float64) *Attraction {
	if b == nil {
		b = NewCPU(0)
	}
	return &Attraction{Backend: b, Strength: strength, Softening: softening}
}

func (a *Attraction) backend() Backend {
	if a.Backend == nil {
		a.Backend = NewCPU(0)
	}
	return a.Backend
}

func (a *Attraction) Name() string { return "attraction/" + a.backend().Name() }

func (a *Attraction) Apply(bodies []*dynamo.Body) {
	if len(bodies) < 2 || a.Strength == 0 {
		return
	}

	a.pos = a.pos[:0]
	a.mass = a.mass[:0]
	for _, b := range bodies {
		b.Lock()
		p := b.Particle()
		a.pos = append(a.pos, p.Position)
		a.mass = append(a.mass, p.Radius)
		b.Unlock()
	}

	acc := a.backend().Attraction(a.pos, a.mass, a.Strength, a.Softening)

	for i, b := range bodies {
		b.Lock()
		b.Particle().ApplyForce(acc[i])
		b.Unlock()
	}
}
