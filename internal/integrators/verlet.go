package integrators

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// DefaultMinChunk is the smallest slice of bodies handed to one worker.
const DefaultMinChunk = 256

// Verlet applies uniform gravity and integrates every body. Bodies are
// independent during this pass, so it is split across workers.
type Verlet struct {
	Workers  int
	MinChunk int
}

func NewVerlet(workers int) *Verlet {
	return &Verlet{
		Workers:  dynamo.Workers(workers),
		MinChunk: DefaultMinChunk,
	}
}

func (v *Verlet) Step(bodies []*dynamo.Body, gravity r2.Vec, dt float64) {
	dynamo.ParallelFor(len(bodies), v.MinChunk, v.Workers, func(start, end int) {
		for _, b := range bodies[start:end] {
			b.Lock()
			p := b.Particle()
			p.ApplyForce(gravity)
			p.Integrate(dt)
			b.Unlock()
		}
	})
}
