package metrics

import (
	"math"

	"github.com/san-kum/partsim/internal/collide"
	"github.com/san-kum/partsim/internal/dynamo"
)

// Penetration reports the deepest overlap between any two particles, found
// with the same sort-and-sweep broad phase the solver uses.
type Penetration struct {
	broad   *collide.SortAndSweep
	bodies  []*dynamo.Body
	max     float64
	current float64
}

func NewPenetration() *Penetration {
	return &Penetration{broad: collide.NewSortAndSweep(0)}
}

func (p *Penetration) Name() string { return "penetration" }

func (p *Penetration) Observe(frame []dynamo.Drawable, t float64) {
	p.load(frame)
	p.broad.Sort(p.bodies)

	deepest := 0.0
	p.broad.Sweep(p.bodies, func(a, b *dynamo.Particle) bool {
		d := collide.Overlap(a, b)
		deepest = math.Max(deepest, d)
		return d > 0
	})

	p.current = deepest
	p.max = math.Max(p.max, deepest)
}

func (p *Penetration) load(frame []dynamo.Drawable) {
	for len(p.bodies) < len(frame) {
		p.bodies = append(p.bodies, dynamo.NewBody(dynamo.Particle{}))
	}
	p.bodies = p.bodies[:len(frame)]
	for i, d := range frame {
		p.bodies[i].Edit(func(q *dynamo.Particle) {
			q.Position = d.Position
			q.PositionLast = d.Position
			q.Radius = d.Radius
			q.Fixed = d.Fixed
		})
	}
}

func (p *Penetration) Value() float64   { return p.max }
func (p *Penetration) Current() float64 { return p.current }
func (p *Penetration) Reset()           { p.max, p.current = 0, 0 }
