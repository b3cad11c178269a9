package compute

import (
	"math"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

const DefaultTheta = 0.5

type point struct {
	pos  r2.Vec
	mass float64
}

func (p *point) Coord2() r2.Vec { return p.pos }
func (p *point) Mass() float64  { return p.mass }

// BarnesHut approximates distant groups of bodies by their centre of mass.
// Theta zero gives the exact direct sum.
type BarnesHut struct {
	Theta float64

	points    []point
	particles []barneshut.Particle2
}

func NewBarnesHut(theta float64) *BarnesHut {
	if theta < 0 {
		theta = DefaultTheta
	}
	return &BarnesHut{Theta: theta}
}

func (b *BarnesHut) Name() string    { return "barneshut" }
func (b *BarnesHut) Available() bool { return true }
func (b *BarnesHut) Cleanup()        { b.points, b.particles = nil, nil }

func (b *BarnesHut) Attraction(pos []r2.Vec, mass []float64, g, softening float64) []r2.Vec {
	n := len(mass)
	acc := make([]r2.Vec, n)
	if n < 2 {
		return acc
	}

	if cap(b.points) < n {
		b.points = make([]point, n)
		b.particles = make([]barneshut.Particle2, n)
	}
	b.points = b.points[:n]
	b.particles = b.particles[:n]
	for i := range b.points {
		b.points[i] = point{pos: pos[i], mass: mass[i]}
		b.particles[i] = &b.points[i]
	}

	plane, err := barneshut.NewPlane(b.particles)
	if err != nil {
		// Non-finite positions; the driver reports them on its next check.
		return acc
	}

	force := softened(softening)
	for i := range b.points {
		if mass[i] == 0 {
			continue
		}
		f := plane.ForceOn(b.particles[i], b.Theta, force)
		acc[i] = r2.Scale(g/mass[i], f)
	}
	return acc
}

// softened is barneshut.Gravity2 with a Plummer softening length.
func softened(eps float64) barneshut.Force2 {
	eps2 := eps * eps
	return func(_, _ barneshut.Particle2, m1, m2 float64, v r2.Vec) r2.Vec {
		d2 := v.X*v.X + v.Y*v.Y + eps2
		if d2 == 0 {
			return r2.Vec{}
		}
		return r2.Scale(m1*m2/(d2*math.Sqrt(d2)), v)
	}
}
