package collide

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Epsilon is the center distance below which two circles count as coincident.
const Epsilon = 1e-6

// fallbackAxis separates coincident circles.
var fallbackAxis = r2.Vec{X: 1, Y: 0}

// ResolvePair pushes two overlapping circles apart along the line of centers.
// Radius stands in for mass: the larger body moves the smaller one more.
// It reports whether the circles overlapped.
func ResolvePair(o1, o2 *dynamo.Particle) bool {
	dir := r2.Sub(o1.Position, o2.Position)
	dist := r2.Norm(dir)
	minDist := o1.Radius + o2.Radius
	if dist >= minDist {
		return false
	}

	if dist <= Epsilon {
		dir = fallbackAxis
	} else {
		dir = r2.Scale(1/dist, dir)
	}

	massRatio1 := o1.Radius / minDist
	massRatio2 := o2.Radius / minDist
	force := 0.5 * 0.5 * (o1.Elasticity + o2.Elasticity) * (dist - minDist)

	if !o1.Fixed {
		o1.Position = r2.Sub(o1.Position, r2.Scale(massRatio2*force, dir))
	}
	if !o2.Fixed {
		o2.Position = r2.Add(o2.Position, r2.Scale(massRatio1*force, dir))
	}
	return true
}

// Overlap returns the penetration depth of two circles, zero when apart.
func Overlap(o1, o2 *dynamo.Particle) float64 {
	d := o1.Radius + o2.Radius - r2.Norm(r2.Sub(o1.Position, o2.Position))
	if d < 0 {
		return 0
	}
	return d
}
