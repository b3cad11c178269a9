package collide

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// ResolveWorld keeps p inside the axis-aligned box of extent worldSize
// centered on the origin. Each axis is clamped on its own and the derived
// velocity on that axis is reflected and scaled by the particle elasticity.
// Elasticity is applied once per bounce, so a wall hit leaves the speed on
// that axis at exactly e times its incoming value.
// It reports whether any wall was hit.
func ResolveWorld(p *dynamo.Particle, worldSize r2.Vec) bool {
	if p.Fixed {
		return false
	}

	half := r2.Vec{
		X: worldSize.X/2 - p.Radius,
		Y: worldSize.Y/2 - p.Radius,
	}
	vel := r2.Scale(p.Elasticity, p.Velocity(1.0))
	hit := false

	switch {
	case p.Position.X > half.X:
		p.Position.X = half.X
		p.PositionLast.X = p.Position.X + vel.X
		hit = true
	case p.Position.X < -half.X:
		p.Position.X = -half.X
		p.PositionLast.X = p.Position.X + vel.X
		hit = true
	}

	switch {
	case p.Position.Y > half.Y:
		p.Position.Y = half.Y
		p.PositionLast.Y = p.Position.Y + vel.Y
		hit = true
	case p.Position.Y < -half.Y:
		p.Position.Y = -half.Y
		p.PositionLast.Y = p.Position.Y + vel.Y
		hit = true
	}

	return hit
}
