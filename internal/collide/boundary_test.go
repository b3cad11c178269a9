package collide

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

func TestResolveWorld_EnergyNonCreation(t *testing.T) {
	size := r2.Vec{X: 1000, Y: 1000}
	dt := 1.0 / 480

	tests := []struct {
		name string
		pos  r2.Vec
		vel  r2.Vec
	}{
		{"right wall", r2.Vec{X: 480}, r2.Vec{X: 900}},
		{"left wall", r2.Vec{X: -480}, r2.Vec{X: -700}},
		{"top wall", r2.Vec{Y: 485}, r2.Vec{Y: 1200}},
		{"floor", r2.Vec{Y: -470}, r2.Vec{Y: -2500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := dynamo.NewParticle(tt.pos)
			p.SetVelocity(tt.vel, dt)
			speed := r2.Norm(tt.vel)

			bounced := false
			for i := 0; i < 200 && !bounced; i++ {
				bounced = ResolveWorld(&p, size)
				p.Integrate(dt)
			}
			if !bounced {
				t.Fatal("particle never reached the wall")
			}

			got := p.Velocity(dt)
			if math.Abs(r2.Norm(got)-speed) > 1e-6*speed {
				t.Errorf("speed after bounce %g, want %g", r2.Norm(got), speed)
			}
			if r2.Dot(got, tt.vel) >= 0 {
				t.Errorf("velocity %v not reflected from %v", got, tt.vel)
			}
		})
	}
}

func TestResolveWorld_ClampsInside(t *testing.T) {
	size := r2.Vec{X: 100, Y: 60}
	p := dynamo.NewParticle(r2.Vec{X: 80, Y: -45})
	p.Radius = 5
	p.PositionLast = r2.Vec{X: 70, Y: -40}

	if !ResolveWorld(&p, size) {
		t.Fatal("expected wall hit")
	}
	if p.Position.X != 45 || p.Position.Y != -25 {
		t.Errorf("Position = %v, want (45, -25)", p.Position)
	}
	// corner: both axes reflected independently
	v := p.Velocity(1)
	if v.X >= 0 || v.Y <= 0 {
		t.Errorf("velocity %v not reflected on both axes", v)
	}
}

func TestResolveWorld_Elasticity(t *testing.T) {
	size := r2.Vec{X: 100, Y: 100}
	p := dynamo.NewParticle(r2.Vec{X: 50})
	p.Radius = 5
	p.Elasticity = 0.5
	p.PositionLast = r2.Vec{X: 46}

	ResolveWorld(&p, size)
	if got := p.Velocity(1).X; math.Abs(got+2) > 1e-12 {
		t.Errorf("reflected velocity %g, want -2", got)
	}
}

func TestResolveWorld_FixedUntouched(t *testing.T) {
	p := dynamo.NewParticle(r2.Vec{X: 1000, Y: 1000})
	p.Fixed = true
	before := p
	if ResolveWorld(&p, r2.Vec{X: 10, Y: 10}) {
		t.Error("fixed particle reported a wall hit")
	}
	if p != before {
		t.Error("fixed particle was clamped")
	}
}
