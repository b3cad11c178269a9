package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func near(a, b r2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestParticle_IntegrateZeroForce(t *testing.T) {
	tests := []struct {
		name string
		v    r2.Vec
		dt   float64
	}{
		{"unit step", r2.Vec{X: 1, Y: 2}, 1.0},
		{"60hz", r2.Vec{X: 100, Y: -50}, 1.0 / 60},
		{"substep", r2.Vec{X: -3, Y: 7}, 1.0 / 480},
		{"large dt", r2.Vec{X: 0.5, Y: 0.25}, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParticle(r2.Vec{X: 10, Y: 20})
			p.SetVelocity(tt.v, tt.dt)

			for i := 0; i < 5; i++ {
				before := p.Position
				p.Integrate(tt.dt)
				want := r2.Add(before, r2.Scale(tt.dt, tt.v))
				if !near(p.Position, want, 1e-9) {
					t.Fatalf("step %d: got %v, want %v", i, p.Position, want)
				}
			}
			if got := p.Velocity(tt.dt); !near(got, tt.v, 1e-6) {
				t.Errorf("Velocity() = %v, want %v", got, tt.v)
			}
		})
	}
}

func TestParticle_IntegrateAcceleration(t *testing.T) {
	p := NewParticle(r2.Vec{})
	dt := 0.1
	p.ApplyForce(r2.Vec{Y: -10})
	p.ApplyForce(r2.Vec{X: 2})
	p.Integrate(dt)

	want := r2.Vec{X: 2 * dt * dt, Y: -10 * dt * dt}
	if !near(p.Position, want, 1e-12) {
		t.Errorf("Position = %v, want %v", p.Position, want)
	}
	if p.Acceleration != (r2.Vec{}) {
		t.Errorf("acceleration not reset: %v", p.Acceleration)
	}
}

func TestParticle_FixedIgnoresMutation(t *testing.T) {
	p := NewParticle(r2.Vec{X: 1, Y: 1})
	p.Fixed = true
	before := p

	p.ApplyForce(r2.Vec{X: 5, Y: 5})
	p.SetVelocity(r2.Vec{X: 3}, 0.1)
	p.AddVelocity(r2.Vec{Y: 3}, 0.1)
	p.Integrate(0.1)

	if p != before {
		t.Errorf("fixed particle changed: %+v -> %+v", before, p)
	}
}

func TestParticle_AddVelocity(t *testing.T) {
	p := NewParticle(r2.Vec{})
	dt := 0.5
	p.SetVelocity(r2.Vec{X: 1}, dt)
	p.AddVelocity(r2.Vec{X: 1, Y: 2}, dt)

	if got := p.Velocity(dt); !near(got, r2.Vec{X: 2, Y: 2}, 1e-12) {
		t.Errorf("Velocity() = %v, want (2, 2)", got)
	}
}

func TestParticle_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(p *Particle)
		valid bool
	}{
		{"default", func(p *Particle) {}, true},
		{"zero radius", func(p *Particle) { p.Radius = 0 }, false},
		{"negative radius", func(p *Particle) { p.Radius = -1 }, false},
		{"NaN position", func(p *Particle) { p.Position.X = math.NaN() }, false},
		{"Inf last", func(p *Particle) { p.PositionLast.Y = math.Inf(1) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParticle(r2.Vec{})
			tt.edit(&p)
			if got := p.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestBody_EditAndLoad(t *testing.T) {
	b := NewBody(NewParticle(r2.Vec{}))
	b.Edit(func(p *Particle) { p.Color = Color{R: 1} })

	if got := b.Load().Color; got != (Color{R: 1}) {
		t.Errorf("Color = %v, want red", got)
	}
}

func TestParallelFor(t *testing.T) {
	tests := []struct {
		n, minChunk, workers int
	}{
		{0, 4, 4},
		{3, 4, 4},
		{100, 8, 4},
		{101, 1, 7},
		{16, 16, 1},
	}

	for _, tt := range tests {
		var sum atomic.Int64
		seen := make([]int32, tt.n)
		ParallelFor(tt.n, tt.minChunk, tt.workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
				sum.Add(1)
			}
		})
		if int(sum.Load()) != tt.n {
			t.Errorf("n=%d: visited %d items", tt.n, sum.Load())
		}
		for i, c := range seen {
			if c != 1 {
				t.Errorf("n=%d: index %d visited %d times", tt.n, i, c)
			}
		}
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 3, Time: 0.05, Handle: 7, Wrapped: ErrInvalidParticle}
	if !errors.Is(err, ErrInvalidParticle) {
		t.Error("SimulationError does not unwrap to its cause")
	}
	want := "step 3 (t=0.0500) particle 7: " + ErrInvalidParticle.Error()
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
