package spawn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/sim"
)

func newSolver(t *testing.T) *sim.Solver {
	t.Helper()
	s, err := sim.New(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Destroy)
	return s
}

func TestNew_UnknownPattern(t *testing.T) {
	if _, err := New(Options{Pattern: "spiral"}, nil); !errors.Is(err, ErrUnknownPattern) {
		t.Errorf("New(spiral) = %v, want ErrUnknownPattern", err)
	}
}

func TestBurstPatterns(t *testing.T) {
	tests := []struct {
		pattern string
		count   int
		want    int
	}{
		{"grid", 100, 100},
		{"random", 57, 57},
		{"ring", 24, 24},
		{"single", 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s := newSolver(t)
			e, err := New(Options{
				Pattern: tt.pattern, Count: tt.count, Radius: 5, Elasticity: 1, Speed: 100,
			}, rand.New(rand.NewSource(7)))
			if err != nil {
				t.Fatal(err)
			}

			n, err := e.Emit(s, 0, 1.0/60)
			if err != nil {
				t.Fatal(err)
			}
			if n != tt.want || s.ParticleCount() != tt.want {
				t.Errorf("emitted %d, solver has %d, want %d", n, s.ParticleCount(), tt.want)
			}
			if !e.Done() {
				t.Error("burst not done after first emit")
			}
			if n, _ := e.Emit(s, 1.0/60, 1.0/60); n != 0 {
				t.Errorf("second emit added %d", n)
			}

			half := s.WorldSize().X / 2
			s.Each(func(_ sim.Handle, p dynamo.Particle) bool {
				if math.Abs(p.Position.X) > half || math.Abs(p.Position.Y) > half {
					t.Errorf("particle outside world: %v", p.Position)
				}
				return true
			})
		})
	}
}

func TestSingle_SetsVelocityWithSubStep(t *testing.T) {
	s := newSolver(t)
	e, _ := New(Options{
		Pattern: "single", Count: 1, Radius: 10, Elasticity: 1,
		Origin: r2.Vec{Y: 250}, Velocity: r2.Vec{X: 100, Y: 50},
	}, nil)

	if _, err := e.Emit(s, 0, 1.0/60); err != nil {
		t.Fatal(err)
	}

	p, err := s.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	v := p.Velocity(s.StepDt(1.0 / 60))
	if math.Abs(v.X-100) > 1e-9 || math.Abs(v.Y-50) > 1e-9 {
		t.Errorf("velocity = %v, want (100, 50)", v)
	}
}

func TestGrid_NoInitialOverlap(t *testing.T) {
	s := newSolver(t)
	e, _ := New(Options{Pattern: "grid", Count: 64, Radius: 6, RadiusJitter: 2, Elasticity: 1}, rand.New(rand.NewSource(1)))
	if _, err := e.Emit(s, 0, 1.0/60); err != nil {
		t.Fatal(err)
	}

	var ps []dynamo.Particle
	s.Each(func(_ sim.Handle, p dynamo.Particle) bool {
		ps = append(ps, p)
		return true
	})
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			d := r2.Norm(r2.Sub(ps[i].Position, ps[j].Position))
			if d < ps[i].Radius+ps[j].Radius {
				t.Fatalf("particles %d and %d overlap at start", i, j)
			}
		}
	}
}

func TestFountain_EmitsPerInterval(t *testing.T) {
	s := newSolver(t)
	e, _ := New(Options{
		Pattern: "fountain", Count: 10, Radius: 4, Elasticity: 1,
		Speed: 300, Angle: 90, Interval: 0.045, Origin: r2.Vec{Y: -300},
	}, nil)

	dt := 1.0 / 60
	total := 0
	for frame := 0; frame < 12; frame++ {
		n, err := e.Emit(s, float64(frame)*dt, dt)
		if err != nil {
			t.Fatal(err)
		}
		total += n
	}

	// 12 frames cover 0.2s: emissions at 0, 0.045, 0.09, 0.135, 0.18.
	if total != 5 {
		t.Errorf("emitted %d particles in 0.2s, want 5", total)
	}
	if e.Done() {
		t.Error("fountain done early")
	}

	p, _ := s.Get(0)
	if v := p.Velocity(s.StepDt(dt)); v.Y <= 0 {
		t.Errorf("first particle not launched upward: %v", v)
	}
}

func TestPegs(t *testing.T) {
	s := newSolver(t)
	handles, err := Pegs(s, PegOptions{Rows: 3, Cols: 4, Spacing: 50, Radius: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(handles) != 12 {
		t.Fatalf("got %d pegs, want 12", len(handles))
	}

	before, _ := s.Get(handles[5])
	for i := 0; i < 30; i++ {
		s.Update(1.0 / 60)
	}
	after, _ := s.Get(handles[5])

	if !after.Fixed || after.Position != before.Position {
		t.Errorf("peg moved: %v -> %v", before.Position, after.Position)
	}
}

func TestRainbow(t *testing.T) {
	first := Rainbow(0, 6)
	if Hex(first) != "#ff4040" {
		t.Errorf("Rainbow(0, 6) = %s, want #ff4040", Hex(first))
	}
	if Rainbow(1, 6) == first {
		t.Error("adjacent colors are equal")
	}
	if Rainbow(6, 6) != first {
		t.Error("hue does not wrap")
	}
}
