package compute

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

func randomBodies(n int, seed int64) ([]r2.Vec, []float64) {
	rng := rand.New(rand.NewSource(seed))
	pos := make([]r2.Vec, n)
	mass := make([]float64, n)
	for i := range pos {
		pos[i] = r2.Vec{X: rng.Float64()*800 - 400, Y: rng.Float64()*800 - 400}
		mass[i] = 2 + rng.Float64()*10
	}
	return pos, mass
}

func TestCPU_TwoBodies(t *testing.T) {
	pos := []r2.Vec{{X: 0}, {X: 10}}
	mass := []float64{1, 4}
	g, eps := 2.0, 0.0

	acc := NewCPU(1).Attraction(pos, mass, g, eps)

	if want := g * 4 / 100; math.Abs(acc[0].X-want) > 1e-12 || acc[0].Y != 0 {
		t.Errorf("acc[0] = %v, want (%v, 0)", acc[0], want)
	}
	if want := -g * 1 / 100; math.Abs(acc[1].X-want) > 1e-12 {
		t.Errorf("acc[1] = %v, want (%v, 0)", acc[1], want)
	}
}

func TestCPU_SerialMatchesParallel(t *testing.T) {
	pos, mass := randomBodies(64, 1)
	cpu := NewCPU(4)

	par := cpu.Attraction(pos, mass, 1, 5)
	ser := make([]r2.Vec, len(mass))
	cpu.attractionSerial(pos, mass, 1, 5, ser)

	for i := range ser {
		if r2.Norm(r2.Sub(par[i], ser[i])) > 1e-9 {
			t.Fatalf("body %d: parallel %v, serial %v", i, par[i], ser[i])
		}
	}
}

func TestCPU_MomentumConserved(t *testing.T) {
	pos, mass := randomBodies(100, 2)
	acc := NewCPU(0).Attraction(pos, mass, 1, 1)

	var sum r2.Vec
	for i := range acc {
		sum = r2.Add(sum, r2.Scale(mass[i], acc[i]))
	}
	if r2.Norm(sum) > 1e-9 {
		t.Errorf("net force = %v, want 0", sum)
	}
}

func TestBarnesHut_MatchesDirectSum(t *testing.T) {
	pos, mass := randomBodies(200, 3)
	direct := NewCPU(0).Attraction(pos, mass, 1, 2)

	tests := []struct {
		name  string
		theta float64
		tol   float64
	}{
		{"exact", 0, 1e-9},
		{"approximate", 0.5, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approx := NewBarnesHut(tt.theta).Attraction(pos, mass, 1, 2)

			var errSum, normSum float64
			for i := range direct {
				errSum += r2.Norm(r2.Sub(approx[i], direct[i]))
				normSum += r2.Norm(direct[i])
			}
			if rel := errSum / normSum; rel > tt.tol {
				t.Errorf("relative error %.3g exceeds %.3g", rel, tt.tol)
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		b, err := ByName(name, DefaultTheta)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, b.Name())
		}
	}

	if _, err := ByName("cuda", 0); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("ByName(cuda) error = %v, want ErrUnknownBackend", err)
	}
}

func TestAutoSelect(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "cpu"},
		{AutoThreshold - 1, "cpu"},
		{AutoThreshold, "barneshut"},
		{5000, "barneshut"},
	}

	for _, tt := range tests {
		if got := AutoSelect(tt.n, DefaultTheta).Name(); got != tt.want {
			t.Errorf("AutoSelect(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestAttraction_NilBackend(t *testing.T) {
	if got := NewAttraction(nil, 1, 1).Name(); got != "attraction/cpu" {
		t.Errorf("Name() = %q", got)
	}
}

func TestAttraction_Apply(t *testing.T) {
	left := dynamo.NewParticle(r2.Vec{X: -50})
	right := dynamo.NewParticle(r2.Vec{X: 50})
	anchor := dynamo.NewParticle(r2.Vec{Y: 50})
	anchor.Fixed = true

	bodies := []*dynamo.Body{dynamo.NewBody(left), dynamo.NewBody(right), dynamo.NewBody(anchor)}
	NewAttraction(NewCPU(1), 100, 1).Apply(bodies)

	l := bodies[0].Load()
	r := bodies[1].Load()
	if l.Acceleration.X <= 0 || r.Acceleration.X >= 0 {
		t.Errorf("bodies not pulled together: left %v right %v", l.Acceleration, r.Acceleration)
	}
	if l.Acceleration.Y <= 0 {
		t.Errorf("left not pulled toward anchor: %v", l.Acceleration)
	}
	if a := bodies[2].Load().Acceleration; a != (r2.Vec{}) {
		t.Errorf("fixed anchor accumulated %v", a)
	}
}

func BenchmarkCPU_1000(b *testing.B) {
	pos, mass := randomBodies(1000, 4)
	cpu := NewCPU(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cpu.Attraction(pos, mass, 1, 1)
	}
}

func BenchmarkBarnesHut_1000(b *testing.B) {
	pos, mass := randomBodies(1000, 4)
	bh := NewBarnesHut(DefaultTheta)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bh.Attraction(pos, mass, 1, 1)
	}
}
