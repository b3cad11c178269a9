package collide

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

func randomBodies(rng *rand.Rand, n int, extent, maxRadius float64) []*dynamo.Body {
	bodies := make([]*dynamo.Body, n)
	for i := range bodies {
		p := dynamo.NewParticle(r2.Vec{
			X: (rng.Float64() - 0.5) * extent,
			Y: (rng.Float64() - 0.5) * extent,
		})
		p.Radius = 0.5 + rng.Float64()*maxRadius
		bodies[i] = dynamo.NewBody(p)
	}
	return bodies
}

func bruteForceOverlaps(bodies []*dynamo.Body) []Pair {
	var pairs []Pair
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			pi, pj := bodies[i].Load(), bodies[j].Load()
			if Overlap(&pi, &pj) > 0 {
				pairs = append(pairs, Pair{A: i, B: j})
			}
		}
	}
	return pairs
}

func pairKey(p Pair) Pair {
	if p.A > p.B {
		return Pair{A: p.B, B: p.A}
	}
	return p
}

func TestSortAndSweep_SupersetOfOverlaps(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		extent    float64
		maxRadius float64
	}{
		{"sparse", 200, 1000, 5},
		{"dense", 300, 200, 10},
		{"clustered", 150, 40, 8},
		{"single", 1, 10, 1},
		{"empty", 0, 10, 1},
	}

	for seed := int64(1); seed <= 5; seed++ {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rng := rand.New(rand.NewSource(seed))
				bodies := randomBodies(rng, tt.n, tt.extent, tt.maxRadius)

				broad := NewSortAndSweep(tt.n)
				pairs := broad.Pairs(bodies)
				candidates := make(map[Pair]bool)
				for _, p := range pairs {
					candidates[pairKey(p)] = true
				}

				overlaps := bruteForceOverlaps(bodies)
				for _, p := range overlaps {
					if !candidates[p] {
						t.Errorf("seed %d: overlapping pair %v missed by broad phase", seed, p)
					}
				}

				// The resolving sweep must see the same candidates and count
				// every overlapping pair as a contact.
				n, contacts := broad.Sweep(bodies, func(a, b *dynamo.Particle) bool {
					return Overlap(a, b) > 0
				})
				if n != len(pairs) {
					t.Errorf("seed %d: Sweep visited %d candidates, Pairs returned %d", seed, n, len(pairs))
				}
				if contacts != len(overlaps) {
					t.Errorf("seed %d: Sweep counted %d contacts, want %d", seed, contacts, len(overlaps))
				}
			})
		}
	}
}

func TestSortAndSweep_SortOrder(t *testing.T) {
	xs := []float64{5, -3, 12, 0, -7}
	bodies := make([]*dynamo.Body, len(xs))
	for i, x := range xs {
		p := dynamo.NewParticle(r2.Vec{X: x})
		p.Radius = 1
		bodies[i] = dynamo.NewBody(p)
	}

	order := NewSortAndSweep(0).Sort(bodies)
	for k := 1; k < len(order); k++ {
		prev, cur := bodies[order[k-1]].Load(), bodies[order[k]].Load()
		if prev.Left() > cur.Left() {
			t.Fatalf("order %v not ascending by left edge", order)
		}
	}
}

func TestSortAndSweep_EarlyExit(t *testing.T) {
	// three bodies far apart on x: no candidates at all
	bodies := []*dynamo.Body{
		dynamo.NewBody(dynamo.NewParticle(r2.Vec{X: 0})),
		dynamo.NewBody(dynamo.NewParticle(r2.Vec{X: 100})),
		dynamo.NewBody(dynamo.NewParticle(r2.Vec{X: 200})),
	}

	s := NewSortAndSweep(3)
	s.Sort(bodies)
	candidates, contacts := s.Sweep(bodies, ResolvePair)
	if candidates != 0 || contacts != 0 {
		t.Errorf("got %d candidates, %d contacts; want 0, 0", candidates, contacts)
	}
}

func BenchmarkResolver_1000(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	bodies := randomBodies(rng, 1000, 1000, 5)
	r := NewResolver()
	size := r2.Vec{X: 1000, Y: 1000}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Resolve(bodies, size)
	}
}
