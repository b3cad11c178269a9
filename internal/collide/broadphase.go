package collide

import (
	"sort"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Pair holds the arena indices of two bodies whose x intervals overlap.
type Pair struct {
	A, B int
}

// SortAndSweep is a single-axis broad phase. Buffers are reused between calls.
type SortAndSweep struct {
	keys  []float64
	order []int
}

func NewSortAndSweep(capacity int) *SortAndSweep {
	return &SortAndSweep{
		keys:  make([]float64, 0, capacity),
		order: make([]int, 0, capacity),
	}
}

func (s *SortAndSweep) Len() int           { return len(s.order) }
func (s *SortAndSweep) Less(i, j int) bool { return s.keys[s.order[i]] < s.keys[s.order[j]] }
func (s *SortAndSweep) Swap(i, j int)      { s.order[i], s.order[j] = s.order[j], s.order[i] }

// Sort snapshots each body's left edge and orders the arena ascending by it.
// The returned slice is reused on subsequent calls.
func (s *SortAndSweep) Sort(bodies []*dynamo.Body) []int {
	s.keys = s.keys[:0]
	s.order = s.order[:0]
	for i, b := range bodies {
		b.Lock()
		s.keys = append(s.keys, b.Particle().Left())
		b.Unlock()
		s.order = append(s.order, i)
	}
	sort.Sort(s)
	return s.order
}

// Sweep visits every candidate pair in sorted order. For each body it scans
// later bodies while their left edge is within its right edge, reading live
// positions so corrections made earlier in the pass are honoured. visit runs
// with both bodies locked and reports whether the pair was in contact.
// Sweep returns the number of candidates and contacts.
func (s *SortAndSweep) Sweep(bodies []*dynamo.Body, visit func(a, b *dynamo.Particle) bool) (candidates, contacts int) {
	return s.sweep(bodies, func(_, _ int, a, b *dynamo.Particle) bool {
		return visit(a, b)
	})
}

// Pairs sorts the arena and returns the candidate pairs without resolving them.
func (s *SortAndSweep) Pairs(bodies []*dynamo.Body) []Pair {
	s.Sort(bodies)
	var pairs []Pair
	s.sweep(bodies, func(i, j int, _, _ *dynamo.Particle) bool {
		pairs = append(pairs, Pair{A: i, B: j})
		return false
	})
	return pairs
}

func (s *SortAndSweep) sweep(bodies []*dynamo.Body, visit func(i, j int, a, b *dynamo.Particle) bool) (candidates, contacts int) {
	order := s.order
	for x := 0; x < len(order); x++ {
		i := order[x]
		for y := x + 1; y < len(order); y++ {
			j := order[y]
			lockPair(bodies, i, j)
			pi, pj := bodies[i].Particle(), bodies[j].Particle()
			if pj.Left() > pi.Right() {
				unlockPair(bodies, i, j)
				break
			}
			candidates++
			if visit(i, j, pi, pj) {
				contacts++
			}
			unlockPair(bodies, i, j)
		}
	}
	return candidates, contacts
}

// lockPair always takes the lower arena index first.
func lockPair(bodies []*dynamo.Body, i, j int) {
	if i > j {
		i, j = j, i
	}
	bodies[i].Lock()
	bodies[j].Lock()
}

func unlockPair(bodies []*dynamo.Body, i, j int) {
	bodies[i].Unlock()
	bodies[j].Unlock()
}
