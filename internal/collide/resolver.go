package collide

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Stats describes one resolution pass.
type Stats struct {
	Sort       time.Duration
	Collide    time.Duration
	Candidates int
	Contacts   int
	WallHits   int
}

// Resolver runs the broad phase, pairwise resolution and world clamping for
// one sub-step.
type Resolver struct {
	broad *SortAndSweep
}

func NewResolver() *Resolver {
	return &Resolver{broad: NewSortAndSweep(0)}
}

// Resolve orders the bodies, resolves every overlapping pair and then clamps
// every body into the world.
func (r *Resolver) Resolve(bodies []*dynamo.Body, worldSize r2.Vec) Stats {
	var st Stats

	start := time.Now()
	r.broad.Sort(bodies)
	st.Sort = time.Since(start)

	start = time.Now()
	st.Candidates, st.Contacts = r.broad.Sweep(bodies, ResolvePair)
	for _, b := range bodies {
		b.Lock()
		if ResolveWorld(b.Particle(), worldSize) {
			st.WallHits++
		}
		b.Unlock()
	}
	st.Collide = time.Since(start)

	return st
}
