package metrics

import (
	"sync"
	"time"

	"github.com/san-kum/partsim/internal/sim"
)

// Profile is a solver observer that averages per-update phase timings.
type Profile struct {
	mu      sync.Mutex
	updates int
	sum     sim.StepStats
	last    sim.StepStats
}

func NewProfile() *Profile { return &Profile{} }

func (p *Profile) OnUpdate(st sim.StepStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.updates++
	p.last = st
	p.sum.Sort += st.Sort
	p.sum.Collide += st.Collide
	p.sum.Integrate += st.Integrate
	p.sum.Total += st.Total
	p.sum.Candidates += st.Candidates
	p.sum.Contacts += st.Contacts
	p.sum.WallHits += st.WallHits
}

// ProfileReport holds per-update means.
type ProfileReport struct {
	Updates    int           `json:"updates"`
	Sort       time.Duration `json:"sort_ns"`
	Collide    time.Duration `json:"collide_ns"`
	Integrate  time.Duration `json:"integrate_ns"`
	Total      time.Duration `json:"total_ns"`
	Candidates float64       `json:"candidates"`
	Contacts   float64       `json:"contacts"`
	WallHits   float64       `json:"wall_hits"`
}

func (p *Profile) Report() ProfileReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := ProfileReport{Updates: p.updates}
	if p.updates == 0 {
		return r
	}
	n := time.Duration(p.updates)
	r.Sort = p.sum.Sort / n
	r.Collide = p.sum.Collide / n
	r.Integrate = p.sum.Integrate / n
	r.Total = p.sum.Total / n
	r.Candidates = float64(p.sum.Candidates) / float64(p.updates)
	r.Contacts = float64(p.sum.Contacts) / float64(p.updates)
	r.WallHits = float64(p.sum.WallHits) / float64(p.updates)
	return r
}

// Last returns the stats of the most recent update.
func (p *Profile) Last() sim.StepStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Profile) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = 0
	p.sum = sim.StepStats{}
	p.last = sim.StepStats{}
}
