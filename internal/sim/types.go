package sim

import (
	"math"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/collide"
	"github.com/san-kum/partsim/internal/dynamo"
)

// Handle identifies a particle owned by a Solver.
type Handle = dynamo.Handle

// Config holds construction parameters for a Solver.
type Config struct {
	WorldSize r2.Vec
	SubSteps  int
	Gravity   r2.Vec
	Paused    bool
	Workers   int
	Logger    *log.Logger
}

func DefaultConfig() Config {
	return Config{
		WorldSize: r2.Vec{X: 1000, Y: 1000},
		SubSteps:  8,
		Gravity:   r2.Vec{X: 0, Y: -400},
	}
}

func (c Config) Validate() error {
	if err := validateWorldSize(c.WorldSize); err != nil {
		return err
	}
	if c.SubSteps < 1 {
		return dynamo.ErrInvalidSubSteps
	}
	return validateGravity(c.Gravity)
}

func validateWorldSize(size r2.Vec) error {
	if !(size.X > 0) || !(size.Y > 0) || math.IsInf(size.X, 0) || math.IsInf(size.Y, 0) {
		return dynamo.ErrInvalidWorldSize
	}
	return nil
}

func validateGravity(g r2.Vec) error {
	for _, v := range []float64{g.X, g.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.ErrInvalidGravity
		}
	}
	return nil
}

// StepStats reports timings and contact counts for one Update call, summed
// over its sub-steps.
type StepStats struct {
	Step       uint64
	Dt         float64
	SubSteps   int
	Particles  int
	Sort       time.Duration
	Collide    time.Duration
	Integrate  time.Duration
	Total      time.Duration
	Candidates int
	Contacts   int
	WallHits   int
}

func (s *StepStats) add(r collide.Stats) {
	s.Sort += r.Sort
	s.Collide += r.Collide
	s.Candidates += r.Candidates
	s.Contacts += r.Contacts
	s.WallHits += r.WallHits
}

// Observer receives StepStats after every executed update. Observers run
// after the solver has released its locks and may call back into it.
type Observer interface {
	OnUpdate(st StepStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(st StepStats)

func (f ObserverFunc) OnUpdate(st StepStats) { f(st) }
