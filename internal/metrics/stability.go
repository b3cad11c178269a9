package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Stability is the fraction of observed frames in which every particle was
// within slack of the world box.
type Stability struct {
	name       string
	half       r2.Vec
	slack      float64
	violations int
	samples    int
}

func NewStability(worldSize r2.Vec, slack float64) *Stability {
	return &Stability{
		name:  "stability",
		half:  r2.Scale(0.5, worldSize),
		slack: slack,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(frame []dynamo.Drawable, t float64) {
	s.samples++
	for _, d := range frame {
		if d.Fixed {
			continue
		}
		if math.IsNaN(d.Position.X) || math.IsNaN(d.Position.Y) ||
			math.Abs(d.Position.X) > s.half.X+s.slack ||
			math.Abs(d.Position.Y) > s.half.Y+s.slack {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
