package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

// TotalEnergy returns the mean kinetic plus potential energy per movable
// particle, taking mass to be the radius and potential relative to the
// origin along gravity.
func TotalEnergy(frame []dynamo.Drawable, gravity r2.Vec) float64 {
	var sum float64
	n := 0
	for _, d := range frame {
		if d.Fixed {
			continue
		}
		m := d.Radius
		ke := 0.5 * m * r2.Dot(d.Velocity, d.Velocity)
		pe := -m * r2.Dot(gravity, d.Position)
		sum += ke + pe
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Energy averages TotalEnergy over the observed frames.
type Energy struct {
	name        string
	gravity     r2.Vec
	samples     int
	totalEnergy float64
	current     float64
}

func NewEnergy(gravity r2.Vec) *Energy {
	return &Energy{
		name:    "energy",
		gravity: gravity,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(frame []dynamo.Drawable, t float64) {
	e.current = TotalEnergy(frame, e.gravity)
	e.totalEnergy += e.current
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Current() float64 { return e.current }

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.current = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation from the energy of the first
// observed frame.
type EnergyDrift struct {
	name          string
	gravity       r2.Vec
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(gravity r2.Vec) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: gravity,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(frame []dynamo.Drawable, t float64) {
	energy := TotalEnergy(frame, e.gravity)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MaxSpeed tracks the fastest movable particle seen.
type MaxSpeed struct {
	max     float64
	current float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(frame []dynamo.Drawable, t float64) {
	m.current = 0
	for _, d := range frame {
		if d.Fixed {
			continue
		}
		m.current = math.Max(m.current, r2.Norm(d.Velocity))
	}
	m.max = math.Max(m.max, m.current)
}

func (m *MaxSpeed) Value() float64   { return m.max }
func (m *MaxSpeed) Current() float64 { return m.current }
func (m *MaxSpeed) Reset()           { m.max, m.current = 0, 0 }
