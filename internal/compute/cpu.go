package compute

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

const cpuParallelThreshold = 16

type CPU struct {
	workers int
}

// NewCPU returns a direct-sum backend. workers <= 0 uses one per CPU.
func NewCPU(workers int) *CPU {
	return &CPU{workers: dynamo.Workers(workers)}
}

func (c *CPU) Name() string    { return "cpu" }
func (c *CPU) Available() bool { return true }
func (c *CPU) Cleanup()        {}

func (c *CPU) Attraction(pos []r2.Vec, mass []float64, g, softening float64) []r2.Vec {
	n := len(mass)
	acc := make([]r2.Vec, n)

	if n < cpuParallelThreshold {
		c.attractionSerial(pos, mass, g, softening, acc)
		return acc
	}

	c.attractionParallel(pos, mass, g, softening, acc)
	return acc
}

func (c *CPU) attractionSerial(pos []r2.Vec, mass []float64, g, eps float64, acc []r2.Vec) {
	n := len(mass)
	eps2 := eps * eps

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := r2.Sub(pos[j], pos[i])
			d2 := r.X*r.X + r.Y*r.Y + eps2
			if d2 == 0 {
				continue
			}

			rInv := 1.0 / math.Sqrt(d2)
			r3Inv := rInv * rInv * rInv

			acc[i] = r2.Add(acc[i], r2.Scale(g*mass[j]*r3Inv, r))
			acc[j] = r2.Sub(acc[j], r2.Scale(g*mass[i]*r3Inv, r))
		}
	}
}

// attractionParallel gives every worker a contiguous block of rows. Each row
// sums over all bodies, so no worker writes outside its block.
func (c *CPU) attractionParallel(pos []r2.Vec, mass []float64, g, eps float64, acc []r2.Vec) {
	n := len(mass)
	eps2 := eps * eps

	dynamo.ParallelFor(n, cpuParallelThreshold, c.workers, func(start, end int) {
		for i := start; i < end; i++ {
			var a r2.Vec
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}

				r := r2.Sub(pos[j], pos[i])
				d2 := r.X*r.X + r.Y*r.Y + eps2
				if d2 == 0 {
					continue
				}

				rInv := 1.0 / math.Sqrt(d2)
				a = r2.Add(a, r2.Scale(g*mass[j]*rInv*rInv*rInv, r))
			}
			acc[i] = a
		}
	})
}
