package integrators

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func benchmarkVerlet(b *testing.B, n, workers int) {
	bodies := makeBodies(n)
	v := NewVerlet(workers)
	g := r2.Vec{Y: -400}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.Step(bodies, g, 1.0/480)
	}
}

func BenchmarkVerlet_1k_Serial(b *testing.B)    { benchmarkVerlet(b, 1000, 1) }
func BenchmarkVerlet_1k_Parallel(b *testing.B)  { benchmarkVerlet(b, 1000, 0) }
func BenchmarkVerlet_10k_Serial(b *testing.B)   { benchmarkVerlet(b, 10000, 1) }
func BenchmarkVerlet_10k_Parallel(b *testing.B) { benchmarkVerlet(b, 10000, 0) }
