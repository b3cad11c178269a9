package compute

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

var ErrUnknownBackend = errors.New("compute: unknown backend")

// Backend computes the softened gravitational acceleration on every body due
// to all the others. pos and mass have equal length; the result is indexed
// the same way.
type Backend interface {
	Name() string
	Available() bool
	Attraction(pos []r2.Vec, mass []float64, g, softening float64) []r2.Vec
	Cleanup()
}

var constructors = map[string]func(theta float64) Backend{
	"cpu":       func(float64) Backend { return NewCPU(0) },
	"barneshut": func(theta float64) Backend { return NewBarnesHut(theta) },
}

// ByName builds the named backend. theta is only read by barneshut.
func ByName(name string, theta float64) (Backend, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	b := ctor(theta)
	if !b.Available() {
		return nil, fmt.Errorf("backend %s not available", name)
	}
	return b, nil
}

// Names lists the registered backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AutoThreshold is the body count from which AutoSelect prefers the quadtree.
const AutoThreshold = 512

// AutoSelect picks the quadtree for large sets and the direct sum otherwise.
func AutoSelect(n int, theta float64) Backend {
	if n >= AutoThreshold {
		return NewBarnesHut(theta)
	}
	return NewCPU(0)
}
