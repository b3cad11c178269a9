package metrics

import "github.com/san-kum/partsim/internal/dynamo"

// Metric accumulates a scalar over sampled frames.
type Metric interface {
	Name() string
	Observe(frame []dynamo.Drawable, t float64)
	Value() float64
	Reset()
}

// Gauge is a metric that also reports its most recent sample.
type Gauge interface {
	Metric
	Current() float64
}
