package analysis

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/sim"
)

var ErrNoMovingParticle = errors.New("analysis: no movable particle to perturb")

type DivergenceResult struct {
	Times      []float64
	Separation []float64
	// Exponent is the fitted growth rate of ln(separation) per second over
	// the unsaturated part of the run.
	Exponent float64
	Steps    int
}

// Divergence runs cfg twice in lockstep. After the first frame, the first
// movable particle of the second run is shifted by eps along x, keeping its
// velocity. Separation is the largest distance between matching particles.
func Divergence(ctx context.Context, cfg *config.Config, eps float64) (*DivergenceResult, error) {
	quiet := experiment.WithLogger(log.New(io.Discard))
	a, err := experiment.New(cfg, quiet)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	b, err := experiment.New(cfg, quiet)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	a.Solver().Resume()
	b.Solver().Resume()

	if err := a.Step(); err != nil {
		return nil, err
	}
	if err := b.Step(); err != nil {
		return nil, err
	}
	if err := nudge(b.Solver(), eps); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	res := &DivergenceResult{
		Times:      make([]float64, 0, steps),
		Separation: make([]float64, 0, steps),
		Steps:      1,
	}
	var posA, posB []r2.Vec

	for i := 1; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := a.Step(); err != nil {
			return res, err
		}
		if err := b.Step(); err != nil {
			return res, err
		}
		res.Steps++

		posA = positions(a.Solver(), posA[:0])
		posB = positions(b.Solver(), posB[:0])
		res.Times = append(res.Times, a.Solver().TotalTimeElapsed())
		res.Separation = append(res.Separation, maxDistance(posA, posB))
	}

	res.Exponent = growthRate(res.Times, res.Separation, eps, cfg.Spawn.Radius)
	return res, nil
}

func nudge(s *sim.Solver, eps float64) error {
	target := dynamo.Handle(-1)
	s.Each(func(h sim.Handle, p dynamo.Particle) bool {
		if !p.Fixed {
			target = h
			return false
		}
		return true
	})
	if target < 0 {
		return ErrNoMovingParticle
	}
	return s.Edit(target, func(p *dynamo.Particle) {
		p.Position.X += eps
		p.PositionLast.X += eps
	})
}

func positions(s *sim.Solver, buf []r2.Vec) []r2.Vec {
	s.Each(func(_ sim.Handle, p dynamo.Particle) bool {
		buf = append(buf, p.Position)
		return true
	})
	return buf
}

func maxDistance(a, b []r2.Vec) float64 {
	d := 0.0
	for i := 0; i < min(len(a), len(b)); i++ {
		d = math.Max(d, r2.Norm(r2.Sub(a[i], b[i])))
	}
	return d
}

// growthRate fits ln(sep/eps) = alpha + beta*t over samples with
// eps < sep < ceiling and returns beta.
func growthRate(times, sep []float64, eps, ceiling float64) float64 {
	var xs, ys []float64
	for i, d := range sep {
		if d <= eps || d >= ceiling {
			continue
		}
		xs = append(xs, times[i])
		ys = append(ys, math.Log(d/eps))
	}
	if len(xs) < 2 {
		return 0
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}
