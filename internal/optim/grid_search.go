package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
)

// GridSearch evaluates every combination of parameter values and keeps the
// one minimising a result metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Trial records one evaluated combination.
type Trial struct {
	Params map[string]float64
	Value  float64
}

func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	registry *experiment.Registry,
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	s := &search{
		grid:     g,
		base:     base,
		registry: registry,
		metric:   metricName,
		best:     math.Inf(1),
	}
	if err := s.recurse(ctx, 0, make(map[string]float64)); err != nil {
		return nil, 0, s.trials, err
	}
	return s.bestParams, s.best, s.trials, nil
}

type search struct {
	grid       *GridSearch
	base       *config.Config
	registry   *experiment.Registry
	metric     string
	best       float64
	bestParams map[string]float64
	trials     []Trial
}

func (s *search) recurse(ctx context.Context, depth int, current map[string]float64) error {
	if depth == len(s.grid.paramNames) {
		return s.evaluate(ctx, current)
	}

	paramName := s.grid.paramNames[depth]
	for _, val := range s.grid.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := s.recurse(ctx, depth+1, newParams); err != nil {
			return err
		}
	}
	return nil
}

func (s *search) evaluate(ctx context.Context, params map[string]float64) error {
	cfg := s.base.Clone()
	for k, v := range params {
		if err := cfg.SetParam(k, v); err != nil {
			return err
		}
	}

	exp, err := experiment.New(cfg, experiment.WithRegistry(s.registry))
	if err != nil {
		return fmt.Errorf("%v: %w", params, err)
	}
	defer exp.Close()

	result, err := exp.Run(ctx)
	if err != nil {
		return fmt.Errorf("%v: %w", params, err)
	}

	val, ok := result.Metrics[s.metric]
	if !ok {
		return fmt.Errorf("unknown metric: %s", s.metric)
	}
	s.trials = append(s.trials, Trial{Params: params, Value: val})

	if val < s.best {
		s.best = val
		s.bestParams = params
	}
	return nil
}
