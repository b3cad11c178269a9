package automation

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a preset plus overrides.
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Duration float64            `yaml:"duration"`
	Seed     int64              `yaml:"seed"`
	Params   map[string]float64 `yaml:"params"`
	SaveAs   string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// Config builds the run configuration for one step.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	for name, v := range s.Params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger *log.Logger) ([]*experiment.Result, error) {
	logger = quiet(logger)
	results := make([]*experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("scenario step", "step", i+1, "of", len(scenario.Steps), "preset", step.Preset)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp, err := experiment.New(cfg, experiment.WithRegistry(registry), experiment.WithLogger(logger))
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		exp.Close()
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// ParameterSweep varies one config parameter over an even range.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	// Workers bounds concurrent runs; zero means one per CPU.
	Workers int
}

// SweepResult holds the outcome of one sweep value.
type SweepResult struct {
	ParamValue  float64       `json:"value"`
	FinalEnergy float64       `json:"final_energy"`
	EnergyDrift float64       `json:"energy_drift"`
	Penetration float64       `json:"penetration"`
	MaxSpeed    float64       `json:"max_speed"`
	Particles   int           `json:"particles"`
	WallTime    time.Duration `json:"wall_time_ns"`
}

// Values returns the parameter values the sweep visits.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.ParamMin}
	}
	step := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.ParamMin + float64(i)*step
	}
	return vals
}

// RunSweep runs every value as an independent experiment. Results keep the
// order of Values; the first failure cancels the remaining runs.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *log.Logger) ([]SweepResult, error) {
	logger = quiet(logger)
	values := sweep.Values()

	configs := make([]*config.Config, len(values))
	for i, v := range values {
		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.ParamName, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}
		configs[i] = cfg
	}

	results := make([]SweepResult, len(values))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(sweep.Workers))

	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			exp, err := experiment.New(cfg, experiment.WithRegistry(registry))
			if err != nil {
				return err
			}
			defer exp.Close()

			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, values[i], err)
			}

			results[i] = SweepResult{
				ParamValue:  values[i],
				FinalEnergy: res.Metrics["final_energy"],
				EnergyDrift: res.EnergyDrift,
				Penetration: res.Metrics["penetration"],
				MaxSpeed:    res.Metrics["max_speed"],
				Particles:   len(res.Frame),
				WallTime:    res.WallTime,
			}
			logger.Info("sweep point done", sweep.ParamName, values[i], "wall", res.WallTime.Round(time.Millisecond))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig reruns one config under different seeds.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	Seed      int64
	Workers   int
}

type MonteCarloResult struct {
	TrialID     int
	Seed        int64
	EnergyDrift float64
	Penetration float64
	// Stable reports that every particle stayed in the world and finite.
	Stable bool
}

// RunMonteCarlo runs NumTrials seeds concurrently. A trial that produces a
// non-finite particle is recorded as unstable rather than failing the batch.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, cfg.NumTrials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(cfg.Workers))

	for trial := 0; trial < cfg.NumTrials; trial++ {
		trial := trial
		g.Go(func() error {
			run := cfg.Base.Clone()
			run.Seed = cfg.Seed + int64(trial)

			exp, err := experiment.New(run, experiment.WithRegistry(registry))
			if err != nil {
				return err
			}
			defer exp.Close()

			res, err := exp.Run(ctx)
			if err != nil && ctx.Err() != nil {
				return err
			}

			results[trial] = MonteCarloResult{
				TrialID:     trial,
				Seed:        run.Seed,
				EnergyDrift: res.EnergyDrift,
				Penetration: res.Metrics["penetration"],
				Stable:      err == nil && res.Metrics["stability"] == 1,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

func workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func quiet(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}
