package experiment

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/spawn"
)

// SampleColumns names the values of each row in Result.Samples.
var SampleColumns = []string{"count", "energy", "max_speed", "penetration"}

type Result struct {
	Times       []float64
	Samples     [][]float64
	Metrics     map[string]float64
	Frame       []dynamo.Drawable
	Profile     metrics.ProfileReport
	StepsTaken  int
	EnergyDrift float64
	WallTime    time.Duration
}

type Option func(e *Experiment)

func WithLogger(l *log.Logger) Option {
	return func(e *Experiment) { e.log = l }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// Experiment drives a solver from a config: it spawns particles, applies
// force fields, and samples metrics while stepping at a fixed dt.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	log      *log.Logger

	solver     *sim.Solver
	emitter    spawn.Emitter
	attraction *compute.Attraction
	pegs       []dynamo.Handle
	profile    *metrics.Profile
	metrics    []metrics.Metric
	energy     *metrics.Energy
	maxSpeed   *metrics.MaxSpeed
	penetr     *metrics.Penetration

	spawnLogged bool
	frame       []dynamo.Drawable
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Experiment{cfg: cfg.Clone()}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = log.New(io.Discard)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}

	solver, err := sim.New(sim.Config{
		WorldSize: cfg.World.Size(),
		SubSteps:  cfg.SubSteps,
		Gravity:   cfg.Gravity,
		Paused:    cfg.Paused,
		Workers:   cfg.Workers,
		Logger:    e.log,
	})
	if err != nil {
		return nil, err
	}
	e.solver = solver

	if err := e.setup(); err != nil {
		solver.Destroy()
		return nil, err
	}
	return e, nil
}

func (e *Experiment) setup() error {
	cfg := e.cfg
	rng := rand.New(rand.NewSource(cfg.Seed))

	emitter, err := e.registry.GetEmitter(spawn.Options{
		Pattern:      cfg.Spawn.Pattern,
		Count:        cfg.Spawn.Count,
		Radius:       cfg.Spawn.Radius,
		RadiusJitter: cfg.Spawn.RadiusJitter,
		Elasticity:   cfg.Spawn.Elasticity,
		Speed:        cfg.Spawn.Speed,
		Angle:        cfg.Spawn.Angle,
		Interval:     cfg.Spawn.Interval,
		Origin:       cfg.Spawn.Origin,
		Velocity:     cfg.Spawn.Velocity,
		Fixed:        cfg.Spawn.Fixed,
	}, rng)
	if err != nil {
		return err
	}
	e.emitter = emitter

	if cfg.Pegs.Rows > 0 && cfg.Pegs.Cols > 0 {
		e.pegs, err = spawn.Pegs(e.solver, spawn.PegOptions{
			Rows:    cfg.Pegs.Rows,
			Cols:    cfg.Pegs.Cols,
			Spacing: cfg.Pegs.Spacing,
			Radius:  cfg.Pegs.Radius,
			Origin:  cfg.Pegs.Origin,
		})
		if err != nil {
			return fmt.Errorf("pegs: %w", err)
		}
	}

	if cfg.Attraction.Enabled {
		n := cfg.Spawn.Count + cfg.Pegs.Rows*cfg.Pegs.Cols
		backend, err := e.registry.GetBackend(cfg.Attraction.Backend, cfg.Attraction.Theta, n)
		if err != nil {
			return err
		}
		e.attraction = compute.NewAttraction(backend, cfg.Attraction.Strength, cfg.Attraction.Softening)
		e.solver.AddForce(e.attraction)
	}

	e.profile = metrics.NewProfile()
	e.solver.AddObserver(e.profile)

	e.metrics = e.registry.DefaultMetrics(cfg)
	for _, m := range e.metrics {
		switch m := m.(type) {
		case *metrics.Energy:
			e.energy = m
		case *metrics.MaxSpeed:
			e.maxSpeed = m
		case *metrics.Penetration:
			e.penetr = m
		}
	}
	return nil
}

func (e *Experiment) Solver() *sim.Solver         { return e.solver }
func (e *Experiment) Config() *config.Config      { return e.cfg }
func (e *Experiment) Profile() *metrics.Profile   { return e.profile }
func (e *Experiment) Emitter() spawn.Emitter      { return e.emitter }
func (e *Experiment) Pegs() []dynamo.Handle       { return e.pegs }
func (e *Experiment) StepDt() float64             { return e.solver.StepDt(e.cfg.Dt) }
func (e *Experiment) Snapshot() []dynamo.Drawable { return e.snapshot() }

func (e *Experiment) Close() {
	e.solver.Destroy()
	if e.attraction != nil {
		e.attraction.Backend.Cleanup()
	}
}

// Backend names the force backend in use, or "" without attraction.
func (e *Experiment) Backend() string {
	if e.attraction == nil {
		return ""
	}
	return e.attraction.Backend.Name()
}

// Step emits any due particles and advances the solver by one frame.
func (e *Experiment) Step() error {
	now := e.solver.TotalTimeElapsed()
	n, err := e.emitter.Emit(e.solver, now, e.cfg.Dt)
	if err != nil {
		return err
	}
	if n > 0 && e.emitter.Done() && !e.spawnLogged {
		e.spawnLogged = true
		e.log.Info("spawn complete", "particles", e.emitter.Emitted(), "t", now)
	}

	e.solver.Update(e.cfg.Dt)
	return e.check()
}

// check fails on the first particle with a non-finite state.
func (e *Experiment) check() error {
	var bad dynamo.Handle = -1
	e.solver.Each(func(h sim.Handle, p dynamo.Particle) bool {
		if !p.IsValid() {
			bad = h
			return false
		}
		return true
	})
	if bad < 0 {
		return nil
	}
	return &dynamo.SimulationError{
		Step:    e.solver.TotalSteps(),
		Time:    e.solver.TotalTimeElapsed(),
		Handle:  bad,
		Wrapped: dynamo.ErrInvalidParticle,
	}
}

func (e *Experiment) snapshot() []dynamo.Drawable {
	e.frame = e.solver.Snapshot(e.frame[:0], e.StepDt())
	return e.frame
}

// Sample observes every metric on the current frame and returns the row
// described by SampleColumns.
func (e *Experiment) Sample() []float64 {
	frame := e.snapshot()
	t := e.solver.TotalTimeElapsed()
	for _, m := range e.metrics {
		m.Observe(frame, t)
	}
	return []float64{float64(len(frame)), e.energy.Current(), e.maxSpeed.Current(), e.penetr.Current()}
}

// Run performs Duration/Dt fixed updates. It stops early when ctx is done,
// returning the partial result with ctx.Err().
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.solver.Paused() {
		e.log.Warn("starting paused run; resuming for headless mode")
		e.solver.Resume()
	}

	steps := e.cfg.Steps()
	result := &Result{
		Times:   make([]float64, 0, steps/e.cfg.SampleEvery+2),
		Samples: make([][]float64, 0, steps/e.cfg.SampleEvery+2),
		Metrics: make(map[string]float64),
	}

	for _, m := range e.metrics {
		m.Reset()
	}
	e.profile.Reset()

	e.log.Info("run started",
		"pattern", e.cfg.Spawn.Pattern,
		"count", e.cfg.Spawn.Count,
		"steps", steps,
		"substeps", e.cfg.SubSteps,
	)
	start := time.Now()

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		if err := e.Step(); err != nil {
			runErr = err
			break
		}
		result.StepsTaken++

		if i%e.cfg.SampleEvery == 0 || i == steps-1 {
			result.Times = append(result.Times, e.solver.TotalTimeElapsed())
			result.Samples = append(result.Samples, e.Sample())
		}
	}

	result.WallTime = time.Since(start)
	e.finish(result)

	if runErr != nil {
		e.log.Error("run stopped", "step", result.StepsTaken, "err", runErr)
		return result, runErr
	}

	e.log.Info("run finished",
		"particles", e.solver.ParticleCount(),
		"sim_time", e.solver.TotalTimeElapsed(),
		"wall", result.WallTime.Round(time.Millisecond),
		"drift", result.EnergyDrift,
	)
	return result, nil
}

func (e *Experiment) finish(result *Result) {
	frame := e.snapshot()
	result.Frame = append([]dynamo.Drawable(nil), frame...)
	result.Profile = e.profile.Report()

	for _, m := range e.metrics {
		v := m.Value()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		result.Metrics[m.Name()] = v
		if m.Name() == "energy_drift" {
			result.EnergyDrift = v
		}
	}
	result.Metrics["final_energy"] = metrics.TotalEnergy(frame, e.cfg.Gravity)
	result.Metrics["particles"] = float64(len(frame))
}
