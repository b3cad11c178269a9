package experiment

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/spawn"
)

type Registry struct {
	patterns map[string]func(spawn.Options, *rand.Rand) (spawn.Emitter, error)
	backends map[string]func(theta float64, n int) (compute.Backend, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		patterns: make(map[string]func(spawn.Options, *rand.Rand) (spawn.Emitter, error)),
		backends: make(map[string]func(float64, int) (compute.Backend, error)),
	}

	for _, name := range spawn.Patterns() {
		r.patterns[name] = spawn.New
	}

	for _, name := range compute.Names() {
		name := name
		r.backends[name] = func(theta float64, _ int) (compute.Backend, error) {
			return compute.ByName(name, theta)
		}
	}
	r.backends["auto"] = func(theta float64, n int) (compute.Backend, error) {
		return compute.AutoSelect(n, theta), nil
	}

	return r
}

// GetEmitter builds the emitter for opts.Pattern.
func (r *Registry) GetEmitter(opts spawn.Options, rng *rand.Rand) (spawn.Emitter, error) {
	fn, ok := r.patterns[opts.Pattern]
	if !ok {
		return nil, fmt.Errorf("unknown spawn pattern: %s", opts.Pattern)
	}
	return fn(opts, rng)
}

// GetBackend builds the named force backend for n bodies. n only matters
// to "auto".
func (r *Registry) GetBackend(name string, theta float64, n int) (compute.Backend, error) {
	fn, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown force backend: %s", name)
	}
	return fn(theta, n)
}

func (r *Registry) ListPatterns() []string { return sortedKeys(r.patterns) }
func (r *Registry) ListBackends() []string { return sortedKeys(r.backends) }

// DefaultMetrics are sampled on every run.
func (r *Registry) DefaultMetrics(cfg *config.Config) []metrics.Metric {
	return []metrics.Metric{
		metrics.NewEnergy(cfg.Gravity),
		metrics.NewEnergyDrift(cfg.Gravity),
		metrics.NewMaxSpeed(),
		metrics.NewPenetration(),
		metrics.NewStability(cfg.World.Size(), 2*cfg.Spawn.Radius),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
