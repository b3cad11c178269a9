package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWorldSize   = 1000.0
	DefaultSubSteps    = 8
	DefaultGravityY    = -400.0
	DefaultDt          = 1.0 / 60
	DefaultDuration    = 10.0
	DefaultSampleEvery = 6
	DefaultCount       = 200
	DefaultRadius      = 10.0
	DefaultElasticity  = 1.0
	DefaultSpeed       = 300.0
	DefaultAngle       = 90.0
	DefaultInterval    = 0.02
	DefaultStrength    = 2000.0
	DefaultSoftening   = 5.0
	DefaultTheta       = 0.5
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	World       WorldConfig      `yaml:"world"`
	SubSteps    int              `yaml:"sub_steps"`
	Gravity     r2.Vec           `yaml:"gravity"`
	Dt          float64          `yaml:"dt"`
	Duration    float64          `yaml:"duration"`
	Seed        int64            `yaml:"seed"`
	Paused      bool             `yaml:"paused"`
	Workers     int              `yaml:"workers"`
	SampleEvery int              `yaml:"sample_every"`
	Spawn       SpawnConfig      `yaml:"spawn"`
	Pegs        PegsConfig       `yaml:"pegs"`
	Attraction  AttractionConfig `yaml:"attraction"`
}

type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

func (w WorldConfig) Size() r2.Vec { return r2.Vec{X: w.Width, Y: w.Height} }

type SpawnConfig struct {
	Pattern      string  `yaml:"pattern"`
	Count        int     `yaml:"count"`
	Radius       float64 `yaml:"radius"`
	RadiusJitter float64 `yaml:"radius_jitter"`
	Elasticity   float64 `yaml:"elasticity"`
	Speed        float64 `yaml:"speed"`
	// Angle is in degrees, counter-clockwise from +x.
	Angle    float64 `yaml:"angle"`
	Interval float64 `yaml:"interval"`
	Origin   r2.Vec  `yaml:"origin"`
	Velocity r2.Vec  `yaml:"velocity"`
	Fixed    bool    `yaml:"fixed"`
}

type PegsConfig struct {
	Rows    int     `yaml:"rows"`
	Cols    int     `yaml:"cols"`
	Spacing float64 `yaml:"spacing"`
	Radius  float64 `yaml:"radius"`
	Origin  r2.Vec  `yaml:"origin"`
}

type AttractionConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Strength  float64 `yaml:"strength"`
	Softening float64 `yaml:"softening"`
	Theta     float64 `yaml:"theta"`
	Backend   string  `yaml:"backend"`
}

func DefaultConfig() *Config {
	return &Config{
		World:       WorldConfig{Width: DefaultWorldSize, Height: DefaultWorldSize},
		SubSteps:    DefaultSubSteps,
		Gravity:     r2.Vec{Y: DefaultGravityY},
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Seed:        1,
		SampleEvery: DefaultSampleEvery,
		Spawn: SpawnConfig{
			Pattern:    "grid",
			Count:      DefaultCount,
			Radius:     DefaultRadius,
			Elasticity: DefaultElasticity,
			Speed:      DefaultSpeed,
			Angle:      DefaultAngle,
			Interval:   DefaultInterval,
		},
		Attraction: AttractionConfig{
			Strength:  DefaultStrength,
			Softening: DefaultSoftening,
			Theta:     DefaultTheta,
			Backend:   "cpu",
		},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file on top of a copy of base, so a preset can be
// refined by a partial file.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case !positive(c.World.Width) || !positive(c.World.Height):
		return fmt.Errorf("%w: world %gx%g", ErrInvalid, c.World.Width, c.World.Height)
	case c.SubSteps < 1:
		return fmt.Errorf("%w: sub_steps %d", ErrInvalid, c.SubSteps)
	case !finite(c.Gravity.X) || !finite(c.Gravity.Y):
		return fmt.Errorf("%w: gravity %v", ErrInvalid, c.Gravity)
	case !positive(c.Dt):
		return fmt.Errorf("%w: dt %g", ErrInvalid, c.Dt)
	case c.Duration < 0 || !finite(c.Duration):
		return fmt.Errorf("%w: duration %g", ErrInvalid, c.Duration)
	case c.SampleEvery < 1:
		return fmt.Errorf("%w: sample_every %d", ErrInvalid, c.SampleEvery)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}

	s := c.Spawn
	switch {
	case s.Count < 0:
		return fmt.Errorf("%w: spawn.count %d", ErrInvalid, s.Count)
	case !positive(s.Radius):
		return fmt.Errorf("%w: spawn.radius %g", ErrInvalid, s.Radius)
	case s.RadiusJitter < 0 || s.RadiusJitter >= s.Radius:
		return fmt.Errorf("%w: spawn.radius_jitter %g", ErrInvalid, s.RadiusJitter)
	case s.Elasticity < 0 || !finite(s.Elasticity):
		return fmt.Errorf("%w: spawn.elasticity %g", ErrInvalid, s.Elasticity)
	case s.Interval < 0:
		return fmt.Errorf("%w: spawn.interval %g", ErrInvalid, s.Interval)
	}

	if c.Pegs.Rows > 0 && c.Pegs.Cols > 0 {
		if !positive(c.Pegs.Spacing) || !positive(c.Pegs.Radius) {
			return fmt.Errorf("%w: pegs spacing %g radius %g", ErrInvalid, c.Pegs.Spacing, c.Pegs.Radius)
		}
	}

	if c.Attraction.Enabled {
		a := c.Attraction
		if a.Softening < 0 || a.Theta < 0 || !finite(a.Strength) {
			return fmt.Errorf("%w: attraction %+v", ErrInvalid, a)
		}
	}
	return nil
}

// Steps is the number of fixed updates covering Duration.
func (c *Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
func finite(v float64) bool   { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Params lists the names accepted by SetParam.
var Params = []string{"sub_steps", "elasticity", "gravity_y", "count", "radius", "speed", "strength"}

// SetParam assigns a single numeric parameter by name. Used by sweeps and
// searches that vary one value at a time.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "sub_steps":
		c.SubSteps = int(math.Round(v))
	case "elasticity":
		c.Spawn.Elasticity = v
	case "gravity_y":
		c.Gravity.Y = v
	case "count":
		c.Spawn.Count = int(math.Round(v))
	case "radius":
		c.Spawn.Radius = v
	case "speed":
		c.Spawn.Speed = v
	case "strength":
		c.Attraction.Strength = v
	default:
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", ErrInvalid, name, Params)
	}
	return nil
}

// Param reads a parameter accepted by SetParam.
func (c *Config) Param(name string) (float64, error) {
	switch name {
	case "sub_steps":
		return float64(c.SubSteps), nil
	case "elasticity":
		return c.Spawn.Elasticity, nil
	case "gravity_y":
		return c.Gravity.Y, nil
	case "count":
		return float64(c.Spawn.Count), nil
	case "radius":
		return c.Spawn.Radius, nil
	case "speed":
		return c.Spawn.Speed, nil
	case "strength":
		return c.Attraction.Strength, nil
	}
	return 0, fmt.Errorf("%w: unknown parameter %q (available: %v)", ErrInvalid, name, Params)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
