package config

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

var Presets = map[string]func(c *Config){
	// One particle thrown up and right; the reference trajectory.
	"single": func(c *Config) {
		c.Spawn = SpawnConfig{
			Pattern: "single", Count: 1, Radius: 10, Elasticity: 1,
			Origin: r2.Vec{Y: 250}, Velocity: r2.Vec{X: 100, Y: 50},
		}
		c.Duration = 5
	},
	"rain": func(c *Config) {
		c.Spawn.Pattern = "grid"
		c.Spawn.Count = 400
		c.Spawn.Radius = 8
		c.Spawn.RadiusJitter = 2
		c.Spawn.Elasticity = 0.8
		c.Spawn.Origin = r2.Vec{Y: 200}
	},
	"fountain": func(c *Config) {
		c.Spawn.Pattern = "fountain"
		c.Spawn.Count = 600
		c.Spawn.Radius = 6
		c.Spawn.Speed = 450
		c.Spawn.Angle = 90
		c.Spawn.Interval = 0.01
		c.Spawn.Origin = r2.Vec{Y: -350}
		c.Duration = 15
	},
	"pegboard": func(c *Config) {
		c.Spawn.Pattern = "fountain"
		c.Spawn.Count = 500
		c.Spawn.Radius = 5
		c.Spawn.Speed = 50
		c.Spawn.Angle = -90
		c.Spawn.Interval = 0.02
		c.Spawn.Origin = r2.Vec{Y: 450}
		c.Pegs = PegsConfig{Rows: 8, Cols: 12, Spacing: 70, Radius: 6, Origin: r2.Vec{Y: 50}}
		c.Duration = 20
	},
	"orbit": func(c *Config) {
		c.Gravity = r2.Vec{}
		c.Spawn.Pattern = "ring"
		c.Spawn.Count = 120
		c.Spawn.Radius = 5
		c.Spawn.Speed = 120
		c.Spawn.Elasticity = 0.5
		c.Attraction.Enabled = true
		c.Attraction.Backend = "barneshut"
		c.Duration = 20
	},
	"chaos": func(c *Config) {
		c.Spawn.Pattern = "random"
		c.Spawn.Count = 1500
		c.Spawn.Radius = 4
		c.Spawn.RadiusJitter = 1
		c.Spawn.Speed = 600
		c.SubSteps = 4
	},
}

// GetPreset returns a fresh default config with the named preset applied, or
// nil if there is no such preset.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
