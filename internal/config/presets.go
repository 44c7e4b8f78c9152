package config

import "sort"

var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"dense": func() *Config {
		cfg := DefaultConfig()
		cfg.Particles = 4000
		cfg.Init.CloudRadius = 15
		cfg.Init.InnerRadius = 8
		cfg.Run.Collisions = true
		return cfg
	},
	"bouncy": func() *Config {
		cfg := DefaultConfig()
		cfg.Params.Bounce = 1
		cfg.Params.Friction = 0.99
		cfg.Params.ParticleSize = 0.5
		cfg.Run.Collisions = true
		return cfg
	},
	"orbit": func() *Config {
		cfg := DefaultConfig()
		cfg.Params.PlanetSize = 6
		cfg.Params.Friction = 0.97
		cfg.Run.Orbit = true
		return cfg
	},
	"sticky": func() *Config {
		cfg := DefaultConfig()
		cfg.Params.Bounce = 0.1
		cfg.Params.Friction = 0.96
		cfg.Params.ParticleSize = 0.12
		cfg.Run.Collisions = true
		cfg.Run.Movement = true
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
