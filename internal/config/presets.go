package config

import "sort"

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"decade": preset(func(c *Config) {
		c.EndYear = c.StartYear + 10
	}),
	"drought": preset(func(c *Config) {
		c.Ecology.AvgPrecip = 6.0
		c.Ecology.AmpPrecip = 2.0
	}),
	"heatwave": preset(func(c *Config) {
		c.Ecology.AvgTemp = 72.0
		c.Ecology.RandomTemp = 4.0
	}),
	"crowded": preset(func(c *Config) {
		c.InitState.Rabbits = 40
		c.InitState.Foxes = 6
		c.InitState.Height = 20.0
	}),
	"calm": preset(func(c *Config) {
		c.Ecology.RandomTemp = 0
		c.Ecology.RandomPrecip = 0
		c.Barrier = "cond"
	}),
}

func preset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
