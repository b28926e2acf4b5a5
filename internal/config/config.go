package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ecosim/internal/agent"
	"github.com/san-kum/ecosim/internal/barrier"
	"github.com/san-kum/ecosim/internal/ecology"
	"github.com/san-kum/ecosim/internal/world"
)

const (
	DefaultStartYear = 2023
	DefaultEndYear   = 2029
	DefaultHeight    = 5.0
	DefaultRabbits   = 10
	DefaultFoxes     = 1
	DefaultSeed      = 1
)

type Config struct {
	StartYear  int             `yaml:"start_year"`
	EndYear    int             `yaml:"end_year"`
	StartMonth int             `yaml:"start_month"`
	Seed       int64           `yaml:"seed"`
	Barrier    string          `yaml:"barrier"`
	InitState  InitStateConfig `yaml:"init_state"`
	Ecology    ecology.Params  `yaml:"ecology"`
	Output     OutputConfig    `yaml:"output"`
}

type InitStateConfig struct {
	Height  float64 `yaml:"height"`
	Rabbits int     `yaml:"rabbits"`
	Foxes   int     `yaml:"foxes"`
}

type OutputConfig struct {
	Compress bool   `yaml:"compress"`
	SQLite   string `yaml:"sqlite"`
}

func DefaultConfig() *Config {
	return &Config{
		StartYear: DefaultStartYear,
		EndYear:   DefaultEndYear,
		Seed:      DefaultSeed,
		Barrier:   barrier.KindSpin,
		InitState: InitStateConfig{
			Height:  DefaultHeight,
			Rabbits: DefaultRabbits,
			Foxes:   DefaultFoxes,
		},
		Ecology: ecology.DefaultParams(),
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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
	if c.EndYear < c.StartYear {
		return fmt.Errorf("end_year %d before start_year %d", c.EndYear, c.StartYear)
	}
	if c.StartMonth < 0 || c.StartMonth >= world.MonthsPerYear {
		return fmt.Errorf("start_month %d out of range [0,%d)", c.StartMonth, world.MonthsPerYear)
	}
	if c.InitState.Height < 0 || c.InitState.Rabbits < 0 || c.InitState.Foxes < 0 {
		return fmt.Errorf("init_state values must be non-negative")
	}
	if _, err := barrier.New(c.Barrier, agent.TeamSize); err != nil {
		return err
	}
	return nil
}

// Months is the number of records a run of this configuration persists.
func (c *Config) Months() int {
	return (c.EndYear-c.StartYear)*world.MonthsPerYear - c.StartMonth
}

// RunConfig builds the coordinator configuration, with climate noise seeded
// from Seed.
func (c *Config) RunConfig(logger *slog.Logger) agent.Config {
	return agent.Config{
		Start: world.Initial{
			Year:    c.StartYear,
			Month:   c.StartMonth,
			Height:  c.InitState.Height,
			Rabbits: c.InitState.Rabbits,
			Foxes:   c.InitState.Foxes,
		},
		EndYear: c.EndYear,
		Params:  c.Ecology,
		Barrier: c.Barrier,
		Uniform: ecology.NewUniform(c.Seed),
		Logger:  logger,
	}
}
