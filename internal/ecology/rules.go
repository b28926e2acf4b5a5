// Package ecology contains the per-species update rules. Every rule is a pure
// function of a world snapshot.
package ecology

import (
	"math"

	"github.com/san-kum/ecosim/internal/world"
)

type Params struct {
	GrassGrowsPerMonth     float64 `yaml:"grass_grows_per_month"`
	RabbitEatsPerMonth     float64 `yaml:"rabbit_eats_per_month"`
	FoxNeedsRabbits        float64 `yaml:"fox_needs_rabbits"`
	FoxEatsRabbitsPerMonth float64 `yaml:"fox_eats_rabbits_per_month"`

	AvgPrecip    float64 `yaml:"avg_precip"`
	AmpPrecip    float64 `yaml:"amp_precip"`
	RandomPrecip float64 `yaml:"random_precip"`

	AvgTemp    float64 `yaml:"avg_temp"`
	AmpTemp    float64 `yaml:"amp_temp"`
	RandomTemp float64 `yaml:"random_temp"`

	MidTemp   float64 `yaml:"mid_temp"`
	MidPrecip float64 `yaml:"mid_precip"`
}

func DefaultParams() Params {
	return Params{
		GrassGrowsPerMonth:     20.0,
		RabbitEatsPerMonth:     1.0,
		FoxNeedsRabbits:        4.0,
		FoxEatsRabbitsPerMonth: 0.5,

		AvgPrecip:    12.0,
		AmpPrecip:    4.0,
		RandomPrecip: 2.0,

		AvgTemp:    60.0,
		AmpTemp:    20.0,
		RandomTemp: 10.0,

		MidTemp:   60.0,
		MidPrecip: 14.0,
	}
}

// Climate returns temperature (°F) and precipitation (inches) for a month.
// The seasonal curve peaks mid-year; noise comes from u. Precipitation is
// floored at zero.
func (p Params) Climate(month int, u Uniform) (temp, precip float64) {
	ang := (30.0*float64(month) + 15.0) * (math.Pi / 180.0)

	temp = p.AvgTemp - p.AmpTemp*math.Cos(ang)
	temp += u(-p.RandomTemp, p.RandomTemp)

	precip = p.AvgPrecip + p.AmpPrecip*math.Sin(ang)
	precip += u(-p.RandomPrecip, p.RandomPrecip)
	if precip < 0 {
		precip = 0
	}
	return temp, precip
}

func (p Params) tempFactor(s world.Snapshot) float64 {
	return math.Exp(-sqr((s.Temperature - p.MidTemp) / 10.0))
}

func (p Params) precipFactor(s world.Snapshot) float64 {
	return math.Exp(-sqr((s.Precipitation - p.MidPrecip) / 10.0))
}

// NextHeight grows the grass by the climate factors and removes what the
// rabbits eat.
func (p Params) NextHeight(s world.Snapshot) float64 {
	h := s.Height
	h += p.tempFactor(s) * p.precipFactor(s) * p.GrassGrowsPerMonth
	h -= float64(s.Rabbits) * p.RabbitEatsPerMonth
	if h < 0 {
		h = 0
	}
	return h
}

// NextRabbits moves the population one step toward the carrying capacity set
// by the grass height, then subtracts what the foxes catch.
func (p Params) NextRabbits(s world.Snapshot) int {
	n := s.Rabbits
	capacity := int(s.Height)
	switch {
	case n < capacity:
		n++
	case n > capacity:
		n--
	}
	n -= int(float64(s.Foxes) * p.FoxEatsRabbitsPerMonth)
	if n < 0 {
		n = 0
	}
	return n
}

// NextFoxes grows the den by one while there are enough rabbits per fox and
// shrinks it by one when there are not.
func (p Params) NextFoxes(s world.Snapshot) int {
	n := s.Foxes
	need := float64(n) * p.FoxNeedsRabbits
	switch {
	case float64(s.Rabbits) > need:
		n++
	case float64(s.Rabbits) < need:
		n--
	}
	if n < 0 {
		n = 0
	}
	return n
}

func sqr(x float64) float64 { return x * x }
