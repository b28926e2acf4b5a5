package analysis

import (
	"math"

	"github.com/san-kum/ecosim/internal/world"
)

// Column selects one numeric value of a record.
type Column func(world.Record) float64

var (
	Rabbits       Column = func(r world.Record) float64 { return float64(r.Rabbits) }
	Foxes         Column = func(r world.Record) float64 { return float64(r.Foxes) }
	Height        Column = func(r world.Record) float64 { return r.Height }
	Temperature   Column = func(r world.Record) float64 { return r.Temperature }
	Precipitation Column = func(r world.Record) float64 { return r.Precipitation }
)

// Series extracts one column from records, in order.
func Series(records []world.Record, col Column) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = col(r)
	}
	return out
}

// Stats describes a series.
type Stats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Final float64 `json:"final"`
}

// Describe returns the zero Stats for an empty series.
func Describe(data []float64) Stats {
	if len(data) == 0 {
		return Stats{}
	}

	s := Stats{Min: math.Inf(1), Max: math.Inf(-1), Final: data[len(data)-1]}
	sum := 0.0
	for _, v := range data {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		sum += v
	}
	s.Mean = sum / float64(len(data))
	return s
}

// FirstExtinction returns the index of the first record whose column is zero
// after having been positive, or -1.
func FirstExtinction(records []world.Record, col Column) int {
	alive := false
	for i, r := range records {
		v := col(r)
		if v > 0 {
			alive = true
			continue
		}
		if alive {
			return i
		}
	}
	return -1
}

// Point is one sample in phase space.
type Point struct{ X, Y float64 }

// Portrait pairs two columns month by month.
func Portrait(records []world.Record, x, y Column) []Point {
	pts := make([]Point, len(records))
	for i, r := range records {
		pts[i] = Point{X: x(r), Y: y(r)}
	}
	return pts
}
