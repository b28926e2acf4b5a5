// Package world holds the state shared by the ecosystem agents.
//
// A World has no lock. Its discipline is enforced by the agent protocol:
// every field has exactly one writer, writes only happen between two barrier
// rounds, and reads in the compute phase go through a [Snapshot] taken while
// nobody writes.
package world

import "fmt"

const MonthsPerYear = 12

// Field names one owned slot of the world.
type Field string

const (
	FieldClock         Field = "clock"
	FieldTemperature   Field = "temperature"
	FieldPrecipitation Field = "precipitation"
	FieldHeight        Field = "height"
	FieldRabbits       Field = "rabbits"
	FieldFoxes         Field = "foxes"
)

// Snapshot is a value copy of every field.
type Snapshot struct {
	Year          int
	Month         int
	Temperature   float64
	Precipitation float64
	Height        float64
	Rabbits       int
	Foxes         int
}

// Initial describes the starting world.
type Initial struct {
	Year    int
	Month   int
	Height  float64
	Rabbits int
	Foxes   int
}

type World struct {
	year          int
	month         int
	temperature   float64
	precipitation float64
	height        float64
	rabbits       int
	foxes         int
}

// New returns a world at the initial clock and populations. Climate is left
// at zero until SetClimate is called.
func New(init Initial) (*World, error) {
	if init.Month < 0 || init.Month >= MonthsPerYear {
		return nil, fmt.Errorf("world: month %d out of range [0,%d)", init.Month, MonthsPerYear)
	}
	if init.Height < 0 || init.Rabbits < 0 || init.Foxes < 0 {
		return nil, fmt.Errorf("world: negative seed value (height=%g rabbits=%d foxes=%d)", init.Height, init.Rabbits, init.Foxes)
	}
	return &World{
		year:    init.Year,
		month:   init.Month,
		height:  init.Height,
		rabbits: init.Rabbits,
		foxes:   init.Foxes,
	}, nil
}

func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Year:          w.year,
		Month:         w.month,
		Temperature:   w.temperature,
		Precipitation: w.precipitation,
		Height:        w.height,
		Rabbits:       w.rabbits,
		Foxes:         w.foxes,
	}
}

// Year is the termination field every agent checks at the top of a cycle.
func (w *World) Year() int  { return w.year }
func (w *World) Month() int { return w.month }

func (w *World) SetHeight(h float64) { w.height = h }
func (w *World) SetRabbits(n int)    { w.rabbits = n }
func (w *World) SetFoxes(n int)      { w.foxes = n }

func (w *World) SetClimate(temp, precip float64) {
	w.temperature = temp
	w.precipitation = precip
}

// Advance moves the clock one month, wrapping 11 -> 0 into the next year.
func (w *World) Advance() {
	w.month++
	if w.month >= MonthsPerYear {
		w.month = 0
		w.year++
	}
}

// Record is one persisted month.
type Record struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Temperature   float64 `json:"temperature"`
	Precipitation float64 `json:"precipitation"`
	Rabbits       int     `json:"rabbits"`
	Foxes         int     `json:"foxes"`
	Height        float64 `json:"height"`
}

func (s Snapshot) Record() Record {
	return Record{
		Year:          s.Year,
		Month:         s.Month,
		Temperature:   s.Temperature,
		Precipitation: s.Precipitation,
		Rabbits:       s.Rabbits,
		Foxes:         s.Foxes,
		Height:        s.Height,
	}
}
