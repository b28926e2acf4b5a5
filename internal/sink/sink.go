// Package sink persists monthly records.
//
// Every sink accepts one [world.Record] per simulated month from a single
// writer, the observing agent. Sinks that hold resources also implement
// io.Closer.
package sink

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/ecosim/internal/world"
)

var ErrMalformedRecord = errors.New("sink: malformed record")

// Header is the column order of every delimited output.
var Header = []string{"year", "month", "temperature", "precipitation", "rabbits", "foxes", "height"}

// Fields formats rec in Header order.
func Fields(rec world.Record) []string {
	return []string{
		strconv.Itoa(rec.Year),
		strconv.Itoa(rec.Month),
		strconv.FormatFloat(rec.Temperature, 'f', 6, 64),
		strconv.FormatFloat(rec.Precipitation, 'f', 6, 64),
		strconv.Itoa(rec.Rabbits),
		strconv.Itoa(rec.Foxes),
		strconv.FormatFloat(rec.Height, 'f', 6, 64),
	}
}

// ParseFields is the inverse of Fields.
func ParseFields(fields []string) (world.Record, error) {
	var rec world.Record
	if len(fields) != len(Header) {
		return rec, fmt.Errorf("%w: %d fields, want %d", ErrMalformedRecord, len(fields), len(Header))
	}

	ints := []*int{&rec.Year, &rec.Month, nil, nil, &rec.Rabbits, &rec.Foxes, nil}
	floats := []*float64{nil, nil, &rec.Temperature, &rec.Precipitation, nil, nil, &rec.Height}
	for i, f := range fields {
		var err error
		switch {
		case ints[i] != nil:
			*ints[i], err = strconv.Atoi(f)
		case floats[i] != nil:
			*floats[i], err = strconv.ParseFloat(f, 64)
		}
		if err != nil {
			return rec, fmt.Errorf("%w: column %s: %v", ErrMalformedRecord, Header[i], err)
		}
	}
	return rec, nil
}

// Writer is the method set shared by all sinks.
type Writer interface {
	Write(rec world.Record) error
}

type multi struct {
	sinks []Writer
}

// Multi writes every record to each sink in order and stops at the first
// error.
func Multi(sinks ...Writer) Writer {
	return &multi{sinks: sinks}
}

func (m *multi) Write(rec world.Record) error {
	for _, s := range m.sinks {
		if err := s.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink that is an io.Closer and joins their errors.
func (m *multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Writer.
type Func func(rec world.Record) error

func (f Func) Write(rec world.Record) error { return f(rec) }
