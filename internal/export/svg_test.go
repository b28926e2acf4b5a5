package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/ecosim/internal/analysis"
	"github.com/san-kum/ecosim/internal/world"
)

func TestChartWritesOnePathPerLine(t *testing.T) {
	records := []world.Record{
		{Rabbits: 10, Foxes: 1},
		{Rabbits: 14, Foxes: 2},
		{Rabbits: 9, Foxes: 3},
	}

	var buf bytes.Buffer
	if err := Chart(&buf, Populations(records, 4), 400, 200); err != nil {
		t.Fatalf("Chart failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("not a complete svg document:\n%s", out)
	}
	if n := strings.Count(out, "<path"); n != 2 {
		t.Errorf("expected 2 paths, got %d", n)
	}
	if !strings.Contains(out, "foxes x4") {
		t.Error("expected fox label with scale")
	}
}

func TestChartSkipsShortLines(t *testing.T) {
	lines := []Line{
		{Color: "#fff", Points: []analysis.Point{{X: 0, Y: 0}}},
		{Color: "#000", Points: []analysis.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
	}

	var buf bytes.Buffer
	if err := Chart(&buf, lines, 100, 100); err != nil {
		t.Fatalf("Chart failed: %v", err)
	}
	if n := strings.Count(buf.String(), "<path"); n != 1 {
		t.Errorf("expected 1 path, got %d", n)
	}
}

func TestChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Chart(&buf, PhasePortrait(nil), 100, 100); err == nil {
		t.Error("expected error for empty chart")
	}
}
