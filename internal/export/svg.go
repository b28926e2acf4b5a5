// Package export renders run records as standalone SVG documents.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/ecosim/internal/analysis"
	"github.com/san-kum/ecosim/internal/world"
)

// Line is one stroked series of a chart.
type Line struct {
	Label  string
	Color  string
	Points []analysis.Point
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func boundsOf(lines []Line) (bounds, bool) {
	b := bounds{}
	found := false
	for _, l := range lines {
		for _, p := range l.Points {
			if !found {
				b = bounds{p.X, p.X, p.Y, p.Y}
				found = true
				continue
			}
			b.minX = min(b.minX, p.X)
			b.maxX = max(b.maxX, p.X)
			b.minY = min(b.minY, p.Y)
			b.maxY = max(b.maxY, p.Y)
		}
	}
	if !found {
		return b, false
	}

	// Add padding
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	return b, true
}

// Chart writes every line into one SVG of the given pixel size. Lines with
// fewer than two points are skipped.
func Chart(w io.Writer, lines []Line, width, height int) error {
	b, ok := boundsOf(lines)
	if !ok {
		return fmt.Errorf("no points to render")
	}
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, l := range lines {
		if len(l.Points) < 2 {
			continue
		}

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, l.Color))
		for j, p := range l.Points {
			x := (p.X - b.minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-b.minY)/rangeY*float64(height)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		if l.Label != "" {
			sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16*(i+1), l.Color, l.Label))
		}
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// Populations charts rabbits and foxes against the month index. Foxes are
// scaled by ratio so both stay visible on one axis.
func Populations(records []world.Record, ratio float64) []Line {
	rabbits := Line{Label: "rabbits", Color: "#7aa2f7"}
	foxes := Line{Label: fmt.Sprintf("foxes x%g", ratio), Color: "#f7768e"}
	for i, r := range records {
		rabbits.Points = append(rabbits.Points, analysis.Point{X: float64(i), Y: float64(r.Rabbits)})
		foxes.Points = append(foxes.Points, analysis.Point{X: float64(i), Y: float64(r.Foxes) * ratio})
	}
	return []Line{rabbits, foxes}
}

// PhasePortrait is the rabbits/foxes loop of a run.
func PhasePortrait(records []world.Record) []Line {
	return []Line{{
		Label:  "rabbits vs foxes",
		Color:  "#9ece6a",
		Points: analysis.Portrait(records, analysis.Rabbits, analysis.Foxes),
	}}
}
