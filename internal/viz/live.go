package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ecosim/internal/agent"
	"github.com/san-kum/ecosim/internal/world"
)

const (
	sparkWidth      = 48
	historyCapacity = 600
)

var monthNames = [world.MonthsPerYear]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// RecordMsg carries one persisted month to the program.
type RecordMsg world.Record

// DoneMsg reports the end of the run.
type DoneMsg struct {
	Summary *agent.Summary
	Err     error
}

type series struct {
	name  string
	value func(world.Record) float64
}

var plotSeries = []series{
	{"rabbits", func(r world.Record) float64 { return float64(r.Rabbits) }},
	{"foxes", func(r world.Record) float64 { return float64(r.Foxes) }},
	{"grass height", func(r world.Record) float64 { return r.Height }},
	{"temperature", func(r world.Record) float64 { return r.Temperature }},
	{"precipitation", func(r world.Record) float64 { return r.Precipitation }},
}

// Model is the live view of one run.
type Model struct {
	title   string
	total   int
	records []world.Record
	seen    int
	frozen  bool
	plot    int
	done    bool
	summary *agent.Summary
	err     error
	cancel  func()
	started time.Time
}

// NewModel expects total months; cancel is called when the user quits.
func NewModel(title string, total int, cancel func()) Model {
	if cancel == nil {
		cancel = func() {}
	}
	return Model{
		title:   title,
		total:   total,
		records: make([]world.Record, 0, historyCapacity),
		cancel:  cancel,
		started: time.Now(),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		case "g":
			m.plot = (m.plot + 1) % len(plotSeries)
		}
	case RecordMsg:
		m.seen++
		if !m.frozen {
			m.records = append(m.records, world.Record(msg))
			if len(m.records) > historyCapacity {
				m.records = m.records[1:]
			}
		}
	case DoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("FAILED: " + m.err.Error())
	case m.done:
		return StatusRunning.Render("FINISHED")
	case m.frozen:
		return StatusPaused.Render("FROZEN")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.seen) / float64(m.total)
	}
	s.WriteString(ProgressBar(pct, sparkWidth) + fmt.Sprintf(" %d/%d months\n\n", m.seen, m.total))

	if len(m.records) == 0 {
		s.WriteString(Subtle.Render("waiting for the first month...") + "\n")
		return GlassPanel.Render(s.String())
	}

	last := m.records[len(m.records)-1]
	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Date", fmt.Sprintf("%s %d", monthNames[last.Month], last.Year))
	row("Temperature", fmt.Sprintf("%.1f °F", last.Temperature))
	row("Precipitation", fmt.Sprintf("%.2f in", last.Precipitation))
	row("Grass", fmt.Sprintf("%.2f in", last.Height))
	row("Rabbits", fmt.Sprintf("%d", last.Rabbits))
	row("Foxes", fmt.Sprintf("%d", last.Foxes))
	s.WriteString("\n" + Separator(sparkWidth+14) + "\n\n")

	for _, ser := range plotSeries {
		s.WriteString(MetricLabel.Render(ser.name) + SparklineChart(m.column(ser), sparkWidth) + "\n")
	}

	if data := m.column(plotSeries[m.plot]); len(data) > 1 {
		chart := asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption(plotSeries[m.plot].name),
		)
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.summary != nil {
		s.WriteString(fmt.Sprintf("\n%d records in %v\n", m.summary.Records, m.summary.Elapsed.Round(time.Millisecond)))
	}
	s.WriteString(KeyHint.Render("\nSP:Freeze  G:Next plot  Q:Quit"))

	return lipgloss.JoinVertical(lipgloss.Left, GlassPanel.Render(s.String()))
}

func (m Model) column(ser series) []float64 {
	out := make([]float64, len(m.records))
	for i, r := range m.records {
		out[i] = ser.value(r)
	}
	return out
}

// Sink forwards records to a running program. Delay slows the observer and
// therefore the whole team, so a run can be watched month by month.
type Sink struct {
	send  func(tea.Msg)
	delay time.Duration
}

func NewSink(p *tea.Program, delay time.Duration) *Sink {
	return &Sink{send: p.Send, delay: delay}
}

func (s *Sink) Write(rec world.Record) error {
	s.send(RecordMsg(rec))
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return nil
}
