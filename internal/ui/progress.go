// Package ui renders pipeline progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"propweave/internal/pipeline"
)

// state is where one fixture is in its run.
type state uint8

const (
	stateQueued state = iota
	stateLoading
	stateWeaving
	stateDone
	stateFailed
)

var stateLabels = [...]string{
	stateQueued:  "queued",
	stateLoading: "loading",
	stateWeaving: "weaving",
	stateDone:    "done",
	stateFailed:  "error",
}

// stateWeights is the share of a fixture's run finished on entering the state.
var stateWeights = [...]float64{
	stateQueued:  0,
	stateLoading: 0.2,
	stateWeaving: 0.6,
	stateDone:    1,
	stateFailed:  1,
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

func (s state) String() string { return stateLabels[s] }

func (s state) style() lipgloss.Style {
	switch s {
	case stateDone:
		return doneStyle
	case stateFailed:
		return failedStyle
	case stateLoading, stateWeaving:
		return activeStyle
	}
	return pendingStyle
}

// stateOf maps a pipeline event onto a fixture state; ok is false for events
// that do not move the fixture.
func stateOf(ev pipeline.Event) (state, bool) {
	switch ev.Status {
	case pipeline.StatusQueued:
		return stateQueued, true
	case pipeline.StatusDone:
		return stateDone, true
	case pipeline.StatusError:
		return stateFailed, true
	case pipeline.StatusWorking:
		switch ev.Stage {
		case pipeline.StageLoad:
			return stateLoading, true
		case pipeline.StageWeave:
			return stateWeaving, true
		}
	}
	return 0, false
}

type row struct {
	path    string
	state   state
	elapsed time.Duration
}

type progressModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []row
	byPath  map[string]int
	width   int
	done    bool
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model with one row per fixture. It
// quits once events is closed.
func NewProgressModel(title string, files []string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]row, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, f := range files {
		m.rows[i] = row{path: f}
		m.byPath[f] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(pipeline.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	const stateWidth, timeWidth = 8, 9
	nameWidth := max(m.width-stateWidth-timeWidth-6, 20)
	for _, r := range m.rows {
		label := r.state.style().Render(runewidth.FillLeft(r.state.String(), stateWidth))
		name := runewidth.FillRight(truncate(r.path, nameWidth), nameWidth)
		elapsed := ""
		if r.elapsed > 0 {
			elapsed = faintStyle.Render(r.elapsed.Round(100 * time.Microsecond).String())
		}
		fmt.Fprintf(&b, "  %s %s %s\n", label, name, elapsed)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) header() string {
	h := m.title
	if n := m.count(stateFailed); n > 0 {
		h = fmt.Sprintf("%s (%d failed)", h, n)
	}
	if m.done {
		return "done: " + h
	}
	return m.spinner.View() + " " + h
}

func (m *progressModel) count(s state) int {
	n := 0
	for _, r := range m.rows {
		if r.state == s {
			n++
		}
	}
	return n
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev pipeline.Event) tea.Cmd {
	i, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	if s, ok := stateOf(ev); ok {
		m.rows[i].state = s
	}
	if ev.Elapsed > 0 {
		m.rows[i].elapsed += ev.Elapsed
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range m.rows {
		total += stateWeights[r.state]
	}
	return total / float64(len(m.rows))
}

// truncate shortens value to width cells, marking the cut with "...".
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
