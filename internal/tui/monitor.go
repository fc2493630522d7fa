// Package tui renders a live monitor for a running optimization: one row
// per distribution update with cost and exploration readouts.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// ProgressMsg reports one completed distribution update.
type ProgressMsg struct {
	Update      int
	Cost        float64
	Exploration float64
}

type doneMsg struct{ err error }

const maxVisibleRows = 12

type model struct {
	title    string
	nUpdates int

	rows    []ProgressMsg
	history []float64

	done    bool
	err     error
	aborted bool

	width  int
	height int
}

func newModel(title string, nUpdates int) model {
	return model{
		title:    title,
		nUpdates: nUpdates,
		rows:     make([]ProgressMsg, 0, nUpdates),
		history:  make([]float64, 0, nUpdates),
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "escape":
			if !m.done {
				m.aborted = true
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case ProgressMsg:
		m.rows = append(m.rows, msg)
		m.history = append(m.history, msg.Cost)
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("      " + cyan.Render(m.title) + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	progress := 0.0
	if m.nUpdates > 0 {
		progress = float64(len(m.rows)) / float64(m.nUpdates)
	}
	if progress > 1 {
		progress = 1
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	counter := fmt.Sprintf("%d/%d", len(m.rows), m.nUpdates)
	b.WriteString(fmt.Sprintf("    %s %s\n\n", bar, dim.Render(counter)))

	b.WriteString("    " + dim.Render(fmt.Sprintf("%-8s %14s %14s", "update", "cost", "exploration")) + "\n")
	start := 0
	if len(m.rows) > maxVisibleRows {
		start = len(m.rows) - maxVisibleRows
	}
	for _, row := range m.rows[start:] {
		b.WriteString("    " + white.Render(fmt.Sprintf("%-8d", row.Update)) +
			magenta.Render(fmt.Sprintf(" %14.6g", row.Cost)) +
			yellow.Render(fmt.Sprintf(" %14.6g", row.Exploration)) + "\n")
	}

	if len(m.history) > 1 {
		b.WriteString("\n    " + dim.Render("cost ") + cyan.Render(sparkline(m.history, 32)) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.done && m.err != nil:
		b.WriteString("    " + yellow.Render("failed: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString("    " + green.Render("●") + " " + green.Render("finished") + "\n")
	default:
		b.WriteString("    " + dim.Render("q abort") + "\n")
	}
	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// RunMonitor drives run in the background and displays its progress until it
// finishes or the user aborts. run receives a report callback that is safe to
// call from the optimization goroutine.
func RunMonitor(title string, nUpdates int, run func(report func(ProgressMsg)) error) error {
	p := tea.NewProgram(newModel(title, nUpdates))
	go func() {
		err := run(func(msg ProgressMsg) { p.Send(msg) })
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(model); ok {
		if m.aborted {
			return fmt.Errorf("optimization aborted")
		}
		return m.err
	}
	return nil
}
