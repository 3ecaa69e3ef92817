// Package tui renders a live simulation in the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/compresr/truncation-engine/internal/simulation"
)

// ControllerPort is the TUI-facing subset of the simulation controller.
type ControllerPort interface {
	Start(method simulation.Method) error
	Stop()
	State() simulation.State
}

// frameMsg carries one published simulation state into the update loop.
type frameMsg simulation.State

// Model is the Bubble Tea model for the simulation viewer.
type Model struct {
	ctrl   ControllerPort
	frames <-chan simulation.State

	method   simulation.Method
	viewport viewport.Model
	state    simulation.State
	status   string
	ready    bool
}

// New creates a viewer over an idle controller. frames receives every
// published state; the viewer starts the simulation on Init.
func New(ctrl ControllerPort, frames <-chan simulation.State, method simulation.Method) Model {
	vp := viewport.New(0, 0)
	return Model{
		ctrl:     ctrl,
		frames:   frames,
		method:   method,
		viewport: vp,
		state:    ctrl.State(),
		status:   "q quit · s stop · r restart · m switch method",
	}
}

// Init starts the simulation and begins listening for frames.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.listen())
}

// Update handles key, window, and frame events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := frameStyle.GetFrameSize()
		reserved := 3 + fh // header + progress + status
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = vh
		m.viewport.SetContent(m.state.CurrentText)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctrl.Stop()
			return m, tea.Quit
		case "s":
			m.ctrl.Stop()
			return m, nil
		case "r":
			m.ctrl.Stop()
			return m, m.start()
		case "m":
			if m.method == simulation.MethodHierarchicalWindow {
				m.method = simulation.MethodSemanticChunk
			} else {
				m.method = simulation.MethodHierarchicalWindow
			}
			m.ctrl.Stop()
			return m, m.start()
		}

	case frameMsg:
		m.state = simulation.State(msg)
		m.viewport.SetContent(m.state.CurrentText)
		return m, m.listen()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the header, progress line, snapshot, and key help.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Truncation Simulation — " + methodLabel(m.method))
	progress := progressLine(m.state)
	body := frameStyle.Render(m.viewport.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + progress + "\n" + body + "\n" + status
}

func (m Model) start() tea.Cmd {
	method := m.method
	ctrl := m.ctrl
	return func() tea.Msg {
		_ = ctrl.Start(method)
		return nil
	}
}

func (m Model) listen() tea.Cmd {
	frames := m.frames
	return func() tea.Msg {
		return frameMsg(<-frames)
	}
}

func progressLine(st simulation.State) string {
	if st.MaxSteps == 0 {
		return phaseStyle.Render(string(st.Phase))
	}
	filled := 0
	if st.MaxSteps > 0 {
		filled = st.Step * barWidth / st.MaxSteps
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s  step %d/%d  %s", bar, st.Step, st.MaxSteps, phaseStyle.Render(string(st.Phase)))
}

func methodLabel(m simulation.Method) string {
	if m == simulation.MethodSemanticChunk {
		return "semantic chunking"
	}
	return "hierarchical window"
}

const barWidth = 30

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	phaseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
