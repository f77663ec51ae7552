// Package tui draws a live simulation in the terminal. The bubbletea tick is
// the frame signal: one simulation tick per frame while running and unsettled.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TFMV/notegraph/interact"
	"github.com/TFMV/notegraph/models"
	"github.com/TFMV/notegraph/physics"
	"github.com/TFMV/notegraph/render"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// nudge is how far one arrow key press moves a grabbed note, in layout units.
const nudge = 20.0

// TickMsg is the frame signal.
type TickMsg time.Time

// Model is the bubbletea model for the live view.
type Model struct {
	sim      *physics.Simulation
	original *models.Graph
	fps      int

	width, height int
	running       bool
	frame         physics.Frame

	selected int
	source   string
	grabbed  bool
}

// NewModel creates a view over sim, which must already hold g.
func NewModel(sim *physics.Simulation, g *models.Graph, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	return Model{
		sim:      sim,
		original: g.Clone(),
		fps:      fps,
		width:    80,
		height:   24,
		running:  true,
		frame:    sim.Frame(),
		source:   interact.NewSource(),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab", "n":
			m.selectNext()
		case "enter":
			m.toggleGrab()
		case "up", "k":
			m.move(0, -nudge)
		case "down", "j":
			m.move(0, nudge)
		case "left", "h":
			m.move(-nudge, 0)
		case "right", "l":
			m.move(nudge, 0)
		}
		m.frame = m.sim.Frame()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case TickMsg:
		if m.running && !m.sim.Settled() {
			m.frame = m.sim.Tick()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) reset() {
	if m.grabbed {
		m.sim.DragEnd(m.source)
		m.grabbed = false
	}
	// Dropping every node first makes Load place them all afresh.
	m.sim.LoadFixed(&models.Graph{})
	m.sim.Load(m.original.Clone())
	m.selected = 0
}

func (m *Model) selectNext() {
	if n := len(m.frame.Positions); n > 0 {
		if m.grabbed {
			m.sim.DragEnd(m.source)
			m.grabbed = false
		}
		m.selected = (m.selected + 1) % n
	}
}

func (m *Model) selectedID() (string, bool) {
	if m.selected >= len(m.frame.Positions) {
		return "", false
	}
	return m.frame.Positions[m.selected].ID, true
}

func (m *Model) toggleGrab() {
	if m.grabbed {
		m.sim.DragEnd(m.source)
		m.grabbed = false
		return
	}
	id, ok := m.selectedID()
	if !ok {
		return
	}
	n, ok := m.sim.Node(id)
	if !ok {
		return
	}
	if err := m.sim.DragStart(id, m.source, n.X, n.Y); err == nil {
		m.grabbed = true
	}
}

func (m *Model) move(dx, dy float64) {
	if !m.grabbed {
		return
	}
	id, ok := m.selectedID()
	if !ok {
		return
	}
	p, ok := m.sim.Controller().Position(id)
	if !ok {
		// Another source took the note over.
		m.grabbed = false
		return
	}
	m.sim.DragMove(m.source, p.X+dx, p.Y+dy)
}

func (m Model) status() string {
	state := "running"
	switch {
	case !m.running:
		state = "paused"
	case m.frame.Settled:
		state = "settled"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("tick "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.frame.Tick)))
	b.WriteString(labelStyle.Render("  energy "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.3f", m.frame.Energy)))
	b.WriteString("  ")
	b.WriteString(activeStyle.Render(state))

	if id, ok := m.selectedID(); ok {
		b.WriteString(labelStyle.Render("  note "))
		if m.grabbed {
			b.WriteString(activeStyle.Render(id + " (held)"))
		} else {
			b.WriteString(valueStyle.Render(id))
		}
	}
	return b.String()
}

func (m Model) View() string {
	g := m.sim.Snapshot()

	opts := render.NewDefaultOptions("ascii")
	opts.Columns = m.width
	opts.Rows = max(m.height-4, 5)
	opts.ShowLabels = m.width >= 60

	art, err := (&render.ASCIIRenderer{}).Render(g, opts)
	if err != nil {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("notegraph · " + m.original.Name))
	if pinned := g.FilterNodes(func(n *models.Node) bool { return n.Pinned }); len(pinned) > 0 {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %d pinned", len(pinned))))
	}
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.Write(art)
	b.WriteString(helpStyle.Render("space pause  tab select  ⏎ grab  ←↑↓→ move  r reset  q quit"))
	return b.String()
}

// Run shows the live view until the user quits or ctx is cancelled.
func Run(ctx context.Context, sim *physics.Simulation, g *models.Graph, fps int) error {
	p := tea.NewProgram(NewModel(sim, g, fps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
