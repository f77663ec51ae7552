// Package physics implements the force-directed layout engine for note graphs.
//
// One tick rebuilds the id index, accumulates link springs (O(links) via the
// index), repulsion and centering, then integrates free nodes with damping.
// Nodes that are permanently pinned or held by an interaction source are skipped
// by the integrator.
package physics

import (
	"github.com/TFMV/notegraph/models"
)

// LayoutAlgorithm defines an interface for batch layout algorithms
type LayoutAlgorithm interface {
	Initialize(graph *models.Graph)
	Step() bool // Returns true if stable, false if needs more steps
	Apply(graph *models.Graph)
	GetName() string
}

// ForceDirectedLayout runs a Simulation to rest for one-shot rendering
type ForceDirectedLayout struct {
	sim      *Simulation
	maxTicks int
	ticks    int
}

// NewForceDirectedLayout creates a batch layout bounded by maxTicks
func NewForceDirectedLayout(params Params, maxTicks int) *ForceDirectedLayout {
	if maxTicks <= 0 {
		maxTicks = 1000
	}
	return &ForceDirectedLayout{
		sim:      NewSimulation(params, nil),
		maxTicks: maxTicks,
	}
}

// GetName returns the name of the layout algorithm
func (fd *ForceDirectedLayout) GetName() string {
	return "Force-Directed Layout"
}

// Initialize loads the graph into the simulation
func (fd *ForceDirectedLayout) Initialize(graph *models.Graph) {
	fd.sim.Load(graph)
	fd.ticks = 0
}

// Step performs one tick and reports whether the layout is done
func (fd *ForceDirectedLayout) Step() bool {
	if fd.ticks >= fd.maxTicks {
		return true
	}
	fd.ticks++
	return fd.sim.Tick().Settled
}

// Apply copies simulated positions back onto the graph's nodes
func (fd *ForceDirectedLayout) Apply(graph *models.Graph) {
	frame := fd.sim.Frame()
	pos := make(map[string]Position, len(frame.Positions))
	for _, p := range frame.Positions {
		pos[p.ID] = p
	}
	for i := range graph.Nodes {
		if p, ok := pos[graph.Nodes[i].ID]; ok {
			graph.Nodes[i].SetPosition(p.X, p.Y)
		}
	}
}

// Ticks returns how many steps have run since Initialize
func (fd *ForceDirectedLayout) Ticks() int {
	return fd.ticks
}
