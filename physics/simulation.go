package physics

import (
	"errors"
	"sync"

	"github.com/TFMV/notegraph/graph"
	"github.com/TFMV/notegraph/interact"
	"github.com/TFMV/notegraph/models"
)

// ErrUnknownNode is returned when an interaction names a node not in the graph.
var ErrUnknownNode = errors.New("unknown node")

// Position is a node's on-screen coordinate in a frame.
type Position struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Frame is the render-ready result of one tick.
type Frame struct {
	Tick      int        `json:"tick"`
	Positions []Position `json:"positions"`
	Energy    float64    `json:"energy"`
	Settled   bool       `json:"settled"`
}

// Simulation owns the node/link snapshot, velocities and per-tick scratch state.
//
// Each Tick is atomic: it rebuilds the index, accumulates forces, applies held
// drag positions and integrates, all under one lock. Drag calls and readers never
// observe a half-finished tick.
type Simulation struct {
	mu     sync.Mutex
	params Params
	ctrl   *interact.Controller

	name   string
	nodes  []models.Node
	links  []models.Link
	vx, vy []float64

	idx    graph.Index
	acc    Accumulator
	place  *placer
	settle settleDetector

	tick    int
	energy  float64
	applied int
	settled bool
	wake    chan struct{}
}

// NewSimulation creates an empty simulation. A nil controller gets a private one.
func NewSimulation(params Params, ctrl *interact.Controller) *Simulation {
	if ctrl == nil {
		ctrl = interact.NewController()
	}
	return &Simulation{
		params: params,
		ctrl:   ctrl,
		place:  newPlacer(params.Seed, params.RestLength),
		settle: settleDetector{threshold: params.SettleThreshold, need: params.SettleTicks},
		wake:   make(chan struct{}, 1),
	}
}

// Params returns the simulation coefficients.
func (s *Simulation) Params() Params {
	return s.params
}

// Controller returns the interaction controller consulted by the integrator.
func (s *Simulation) Controller() *interact.Controller {
	return s.ctrl
}

// Load replaces the node/link snapshot. Nodes whose id survives from the previous
// snapshot keep their position and velocity; new nodes keep a non-zero position
// from g or are placed around the viewport centre. Drags on removed nodes are
// dropped. Any load wakes a settled simulation.
func (s *Simulation) Load(g *models.Graph) {
	s.load(g, true)
}

// LoadFixed is Load without placement: new nodes start exactly where g puts
// them, the origin included.
func (s *Simulation) LoadFixed(g *models.Graph) {
	s.load(g, false)
}

func (s *Simulation) load(g *models.Graph, place bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type state struct {
		x, y, vx, vy float64
	}
	prev := make(map[string]state, len(s.nodes))
	for i := range s.nodes {
		prev[s.nodes[i].ID] = state{s.nodes[i].X, s.nodes[i].Y, s.vx[i], s.vy[i]}
	}

	s.name = g.Name
	s.nodes = append(s.nodes[:0], g.Nodes...)
	s.links = append(s.links[:0], g.Links...)
	s.vx = resize(s.vx, len(s.nodes))
	s.vy = resize(s.vy, len(s.nodes))

	cx, cy := s.params.center()
	present := make(map[string]struct{}, len(s.nodes))
	for i := range s.nodes {
		n := &s.nodes[i]
		present[n.ID] = struct{}{}
		if st, ok := prev[n.ID]; ok {
			n.X, n.Y = st.x, st.y
			s.vx[i], s.vy[i] = st.vx, st.vy
			continue
		}
		if place && n.X == 0 && n.Y == 0 {
			n.X, n.Y = s.place.next(cx, cy)
		}
	}
	for id := range prev {
		if _, ok := present[id]; !ok {
			s.ctrl.Forget(id)
		}
	}

	s.idx.Rebuild(s.nodes)
	s.acc.Reset(len(s.nodes))
	s.wakeLocked()
}

func resize(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	v = v[:n]
	clear(v)
	return v
}

// Tick advances the simulation by one step and returns the resulting frame.
func (s *Simulation) Tick() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.params
	s.idx.Rebuild(s.nodes)
	s.acc.Reset(len(s.nodes))

	if p.Workers > 1 {
		s.applied = ApplyAttractionParallel(&s.idx, s.nodes, s.links, p.RestLength, p.Attraction, p.Workers, &s.acc)
	} else {
		s.applied = ApplyAttraction(&s.idx, s.nodes, s.links, p.RestLength, p.Attraction, &s.acc)
	}

	switch p.RepulsionMode {
	case RepulsionPairs:
		ApplyRepulsion(s.nodes, p.Repulsion, &s.acc)
	case RepulsionBarnesHut:
		ApplyRepulsionBarnesHut(s.nodes, p.Repulsion, p.Theta, &s.acc)
	}
	if p.Centering != 0 {
		cx, cy := p.center()
		ApplyCentering(s.nodes, cx, cy, p.Centering, &s.acc)
	}

	// The force pass is complete; only now may held nodes move.
	held := s.ctrl.Snapshot()
	for id, pt := range held {
		if i, ok := s.idx.Lookup(id); ok {
			s.nodes[i].X, s.nodes[i].Y = pt.X, pt.Y
		}
	}

	energy, peak := integrate(s.nodes, s.vx, s.vy, &s.acc, held, p)
	s.tick++
	s.energy = energy
	if s.settle.observe(peak) && len(held) == 0 {
		s.settled = true
	}
	return s.frameLocked()
}

func (s *Simulation) frameLocked() Frame {
	f := Frame{
		Tick:      s.tick,
		Positions: make([]Position, len(s.nodes)),
		Energy:    s.energy,
		Settled:   s.settled,
	}
	for i := range s.nodes {
		f.Positions[i] = Position{ID: s.nodes[i].ID, X: s.nodes[i].X, Y: s.nodes[i].Y}
	}
	return f
}

// Frame returns the current positions without advancing the simulation.
func (s *Simulation) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// Settled reports whether the simulation has come to rest.
func (s *Simulation) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

// Woken receives a value whenever a structural change or interaction clears
// the settled state.
func (s *Simulation) Woken() <-chan struct{} {
	return s.wake
}

// Wake clears the settled state so the scheduler resumes ticking.
func (s *Simulation) Wake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wakeLocked()
}

func (s *Simulation) wakeLocked() {
	s.settled = false
	s.settle.reset()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// DragStart gives source hold of nodeID at (x, y).
func (s *Simulation) DragStart(nodeID, source string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.idx.Lookup(nodeID)
	if !ok {
		return ErrUnknownNode
	}
	s.ctrl.Start(nodeID, source, x, y)
	s.nodes[i].X, s.nodes[i].Y = x, y
	s.vx[i], s.vy[i] = 0, 0
	s.wakeLocked()
	return nil
}

// DragMove moves the node held by source; the position takes effect at the next tick.
func (s *Simulation) DragMove(source string, x, y float64) error {
	if _, err := s.ctrl.Move(source, x, y); err != nil {
		return err
	}
	s.Wake()
	return nil
}

// DragEnd releases the node held by source. The node restarts from rest.
func (s *Simulation) DragEnd(source string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodeID, ok := s.ctrl.End(source)
	if !ok {
		return "", false
	}
	if i, found := s.idx.Lookup(nodeID); found {
		s.vx[i], s.vy[i] = 0, 0
	}
	s.wakeLocked()
	return nodeID, true
}

// Forces returns a copy of the forces accumulated by the last tick.
func (s *Simulation) Forces() (fx, fy []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.acc.FX...), append([]float64(nil), s.acc.FY...)
}

// Force returns the last tick's accumulated force on nodeID.
func (s *Simulation) Force(nodeID string) (fx, fy float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.idx.Lookup(nodeID)
	if !ok || i >= len(s.acc.FX) {
		return 0, 0, false
	}
	return s.acc.FX[i], s.acc.FY[i], true
}

// Velocity returns nodeID's current velocity.
func (s *Simulation) Velocity(nodeID string) (vx, vy float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.idx.Lookup(nodeID)
	if !ok {
		return 0, 0, false
	}
	return s.vx[i], s.vy[i], true
}

// Node returns a copy of nodeID's current state.
func (s *Simulation) Node(nodeID string) (models.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.idx.Lookup(nodeID)
	if !ok {
		return models.Node{}, false
	}
	return s.nodes[i], true
}

// Stats describes the last tick.
type Stats struct {
	Tick         int     `json:"tick"`
	Nodes        int     `json:"nodes"`
	Links        int     `json:"links"`
	AppliedLinks int     `json:"applied_links"`
	Dragging     int     `json:"dragging"`
	Energy       float64 `json:"energy"`
	Settled      bool    `json:"settled"`
}

// Stats returns counters for the last tick.
func (s *Simulation) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Tick:         s.tick,
		Nodes:        len(s.nodes),
		Links:        len(s.links),
		AppliedLinks: s.applied,
		Dragging:     s.ctrl.Active(),
		Energy:       s.energy,
		Settled:      s.settled,
	}
}

// Snapshot returns the current graph with positions from the latest tick.
func (s *Simulation) Snapshot() *models.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := models.NewGraph(s.name)
	g.SetDimensions(s.params.Width, s.params.Height)
	g.Nodes = append(g.Nodes, s.nodes...)
	g.Links = append(g.Links, s.links...)
	return g
}
