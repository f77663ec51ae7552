// Package interact tracks which interaction source (pointer, touch, API client)
// is currently holding which node.
//
// The relation is node id -> source id. A node held by a source is pinned:
// the integrator skips it and its position comes from the source instead.
// A source holds at most one node, and a node has at most one owner; a second
// drag start on a held node transfers ownership and implicitly releases the
// previous owner.
package interact

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotDragging is returned when a source that holds no node tries to move one.
var ErrNotDragging = errors.New("source is not dragging a node")

// Point is a position set by an interaction source.
type Point struct {
	X, Y float64
}

type grip struct {
	node string
	pos  Point
}

// Controller owns the pin-owner relation.
type Controller struct {
	mu     sync.Mutex
	owners map[string]string // node id -> source id
	grips  map[string]grip   // source id -> held node
}

// NewController creates an empty controller.
func NewController() *Controller {
	return &Controller{
		owners: make(map[string]string),
		grips:  make(map[string]grip),
	}
}

// NewSource returns a fresh interaction source id.
func NewSource() string {
	return uuid.NewString()
}

// Start makes source the owner of nodeID at (x, y). It returns the source
// that previously held nodeID, if any, which is released.
func (c *Controller) Start(nodeID, source string, x, y float64) (released string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A source drags one node at a time.
	if g, ok := c.grips[source]; ok && g.node != nodeID {
		delete(c.owners, g.node)
	}

	if prev, ok := c.owners[nodeID]; ok && prev != source {
		delete(c.grips, prev)
		released = prev
	}

	c.owners[nodeID] = source
	c.grips[source] = grip{node: nodeID, pos: Point{X: x, Y: y}}
	return released
}

// Move updates the position of the node held by source.
func (c *Controller) Move(source string, x, y float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.grips[source]
	if !ok {
		return "", ErrNotDragging
	}
	g.pos = Point{X: x, Y: y}
	c.grips[source] = g
	return g.node, nil
}

// End releases whatever node source holds.
func (c *Controller) End(source string) (nodeID string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.grips[source]
	if !ok {
		return "", false
	}
	delete(c.grips, source)
	if c.owners[g.node] == source {
		delete(c.owners, g.node)
	}
	return g.node, true
}

// Forget drops any hold on nodeID, e.g. when the node leaves the graph.
func (c *Controller) Forget(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if src, ok := c.owners[nodeID]; ok {
		delete(c.grips, src)
		delete(c.owners, nodeID)
	}
}

// Owner returns the source holding nodeID.
func (c *Controller) Owner(nodeID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.owners[nodeID]
	return src, ok
}

// Held reports whether any source holds nodeID.
func (c *Controller) Held(nodeID string) bool {
	_, ok := c.Owner(nodeID)
	return ok
}

// Position returns the pointer position driving nodeID.
func (c *Controller) Position(nodeID string) (Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	src, ok := c.owners[nodeID]
	if !ok {
		return Point{}, false
	}
	return c.grips[src].pos, true
}

// Snapshot returns a copy of node id -> position for every held node.
func (c *Controller) Snapshot() map[string]Point {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Point, len(c.owners))
	for node, src := range c.owners {
		out[node] = c.grips[src].pos
	}
	return out
}

// Active returns the number of nodes currently held.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.owners)
}
