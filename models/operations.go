package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewNode creates a node for a note with the given label
func NewNode(id, label string) *Node {
	return &Node{
		ID:    id,
		Label: label,
		Color: "#808080", // Default color (gray)
	}
}

// NewLink creates a link between two note IDs
func NewLink(source, target string) Link {
	return Link{Source: source, Target: target}
}

// SetPosition sets the position of a node
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
}

// DisplayLabel returns the label if set, otherwise the ID
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Other returns the endpoint of the link that is not id
func (l Link) Other(id string) string {
	if l.Source == id {
		return l.Target
	}
	return l.Source
}

// Touches reports whether the link has id as one of its endpoints
func (l Link) Touches(id string) bool {
	return l.Source == id || l.Target == id
}

// NewGraph creates a new graph with a unique ID and timestamps
func NewGraph(name string) *Graph {
	now := time.Now()
	return &Graph{
		ID:        uuid.New().String(),
		Name:      name,
		Nodes:     []Node{},
		Links:     []Link{},
		Width:     800, // Default width
		Height:    600, // Default height
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FromNotes builds a graph from note tuples and link pairs
func FromNotes(name string, notes []Note, links []Link) *Graph {
	g := NewGraph(name)
	g.Nodes = make([]Node, 0, len(notes))
	for _, n := range notes {
		node := NewNode(n.ID, n.Title)
		node.Pinned = n.Pinned
		g.Nodes = append(g.Nodes, *node)
	}
	g.Links = append(g.Links, links...)
	return g
}

// AddNode adds a node to the graph
func (g *Graph) AddNode(node *Node) {
	g.Nodes = append(g.Nodes, *node)
	g.UpdatedAt = time.Now()
}

// AddLink adds a link to the graph. Endpoints are not required to exist:
// a link naming an absent note is dangling and is skipped by the layout.
func (g *Graph) AddLink(link Link) error {
	if link.Source == "" || link.Target == "" {
		return fmt.Errorf("link endpoints must be non-empty (source=%q target=%q)", link.Source, link.Target)
	}
	g.Links = append(g.Links, link)
	g.UpdatedAt = time.Now()
	return nil
}

// RemoveNode removes a node and all links touching it
func (g *Graph) RemoveNode(nodeID string) {
	nodes := g.Nodes[:0]
	for _, node := range g.Nodes {
		if node.ID != nodeID {
			nodes = append(nodes, node)
		}
	}
	g.Nodes = nodes

	links := g.Links[:0]
	for _, link := range g.Links {
		if !link.Touches(nodeID) {
			links = append(links, link)
		}
	}
	g.Links = links

	g.UpdatedAt = time.Now()
}

// SetDimensions sets the width and height of the graph
func (g *Graph) SetDimensions(width, height float64) {
	g.Width = width
	g.Height = height
	g.UpdatedAt = time.Now()
}

// Clone returns a deep copy of the graph
func (g *Graph) Clone() *Graph {
	c := *g
	c.Nodes = append([]Node(nil), g.Nodes...)
	c.Links = append([]Link(nil), g.Links...)
	return &c
}
