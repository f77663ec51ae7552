package models

import (
	"fmt"
)

// NodeFilter is a function type used to filter nodes in queries
type NodeFilter func(node *Node) bool

// FindNodeByID returns a node by its ID.
// This is a linear scan; per-tick lookups go through graph.Index instead.
func (g *Graph) FindNodeByID(id string) (*Node, error) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("node with ID %s not found", id)
}

// Neighbors returns the IDs of all notes directly linked to nodeID
func (g *Graph) Neighbors(nodeID string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, link := range g.Links {
		if !link.Touches(nodeID) {
			continue
		}
		other := link.Other(nodeID)
		if other == nodeID || seen[other] {
			continue
		}
		seen[other] = true
		result = append(result, other)
	}
	return result
}

// DanglingLinks returns links with at least one endpoint absent from the node set
func (g *Graph) DanglingLinks() []Link {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	var result []Link
	for _, link := range g.Links {
		_, okS := ids[link.Source]
		_, okT := ids[link.Target]
		if !okS || !okT {
			result = append(result, link)
		}
	}
	return result
}

// FilterNodes returns nodes that match the provided filter function
func (g *Graph) FilterNodes(filter NodeFilter) []Node {
	var result []Node
	for i, node := range g.Nodes {
		if filter(&g.Nodes[i]) {
			result = append(result, node)
		}
	}
	return result
}
