// Package graph provides the per-tick identifier index used by the layout engine.
//
// An Index maps a node identifier to its position in the node sequence of the
// current tick. It is derived from that sequence and must be rebuilt whenever the
// sequence may have changed, including reordering. The safe default is to rebuild
// at the start of every tick.
package graph

import (
	"github.com/TFMV/notegraph/models"
)

// Index maps node IDs to positions in a node sequence.
type Index struct {
	pos map[string]int
}

// Build creates an index over nodes in O(len(nodes)).
// Duplicate IDs violate the caller contract; which position survives is undefined.
func Build(nodes []models.Node) *Index {
	idx := &Index{pos: make(map[string]int, len(nodes))}
	idx.fill(nodes)
	return idx
}

// Rebuild replaces the index contents with positions from nodes,
// reusing the existing map storage.
func (idx *Index) Rebuild(nodes []models.Node) {
	if idx.pos == nil {
		idx.pos = make(map[string]int, len(nodes))
	} else {
		clear(idx.pos)
	}
	idx.fill(nodes)
}

func (idx *Index) fill(nodes []models.Node) {
	for i := range nodes {
		idx.pos[nodes[i].ID] = i
	}
}

// Lookup returns the sequence position of id, or false if id is not indexed.
func (idx *Index) Lookup(id string) (int, bool) {
	i, ok := idx.pos[id]
	return i, ok
}

// Resolve looks up both endpoints of a link. ok is false for a dangling link.
func (idx *Index) Resolve(link models.Link) (s, t int, ok bool) {
	s, okS := idx.pos[link.Source]
	if !okS {
		return 0, 0, false
	}
	t, okT := idx.pos[link.Target]
	if !okT {
		return 0, 0, false
	}
	return s, t, true
}

// Len returns the number of indexed IDs.
func (idx *Index) Len() int {
	return len(idx.pos)
}

// Duplicates returns IDs that appear more than once in nodes.
// The index never deduplicates; this exists so callers and tests can check
// the uniqueness precondition.
func Duplicates(nodes []models.Node) []string {
	seen := make(map[string]int, len(nodes))
	var dups []string
	for _, n := range nodes {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dups = append(dups, n.ID)
		}
	}
	return dups
}
