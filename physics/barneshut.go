package physics

import (
	"math"

	"github.com/TFMV/notegraph/models"
)

// maxQuadDepth bounds subdivision; bodies that still share a cell at this depth
// (coincident or nearly so) stay together in one leaf and interact directly.
const maxQuadDepth = 24

// quad is a square cell of a Barnes-Hut quadtree.
type quad struct {
	x, y, size float64

	// Center of mass over all bodies in the cell, each of unit mass.
	cx, cy, mass float64

	bodies   []int // only for leaves
	children *[4]quad
	depth    int
}

func newQuadTree(nodes []models.Node) *quad {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range nodes {
		minX = math.Min(minX, nodes[i].X)
		minY = math.Min(minY, nodes[i].Y)
		maxX = math.Max(maxX, nodes[i].X)
		maxY = math.Max(maxY, nodes[i].Y)
	}
	size := math.Max(maxX-minX, maxY-minY) + 1
	root := &quad{x: minX, y: minY, size: size}
	for i := range nodes {
		root.insert(nodes, i)
	}
	return root
}

func (q *quad) insert(nodes []models.Node, i int) {
	px, py := nodes[i].X, nodes[i].Y
	q.cx = (q.cx*q.mass + px) / (q.mass + 1)
	q.cy = (q.cy*q.mass + py) / (q.mass + 1)
	q.mass++

	if q.children == nil {
		if len(q.bodies) == 0 || q.depth >= maxQuadDepth {
			q.bodies = append(q.bodies, i)
			return
		}
		q.split()
		for _, b := range q.bodies {
			q.child(nodes[b].X, nodes[b].Y).insert(nodes, b)
		}
		q.bodies = nil
	}
	q.child(px, py).insert(nodes, i)
}

func (q *quad) split() {
	half := q.size / 2
	d := q.depth + 1
	q.children = &[4]quad{
		{x: q.x, y: q.y, size: half, depth: d},
		{x: q.x + half, y: q.y, size: half, depth: d},
		{x: q.x, y: q.y + half, size: half, depth: d},
		{x: q.x + half, y: q.y + half, size: half, depth: d},
	}
}

func (q *quad) child(px, py float64) *quad {
	half := q.size / 2
	k := 0
	if px >= q.x+half {
		k |= 1
	}
	if py >= q.y+half {
		k |= 2
	}
	return &q.children[k]
}

func (q *quad) contains(px, py float64) bool {
	return px >= q.x && px < q.x+q.size && py >= q.y && py < q.y+q.size
}

// force returns the approximate repulsion on body i from everything in the cell.
func (q *quad) force(nodes []models.Node, i int, theta, strength float64) (float64, float64) {
	if q.mass == 0 {
		return 0, 0
	}
	px, py := nodes[i].X, nodes[i].Y

	if q.children == nil {
		var fx, fy float64
		for _, b := range q.bodies {
			if b == i {
				continue
			}
			bx, by := repel(px-nodes[b].X, py-nodes[b].Y, strength, i+b)
			fx += bx
			fy += by
		}
		return fx, fy
	}

	// A cell holding i is never approximated: its mass and centre would
	// include i itself.
	dx := px - q.cx
	dy := py - q.cy
	dist := math.Sqrt(dx*dx + dy*dy)
	if !q.contains(px, py) && dist > 0 && q.size/dist < theta {
		return repel(dx, dy, strength*q.mass, i)
	}

	var fx, fy float64
	for k := range q.children {
		cfx, cfy := q.children[k].force(nodes, i, theta, strength)
		fx += cfx
		fy += cfy
	}
	return fx, fy
}

// ApplyRepulsionBarnesHut approximates ApplyRepulsion in O(n log n) using a
// quadtree. Cells whose size/distance ratio is below theta act as a single body
// at their center of mass. Smaller theta is more exact.
func ApplyRepulsionBarnesHut(nodes []models.Node, strength, theta float64, acc *Accumulator) {
	if len(nodes) < 2 {
		return
	}
	root := newQuadTree(nodes)
	for i := range nodes {
		fx, fy := root.force(nodes, i, theta, strength)
		acc.FX[i] += fx
		acc.FY[i] += fy
	}
}
