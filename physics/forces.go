package physics

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/TFMV/notegraph/graph"
	"github.com/TFMV/notegraph/models"
)

// minDistance floors pair distances so coincident nodes never divide by zero.
const minDistance = 1.0

// Accumulator holds one force vector per node for a single tick.
type Accumulator struct {
	FX, FY []float64
}

// Reset sizes the accumulator to n nodes and zeroes it.
func (a *Accumulator) Reset(n int) {
	if cap(a.FX) < n {
		a.FX = make([]float64, n)
		a.FY = make([]float64, n)
		return
	}
	a.FX = a.FX[:n]
	a.FY = a.FY[:n]
	clear(a.FX)
	clear(a.FY)
}

// Add accumulates (fx, fy) onto node i.
func (a *Accumulator) Add(i int, fx, fy float64) {
	a.FX[i] += fx
	a.FY[i] += fy
}

// Merge adds every entry of o into a. Both must have the same length.
func (a *Accumulator) Merge(o *Accumulator) {
	for i := range o.FX {
		a.FX[i] += o.FX[i]
		a.FY[i] += o.FY[i]
	}
}

// Magnitude returns the length of node i's force vector.
func (a *Accumulator) Magnitude(i int) float64 {
	return math.Hypot(a.FX[i], a.FY[i])
}

// ApplyAttraction adds a Hookean spring force for every resolvable link.
//
// For a link (s, t) at distance d the magnitude is (d - rest) * k: positive pulls
// the endpoints together, negative pushes them apart. The force on s is the exact
// negation of the force on t. Dangling links are skipped. The pass is O(len(links))
// given an index already built over nodes.
func ApplyAttraction(idx *graph.Index, nodes []models.Node, links []models.Link, rest, k float64, acc *Accumulator) int {
	applied := 0
	for _, link := range links {
		s, t, ok := idx.Resolve(link)
		if !ok {
			continue
		}
		spring(nodes, s, t, rest, k, acc)
		applied++
	}
	return applied
}

func spring(nodes []models.Node, s, t int, rest, k float64, acc *Accumulator) {
	dx := nodes[t].X - nodes[s].X
	dy := nodes[t].Y - nodes[s].Y
	dist := math.Max(math.Sqrt(dx*dx+dy*dy), minDistance)

	magnitude := (dist - rest) * k
	fx := dx / dist * magnitude
	fy := dy / dist * magnitude

	acc.FX[s] += fx
	acc.FY[s] += fy
	acc.FX[t] -= fx
	acc.FY[t] -= fy
}

// ApplyAttractionParallel is ApplyAttraction with the links split into contiguous
// chunks, one per worker. Each worker writes into a private accumulator; the
// private accumulators are summed into acc after all workers finish, in worker
// order, so no two goroutines ever write the same node.
func ApplyAttractionParallel(idx *graph.Index, nodes []models.Node, links []models.Link, rest, k float64, workers int, acc *Accumulator) int {
	if workers <= 1 || len(links) < 2*workers {
		return ApplyAttraction(idx, nodes, links, rest, k, acc)
	}

	n := len(nodes)
	parts := make([]Accumulator, workers)
	counts := make([]int, workers)
	chunk := (len(links) + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(links) {
			break
		}
		hi := min(lo+chunk, len(links))
		g.Go(func() error {
			parts[w].Reset(n)
			counts[w] = ApplyAttraction(idx, nodes, links[lo:hi], rest, k, &parts[w])
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	applied := 0
	for w := range parts {
		if parts[w].FX == nil {
			continue
		}
		acc.Merge(&parts[w])
		applied += counts[w]
	}
	return applied
}

// ApplyRepulsion adds an inverse-square repulsive force between every pair of
// nodes. O(n²); use ApplyRepulsionBarnesHut for large graphs.
func ApplyRepulsion(nodes []models.Node, strength float64, acc *Accumulator) {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			fx, fy := repel(nodes[i].X-nodes[j].X, nodes[i].Y-nodes[j].Y, strength, i+j)
			acc.FX[i] += fx
			acc.FY[i] += fy
			acc.FX[j] -= fx
			acc.FY[j] -= fy
		}
	}
}

// repel returns the repulsive force on a body displaced by (dx, dy) from another.
// Coincident bodies get a deterministic direction derived from salt so they separate.
func repel(dx, dy, strength float64, salt int) (float64, float64) {
	if dx == 0 && dy == 0 {
		angle := float64(salt) * goldenAngle
		dx, dy = math.Cos(angle), math.Sin(angle)
	}
	dist := math.Max(math.Sqrt(dx*dx+dy*dy), minDistance)
	f := strength / (dist * dist)
	return dx / dist * f, dy / dist * f
}

// ApplyCentering pulls every node linearly toward (cx, cy).
func ApplyCentering(nodes []models.Node, cx, cy, strength float64, acc *Accumulator) {
	for i := range nodes {
		acc.FX[i] += (cx - nodes[i].X) * strength
		acc.FY[i] += (cy - nodes[i].Y) * strength
	}
}
