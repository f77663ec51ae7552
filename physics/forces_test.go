package physics

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/TFMV/notegraph/graph"
	"github.com/TFMV/notegraph/models"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func node(id string, x, y float64) models.Node {
	return models.Node{ID: id, X: x, Y: y}
}

func attract(nodes []models.Node, links []models.Link, rest, k float64) (*Accumulator, int) {
	acc := &Accumulator{}
	acc.Reset(len(nodes))
	n := ApplyAttraction(graph.Build(nodes), nodes, links, rest, k, acc)
	return acc, n
}

func TestAttractionConcreteScenario(t *testing.T) {
	nodes := []models.Node{node("A", 0, 0), node("B", 300, 0), node("C", 0, 300)}
	links := []models.Link{{Source: "A", Target: "B"}}

	acc, applied := attract(nodes, links, 200, 0.04)

	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}
	if !near(acc.FX[0], 4) || !near(acc.FY[0], 0) {
		t.Errorf("F(A) = (%v, %v), want (4, 0)", acc.FX[0], acc.FY[0])
	}
	if !near(acc.FX[1], -4) || !near(acc.FY[1], 0) {
		t.Errorf("F(B) = (%v, %v), want (-4, 0)", acc.FX[1], acc.FY[1])
	}
	if acc.FX[2] != 0 || acc.FY[2] != 0 {
		t.Errorf("F(C) = (%v, %v), want (0, 0)", acc.FX[2], acc.FY[2])
	}
	if !near(acc.Magnitude(0), 4) {
		t.Errorf("|F(A)| = %v, want 4", acc.Magnitude(0))
	}
}

func TestAttractionSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		nodes := []models.Node{
			node("s", rng.Float64()*1000-500, rng.Float64()*1000-500),
			node("t", rng.Float64()*1000-500, rng.Float64()*1000-500),
		}
		acc, _ := attract(nodes, []models.Link{{Source: "s", Target: "t"}}, rng.Float64()*300, rng.Float64())

		if acc.FX[0] != -acc.FX[1] || acc.FY[0] != -acc.FY[1] {
			t.Fatalf("case %d: F(s) = (%v, %v), F(t) = (%v, %v), want exact negation",
				i, acc.FX[0], acc.FY[0], acc.FX[1], acc.FY[1])
		}
	}
}

func TestAttractionRestLengthEquilibrium(t *testing.T) {
	tests := []struct {
		name string
		b    models.Node
	}{
		{"horizontal", node("b", 200, 0)},
		{"diagonal", node("b", 120, 160)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := []models.Node{node("a", 0, 0), tt.b}
			acc, _ := attract(nodes, []models.Link{{Source: "a", Target: "b"}}, 200, 0.04)
			for i := range nodes {
				if acc.FX[i] != 0 || acc.FY[i] != 0 {
					t.Errorf("F(%s) = (%v, %v), want zero", nodes[i].ID, acc.FX[i], acc.FY[i])
				}
			}
		})
	}
}

func TestAttractionCompressedSpringPushes(t *testing.T) {
	nodes := []models.Node{node("a", 0, 0), node("b", 100, 0)}
	acc, _ := attract(nodes, []models.Link{{Source: "a", Target: "b"}}, 200, 0.04)

	// (100-200)*0.04 = -4: a is pushed away from b.
	if !near(acc.FX[0], -4) || !near(acc.FX[1], 4) {
		t.Errorf("F = (%v, %v), want (-4, 4)", acc.FX[0], acc.FX[1])
	}
}

func TestAttractionDanglingLinks(t *testing.T) {
	nodes := []models.Node{node("a", 0, 0), node("b", 300, 0)}
	valid := []models.Link{{Source: "a", Target: "b"}}
	withDangling := append([]models.Link{
		{Source: "a", Target: "ghost"},
		{Source: "ghost", Target: "b"},
		{Source: "x", Target: "y"},
	}, valid...)

	want, _ := attract(nodes, valid, 200, 0.04)
	got, applied := attract(nodes, withDangling, 200, 0.04)

	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	for i := range nodes {
		if got.FX[i] != want.FX[i] || got.FY[i] != want.FY[i] {
			t.Errorf("F(%s) = (%v, %v), want (%v, %v)", nodes[i].ID, got.FX[i], got.FY[i], want.FX[i], want.FY[i])
		}
	}

	only, applied := attract(nodes, withDangling[:3], 200, 0.04)
	if applied != 0 {
		t.Errorf("applied = %d, want 0", applied)
	}
	for i := range nodes {
		if only.FX[i] != 0 || only.FY[i] != 0 {
			t.Errorf("dangling-only F(%s) = (%v, %v), want zero", nodes[i].ID, only.FX[i], only.FY[i])
		}
	}
}

func TestCoincidentNodesStayFinite(t *testing.T) {
	nodes := []models.Node{node("a", 50, 50), node("b", 50, 50)}
	acc, _ := attract(nodes, []models.Link{{Source: "a", Target: "b"}}, 200, 0.04)
	ApplyRepulsion(nodes, 1000, acc)

	for i := range nodes {
		if math.IsNaN(acc.FX[i]) || math.IsInf(acc.FX[i], 0) || math.IsNaN(acc.FY[i]) || math.IsInf(acc.FY[i], 0) {
			t.Fatalf("F(%s) = (%v, %v), want finite", nodes[i].ID, acc.FX[i], acc.FY[i])
		}
	}
	if acc.Magnitude(0) == 0 {
		t.Error("coincident nodes received no separating force")
	}
}

func TestRepulsionPushesApart(t *testing.T) {
	nodes := []models.Node{node("a", 0, 0), node("b", 10, 0)}
	acc := &Accumulator{}
	acc.Reset(2)
	ApplyRepulsion(nodes, 100, acc)

	// 100 / 10² = 1, a pushed toward -x.
	if !near(acc.FX[0], -1) || !near(acc.FX[1], 1) {
		t.Errorf("F = (%v, %v), want (-1, 1)", acc.FX[0], acc.FX[1])
	}
}

func TestCentering(t *testing.T) {
	nodes := []models.Node{node("a", 0, 0), node("b", 400, 300)}
	acc := &Accumulator{}
	acc.Reset(2)
	ApplyCentering(nodes, 400, 300, 0.5, acc)

	if !near(acc.FX[0], 200) || !near(acc.FY[0], 150) {
		t.Errorf("F(a) = (%v, %v), want (200, 150)", acc.FX[0], acc.FY[0])
	}
	if acc.FX[1] != 0 || acc.FY[1] != 0 {
		t.Errorf("F(b) = (%v, %v), want zero at centre", acc.FX[1], acc.FY[1])
	}
}

func randomGraph(rng *rand.Rand, nodeCount, linkCount int) ([]models.Node, []models.Link) {
	nodes := make([]models.Node, nodeCount)
	for i := range nodes {
		nodes[i] = node(fmt.Sprintf("n%d", i), rng.Float64()*1000, rng.Float64()*1000)
	}
	links := make([]models.Link, linkCount)
	for i := range links {
		links[i] = models.Link{
			Source: nodes[rng.Intn(nodeCount)].ID,
			Target: nodes[rng.Intn(nodeCount)].ID,
		}
	}
	return nodes, links
}

func TestAttractionParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	nodes, links := randomGraph(rng, 300, 2000)
	links = append(links, models.Link{Source: "n1", Target: "missing"})
	idx := graph.Build(nodes)

	serial := &Accumulator{}
	serial.Reset(len(nodes))
	wantN := ApplyAttraction(idx, nodes, links, 100, 0.05, serial)

	for _, workers := range []int{2, 3, 8} {
		par := &Accumulator{}
		par.Reset(len(nodes))
		gotN := ApplyAttractionParallel(idx, nodes, links, 100, 0.05, workers, par)

		if gotN != wantN {
			t.Errorf("workers=%d: applied = %d, want %d", workers, gotN, wantN)
		}
		for i := range nodes {
			if math.Abs(par.FX[i]-serial.FX[i]) > 1e-6 || math.Abs(par.FY[i]-serial.FY[i]) > 1e-6 {
				t.Fatalf("workers=%d: F(%d) = (%v, %v), want (%v, %v)",
					workers, i, par.FX[i], par.FY[i], serial.FX[i], serial.FY[i])
			}
		}
	}
}

func TestAccumulatorResetZeroes(t *testing.T) {
	acc := &Accumulator{}
	acc.Reset(3)
	acc.Add(1, 5, 6)
	acc.Reset(2)

	if len(acc.FX) != 2 {
		t.Fatalf("len = %d, want 2", len(acc.FX))
	}
	if acc.FX[1] != 0 || acc.FY[1] != 0 {
		t.Errorf("entry 1 = (%v, %v) after Reset, want zero", acc.FX[1], acc.FY[1])
	}
}

// bestOf returns the fastest of several timed runs of reps calls to fn.
func bestOf(fn func(), reps int) time.Duration {
	best := time.Duration(math.MaxInt64)
	for r := 0; r < 5; r++ {
		start := time.Now()
		for i := 0; i < reps; i++ {
			fn()
		}
		if d := time.Since(start); d < best {
			best = d
		}
	}
	return best
}

func attractionPass(nodeCount, linkCount int) func() {
	rng := rand.New(rand.NewSource(int64(nodeCount*31 + linkCount)))
	nodes, links := randomGraph(rng, nodeCount, linkCount)
	idx := graph.Build(nodes)
	acc := &Accumulator{}
	return func() {
		idx.Rebuild(nodes)
		acc.Reset(len(nodes))
		ApplyAttraction(idx, nodes, links, 100, 0.04, acc)
	}
}

func TestAttractionScalesLinearlyInLinks(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	small := bestOf(attractionPass(1000, 500), 50)
	large := bestOf(attractionPass(1000, 5000), 50)

	// 10x the links: linear growth is ~10x (less, since the index build is shared);
	// anything near 100x means the pass is superlinear.
	ratio := float64(large) / float64(small)
	t.Logf("500 links: %v, 5000 links: %v, ratio %.1f", small, large, ratio)
	if ratio > 30 {
		t.Errorf("tick time grew %.1fx for 10x links, want near-linear", ratio)
	}
}

func TestLinkPassIndependentOfNodeCount(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	linkOnly := func(nodeCount int) func() {
		rng := rand.New(rand.NewSource(int64(nodeCount)))
		nodes, _ := randomGraph(rng, nodeCount, 0)
		// Same links in both runs: endpoints drawn from the first 1000 nodes.
		links := make([]models.Link, 5000)
		for i := range links {
			links[i] = models.Link{Source: nodes[rng.Intn(1000)].ID, Target: nodes[rng.Intn(1000)].ID}
		}
		idx := graph.Build(nodes)
		acc := &Accumulator{}
		acc.Reset(len(nodes))
		return func() { ApplyAttraction(idx, nodes, links, 100, 0.04, acc) }
	}

	small := bestOf(linkOnly(1000), 50)
	large := bestOf(linkOnly(100000), 50)

	// A per-link scan of the node sequence would make this ~100x.
	ratio := float64(large) / float64(small)
	t.Logf("1k nodes: %v, 100k nodes: %v, ratio %.1f", small, large, ratio)
	if ratio > 15 {
		t.Errorf("link pass grew %.1fx for 100x nodes at constant links, want roughly constant", ratio)
	}
}

func BenchmarkAttraction(b *testing.B) {
	for _, links := range []int{500, 5000, 50000} {
		b.Run(fmt.Sprintf("nodes=1000/links=%d", links), func(b *testing.B) {
			pass := attractionPass(1000, links)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				pass()
			}
		})
	}
}

func BenchmarkAttractionParallel(b *testing.B) {
	rng := rand.New(rand.NewSource(5))
	nodes, links := randomGraph(rng, 1000, 50000)
	idx := graph.Build(nodes)
	acc := &Accumulator{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		acc.Reset(len(nodes))
		ApplyAttractionParallel(idx, nodes, links, 100, 0.04, 4, acc)
	}
}
