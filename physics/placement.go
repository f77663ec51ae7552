package physics

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// goldenAngle spreads successive placements evenly around a circle.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// placer assigns starting positions to nodes that enter the graph without one.
// Positions follow a sunflower spiral around the viewport centre, perturbed by
// simplex noise so the layout does not start perfectly symmetric.
type placer struct {
	noise   opensimplex.Noise
	spacing float64
	jitter  float64
	count   int
}

func newPlacer(seed int64, spacing float64) *placer {
	if spacing <= 0 {
		spacing = 50
	}
	return &placer{
		noise:   opensimplex.New(seed),
		spacing: spacing,
		jitter:  spacing * 0.25,
	}
}

// next returns the position for the next placed node around (cx, cy).
func (p *placer) next(cx, cy float64) (float64, float64) {
	k := float64(p.count)
	p.count++

	r := p.spacing * 0.5 * math.Sqrt(k+1)
	a := k * goldenAngle
	nx := p.noise.Eval2(k*0.37, 0.5)
	ny := p.noise.Eval2(0.5, k*0.37)

	return cx + r*math.Cos(a) + nx*p.jitter, cy + r*math.Sin(a) + ny*p.jitter
}
