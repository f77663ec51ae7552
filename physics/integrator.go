package physics

import (
	"math"

	"github.com/TFMV/notegraph/interact"
	"github.com/TFMV/notegraph/models"
)

// integrate advances every free node by one step of damped semi-implicit Euler.
// Permanently pinned nodes and nodes in held keep their position and have their
// velocity zeroed. It returns the kinetic energy Σ|v|² and the largest |v|².
func integrate(nodes []models.Node, vx, vy []float64, acc *Accumulator, held map[string]interact.Point, p Params) (energy, peak float64) {
	dt := p.TimeStep
	for i := range nodes {
		if nodes[i].Pinned {
			vx[i], vy[i] = 0, 0
			continue
		}
		if _, ok := held[nodes[i].ID]; ok {
			vx[i], vy[i] = 0, 0
			continue
		}

		v0, v1 := (vx[i]+acc.FX[i]*dt)*p.Damping, (vy[i]+acc.FY[i]*dt)*p.Damping
		if p.MaxSpeed > 0 {
			if speed := math.Hypot(v0, v1); speed > p.MaxSpeed {
				scale := p.MaxSpeed / speed
				v0 *= scale
				v1 *= scale
			}
		}
		vx[i], vy[i] = v0, v1

		nodes[i].X += v0 * dt
		nodes[i].Y += v1 * dt

		sq := v0*v0 + v1*v1
		energy += sq
		peak = math.Max(peak, sq)
	}
	return energy, peak
}

// settleDetector declares the system settled after a run of calm ticks.
type settleDetector struct {
	threshold float64
	need      int
	calm      int
}

// observe records one tick's peak squared speed and reports whether the
// required run of calm ticks has been reached.
func (d *settleDetector) observe(peak float64) bool {
	if peak < d.threshold {
		d.calm++
	} else {
		d.calm = 0
	}
	return d.calm >= d.need
}

func (d *settleDetector) reset() {
	d.calm = 0
}
