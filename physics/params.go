package physics

import "fmt"

// Repulsion modes.
const (
	RepulsionNone      = "none"
	RepulsionPairs     = "pairs"
	RepulsionBarnesHut = "barneshut"
)

// Params holds the tunable coefficients of the simulation.
// Only the link attraction is a correctness contract; everything else is tuning.
type Params struct {
	RestLength float64 `toml:"rest_length"` // Target separation of linked notes
	Attraction float64 `toml:"attraction"`  // Spring coefficient

	Repulsion     float64 `toml:"repulsion"`      // Inverse-square strength
	RepulsionMode string  `toml:"repulsion_mode"` // none, pairs, barneshut
	Theta         float64 `toml:"theta"`          // Barnes-Hut opening angle
	Centering     float64 `toml:"centering"`      // Pull toward the viewport midpoint

	Damping  float64 `toml:"damping"`
	TimeStep float64 `toml:"time_step"`
	MaxSpeed float64 `toml:"max_speed"` // 0 disables the cap

	// The system is settled once the largest squared node speed stays below
	// SettleThreshold for SettleTicks consecutive ticks.
	SettleThreshold float64 `toml:"settle_threshold"`
	SettleTicks     int     `toml:"settle_ticks"`

	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	Workers int   `toml:"workers"` // >1 splits the link pass across goroutines
	Seed    int64 `toml:"seed"`    // Placement noise seed
}

// DefaultParams returns coefficients that give a readable layout for a few
// hundred notes in an 800x600 viewport.
func DefaultParams() Params {
	return Params{
		RestLength:      120,
		Attraction:      0.04,
		Repulsion:       20000,
		RepulsionMode:   RepulsionBarnesHut,
		Theta:           0.8,
		Centering:       0.01,
		Damping:         0.85,
		TimeStep:        1,
		MaxSpeed:        50,
		SettleThreshold: 0.01,
		SettleTicks:     30,
		Width:           800,
		Height:          600,
		Workers:         1,
		Seed:            1,
	}
}

// Validate reports coefficient combinations the integrator cannot work with.
func (p Params) Validate() error {
	switch p.RepulsionMode {
	case RepulsionNone, RepulsionPairs, RepulsionBarnesHut:
	default:
		return fmt.Errorf("unknown repulsion mode %q", p.RepulsionMode)
	}
	if p.Damping < 0 || p.Damping > 1 {
		return fmt.Errorf("damping must be in [0, 1], got %g", p.Damping)
	}
	if p.TimeStep <= 0 {
		return fmt.Errorf("time step must be positive, got %g", p.TimeStep)
	}
	if p.RestLength < 0 {
		return fmt.Errorf("rest length must be non-negative, got %g", p.RestLength)
	}
	if p.SettleTicks < 1 {
		return fmt.Errorf("settle ticks must be at least 1, got %d", p.SettleTicks)
	}
	if p.RepulsionMode == RepulsionBarnesHut && (p.Theta <= 0 || p.Theta > 2) {
		return fmt.Errorf("theta must be in (0, 2], got %g", p.Theta)
	}
	return nil
}

func (p Params) center() (float64, float64) {
	return p.Width / 2, p.Height / 2
}
