package physics

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Loop drives a Simulation from an external frame signal.
//
// Exactly one tick runs per received frame. While the simulation is settled the
// loop stops consuming frames and waits for a wake-up instead. Cancelling the
// context never interrupts a tick that has already started.
type Loop struct {
	sim    *Simulation
	logger *log.Logger

	mu   sync.RWMutex
	last Frame
}

// NewLoop creates a loop for sim. A nil logger discards output.
func NewLoop(sim *Simulation, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{sim: sim, logger: logger, last: sim.Frame()}
}

// Last returns the most recently published frame.
func (l *Loop) Last() Frame {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Run ticks once per value received on frames and hands each frame to publish.
// It returns ctx.Err() on cancellation or nil when frames is closed.
func (l *Loop) Run(ctx context.Context, frames <-chan time.Time, publish func(Frame)) error {
	for {
		if l.sim.Settled() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.sim.Woken():
				l.logger.Debug("resuming simulation")
				continue
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-frames:
			if !ok {
				return nil
			}
			l.step(publish)
		}
	}
}

func (l *Loop) step(publish func(Frame)) Frame {
	f := l.sim.Tick()

	l.mu.Lock()
	l.last = f
	l.mu.Unlock()

	if f.Settled {
		l.logger.Debug("simulation settled", "tick", f.Tick, "energy", f.Energy)
	}
	if publish != nil {
		publish(f)
	}
	return f
}

// RunUntilSettled ticks back to back until the simulation settles, maxTicks
// ticks have run, or ctx is cancelled. It returns the last frame.
func (l *Loop) RunUntilSettled(ctx context.Context, maxTicks int) (Frame, error) {
	f := l.Last()
	for i := 0; i < maxTicks; i++ {
		if err := ctx.Err(); err != nil {
			return f, err
		}
		f = l.step(nil)
		if f.Settled {
			return f, nil
		}
	}
	l.logger.Warn("simulation did not settle", "ticks", maxTicks, "energy", f.Energy)
	return f, nil
}

// Ticker returns a frame channel firing fps times per second and a stop func.
func Ticker(fps int) (<-chan time.Time, func()) {
	if fps <= 0 {
		fps = 60
	}
	t := time.NewTicker(time.Second / time.Duration(fps))
	return t.C, t.Stop
}
