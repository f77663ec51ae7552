package physics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TFMV/notegraph/models"
)

func TestLoopTicksOncePerFrame(t *testing.T) {
	sim := NewSimulation(springOnly(50, 0.1), nil)
	sim.LoadFixed(scenarioGraph())
	loop := NewLoop(sim, nil)

	frames := make(chan time.Time)
	var published []Frame
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(context.Background(), frames, func(f Frame) { published = append(published, f) })
	}()

	for i := 0; i < 5; i++ {
		frames <- time.Now()
	}
	close(frames)

	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(published) != 5 {
		t.Fatalf("published %d frames, want 5", len(published))
	}
	for i, f := range published {
		if f.Tick != i+1 {
			t.Errorf("frame %d tick = %d, want %d", i, f.Tick, i+1)
		}
	}
	if got := loop.Last().Tick; got != 5 {
		t.Errorf("Last().Tick = %d, want 5", got)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	sim := NewSimulation(springOnly(50, 0.1), nil)
	sim.LoadFixed(scenarioGraph())
	loop := NewLoop(sim, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx, make(chan time.Time), nil)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoopWaitsWhileSettled(t *testing.T) {
	sim := NewSimulation(springOnly(200, 0.04), nil)
	g := models.NewGraph("rest")
	g.Nodes = []models.Node{node("a", 100, 100), node("b", 300, 100)}
	g.Links = []models.Link{{Source: "a", Target: "b"}}
	sim.LoadFixed(g)
	loop := NewLoop(sim, nil)

	if f, err := loop.RunUntilSettled(context.Background(), 10); err != nil || !f.Settled {
		t.Fatalf("RunUntilSettled = (%+v, %v), want settled", f, err)
	}
	settledAt := loop.Last().Tick
	// Drain the wake signal left over from Load.
	select {
	case <-sim.Woken():
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames := make(chan time.Time, 1)
	ticked := make(chan Frame, 16)
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx, frames, func(f Frame) { ticked <- f })
	}()

	// A settled loop leaves frames unconsumed.
	frames <- time.Now()
	select {
	case f := <-ticked:
		t.Fatalf("ticked while settled: %+v", f)
	case <-time.After(50 * time.Millisecond):
	}

	sim.Wake()
	select {
	case f := <-ticked:
		if f.Tick != settledAt+1 {
			t.Errorf("tick after wake = %d, want %d", f.Tick, settledAt+1)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not resume after Wake")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run err = %v, want context.Canceled", err)
	}
}

func TestRunUntilSettledBounded(t *testing.T) {
	p := springOnly(50, 0.1)
	p.SettleThreshold = 0 // never calm
	sim := NewSimulation(p, nil)
	sim.LoadFixed(scenarioGraph())
	loop := NewLoop(sim, nil)

	f, err := loop.RunUntilSettled(context.Background(), 25)
	if err != nil {
		t.Fatalf("RunUntilSettled: %v", err)
	}
	if f.Settled || f.Tick != 25 {
		t.Errorf("frame = tick %d settled %v, want tick 25 unsettled", f.Tick, f.Settled)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loop.RunUntilSettled(ctx, 25); !errors.Is(err, context.Canceled) {
		t.Errorf("RunUntilSettled(cancelled) err = %v, want context.Canceled", err)
	}
}

func TestTickerStops(t *testing.T) {
	frames, stop := Ticker(1000)
	defer stop()
	select {
	case <-frames:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}
}
