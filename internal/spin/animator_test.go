package spin

import (
	"errors"
	"math"
	"testing"
	"time"
)

func testPlan() Plan {
	return Plan{StartAngle: 0.4, TotalRotation: 4.5 * math.Pi, Duration: 6 * time.Second}
}

func runToCompletion(t *testing.T, plan Plan, tick time.Duration) (Frame, int) {
	t.Helper()

	a := NewAnimator(plan.StartAngle)
	if err := a.Start(plan); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var (
		last  Frame
		ticks int
	)
	for a.State() == StateRunning {
		frame, ok := a.TickDelta(tick)
		if !ok {
			t.Fatalf("tick did not run while running")
		}
		last = frame
		ticks++
		if ticks > 1_000_000 {
			t.Fatalf("animation never finished")
		}
	}
	return last, ticks
}

func TestEaseOutCubic(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{0.5, 0.875},
		{-1, 0},
		{2, 1},
	}
	for _, tt := range tests {
		if got := EaseOutCubic(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("EaseOutCubic(%v): got=%v want=%v", tt.in, got, tt.want)
		}
	}
}

func TestStep_TerminalIsTickRateIndependent(t *testing.T) {
	plan := testPlan()

	fine, fineTicks := runToCompletion(t, plan, time.Millisecond)
	coarse, coarseTicks := runToCompletion(t, plan, 10*time.Second)
	irregular, _ := runToCompletion(t, plan, 1700*time.Millisecond)

	if coarseTicks != 1 {
		t.Fatalf("unexpected coarse tick count: got=%d want=1", coarseTicks)
	}
	if fineTicks != 6000 {
		t.Fatalf("unexpected fine tick count: got=%d want=6000", fineTicks)
	}

	for _, f := range []Frame{fine, coarse, irregular} {
		if !f.Done {
			t.Fatalf("final frame should be done: %+v", f)
		}
		if f.Fraction != 1 || f.Eased != 1 {
			t.Fatalf("final frame must have fraction=eased=1: %+v", f)
		}
		if f.Angle != plan.TerminalAngle() {
			t.Fatalf("terminal angle mismatch: got=%v want=%v", f.Angle, plan.TerminalAngle())
		}
	}
}

func TestStep_Monotonic(t *testing.T) {
	plan := Plan{StartAngle: 0, TotalRotation: 1, Duration: time.Second}
	state := NewAnimationState(plan)

	prev := 0.0
	for i := 0; i < 10; i++ {
		var done bool
		state, done = Step(state, 100*time.Millisecond)
		if state.Eased < prev {
			t.Fatalf("eased went backwards at tick %d: %v < %v", i, state.Eased, prev)
		}
		prev = state.Eased
		if done != (i == 9) {
			t.Fatalf("unexpected done=%v at tick %d", done, i)
		}
	}
}

func TestStep_NegativeDeltaIgnored(t *testing.T) {
	state := NewAnimationState(testPlan())
	next, done := Step(state, -time.Second)
	if done || next.Elapsed != 0 {
		t.Fatalf("negative delta must not advance: %+v done=%v", next, done)
	}
}

func TestAnimator_Lifecycle(t *testing.T) {
	a := NewAnimator(0)
	if a.State() != StateIdle {
		t.Fatalf("unexpected initial state: %v", a.State())
	}
	if _, ok := a.TickDelta(time.Second); ok {
		t.Fatalf("idle animator must not tick")
	}

	plan := Plan{StartAngle: 0, TotalRotation: 2 * math.Pi, Duration: time.Second}
	if err := a.Start(plan); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := a.Start(plan); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start must be rejected, got %v", err)
	}

	a.TickDelta(2 * time.Second)
	if a.State() != StateStopped {
		t.Fatalf("expected stopped, got %v", a.State())
	}
	if _, ok := a.TickDelta(time.Second); ok {
		t.Fatalf("stopped animator must not tick")
	}

	next := Plan{StartAngle: a.Angle(), TotalRotation: 3 * math.Pi, Duration: time.Second}
	if err := a.Start(next); err != nil {
		t.Fatalf("restart from stopped failed: %v", err)
	}
	if a.State() != StateRunning {
		t.Fatalf("expected running after restart, got %v", a.State())
	}
}

func TestAnimator_TickUsesWallClock(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	a := NewAnimator(0)
	plan := Plan{StartAngle: 0, TotalRotation: 4 * math.Pi, Duration: 5 * time.Second}
	if err := a.Start(plan); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	first, _ := a.Tick(clock.Now())
	if first.Elapsed != 0 {
		t.Fatalf("first tick must have zero delta: %v", first.Elapsed)
	}

	clock.Advance(2 * time.Second)
	second, _ := a.Tick(clock.Now())
	if second.Elapsed != 2*time.Second {
		t.Fatalf("unexpected elapsed: got=%v want=2s", second.Elapsed)
	}

	// A long stall is absorbed by a single large delta.
	clock.Advance(10 * time.Second)
	last, _ := a.Tick(clock.Now())
	if !last.Done || last.Angle != plan.TerminalAngle() {
		t.Fatalf("stall should finish the spin at the terminal angle: %+v", last)
	}
}
