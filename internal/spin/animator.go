package spin

import (
	"errors"
	"time"

	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

var ErrAlreadyRunning = errors.New("animation already running")

// State is the animator lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// AnimationState is the per-spin mutable progress, advanced by Step.
type AnimationState struct {
	Plan     Plan          `json:"plan"`
	Elapsed  time.Duration `json:"elapsed"`
	Fraction float64       `json:"fraction"`
	Eased    float64       `json:"eased"`
	Angle    float64       `json:"angle"`
}

// NewAnimationState positions a fresh animation at the plan's start angle.
func NewAnimationState(plan Plan) AnimationState {
	return AnimationState{
		Plan:  plan,
		Angle: wheel.Normalize(plan.StartAngle),
	}
}

// Step advances s by delta and reports whether the animation has reached its duration. It has no
// side effects; a finished state is frozen at the plan's terminal angle.
func Step(s AnimationState, delta time.Duration) (AnimationState, bool) {
	if delta < 0 {
		delta = 0
	}
	s.Elapsed += delta

	if s.Plan.Duration <= 0 || s.Elapsed >= s.Plan.Duration {
		s.Fraction = 1
		s.Eased = 1
		s.Angle = s.Plan.TerminalAngle()
		return s, true
	}

	s.Fraction = float64(s.Elapsed) / float64(s.Plan.Duration)
	if s.Fraction > 1 {
		s.Fraction = 1
	}
	s.Eased = EaseOutCubic(s.Fraction)
	s.Angle = wheel.Normalize(s.Plan.StartAngle + s.Plan.TotalRotation*s.Eased)
	return s, false
}

// Frame is what one tick produced.
type Frame struct {
	Angle    float64       `json:"angle"`
	Elapsed  time.Duration `json:"elapsed"`
	Fraction float64       `json:"fraction"`
	Eased    float64       `json:"eased"`
	Done     bool          `json:"done"`
}

// Animator owns the single AnimationState and the Idle/Running/Stopped lifecycle.
type Animator struct {
	state    State
	anim     AnimationState
	angle    float64
	lastTick time.Time
	ticked   bool
}

// NewAnimator returns an idle animator resting at angle.
func NewAnimator(angle float64) *Animator {
	return &Animator{angle: wheel.Normalize(angle)}
}

func (a *Animator) State() State {
	return a.state
}

// Angle is the current wheel angle; it persists across spins.
func (a *Animator) Angle() float64 {
	return a.angle
}

// Snapshot returns a copy of the active (or last) animation state.
func (a *Animator) Snapshot() AnimationState {
	return a.anim
}

// Start moves Idle/Stopped to Running. A second Start while Running is rejected unchanged.
func (a *Animator) Start(plan Plan) error {
	if a.state == StateRunning {
		return ErrAlreadyRunning
	}
	a.state = StateRunning
	a.anim = NewAnimationState(plan)
	a.angle = a.anim.Angle
	a.ticked = false
	return nil
}

// Tick advances by the wall-clock time since the previous tick. The first tick after Start has zero
// delta. ok is false when nothing ran (not Running).
func (a *Animator) Tick(now time.Time) (frame Frame, ok bool) {
	if a.state != StateRunning {
		return a.frame(false), false
	}

	var delta time.Duration
	if a.ticked {
		delta = now.Sub(a.lastTick)
	}
	a.lastTick = now
	a.ticked = true

	return a.advance(delta), true
}

// TickDelta advances by an explicit delta.
func (a *Animator) TickDelta(delta time.Duration) (frame Frame, ok bool) {
	if a.state != StateRunning {
		return a.frame(false), false
	}
	return a.advance(delta), true
}

func (a *Animator) advance(delta time.Duration) Frame {
	next, done := Step(a.anim, delta)
	a.anim = next
	a.angle = next.Angle
	if done {
		a.state = StateStopped
	}
	return a.frame(done)
}

func (a *Animator) frame(done bool) Frame {
	return Frame{
		Angle:    a.angle,
		Elapsed:  a.anim.Elapsed,
		Fraction: a.anim.Fraction,
		Eased:    a.anim.Eased,
		Done:     done,
	}
}
