package roulette

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/broadcast"
	"github.com/ichi0g0y/fortune-wheel/internal/eligibility"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
	"github.com/ichi0g0y/fortune-wheel/internal/spin"
	"github.com/ichi0g0y/fortune-wheel/internal/types"
	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

var ErrSpinInProgress = errors.New("spin already in progress")

// Status values distinguish the three user-facing states.
const (
	StatusReady     = "ready"
	StatusSpinning  = "spinning"
	StatusDoneToday = "done_today"
)

const (
	MessageReady     = "Spin the wheel of fortune!"
	MessageSpinning  = "Round and round it goes..."
	MessageDoneToday = "You already spun today. Come back tomorrow!"
	messageWinner    = "Congratulations! You won %s!"
)

// WebSocket message types.
const (
	EventSpinStarted = "spin_started"
	EventSpinFrame   = "spin_frame"
	EventSpinResult  = "spin_result"
	EventSpinReset   = "spin_reset"
)

// FrameRenderer is called once per animation tick with the current wheel angle.
type FrameRenderer interface {
	RenderFrame(frame spin.Frame)
}

// RenderFunc adapts a function to FrameRenderer.
type RenderFunc func(frame spin.Frame)

func (f RenderFunc) RenderFrame(frame spin.Frame) { f(frame) }

// HistoryRecorder persists finished spins.
type HistoryRecorder interface {
	SaveSpin(record types.SpinRecord) error
}

// Result is a finished spin.
type Result struct {
	types.SpinRecord
	// RecordError is set when the eligibility date could not be persisted.
	RecordError string `json:"record_error,omitempty"`
}

// Message returns the announcement text for the result.
func (r Result) Message() string {
	return WinnerMessage(r.Label)
}

func WinnerMessage(label string) string {
	return fmt.Sprintf(messageWinner, label)
}

// Options wires a Session. Table and Gate are required.
type Options struct {
	Table    *wheel.Table
	Gate     *eligibility.Gate
	Planner  *spin.Planner
	Clock    spin.Clock
	Renderer FrameRenderer
	Events   broadcast.Broadcaster
	History  HistoryRecorder
	// OnResult runs after a spin finishes, outside the session lock.
	OnResult func(Result)
	NewID    func() (string, error)
}

// Session owns the single animation and sequences gate → planner → animator → resolver → gate.
type Session struct {
	mu       sync.Mutex
	table    *wheel.Table
	gate     *eligibility.Gate
	planner  *spin.Planner
	clock    spin.Clock
	animator *spin.Animator
	resolver *wheel.Resolver
	renderer FrameRenderer
	events   broadcast.Broadcaster
	history  HistoryRecorder
	onResult func(Result)
	newID    func() (string, error)

	last *Result
	wake chan struct{}
}

func NewSession(opts Options) (*Session, error) {
	if opts.Table == nil {
		return nil, errors.New("segment table is required")
	}
	if opts.Gate == nil {
		return nil, errors.New("eligibility gate is required")
	}
	if opts.Planner == nil {
		opts.Planner = spin.NewPlanner(nil)
	}
	if opts.Clock == nil {
		opts.Clock = spin.SystemClock{}
	}
	if opts.Events == nil {
		opts.Events = broadcast.Global()
	}
	if opts.NewID == nil {
		opts.NewID = func() (string, error) { return gonanoid.New() }
	}

	return &Session{
		table:    opts.Table,
		gate:     opts.Gate,
		planner:  opts.Planner,
		clock:    opts.Clock,
		animator: spin.NewAnimator(0),
		resolver: wheel.NewResolver(opts.Table),
		renderer: opts.Renderer,
		events:   opts.Events,
		history:  opts.History,
		onResult: opts.OnResult,
		newID:    opts.NewID,
		wake:     make(chan struct{}, 1),
	}, nil
}

// Table returns the segment table.
func (s *Session) Table() *wheel.Table {
	return s.table
}

// Spin starts a new animation. While one is running it returns ErrSpinInProgress and changes
// nothing; when today's spin is used it returns eligibility.ErrAlreadySpunToday.
func (s *Session) Spin() (spin.Plan, error) {
	s.mu.Lock()

	if s.animator.State() == spin.StateRunning {
		s.mu.Unlock()
		logger.Debug("Spin request ignored, animation already running")
		return spin.Plan{}, ErrSpinInProgress
	}

	now := s.clock.Now()
	ok, err := s.gate.CheckEligible(now)
	if err != nil {
		logger.Warn("Eligibility check failed, allowing spin", zap.Error(err))
	}
	if !ok {
		s.mu.Unlock()
		logger.Info("Spin rejected, already spun today",
			zap.String("date", eligibility.DateString(now, s.gate.Location())))
		return spin.Plan{}, eligibility.ErrAlreadySpunToday
	}

	plan := s.planner.Plan(s.animator.Angle())
	if err := s.animator.Start(plan); err != nil {
		s.mu.Unlock()
		return spin.Plan{}, ErrSpinInProgress
	}

	logger.Info("Spin started",
		zap.Float64("start_angle", plan.StartAngle),
		zap.Float64("total_rotation", plan.TotalRotation),
		zap.Duration("duration", plan.Duration))

	s.events.BroadcastMessage(EventSpinStarted, types.SpinStarted{
		StartAngle:    plan.StartAngle,
		TotalRotation: plan.TotalRotation,
		DurationMS:    plan.Duration.Milliseconds(),
		StartedAt:     now,
	})

	result := s.tickLocked(now)
	s.mu.Unlock()

	s.finish(result)

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return plan, nil
}

// Tick advances a running animation using the clock. ok is false when idle or stopped.
func (s *Session) Tick() (spin.Frame, bool) {
	s.mu.Lock()
	if s.animator.State() != spin.StateRunning {
		s.mu.Unlock()
		return spin.Frame{Angle: s.animator.Angle()}, false
	}

	now := s.clock.Now()
	frame, _ := s.animator.Tick(now)
	s.render(frame)

	var result *Result
	if frame.Done {
		result = s.completeLocked(frame, now)
	}
	s.mu.Unlock()

	s.finish(result)
	return frame, true
}

// tickLocked runs the first tick of a freshly started animation.
func (s *Session) tickLocked(now time.Time) *Result {
	frame, ok := s.animator.Tick(now)
	if !ok {
		return nil
	}
	s.render(frame)
	if frame.Done {
		return s.completeLocked(frame, now)
	}
	return nil
}

func (s *Session) render(frame spin.Frame) {
	if s.renderer != nil {
		s.renderer.RenderFrame(frame)
	}
	s.events.BroadcastMessage(EventSpinFrame, types.SpinFrame{
		Angle:     frame.Angle,
		Fraction:  frame.Fraction,
		ElapsedMS: frame.Elapsed.Milliseconds(),
	})
}

func (s *Session) completeLocked(frame spin.Frame, now time.Time) *Result {
	plan := s.animator.Snapshot().Plan
	segment := s.resolver.Resolve(frame.Angle)

	id, err := s.newID()
	if err != nil {
		logger.Warn("Failed to generate spin ID", zap.Error(err))
		id = fmt.Sprintf("spin-%d", now.UnixNano())
	}

	result := Result{
		SpinRecord: types.SpinRecord{
			ID:            id,
			SegmentIndex:  segment.Index,
			Label:         segment.Label,
			Color:         segment.Color,
			TerminalAngle: frame.Angle,
			TotalRotation: plan.TotalRotation,
			DurationMS:    plan.Duration.Milliseconds(),
			SpunAt:        now,
		},
	}

	if err := s.gate.RecordSpin(now); err != nil {
		logger.Warn("Failed to record spin date", zap.Error(err))
		result.RecordError = err.Error()
	}
	if s.history != nil {
		if err := s.history.SaveSpin(result.SpinRecord); err != nil {
			logger.Warn("Failed to save spin history", zap.Error(err), zap.String("spin_id", id))
		}
	}

	s.last = &result
	logger.Info("Spin finished",
		zap.String("spin_id", id),
		zap.Int("segment_index", segment.Index),
		zap.String("label", segment.Label),
		zap.Float64("terminal_angle", frame.Angle))

	s.events.BroadcastMessage(EventSpinResult, map[string]interface{}{
		"result":  result,
		"message": result.Message(),
	})
	return &result
}

func (s *Session) finish(result *Result) {
	if result != nil && s.onResult != nil {
		s.onResult(*result)
	}
}

// Running reports whether an animation is in progress.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animator.State() == spin.StateRunning
}

// Angle is the current wheel rotation in [0, 2π).
func (s *Session) Angle() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animator.Angle()
}

// LastResult returns the most recent result in this process, if any.
func (s *Session) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Status summarizes the session for the control surface.
func (s *Session) Status() types.WheelStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	status := types.WheelStatus{Angle: s.animator.Angle()}
	if s.last != nil {
		record := s.last.SpinRecord
		status.LastResult = &record
	}
	if last, err := s.gate.LastSpinDate(); err == nil {
		status.LastSpinDate = last
	}

	if s.animator.State() == spin.StateRunning {
		status.State = StatusSpinning
		status.Message = MessageSpinning
		return status
	}

	ok, err := s.gate.CheckEligible(now)
	if err != nil {
		logger.Warn("Eligibility check failed while reading status", zap.Error(err))
	}
	if ok {
		status.State = StatusReady
		status.Message = MessageReady
		status.CanSpin = true
		return status
	}

	status.State = StatusDoneToday
	status.Message = MessageDoneToday
	today := eligibility.DateString(now, s.gate.Location())
	if s.last != nil && eligibility.DateString(s.last.SpunAt, s.gate.Location()) == today {
		status.Message = s.last.Message()
	}
	return status
}

// ResetEligibility clears today's record so the wheel can be spun again.
func (s *Session) ResetEligibility() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gate.Reset(); err != nil {
		return err
	}
	logger.Info("Spin eligibility reset")
	s.events.BroadcastMessage(EventSpinReset, map[string]interface{}{"reset_at": s.clock.Now()})
	return nil
}

// Run is the frame driver: it sleeps until a spin starts, then ticks every interval until the
// animation stops. It returns when ctx is done.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second / 60
	}

	for {
		if !s.Running() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
				continue
			}
		}

		if err := s.runAnimation(ctx, interval); err != nil {
			return err
		}
	}
}

func (s *Session) runAnimation(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, ok := s.Tick(); !ok || !s.Running() {
				return nil
			}
		}
	}
}
