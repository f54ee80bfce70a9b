package spin

import (
	"math"
	"math/rand"
	"time"

	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

const (
	// MinTurnsDegrees guarantees at least two full revolutions.
	MinTurnsDegrees = 720.0
	// ExtraDegreesRange is the random offset added on top, [0, 360).
	ExtraDegreesRange = 360.0

	MinDuration = 5000 * time.Millisecond
	MaxDuration = 8000 * time.Millisecond
)

// Plan is one immutable spin request.
type Plan struct {
	StartAngle    float64       `json:"start_angle"`
	TotalRotation float64       `json:"total_rotation"`
	Duration      time.Duration `json:"duration"`
}

// TerminalAngle is where the wheel comes to rest, reduced into [0, 2π).
func (p Plan) TerminalAngle() float64 {
	return wheel.Normalize(p.StartAngle + p.TotalRotation)
}

// Planner creates spin plans from a uniform [0,1) source.
type Planner struct {
	random func() float64
}

var planRandom = rand.Float64

// NewPlanner returns a planner using random, or math/rand when nil.
func NewPlanner(random func() float64) *Planner {
	if random == nil {
		random = func() float64 { return planRandom() }
	}
	return &Planner{random: random}
}

// Plan builds a plan continuing from currentAngle.
func (p *Planner) Plan(currentAngle float64) Plan {
	extra := clampUnit(p.random()) * ExtraDegreesRange
	total := wheel.Radians(extra + MinTurnsDegrees)

	span := float64(MaxDuration - MinDuration)
	duration := MinDuration + time.Duration(clampUnit(p.random())*span)

	return Plan{
		StartAngle:    currentAngle,
		TotalRotation: total,
		Duration:      duration,
	}
}

// clampUnit keeps a misbehaving source inside [0,1).
func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v >= 1:
		return 0.999999999
	}
	return v
}
