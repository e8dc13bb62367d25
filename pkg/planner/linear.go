package planner

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// nearGoalDistance is the planar distance below which the profiler is in
// its near-goal band. The band currently commands the same velocity as
// the default branch; it is kept as a distinct decision point so a
// near-goal slowdown policy can hook in without reshaping the profiler.
const nearGoalDistance = 1.5

// zeroLengthEps guards normalization of near-zero vectors.
const zeroLengthEps = 1e-6

// LinearProfiler computes the bounded 2D translational velocity command
// from the goal-relative position error and the previously commanded
// velocity.
type LinearProfiler struct {
	maxVel float64
	maxAcc float64
	gain   float64
}

// NewLinearProfiler creates a profiler with the given limits.
func NewLinearProfiler(limits Limits) *LinearProfiler {
	return &LinearProfiler{
		maxVel: limits.MaxVel,
		maxAcc: limits.MaxAcc,
		gain:   limits.Gain,
	}
}

// Profile returns the next linear velocity command for the given error
// vector, previous command and time step. The magnitude follows a
// minimum-distance braking curve, capped at maxVel, and the change from
// prevVel is rate-limited to maxAcc.
func (p *LinearProfiler) Profile(errVec, prevVel mgl64.Vec3, dt float64) mgl64.Vec3 {
	errNorm := errVec.Len()

	// Speed from which the remaining distance is exactly consumed when
	// braking at maxAcc, scaled down by the gain.
	var desiredSpeed float64
	if errNorm > 0 {
		desiredSpeed = math.Min(p.maxVel, p.gain*math.Sqrt(2*errNorm*p.maxAcc))
	}

	var desired mgl64.Vec3
	if errNorm > zeroLengthEps {
		desired = errVec.Normalize().Mul(desiredSpeed)
	}

	diff := desired.Sub(prevVel)
	accNeeded := diff.Len() / dt
	if accNeeded > p.maxAcc {
		return prevVel.Add(diff.Normalize().Mul(p.maxAcc * dt))
	}

	if math.Hypot(errVec.X(), errVec.Y()) < nearGoalDistance {
		return desired
	}
	return desired
}
