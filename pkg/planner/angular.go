package planner

import "math"

// Phase labels the state of the single-axis profile for one step.
type Phase int

const (
	PhaseStill Phase = iota
	PhaseAccelerate
	PhaseConstant
	PhaseDecelerate
)

func (p Phase) String() string {
	switch p {
	case PhaseStill:
		return "still"
	case PhaseAccelerate:
		return "accelerate"
	case PhaseConstant:
		return "constant"
	case PhaseDecelerate:
		return "decelerate"
	}
	return "unknown"
}

func sign(x float64) float64 {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}

// DetermineReference advances a velocity- and acceleration-bounded
// single-axis motion profile by one step of dt seconds. Given the
// remaining position error and the current velocity it returns the next
// velocity reference together with the phase that produced it.
//
// The profile is the classic trapezoid: accelerate until saturated,
// cruise, and decelerate so the axis comes to rest exactly on the error.
// A setpoint behind the current direction of travel forces a full
// deceleration before reversing, never an instantaneous flip.
func DetermineReference(errorX, vel, maxVel, maxAcc, dt float64) (float64, Phase) {
	eps := 0.5 * maxAcc * dt
	velMag := math.Abs(vel)

	// Distance covered when braking from the current speed at maxAcc.
	decTime := velMag / maxAcc
	decDist := 0.5 * maxAcc * decTime * decTime

	if velMag == 0.0 && math.Abs(errorX) <= eps {
		// At rest within the dead band: treat the error as zero.
		return 0, PhaseStill
	}

	deltaX := math.Abs(errorX)
	dir := sign(errorX)

	var phase Phase
	switch {
	case decDist >= deltaX:
		// Cannot stop in time at the current speed without overshoot.
		phase = PhaseDecelerate
	case sign(vel)*errorX < 0 && velMag != 0.0:
		// Setpoint behind: brake before reversing.
		phase = PhaseDecelerate
	case velMag >= maxVel:
		phase = PhaseConstant
	default:
		phase = PhaseAccelerate
	}

	switch phase {
	case PhaseAccelerate:
		velMag += maxAcc * dt
		velMag = math.Min(velMag, maxVel)
	case PhaseDecelerate:
		velMag -= maxAcc * dt
		velMag = math.Max(velMag, 0.0)
		if velMag < 0.5*maxAcc*dt {
			// Snap to rest instead of creeping in ever smaller steps.
			velMag = 0.0
		}
	}

	return dir * velMag, phase
}
