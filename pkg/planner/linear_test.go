package planner

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testLimits() Limits {
	l := DefaultLimits()
	return l
}

func TestLinearProfileZeroErrorFromRest(t *testing.T) {
	p := NewLinearProfiler(testLimits())

	out := p.Profile(mgl64.Vec3{}, mgl64.Vec3{}, 0.1)

	if out != (mgl64.Vec3{}) {
		t.Errorf("Expected zero command for zero error, got %v", out)
	}
	for i := 0; i < 3; i++ {
		if math.IsNaN(out[i]) {
			t.Fatalf("Zero-length goal produced NaN component %d", i)
		}
	}
}

func TestLinearProfileRateLimitsAcceleration(t *testing.T) {
	limits := testLimits()
	p := NewLinearProfiler(limits)

	// Far goal from rest: the desired jump to max speed must be cut down
	// to one acceleration step toward the goal.
	out := p.Profile(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{}, 0.1)

	want := limits.MaxAcc * 0.1
	if math.Abs(out.X()-want) > 1e-12 || out.Y() != 0 {
		t.Errorf("Expected rate-limited step (%v, 0), got %v", want, out)
	}
}

func TestLinearProfileReachesDesiredWhenFeasible(t *testing.T) {
	limits := testLimits()
	p := NewLinearProfiler(limits)

	// Already near max speed: the remaining difference fits inside one
	// acceleration step, so the desired velocity is commanded directly.
	out := p.Profile(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0.49, 0, 0}, 0.1)

	if math.Abs(out.X()-limits.MaxVel) > 1e-12 {
		t.Errorf("Expected desired velocity %v, got %v", limits.MaxVel, out.X())
	}
}

func TestLinearProfileBrakingCurveNearGoal(t *testing.T) {
	limits := testLimits()
	p := NewLinearProfiler(limits)

	// 0.1 m out, the braking law caps the speed well below MaxVel.
	errVec := mgl64.Vec3{0.1, 0, 0}
	want := limits.Gain * math.Sqrt(2*0.1*limits.MaxAcc)

	out := p.Profile(errVec, mgl64.Vec3{0.15, 0, 0}, 0.1)

	if math.Abs(out.X()-want) > 1e-12 {
		t.Errorf("Expected braking-law speed %v, got %v", want, out.X())
	}
	if out.Len() >= limits.MaxVel {
		t.Errorf("Near-goal speed %v should be below max %v", out.Len(), limits.MaxVel)
	}
}

func TestLinearProfileBoundsHoldOverRun(t *testing.T) {
	limits := testLimits()
	p := NewLinearProfiler(limits)
	const dt = 0.1

	vel := mgl64.Vec3{}
	for i := 0; i < 200; i++ {
		next := p.Profile(mgl64.Vec3{10, 4, 0}, vel, dt)

		if next.Len() > limits.MaxVel+1e-9 {
			t.Fatalf("Iteration %d: speed %v exceeds max %v", i, next.Len(), limits.MaxVel)
		}
		if acc := next.Sub(vel).Len() / dt; acc > limits.MaxAcc+1e-9 {
			t.Fatalf("Iteration %d: acceleration %v exceeds max %v", i, acc, limits.MaxAcc)
		}
		vel = next
	}
}
