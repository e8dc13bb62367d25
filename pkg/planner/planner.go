// Package planner implements the reactive local-motion controller: it
// turns a goal pose in the robot's tracking frame plus the latest laser
// scan into a velocity command bounded by the configured limits, and
// refuses forward translation when an obstacle sits inside the virtual
// wall ahead of the robot.
package planner

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

// ErrFrameMismatch is returned when a goal is not expressed in the
// tracking frame. Goals are never transformed, only rejected.
var ErrFrameMismatch = errors.New("goal not in tracking frame")

// minDeltaT substitutes for dt on the first computation or when the
// clock did not advance; dt is a divisor downstream.
const minDeltaT = 1e-3

// MarkerSink receives advisory visualization markers. Publishing is a
// side effect of accepting a goal, not part of the control contract.
type MarkerSink interface {
	PublishMarker(m rosmsg.Marker) error
}

// CarrotPlanner tracks one goal in the tracking frame and synthesizes
// velocity commands toward it. A single mutex serializes SetGoal and
// ComputeVelocityCommand: bounding acceleration needs a strict
// before/after ordering of commands.
type CarrotPlanner struct {
	limits  Limits
	gate    *SafetyGate
	linear  *LinearProfiler
	markers MarkerSink
	logger  customlog.Logger

	mu       sync.Mutex
	goal     mgl64.Vec3
	goalYaw  float64
	lastCmd  rosmsg.Twist
	lastTime time.Time
	hasLast  bool
}

// NewCarrotPlanner wires the planner. markers may be nil when no
// visualization sink is attached.
func NewCarrotPlanner(limits Limits, gate *SafetyGate, markers MarkerSink, logger customlog.Logger) *CarrotPlanner {
	return &CarrotPlanner{
		limits:  limits,
		gate:    gate,
		linear:  NewLinearProfiler(limits),
		markers: markers,
		logger:  logger,
	}
}

// Heading returns the direction of a goal vector in the tracking frame.
func Heading(goal mgl64.Vec3) float64 {
	return math.Atan2(goal.Y(), goal.X())
}

// SetGoal validates and stores a new goal pose. A pose stamped with any
// frame other than the tracking frame is rejected with ErrFrameMismatch
// and no state changes. Headings below MinAngle snap to zero to keep
// sensor jitter from commanding rotation.
func (p *CarrotPlanner) SetGoal(goal rosmsg.PoseStamped) error {
	if goal.Header.FrameID != p.limits.TrackingFrame {
		p.logger.Errorf("Expecting goal in frame %s, got %s: no planning possible",
			p.limits.TrackingFrame, goal.Header.FrameID)
		return fmt.Errorf("%w: expected %s, got %s", ErrFrameMismatch,
			p.limits.TrackingFrame, goal.Header.FrameID)
	}

	yaw := goal.Pose.Orientation.Yaw()
	if math.Abs(yaw) < p.limits.MinAngle {
		p.logger.Warnf("Goal angle %f < %f: will be ignored", yaw, p.limits.MinAngle)
		yaw = 0
	}

	p.mu.Lock()
	p.goal = mgl64.Vec3{goal.Pose.Position.X, goal.Pose.Position.Y, goal.Pose.Position.Z}
	p.goalYaw = yaw
	goalVec := p.goal
	p.mu.Unlock()

	p.logger.Infof("SetGoal: (x,y,th) = (%f,%f,%f)", goalVec.X(), goalVec.Y(), yaw)

	if p.markers != nil {
		marker := rosmsg.NewCarrotMarker(p.limits.TrackingFrame, rosmsg.Vector3{
			X: goalVec.X(), Y: goalVec.Y(), Z: goalVec.Z(),
		})
		if err := p.markers.PublishMarker(marker); err != nil {
			p.logger.Warnf("Failed to publish goal marker: %v", err)
		}
	}

	return nil
}

// Goal returns the currently tracked goal position and heading.
func (p *CarrotPlanner) Goal() (mgl64.Vec3, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.goal, p.goalYaw
}

// LastCommand returns the most recently emitted velocity command.
func (p *CarrotPlanner) LastCommand() rosmsg.Twist {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCmd
}

// ComputeVelocityCommand runs one control-loop step at the given time
// and returns the velocity command toward the stored goal. It always
// succeeds: a blocked path clears the goal's linear components (the
// heading is preserved, so the robot can still rotate free) and the
// profilers brake the translation within the acceleration bound.
func (p *CarrotPlanner) ComputeVelocityCommand(now time.Time) rosmsg.Twist {
	p.mu.Lock()
	defer p.mu.Unlock()

	dt := now.Sub(p.lastTime).Seconds()
	if !p.hasLast || dt <= 0 {
		dt = minDeltaT
	}

	if !p.gate.IsForwardPathClear(p.goalYaw, p.goal.Len()) {
		p.logger.Warnf("Path is not free: only consider rotation")
		p.goal = mgl64.Vec3{}
	}

	prevLin := mgl64.Vec3{p.lastCmd.Linear.X, p.lastCmd.Linear.Y, p.lastCmd.Linear.Z}
	lin := p.linear.Profile(p.goal, prevLin, dt)

	ang, phase := DetermineReference(p.goalYaw, p.lastCmd.Angular.Z,
		p.limits.MaxVelTheta, p.limits.MaxAccTheta, dt)

	cmd := rosmsg.Twist{
		Linear:  rosmsg.Vector3{X: lin.X(), Y: lin.Y()},
		Angular: rosmsg.Vector3{Z: ang},
	}

	p.logger.Debugf("Velocity command: (x:%f, y:%f, th:%f) phase=%s dt=%f",
		cmd.Linear.X, cmd.Linear.Y, cmd.Angular.Z, phase, dt)

	p.lastCmd = cmd
	p.lastTime = now
	p.hasLast = true

	return cmd
}

// MoveToGoal accepts a goal pose and immediately computes the velocity
// command toward it, the outer operation the service layer exposes.
func (p *CarrotPlanner) MoveToGoal(goal rosmsg.PoseStamped, now time.Time) (rosmsg.Twist, error) {
	if err := p.SetGoal(goal); err != nil {
		return rosmsg.Twist{}, err
	}
	return p.ComputeVelocityCommand(now), nil
}
