package planner

import (
	"math"

	customlog "github.com/carrot-nav/controller/pkg/log"
)

// minValidRange is the shortest reading treated as a real obstacle.
// Anything at or below it is sensor noise or a dead beam.
const minValidRange = 0.01

// SafetyGate decides whether forward translation is permitted, based on
// the latest front-laser scan. It checks a virtual wall directly ahead:
// a band of beams wide enough to cover the robot disc at the configured
// standoff distance. Any reading inside that band closer than the wall
// blocks forward motion, whether or not it lies on the path to the goal.
type SafetyGate struct {
	buffer          *ScanBuffer
	distVirtualWall float64
	radiusRobot     float64
	logger          customlog.Logger
}

// NewSafetyGate creates a gate reading scans from the given buffer.
func NewSafetyGate(buffer *ScanBuffer, limits Limits, logger customlog.Logger) *SafetyGate {
	return &SafetyGate{
		buffer:          buffer,
		distVirtualWall: limits.DistVirtualWall,
		radiusRobot:     limits.RadiusRobot,
		logger:          logger,
	}
}

// IsForwardPathClear reports whether the robot may translate toward a
// goal at the given heading and distance. With no scan received yet the
// path is considered blocked: absence of sensing is treated as an
// obstacle.
func (g *SafetyGate) IsForwardPathClear(goalHeading, goalDistance float64) bool {
	scan, ok := g.buffer.Latest()
	if !ok {
		g.logger.Infof("No laser data available: path considered blocked")
		return false
	}

	numReadings := len(scan.Ranges)
	if numReadings == 0 || scan.AngleIncrement <= 0 {
		g.logger.Warnf("Degenerate scan (%d beams, increment %f): path considered blocked",
			numReadings, scan.AngleIncrement)
		return false
	}

	// Beam looking straight at the goal heading.
	indexBeamObst := numReadings/2 + int(math.Round(goalHeading/scan.AngleIncrement))

	// Half-width of the virtual wall in beams: the angle subtended by the
	// robot disc at the wall distance.
	halfAngle := math.Atan2(g.radiusRobot, g.distVirtualWall)
	halfWidth := int(halfAngle / scan.AngleIncrement)

	lo := max(indexBeamObst-halfWidth, 0)
	hi := min(indexBeamObst+halfWidth, numReadings)

	for j := lo; j < hi; j++ {
		r := scan.Ranges[j]
		if r > minValidRange && r < g.distVirtualWall {
			angle := scan.AngleMin + float64(j)*scan.AngleIncrement
			g.logger.Warnf("Object too close: %f [m] at beam %d/%d (%.1f deg, goal %.2f [m] ahead)",
				r, j, numReadings, angle/math.Pi*180.0, goalDistance)
			return false
		}
	}

	return true
}
