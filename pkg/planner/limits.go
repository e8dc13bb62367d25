package planner

import "github.com/carrot-nav/controller/pkg/config"

// Limits is the immutable set of motion bounds and safety parameters
// the planner runs with.
type Limits struct {
	TrackingFrame   string
	MaxVel          float64 // max linear velocity [m/s]
	MaxAcc          float64 // max linear acceleration [m/s^2]
	MaxVelTheta     float64 // max angular velocity [rad/s]
	MaxAccTheta     float64 // max angular acceleration [rad/s^2]
	Gain            float64 // braking-law gain, <=1 is conservative
	MinAngle        float64 // goal headings below this snap to zero [rad]
	DistVirtualWall float64 // standoff distance directly ahead [m]
	RadiusRobot     float64 // robot disc radius [m]
}

// LimitsFromConfig converts the planner configuration section into Limits.
func LimitsFromConfig(cfg config.PlannerConfig) Limits {
	return Limits{
		TrackingFrame:   cfg.TrackingFrame,
		MaxVel:          cfg.MaxVel,
		MaxAcc:          cfg.MaxAcc,
		MaxVelTheta:     cfg.MaxVelTheta,
		MaxAccTheta:     cfg.MaxAccTheta,
		Gain:            cfg.Gain,
		MinAngle:        cfg.MinAngle,
		DistVirtualWall: cfg.DistVirtualWall,
		RadiusRobot:     cfg.RadiusRobot,
	}
}

// DefaultLimits returns the limits matching the default planner config.
func DefaultLimits() Limits {
	return LimitsFromConfig(config.DefaultPlannerConfig())
}
