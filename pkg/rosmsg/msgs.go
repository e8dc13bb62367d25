// Package rosmsg defines the ROS-style message types the controller
// exchanges: stamped poses, laser scans, velocity commands and
// visualization markers. All values are SI (meters, radians, seconds).
package rosmsg

import (
	"fmt"
	"math"
)

// Vector3 is a 3D vector, used for positions and velocities.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation in quaternion form.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Yaw extracts the rotation around the Z axis in radians.
func (q Quaternion) Yaw() float64 {
	return math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
}

// Header carries the frame a message is expressed in and its stamp.
type Header struct {
	FrameID string `json:"frame_id"`
	StampNs int64  `json:"stamp_ns"`
}

// Pose is a position plus orientation.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// PoseStamped is a pose tagged with the frame it is expressed in.
type PoseStamped struct {
	Header Header `json:"header"`
	Pose   Pose   `json:"pose"`
}

// LaserScan is one range-sensor sweep. Beam 0 lies at AngleMin; beam i
// lies at AngleMin + i*AngleIncrement.
type LaserScan struct {
	Header         Header    `json:"header"`
	AngleMin       float64   `json:"angle_min"`
	AngleIncrement float64   `json:"angle_increment"`
	Ranges         []float64 `json:"ranges"`
}

// Twist is a velocity command: planar linear velocity plus yaw rate.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// IsZero reports whether every velocity component is zero.
func (t Twist) IsZero() bool {
	return t.Linear == (Vector3{}) && t.Angular == (Vector3{})
}

func (t Twist) String() string {
	return fmt.Sprintf("Twist{linear: [%.3f, %.3f, %.3f], angular: [%.3f, %.3f, %.3f]}",
		t.Linear.X, t.Linear.Y, t.Linear.Z,
		t.Angular.X, t.Angular.Y, t.Angular.Z)
}
