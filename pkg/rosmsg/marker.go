package rosmsg

import "time"

// Marker types and actions, matching visualization_msgs/Marker.
const (
	MarkerLineStrip = 4
	MarkerActionAdd = 0
)

// ColorRGBA is a marker color with alpha.
type ColorRGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Marker is an advisory visualization element for external display.
type Marker struct {
	Header      Header    `json:"header"`
	Ns          string    `json:"ns"`
	Type        int       `json:"type"`
	Action      int       `json:"action"`
	Pose        Pose      `json:"pose"`
	ScaleX      float64   `json:"scale_x"`
	Color       ColorRGBA `json:"color"`
	LifetimeSec float64   `json:"lifetime_sec"`
	Points      []Vector3 `json:"points"`
}

// NewCarrotMarker builds the line-strip marker from the robot origin to
// the current goal, drawn slightly above the ground plane.
func NewCarrotMarker(frameID string, goal Vector3) Marker {
	return Marker{
		Header: Header{
			FrameID: frameID,
			StampNs: time.Now().UnixNano(),
		},
		Ns:     "carrot",
		Type:   MarkerLineStrip,
		Action: MarkerActionAdd,
		Pose:   Pose{Orientation: Quaternion{W: 1.0}},
		ScaleX: 0.05,
		Color:  ColorRGBA{R: 1, G: 0.5, B: 0, A: 1},
		Points: []Vector3{
			{X: 0, Y: 0, Z: 0.05},
			{X: goal.X, Y: goal.Y, Z: 0.05},
		},
	}
}
