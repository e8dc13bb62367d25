package navigation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carrot-nav/controller/pkg/config"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

type recordingPublisher struct {
	mu     sync.Mutex
	twists map[string][]rosmsg.Twist
	jsons  map[string][]string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		twists: make(map[string][]rosmsg.Twist),
		jsons:  make(map[string][]string),
	}
}

func (p *recordingPublisher) PublishTwist(topic string, cmd rosmsg.Twist) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.twists[topic] = append(p.twists[topic], cmd)
	return nil
}

func (p *recordingPublisher) PublishJSON(topic string, messageType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jsons[topic] = append(p.jsons[topic], messageType)
	return nil
}

func (p *recordingPublisher) twistCount(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.twists[topic])
}

func (p *recordingPublisher) jsonTypes(topic string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.jsons[topic]...)
}

func testConfig() *config.Config {
	cfg := &config.Config{Planner: config.DefaultPlannerConfig()}
	cfg.Topics.CmdVel = "nav.cmd_vel"
	cfg.Topics.Marker = "nav.carrot"
	cfg.Topics.Telemetry = "nav.telemetry"
	return cfg
}

func feedScan(s *Service, rangeValue float64) {
	ranges := make([]float64, 181)
	for i := range ranges {
		ranges[i] = rangeValue
	}
	s.ScanBuffer().Update(rosmsg.LaserScan{
		Header:         rosmsg.Header{FrameID: s.cfg.Planner.FrontLaserFrame},
		AngleMin:       -1.5708,
		AngleIncrement: 0.0174533,
		Ranges:         ranges,
	})
}

func goalPose(frame string, x, y float64) rosmsg.PoseStamped {
	return rosmsg.PoseStamped{
		Header: rosmsg.Header{FrameID: frame},
		Pose: rosmsg.Pose{
			Position:    rosmsg.Vector3{X: x, Y: y},
			Orientation: rosmsg.Quaternion{W: 1},
		},
	}
}

func TestMoveToGoalPublishesCommandAndMarker(t *testing.T) {
	svc := NewService(testConfig(), nopLogger{})
	pub := newRecordingPublisher()
	svc.SetPublisher(pub)
	svc.Start()
	defer svc.Stop()

	feedScan(svc, 10.0)

	cmd, err := svc.MoveToGoal(goalPose(svc.cfg.Planner.TrackingFrame, 3.0, 0.0))
	if err != nil {
		t.Fatalf("MoveToGoal failed: %v", err)
	}
	if cmd.Linear.X <= 0 {
		t.Errorf("expected forward motion toward goal, got %v", cmd.Linear.X)
	}
	if got := pub.twistCount("nav.cmd_vel"); got != 1 {
		t.Errorf("expected 1 cmd_vel publication, got %d", got)
	}

	markers := pub.jsonTypes("nav.carrot")
	if len(markers) != 1 || markers[0] != "MARKER" {
		t.Errorf("expected one MARKER publication, got %v", markers)
	}
	telemetry := pub.jsonTypes("nav.telemetry")
	if len(telemetry) != 1 || telemetry[0] != "VELOCITY_COMMAND" {
		t.Errorf("expected one VELOCITY_COMMAND publication, got %v", telemetry)
	}
}

func TestMoveToGoalRejectsWrongFrame(t *testing.T) {
	svc := NewService(testConfig(), nopLogger{})
	svc.Start()
	defer svc.Stop()

	_, err := svc.MoveToGoal(goalPose("/map", 1.0, 0.0))
	if err == nil {
		t.Fatal("expected error for goal outside the tracking frame")
	}
}

func TestMoveToGoalWithoutPublisher(t *testing.T) {
	svc := NewService(testConfig(), nopLogger{})
	svc.Start()
	defer svc.Stop()

	feedScan(svc, 10.0)

	if _, err := svc.MoveToGoal(goalPose(svc.cfg.Planner.TrackingFrame, 2.0, 0.0)); err != nil {
		t.Fatalf("MoveToGoal without publisher failed: %v", err)
	}
}

func TestMoveToGoalAfterStop(t *testing.T) {
	svc := NewService(testConfig(), nopLogger{})
	svc.Start()
	svc.Stop()

	_, err := svc.MoveToGoal(goalPose(svc.cfg.Planner.TrackingFrame, 1.0, 0.0))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull after stop, got %v", err)
	}
}

func TestSubscriberReceivesCommands(t *testing.T) {
	svc := NewService(testConfig(), nopLogger{})
	svc.Start()
	defer svc.Stop()

	feedScan(svc, 10.0)

	ch := svc.Subscribe()
	defer svc.Unsubscribe(ch)

	want, err := svc.MoveToGoal(goalPose(svc.cfg.Planner.TrackingFrame, 2.0, 1.0))
	if err != nil {
		t.Fatalf("MoveToGoal failed: %v", err)
	}

	select {
	case got := <-ch:
		if got != want {
			t.Errorf("subscriber got %v, want %v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the command")
	}
}
