package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/carrot-nav/controller/pkg/planner"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

type fakeExecutor struct {
	cmd  rosmsg.Twist
	err  error
	goal rosmsg.PoseStamped
}

func (f *fakeExecutor) MoveToGoal(goal rosmsg.PoseStamped) (rosmsg.Twist, error) {
	f.goal = goal
	return f.cmd, f.err
}

func goalRequest(t *testing.T, frame string, x, y float64) []byte {
	t.Helper()
	goal := rosmsg.PoseStamped{
		Header: rosmsg.Header{FrameID: frame},
		Pose:   rosmsg.Pose{Position: rosmsg.Vector3{X: x, Y: y}},
	}
	raw, err := json.Marshal(goal)
	if err != nil {
		t.Fatalf("Failed to marshal goal: %v", err)
	}
	data, err := json.Marshal(Envelope{Type: MsgTypeMoveToGoal, Data: raw})
	if err != nil {
		t.Fatalf("Failed to marshal envelope: %v", err)
	}
	return data
}

func TestGoalHandlerRespondsWithCommand(t *testing.T) {
	exec := &fakeExecutor{cmd: rosmsg.Twist{Linear: rosmsg.Vector3{X: 0.2}}}
	h := NewGoalHandler(exec, nopLogger{})

	resp, err := h.HandleMessage(goalRequest(t, "/base_link", 2, 1))
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(resp, &env); err != nil {
		t.Fatalf("Response is not an envelope: %v", err)
	}
	if env.Type != MsgTypeCommandResponse {
		t.Fatalf("Expected COMMAND_RESPONSE, got %s", env.Type)
	}

	var cmd rosmsg.Twist
	if err := json.Unmarshal(env.Data, &cmd); err != nil {
		t.Fatalf("Response data is not a twist: %v", err)
	}
	if cmd.Linear.X != 0.2 {
		t.Errorf("Expected linear.x 0.2, got %v", cmd.Linear.X)
	}
	if exec.goal.Pose.Position.X != 2 {
		t.Errorf("Executor received wrong goal: %+v", exec.goal)
	}
}

func TestGoalHandlerReportsFrameMismatch(t *testing.T) {
	exec := &fakeExecutor{err: fmt.Errorf("%w: expected /base_link, got /odom", planner.ErrFrameMismatch)}
	h := NewGoalHandler(exec, nopLogger{})

	resp, err := h.HandleMessage(goalRequest(t, "/odom", 2, 1))
	if err != nil {
		t.Fatalf("Frame mismatch should be a reply, not a transport error: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(resp, &env); err != nil {
		t.Fatalf("Response is not an envelope: %v", err)
	}
	if env.Type != MsgTypeError {
		t.Fatalf("Expected ERROR envelope, got %s", env.Type)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(env.Data, &errResp); err != nil {
		t.Fatalf("Error data malformed: %v", err)
	}
	if errResp.Code != 400 {
		t.Errorf("Expected code 400 for frame mismatch, got %d", errResp.Code)
	}
}

func TestGoalHandlerRejectsWrongType(t *testing.T) {
	h := NewGoalHandler(&fakeExecutor{}, nopLogger{})

	data, _ := json.Marshal(Envelope{Type: "CONFIG_REQUEST"})
	if _, err := h.HandleMessage(data); err == nil {
		t.Errorf("Expected error for unexpected message type")
	}
}

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewMessageDispatcher(nopLogger{})

	called := false
	d.RegisterHandler(MsgTypeMoveToGoal, HandlerFunc(func(data []byte) ([]byte, error) {
		called = true
		return []byte(`{}`), nil
	}))

	if _, err := d.Dispatch(goalRequest(t, "/base_link", 1, 0)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !called {
		t.Errorf("Expected registered handler to run")
	}

	_, err := d.Dispatch([]byte(`{"type":"UNKNOWN"}`))
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("Expected ErrUnknownMessageType, got %v", err)
	}
}
