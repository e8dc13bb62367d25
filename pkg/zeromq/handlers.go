package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"

	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/planner"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

// GoalExecutor runs one goal request to completion and returns the
// resulting velocity command.
type GoalExecutor interface {
	MoveToGoal(goal rosmsg.PoseStamped) (rosmsg.Twist, error)
}

// GoalHandler answers MOVE_TO_GOAL requests on the goal endpoint.
type GoalHandler struct {
	executor GoalExecutor
	logger   customlog.Logger
}

// NewGoalHandler creates a handler delegating to the given executor.
func NewGoalHandler(executor GoalExecutor, logger customlog.Logger) *GoalHandler {
	return &GoalHandler{
		executor: executor,
		logger:   logger,
	}
}

// HandleMessage processes a MOVE_TO_GOAL envelope and returns either a
// COMMAND_RESPONSE with the computed command or an ERROR envelope. A
// rejected goal (wrong frame, full queue) is a reply, not a transport
// failure.
func (h *GoalHandler) HandleMessage(data []byte) ([]byte, error) {
	var msg Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse goal request: %w", err)
	}
	if msg.Type != MsgTypeMoveToGoal {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	var goal rosmsg.PoseStamped
	if err := json.Unmarshal(msg.Data, &goal); err != nil {
		return nil, fmt.Errorf("failed to parse goal pose: %w", err)
	}

	h.logger.Debugf("Goal request: frame=%s pos=(%f,%f)",
		goal.Header.FrameID, goal.Pose.Position.X, goal.Pose.Position.Y)

	cmd, err := h.executor.MoveToGoal(goal)
	if err != nil {
		code := 500
		if errors.Is(err, planner.ErrFrameMismatch) {
			code = 400
		}
		h.logger.Warnf("Goal rejected: %v", err)
		return json.Marshal(envelopeWith(MsgTypeError, ErrorResponse{
			Message: err.Error(),
			Code:    code,
		}))
	}

	return json.Marshal(envelopeWith(MsgTypeCommandResponse, cmd))
}

func envelopeWith(messageType string, data interface{}) Envelope {
	raw, _ := json.Marshal(data)
	return Envelope{
		Type:      messageType,
		Timestamp: nowUnixSeconds(),
		Data:      raw,
	}
}
