// Package api exposes the controller's HTTP surface: status and
// command inspection, goal submission, and the telemetry WebSocket.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/carrot-nav/controller/domain/navigation"
	"github.com/carrot-nav/controller/pkg/config"
	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/planner"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

// Handlers bundles the HTTP handlers around the navigation service.
type Handlers struct {
	cfg    *config.Config
	nav    *navigation.Service
	logger customlog.Logger
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(cfg *config.Config, nav *navigation.Service, logger customlog.Logger) *Handlers {
	return &Handlers{cfg: cfg, nav: nav, logger: logger}
}

// GetStatusHandler reports controller health and queue counters.
func (h *Handlers) GetStatusHandler(c *fiber.Ctx) error {
	metrics := h.nav.QueueMetrics()
	return c.JSON(fiber.Map{
		"robot_id":       h.cfg.RobotID,
		"scan_available": h.nav.ScanAvailable(),
		"queue": fiber.Map{
			"processed":      metrics.ProcessedCount,
			"errors":         metrics.ErrorCount,
			"rejected":       metrics.RejectedCount,
			"avg_process_us": metrics.ProcessingTimeAvg,
			"max_process_us": metrics.ProcessingTimeMax,
		},
	})
}

// GetCommandHandler returns the most recent velocity command.
func (h *Handlers) GetCommandHandler(c *fiber.Ctx) error {
	return c.JSON(h.nav.LastCommand())
}

// GetLimitsHandler returns the active motion limits and safety
// parameters.
func (h *Handlers) GetLimitsHandler(c *fiber.Ctx) error {
	return c.JSON(h.nav.Limits())
}

// PostGoalHandler accepts a stamped goal pose and returns the computed
// velocity command. Goals outside the tracking frame are rejected with
// 400, a saturated command queue with 503.
func (h *Handlers) PostGoalHandler(c *fiber.Ctx) error {
	var goal rosmsg.PoseStamped
	if err := c.BodyParser(&goal); err != nil {
		h.logger.Warnf("Failed to parse goal request body: %v", err)
		return fiber.NewError(fiber.StatusBadRequest, "invalid goal pose payload")
	}

	cmd, err := h.nav.MoveToGoal(goal)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrFrameMismatch):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, navigation.ErrQueueFull):
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(cmd)
}
