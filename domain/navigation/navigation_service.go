// Package navigation owns the controller's moving parts: the carrot
// planner, the scan buffer feeding its safety gate, the serialized
// command queue, and the fan-out of computed commands to transports and
// telemetry subscribers.
package navigation

import (
	"errors"
	"sync"
	"time"

	"github.com/carrot-nav/controller/pkg/config"
	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/planner"
	"github.com/carrot-nav/controller/pkg/processing"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

// ErrQueueFull is returned when the command queue rejects a goal.
var ErrQueueFull = errors.New("command queue full or stopped")

// Publisher fans outgoing messages out to peers. Nil-able: the service
// still computes commands when no transport is attached.
type Publisher interface {
	PublishTwist(topic string, cmd rosmsg.Twist) error
	PublishJSON(topic string, messageType string, data interface{}) error
}

// Service orchestrates goal handling for one robot.
type Service struct {
	cfg     *config.Config
	logger  customlog.Logger
	buffer  *planner.ScanBuffer
	planner *planner.CarrotPlanner
	queue   *processing.CommandQueue

	mu          sync.RWMutex
	publisher   Publisher
	subscribers map[chan rosmsg.Twist]struct{}
}

// NewService builds the planner stack from configuration.
func NewService(cfg *config.Config, logger customlog.Logger) *Service {
	limits := planner.LimitsFromConfig(cfg.Planner)
	buffer := planner.NewScanBuffer(cfg.Planner.FrontLaserFrame, logger)
	gate := planner.NewSafetyGate(buffer, limits, logger)

	s := &Service{
		cfg:         cfg,
		logger:      logger,
		buffer:      buffer,
		queue:       processing.NewCommandQueue(16, logger),
		subscribers: make(map[chan rosmsg.Twist]struct{}),
	}
	s.planner = planner.NewCarrotPlanner(limits, gate, s, logger)
	return s
}

// SetPublisher attaches the outgoing transport.
func (s *Service) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// Start launches the command queue.
func (s *Service) Start() {
	s.queue.Start()
}

// Stop drains and stops the command queue and closes all telemetry
// subscriptions.
func (s *Service) Stop() {
	s.queue.Stop()

	s.mu.Lock()
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan rosmsg.Twist]struct{})
	s.mu.Unlock()
}

// ScanBuffer exposes the scan sink for the sensor transport.
func (s *Service) ScanBuffer() *planner.ScanBuffer {
	return s.buffer
}

// MoveToGoal runs one goal request through the serialized queue: set
// the goal, compute the velocity command, publish it. Implements the
// goal-endpoint executor.
func (s *Service) MoveToGoal(goal rosmsg.PoseStamped) (rosmsg.Twist, error) {
	reply, ok := s.queue.Submit(func() (rosmsg.Twist, error) {
		return s.planner.MoveToGoal(goal, time.Now())
	})
	if !ok {
		return rosmsg.Twist{}, ErrQueueFull
	}

	res := <-reply
	if res.Err != nil {
		return rosmsg.Twist{}, res.Err
	}

	s.logger.Infof("Publishing velocity command: (x,y,th) = (%f,%f,%f)",
		res.Cmd.Linear.X, res.Cmd.Linear.Y, res.Cmd.Angular.Z)
	s.publishCommand(res.Cmd)

	return res.Cmd, nil
}

// PublishMarker forwards the planner's goal marker to the transport.
// Implements the planner's marker sink.
func (s *Service) PublishMarker(m rosmsg.Marker) error {
	s.mu.RLock()
	pub := s.publisher
	s.mu.RUnlock()

	if pub == nil {
		return nil
	}
	return pub.PublishJSON(s.cfg.Topics.Marker, "MARKER", m)
}

// LastCommand returns the most recent velocity command.
func (s *Service) LastCommand() rosmsg.Twist {
	return s.planner.LastCommand()
}

// Limits returns the active planner configuration.
func (s *Service) Limits() config.PlannerConfig {
	return s.cfg.Planner
}

// ScanAvailable reports whether a front-laser scan has arrived yet.
func (s *Service) ScanAvailable() bool {
	return s.buffer.Available()
}

// QueueMetrics returns the command queue counters.
func (s *Service) QueueMetrics() processing.QueueMetrics {
	return s.queue.Metrics()
}

// Subscribe registers a telemetry channel receiving every published
// command. Slow subscribers drop commands instead of stalling control.
func (s *Service) Subscribe() chan rosmsg.Twist {
	ch := make(chan rosmsg.Twist, 8)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a telemetry channel.
func (s *Service) Unsubscribe(ch chan rosmsg.Twist) {
	s.mu.Lock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Service) publishCommand(cmd rosmsg.Twist) {
	s.mu.RLock()
	pub := s.publisher
	for ch := range s.subscribers {
		select {
		case ch <- cmd:
		default:
		}
	}
	s.mu.RUnlock()

	if pub == nil {
		return
	}
	if err := pub.PublishTwist(s.cfg.Topics.CmdVel, cmd); err != nil {
		s.logger.Errorf("Failed to publish velocity command: %v", err)
	}
	if err := pub.PublishJSON(s.cfg.Topics.Telemetry, "VELOCITY_COMMAND", cmd); err != nil {
		s.logger.Errorf("Failed to publish telemetry: %v", err)
	}
}
