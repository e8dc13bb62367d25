// Package zeromq wires the controller to its peers: a REP socket
// answering goal requests, a SUB socket draining laser scans, and a PUB
// socket fanning out velocity commands, markers and telemetry.
package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/carrot-nav/controller/pkg/config"
	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

// Common errors.
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types on the goal endpoint.
const (
	MsgTypeMoveToGoal      = "MOVE_TO_GOAL"
	MsgTypeCommandResponse = "COMMAND_RESPONSE"
	MsgTypeError           = "ERROR"
)

// Envelope is the JSON wrapper around every goal-endpoint message.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ErrorResponse is the payload of an ERROR envelope.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler processes one message type on the goal endpoint.
type MessageHandler interface {
	HandleMessage(data []byte) ([]byte, error)
}

// HandlerFunc adapts a function to MessageHandler.
type HandlerFunc func(data []byte) ([]byte, error)

func (f HandlerFunc) HandleMessage(data []byte) ([]byte, error) {
	return f(data)
}

// MessageDispatcher routes envelopes to the handler registered for
// their type.
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates an empty dispatcher.
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a message type.
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[messageType] = handler
	d.logger.Infof("Registered handler for message type: %s", messageType)
}

// Dispatch parses an envelope and runs the matching handler.
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	var msg Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
	return handler.HandleMessage(data)
}

// MessageReceiver serves the goal REP endpoint.
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	running    bool
	mu         sync.Mutex
	wg         *sync.WaitGroup
}

func newMessageReceiver(ctx *zmq4.Context, address string, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	const socketTimeout = 1 * time.Second
	if err := socket.SetRcvtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Goal receiver initialized on %s", address)

	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		wg:         wg,
	}, nil
}

// Start begins the receive loop.
func (r *MessageReceiver) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.logger.Infof("Goal receiver started")

		for r.isRunning() {
			sockets, err := r.poller.Poll(500 * time.Millisecond)
			if err != nil {
				if r.isRunning() {
					r.logger.Errorf("Error polling goal socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.isRunning() {
					r.logger.Errorf("Error receiving goal request: %v", err)
				}
				continue
			}

			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Errorf("Error dispatching goal request: %v", err)
				response = mustMarshalEnvelope(MsgTypeError, ErrorResponse{
					Message: err.Error(),
					Code:    500,
				})
			}

			if _, err := r.socket.SendBytes(response, 0); err != nil && r.isRunning() {
				r.logger.Errorf("Error sending goal response: %v", err)
			}
		}
	}()
}

func (r *MessageReceiver) isRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop halts the receive loop and closes the socket to interrupt any
// blocking call.
func (r *MessageReceiver) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	if r.socket != nil {
		r.socket.Close()
	}
}

// MessageSender fans outgoing messages out on the PUB socket. Two frames
// per message: topic first, then payload.
type MessageSender struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

func newMessageSender(ctx *zmq4.Context, address string, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	logger.Infof("Publisher initialized on %s", address)

	return &MessageSender{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a payload on the given topic.
func (s *MessageSender) PublishMessage(topic string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(payload, 0); err != nil {
		return fmt.Errorf("failed to send payload: %w", err)
	}
	return nil
}

// Close shuts the sender down.
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// Service coordinates the controller's ZeroMQ endpoints.
type Service struct {
	cfg        *config.Config
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	scans      *ScanListener
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	running    bool
	mu         sync.Mutex
	wg         sync.WaitGroup
}

// NewService builds the service and binds all three sockets.
func NewService(cfg *config.Config, scanSink ScanSink, logger customlog.Logger) (*Service, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger),
		logger:     logger,
	}

	s.receiver, err = newMessageReceiver(ctx, cfg.ZeroMQ.GoalBindAddress, s.dispatcher, logger, &s.wg)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	s.sender, err = newMessageSender(ctx, cfg.ZeroMQ.PublishBindAddress, logger)
	if err != nil {
		s.receiver.Stop()
		ctx.Term()
		return nil, err
	}

	s.scans, err = newScanListener(ctx, cfg.ZeroMQ.ScanBindAddress, scanSink, logger, &s.wg)
	if err != nil {
		s.receiver.Stop()
		s.sender.Close()
		ctx.Term()
		return nil, err
	}

	return s, nil
}

// RegisterHandler adds a goal-endpoint handler.
func (s *Service) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// Start begins serving all endpoints.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	s.logger.Infof("Starting ZeroMQ service")
	s.receiver.Start()
	s.scans.Start()
}

// Stop halts all endpoints and waits for their goroutines.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Infof("Stopping ZeroMQ service")
	s.receiver.Stop()
	s.scans.Stop()
	s.sender.Close()
	s.wg.Wait()

	if s.ctx != nil {
		s.ctx.Term()
		s.ctx = nil
	}
	s.logger.Infof("ZeroMQ service stopped")
}

// PublishTwist publishes a velocity command in the binary Twist format.
func (s *Service) PublishTwist(topic string, cmd rosmsg.Twist) error {
	return s.sender.PublishMessage(topic, rosmsg.EncodeTwist(cmd))
}

// PublishJSON publishes a JSON envelope on a topic.
func (s *Service) PublishJSON(topic string, messageType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	msg := Envelope{
		Type:      messageType,
		Timestamp: nowUnixSeconds(),
		Data:      raw,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return s.sender.PublishMessage(topic, payload)
}

func nowUnixSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func mustMarshalEnvelope(messageType string, data interface{}) []byte {
	raw, _ := json.Marshal(data)
	payload, _ := json.Marshal(Envelope{
		Type:      messageType,
		Timestamp: nowUnixSeconds(),
		Data:      raw,
	})
	return payload
}
