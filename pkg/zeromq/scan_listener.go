package zeromq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

// ScanSink consumes incoming laser scans. Frame filtering is the sink's
// business; the listener delivers everything it can parse.
type ScanSink interface {
	Update(scan rosmsg.LaserScan)
}

// ScanListener drains the laser SUB endpoint into a ScanSink. The sink
// keeps only the latest scan, so a backlog here never grows state.
type ScanListener struct {
	socket  *zmq4.Socket
	poller  *zmq4.Poller
	sink    ScanSink
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
	wg      *sync.WaitGroup
}

func newScanListener(ctx *zmq4.Context, address string, sink ScanSink, logger customlog.Logger, wg *sync.WaitGroup) (*ScanListener, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if err := socket.SetSubscribe(""); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Scan listener initialized on %s", address)

	return &ScanListener{
		socket: socket,
		poller: poller,
		sink:   sink,
		logger: logger,
		wg:     wg,
	}, nil
}

// Start begins the receive loop.
func (l *ScanListener) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	l.wg.Add(1)
	go l.receiveLoop()
}

// Stop halts the receive loop and closes the socket.
func (l *ScanListener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.mu.Unlock()

	l.socket.Close()
}

func (l *ScanListener) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *ScanListener) receiveLoop() {
	defer l.wg.Done()
	l.logger.Infof("Scan listener started")

	for l.isRunning() {
		sockets, err := l.poller.Poll(500 * time.Millisecond)
		if err != nil {
			if l.isRunning() {
				l.logger.Errorf("Error polling scan socket: %v", err)
			}
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		msg, err := l.socket.RecvBytes(0)
		if err != nil {
			if l.isRunning() {
				l.logger.Errorf("Error receiving scan: %v", err)
			}
			continue
		}

		var scan rosmsg.LaserScan
		if err := json.Unmarshal(msg, &scan); err != nil {
			l.logger.Warnf("Discarding malformed scan (%d bytes): %v", len(msg), err)
			continue
		}

		l.sink.Update(scan)
	}

	l.logger.Infof("Scan listener stopped")
}
