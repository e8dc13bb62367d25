// Package processing provides the serialized execution queue for goal
// computations. Bounding acceleration between consecutive commands needs
// a strict before/after ordering, so all planning steps run on a single
// worker regardless of how many transports feed goals in.
package processing

import (
	"sync"
	"time"

	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

// Result is the outcome of one executed goal computation.
type Result struct {
	Cmd rosmsg.Twist
	Err error
}

// Job computes one velocity command.
type Job func() (rosmsg.Twist, error)

type queuedJob struct {
	run   Job
	reply chan Result
}

// QueueMetrics tracks counters for the command queue.
type QueueMetrics struct {
	ProcessedCount    int64
	ErrorCount        int64
	QueuedCount       int64
	RejectedCount     int64
	LastProcessedTime int64
	ProcessingTimeAvg int64 // microseconds
	ProcessingTimeMax int64 // microseconds
	mu                sync.Mutex
}

// CommandQueue serializes goal computations on a single worker with a
// bounded backlog.
type CommandQueue struct {
	logger    customlog.Logger
	jobs      chan queuedJob
	queueSize int
	running   bool
	wg        sync.WaitGroup
	mu        sync.Mutex
	metrics   *QueueMetrics
}

// NewCommandQueue creates a queue with the given backlog capacity.
func NewCommandQueue(queueSize int, logger customlog.Logger) *CommandQueue {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &CommandQueue{
		logger:    logger,
		jobs:      make(chan queuedJob, queueSize),
		queueSize: queueSize,
		metrics:   &QueueMetrics{},
	}
}

// Start launches the worker.
func (q *CommandQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	q.logger.Infof("Starting command queue (backlog %d)", q.queueSize)

	q.wg.Add(1)
	go q.worker()
}

// Stop shuts the worker down after draining queued jobs.
func (q *CommandQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	close(q.jobs)
	q.wg.Wait()
	q.logMetrics()
}

// Submit enqueues a job and returns the channel its result will arrive
// on. A stopped queue or a full backlog rejects the job (ok false).
func (q *CommandQueue) Submit(job Job) (<-chan Result, bool) {
	q.mu.Lock()
	running := q.running
	q.mu.Unlock()

	if !running {
		q.logger.Warnf("Command queue not running, rejecting goal")
		return nil, false
	}

	reply := make(chan Result, 1)
	select {
	case q.jobs <- queuedJob{run: job, reply: reply}:
		q.metrics.mu.Lock()
		q.metrics.QueuedCount++
		q.metrics.mu.Unlock()
		return reply, true
	default:
		q.metrics.mu.Lock()
		q.metrics.RejectedCount++
		q.metrics.mu.Unlock()
		q.logger.Warnf("Command queue backlog full, rejecting goal")
		return nil, false
	}
}

func (q *CommandQueue) worker() {
	defer q.wg.Done()
	q.logger.Debugf("Command queue worker started")

	for job := range q.jobs {
		start := time.Now()
		cmd, err := job.run()
		elapsed := time.Since(start).Microseconds()

		q.metrics.mu.Lock()
		q.metrics.ProcessedCount++
		q.metrics.LastProcessedTime = time.Now().UnixNano()
		if q.metrics.ProcessingTimeAvg == 0 {
			q.metrics.ProcessingTimeAvg = elapsed
		} else {
			q.metrics.ProcessingTimeAvg = (q.metrics.ProcessingTimeAvg + elapsed) / 2
		}
		if elapsed > q.metrics.ProcessingTimeMax {
			q.metrics.ProcessingTimeMax = elapsed
		}
		if err != nil {
			q.metrics.ErrorCount++
		}
		q.metrics.mu.Unlock()

		job.reply <- Result{Cmd: cmd, Err: err}
	}

	q.logger.Debugf("Command queue worker stopped")
}

// Metrics returns a copy of the current counters.
func (q *CommandQueue) Metrics() QueueMetrics {
	q.metrics.mu.Lock()
	defer q.metrics.mu.Unlock()

	return QueueMetrics{
		ProcessedCount:    q.metrics.ProcessedCount,
		ErrorCount:        q.metrics.ErrorCount,
		QueuedCount:       q.metrics.QueuedCount,
		RejectedCount:     q.metrics.RejectedCount,
		LastProcessedTime: q.metrics.LastProcessedTime,
		ProcessingTimeAvg: q.metrics.ProcessingTimeAvg,
		ProcessingTimeMax: q.metrics.ProcessingTimeMax,
	}
}

func (q *CommandQueue) logMetrics() {
	m := q.Metrics()
	q.logger.Infof("Command queue metrics: processed=%d, errors=%d, rejected=%d, avg_time=%dµs, max_time=%dµs",
		m.ProcessedCount, m.ErrorCount, m.RejectedCount, m.ProcessingTimeAvg, m.ProcessingTimeMax)
}
