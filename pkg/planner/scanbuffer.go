package planner

import (
	"sync"

	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/rosmsg"
)

// ScanBuffer holds the most recent laser scan from the front sensor.
// It is written by the asynchronous sensor feed and read by the safety
// gate during a planning step, so the snapshot and its availability flag
// are replaced together under one lock. Only the latest scan is kept.
type ScanBuffer struct {
	frontFrame string
	logger     customlog.Logger

	mu        sync.RWMutex
	scan      rosmsg.LaserScan
	available bool
}

// NewScanBuffer creates a buffer accepting scans stamped with the given
// front-sensor frame.
func NewScanBuffer(frontFrame string, logger customlog.Logger) *ScanBuffer {
	return &ScanBuffer{
		frontFrame: frontFrame,
		logger:     logger,
	}
}

// Update stores a new scan. Scans from any other frame than the front
// sensor are silently discarded.
func (b *ScanBuffer) Update(scan rosmsg.LaserScan) {
	if scan.Header.FrameID != b.frontFrame {
		b.logger.Debugf("Discarding scan from frame '%s' (front sensor is '%s')",
			scan.Header.FrameID, b.frontFrame)
		return
	}

	// The stored ranges must never alias the caller's slice: the feed may
	// reuse its buffer for the next scan.
	ranges := make([]float64, len(scan.Ranges))
	copy(ranges, scan.Ranges)
	scan.Ranges = ranges

	b.mu.Lock()
	b.scan = scan
	b.available = true
	b.mu.Unlock()
}

// Latest returns the stored scan and whether one has been received.
// The returned scan's ranges are not mutated after storage, so sharing
// the slice with the caller is safe.
func (b *ScanBuffer) Latest() (rosmsg.LaserScan, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scan, b.available
}

// Available reports whether a front-sensor scan has been received.
func (b *ScanBuffer) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.available
}
