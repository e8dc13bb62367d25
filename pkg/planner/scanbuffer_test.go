package planner

import (
	"testing"

	"github.com/carrot-nav/controller/pkg/rosmsg"
)

func TestScanBufferStartsUnavailable(t *testing.T) {
	b := NewScanBuffer("/front_laser", nopLogger{})

	if b.Available() {
		t.Errorf("Expected fresh buffer to be unavailable")
	}
	if _, ok := b.Latest(); ok {
		t.Errorf("Expected Latest to report no scan")
	}
}

func TestScanBufferDiscardsWrongFrame(t *testing.T) {
	b := NewScanBuffer("/front_laser", nopLogger{})

	b.Update(rosmsg.LaserScan{
		Header: rosmsg.Header{FrameID: "/rear_laser"},
		Ranges: []float64{1, 2, 3},
	})

	if b.Available() {
		t.Errorf("Expected wrong-frame scan to be discarded silently")
	}
}

func TestScanBufferAcceptsFrontFrame(t *testing.T) {
	b := NewScanBuffer("/front_laser", nopLogger{})

	b.Update(rosmsg.LaserScan{
		Header:         rosmsg.Header{FrameID: "/front_laser"},
		AngleMin:       -1.5,
		AngleIncrement: 0.01,
		Ranges:         []float64{1, 2, 3},
	})

	scan, ok := b.Latest()
	if !ok {
		t.Fatalf("Expected buffer to be available after matching update")
	}
	if len(scan.Ranges) != 3 || scan.AngleIncrement != 0.01 {
		t.Errorf("Stored scan does not match update: %+v", scan)
	}
}

func TestScanBufferLatestWins(t *testing.T) {
	b := NewScanBuffer("/front_laser", nopLogger{})

	b.Update(rosmsg.LaserScan{
		Header: rosmsg.Header{FrameID: "/front_laser"},
		Ranges: []float64{1, 1, 1},
	})
	b.Update(rosmsg.LaserScan{
		Header: rosmsg.Header{FrameID: "/front_laser"},
		Ranges: []float64{9, 9},
	})

	scan, _ := b.Latest()
	if len(scan.Ranges) != 2 || scan.Ranges[0] != 9 {
		t.Errorf("Expected wholesale replacement by the latest scan, got %+v", scan)
	}
}

func TestScanBufferCopiesRanges(t *testing.T) {
	b := NewScanBuffer("/front_laser", nopLogger{})

	ranges := []float64{1, 2, 3}
	b.Update(rosmsg.LaserScan{
		Header: rosmsg.Header{FrameID: "/front_laser"},
		Ranges: ranges,
	})

	// The feed may reuse its slice; stored data must not change.
	ranges[0] = 99

	scan, _ := b.Latest()
	if scan.Ranges[0] != 1 {
		t.Errorf("Stored scan aliases the caller's slice: got %v", scan.Ranges[0])
	}
}
