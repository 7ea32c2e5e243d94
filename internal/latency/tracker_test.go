// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package latency

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestSnapshotKnownSamples(t *testing.T) {
	tr := NewTracker()
	tr.Record(10 * time.Millisecond)
	tr.Record(20 * time.Millisecond)
	tr.Record(30 * time.Millisecond)

	s := tr.Snapshot()
	if s.Count != 3 {
		t.Errorf("Expected count 3, got %d", s.Count)
	}
	if math.Abs(s.AvgMs-20) > 1e-9 {
		t.Errorf("Expected avg 20ms, got %v", s.AvgMs)
	}
	if math.Abs(s.MedianMs-20) > 1e-9 {
		t.Errorf("Expected median 20ms, got %v", s.MedianMs)
	}
	if math.Abs(s.MinMs-10) > 1e-9 {
		t.Errorf("Expected min 10ms, got %v", s.MinMs)
	}
	if math.Abs(s.MaxMs-30) > 1e-9 {
		t.Errorf("Expected max 30ms, got %v", s.MaxMs)
	}
}

func TestSnapshotEvenCountMedian(t *testing.T) {
	tr := NewTracker()
	tr.RecordBatch([]time.Duration{
		40 * time.Millisecond,
		10 * time.Millisecond,
		30 * time.Millisecond,
		20 * time.Millisecond,
	})

	s := tr.Snapshot()
	if math.Abs(s.MedianMs-25) > 1e-9 {
		t.Errorf("Expected median 25ms for even count, got %v", s.MedianMs)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	s := NewTracker().Snapshot()
	if s.Count != 0 || s.AvgMs != 0 || s.MedianMs != 0 || s.MinMs != 0 || s.MaxMs != 0 {
		t.Errorf("Expected zero stats for empty tracker, got %+v", s)
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.Record(5 * time.Millisecond)
	tr.Reset()
	if s := tr.Snapshot(); s.Count != 0 {
		t.Errorf("Expected count 0 after reset, got %d", s.Count)
	}
}

func TestConcurrentRecording(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Record(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if s := tr.Snapshot(); s.Count != 1000 {
		t.Errorf("Expected 1000 samples, got %d", s.Count)
	}
}
