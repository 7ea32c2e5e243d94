// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package latency accumulates per-request serving durations and reports
// distribution statistics over everything recorded so far. The tracker is
// unbounded by design: the serving workload it observes is a bounded batch
// sweep plus interactive traffic, not an indefinitely running firehose.
package latency

import (
	"sort"
	"sync"
	"time"
)

// Stats summarizes all recorded durations in milliseconds.
type Stats struct {
	Count    int     `json:"count"`
	AvgMs    float64 `json:"avg_ms"`
	MedianMs float64 `json:"median_ms"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
}

// Recorder is the write side of the tracker. Components that only need to
// report durations depend on this rather than the full Tracker.
type Recorder interface {
	Record(d time.Duration)
}

// Tracker collects durations and computes summary statistics on demand.
// Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	samples []float64 // milliseconds
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record adds a single duration sample.
func (t *Tracker) Record(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	t.mu.Lock()
	t.samples = append(t.samples, ms)
	t.mu.Unlock()
}

// RecordBatch adds one sample per duration.
func (t *Tracker) RecordBatch(ds []time.Duration) {
	t.mu.Lock()
	for _, d := range ds {
		t.samples = append(t.samples, float64(d)/float64(time.Millisecond))
	}
	t.mu.Unlock()
}

// Reset discards all samples.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.samples = t.samples[:0]
	t.mu.Unlock()
}

// Snapshot computes statistics over everything recorded so far. An empty
// tracker returns a zero-valued Stats with Count 0 rather than NaNs.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	samples := make([]float64, len(t.samples))
	copy(samples, t.samples)
	t.mu.Unlock()

	if len(samples) == 0 {
		return Stats{}
	}

	sort.Float64s(samples)

	var sum float64
	for _, s := range samples {
		sum += s
	}

	n := len(samples)
	var median float64
	if n%2 == 1 {
		median = samples[n/2]
	} else {
		median = (samples[n/2-1] + samples[n/2]) / 2
	}

	return Stats{
		Count:    n,
		AvgMs:    sum / float64(n),
		MedianMs: median,
		MinMs:    samples[0],
		MaxMs:    samples[n-1],
	}
}
