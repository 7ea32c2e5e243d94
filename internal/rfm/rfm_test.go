// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package rfm

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/revenuescope/revenuescope/internal/dataset"
)

func buildVisits(t *testing.T, rows []string) *dataset.Frame {
	t.Helper()
	csv := "date,visitNumber,totals.transactionRevenue\n" + strings.Join(rows, "\n") + "\n"
	frame, err := dataset.ReadCSV(strings.NewReader(csv), dataset.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return frame
}

func analysisOptions() Options {
	return Options{
		CustomerKey:   "visitNumber",
		ReferenceTime: time.Date(2016, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSegmentForThresholds(t *testing.T) {
	tests := []struct {
		score, r int
		want     string
	}{
		{9, 3, SegmentChampions},
		{8, 0, SegmentChampions},
		{7, 1, SegmentLoyal},
		{6, 0, SegmentLoyal},
		{5, 3, SegmentRecent},
		{5, 2, SegmentPromising},
		{5, 0, SegmentPromising},
		{4, 2, SegmentNeedAttention},
		{4, 3, SegmentNeedAttention},
		{4, 1, SegmentAtRisk},
		{4, 0, SegmentAtRisk},
		{3, 3, SegmentDormant},
		{0, 0, SegmentDormant},
	}

	for _, tt := range tests {
		if got := segmentFor(tt.score, tt.r); got != tt.want {
			t.Errorf("segmentFor(%d, %d) = %s, want %s", tt.score, tt.r, got, tt.want)
		}
	}
}

func TestAnalyzeScoreRange(t *testing.T) {
	var rows []string
	for i := 0; i < 40; i++ {
		rows = append(rows, fmt.Sprintf("2016-09-%02d,%d,%d", i%28+1, i+1, i*1000000))
	}
	frame := buildVisits(t, rows)

	result, err := Analyze(frame, analysisOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Customers) != 40 {
		t.Fatalf("Expected 40 customers, got %d", len(result.Customers))
	}

	for _, c := range result.Customers {
		if c.Score < 0 || c.Score > 9 {
			t.Errorf("Customer %s has score %d outside [0,9]", c.Key, c.Score)
		}
		if c.Segment == "" {
			t.Errorf("Customer %s has no segment", c.Key)
		}
		if c.RQuartile < 0 || c.RQuartile > 3 {
			t.Errorf("Customer %s has r_quartile %d outside [0,3]", c.Key, c.RQuartile)
		}
	}
}

// Three customers with revenues [100, 0, 0] and identical visit timestamps:
// monetary bucketing must not divide by zero and every row must still get a
// valid segment.
func TestAnalyzeDegenerateDistribution(t *testing.T) {
	frame := buildVisits(t, []string{
		"2016-09-15,1,100",
		"2016-09-15,2,0",
		"2016-09-15,3,0",
	})

	result, err := Analyze(frame, analysisOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Customers) != 3 {
		t.Fatalf("Expected 3 customers, got %d", len(result.Customers))
	}

	valid := make(map[string]bool)
	for _, s := range AllSegments {
		valid[s] = true
	}
	for _, c := range result.Customers {
		if !valid[c.Segment] {
			t.Errorf("Customer %s assigned invalid segment %q", c.Key, c.Segment)
		}
	}
}

func TestWithAllSegmentsCompleteness(t *testing.T) {
	// A single-customer input can only ever populate one segment on its own.
	frame := buildVisits(t, []string{"2016-09-15,1,100"})

	result, err := Analyze(frame, analysisOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	display := WithAllSegments(result.Customers)
	labels := make(map[string]bool)
	synthetic := 0
	for _, c := range display {
		labels[c.Segment] = true
		if c.Synthetic {
			synthetic++
		}
	}

	if len(labels) != len(AllSegments) {
		t.Errorf("Expected all %d segments present, got %d", len(AllSegments), len(labels))
	}
	if synthetic != len(AllSegments)-1 {
		t.Errorf("Expected %d synthetic rows, got %d", len(AllSegments)-1, synthetic)
	}
}

func TestSyntheticRowsNeverFeedSummary(t *testing.T) {
	frame := buildVisits(t, []string{"2016-09-15,1,100"})

	result, err := Analyze(frame, analysisOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	display := WithAllSegments(result.Customers)
	summary := SummarizeSegments(display)

	totalCount := 0
	for _, s := range summary {
		totalCount += s.Count
	}
	if totalCount != 1 {
		t.Errorf("Expected summary count 1 (real rows only), got %d", totalCount)
	}
}

func TestRevenueShareSumsTo100(t *testing.T) {
	var rows []string
	for i := 0; i < 25; i++ {
		rows = append(rows, fmt.Sprintf("2016-09-%02d,%d,%d", i%28+1, i+1, (i+1)*500000))
	}
	frame := buildVisits(t, rows)

	result, err := Analyze(frame, analysisOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var totalPct float64
	for _, s := range result.Summary {
		totalPct += s.RevenuePct
	}
	if math.Abs(totalPct-100) > 1e-6 {
		t.Errorf("Expected revenue shares to sum to 100, got %v", totalPct)
	}
}

func TestAnalyzeRecencyFromReferenceClock(t *testing.T) {
	frame := buildVisits(t, []string{
		"2016-09-21,1,0",
		"2016-09-01,1,0", // same customer, older visit: recency uses the max date
		"2016-09-11,2,0",
	})

	result, err := Analyze(frame, analysisOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	byKey := make(map[string]Customer)
	for _, c := range result.Customers {
		byKey[c.Key] = c
	}

	if got := byKey["1"].Recency; got != 10 {
		t.Errorf("Expected recency 10 days for customer 1, got %v", got)
	}
	if got := byKey["1"].Frequency; got != 2 {
		t.Errorf("Expected frequency 2 for customer 1, got %v", got)
	}
	if got := byKey["2"].Recency; got != 20 {
		t.Errorf("Expected recency 20 days for customer 2, got %v", got)
	}
}

func TestAnalyzeMissingColumns(t *testing.T) {
	frame := buildVisits(t, []string{"2016-09-15,1,100"})

	if _, err := Analyze(frame, Options{CustomerKey: "nope", ReferenceTime: time.Now()}); err == nil {
		t.Error("Expected error for missing customer key column")
	}
	if _, err := Analyze(frame, Options{RevenueColumn: "nope", ReferenceTime: time.Now()}); err == nil {
		t.Error("Expected error for missing revenue column")
	}
}

func TestQuartileBucketsSpread(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	buckets := QuartileBuckets(values)

	// Equal-frequency quartiles of 1..8: two values per bucket.
	want := []int{0, 0, 1, 1, 2, 2, 3, 3}
	for i := range want {
		if buckets[i] != want[i] {
			t.Errorf("Value %v: expected bucket %d, got %d", values[i], want[i], buckets[i])
		}
	}
}

func TestQuartileBucketsConstant(t *testing.T) {
	buckets := QuartileBuckets([]float64{5, 5, 5, 5})
	for i, b := range buckets {
		if b != 0 {
			t.Errorf("Constant distribution: expected bucket 0 at %d, got %d", i, b)
		}
	}
}
