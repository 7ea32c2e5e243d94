// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package model

import (
	"math"
	"strings"
	"testing"

	"github.com/revenuescope/revenuescope/internal/dataset"
	"github.com/revenuescope/revenuescope/internal/features"
	"github.com/revenuescope/revenuescope/internal/latency"
)

func trainedPredictor(t *testing.T, rec latency.Recorder) (*Predictor, *dataset.Frame) {
	t.Helper()
	f := trainingFrame(t, 100)
	art, err := Train(f, features.NewEncoding(), testModelConfig())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	p := NewPredictor(rec)
	p.SetArtifacts(art)
	return p, f
}

func TestPredictorNotReadyBeforeArtifacts(t *testing.T) {
	p := NewPredictor(nil)
	if p.Ready() {
		t.Error("Predictor should not be ready without artifacts")
	}
	if _, err := p.PredictBatch(dataset.NewFrame()); err != ErrNotTrained {
		t.Errorf("Expected ErrNotTrained, got %v", err)
	}
}

func TestPredictBatchRecoversRevenueScale(t *testing.T) {
	tracker := latency.NewTracker()
	p, f := trainedPredictor(t, tracker)

	preds, err := p.PredictBatch(f)
	if err != nil {
		t.Fatalf("PredictBatch failed: %v", err)
	}
	if len(preds) != f.NumRows() {
		t.Fatalf("Expected %d predictions, got %d", f.NumRows(), len(preds))
	}

	// Revenue in the fixture is device*1000; the model trains on log1p and
	// serves through expm1, so predictions land back near revenue units.
	device := f.Column("device")
	for i, pred := range preds {
		if pred < 0 {
			t.Errorf("Prediction %d is negative: %v", i, pred)
		}
		d, _ := device.Float(i)
		want := d * 1000
		if math.Abs(pred-want) > want*0.05+1 {
			t.Errorf("Row %d: prediction %v far from expected %v", i, pred, want)
		}
	}

	if tracker.Snapshot().Count != 1 {
		t.Errorf("Expected one recorded batch latency, got %d", tracker.Snapshot().Count)
	}
}

func TestPredictSingleFromFeatureMap(t *testing.T) {
	tracker := latency.NewTracker()
	p, _ := trainedPredictor(t, tracker)

	pred, err := p.Predict(map[string]float64{"device": 3, "noise": 5})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(pred-3000) > 3000*0.05 {
		t.Errorf("Expected prediction near 3000, got %v", pred)
	}

	// Absent features default to zero instead of erroring.
	if _, err := p.Predict(map[string]float64{"device": 1}); err != nil {
		t.Errorf("Predict with partial features should succeed, got %v", err)
	}

	if tracker.Snapshot().Count != 2 {
		t.Errorf("Expected 2 recorded latencies, got %d", tracker.Snapshot().Count)
	}
}

func TestEncodeFeaturesUsesPersistedEncoding(t *testing.T) {
	enc := features.NewEncoding()
	enc.Columns["browser"] = []string{"Chrome", "Firefox", "Safari"}

	f := trainingFrame(t, 100)
	art, err := Train(f, enc, testModelConfig())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	p := NewPredictor(nil)
	p.SetArtifacts(art)

	out, err := p.EncodeFeatures(map[string]interface{}{
		"device":  2.0,
		"browser": "Firefox",
	})
	if err != nil {
		t.Fatalf("EncodeFeatures failed: %v", err)
	}
	if out["device"] != 2 {
		t.Errorf("Numeric value should pass through, got %v", out["device"])
	}
	if out["browser"] != 1 {
		t.Errorf("Firefox should encode to 1, got %v", out["browser"])
	}

	if _, err := p.EncodeFeatures(map[string]interface{}{"browser": "Netscape"}); err == nil {
		t.Error("Expected error for category absent from the persisted encoding")
	}
	if _, err := p.EncodeFeatures(map[string]interface{}{"device": "mobile"}); err == nil {
		t.Error("Expected error for a string value on a non-encoded feature")
	}
}

func TestEncodeFeaturesBeforeTraining(t *testing.T) {
	p := NewPredictor(nil)
	if _, err := p.EncodeFeatures(map[string]interface{}{"device": 1.0}); err != ErrNotTrained {
		t.Errorf("Expected ErrNotTrained, got %v", err)
	}
}

func TestPredictBatchMissingColumnsNamed(t *testing.T) {
	p, _ := trainedPredictor(t, nil)

	f := dataset.NewFrame()
	if err := f.AddColumn(numColumn("device", []float64{1, 2})); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	_, err := p.PredictBatch(f)
	if err == nil {
		t.Fatal("Expected error for missing feature column")
	}
	if !strings.Contains(err.Error(), "noise") {
		t.Errorf("Error should name the missing column, got: %v", err)
	}
}

func TestExplainLocalAccuracy(t *testing.T) {
	p, f := trainedPredictor(t, nil)

	exp, err := p.Explain(f, 3)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	sum := exp.BaselineLog
	for _, c := range exp.Contributions {
		sum += c
	}
	if math.Abs(sum-exp.PredictionLog) > 1e-9 {
		t.Errorf("Baseline + contributions = %v, prediction = %v", sum, exp.PredictionLog)
	}
	if len(exp.Contributions) != 2 {
		t.Errorf("Expected contributions for 2 features, got %d", len(exp.Contributions))
	}

	if _, err := p.Explain(f, f.NumRows()); err == nil {
		t.Error("Expected error for out-of-range row")
	}
}

func TestBenchmarkBatchesSweep(t *testing.T) {
	tracker := latency.NewTracker()
	p, f := trainedPredictor(t, tracker)

	sizes := []int{1, 10, 100}
	stats, err := p.BenchmarkBatches(f, sizes)
	if err != nil {
		t.Fatalf("BenchmarkBatches failed: %v", err)
	}
	if len(stats) != len(sizes) {
		t.Fatalf("Expected %d sweep points, got %d", len(sizes), len(stats))
	}

	for i, s := range stats {
		if s.BatchSize != sizes[i] {
			t.Errorf("Sweep point %d has batch size %d, want %d", i, s.BatchSize, sizes[i])
		}
		if s.Latency.Count != benchmarkIterations {
			t.Errorf("Sweep point %d recorded %d samples, want %d", i, s.Latency.Count, benchmarkIterations)
		}
		if s.Latency.MinMs < 0 || s.Latency.MaxMs < s.Latency.MinMs {
			t.Errorf("Sweep point %d has inconsistent stats: %+v", i, s.Latency)
		}
	}

	// The sweep feeds the shared recorder too, so the latency snapshot
	// reflects benchmark runs.
	if got := tracker.Snapshot().Count; got != len(sizes)*benchmarkIterations {
		t.Errorf("Shared recorder has %d samples, want %d", got, len(sizes)*benchmarkIterations)
	}

	if _, err := p.BenchmarkBatches(f, []int{0}); err == nil {
		t.Error("Expected error for non-positive batch size")
	}
}
