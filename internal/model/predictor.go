// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/revenuescope/revenuescope/internal/dataset"
	"github.com/revenuescope/revenuescope/internal/latency"
	"github.com/revenuescope/revenuescope/internal/logging"
)

// Predictor serves revenue predictions from loaded artifacts. Artifacts can
// be swapped at runtime after a retrain; every batch prediction is timed
// and reported to the latency recorder.
type Predictor struct {
	mu      sync.RWMutex
	art     *Artifacts
	tracker latency.Recorder
}

// NewPredictor returns a predictor with no artifacts loaded. rec may be nil
// when latency reporting is not wanted.
func NewPredictor(rec latency.Recorder) *Predictor {
	return &Predictor{tracker: rec}
}

// SetArtifacts installs freshly trained or loaded artifacts.
func (p *Predictor) SetArtifacts(a *Artifacts) {
	p.mu.Lock()
	p.art = a
	p.mu.Unlock()
}

// Artifacts returns the currently installed artifacts, or ErrNotTrained.
func (p *Predictor) Artifacts() (*Artifacts, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.art == nil || p.art.Model == nil {
		return nil, ErrNotTrained
	}
	return p.art, nil
}

// Ready reports whether a model is installed.
func (p *Predictor) Ready() bool {
	_, err := p.Artifacts()
	return err == nil
}

// EncodeFeatures resolves raw request values into model inputs. Numeric
// values pass through; string values are translated through the category
// encoding persisted with the model, so serving-time codes can never drift
// from the codes the model was trained on.
func (p *Predictor) EncodeFeatures(raw map[string]interface{}) (map[string]float64, error) {
	art, err := p.Artifacts()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case float64:
			out[name] = v
		case string:
			if art.Encoding == nil || !art.Encoding.HasColumn(name) {
				return nil, fmt.Errorf("feature %q is not category-encoded and needs a numeric value", name)
			}
			code, ok := art.Encoding.Code(name, v)
			if !ok {
				return nil, fmt.Errorf("unknown category %q for feature %q", v, name)
			}
			out[name] = float64(code)
		default:
			return nil, fmt.Errorf("feature %q has unsupported value type %T", name, value)
		}
	}
	return out, nil
}

// Predict scores a single observation given by feature name. Feature
// completeness is the caller's concern: absent features default to zero
// rather than erroring, matching the interactive single-prediction path.
func (p *Predictor) Predict(features map[string]float64) (float64, error) {
	art, err := p.Artifacts()
	if err != nil {
		return 0, err
	}

	x := make([]float64, len(art.Model.Features))
	for i, name := range art.Model.Features {
		x[i] = features[name]
	}

	start := time.Now()
	out := invertTarget(art.Model.PredictRaw(x))
	if p.tracker != nil {
		p.tracker.Record(time.Since(start))
	}
	return out, nil
}

// PredictBatch scores every row of an engineered frame. The frame must
// carry all feature columns the model was trained on; missing ones are
// reported by name. Predictions are inverted out of log space and clamped
// to be non-negative.
func (p *Predictor) PredictBatch(f *dataset.Frame) ([]float64, error) {
	art, err := p.Artifacts()
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range art.Model.Features {
		if !f.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("frame is missing model feature columns: %s",
			strings.Join(missing, ", "))
	}

	X, err := f.NumericMatrix(art.Model.Features)
	if err != nil {
		return nil, fmt.Errorf("building prediction matrix: %w", err)
	}

	start := time.Now()
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = invertTarget(art.Model.PredictRaw(x))
	}
	elapsed := time.Since(start)

	if p.tracker != nil {
		p.tracker.Record(elapsed)
	}
	return out, nil
}

// Explanation is a single prediction decomposed into additive per-feature
// terms. Baseline plus the sum of contributions equals the log-space
// prediction exactly.
type Explanation struct {
	Prediction    float64            `json:"prediction"`
	PredictionLog float64            `json:"prediction_log"`
	BaselineLog   float64            `json:"baseline_log"`
	Contributions map[string]float64 `json:"contributions"`
}

// Explain scores one row of an engineered frame and attributes the
// log-space prediction to individual features.
func (p *Predictor) Explain(f *dataset.Frame, row int) (*Explanation, error) {
	art, err := p.Artifacts()
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= f.NumRows() {
		return nil, fmt.Errorf("row %d out of range [0,%d)", row, f.NumRows())
	}

	X, err := f.NumericMatrix(art.Model.Features)
	if err != nil {
		return nil, fmt.Errorf("building prediction matrix: %w", err)
	}

	baseline, contribs := art.Model.Contributions(X[row])
	rawLog := art.Model.PredictRaw(X[row])

	byName := make(map[string]float64, len(contribs))
	for i, name := range art.Model.Features {
		byName[name] = contribs[i]
	}

	return &Explanation{
		Prediction:    invertTarget(rawLog),
		PredictionLog: rawLog,
		BaselineLog:   baseline,
		Contributions: byName,
	}, nil
}

// BatchStats pairs a batch size with the latency distribution observed
// while repeatedly scoring batches of that size.
type BatchStats struct {
	BatchSize int           `json:"batch_size"`
	Latency   latency.Stats `json:"latency"`
}

// benchmarkIterations is how many timed batches each size in a sweep runs.
const benchmarkIterations = 20

// BenchmarkBatches times repeated predictions over batches of the given
// sizes, cycling rows from the reference frame to fill each batch. This is
// the serving-latency sweep surfaced on the dashboard. Each timed batch
// also feeds the shared latency recorder, so the snapshot endpoint
// reflects benchmark activity alongside regular predictions.
func (p *Predictor) BenchmarkBatches(f *dataset.Frame, sizes []int) ([]BatchStats, error) {
	art, err := p.Artifacts()
	if err != nil {
		return nil, err
	}
	if f.NumRows() == 0 {
		return nil, fmt.Errorf("reference frame has no rows")
	}

	X, err := f.NumericMatrix(art.Model.Features)
	if err != nil {
		return nil, fmt.Errorf("building prediction matrix: %w", err)
	}

	out := make([]BatchStats, 0, len(sizes))
	for _, size := range sizes {
		if size < 1 {
			return nil, fmt.Errorf("batch size must be positive, got %d", size)
		}

		batch := make([][]float64, size)
		for i := 0; i < size; i++ {
			batch[i] = X[i%len(X)]
		}

		tr := latency.NewTracker()
		for iter := 0; iter < benchmarkIterations; iter++ {
			start := time.Now()
			for _, x := range batch {
				invertTarget(art.Model.PredictRaw(x))
			}
			elapsed := time.Since(start)
			tr.Record(elapsed)
			if p.tracker != nil {
				p.tracker.Record(elapsed)
			}
		}

		stats := tr.Snapshot()
		logging.Debug().
			Int("batch_size", size).
			Float64("avg_ms", stats.AvgMs).
			Msg("Batch latency sweep point")
		out = append(out, BatchStats{BatchSize: size, Latency: stats})
	}
	return out, nil
}

// invertTarget maps a log-space prediction back to revenue units.
func invertTarget(logValue float64) float64 {
	v := math.Expm1(logValue)
	if v < 0 {
		return 0
	}
	return v
}
