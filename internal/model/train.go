// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package model

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/revenuescope/revenuescope/internal/config"
	"github.com/revenuescope/revenuescope/internal/dataset"
	"github.com/revenuescope/revenuescope/internal/features"
	"github.com/revenuescope/revenuescope/internal/logging"
)

// TargetColumn is the per-visit transaction revenue column the model
// predicts.
const TargetColumn = "totals.transactionRevenue"

// Metrics reports holdout quality in the log space the model trains in and
// in the original revenue space after inverting the transform.
type Metrics struct {
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	RMSELog   float64 `json:"rmse_log"`
	R2Log     float64 `json:"r2_log"`
	RMSE      float64 `json:"rmse"`
	R2        float64 `json:"r2"`
}

// Artifacts bundles everything produced by a training run: the ensemble,
// the category encoding it was trained against, holdout metrics, and the
// importance ranking. The encoding travels with the model so serving-time
// category codes can never drift from training-time codes.
type Artifacts struct {
	Model       *GBDT               `json:"model"`
	Encoding    *features.Encoding  `json:"encoding"`
	Metrics     Metrics             `json:"metrics"`
	Importance  []FeatureImportance `json:"importance"`
	TopFeatures []string            `json:"top_features"`
	TrainedAt   time.Time           `json:"trained_at"`
}

// Train fits the revenue model on an engineered frame. The target is
// log1p-transformed; rows are shuffled with the configured seed and split
// into train and holdout sets; importance is computed over the training
// rows.
func Train(f *dataset.Frame, enc *features.Encoding, cfg config.ModelConfig) (*Artifacts, error) {
	featureNames := featureColumns(f)
	if len(featureNames) == 0 {
		return nil, fmt.Errorf("no numeric feature columns in frame")
	}

	X, err := f.NumericMatrix(featureNames)
	if err != nil {
		return nil, fmt.Errorf("building feature matrix: %w", err)
	}

	targetCol := f.Column(TargetColumn)
	if targetCol == nil {
		return nil, fmt.Errorf("target column %q not found", TargetColumn)
	}
	y := make([]float64, targetCol.Len())
	for i := range y {
		v, ok := targetCol.Float(i)
		if !ok || v < 0 {
			// Missing revenue means no transaction on the visit.
			v = 0
		}
		y[i] = math.Log1p(v)
	}

	trainIdx, testIdx, err := splitIndices(len(y), cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Int("features", len(featureNames)).
		Int("train_rows", len(trainIdx)).
		Int("test_rows", len(testIdx)).
		Int("trees", cfg.Trees).
		Float64("learning_rate", cfg.LearningRate).
		Msg("Training revenue model")

	trainX, trainY := selectRows(X, y, trainIdx)
	testX, testY := selectRows(X, y, testIdx)

	m, err := fitGBDT(trainX, trainY, featureNames, BoostParams{
		Trees:          cfg.Trees,
		LearningRate:   cfg.LearningRate,
		MaxDepth:       cfg.MaxDepth,
		MinSamplesLeaf: cfg.MinSamplesLeaf,
	})
	if err != nil {
		return nil, fmt.Errorf("boosting: %w", err)
	}

	metrics := evaluate(m, testX, testY)
	metrics.TrainRows = len(trainIdx)
	metrics.TestRows = len(testIdx)

	ranking := m.Importance(trainX)

	logging.Info().
		Float64("rmse_log", metrics.RMSELog).
		Float64("r2_log", metrics.R2Log).
		Msg("Holdout evaluation complete")

	return &Artifacts{
		Model:       m,
		Encoding:    enc,
		Metrics:     metrics,
		Importance:  ranking,
		TopFeatures: TopFeatures(ranking, cfg.TopFeatures),
		TrainedAt:   time.Now().UTC(),
	}, nil
}

// featureColumns lists the numeric columns of the frame in declaration
// order, excluding the target. This order is persisted with the model and
// reused verbatim at serving time.
func featureColumns(f *dataset.Frame) []string {
	var names []string
	for _, name := range f.ColumnNames() {
		if name == TargetColumn {
			continue
		}
		c := f.Column(name)
		if c.Kind == dataset.KindNumeric {
			names = append(names, name)
		}
	}
	return names
}

func splitIndices(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to split, have %d", n)
	}
	nTest := int(float64(n) * testFraction)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

func selectRows(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for k, i := range idx {
		outX[k] = X[i]
		outY[k] = y[i]
	}
	return outX, outY
}

// evaluate scores the model on a holdout set, reporting RMSE and R-squared
// both in log space and back in revenue units via expm1.
func evaluate(m *GBDT, X [][]float64, y []float64) Metrics {
	var mt Metrics
	if len(y) == 0 {
		return mt
	}

	predLog := make([]float64, len(y))
	for i, x := range X {
		predLog[i] = m.PredictRaw(x)
	}

	origY := make([]float64, len(y))
	origPred := make([]float64, len(y))
	for i := range y {
		origY[i] = math.Expm1(y[i])
		p := math.Expm1(predLog[i])
		if p < 0 {
			p = 0
		}
		origPred[i] = p
	}

	mt.RMSELog, mt.R2Log = rmseR2(y, predLog)
	mt.RMSE, mt.R2 = rmseR2(origY, origPred)
	return mt
}

func rmseR2(actual, pred []float64) (rmse, r2 float64) {
	var mean float64
	for _, v := range actual {
		mean += v
	}
	mean /= float64(len(actual))

	var ssRes, ssTot float64
	for i := range actual {
		d := actual[i] - pred[i]
		ssRes += d * d
		t := actual[i] - mean
		ssTot += t * t
	}

	rmse = math.Sqrt(ssRes / float64(len(actual)))
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	return rmse, r2
}
