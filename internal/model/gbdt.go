// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package model implements gradient-boosted regression trees for per-visit
// revenue prediction, with per-feature attribution, artifact persistence,
// and a serving-side predictor that reports its own latency distribution.
package model

import (
	"errors"

	"github.com/revenuescope/revenuescope/internal/logging"
)

// GBDT is a gradient-boosted ensemble of regression trees fit on the
// log-transformed revenue target. Bias is the mean training target; each
// tree corrects the residual of the ensemble so far, damped by LearningRate.
type GBDT struct {
	Bias         float64  `json:"bias"`
	LearningRate float64  `json:"learning_rate"`
	Features     []string `json:"features"`
	Trees        []*Tree  `json:"trees"`
}

// BoostParams are the ensemble hyperparameters.
type BoostParams struct {
	Trees          int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
}

// fitGBDT boosts p.Trees regression trees on X and the (already
// transformed) targets y. Rows of X follow the order of features.
func fitGBDT(X [][]float64, y []float64, features []string, p BoostParams) (*GBDT, error) {
	if len(X) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(X) != len(y) {
		return nil, errors.New("feature matrix and target length mismatch")
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	m := &GBDT{
		Bias:         sum / float64(len(y)),
		LearningRate: p.LearningRate,
		Features:     features,
	}

	residuals := make([]float64, len(y))
	for i, v := range y {
		residuals[i] = v - m.Bias
	}

	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	tp := treeParams{maxDepth: p.MaxDepth, minSamplesLeaf: p.MinSamplesLeaf}

	for round := 0; round < p.Trees; round++ {
		t := fitTree(X, residuals, idx, tp)
		m.Trees = append(m.Trees, t)
		for i := range residuals {
			residuals[i] -= p.LearningRate * t.Predict(X[i])
		}
		if (round+1)%50 == 0 {
			logging.Debug().
				Int("round", round+1).
				Int("total", p.Trees).
				Msg("Boosting progress")
		}
	}
	return m, nil
}

// PredictRaw returns the ensemble output in transformed (log) space.
func (m *GBDT) PredictRaw(x []float64) float64 {
	out := m.Bias
	for _, t := range m.Trees {
		out += m.LearningRate * t.Predict(x)
	}
	return out
}
