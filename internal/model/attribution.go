// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package model

import (
	"math"
	"sort"
)

// FeatureImportance ranks one feature by the mean absolute contribution it
// makes to predictions across a reference set. Share is MeanAbs normalized
// over all features so it sums to 1.
type FeatureImportance struct {
	Name    string  `json:"name"`
	MeanAbs float64 `json:"mean_abs"`
	Share   float64 `json:"share"`
}

// Contributions decomposes a single prediction into a baseline plus one
// additive term per feature, in log space. The terms are exact: baseline
// plus the sum of contributions equals PredictRaw(x). Each tree's path is
// walked and the change in expected value at every split is attributed to
// the split feature.
func (m *GBDT) Contributions(x []float64) (baseline float64, contribs []float64) {
	contribs = make([]float64, len(m.Features))
	baseline = m.Bias
	for _, t := range m.Trees {
		baseline += m.LearningRate * t.contribute(x, m.LearningRate, contribs)
	}
	return baseline, contribs
}

// Importance computes global feature importance as the mean absolute
// per-feature contribution over the rows of X, sorted descending.
func (m *GBDT) Importance(X [][]float64) []FeatureImportance {
	acc := make([]float64, len(m.Features))
	for _, x := range X {
		_, contribs := m.Contributions(x)
		for i, c := range contribs {
			acc[i] += math.Abs(c)
		}
	}

	var total float64
	out := make([]FeatureImportance, len(m.Features))
	for i, name := range m.Features {
		mean := 0.0
		if len(X) > 0 {
			mean = acc[i] / float64(len(X))
		}
		out[i] = FeatureImportance{Name: name, MeanAbs: mean}
		total += mean
	}
	if total > 0 {
		for i := range out {
			out[i].Share = out[i].MeanAbs / total
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].MeanAbs > out[b].MeanAbs })
	return out
}

// TopFeatures returns the names of the n highest-ranked features.
func TopFeatures(ranking []FeatureImportance, n int) []string {
	if n > len(ranking) {
		n = len(ranking)
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = ranking[i].Name
	}
	return names
}
