// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package rfm

import (
	"math"
	"sort"
)

// percentile returns the q-th percentile (0..1) of values using linear
// interpolation between closest ranks.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * q
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// quartileEdges returns the 0/25/50/75/100th percentile values.
func quartileEdges(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	edges := make([]float64, 5)
	for i, q := range []float64{0, 0.25, 0.5, 0.75, 1} {
		edges[i] = percentile(sorted, q)
	}
	return edges
}

// dedupEdges removes duplicate bin edges, preserving order.
func dedupEdges(edges []float64) []float64 {
	out := edges[:0:0]
	for _, e := range edges {
		if len(out) == 0 || e != out[len(out)-1] {
			out = append(out, e)
		}
	}
	return out
}

// assignBuckets maps each value onto half-open intervals (e[i], e[i+1]],
// with the first interval closed on the left so the minimum is included.
// Values that land in no interval report bucket -1.
func assignBuckets(values, edges []float64) []int {
	buckets := make([]int, len(values))
	for i, v := range values {
		buckets[i] = -1
		for b := 0; b < len(edges)-1; b++ {
			lowOK := v > edges[b] || (b == 0 && v >= edges[0])
			if lowOK && v <= edges[b+1] {
				buckets[i] = b
				break
			}
		}
	}
	return buckets
}

// QuartileBuckets ranks values into up to four equal-frequency buckets.
// Duplicate quantile edges are dropped, so heavily tied distributions yield
// fewer buckets with codes renumbered from zero. When equal-frequency
// binning degenerates entirely (a constant distribution), it falls back to
// equal-width binning over the empirical percentile edges; rows that still
// land in no bucket get bucket 0.
func QuartileBuckets(values []float64) []int {
	if len(values) == 0 {
		return nil
	}

	edges := dedupEdges(quartileEdges(values))
	if len(edges) >= 2 {
		return clampUnbucketed(assignBuckets(values, edges))
	}

	// Equal-width fallback: min-1 as the open left edge, then the
	// 25/50/75/100th percentiles.
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	fallback := dedupEdges([]float64{
		sorted[0] - 1,
		percentile(sorted, 0.25),
		percentile(sorted, 0.5),
		percentile(sorted, 0.75),
		sorted[len(sorted)-1],
	})
	if len(fallback) < 2 {
		// Constant distribution: every row shares bucket 0.
		return make([]int, len(values))
	}
	return clampUnbucketed(assignBuckets(values, fallback))
}

// clampUnbucketed maps unassigned rows (-1) to bucket 0.
func clampUnbucketed(buckets []int) []int {
	for i, b := range buckets {
		if b < 0 {
			buckets[i] = 0
		}
	}
	return buckets
}
