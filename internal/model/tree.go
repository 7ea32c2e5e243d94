// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package model

import "sort"

// Node is one node of a regression tree in array form. Internal nodes route
// on Feature <= Threshold; leaves carry Feature == -1. Every node stores the
// mean target of the training samples that reached it, which is what makes
// per-path attribution possible after training.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value"`
}

// Tree is a binary regression tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
}

// fitTree grows a tree on the rows of X selected by idx, minimizing the sum
// of squared errors of the targets at each split.
func fitTree(X [][]float64, y []float64, idx []int, p treeParams) *Tree {
	t := &Tree{}
	t.build(X, y, idx, 0, p)
	return t
}

func (t *Tree) build(X [][]float64, y []float64, idx []int, depth int, p treeParams) int {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))

	pos := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1, Value: mean})

	if depth >= p.maxDepth || len(idx) < 2*p.minSamplesLeaf {
		return pos
	}

	feature, threshold, ok := bestSplit(X, y, idx, p.minSamplesLeaf)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := t.build(X, y, left, depth+1, p)
	r := t.build(X, y, right, depth+1, p)
	t.Nodes[pos].Feature = feature
	t.Nodes[pos].Threshold = threshold
	t.Nodes[pos].Left = l
	t.Nodes[pos].Right = r
	return pos
}

// bestSplit scans every feature for the split that most reduces squared
// error, honoring the minimum leaf size. Reports false when no feature has
// two distinct values to split on.
func bestSplit(X [][]float64, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	if n < 2*minLeaf {
		return 0, 0, false
	}

	type pair struct {
		v, y float64
	}
	pairs := make([]pair, n)

	bestFeature := -1
	var bestThreshold, bestCost float64
	first := true

	numFeatures := len(X[idx[0]])
	for f := 0; f < numFeatures; f++ {
		for k, i := range idx {
			pairs[k] = pair{v: X[i][f], y: y[i]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		var leftSum, leftSq float64
		var totalSum, totalSq float64
		for _, pr := range pairs {
			totalSum += pr.y
			totalSq += pr.y * pr.y
		}

		for k := 0; k < n-1; k++ {
			leftSum += pairs[k].y
			leftSq += pairs[k].y * pairs[k].y

			nl := k + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			if pairs[k].v == pairs[k+1].v {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			cost := (leftSq - leftSum*leftSum/float64(nl)) +
				(rightSq - rightSum*rightSum/float64(nr))

			if first || cost < bestCost {
				first = false
				bestCost = cost
				bestFeature = f
				bestThreshold = (pairs[k].v + pairs[k+1].v) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// Predict walks the tree for a single row.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// contribute walks the tree for x and attributes each step's change in node
// value to the feature that was split on, accumulating into contribs. The
// root value is returned so callers can fold it into the baseline.
func (t *Tree) contribute(x []float64, scale float64, contribs []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return t.Nodes[0].Value
		}
		var next int
		if x[n.Feature] <= n.Threshold {
			next = n.Left
		} else {
			next = n.Right
		}
		contribs[n.Feature] += scale * (t.Nodes[next].Value - n.Value)
		i = next
	}
}
