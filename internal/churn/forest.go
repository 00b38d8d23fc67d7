// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package churn

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// ForestParams controls random forest training.
type ForestParams struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	Seed            int64 `json:"seed"`
}

// DefaultForestParams mirrors the classic 100-tree, depth-10 setup.
func DefaultForestParams() ForestParams {
	return ForestParams{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 20,
		Seed:            42,
	}
}

// Node is one node of a flattened decision tree. Leaves carry the fraction
// of positive (churned) training samples that reached them.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// Tree is a binary CART tree stored as a node slice rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a bagged ensemble of gini-split classification trees.
type Forest struct {
	Params ForestParams `json:"params"`
	Trees  []Tree       `json:"trees"`
}

var errEmptyTrainingSet = errors.New("empty training set")

// FitForest trains a forest on rows X with binary labels y (1 = churned).
// Each tree sees a bootstrap sample and considers sqrt(features) candidate
// columns per split.
func FitForest(X [][]float64, y []int, p ForestParams) (*Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, errEmptyTrainingSet
	}
	if p.Trees <= 0 {
		p.Trees = 1
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = math.MaxInt32
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}

	nFeatures := len(X[0])
	maxFeatures := int(math.Sqrt(float64(nFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rng := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // deterministic bagging, not security sensitive
	f := &Forest{Params: p, Trees: make([]Tree, p.Trees)}
	for t := range f.Trees {
		b := &treeBuilder{
			X:           X,
			y:           y,
			maxDepth:    p.MaxDepth,
			minSplit:    p.MinSamplesSplit,
			maxFeatures: maxFeatures,
			nFeatures:   nFeatures,
			rng:         rand.New(rand.NewSource(rng.Int63())), //nolint:gosec // see above
		}
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = b.rng.Intn(len(X))
		}
		b.build(idx, 0)
		f.Trees[t] = Tree{Nodes: b.nodes}
	}
	return f, nil
}

// PredictProba returns the mean positive-class probability across trees.
func (f *Forest) PredictProba(x []float64) float64 {
	if f == nil || len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Accuracy is the share of rows whose thresholded prediction matches y.
func (f *Forest) Accuracy(X [][]float64, y []int) float64 {
	if len(X) == 0 {
		return 0
	}
	correct := 0
	for i, row := range X {
		pred := 0
		if f.PredictProba(row) >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func (t *Tree) predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		var v float64
		if n.Feature < len(x) {
			v = x[n.Feature]
		}
		if v <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
		if i < 0 || i >= len(t.Nodes) {
			return 0
		}
	}
	return 0
}

// validate rejects trees whose child links point outside the node slice.
func (f *Forest) validate(nFeatures int) error {
	if f == nil || len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for ti := range f.Trees {
		nodes := f.Trees[ti].Nodes
		if len(nodes) == 0 {
			return errors.New("tree has no nodes")
		}
		for _, n := range nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= nFeatures ||
				n.Left <= 0 || n.Left >= len(nodes) || n.Right <= 0 || n.Right >= len(nodes) {
				return errors.New("tree node out of range")
			}
		}
	}
	return nil
}

type treeBuilder struct {
	X           [][]float64
	y           []int
	maxDepth    int
	minSplit    int
	maxFeatures int
	nFeatures   int
	rng         *rand.Rand
	nodes       []Node
}

// build appends the subtree for idx and returns its node index.
func (b *treeBuilder) build(idx []int, depth int) int {
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Value: float64(pos) / float64(len(idx))})

	if depth >= b.maxDepth || len(idx) < b.minSplit || pos == 0 || pos == len(idx) {
		return self
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return self
	}
	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return self
}

// bestSplit searches a random feature subset for the threshold with the
// lowest weighted gini impurity.
func (b *treeBuilder) bestSplit(idx []int, pos int) (feature int, threshold float64, ok bool) {
	n := float64(len(idx))
	best := gini(pos, len(idx))
	sorted := make([]int, len(idx))

	for _, f := range b.rng.Perm(b.nFeatures)[:b.maxFeatures] {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.X[sorted[i]][f] < b.X[sorted[j]][f] })

		leftPos := 0
		for k := 1; k < len(sorted); k++ {
			leftPos += b.y[sorted[k-1]]
			lo, hi := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if lo == hi {
				continue
			}
			leftN, rightN := k, len(sorted)-k
			impurity := float64(leftN)/n*gini(leftPos, leftN) + float64(rightN)/n*gini(pos-leftPos, rightN)
			if impurity < best-1e-12 {
				best = impurity
				feature, threshold, ok = f, (lo+hi)/2, true
			}
		}
	}
	return feature, threshold, ok
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
