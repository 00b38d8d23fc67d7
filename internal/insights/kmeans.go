// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package insights

import (
	"math"
	"math/rand"
)

// KMeansParams controls clustering.
type KMeansParams struct {
	K       int
	NInit   int // independent restarts; the lowest inertia run wins
	MaxIter int
	Seed    int64
}

// DefaultKMeansParams returns k-means++ defaults for k clusters.
func DefaultKMeansParams(k int) KMeansParams {
	return KMeansParams{K: k, NInit: 10, MaxIter: 300, Seed: 42}
}

// KMeansResult holds the winning run.
type KMeansResult struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// KMeans clusters rows with Lloyd's algorithm seeded by k-means++. K is
// capped at the number of rows. The result is deterministic for a seed.
func KMeans(X [][]float64, p KMeansParams) KMeansResult {
	n := len(X)
	if n == 0 || p.K <= 0 {
		return KMeansResult{}
	}
	k := min(p.K, n)
	if p.NInit < 1 {
		p.NInit = 1
	}
	if p.MaxIter < 1 {
		p.MaxIter = 1
	}

	rng := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // deterministic seeding, not security sensitive
	best := KMeansResult{Inertia: math.Inf(1)}
	for run := 0; run < p.NInit; run++ {
		centroids := seedPlusPlus(X, k, rng)
		labels, inertia := lloyd(X, centroids, p.MaxIter)
		if inertia < best.Inertia {
			best = KMeansResult{Labels: labels, Centroids: centroids, Inertia: inertia}
		}
	}
	return best
}

// seedPlusPlus picks initial centroids with probability proportional to
// squared distance from the nearest chosen centroid.
func seedPlusPlus(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(X[rng.Intn(len(X))]))

	dist := make([]float64, len(X))
	for len(centroids) < k {
		var total float64
		for i, x := range X {
			d := math.Inf(1)
			for _, c := range centroids {
				d = math.Min(d, sqDist(x, c))
			}
			dist[i] = d
			total += d
		}

		next := rng.Intn(len(X))
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, d := range dist {
				acc += d
				if acc >= target {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, clone(X[next]))
	}
	return centroids
}

// lloyd iterates assignment and update steps until labels stop changing.
// Empty clusters keep their previous centroid.
func lloyd(X [][]float64, centroids [][]float64, maxIter int) ([]int, float64) {
	labels := make([]int, len(X))
	for i := range labels {
		labels[i] = -1
	}
	dims := len(X[0])

	var inertia float64
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		inertia = 0
		for i, x := range X {
			bestC, bestD := 0, math.Inf(1)
			for c, cent := range centroids {
				if d := sqDist(x, cent); d < bestD {
					bestC, bestD = c, d
				}
			}
			if labels[i] != bestC {
				labels[i] = bestC
				changed = true
			}
			inertia += bestD
		}
		if !changed {
			break
		}

		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, x := range X {
			c := labels[i]
			counts[c]++
			for d, v := range x {
				sums[c][d] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}
	return labels, inertia
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(x []float64) []float64 {
	return append([]float64(nil), x...)
}
