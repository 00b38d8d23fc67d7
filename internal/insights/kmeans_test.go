// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package insights

import (
	"reflect"
	"testing"
)

func twoBlobs() [][]float64 {
	return [][]float64{
		{0, 0}, {0.1, 0.2}, {0.2, 0.1}, {0.1, 0.1},
		{10, 10}, {10.1, 9.9}, {9.8, 10.2}, {10, 10.1},
	}
}

func TestKMeansSeparatesClusters(t *testing.T) {
	t.Parallel()

	res := KMeans(twoBlobs(), DefaultKMeansParams(2))
	if len(res.Labels) != 8 || len(res.Centroids) != 2 {
		t.Fatalf("labels=%v centroids=%v", res.Labels, res.Centroids)
	}
	for i := 1; i < 4; i++ {
		if res.Labels[i] != res.Labels[0] {
			t.Errorf("point %d not with first blob: %v", i, res.Labels)
		}
	}
	for i := 5; i < 8; i++ {
		if res.Labels[i] != res.Labels[4] {
			t.Errorf("point %d not with second blob: %v", i, res.Labels)
		}
	}
	if res.Labels[0] == res.Labels[4] {
		t.Errorf("blobs share a cluster: %v", res.Labels)
	}
	if res.Inertia > 1 {
		t.Errorf("inertia = %v, want small", res.Inertia)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	t.Parallel()

	a := KMeans(twoBlobs(), DefaultKMeansParams(3))
	b := KMeans(twoBlobs(), DefaultKMeansParams(3))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("runs differ:\n%+v\n%+v", a, b)
	}
}

func TestKMeansEdgeCases(t *testing.T) {
	t.Parallel()

	if res := KMeans(nil, DefaultKMeansParams(4)); res.Labels != nil {
		t.Errorf("empty input = %+v", res)
	}

	res := KMeans([][]float64{{1}, {2}}, DefaultKMeansParams(4))
	if len(res.Centroids) != 2 {
		t.Errorf("k not capped at rows: %d centroids", len(res.Centroids))
	}

	same := [][]float64{{5, 5}, {5, 5}, {5, 5}}
	res = KMeans(same, DefaultKMeansParams(2))
	if res.Inertia != 0 {
		t.Errorf("identical points inertia = %v", res.Inertia)
	}
}
