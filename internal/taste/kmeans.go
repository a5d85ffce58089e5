// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import (
	"fmt"
	"math"
	"math/rand"
)

// kmeansResult holds the outcome of a single k-means run.
type kmeansResult struct {
	assignments []int
	centers     []Vector
	inertia     float64
	k           int
}

// runKMeans executes Lloyd's algorithm with k-means++ initialization and
// multiple restarts, returning the run with the lowest weighted inertia.
// The rng is owned by the caller so a fixed seed yields identical results.
func runKMeans(vectors []Vector, weights []float64, k, restarts, maxIter int, rng *rand.Rand) (*kmeansResult, error) {
	n := len(vectors)
	if k < 2 || k >= n {
		return nil, fmt.Errorf("k=%d out of range for %d points", k, n)
	}

	var best *kmeansResult
	for r := 0; r < restarts; r++ {
		centers := seedCenters(vectors, weights, k, rng)
		assignments := make([]int, n)
		for iter := 0; iter < maxIter; iter++ {
			changed := assignPoints(vectors, centers, assignments)
			recomputeCenters(vectors, weights, assignments, centers, rng)
			if !changed {
				break
			}
		}

		inertia := 0.0
		for i, v := range vectors {
			inertia += weights[i] * sqDist(v, centers[assignments[i]])
		}
		if best == nil || inertia < best.inertia {
			best = &kmeansResult{
				assignments: assignments,
				centers:     centers,
				inertia:     inertia,
				k:           k,
			}
		}
	}
	return best, nil
}

// seedCenters implements weighted k-means++ seeding: the first center is
// drawn proportional to sample weight, each subsequent one proportional to
// weight times squared distance from the nearest chosen center.
func seedCenters(vectors []Vector, weights []float64, k int, rng *rand.Rand) []Vector {
	n := len(vectors)
	centers := make([]Vector, 0, k)

	first := weightedPick(weights, rng)
	centers = append(centers, cloneVector(vectors[first]))

	dists := make([]float64, n)
	for i, v := range vectors {
		dists[i] = sqDist(v, centers[0])
	}

	probs := make([]float64, n)
	for len(centers) < k {
		for i := range probs {
			probs[i] = weights[i] * dists[i]
		}
		next := weightedPick(probs, rng)
		centers = append(centers, cloneVector(vectors[next]))
		for i, v := range vectors {
			if d := sqDist(v, centers[len(centers)-1]); d < dists[i] {
				dists[i] = d
			}
		}
	}
	return centers
}

// assignPoints moves each point to its nearest center and reports whether
// any assignment changed.
func assignPoints(vectors []Vector, centers []Vector, assignments []int) bool {
	changed := false
	for i, v := range vectors {
		bestIdx := 0
		bestDist := math.Inf(1)
		for c, center := range centers {
			if d := sqDist(v, center); d < bestDist {
				bestDist = d
				bestIdx = c
			}
		}
		if assignments[i] != bestIdx {
			assignments[i] = bestIdx
			changed = true
		}
	}
	return changed
}

// recomputeCenters replaces each center with the weighted mean of its
// members. An emptied center is reseeded from a random point so k is
// preserved through the run.
func recomputeCenters(vectors []Vector, weights []float64, assignments []int, centers []Vector, rng *rand.Rand) {
	dim := len(vectors[0])
	sums := make([][]float64, len(centers))
	totals := make([]float64, len(centers))
	for c := range centers {
		sums[c] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := assignments[i]
		w := weights[i]
		totals[c] += w
		for d, x := range v {
			sums[c][d] += w * x
		}
	}
	for c := range centers {
		if totals[c] <= 0 {
			centers[c] = cloneVector(vectors[rng.Intn(len(vectors))])
			continue
		}
		for d := range centers[c] {
			centers[c][d] = sums[c][d] / totals[c]
		}
	}
}

// silhouetteScore computes the mean silhouette coefficient over all points.
// Points in singleton clusters contribute zero, matching the convention that
// a lone point carries no cohesion evidence.
func silhouetteScore(vectors []Vector, assignments []int, k int) float64 {
	n := len(vectors)
	if n < 2 || k < 2 {
		return 0
	}

	sizes := make([]int, k)
	for _, c := range assignments {
		sizes[c]++
	}

	total := 0.0
	meanDists := make([]float64, k)
	counts := make([]int, k)
	for i := 0; i < n; i++ {
		for c := range meanDists {
			meanDists[c] = 0
			counts[c] = 0
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := math.Sqrt(sqDist(vectors[i], vectors[j]))
			meanDists[assignments[j]] += d
			counts[assignments[j]]++
		}

		own := assignments[i]
		if sizes[own] < 2 {
			continue // singleton, contributes 0
		}
		a := meanDists[own] / float64(counts[own])

		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			if m := meanDists[c] / float64(counts[c]); m < b {
				b = m
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}

func weightedPick(weights []float64, rng *rand.Rand) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	target := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if acc >= target {
			return i
		}
	}
	return len(weights) - 1
}

func sqDist(a, b Vector) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneVector(v Vector) Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}
