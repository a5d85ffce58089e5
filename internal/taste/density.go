// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import (
	"math"
	"sort"
)

// noiseLabel marks points not assigned to any density cluster.
const noiseLabel = -1

// densityCluster runs a density-based clustering over the vectors: points
// with at least minSamples neighbors within eps form cluster cores, cores
// within eps of each other merge, and border points join the nearest core's
// cluster. Clusters smaller than minClusterSize are dissolved back into
// noise. Returns per-point labels (noiseLabel for noise) and the number of
// surviving clusters.
//
// eps is chosen from the data itself: the median distance to each point's
// minSamples-th nearest neighbor. This tracks the dataset's own density
// instead of requiring a hand-tuned radius per embedding model.
func densityCluster(vectors []Vector, minClusterSize, minSamples int) ([]int, int) {
	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = noiseLabel
	}
	if n == 0 {
		return labels, 0
	}

	dist := pairwiseDistances(vectors)
	eps := estimateEps(dist, minSamples)
	if eps <= 0 {
		// All points coincide; one cluster if it is large enough.
		if n >= minClusterSize {
			for i := range labels {
				labels[i] = 0
			}
			return labels, 1
		}
		return labels, 0
	}

	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && dist[i][j] <= eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	// Expand clusters from unvisited core points.
	next := 0
	visited := make([]bool, n)
	for i := 0; i < n; i++ {
		if visited[i] || len(neighbors[i]) < minSamples {
			continue
		}
		visited[i] = true
		labels[i] = next

		queue := append([]int(nil), neighbors[i]...)
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if labels[p] == noiseLabel {
				labels[p] = next
			}
			if visited[p] {
				continue
			}
			visited[p] = true
			if len(neighbors[p]) >= minSamples {
				queue = append(queue, neighbors[p]...)
			}
		}
		next++
	}

	return dissolveSmall(labels, next, minClusterSize)
}

// dissolveSmall relabels clusters under minClusterSize as noise and
// compacts the remaining cluster IDs to 0..m-1.
func dissolveSmall(labels []int, clusters, minClusterSize int) ([]int, int) {
	sizes := make([]int, clusters)
	for _, l := range labels {
		if l != noiseLabel {
			sizes[l]++
		}
	}

	remap := make([]int, clusters)
	kept := 0
	for c, size := range sizes {
		if size >= minClusterSize {
			remap[c] = kept
			kept++
		} else {
			remap[c] = noiseLabel
		}
	}
	for i, l := range labels {
		if l != noiseLabel {
			labels[i] = remap[l]
		}
	}
	return labels, kept
}

// estimateEps returns the median k-distance (k = minSamples) across all
// points, the classic knee heuristic for a DBSCAN radius.
func estimateEps(dist [][]float64, minSamples int) float64 {
	n := len(dist)
	if n < 2 {
		return 0
	}
	k := minSamples
	if k > n-1 {
		k = n - 1
	}

	kDists := make([]float64, 0, n)
	row := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		row = row[:0]
		for j := 0; j < n; j++ {
			if i != j {
				row = append(row, dist[i][j])
			}
		}
		sort.Float64s(row)
		kDists = append(kDists, row[k-1])
	}
	sort.Float64s(kDists)
	return kDists[len(kDists)/2]
}

func pairwiseDistances(vectors []Vector) [][]float64 {
	n := len(vectors)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Sqrt(sqDist(vectors[i], vectors[j]))
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}
