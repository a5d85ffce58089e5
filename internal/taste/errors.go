// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package taste

import "errors"

var (
	// ErrInvalidInput indicates malformed caller input: empty or
	// mismatched sample sets, inconsistent embedding dimensions, an empty
	// centroid list for scoring, or an unparseable watch date. It is
	// surfaced to the immediate caller and never silently coerced, except
	// for the explicit clamp and default-date rules of the weighting model.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClusteringFailed indicates that every clustering attempt failed:
	// all candidate k values in the sweep, or the density method together
	// with its k-means fallback. The core does not retry; the orchestrator
	// decides whether to rebuild with different parameters or abort.
	ErrClusteringFailed = errors.New("clustering failed")
)
