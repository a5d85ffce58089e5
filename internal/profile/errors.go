// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

package profile

import "errors"

var (
	// ErrInsufficientHistory indicates too few valid high-rated items to
	// build a meaningful profile. Surfaced to the user as "not enough
	// history yet".
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrProfileNotFound indicates recommendations were requested for a
	// user who has not uploaded a history.
	ErrProfileNotFound = errors.New("profile not found")
)
