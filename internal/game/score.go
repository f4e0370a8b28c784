// SPDX-License-Identifier: MIT

package game

import "math"

const (
	basePoints   = 1000
	maxTimeBonus = 500
)

// Score computes the points for an answer. Incorrect answers earn nothing.
// Correct answers earn the base plus a linear time bonus: full bonus at
// zero elapsed seconds, none at or past the limit. The client timestamp is
// trusted; negative values are clamped to zero.
func Score(correct bool, elapsedSeconds float64, limitSeconds int) int {
	if !correct {
		return 0
	}
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	if limitSeconds <= 0 {
		return basePoints
	}
	limit := float64(limitSeconds)
	if elapsedSeconds > limit {
		elapsedSeconds = limit
	}
	bonus := int(math.Floor(math.Max(0, 1-elapsedSeconds/limit) * maxTimeBonus))
	return basePoints + bonus
}
