// Package reporting computes participation rates against the
// challenge-day index: one expected entry per participant per elapsed
// day, compared with the entries actually on record.
package reporting

import "math"

type Rate struct {
	Expected   int     `json:"expected"`
	Actual     int     `json:"actual"`
	Percentage float64 `json:"percentage"`
}

// Calculate returns the reporting rate for a scope of participantCount
// users at the given challenge day. challengeDay 0 means the challenge
// has not started: expected is 0 and the percentage is 0, never a
// division by zero.
func Calculate(participantCount, challengeDay, actual int) Rate {
	expected := participantCount * challengeDay
	r := Rate{Expected: expected, Actual: actual}
	if expected > 0 {
		r.Percentage = round2(float64(actual) * 100 / float64(expected))
	}
	return r
}

// InWindow reports whether an entry date falls inside the elapsed
// portion of the challenge: [startDate, startDate + challengeDay - 1].
// Dates are YYYY-MM-DD strings, which compare correctly as strings;
// the end bound is supplied pre-computed by the caller.
func InWindow(entryDate, startDate, lastElapsedDate string) bool {
	return entryDate >= startDate && entryDate <= lastElapsedDate
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
