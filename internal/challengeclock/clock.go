package challengeclock

import (
	"time"

	"stepChallengeAPI/internal/apperrors"
	"stepChallengeAPI/internal/types/challenge"
)

// All calendar accounting happens in one fixed reference timezone.
// This is a deployment policy, not a per-user setting.
const ReferenceTimezone = "America/Chicago"

const dateLayout = "2006-01-02"

var refLocation *time.Location

func init() {
	loc, err := time.LoadLocation(ReferenceTimezone)
	if err != nil {
		loc = time.UTC
	}
	refLocation = loc
}

// ParseDate parses a strict YYYY-MM-DD calendar date in the reference
// timezone. Loose inputs like "today" or "2025-1-5" are rejected.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, refLocation)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be in YYYY-MM-DD format")
	}
	// time.Parse accepts some normalized forms; require the round trip
	// to match so "2025-02-30" and friends fail.
	if t.Format(dateLayout) != s {
		return time.Time{}, apperrors.NewValidationError("date must be a valid YYYY-MM-DD calendar date")
	}
	return t, nil
}

// Today truncates an instant to its calendar date in the reference
// timezone.
func Today(now time.Time) time.Time {
	y, m, d := now.In(refLocation).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, refLocation)
}

// FormatDate renders a time as its reference-timezone calendar date.
func FormatDate(t time.Time) string {
	return t.In(refLocation).Format(dateLayout)
}

// daysBetween counts whole calendar days from a to b (negative when b
// precedes a). The reference-timezone date components are rebuilt as
// UTC midnights before subtracting: a DST-shortened 23-hour day would
// otherwise truncate away under the division.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.In(refLocation).Date()
	by, bm, bd := b.In(refLocation).Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// ChallengeDay converts "now" into a 1-based day index within the
// challenge, plus the challenge's total day count.
//
//	day 0            before the start date (not yet started)
//	day totalDays    for any date past the end (frozen, never grows)
//	daysElapsed + 1  otherwise (the start date itself is day 1)
//
// Malformed challenge dates return an error the caller treats as "no
// active ranking"; they never panic.
func ChallengeDay(now time.Time, ch challenge.Challenge) (day int, totalDays int, err error) {
	start, err := ParseDate(ch.StartDate)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseDate(ch.EndDate)
	if err != nil {
		return 0, 0, err
	}

	totalDays = daysBetween(start, end) + 1
	if totalDays < 1 {
		return 0, 0, apperrors.NewValidationError("challenge end date precedes start date")
	}

	nowDate := Today(now)
	switch {
	case nowDate.Before(start):
		day = 0
	case daysBetween(start, nowDate) >= totalDays:
		day = totalDays
	default:
		day = daysBetween(start, nowDate) + 1
	}
	return day, totalDays, nil
}
