package services

import "time"

// The daily gate is a calendar-day reset, not a rolling 24h window: two
// instants count as the same day iff their year/month/day match after
// truncation to midnight in the configured reset timezone.

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameResetDay reports whether a and b fall on the same calendar day in loc.
func SameResetDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

// NextResetAt returns the instant at which an action last performed at
// `last` becomes available again: the midnight following last's day.
func NextResetAt(last time.Time, loc *time.Location) time.Time {
	return StartOfDay(last, loc).AddDate(0, 0, 1)
}

// EligibleToday reports daily-gate eligibility given the last-action
// timestamp. A nil last timestamp means the action has never been taken
// and is always eligible.
func EligibleToday(last *time.Time, now time.Time, loc *time.Location) bool {
	if last == nil || last.IsZero() {
		return true
	}
	return !SameResetDay(*last, now, loc)
}
