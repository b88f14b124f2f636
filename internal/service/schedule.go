package service

import "time"

// startOfDay truncates t to midnight in the given location.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// dayWindow returns the half-open local-day window [midnight, midnight+24h)
// containing t.
func dayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := startOfDay(t, loc)
	return start, start.Add(24 * time.Hour)
}

// inDayWindow reports whether ts falls within the local-day window of now.
func inDayWindow(ts *time.Time, now time.Time, loc *time.Location) bool {
	if ts == nil {
		return false
	}
	start, end := dayWindow(now, loc)
	return !ts.Before(start) && ts.Before(end)
}

// nextDue pushes due forward in whole days until it is after now. Used when
// an overdue task is reactivated instead of failed.
func nextDue(due, now time.Time) time.Time {
	next := due
	for !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
