package models

import "time"

// RangesOverlap reports whether two inclusive date ranges share at least one
// day: startA <= endB AND startB <= endA. Ranges touching on a boundary day
// count as overlapping: a vehicle returned on Jan 5 cannot be picked up
// again on Jan 5.
func RangesOverlap(startA, endA, startB, endB time.Time) bool {
	return !startA.After(endB) && !startB.After(endA)
}

// DateOnly strips the time-of-day component so bookings compare on calendar
// days regardless of the caller's clock or zone.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
