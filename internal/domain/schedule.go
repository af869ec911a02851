package domain

// Interval is a half-open [Start, End) time-of-day interval expressed
// in minutes since midnight. All conflict arithmetic happens on
// intervals, so the overlap rule exists in exactly one place.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two intervals actually intersect.
// Strict inequalities: intervals that merely touch at a boundary
// (one ends exactly where the other starts) do not conflict.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Pad extends the interval by bufferMinutes on both sides, clamped to
// the day. This is how a provider's buffer between appointments is
// applied before conflict checks.
func (i Interval) Pad(bufferMinutes int) Interval {
	padded := Interval{Start: i.Start - bufferMinutes, End: i.End + bufferMinutes}
	if padded.Start < 0 {
		padded.Start = 0
	}
	if padded.End > 24*60 {
		padded.End = 24 * 60
	}
	return padded
}

// BookingInterval returns the booking's occupied interval.
// Bookings with unparseable times occupy nothing; times are validated
// on the way in, so this is a safety net, not a code path.
func BookingInterval(b *Booking) (Interval, bool) {
	start, err := b.StartTime.Minutes()
	if err != nil {
		return Interval{}, false
	}
	return Interval{Start: start, End: start + b.DurationMinutes}, true
}

// HasConflict reports whether the candidate interval, padded by
// bufferMinutes, overlaps any active booking in the list.
//
// teamMemberID scopes the check in salon mode: when non-nil, only
// bookings assigned to that team member count. When nil, every active
// booking for the provider counts.
func HasConflict(candidate Interval, bufferMinutes int, bookings []*Booking, teamMemberID *int64) bool {
	padded := candidate.Pad(bufferMinutes)

	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		if teamMemberID != nil {
			if b.TeamMemberID == nil || *b.TeamMemberID != *teamMemberID {
				continue
			}
		}
		occupied, ok := BookingInterval(b)
		if !ok {
			continue
		}
		if padded.Overlaps(occupied) {
			return true
		}
	}
	return false
}
