package domain

import (
	"time"

	"github.com/glossly/booking-service/pkg/types"
)

// AvailabilitySlot is a computed slot candidate for one provider,
// service and date. Slots are derived fresh on every query and are
// never persisted.
type AvailabilitySlot struct {
	Date            time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	DurationMinutes int
	Available       bool
}

// AvailableOnly filters a slot list down to bookable slots
func AvailableOnly(slots []AvailabilitySlot) []AvailabilitySlot {
	out := make([]AvailabilitySlot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}
