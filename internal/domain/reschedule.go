package domain

import (
	"time"

	"github.com/glossly/booking-service/pkg/types"
)

// RescheduleStatus represents the status of a reschedule request
type RescheduleStatus string

const (
	RescheduleStatusPending  RescheduleStatus = "pending"
	RescheduleStatusApproved RescheduleStatus = "approved"
	RescheduleStatusDenied   RescheduleStatus = "denied"
)

// RescheduleRequest is a provider-proposed schedule change awaiting the
// client's decision. It is a sub-state machine owned by a booking: at
// most one pending request may exist per booking, and approving it is
// what mutates the parent booking's schedule, not creating it.
type RescheduleRequest struct {
	ID        int64
	BookingID int64

	ProposedDate time.Time
	ProposedTime types.TimeString
	Reason       string

	Status      RescheduleStatus
	RequestedAt time.Time
	RespondedAt *time.Time
}

// IsPending returns true if the request is still awaiting a response
func (r *RescheduleRequest) IsPending() bool {
	return r.Status == RescheduleStatusPending
}
