package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event consumed by the notification
// collaborator. Delivery is best-effort: a failed publish never rolls
// back the transition that produced the event.
type EventType string

const (
	EventBookingCreated      EventType = "booking_created"
	EventBookingConfirmed    EventType = "booking_confirmed"
	EventBookingCancelled    EventType = "booking_cancelled"
	EventBookingRescheduled  EventType = "booking_rescheduled"
	EventBookingCompleted    EventType = "booking_completed"
	EventBookingNoShow       EventType = "booking_no_show"
	EventRescheduleRequested EventType = "reschedule_requested"
	EventRescheduleApproved  EventType = "reschedule_approved"
	EventRescheduleDenied    EventType = "reschedule_denied"
	EventTeamMemberAssigned  EventType = "team_member_assigned"
)

// DomainEvent is the payload published to the event broker after a
// successful state transition.
type DomainEvent struct {
	ID           string     `json:"id"`
	Type         EventType  `json:"type"`
	BookingID    int64      `json:"bookingId"`
	ClientID     int64      `json:"clientId"`
	ProviderID   int64      `json:"providerId"`
	TeamMemberID *int64     `json:"teamMemberId,omitempty"`
	Status       string     `json:"status"`
	OccurredAt   time.Time  `json:"occurredAt"`
	Reason       *string    `json:"reason,omitempty"`
}

// NewEvent builds a domain event for the booking's current state
func NewEvent(eventType EventType, b *Booking) DomainEvent {
	return DomainEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		BookingID:    b.ID,
		ClientID:     b.ClientID,
		ProviderID:   b.ProviderID,
		TeamMemberID: b.TeamMemberID,
		Status:       string(b.Status),
		OccurredAt:   time.Now().UTC(),
	}
}

// NewEventWithReason builds a domain event carrying a reason
// (cancellations, reschedule denials)
func NewEventWithReason(eventType EventType, b *Booking, reason string) DomainEvent {
	e := NewEvent(eventType, b)
	e.Reason = &reason
	return e
}
