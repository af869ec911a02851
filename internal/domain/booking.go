package domain

import (
	"time"

	"github.com/glossly/booking-service/pkg/types"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	StatusPending             BookingStatus = "pending"
	StatusConfirmed           BookingStatus = "confirmed"
	StatusCompleted           BookingStatus = "completed"
	StatusCancelledByClient   BookingStatus = "cancelled_by_client"
	StatusCancelledByProvider BookingStatus = "cancelled_by_provider"
	StatusNoShow              BookingStatus = "no_show"
)

// PaymentStatus represents the payment axis of a booking.
// It runs in parallel with BookingStatus: the two are independent
// fields constrained jointly by the transition rules.
type PaymentStatus string

const (
	PaymentAwaitingDeposit   PaymentStatus = "awaiting_deposit"
	PaymentDepositPaid       PaymentStatus = "deposit_paid"
	PaymentFullyPaid         PaymentStatus = "fully_paid"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Booking represents an appointment between a client and a provider.
// Bookings are never hard-deleted: they only move to terminal statuses.
type Booking struct {
	ID           int64
	ClientID     int64
	ProviderID   int64
	ServiceID    int64
	TeamMemberID *int64 // nil for solo providers

	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int
	Timezone        string // provider timezone, authoritative for all date/time interpretation

	// Denormalized commercial data for history
	ServiceName   string
	ServicePrice  float64
	AddonIDs      []int64
	AddonTotal    float64
	ServiceFee    float64
	DepositAmount float64
	TipAmount     float64
	Currency      string

	Status        BookingStatus
	PaymentStatus PaymentStatus

	CancellationReason *string
	InternalNotes      *string // provider-only notes

	ConfirmedAt *time.Time
	CancelledAt *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsTerminal returns true if the booking is in a terminal status
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case StatusCompleted, StatusCancelledByClient, StatusCancelledByProvider, StatusNoShow:
		return true
	}
	return false
}

// IsActive returns true if the booking occupies calendar time.
// Only pending and confirmed bookings block slots; cancelled and
// no-show bookings never do.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanBeCancelled returns true if the booking can still be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// EndTime returns the end of the appointment as a wall-clock time
func (b *Booking) EndTime() (types.TimeString, error) {
	return b.StartTime.AddMinutes(b.DurationMinutes)
}

// StartAt returns the appointment start as an absolute instant in the
// provider's timezone.
func (b *Booking) StartAt() (time.Time, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := b.StartTime.Minutes()
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := b.BookingDate.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc), nil
}

// TotalPrice returns the price of the service plus selected add-ons
func (b *Booking) TotalPrice() float64 {
	return b.ServicePrice + b.AddonTotal
}

// AmountPaid derives the amount collected for the booking from its
// payment status. After a partial refund the status alone no longer
// determines the balance; refund accounting sums the payment-event
// journal instead and uses this only as a fallback.
func (b *Booking) AmountPaid() float64 {
	switch b.PaymentStatus {
	case PaymentDepositPaid:
		return b.DepositAmount + b.ServiceFee
	case PaymentFullyPaid:
		return b.TotalPrice() + b.ServiceFee + b.TipAmount
	default:
		return 0
	}
}

// ClientBookingsFilter filter for listing a client's bookings
type ClientBookingsFilter struct {
	ClientID int64
	Status   *BookingStatus
}

// ProviderBookingsFilter filter for listing a provider's bookings
type ProviderBookingsFilter struct {
	ProviderID      int64
	TeamMemberID    *int64
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *BookingStatus
	IncludeInactive bool
}
