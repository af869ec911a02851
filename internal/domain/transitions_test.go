package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = TransitionParams{NoShowGraceMinutes: 15, ConfirmationSLAHours: 48}

// Booking on 2025-06-20 at 11:00 UTC, created 2025-06-10
func transitionBooking(status BookingStatus, payment PaymentStatus) *Booking {
	return &Booking{
		ID:              1,
		ClientID:        100,
		ProviderID:      200,
		BookingDate:     time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		StartTime:       "11:00",
		DurationMinutes: 30,
		Timezone:        "UTC",
		Status:          status,
		PaymentStatus:   payment,
		CreatedAt:       time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestCanTransition_ConfirmRequiresPaidDeposit(t *testing.T) {
	now := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)

	paid := transitionBooking(StatusPending, PaymentDepositPaid)
	assert.NoError(t, CanTransition(paid, EventConfirm, ProviderActor(200), now, testParams))

	unpaid := transitionBooking(StatusPending, PaymentAwaitingDeposit)
	err := CanTransition(unpaid, EventConfirm, ProviderActor(200), now, testParams)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCanTransition_OnlyProviderConfirms(t *testing.T) {
	now := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	b := transitionBooking(StatusPending, PaymentDepositPaid)

	assert.ErrorIs(t, CanTransition(b, EventConfirm, ClientActor(100), now, testParams), ErrIllegalTransition)
	// Provider that does not own the booking is rejected too
	assert.ErrorIs(t, CanTransition(b, EventConfirm, ProviderActor(999), now, testParams), ErrIllegalTransition)
}

func TestCanTransition_TerminalStatusesAreFrozen(t *testing.T) {
	now := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	events := []struct {
		event Event
		actor Actor
	}{
		{EventConfirm, ProviderActor(200)},
		{EventCancel, ClientActor(100)},
		{EventComplete, ProviderActor(200)},
		{EventMarkNoShow, ProviderActor(200)},
		{EventReschedule, ClientActor(100)},
		{EventAutoDecline, SystemActor()},
	}

	terminal := []BookingStatus{StatusCompleted, StatusCancelledByClient, StatusCancelledByProvider, StatusNoShow}
	for _, status := range terminal {
		for _, tt := range events {
			b := transitionBooking(status, PaymentDepositPaid)
			err := CanTransition(b, tt.event, tt.actor, now, testParams)
			assert.ErrorIs(t, err, ErrIllegalTransition, "event %s from %s", tt.event, status)
		}
	}
}

func TestCanTransition_CompleteOnlyAfterStart(t *testing.T) {
	b := transitionBooking(StatusConfirmed, PaymentDepositPaid)

	before := time.Date(2025, 6, 20, 10, 59, 0, 0, time.UTC)
	assert.ErrorIs(t, CanTransition(b, EventComplete, ProviderActor(200), before, testParams), ErrIllegalTransition)

	after := time.Date(2025, 6, 20, 11, 0, 0, 0, time.UTC)
	assert.NoError(t, CanTransition(b, EventComplete, ProviderActor(200), after, testParams))
}

func TestCanTransition_NoShowRespectsGracePeriod(t *testing.T) {
	b := transitionBooking(StatusConfirmed, PaymentDepositPaid)

	// 11:10 is inside the 15-minute grace window
	within := time.Date(2025, 6, 20, 11, 10, 0, 0, time.UTC)
	assert.ErrorIs(t, CanTransition(b, EventMarkNoShow, ProviderActor(200), within, testParams), ErrIllegalTransition)

	// The boundary itself is still within grace
	boundary := time.Date(2025, 6, 20, 11, 15, 0, 0, time.UTC)
	assert.ErrorIs(t, CanTransition(b, EventMarkNoShow, ProviderActor(200), boundary, testParams), ErrIllegalTransition)

	past := time.Date(2025, 6, 20, 11, 16, 0, 0, time.UTC)
	assert.NoError(t, CanTransition(b, EventMarkNoShow, ProviderActor(200), past, testParams))
}

func TestCanTransition_AutoDeclineWaitsOutSLA(t *testing.T) {
	b := transitionBooking(StatusPending, PaymentDepositPaid)

	early := b.CreatedAt.Add(47 * time.Hour)
	assert.ErrorIs(t, CanTransition(b, EventAutoDecline, SystemActor(), early, testParams), ErrIllegalTransition)

	expired := b.CreatedAt.Add(49 * time.Hour)
	assert.NoError(t, CanTransition(b, EventAutoDecline, SystemActor(), expired, testParams))

	// Only the system may auto-decline
	assert.ErrorIs(t, CanTransition(b, EventAutoDecline, ProviderActor(200), expired, testParams), ErrIllegalTransition)
}

func TestCanTransition_CancelAllowedForBothSides(t *testing.T) {
	now := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)

	for _, status := range []BookingStatus{StatusPending, StatusConfirmed} {
		b := transitionBooking(status, PaymentDepositPaid)
		assert.NoError(t, CanTransition(b, EventCancel, ClientActor(100), now, testParams))
		assert.NoError(t, CanTransition(b, EventCancel, ProviderActor(200), now, testParams))
	}
}

func TestCanTransition_RescheduleIsClientOnly(t *testing.T) {
	now := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	b := transitionBooking(StatusConfirmed, PaymentDepositPaid)

	assert.NoError(t, CanTransition(b, EventReschedule, ClientActor(100), now, testParams))
	assert.ErrorIs(t, CanTransition(b, EventReschedule, ProviderActor(200), now, testParams), ErrIllegalTransition)
}

func TestIllegalTransitionError_CarriesCurrentState(t *testing.T) {
	now := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	b := transitionBooking(StatusPending, PaymentAwaitingDeposit)

	err := CanTransition(b, EventConfirm, ProviderActor(200), now, testParams)
	require.Error(t, err)

	var illegalErr *IllegalTransitionError
	require.True(t, errors.As(err, &illegalErr))
	assert.Equal(t, StatusPending, illegalErr.Status)
	assert.Equal(t, PaymentAwaitingDeposit, illegalErr.PaymentStatus)
	assert.Equal(t, EventConfirm, illegalErr.Event)
}

func TestTargetStatus_CancelResolvesByActor(t *testing.T) {
	assert.Equal(t, StatusCancelledByClient, TargetStatus(EventCancel, ClientActor(100)))
	assert.Equal(t, StatusCancelledByProvider, TargetStatus(EventCancel, ProviderActor(200)))
	assert.Equal(t, StatusConfirmed, TargetStatus(EventConfirm, ProviderActor(200)))
	assert.Equal(t, StatusCancelledByProvider, TargetStatus(EventAutoDecline, SystemActor()))
	assert.Equal(t, StatusNoShow, TargetStatus(EventMarkNoShow, ProviderActor(200)))
	assert.Equal(t, StatusCompleted, TargetStatus(EventComplete, ProviderActor(200)))
}
