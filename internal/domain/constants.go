package domain

// Default configuration values used when the provider has not
// customized the corresponding setting
const (
	DefaultSlotGranularityMinutes = 30
	DefaultBufferMinutes          = 0
	DefaultAdvanceBookingDays     = 0 // 0 = unlimited
	DefaultMinNoticeHours         = 1
	DefaultRescheduleWindowHours  = 24
)

// Business validation constants
const (
	MinDurationMinutes          = 5
	MaxDurationMinutes          = 480 // 8 hours
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxRescheduleReasonLength   = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// InactiveStatuses bookings in these statuses never block calendar slots
var InactiveStatuses = []BookingStatus{
	StatusCancelledByClient,
	StatusCancelledByProvider,
	StatusNoShow,
	StatusCompleted,
}

// ActiveStatuses bookings in these statuses occupy calendar time
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// AutoDeclineReason system-authored cancellation reason set by the sweeper
const AutoDeclineReason = "automatically declined: provider did not confirm within the confirmation window"
