package domain

import (
	"errors"
	"fmt"
	"time"
)

// Event is a booking state machine event
type Event string

const (
	EventConfirm     Event = "confirm"
	EventCancel      Event = "cancel"
	EventComplete    Event = "complete"
	EventMarkNoShow  Event = "mark_no_show"
	EventReschedule  Event = "reschedule"
	EventAutoDecline Event = "auto_decline"
)

// ErrIllegalTransition is the errors.Is target for every rejected
// transition, regardless of whether the state, the payment status or
// the actor was at fault.
var ErrIllegalTransition = errors.New("domain: illegal transition")

// IllegalTransitionError carries the booking's current state so the
// caller can refresh its view instead of retrying blindly.
type IllegalTransitionError struct {
	Event         Event
	Status        BookingStatus
	PaymentStatus PaymentStatus
	Reason        string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("domain: illegal transition %q from status=%s payment=%s: %s",
		e.Event, e.Status, e.PaymentStatus, e.Reason)
}

// Is makes errors.Is(err, ErrIllegalTransition) match
func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

func illegal(b *Booking, event Event, reason string) error {
	return &IllegalTransitionError{
		Event:         event,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Reason:        reason,
	}
}

// transitionRule describes a single row of the transition table:
// who may trigger the event, from which statuses, and under which
// extra precondition.
type transitionRule struct {
	from  []BookingStatus
	roles []ActorRole
	check func(b *Booking, now time.Time, p TransitionParams) error
}

// TransitionParams carries the provider-policy inputs some guards need
type TransitionParams struct {
	NoShowGraceMinutes   int
	ConfirmationSLAHours int
}

var transitionRules = map[Event]transitionRule{
	EventConfirm: {
		from:  []BookingStatus{StatusPending},
		roles: []ActorRole{RoleProvider},
		check: func(b *Booking, _ time.Time, _ TransitionParams) error {
			if b.PaymentStatus != PaymentDepositPaid && b.PaymentStatus != PaymentFullyPaid {
				return illegal(b, EventConfirm, "deposit has not been paid")
			}
			return nil
		},
	},
	EventCancel: {
		from:  []BookingStatus{StatusPending, StatusConfirmed},
		roles: []ActorRole{RoleClient, RoleProvider},
	},
	EventComplete: {
		from:  []BookingStatus{StatusConfirmed},
		roles: []ActorRole{RoleProvider},
		check: func(b *Booking, now time.Time, _ TransitionParams) error {
			startAt, err := b.StartAt()
			if err != nil {
				return illegal(b, EventComplete, "invalid appointment time: "+err.Error())
			}
			if now.Before(startAt) {
				return illegal(b, EventComplete, "appointment has not started yet")
			}
			return nil
		},
	},
	EventMarkNoShow: {
		from:  []BookingStatus{StatusConfirmed},
		roles: []ActorRole{RoleProvider},
		check: func(b *Booking, now time.Time, p TransitionParams) error {
			startAt, err := b.StartAt()
			if err != nil {
				return illegal(b, EventMarkNoShow, "invalid appointment time: "+err.Error())
			}
			deadline := startAt.Add(time.Duration(p.NoShowGraceMinutes) * time.Minute)
			if !now.After(deadline) {
				return illegal(b, EventMarkNoShow, "grace period has not elapsed")
			}
			return nil
		},
	},
	EventReschedule: {
		from:  []BookingStatus{StatusPending, StatusConfirmed},
		roles: []ActorRole{RoleClient},
	},
	EventAutoDecline: {
		from:  []BookingStatus{StatusPending},
		roles: []ActorRole{RoleSystem},
		check: func(b *Booking, now time.Time, p TransitionParams) error {
			deadline := b.CreatedAt.Add(time.Duration(p.ConfirmationSLAHours) * time.Hour)
			if now.Before(deadline) {
				return illegal(b, EventAutoDecline, "confirmation window has not elapsed")
			}
			return nil
		},
	},
}

// CanTransition validates that actor may apply event to the booking in
// its current state. It is a pure predicate: it never mutates anything,
// and the rejected booking is guaranteed untouched.
func CanTransition(b *Booking, event Event, actor Actor, now time.Time, p TransitionParams) error {
	rule, ok := transitionRules[event]
	if !ok {
		return illegal(b, event, "unknown event")
	}

	if !containsRole(rule.roles, actor.Role) {
		return illegal(b, event, fmt.Sprintf("actor role %q is not permitted", actor.Role))
	}
	if !actor.Owns(b) {
		return illegal(b, event, "actor does not own this booking")
	}

	if b.IsTerminal() {
		return illegal(b, event, "booking is in a terminal status")
	}
	if !containsStatus(rule.from, b.Status) {
		return illegal(b, event, fmt.Sprintf("event not allowed from status %q", b.Status))
	}

	if rule.check != nil {
		return rule.check(b, now, p)
	}
	return nil
}

// TargetStatus returns the status a successful event leads to.
// Cancel resolves by actor role.
func TargetStatus(event Event, actor Actor) BookingStatus {
	switch event {
	case EventConfirm:
		return StatusConfirmed
	case EventComplete:
		return StatusCompleted
	case EventMarkNoShow:
		return StatusNoShow
	case EventAutoDecline:
		return StatusCancelledByProvider
	case EventCancel:
		if actor.Role == RoleClient {
			return StatusCancelledByClient
		}
		return StatusCancelledByProvider
	}
	return ""
}

func containsRole(roles []ActorRole, role ActorRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func containsStatus(statuses []BookingStatus, status BookingStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
