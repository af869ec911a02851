package reschedule_booking

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/glossly/booking-service/internal/api/handlers"
	"github.com/glossly/booking-service/internal/api/middleware"
	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/service/bookings"
	"github.com/glossly/booking-service/internal/service/bookings/models"
)

const (
	msgInvalidBookingID    = "invalid booking id"
	msgInvalidRequestBody  = "invalid request body"
	msgNotFound            = "booking not found"
	msgForbidden           = "access denied"
	msgWindowClosed        = "it is too close to the appointment to reschedule"
	msgSlotNotAvailable    = "this time is no longer available"
	msgOutsideWorkingHours = "selected time is outside working hours"
	msgStatusConflict      = "booking state changed, please refresh and try again"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, "authentication required")
		return
	}

	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req models.RescheduleBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.Actor = actor

	result, err := h.service.Reschedule(r.Context(), bookingID, &req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Access denied: booking_id=%d, user_id=%d", bookingID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrRescheduleWindowClosed):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Window closed: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgWindowClosed)

		case errors.Is(err, bookings.ErrSlotNotAvailable):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Slot not available: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, bookings.ErrOutsideWorkingHours):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Outside working hours: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgOutsideWorkingHours)

		case errors.Is(err, bookings.ErrIllegalTransition):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Illegal transition: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondConflict(w, illegalTransitionMessage(err))

		case errors.Is(err, bookings.ErrStatusConflict):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Concurrent state change: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgStatusConflict)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("PATCH /bookings/{id}/reschedule - Failed to reschedule booking: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/reschedule - Booking rescheduled: booking_id=%d, client_id=%d, new_date=%s",
		bookingID, actor.UserID, req.NewDate)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func illegalTransitionMessage(err error) string {
	var illegalErr *domain.IllegalTransitionError
	if errors.As(err, &illegalErr) {
		return fmt.Sprintf("booking cannot be rescheduled in its current state (%s/%s)",
			illegalErr.Status, illegalErr.PaymentStatus)
	}
	return "booking cannot be rescheduled in its current state"
}
