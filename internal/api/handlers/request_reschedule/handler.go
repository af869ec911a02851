package request_reschedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/glossly/booking-service/internal/api/handlers"
	"github.com/glossly/booking-service/internal/api/middleware"
	"github.com/glossly/booking-service/internal/service/reschedule"
)

const (
	msgInvalidBookingID    = "invalid booking id"
	msgInvalidRequestBody  = "invalid request body"
	msgNotFound            = "booking not found"
	msgForbidden           = "access denied"
	msgBookingNotActive    = "booking is no longer active"
	msgPendingExists       = "booking already has a pending reschedule request"
	msgSlotNotAvailable    = "this time is no longer available"
	msgOutsideWorkingHours = "proposed time is outside working hours"
)

type Handler struct {
	service RescheduleService
	logger  Logger
}

func NewHandler(service RescheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/reschedule-request
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, "authentication required")
		return
	}

	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule-request - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var input reschedule.RequestRescheduleInput
	if err := handlers.DecodeJSON(r, &input); err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule-request - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	input.Actor = actor

	result, err := h.service.RequestReschedule(r.Context(), bookingID, &input)
	if err != nil {
		switch {
		case errors.Is(err, reschedule.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/reschedule-request - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reschedule.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/reschedule-request - Access denied: booking_id=%d, user_id=%d", bookingID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reschedule.ErrBookingNotActive):
			h.logger.Warn("POST /bookings/{id}/reschedule-request - Booking not active: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgBookingNotActive)

		case errors.Is(err, reschedule.ErrPendingRequestExists):
			h.logger.Warn("POST /bookings/{id}/reschedule-request - Pending request exists: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgPendingExists)

		case errors.Is(err, reschedule.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings/{id}/reschedule-request - Slot not available: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, reschedule.ErrOutsideWorkingHours):
			h.logger.Warn("POST /bookings/{id}/reschedule-request - Outside working hours: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgOutsideWorkingHours)

		case errors.Is(err, reschedule.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/reschedule-request - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /bookings/{id}/reschedule-request - Failed to create request: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/reschedule-request - Request created: request_id=%d, booking_id=%d, provider_id=%d",
		result.ID, bookingID, actor.UserID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
