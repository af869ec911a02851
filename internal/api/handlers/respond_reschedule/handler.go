package respond_reschedule

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
	msgInvalidRequestID   = "invalid request id"
	msgInvalidRequestBody = "invalid request body"
	msgRequestNotFound    = "reschedule request not found"
	msgForbidden          = "access denied"
	msgAlreadyResolved    = "reschedule request has already been resolved"
	msgBookingNotActive   = "booking is no longer active"
	msgSlotNotAvailable   = "this time is no longer available"
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

// Handle POST /api/v1/reschedule-requests/{requestId}/respond
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, "authentication required")
		return
	}

	vars := mux.Vars(r)
	requestID, err := strconv.ParseInt(vars["requestId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /reschedule-requests/{id}/respond - Invalid request ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestID)
		return
	}

	var input reschedule.RespondRescheduleInput
	if err := handlers.DecodeJSON(r, &input); err != nil {
		h.logger.Warn("POST /reschedule-requests/{id}/respond - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	input.Actor = actor

	result, err := h.service.RespondToReschedule(r.Context(), requestID, &input)
	if err != nil {
		switch {
		case errors.Is(err, reschedule.ErrRequestNotFound), errors.Is(err, reschedule.ErrBookingNotFound):
			h.logger.Warn("POST /reschedule-requests/{id}/respond - Not found: request_id=%d", requestID)
			handlers.RespondNotFound(w, msgRequestNotFound)

		case errors.Is(err, reschedule.ErrAccessDenied):
			h.logger.Warn("POST /reschedule-requests/{id}/respond - Access denied: request_id=%d, user_id=%d", requestID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reschedule.ErrAlreadyResolved):
			h.logger.Warn("POST /reschedule-requests/{id}/respond - Already resolved: request_id=%d", requestID)
			handlers.RespondConflict(w, msgAlreadyResolved)

		case errors.Is(err, reschedule.ErrBookingNotActive):
			h.logger.Warn("POST /reschedule-requests/{id}/respond - Booking not active: request_id=%d", requestID)
			handlers.RespondConflict(w, msgBookingNotActive)

		case errors.Is(err, reschedule.ErrSlotNotAvailable):
			h.logger.Warn("POST /reschedule-requests/{id}/respond - Slot not available: request_id=%d", requestID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, reschedule.ErrInvalidInput):
			h.logger.Warn("POST /reschedule-requests/{id}/respond - Invalid input: request_id=%d, error=%v", requestID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /reschedule-requests/{id}/respond - Failed to respond: request_id=%d, error=%v", requestID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reschedule-requests/{id}/respond - Request resolved: request_id=%d, status=%s, client_id=%d",
		requestID, result.Status, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
