package create_booking

import (
	"errors"
	"net/http"

	"github.com/glossly/booking-service/internal/api/handlers"
	"github.com/glossly/booking-service/internal/api/middleware"
	"github.com/glossly/booking-service/internal/domain"
	createBooking "github.com/glossly/booking-service/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody  = "invalid request body"
	msgClientsOnly         = "only clients can create bookings"
	msgProviderNotFound    = "provider not found"
	msgServiceNotFound     = "service not found"
	msgAddonNotFound       = "add-on not found"
	msgTeamMemberNotFound  = "team member not found"
	msgSlotNotAvailable    = "this time is no longer available"
	msgNoTeamMember        = "no team member is available at this time"
	msgPaymentDeclined     = "deposit payment was declined"
	msgProviderClosed      = "provider is closed on the selected date"
	msgOutsideWorkingHours = "selected time is outside working hours"
	msgInvalidDate         = "invalid booking date"
	msgDateTooFar          = "booking date is too far in the future"
	msgSameDayNotAllowed   = "same-day booking is not allowed for this provider"
	msgDateBlocked         = "provider is not accepting bookings on the selected date"
	msgInvalidTimeSlot     = "invalid time slot"
	msgTooLateToBook       = "it is too late to book this slot"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, "authentication required")
		return
	}
	if actor.Role != domain.RoleClient {
		h.logger.Warn("POST /bookings - Non-client actor: role=%s, user_id=%d", actor.Role, actor.UserID)
		handlers.RespondForbidden(w, msgClientsOnly)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(actor.UserID))
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings - Slot not available: client_id=%d, provider_id=%d", actor.UserID, req.ProviderID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrNoTeamMemberAvailable):
			h.logger.Warn("POST /bookings - No team member available: client_id=%d, provider_id=%d", actor.UserID, req.ProviderID)
			handlers.RespondConflict(w, msgNoTeamMember)

		case errors.Is(err, createBooking.ErrProviderNotFound):
			h.logger.Warn("POST /bookings - Provider not found: provider_id=%d", req.ProviderID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, createBooking.ErrServiceNotFound):
			h.logger.Warn("POST /bookings - Service not found: provider_id=%d, service_id=%d", req.ProviderID, req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, createBooking.ErrAddonNotFound):
			h.logger.Warn("POST /bookings - Addon not found: provider_id=%d, service_id=%d", req.ProviderID, req.ServiceID)
			handlers.RespondNotFound(w, msgAddonNotFound)

		case errors.Is(err, createBooking.ErrTeamMemberNotFound):
			h.logger.Warn("POST /bookings - Team member not found: provider_id=%d", req.ProviderID)
			handlers.RespondNotFound(w, msgTeamMemberNotFound)

		case errors.Is(err, createBooking.ErrPaymentDeclined):
			h.logger.Warn("POST /bookings - Deposit declined: client_id=%d, provider_id=%d", actor.UserID, req.ProviderID)
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentDeclined)

		case errors.Is(err, createBooking.ErrProviderClosed):
			handlers.RespondBadRequest(w, msgProviderClosed)

		case errors.Is(err, createBooking.ErrOutsideWorkingHours):
			handlers.RespondBadRequest(w, msgOutsideWorkingHours)

		case errors.Is(err, createBooking.ErrInvalidDate):
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, createBooking.ErrDateTooFarInFuture):
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, createBooking.ErrSameDayNotAllowed):
			handlers.RespondBadRequest(w, msgSameDayNotAllowed)

		case errors.Is(err, createBooking.ErrDateBlocked):
			handlers.RespondBadRequest(w, msgDateBlocked)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createBooking.ErrTooLateToBook):
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: client_id=%d, error=%v", actor.UserID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: client_id=%d, provider_id=%d, error=%v",
				actor.UserID, req.ProviderID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created: booking_id=%d, client_id=%d, provider_id=%d",
		result.ID, actor.UserID, req.ProviderID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
