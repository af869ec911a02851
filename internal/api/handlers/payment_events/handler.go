package payment_events

import (
	"errors"
	"net/http"

	"github.com/glossly/booking-service/internal/api/handlers"
	"github.com/glossly/booking-service/internal/service/payments"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgUnknownEventType   = "unknown event type"
	msgBookingNotFound    = "booking not found"
)

type Handler struct {
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/events
//
// Вебхук платежного сервиса. Повтор события отдает 200 с duplicate=true,
// чтобы платежный сервис перестал ретраить.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var input payments.PaymentEventInput
	if err := handlers.DecodeJSON(r, &input); err != nil {
		h.logger.Warn("POST /payments/events - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.HandleEvent(r.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrUnknownEventType):
			h.logger.Warn("POST /payments/events - Unknown event type: %q", input.EventType)
			handlers.RespondBadRequest(w, msgUnknownEventType)

		case errors.Is(err, payments.ErrBookingNotFound):
			h.logger.Warn("POST /payments/events - Booking not found: booking_id=%d, event_id=%s", input.BookingID, input.EventID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, payments.ErrInvalidInput):
			h.logger.Warn("POST /payments/events - Invalid event: event_id=%s, error=%v", input.EventID, err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /payments/events - Failed to handle event: event_id=%s, error=%v", input.EventID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/events - Event applied: event_id=%s, booking_id=%d, payment_status=%s, duplicate=%t",
		input.EventID, input.BookingID, result.PaymentStatus, result.Duplicate)
	handlers.RespondJSON(w, http.StatusOK, result)
}
