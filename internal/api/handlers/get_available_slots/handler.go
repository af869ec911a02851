package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/glossly/booking-service/internal/api/handlers"
	getAvailableSlots "github.com/glossly/booking-service/internal/usecase/get_available_slots"
)

const (
	msgInvalidProviderID  = "invalid provider id"
	msgInvalidServiceID   = "serviceId query parameter is required and must be a positive integer"
	msgInvalidDate        = "date query parameter is required in YYYY-MM-DD format"
	msgInvalidMemberID    = "invalid teamMemberId query parameter"
	msgProviderNotFound   = "provider not found"
	msgServiceNotFound    = "service not found"
	msgTeamMemberNotFound = "team member not found"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/available-slots?serviceId=&date=&teamMemberId=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/available-slots - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	query := r.URL.Query()

	serviceID, err := strconv.ParseInt(query.Get("serviceId"), 10, 64)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/available-slots - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	date := query.Get("date")

	req := &getAvailableSlots.Request{
		ProviderID: providerID,
		ServiceID:  serviceID,
		Date:       date,
	}

	if raw := query.Get("teamMemberId"); raw != "" {
		memberID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /providers/{id}/available-slots - Invalid team member ID: %v", err)
			handlers.RespondBadRequest(w, msgInvalidMemberID)
			return
		}
		req.TeamMemberID = &memberID
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /providers/{id}/available-slots - Invalid input: provider_id=%d, error=%v", providerID, err)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, getAvailableSlots.ErrProviderNotFound):
			h.logger.Warn("GET /providers/{id}/available-slots - Provider not found: provider_id=%d", providerID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, getAvailableSlots.ErrServiceNotFound):
			h.logger.Warn("GET /providers/{id}/available-slots - Service not found: provider_id=%d, service_id=%d", providerID, serviceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, getAvailableSlots.ErrTeamMemberNotFound):
			h.logger.Warn("GET /providers/{id}/available-slots - Team member not found: provider_id=%d", providerID)
			handlers.RespondNotFound(w, msgTeamMemberNotFound)

		default:
			h.logger.Error("GET /providers/{id}/available-slots - Failed to get slots: provider_id=%d, error=%v", providerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /providers/{id}/available-slots - Returned %d slots: provider_id=%d, date=%s",
		len(result.Slots), providerID, date)
	handlers.RespondJSON(w, http.StatusOK, result)
}
