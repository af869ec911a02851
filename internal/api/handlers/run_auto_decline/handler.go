package run_auto_decline

import (
	"net/http"

	"github.com/glossly/booking-service/internal/api/handlers"
)

type Handler struct {
	useCase AutoDeclineUseCase
	logger  Logger
}

func NewHandler(useCase AutoDeclineUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/internal/sweeps/auto-decline
//
// Ручной запуск sweep-а, тот же код, что и у фонового тикера
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	result, err := h.useCase.Execute(r.Context())
	if err != nil {
		h.logger.Error("POST /internal/sweeps/auto-decline - Sweep failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /internal/sweeps/auto-decline - Sweep finished: candidates=%d, declined=%d, skipped=%d, failed=%d",
		result.CandidateCount, result.DeclinedCount, result.SkippedCount, len(result.FailedIDs))
	handlers.RespondJSON(w, http.StatusOK, result)
}
