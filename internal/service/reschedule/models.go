package reschedule

import (
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/pkg/types"
)

// RequestRescheduleInput запрос провайдера на перенос записи
type RequestRescheduleInput struct {
	Actor        domain.Actor     `json:"-"`
	ProposedDate string           `json:"proposedDate"` // формат YYYY-MM-DD
	ProposedTime types.TimeString `json:"proposedTime"`
	Reason       string           `json:"reason"`
}

// RespondRescheduleInput ответ клиента на запрос переноса
type RespondRescheduleInput struct {
	Actor   domain.Actor `json:"-"`
	Approve bool         `json:"approve"`
}

// RescheduleResponse ответ с данными запроса на перенос
type RescheduleResponse struct {
	ID           int64   `json:"id"`
	BookingID    int64   `json:"bookingId"`
	ProposedDate string  `json:"proposedDate"`
	ProposedTime string  `json:"proposedTime"`
	Reason       string  `json:"reason"`
	Status       string  `json:"status"`
	RequestedAt  string  `json:"requestedAt"` // ISO 8601 format
	RespondedAt  *string `json:"respondedAt,omitempty"`
}

// fromDomainRequest конвертирует domain модель в DTO
func fromDomainRequest(r *domain.RescheduleRequest) *RescheduleResponse {
	if r == nil {
		return nil
	}

	resp := &RescheduleResponse{
		ID:           r.ID,
		BookingID:    r.BookingID,
		ProposedDate: r.ProposedDate.Format(domain.DateFormat),
		ProposedTime: r.ProposedTime.String(),
		Reason:       r.Reason,
		Status:       string(r.Status),
		RequestedAt:  r.RequestedAt.Format(time.RFC3339),
	}

	if r.RespondedAt != nil {
		s := r.RespondedAt.Format(time.RFC3339)
		resp.RespondedAt = &s
	}

	return resp
}
