package get_available_slots

import (
	"github.com/glossly/booking-service/internal/domain"
)

// Request входные данные для расчёта доступных слотов
type Request struct {
	ProviderID   int64
	ServiceID    int64
	Date         string // формат YYYY-MM-DD
	TeamMemberID *int64 // nil = любой свободный мастер (salon mode)
}

// Response результат расчёта доступных слотов
type Response struct {
	ProviderID int64                     `json:"provider_id"`
	ServiceID  int64                     `json:"service_id"`
	Date       string                    `json:"date"`
	Timezone   string                    `json:"timezone"`
	Slots      []domain.AvailabilitySlot `json:"slots"`
}
