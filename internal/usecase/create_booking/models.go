package create_booking

import (
	"time"

	"github.com/glossly/booking-service/pkg/types"
)

// Request входные данные для создания бронирования
type Request struct {
	ClientID     int64
	ProviderID   int64
	ServiceID    int64
	AddonIDs     []int64
	TeamMemberID *int64 // nil = любой свободный мастер (salon mode)
	Date         string // формат YYYY-MM-DD
	StartTime    types.TimeString
}

// Response результат создания бронирования
type Response struct {
	ID              int64            `json:"id"`
	ClientID        int64            `json:"client_id"`
	ProviderID      int64            `json:"provider_id"`
	ServiceID       int64            `json:"service_id"`
	TeamMemberID    *int64           `json:"team_member_id,omitempty"`
	BookingDate     time.Time        `json:"booking_date"`
	StartTime       types.TimeString `json:"start_time"`
	DurationMinutes int              `json:"duration_minutes"`
	Timezone        string           `json:"timezone"`
	Status          string           `json:"status"`
	PaymentStatus   string           `json:"payment_status"`
	ServiceName     string           `json:"service_name"`
	ServicePrice    float64          `json:"service_price"`
	AddonIDs        []int64          `json:"addon_ids,omitempty"`
	AddonTotal      float64          `json:"addon_total"`
	ServiceFee      float64          `json:"service_fee"`
	DepositAmount   float64          `json:"deposit_amount"`
	Currency        string           `json:"currency"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
