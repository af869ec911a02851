package payments

// Типы платежных событий, которые присылает платежный сервис
const (
	EventTypeDepositConfirmed = "depositConfirmed"
	EventTypeBalanceConfirmed = "balanceConfirmed"
	EventTypeRefundConfirmed  = "refundConfirmed"
)

// PaymentEventInput входящее событие платежного вебхука
type PaymentEventInput struct {
	EventID   string  `json:"eventId"`
	EventType string  `json:"eventType"`
	BookingID int64   `json:"bookingId"`
	Amount    float64 `json:"amount"`
}

// PaymentEventResult результат обработки платежного события
type PaymentEventResult struct {
	BookingID     int64  `json:"bookingId"`
	PaymentStatus string `json:"paymentStatus"`
	BookingStatus string `json:"bookingStatus"`
	// Duplicate true, если событие уже было обработано ранее
	Duplicate bool `json:"duplicate"`

	providerID int64
}
