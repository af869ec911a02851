package payment_events

import (
	"context"

	"github.com/glossly/booking-service/internal/service/payments"
)

type PaymentService interface {
	HandleEvent(ctx context.Context, input *payments.PaymentEventInput) (*payments.PaymentEventResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
