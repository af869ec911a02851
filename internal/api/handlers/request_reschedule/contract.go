package request_reschedule

import (
	"context"

	"github.com/glossly/booking-service/internal/service/reschedule"
)

type RescheduleService interface {
	RequestReschedule(ctx context.Context, bookingID int64, input *reschedule.RequestRescheduleInput) (*reschedule.RescheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
