package respond_reschedule

import (
	"context"

	"github.com/glossly/booking-service/internal/service/reschedule"
)

type RescheduleService interface {
	RespondToReschedule(ctx context.Context, requestID int64, input *reschedule.RespondRescheduleInput) (*reschedule.RescheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
