package run_auto_decline

import (
	"context"

	autoDecline "github.com/glossly/booking-service/internal/usecase/auto_decline"
)

type AutoDeclineUseCase interface {
	Execute(ctx context.Context) (*autoDecline.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
