package mark_no_show

import (
	"context"

	"github.com/glossly/booking-service/internal/service/bookings/models"
)

type BookingService interface {
	MarkNoShow(ctx context.Context, bookingID int64, req *models.MarkNoShowRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
