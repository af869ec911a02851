package bookings

import (
	"context"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	GetByClientID(ctx context.Context, filter domain.ClientBookingsFilter) ([]*domain.Booking, error)
	GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error)
	GetActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error)
	Confirm(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64, status domain.BookingStatus, reason string) error
	Complete(ctx context.Context, id int64, tipAmount float64, notes *string) error
	MarkNoShow(ctx context.Context, id int64, notes *string) error
	UpdateSchedule(ctx context.Context, id int64, date time.Time, startTime types.TimeString, teamMemberID *int64) error
}

// ProviderConfigClient интерфейс клиента сервиса настроек провайдеров
type ProviderConfigClient interface {
	GetProvider(ctx context.Context, providerID int64) (*providerconfig.Provider, error)
}

// PaymentClient интерфейс клиента платежного сервиса
type PaymentClient interface {
	Refund(ctx context.Context, bookingID int64, amount float64) error
}

// EventPublisher интерфейс публикации доменных событий
type EventPublisher interface {
	PublishAsync(event domain.DomainEvent)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
