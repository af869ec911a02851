package create_booking

import (
	"context"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/payments"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error)
	TeamMemberLastBooked(ctx context.Context, providerID int64) (map[int64]time.Time, error)
}

// ProviderConfigClient интерфейс клиента сервиса настроек провайдеров
type ProviderConfigClient interface {
	GetProvider(ctx context.Context, providerID int64) (*providerconfig.Provider, error)
	GetService(ctx context.Context, providerID, serviceID int64) (*providerconfig.Service, error)
	GetAddons(ctx context.Context, providerID, serviceID int64, addonIDs []int64) ([]providerconfig.Addon, error)
}

// PaymentClient интерфейс клиента платежного сервиса
type PaymentClient interface {
	ChargeDeposit(ctx context.Context, bookingID int64, amount float64, currency string) (*payments.PaymentHandle, error)
}

// EventPublisher интерфейс публикации доменных событий
type EventPublisher interface {
	PublishAsync(event domain.DomainEvent)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
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
