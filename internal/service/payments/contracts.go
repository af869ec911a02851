package payments

import (
	"context"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	GetActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error)
	Confirm(ctx context.Context, id int64) error
	UpdatePaymentStatus(ctx context.Context, id int64, from []domain.PaymentStatus, to domain.PaymentStatus) error
}

// ProcessedEventRepository интерфейс журнала обработанных платежных событий
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, eventID string, bookingID int64, eventType string, amount float64) error
	AmountTotals(ctx context.Context, bookingID int64) (map[string]float64, error)
}

// ProviderConfigClient интерфейс клиента сервиса настроек провайдеров
type ProviderConfigClient interface {
	GetProvider(ctx context.Context, providerID int64) (*providerconfig.Provider, error)
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

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
