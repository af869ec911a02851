package reschedule

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
	GetActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error)
	UpdateSchedule(ctx context.Context, id int64, date time.Time, startTime types.TimeString, teamMemberID *int64) error
}

// RescheduleRepository интерфейс репозитория запросов на перенос
type RescheduleRepository interface {
	Create(ctx context.Context, req *domain.RescheduleRequest) (*domain.RescheduleRequest, error)
	GetByID(ctx context.Context, id int64) (*domain.RescheduleRequest, error)
	Resolve(ctx context.Context, id int64, status domain.RescheduleStatus) error
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
