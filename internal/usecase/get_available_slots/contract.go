package get_available_slots

import (
	"context"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error)
}

// ProviderConfigClient интерфейс клиента сервиса настроек провайдеров
type ProviderConfigClient interface {
	GetProvider(ctx context.Context, providerID int64) (*providerconfig.Provider, error)
	GetService(ctx context.Context, providerID, serviceID int64) (*providerconfig.Service, error)
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
