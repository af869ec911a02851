package events

import "github.com/glossly/booking-service/internal/domain"

// NoopPublisher заглушка на случай выключенной Kafka: события только
// логируются
type NoopPublisher struct {
	log Logger
}

// NewNoopPublisher создает publisher-заглушку
func NewNoopPublisher(log Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

// PublishAsync логирует событие без отправки в брокер
func (p *NoopPublisher) PublishAsync(event domain.DomainEvent) {
	p.log.Info("Event %s for booking=%d (kafka disabled, not published)", event.Type, event.BookingID)
}

// Close ничего не делает
func (p *NoopPublisher) Close() error {
	return nil
}
