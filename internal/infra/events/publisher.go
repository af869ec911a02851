package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/pkg/metrics"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher публикует доменные события в Kafka для notification-сервиса.
// Публикация best-effort: ошибка публикации логируется и никогда не
// откатывает успешный переход состояния брони.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	log     Logger
	metrics *metrics.Metrics
}

// NewPublisher создает publisher доменных событий
func NewPublisher(brokers []string, topic string, log Logger, m *metrics.Metrics) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Publisher{
		writer:  writer,
		topic:   topic,
		log:     log,
		metrics: m,
	}
}

// Publish отправляет доменное событие, ключ партиционирования - booking_id
func (p *Publisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.observe(event.Type, "marshal_error")
		return fmt.Errorf("events: failed to marshal event %s: %w", event.Type, err)
	}

	message := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", event.BookingID)),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.observe(event.Type, "error")
		return fmt.Errorf("events: failed to publish event %s for booking %d: %w", event.Type, event.BookingID, err)
	}

	p.observe(event.Type, "ok")
	p.log.Info("Published event %s for booking=%d", event.Type, event.BookingID)
	return nil
}

// PublishAsync публикует событие в фоне, не блокируя вызывающий поток.
// Используется после коммита переходов состояния.
func (p *Publisher) PublishAsync(event domain.DomainEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Warn("Best-effort event publish failed: %v", err)
		}
	}()
}

// Close закрывает kafka writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) observe(eventType domain.EventType, status string) {
	if p.metrics == nil {
		return
	}
	p.metrics.EventsPublished.WithLabelValues(string(eventType), status).Inc()
}
