package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/glossly/booking-service/internal/domain"
	bookingRepo "github.com/glossly/booking-service/internal/infra/storage/booking"
	eventRepo "github.com/glossly/booking-service/internal/infra/storage/paymentevent"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
)

// errDuplicate внутренний маркер повторного события: транзакция
// откатывается, наружу уходит успешный duplicate-ответ
var errDuplicate = errors.New("payments: duplicate event")

// Service координатор платежной оси брони.
//
// Принимает события платежного сервиса и двигает paymentStatus
// независимо от bookingStatus. Каждое событие применяется ровно один
// раз: запись в журнал обработанных событий идет в той же транзакции,
// что и смена статуса.
type Service struct {
	bookingRepo    BookingRepository
	eventsRepo     ProcessedEventRepository
	providerClient ProviderConfigClient
	publisher      EventPublisher
	txManager      TransactionManager
	logger         Logger
}

// NewService создает новый экземпляр координатора платежей
func NewService(
	bookingRepo BookingRepository,
	eventsRepo ProcessedEventRepository,
	providerClient ProviderConfigClient,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:    bookingRepo,
		eventsRepo:     eventsRepo,
		providerClient: providerClient,
		publisher:      publisher,
		txManager:      txManager,
		logger:         logger,
	}
}

// HandleEvent применяет платежное событие к брони
func (s *Service) HandleEvent(ctx context.Context, input *PaymentEventInput) (*PaymentEventResult, error) {
	s.logger.Info("HandleEvent: %s for booking id=%d, event id=%s, amount=%.2f",
		input.EventType, input.BookingID, input.EventID, input.Amount)

	if input.EventID == "" {
		return nil, fmt.Errorf("%w: eventId is required", ErrInvalidInput)
	}
	if input.BookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingId must be positive", ErrInvalidInput)
	}
	if input.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	switch input.EventType {
	case EventTypeDepositConfirmed:
		return s.applyDeposit(ctx, input)
	case EventTypeBalanceConfirmed:
		return s.applyTransition(ctx, input, []domain.PaymentStatus{domain.PaymentDepositPaid}, domain.PaymentFullyPaid)
	case EventTypeRefundConfirmed:
		return s.applyRefund(ctx, input)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, input.EventType)
	}
}

// applyDeposit обрабатывает подтверждение депозита и, для провайдеров
// с мгновенным подтверждением, автоматически подтверждает бронь
func (s *Service) applyDeposit(ctx context.Context, input *PaymentEventInput) (*PaymentEventResult, error) {
	result, err := s.applyTransition(ctx, input,
		[]domain.PaymentStatus{domain.PaymentAwaitingDeposit}, domain.PaymentDepositPaid)
	if err != nil || result.Duplicate {
		return result, err
	}

	if result.BookingStatus != string(domain.StatusPending) {
		return result, nil
	}

	provider, err := s.providerClient.GetProvider(ctx, result.providerID)
	if err != nil {
		if errors.Is(err, providerconfig.ErrProviderNotFound) {
			s.logger.Warn("applyDeposit: provider id=%d not found, skipping instant confirmation", result.providerID)
			return result, nil
		}
		s.logger.Error("applyDeposit: failed to get provider id=%d: %v", result.providerID, err)
		return result, nil
	}
	if !provider.InstantBooking {
		return result, nil
	}

	status, err := s.instantConfirm(ctx, input.BookingID, provider)
	if err != nil {
		// Оплата уже применена; неудавшееся автоподтверждение оставляет
		// бронь в pending до ручного подтверждения провайдером
		s.logger.Warn("applyDeposit: instant confirmation failed for booking id=%d: %v", input.BookingID, err)
		return result, nil
	}
	result.BookingStatus = string(status)
	return result, nil
}

// applyRefund различает полный и частичный возврат, сравнивая сумму
// события с непогашенным остатком по журналу обработанных событий
func (s *Service) applyRefund(ctx context.Context, input *PaymentEventInput) (*PaymentEventResult, error) {
	from := []domain.PaymentStatus{
		domain.PaymentDepositPaid,
		domain.PaymentFullyPaid,
		domain.PaymentPartiallyRefunded,
	}

	var result *PaymentEventResult

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, input.BookingID)
		if err != nil {
			return err
		}

		outstanding, err := s.outstandingBalance(txCtx, booking)
		if err != nil {
			return err
		}

		target := domain.PaymentPartiallyRefunded
		if input.Amount >= outstanding {
			target = domain.PaymentRefunded
		}

		result, err = s.mark(txCtx, input, booking, from, target)
		return err
	})

	return s.finish(result, err)
}

// outstandingBalance считает остаток к возврату: списано минус уже
// возвращено. После частичного возврата статус брони больше не говорит,
// сколько денег осталось, - это знает только журнал.
func (s *Service) outstandingBalance(ctx context.Context, booking *domain.Booking) (float64, error) {
	totals, err := s.eventsRepo.AmountTotals(ctx, booking.ID)
	if err != nil {
		s.logger.Error("outstandingBalance: failed to get amount totals for booking id=%d: %v", booking.ID, err)
		return 0, fmt.Errorf("%w: failed to get amount totals: %v", ErrInternal, err)
	}

	charged := totals[EventTypeDepositConfirmed] + totals[EventTypeBalanceConfirmed]
	if charged == 0 {
		// Брони, оплаченные до появления журнала
		charged = booking.AmountPaid()
	}

	return charged - totals[EventTypeRefundConfirmed], nil
}

// applyTransition двигает платежный статус из одного из ожидаемых в новый
func (s *Service) applyTransition(ctx context.Context, input *PaymentEventInput, from []domain.PaymentStatus, to domain.PaymentStatus) (*PaymentEventResult, error) {
	var result *PaymentEventResult

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, input.BookingID)
		if err != nil {
			return err
		}

		result, err = s.mark(txCtx, input, booking, from, to)
		return err
	})

	return s.finish(result, err)
}

// mark записывает событие в журнал и применяет смену статуса. Вызывается
// под блокировкой строки брони внутри транзакции.
func (s *Service) mark(ctx context.Context, input *PaymentEventInput, booking *domain.Booking, from []domain.PaymentStatus, to domain.PaymentStatus) (*PaymentEventResult, error) {
	result := &PaymentEventResult{
		BookingID:     booking.ID,
		PaymentStatus: string(booking.PaymentStatus),
		BookingStatus: string(booking.Status),
		providerID:    booking.ProviderID,
	}

	if err := s.eventsRepo.MarkProcessed(ctx, input.EventID, input.BookingID, input.EventType, input.Amount); err != nil {
		if errors.Is(err, eventRepo.ErrAlreadyProcessed) {
			s.logger.Warn("mark: event id=%s already processed for booking id=%d", input.EventID, input.BookingID)
			result.Duplicate = true
			return result, errDuplicate
		}
		s.logger.Error("mark: failed to record event id=%s: %v", input.EventID, err)
		return nil, fmt.Errorf("%w: failed to record event: %v", ErrInternal, err)
	}

	if err := s.bookingRepo.UpdatePaymentStatus(ctx, booking.ID, from, to); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			s.logger.Warn("mark: booking id=%d payment status %s does not accept %s",
				booking.ID, booking.PaymentStatus, input.EventType)
			return nil, fmt.Errorf("%w: payment status %s does not accept %s",
				ErrInvalidInput, booking.PaymentStatus, input.EventType)
		}
		s.logger.Error("mark: failed to update payment status for booking id=%d: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: failed to update payment status: %v", ErrInternal, err)
	}

	result.PaymentStatus = string(to)
	return result, nil
}

// instantConfirm подтверждает бронь после оплаты депозита, перепроверив
// конфликты: слот могли занять между созданием брони и оплатой
func (s *Service) instantConfirm(ctx context.Context, bookingID int64, provider *providerconfig.Provider) (domain.BookingStatus, error) {
	var confirmed *domain.Booking

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != domain.StatusPending || booking.PaymentStatus != domain.PaymentDepositPaid {
			return fmt.Errorf("%w: booking is %s/%s", ErrInvalidInput, booking.Status, booking.PaymentStatus)
		}

		others, err := s.bookingRepo.GetActiveByProviderAndDate(txCtx, booking.ProviderID, booking.BookingDate)
		if err != nil {
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		start, err := booking.StartTime.Minutes()
		if err != nil {
			return fmt.Errorf("%w: invalid start time: %v", ErrInternal, err)
		}
		competitors := make([]*domain.Booking, 0, len(others))
		for _, other := range others {
			if other.ID != booking.ID {
				competitors = append(competitors, other)
			}
		}
		slot := domain.Interval{Start: start, End: start + booking.DurationMinutes}
		if domain.HasConflict(slot, provider.BufferMinutes, competitors, booking.TeamMemberID) {
			return fmt.Errorf("%w: slot was taken before deposit confirmation", ErrInvalidInput)
		}

		if err := s.bookingRepo.Confirm(txCtx, booking.ID); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				return fmt.Errorf("%w: booking state changed concurrently", ErrInvalidInput)
			}
			return fmt.Errorf("%w: failed to confirm booking: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusConfirmed
		confirmed = booking
		return nil
	})

	if err != nil {
		return "", err
	}

	// Событие публикуется после коммита: откат или повтор транзакции
	// не должны породить фантомное подтверждение
	s.publisher.PublishAsync(domain.NewEvent(domain.EventBookingConfirmed, confirmed))
	return confirmed.Status, nil
}

func (s *Service) lockBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: failed to lock booking: %v", ErrInternal, err)
	}
	return booking, nil
}

// finish конвертирует duplicate-маркер в успешный ответ
func (s *Service) finish(result *PaymentEventResult, err error) (*PaymentEventResult, error) {
	if errors.Is(err, errDuplicate) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
