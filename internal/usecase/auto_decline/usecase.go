package auto_decline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	bookingRepo "github.com/glossly/booking-service/internal/infra/storage/booking"
)

// errSkip внутренний маркер: бронь успела измениться, пока sweeper
// добирался до нее; это не ошибка
var errSkip = errors.New("auto_decline: booking state changed, skipping")

// UseCase use case автоматического отклонения неподтвержденных броней.
// Провайдер обязан подтвердить бронь в течение confirmationSLAHours
// после создания; просроченные pending-брони отменяются, депозит
// возвращается клиенту полностью.
type UseCase struct {
	bookingRepo   BookingRepository
	paymentClient PaymentClient
	publisher     EventPublisher
	txManager     TransactionManager
	slaHours      int
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	paymentClient PaymentClient,
	publisher EventPublisher,
	txManager TransactionManager,
	slaHours int,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		paymentClient: paymentClient,
		publisher:     publisher,
		txManager:     txManager,
		slaHours:      slaHours,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute выполняет один проход sweeper-а.
//
// Каждая бронь обрабатывается в собственной транзакции: неудачный
// возврат по одной броне не мешает остальным. Неудачи не ретраятся
// внутри прохода - бронь остается pending и будет подобрана следующим.
func (uc *UseCase) Execute(ctx context.Context) (*Result, error) {
	now := uc.timeProvider.Now()
	cutoff := now.Add(-time.Duration(uc.slaHours) * time.Hour)

	// 1. Выбираем просроченные брони: pending, депозит оплачен,
	// созданы не позже cutoff
	candidates, err := uc.bookingRepo.SelectUnconfirmedBefore(ctx, cutoff)
	if err != nil {
		uc.logger.Error("AutoDecline: failed to select candidates: %v", err)
		return nil, fmt.Errorf("%w: failed to select candidates: %v", ErrInternal, err)
	}

	result := &Result{CandidateCount: len(candidates)}
	if len(candidates) == 0 {
		return result, nil
	}

	uc.logger.Info("AutoDecline: %d unconfirmed bookings past the %d-hour window", len(candidates), uc.slaHours)

	// 2. Отклоняем по одной, каждую в своей транзакции
	for _, candidate := range candidates {
		declined, err := uc.declineOne(ctx, candidate.ID)
		switch {
		case err == nil:
			result.DeclinedCount++
			uc.publisher.PublishAsync(domain.NewEventWithReason(domain.EventBookingCancelled, declined, domain.AutoDeclineReason))
		case errors.Is(err, errSkip):
			result.SkippedCount++
		default:
			uc.logger.Error("AutoDecline: failed to decline booking id=%d: %v", candidate.ID, err)
			result.FailedIDs = append(result.FailedIDs, candidate.ID)
		}
	}

	uc.logger.Info("AutoDecline: declined=%d, skipped=%d, failed=%d",
		result.DeclinedCount, result.SkippedCount, len(result.FailedIDs))

	return result, nil
}

// declineOne отклоняет одну бронь: блокирует строку, перепроверяет
// состояние, возвращает деньги и переводит оба статуса.
//
// Возврат идет до смены статусов: если платежный сервис отказал,
// транзакция откатывается и бронь остается pending.
func (uc *UseCase) declineOne(ctx context.Context, id int64) (*domain.Booking, error) {
	var declined *domain.Booking

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// Перечитываем под блокировкой: между выборкой и этой точкой
		// провайдер мог успеть подтвердить или клиент - отменить
		booking, err := uc.bookingRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return errSkip
			}
			return fmt.Errorf("%w: failed to lock booking: %v", ErrInternal, err)
		}

		now := uc.timeProvider.Now()
		params := domain.TransitionParams{ConfirmationSLAHours: uc.slaHours}
		if err := domain.CanTransition(booking, domain.EventAutoDecline, domain.SystemActor(), now, params); err != nil {
			return errSkip
		}
		if booking.PaymentStatus != domain.PaymentDepositPaid {
			return errSkip
		}

		// Клиент получает назад депозит и комиссию платформы целиком
		refundAmount := booking.DepositAmount + booking.ServiceFee
		if refundAmount > 0 {
			if err := uc.paymentClient.Refund(txCtx, booking.ID, refundAmount); err != nil {
				return fmt.Errorf("%w: refund failed: %v", ErrInternal, err)
			}
		}

		if err := uc.bookingRepo.Cancel(txCtx, booking.ID, domain.StatusCancelledByProvider, domain.AutoDeclineReason); err != nil {
			return fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
		}
		if err := uc.bookingRepo.UpdatePaymentStatus(txCtx, booking.ID,
			[]domain.PaymentStatus{domain.PaymentDepositPaid}, domain.PaymentRefunded); err != nil {
			return fmt.Errorf("%w: failed to update payment status: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusCancelledByProvider
		booking.PaymentStatus = domain.PaymentRefunded
		declined = booking
		return nil
	})

	if err != nil {
		return nil, err
	}
	return declined, nil
}
