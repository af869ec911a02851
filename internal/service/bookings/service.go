package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	bookingRepo "github.com/glossly/booking-service/internal/infra/storage/booking"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/internal/service/bookings/models"
	"github.com/glossly/booking-service/pkg/types"
)

// Константы статуса возврата в CancelResult
const (
	RefundStatusNone    = "none"
	RefundStatusPending = "pending"
	RefundStatusFailed  = "failed"
)

// Service сервис жизненного цикла бронирований: подтверждение, отмена,
// завершение, неявка и перенос. Каждый переход проверяется правилами
// state machine и выполняется guarded-обновлением под блокировкой строки,
// поэтому конкурентные переходы не теряются и не дублируются.
type Service struct {
	bookingRepo    BookingRepository
	providerClient ProviderConfigClient
	paymentClient  PaymentClient
	publisher      EventPublisher
	txManager      TransactionManager
	params         domain.TransitionParams
	timeProvider   TimeProvider
	logger         Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	providerClient ProviderConfigClient,
	paymentClient PaymentClient,
	publisher EventPublisher,
	txManager TransactionManager,
	params domain.TransitionParams,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:    bookingRepo,
		providerClient: providerClient,
		paymentClient:  paymentClient,
		publisher:      publisher,
		txManager:      txManager,
		params:         params,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// GetByID получает бронирование по ID
// Бронь видят только её клиент и её провайдер
func (s *Service) GetByID(ctx context.Context, id int64, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for %s=%d", id, actor.Role, actor.UserID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if !actor.Owns(booking) {
		s.logger.Warn("GetByID: access denied for %s=%d to booking id=%d", actor.Role, actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetClientBookings получает историю бронирований клиента
// Опционально фильтрует по статусу
func (s *Service) GetClientBookings(ctx context.Context, req *models.GetClientBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetClientBookings: fetching bookings for client=%d, status=%v", req.ClientID, req.Status)

	filter := domain.ClientBookingsFilter{ClientID: req.ClientID}
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetClientBookings: invalid status=%s for client=%d", *req.Status, req.ClientID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Status = &status
	}

	bookings, err := s.bookingRepo.GetByClientID(ctx, filter)
	if err != nil {
		s.logger.Error("GetClientBookings: repository error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: GetClientBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetClientBookings: fetched %d bookings for client=%d", len(bookings), req.ClientID)
	return models.FromDomainBookingList(bookings), nil
}

// GetProviderBookings получает бронирования провайдера с фильтрацией
// по мастеру, периоду, статусу и включению неактивных броней
func (s *Service) GetProviderBookings(ctx context.Context, req *models.GetProviderBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetProviderBookings: fetching bookings for provider=%d", req.ProviderID)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetProviderBookings: invalid filter for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.GetByProviderWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetProviderBookings: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: GetProviderBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetProviderBookings: fetched %d bookings for provider=%d", len(bookings), req.ProviderID)
	return models.FromDomainBookingList(bookings), nil
}

// Confirm подтверждает бронь провайдером
// Требует оплаченного депозита: pending + awaiting_deposit подтвердить нельзя
func (s *Service) Confirm(ctx context.Context, bookingID int64, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("Confirm: confirming booking id=%d by %s=%d", bookingID, actor.Role, actor.UserID)

	var confirmed *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, bookingID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if err := domain.CanTransition(booking, domain.EventConfirm, actor, now, s.params); err != nil {
			s.logger.Warn("Confirm: transition rejected for booking id=%d: %v", bookingID, err)
			return err
		}

		if err := s.bookingRepo.Confirm(txCtx, bookingID); err != nil {
			return s.mapGuardedError("Confirm", bookingID, err)
		}

		booking.Status = domain.StatusConfirmed
		booking.ConfirmedAt = &now
		confirmed = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Confirm: successfully confirmed booking id=%d", bookingID)
	s.publisher.PublishAsync(domain.NewEvent(domain.EventBookingConfirmed, confirmed))

	return models.FromDomainBooking(confirmed), nil
}

// Cancel отменяет бронь клиентом или провайдером.
//
// Сумма возврата считается по политике отмены провайдера. Сам возврат
// идет после коммита и best-effort: отказ платежного сервиса не
// откатывает отмену, бронь уже отменена, а возврат дорабатывается
// отдельно (RefundStatus = "failed"). Статус оплаты меняет webhook
// платежного сервиса, не этот метод.
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.CancelResult, error) {
	actor := req.Actor
	s.logger.Info("Cancel: cancelling booking id=%d by %s=%d", bookingID, actor.Role, actor.UserID)

	var cancelled *domain.Booking
	var refundAmount float64

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, bookingID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if err := domain.CanTransition(booking, domain.EventCancel, actor, now, s.params); err != nil {
			s.logger.Warn("Cancel: transition rejected for booking id=%d: %v", bookingID, err)
			return err
		}

		provider, err := s.providerClient.GetProvider(txCtx, booking.ProviderID)
		if err != nil {
			if errors.Is(err, providerconfig.ErrProviderNotFound) {
				s.logger.Warn("Cancel: provider id=%d not found", booking.ProviderID)
				return ErrProviderNotFound
			}
			s.logger.Error("Cancel: failed to get provider id=%d: %v", booking.ProviderID, err)
			return fmt.Errorf("%w: Cancel - failed to get provider: %v", ErrInternal, err)
		}

		refundAmount = refundForCancellation(booking, actor, provider.CancellationPolicy, now)

		target := domain.TargetStatus(domain.EventCancel, actor)
		if err := s.bookingRepo.Cancel(txCtx, bookingID, target, req.CancellationReason); err != nil {
			return s.mapGuardedError("Cancel", bookingID, err)
		}

		booking.Status = target
		booking.CancellationReason = &req.CancellationReason
		booking.CancelledAt = &now
		cancelled = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%d, refund=%.2f", bookingID, refundAmount)
	s.publisher.PublishAsync(domain.NewEventWithReason(domain.EventBookingCancelled, cancelled, req.CancellationReason))

	refundStatus := RefundStatusNone
	if refundAmount > 0 {
		refundStatus = RefundStatusPending
		if err := s.paymentClient.Refund(ctx, bookingID, refundAmount); err != nil {
			s.logger.Error("Cancel: refund of %.2f failed for booking id=%d: %v", refundAmount, bookingID, err)
			refundStatus = RefundStatusFailed
		}
	}

	return &models.CancelResult{
		Booking:      models.FromDomainBooking(cancelled),
		RefundAmount: refundAmount,
		RefundStatus: refundStatus,
	}, nil
}

// Complete завершает запись провайдером с фиксацией чаевых и заметок
// Разрешено только после начала записи
func (s *Service) Complete(ctx context.Context, bookingID int64, req *models.CompleteBookingRequest) (*models.BookingResponse, error) {
	actor := req.Actor
	s.logger.Info("Complete: completing booking id=%d by %s=%d", bookingID, actor.Role, actor.UserID)

	if req.TipAmount < 0 {
		return nil, fmt.Errorf("%w: tip amount must not be negative", ErrInvalidInput)
	}

	var completed *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, bookingID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if err := domain.CanTransition(booking, domain.EventComplete, actor, now, s.params); err != nil {
			s.logger.Warn("Complete: transition rejected for booking id=%d: %v", bookingID, err)
			return err
		}

		if err := s.bookingRepo.Complete(txCtx, bookingID, req.TipAmount, req.InternalNotes); err != nil {
			return s.mapGuardedError("Complete", bookingID, err)
		}

		booking.Status = domain.StatusCompleted
		booking.TipAmount = req.TipAmount
		if req.InternalNotes != nil {
			booking.InternalNotes = req.InternalNotes
		}
		booking.CompletedAt = &now
		completed = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Complete: successfully completed booking id=%d", bookingID)
	s.publisher.PublishAsync(domain.NewEvent(domain.EventBookingCompleted, completed))

	return models.FromDomainBooking(completed), nil
}

// MarkNoShow отмечает неявку клиента
// Разрешено только после истечения grace-периода от начала записи.
// Депозит при неявке не возвращается, статус оплаты не меняется.
func (s *Service) MarkNoShow(ctx context.Context, bookingID int64, req *models.MarkNoShowRequest) (*models.BookingResponse, error) {
	actor := req.Actor
	s.logger.Info("MarkNoShow: marking booking id=%d by %s=%d", bookingID, actor.Role, actor.UserID)

	var marked *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, bookingID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if err := domain.CanTransition(booking, domain.EventMarkNoShow, actor, now, s.params); err != nil {
			s.logger.Warn("MarkNoShow: transition rejected for booking id=%d: %v", bookingID, err)
			return err
		}

		if err := s.bookingRepo.MarkNoShow(txCtx, bookingID, req.InternalNotes); err != nil {
			return s.mapGuardedError("MarkNoShow", bookingID, err)
		}

		booking.Status = domain.StatusNoShow
		if req.InternalNotes != nil {
			booking.InternalNotes = req.InternalNotes
		}
		marked = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("MarkNoShow: successfully marked booking id=%d", bookingID)
	s.publisher.PublishAsync(domain.NewEvent(domain.EventBookingNoShow, marked))

	return models.FromDomainBooking(marked), nil
}

// Reschedule переносит бронь клиентом на новые дату и время.
//
// Перенос разрешен не позже rescheduleWindowHours до начала записи.
// Новое время проходит те же проверки конфликтов, что и создание брони,
// в сериализуемой транзакции; назначенный мастер сохраняется.
func (s *Service) Reschedule(ctx context.Context, bookingID int64, req *models.RescheduleBookingRequest) (*models.BookingResponse, error) {
	actor := req.Actor
	s.logger.Info("Reschedule: moving booking id=%d to %s %s by %s=%d",
		bookingID, req.NewDate, req.NewStartTime, actor.Role, actor.UserID)

	if req.NewDate == "" {
		return nil, fmt.Errorf("%w: newDate is required", ErrInvalidInput)
	}
	if req.NewStartTime.IsZero() {
		return nil, fmt.Errorf("%w: newStartTime is required", ErrInvalidInput)
	}
	if err := req.NewStartTime.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid newStartTime format: %v", ErrInvalidInput, err)
	}

	var rescheduled *domain.Booking

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, bookingID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if err := domain.CanTransition(booking, domain.EventReschedule, actor, now, s.params); err != nil {
			s.logger.Warn("Reschedule: transition rejected for booking id=%d: %v", bookingID, err)
			return err
		}

		provider, err := s.providerClient.GetProvider(txCtx, booking.ProviderID)
		if err != nil {
			if errors.Is(err, providerconfig.ErrProviderNotFound) {
				return ErrProviderNotFound
			}
			s.logger.Error("Reschedule: failed to get provider id=%d: %v", booking.ProviderID, err)
			return fmt.Errorf("%w: Reschedule - failed to get provider: %v", ErrInternal, err)
		}

		newDate, newStart, err := s.validateNewSlot(booking, provider, req.NewDate, req.NewStartTime, now)
		if err != nil {
			return err
		}

		// Проверяем конфликты на новую дату, исключая саму бронь
		others, err := s.bookingRepo.GetActiveByProviderAndDate(txCtx, booking.ProviderID, newDate)
		if err != nil {
			s.logger.Error("Reschedule: failed to get bookings: %v", err)
			return fmt.Errorf("%w: Reschedule - failed to get bookings: %v", ErrInternal, err)
		}
		others = excludeBooking(others, bookingID)

		slot := domain.Interval{Start: newStart, End: newStart + booking.DurationMinutes}
		if domain.HasConflict(slot, provider.BufferMinutes, others, booking.TeamMemberID) {
			s.logger.Warn("Reschedule: new slot taken for booking id=%d", bookingID)
			return ErrSlotNotAvailable
		}

		if err := s.bookingRepo.UpdateSchedule(txCtx, bookingID, newDate, req.NewStartTime, nil); err != nil {
			return s.mapGuardedError("Reschedule", bookingID, err)
		}

		booking.BookingDate = newDate
		booking.StartTime = req.NewStartTime
		rescheduled = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Reschedule: successfully moved booking id=%d to %s %s", bookingID, req.NewDate, req.NewStartTime)
	s.publisher.PublishAsync(domain.NewEvent(domain.EventBookingRescheduled, rescheduled))

	return models.FromDomainBooking(rescheduled), nil
}

// Вспомогательные методы

// lockBooking перечитывает бронь под блокировкой строки
func (s *Service) lockBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("lockBooking: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("lockBooking: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}
	return booking, nil
}

// mapGuardedError конвертирует ошибки guarded-обновлений репозитория
func (s *Service) mapGuardedError(method string, bookingID int64, err error) error {
	if errors.Is(err, bookingRepo.ErrStatusConflict) {
		s.logger.Warn("%s: booking id=%d changed concurrently", method, bookingID)
		return ErrStatusConflict
	}
	s.logger.Error("%s: repository error for booking id=%d: %v", method, bookingID, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
}

// validateNewSlot проверяет новые дату и время переноса: окно переноса,
// дата не в прошлом и не заблокирована, слот в рабочих часах
func (s *Service) validateNewSlot(
	booking *domain.Booking,
	provider *providerconfig.Provider,
	newDateStr string,
	newStartTime types.TimeString,
	now time.Time,
) (time.Time, int, error) {
	loc, err := time.LoadLocation(provider.Timezone)
	if err != nil {
		loc = time.UTC
	}
	nowLocal := now.In(loc)

	// Окно переноса отсчитывается от текущего времени записи
	startAt, err := booking.StartAt()
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: invalid booking time: %v", ErrInternal, err)
	}
	windowDeadline := startAt.Add(-time.Duration(provider.RescheduleWindowHours) * time.Hour)
	if now.After(windowDeadline) {
		s.logger.Warn("Reschedule: window closed for booking id=%d", booking.ID)
		return time.Time{}, 0, ErrRescheduleWindowClosed
	}

	newDate, err := time.ParseInLocation(domain.DateFormat, newDateStr, loc)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: newDate must be in YYYY-MM-DD format", ErrInvalidInput)
	}

	if isDateInPast(newDate, nowLocal) {
		return time.Time{}, 0, fmt.Errorf("%w: new date is in the past", ErrInvalidInput)
	}
	if provider.IsDateBlocked(newDate) {
		return time.Time{}, 0, fmt.Errorf("%w: new date is blocked", ErrSlotNotAvailable)
	}

	newStart, err := newStartTime.Minutes()
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: invalid newStartTime: %v", ErrInvalidInput, err)
	}

	daySchedule := scheduleForBooking(provider, booking, newDate.Weekday())
	openMin, closeMin, open, err := dayWindow(daySchedule)
	if err != nil {
		return time.Time{}, 0, err
	}
	if !open || newStart < openMin || newStart+booking.DurationMinutes > closeMin {
		return time.Time{}, 0, ErrOutsideWorkingHours
	}

	return newDate, newStart, nil
}
