package reschedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	bookingRepo "github.com/glossly/booking-service/internal/infra/storage/booking"
	rescheduleRepo "github.com/glossly/booking-service/internal/infra/storage/reschedule"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/pkg/types"
)

// Service сервис переговоров о переносе записи.
//
// Провайдер предлагает новые дату и время, клиент принимает или
// отклоняет. На бронь может существовать не более одного pending
// запроса; расписание брони меняет только одобрение клиента.
type Service struct {
	bookingRepo    BookingRepository
	requestRepo    RescheduleRepository
	providerClient ProviderConfigClient
	publisher      EventPublisher
	txManager      TransactionManager
	timeProvider   TimeProvider
	logger         Logger
}

// NewService создает новый экземпляр сервиса переносов
func NewService(
	bookingRepo BookingRepository,
	requestRepo RescheduleRepository,
	providerClient ProviderConfigClient,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:    bookingRepo,
		requestRepo:    requestRepo,
		providerClient: providerClient,
		publisher:      publisher,
		txManager:      txManager,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// RequestReschedule создает запрос провайдера на перенос записи
func (s *Service) RequestReschedule(ctx context.Context, bookingID int64, input *RequestRescheduleInput) (*RescheduleResponse, error) {
	actor := input.Actor
	s.logger.Info("RequestReschedule: booking id=%d, proposed %s %s by %s=%d",
		bookingID, input.ProposedDate, input.ProposedTime, actor.Role, actor.UserID)

	// 1. Валидация входных данных
	if input.ProposedDate == "" {
		return nil, fmt.Errorf("%w: proposedDate is required", ErrInvalidInput)
	}
	if input.ProposedTime.IsZero() {
		return nil, fmt.Errorf("%w: proposedTime is required", ErrInvalidInput)
	}
	if err := input.ProposedTime.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid proposedTime format: %v", ErrInvalidInput, err)
	}

	// 2. Получаем бронь и проверяем права: перенос предлагает только её провайдер
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("RequestReschedule: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("RequestReschedule: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: RequestReschedule - repository error: %v", ErrInternal, err)
	}

	if actor.Role != domain.RoleProvider || !actor.Owns(booking) {
		s.logger.Warn("RequestReschedule: access denied for %s=%d to booking id=%d", actor.Role, actor.UserID, bookingID)
		return nil, ErrAccessDenied
	}

	if !booking.IsActive() {
		s.logger.Warn("RequestReschedule: booking id=%d is not active, status=%s", bookingID, booking.Status)
		return nil, ErrBookingNotActive
	}

	// 3. Проверяем предложенное время по настройкам провайдера
	provider, err := s.getProvider(ctx, booking.ProviderID)
	if err != nil {
		return nil, err
	}

	proposedDate, err := s.validateProposedSlot(booking, provider, input.ProposedDate, input.ProposedTime)
	if err != nil {
		s.logger.Warn("RequestReschedule: proposed slot rejected for booking id=%d: %v", bookingID, err)
		return nil, err
	}

	// 4. Создаем pending запрос; второй pending запрос на ту же бронь
	// отбивает частичный уникальный индекс
	request := &domain.RescheduleRequest{
		BookingID:    bookingID,
		ProposedDate: proposedDate,
		ProposedTime: input.ProposedTime,
		Reason:       input.Reason,
		Status:       domain.RescheduleStatusPending,
	}

	created, err := s.requestRepo.Create(ctx, request)
	if err != nil {
		if errors.Is(err, rescheduleRepo.ErrPendingRequestExists) {
			s.logger.Warn("RequestReschedule: booking id=%d already has a pending request", bookingID)
			return nil, ErrPendingRequestExists
		}
		s.logger.Error("RequestReschedule: failed to create request for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: RequestReschedule - failed to create request: %v", ErrInternal, err)
	}

	s.logger.Info("RequestReschedule: created request id=%d for booking id=%d", created.ID, bookingID)
	s.publisher.PublishAsync(domain.NewEventWithReason(domain.EventRescheduleRequested, booking, input.Reason))

	return fromDomainRequest(created), nil
}

// RespondToReschedule обрабатывает ответ клиента на запрос переноса.
//
// Одобрение перепроверяет конфликты на предложенное время в
// сериализуемой транзакции и атомарно двигает бронь вместе с
// закрытием запроса. Отклонение только закрывает запрос.
func (s *Service) RespondToReschedule(ctx context.Context, requestID int64, input *RespondRescheduleInput) (*RescheduleResponse, error) {
	actor := input.Actor
	s.logger.Info("RespondToReschedule: request id=%d, approve=%t by %s=%d",
		requestID, input.Approve, actor.Role, actor.UserID)

	// 1. Получаем запрос и бронь
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, rescheduleRepo.ErrRequestNotFound) {
			s.logger.Warn("RespondToReschedule: request id=%d not found", requestID)
			return nil, ErrRequestNotFound
		}
		s.logger.Error("RespondToReschedule: repository error for request id=%d: %v", requestID, err)
		return nil, fmt.Errorf("%w: RespondToReschedule - repository error: %v", ErrInternal, err)
	}

	if !request.IsPending() {
		s.logger.Warn("RespondToReschedule: request id=%d already resolved, status=%s", requestID, request.Status)
		return nil, ErrAlreadyResolved
	}

	booking, err := s.bookingRepo.GetByID(ctx, request.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("RespondToReschedule: repository error for booking id=%d: %v", request.BookingID, err)
		return nil, fmt.Errorf("%w: RespondToReschedule - repository error: %v", ErrInternal, err)
	}

	// 2. Отвечает только клиент брони
	if actor.Role != domain.RoleClient || !actor.Owns(booking) {
		s.logger.Warn("RespondToReschedule: access denied for %s=%d to request id=%d", actor.Role, actor.UserID, requestID)
		return nil, ErrAccessDenied
	}

	// 3. Отклонение: закрываем запрос, бронь не трогаем
	if !input.Approve {
		if err := s.resolve(ctx, requestID, domain.RescheduleStatusDenied); err != nil {
			return nil, err
		}

		s.logger.Info("RespondToReschedule: request id=%d denied", requestID)
		s.publisher.PublishAsync(domain.NewEventWithReason(domain.EventRescheduleDenied, booking, request.Reason))

		now := s.timeProvider.Now()
		request.Status = domain.RescheduleStatusDenied
		request.RespondedAt = &now
		return fromDomainRequest(request), nil
	}

	// 4. Одобрение: двигаем бронь и закрываем запрос в одной транзакции
	var moved *domain.Booking

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		locked, err := s.bookingRepo.GetByIDForUpdate(txCtx, request.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to lock booking: %v", ErrInternal, err)
		}

		if !locked.IsActive() {
			s.logger.Warn("RespondToReschedule: booking id=%d no longer active, status=%s", locked.ID, locked.Status)
			return ErrBookingNotActive
		}

		provider, err := s.getProvider(txCtx, locked.ProviderID)
		if err != nil {
			return err
		}

		// Перепроверяем конфликты: слот могли занять, пока клиент думал
		others, err := s.bookingRepo.GetActiveByProviderAndDate(txCtx, locked.ProviderID, request.ProposedDate)
		if err != nil {
			s.logger.Error("RespondToReschedule: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}
		others = excludeBooking(others, locked.ID)

		proposedStart, err := request.ProposedTime.Minutes()
		if err != nil {
			return fmt.Errorf("%w: invalid proposed time: %v", ErrInternal, err)
		}
		slot := domain.Interval{Start: proposedStart, End: proposedStart + locked.DurationMinutes}
		if domain.HasConflict(slot, provider.BufferMinutes, others, locked.TeamMemberID) {
			s.logger.Warn("RespondToReschedule: proposed slot taken for booking id=%d", locked.ID)
			return ErrSlotNotAvailable
		}

		if err := s.bookingRepo.UpdateSchedule(txCtx, locked.ID, request.ProposedDate, request.ProposedTime, nil); err != nil {
			s.logger.Error("RespondToReschedule: failed to update schedule for booking id=%d: %v", locked.ID, err)
			return fmt.Errorf("%w: failed to update schedule: %v", ErrInternal, err)
		}
		if err := s.resolve(txCtx, requestID, domain.RescheduleStatusApproved); err != nil {
			return err
		}

		locked.BookingDate = request.ProposedDate
		locked.StartTime = request.ProposedTime
		moved = locked
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("RespondToReschedule: request id=%d approved, booking id=%d moved to %s %s",
		requestID, moved.ID, request.ProposedDate.Format(domain.DateFormat), request.ProposedTime)
	s.publisher.PublishAsync(domain.NewEvent(domain.EventRescheduleApproved, moved))
	s.publisher.PublishAsync(domain.NewEvent(domain.EventBookingRescheduled, moved))

	now := s.timeProvider.Now()
	request.Status = domain.RescheduleStatusApproved
	request.RespondedAt = &now
	return fromDomainRequest(request), nil
}

// Вспомогательные методы

func (s *Service) getProvider(ctx context.Context, providerID int64) (*providerconfig.Provider, error) {
	provider, err := s.providerClient.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, providerconfig.ErrProviderNotFound) {
			s.logger.Warn("getProvider: provider id=%d not found", providerID)
			return nil, ErrProviderNotFound
		}
		s.logger.Error("getProvider: failed to get provider id=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}
	return provider, nil
}

// resolve закрывает запрос и конвертирует ошибки репозитория
func (s *Service) resolve(ctx context.Context, requestID int64, status domain.RescheduleStatus) error {
	if err := s.requestRepo.Resolve(ctx, requestID, status); err != nil {
		if errors.Is(err, rescheduleRepo.ErrAlreadyResolved) {
			s.logger.Warn("resolve: request id=%d already resolved", requestID)
			return ErrAlreadyResolved
		}
		s.logger.Error("resolve: failed to resolve request id=%d: %v", requestID, err)
		return fmt.Errorf("%w: failed to resolve request: %v", ErrInternal, err)
	}
	return nil
}

// validateProposedSlot проверяет предложенные дату и время: дата не в
// прошлом и не заблокирована, слот в рабочих часах брони
func (s *Service) validateProposedSlot(
	booking *domain.Booking,
	provider *providerconfig.Provider,
	proposedDateStr string,
	proposedTime types.TimeString,
) (time.Time, error) {
	loc, err := time.LoadLocation(provider.Timezone)
	if err != nil {
		loc = time.UTC
	}

	proposedDate, err := time.ParseInLocation(domain.DateFormat, proposedDateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: proposedDate must be in YYYY-MM-DD format", ErrInvalidInput)
	}

	nowLocal := s.timeProvider.Now().In(loc)
	if isDateInPast(proposedDate, nowLocal) {
		return time.Time{}, fmt.Errorf("%w: proposed date is in the past", ErrInvalidInput)
	}
	if provider.IsDateBlocked(proposedDate) {
		return time.Time{}, fmt.Errorf("%w: proposed date is blocked", ErrSlotNotAvailable)
	}

	start, err := proposedTime.Minutes()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid proposedTime: %v", ErrInvalidInput, err)
	}

	daySchedule := scheduleForBooking(provider, booking, proposedDate.Weekday())
	openMin, closeMin, open, err := dayWindow(daySchedule)
	if err != nil {
		return time.Time{}, err
	}
	if !open || start < openMin || start+booking.DurationMinutes > closeMin {
		return time.Time{}, ErrOutsideWorkingHours
	}

	return proposedDate, nil
}
