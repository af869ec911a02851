package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/pkg/types"
)

// UseCase use case для расчёта доступных слотов для бронирования
type UseCase struct {
	bookingRepo    BookingRepository
	providerClient ProviderConfigClient
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	providerClient ProviderConfigClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:    bookingRepo,
		providerClient: providerClient,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// Execute выполняет use case расчёта доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: provider=%d, service=%d, date=%s",
		req.ProviderID, req.ServiceID, req.Date)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем настройки провайдера
	provider, err := uc.providerClient.GetProvider(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, providerconfig.ErrProviderNotFound) {
			uc.logger.Warn("GetAvailableSlots: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 4. Получаем услугу
	service, err := uc.providerClient.GetService(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		if errors.Is(err, providerconfig.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 5. Если запрошен конкретный мастер - проверяем, что он существует и активен
	var member *providerconfig.TeamMember
	if req.TeamMemberID != nil {
		if !provider.SalonMode {
			uc.logger.Warn("GetAvailableSlots: provider id=%d is not a salon, team_member_id rejected", req.ProviderID)
			return nil, fmt.Errorf("%w: provider does not have team members", ErrInvalidInput)
		}
		member = provider.FindTeamMember(*req.TeamMemberID)
		if member == nil {
			uc.logger.Warn("GetAvailableSlots: team member id=%d not found for provider id=%d",
				*req.TeamMemberID, req.ProviderID)
			return nil, ErrTeamMemberNotFound
		}
	}

	// 6. Все даты и времена интерпретируем в таймзоне провайдера
	loc, err := time.LoadLocation(provider.Timezone)
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: unknown timezone %q for provider id=%d, falling back to UTC",
			provider.Timezone, req.ProviderID)
		loc = time.UTC
	}

	requestDate, err := time.ParseInLocation(domain.DateFormat, req.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrInvalidInput)
	}
	nowLocal := now.In(loc)

	emptyResponse := &Response{
		ProviderID: req.ProviderID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		Timezone:   provider.Timezone,
		Slots:      []domain.AvailabilitySlot{},
	}

	// 7. Отсекаем даты, на которые слотов не бывает вовсе
	if isDateInPast(requestDate, nowLocal) {
		uc.logger.Info("GetAvailableSlots: date %s is in the past", req.Date)
		return emptyResponse, nil
	}
	if isSameDay(requestDate, nowLocal) && !provider.SameDayBooking {
		uc.logger.Info("GetAvailableSlots: provider id=%d does not accept same-day bookings", req.ProviderID)
		return emptyResponse, nil
	}
	if isBeyondAdvanceWindow(requestDate, nowLocal, provider.AdvanceBookingDays) {
		uc.logger.Info("GetAvailableSlots: date %s is beyond the %d-day booking window",
			req.Date, provider.AdvanceBookingDays)
		return emptyResponse, nil
	}
	if provider.IsDateBlocked(requestDate) {
		uc.logger.Info("GetAvailableSlots: date %s is blocked for provider id=%d", req.Date, req.ProviderID)
		return emptyResponse, nil
	}

	// 8. Рабочее окно дня: у конкретного мастера - его расписание,
	// иначе расписание провайдера
	weekday := requestDate.Weekday()
	daySchedule := provider.WeeklySchedule.ForWeekday(weekday)
	if member != nil {
		daySchedule = member.WeeklySchedule.ForWeekday(weekday)
	}

	openMin, closeMin, open, err := dayWindow(daySchedule)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: bad working hours for provider id=%d: %v", req.ProviderID, err)
		return nil, err
	}
	if !open {
		uc.logger.Info("GetAvailableSlots: provider id=%d is closed on %s", req.ProviderID, req.Date)
		return emptyResponse, nil
	}

	// 9. Генерируем кандидаты слотов
	granularity := provider.SlotGranularityMinutes
	if granularity <= 0 {
		granularity = domain.DefaultSlotGranularityMinutes
	}
	candidates := generateCandidates(openMin, closeMin, service.DurationMinutes, granularity)

	// 10. Активные бронирования на эту дату
	bookings, err := uc.bookingRepo.GetActiveByProviderAndDate(ctx, req.ProviderID, requestDate)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 11. Размечаем доступность каждого кандидата
	cutoffMin := noticeCutoffMinutes(requestDate, nowLocal, provider.MinNoticeHours)

	slots := make([]domain.AvailabilitySlot, 0, len(candidates))
	for _, candidate := range candidates {
		available := candidate.Start >= cutoffMin

		if available {
			switch {
			case member != nil:
				available = !domain.HasConflict(candidate, provider.BufferMinutes, bookings, &member.ID)
			case provider.SalonMode:
				available = anyMemberFree(provider, weekday, candidate, provider.BufferMinutes, bookings)
			default:
				available = !domain.HasConflict(candidate, provider.BufferMinutes, bookings, nil)
			}
		}

		startTS, err := types.NewTimeStringFromMinutes(candidate.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to format slot start: %v", ErrInternal, err)
		}
		endTS, err := types.NewTimeStringFromMinutes(candidate.End)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to format slot end: %v", ErrInternal, err)
		}

		slots = append(slots, domain.AvailabilitySlot{
			Date:            requestDate,
			StartTime:       startTS,
			EndTime:         endTS,
			DurationMinutes: service.DurationMinutes,
			Available:       available,
		})
	}

	uc.logger.Info("GetAvailableSlots: generated %d slots for provider=%d, service=%d, date=%s",
		len(slots), req.ProviderID, req.ServiceID, req.Date)

	return &Response{
		ProviderID: req.ProviderID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		Timezone:   provider.Timezone,
		Slots:      slots,
	}, nil
}
