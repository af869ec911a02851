package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/payments"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
)

// PricingConfig параметры расчёта стоимости, задаются платформой
type PricingConfig struct {
	ServiceFeePercent float64
	DefaultCurrency   string
}

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo    BookingRepository
	providerClient ProviderConfigClient
	paymentClient  PaymentClient
	publisher      EventPublisher
	txManager      TransactionManager
	pricing        PricingConfig
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	providerClient ProviderConfigClient,
	paymentClient PaymentClient,
	publisher EventPublisher,
	txManager TransactionManager,
	pricing PricingConfig,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:    bookingRepo,
		providerClient: providerClient,
		paymentClient:  paymentClient,
		publisher:      publisher,
		txManager:      txManager,
		pricing:        pricing,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// Execute выполняет use case создания бронирования
// Использует сериализуемую транзакцию для предотвращения гонки данных:
// двойная бронь одного слота невозможна, даже если два запроса проходят
// проверку конфликтов одновременно
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: client=%d, provider=%d, service=%d, date=%s, time=%s",
		req.ClientID, req.ProviderID, req.ServiceID, req.Date, req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем настройки провайдера
	provider, err := uc.providerClient.GetProvider(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, providerconfig.ErrProviderNotFound) {
			uc.logger.Warn("CreateBooking: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("CreateBooking: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 4. Получаем услугу
	service, err := uc.providerClient.GetService(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		if errors.Is(err, providerconfig.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 5. Получаем выбранные дополнения
	var addons []providerconfig.Addon
	if len(req.AddonIDs) > 0 {
		addons, err = uc.providerClient.GetAddons(ctx, req.ProviderID, req.ServiceID, req.AddonIDs)
		if err != nil {
			if errors.Is(err, providerconfig.ErrAddonNotFound) {
				uc.logger.Warn("CreateBooking: addons %v not found for service id=%d", req.AddonIDs, req.ServiceID)
				return nil, ErrAddonNotFound
			}
			uc.logger.Error("CreateBooking: failed to get addons: %v", err)
			return nil, fmt.Errorf("%w: failed to get addons: %v", ErrInternal, err)
		}
	}

	// 6. Если запрошен конкретный мастер - проверяем, что он существует и активен
	var requestedMember *providerconfig.TeamMember
	if req.TeamMemberID != nil {
		if !provider.SalonMode {
			uc.logger.Warn("CreateBooking: provider id=%d is not a salon, team_member_id rejected", req.ProviderID)
			return nil, fmt.Errorf("%w: provider does not have team members", ErrInvalidInput)
		}
		requestedMember = provider.FindTeamMember(*req.TeamMemberID)
		if requestedMember == nil {
			uc.logger.Warn("CreateBooking: team member id=%d not found for provider id=%d",
				*req.TeamMemberID, req.ProviderID)
			return nil, ErrTeamMemberNotFound
		}
	}

	// 7. Все даты и времена интерпретируем в таймзоне провайдера
	loc, err := time.LoadLocation(provider.Timezone)
	if err != nil {
		uc.logger.Warn("CreateBooking: unknown timezone %q for provider id=%d, falling back to UTC",
			provider.Timezone, req.ProviderID)
		loc = time.UTC
	}

	bookingDate, err := time.ParseInLocation(domain.DateFormat, req.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrInvalidInput)
	}
	nowLocal := now.In(loc)

	// 8. Валидация даты
	if err := validateDate(bookingDate, nowLocal, provider); err != nil {
		uc.logger.Warn("CreateBooking: date validation failed: %v", err)
		return nil, err
	}

	// 9. Длительность и стоимость: услуга плюс выбранные дополнения
	durationMinutes := service.DurationMinutes
	addonTotal := 0.0
	for _, addon := range addons {
		durationMinutes += addon.DurationMinutes
		addonTotal += addon.Price
	}

	serviceFee := (service.Price + addonTotal) * uc.pricing.ServiceFeePercent / 100

	currency := provider.Currency
	if currency == "" {
		currency = uc.pricing.DefaultCurrency
	}

	// 10. Проверяем, что слот помещается в рабочие часы
	slot, err := slotInterval(req.StartTime, durationMinutes)
	if err != nil {
		return nil, err
	}

	weekday := bookingDate.Weekday()
	daySchedule := provider.WeeklySchedule.ForWeekday(weekday)
	if requestedMember != nil {
		daySchedule = requestedMember.WeeklySchedule.ForWeekday(weekday)
	}

	openMin, closeMin, open, err := dayWindow(daySchedule)
	if err != nil {
		uc.logger.Error("CreateBooking: bad working hours for provider id=%d: %v", req.ProviderID, err)
		return nil, err
	}
	if !open {
		uc.logger.Warn("CreateBooking: provider id=%d is closed on %s", req.ProviderID, req.Date)
		return nil, ErrProviderClosed
	}
	if err := validateSlotFitsWindow(slot, openMin, closeMin, provider.SlotGranularityMinutes); err != nil {
		uc.logger.Warn("CreateBooking: slot validation failed: %v", err)
		return nil, err
	}

	// 11. Проверяем минимальное время до записи
	if err := validateBookingNotice(bookingDate, slot.Start, nowLocal, provider.MinNoticeHours); err != nil {
		uc.logger.Warn("CreateBooking: booking notice validation failed: %v", err)
		return nil, err
	}

	// Переменная для хранения результата
	var result *domain.Booking

	// 12. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 12.1. Получаем все активные бронирования на эту дату с блокировкой (FOR UPDATE)
		bookings, err := uc.bookingRepo.GetActiveByProviderAndDate(txCtx, req.ProviderID, bookingDate)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		// 12.2. Разрешаем назначение мастера и проверяем конфликты
		var teamMemberID *int64

		switch {
		case requestedMember != nil:
			if domain.HasConflict(slot, provider.BufferMinutes, bookings, &requestedMember.ID) {
				uc.logger.Warn("CreateBooking: slot taken for team member id=%d", requestedMember.ID)
				return ErrSlotNotAvailable
			}
			teamMemberID = &requestedMember.ID

		case provider.SalonMode:
			lastBooked, err := uc.bookingRepo.TeamMemberLastBooked(txCtx, req.ProviderID)
			if err != nil {
				uc.logger.Error("CreateBooking: failed to get team member history: %v", err)
				return fmt.Errorf("%w: failed to get team member history: %v", ErrInternal, err)
			}

			member := pickLeastRecentlyBooked(provider, weekday, slot, provider.BufferMinutes, bookings, lastBooked)
			if member == nil {
				uc.logger.Warn("CreateBooking: no team member available for provider id=%d at %s %s",
					req.ProviderID, req.Date, req.StartTime)
				return ErrNoTeamMemberAvailable
			}
			uc.logger.Info("CreateBooking: assigned team member id=%d", member.ID)
			teamMemberID = &member.ID

		default:
			if domain.HasConflict(slot, provider.BufferMinutes, bookings, nil) {
				uc.logger.Warn("CreateBooking: slot taken for provider id=%d at %s %s",
					req.ProviderID, req.Date, req.StartTime)
				return ErrSlotNotAvailable
			}
		}

		// 12.3. Создаем бронирование с денормализацией коммерческих данных
		booking := &domain.Booking{
			ClientID:        req.ClientID,
			ProviderID:      req.ProviderID,
			ServiceID:       req.ServiceID,
			TeamMemberID:    teamMemberID,
			BookingDate:     bookingDate,
			StartTime:       req.StartTime,
			DurationMinutes: durationMinutes,
			Timezone:        provider.Timezone,
			ServiceName:     service.Name,
			ServicePrice:    service.Price,
			AddonIDs:        req.AddonIDs,
			AddonTotal:      addonTotal,
			ServiceFee:      serviceFee,
			DepositAmount:   service.DepositAmount,
			Currency:        currency,
			Status:          domain.StatusPending,
			PaymentStatus:   domain.PaymentAwaitingDeposit,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 12.4. Инициируем списание депозита. Отклоненный платеж
		// откатывает транзакцию - бронь без депозита не существует
		if created.DepositAmount > 0 {
			if _, err := uc.paymentClient.ChargeDeposit(txCtx, created.ID, created.DepositAmount+created.ServiceFee, currency); err != nil {
				if errors.Is(err, payments.ErrChargeDeclined) {
					uc.logger.Warn("CreateBooking: deposit declined for booking id=%d", created.ID)
					return ErrPaymentDeclined
				}
				uc.logger.Error("CreateBooking: failed to charge deposit for booking id=%d: %v", created.ID, err)
				return fmt.Errorf("%w: failed to charge deposit: %v", ErrInternal, err)
			}
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

	// 13. Публикуем события после коммита транзакции
	uc.publisher.PublishAsync(domain.NewEvent(domain.EventBookingCreated, result))
	if result.TeamMemberID != nil {
		uc.publisher.PublishAsync(domain.NewEvent(domain.EventTeamMemberAssigned, result))
	}

	// Конвертируем в response
	return &Response{
		ID:              result.ID,
		ClientID:        result.ClientID,
		ProviderID:      result.ProviderID,
		ServiceID:       result.ServiceID,
		TeamMemberID:    result.TeamMemberID,
		BookingDate:     result.BookingDate,
		StartTime:       result.StartTime,
		DurationMinutes: result.DurationMinutes,
		Timezone:        result.Timezone,
		Status:          string(result.Status),
		PaymentStatus:   string(result.PaymentStatus),
		ServiceName:     result.ServiceName,
		ServicePrice:    result.ServicePrice,
		AddonIDs:        result.AddonIDs,
		AddonTotal:      result.AddonTotal,
		ServiceFee:      result.ServiceFee,
		DepositAmount:   result.DepositAmount,
		Currency:        result.Currency,
		CreatedAt:       result.CreatedAt,
		UpdatedAt:       result.UpdatedAt,
	}, nil
}
