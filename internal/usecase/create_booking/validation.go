package create_booking

import (
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.TeamMemberID != nil && *req.TeamMemberID <= 0 {
		return fmt.Errorf("%w: teamMemberID must be positive", ErrInvalidInput)
	}

	for _, addonID := range req.AddonIDs {
		if addonID <= 0 {
			return fmt.Errorf("%w: addon ids must be positive", ErrInvalidInput)
		}
	}

	if req.Date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if _, err := time.Parse(domain.DateFormat, req.Date); err != nil {
		return fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	return nil
}

// validateDate проверяет, что дата подходит для бронирования
func validateDate(bookingDate, now time.Time, provider *providerconfig.Provider) error {
	if isDateInPast(bookingDate, now) {
		return ErrInvalidDate
	}

	if isSameDay(bookingDate, now) && !provider.SameDayBooking {
		return ErrSameDayNotAllowed
	}

	if provider.AdvanceBookingDays > 0 {
		maxDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, provider.AdvanceBookingDays)
		bookingDateOnly := time.Date(bookingDate.Year(), bookingDate.Month(), bookingDate.Day(), 0, 0, 0, 0, bookingDate.Location())
		if bookingDateOnly.After(maxDate) {
			return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, provider.AdvanceBookingDays)
		}
	}

	if provider.IsDateBlocked(bookingDate) {
		return ErrDateBlocked
	}

	return nil
}

// validateSlotFitsWindow проверяет, что слот помещается в рабочее окно
// и его начало выровнено по сетке слотов провайдера
func validateSlotFitsWindow(slot domain.Interval, openMin, closeMin, granularity int) error {
	if slot.Start < openMin || slot.End > closeMin {
		return ErrOutsideWorkingHours
	}
	if granularity > 0 && (slot.Start-openMin)%granularity != 0 {
		return fmt.Errorf("%w: start time must align to the %d-minute grid", ErrInvalidTimeSlot, granularity)
	}
	return nil
}

// validateBookingNotice проверяет, что бронирование не нарушает minNoticeHours
func validateBookingNotice(bookingDate time.Time, startMin int, nowLocal time.Time, minNoticeHours int) error {
	y, m, d := bookingDate.Date()
	startAt := time.Date(y, m, d, startMin/60, startMin%60, 0, 0, bookingDate.Location())

	if startAt.Before(nowLocal.Add(time.Duration(minNoticeHours) * time.Hour)) {
		return fmt.Errorf("%w: must book at least %d hours in advance", ErrTooLateToBook, minNoticeHours)
	}
	return nil
}

// slotInterval строит интервал слота из времени начала и длительности
func slotInterval(startTime types.TimeString, durationMinutes int) (domain.Interval, error) {
	startMin, err := startTime.Minutes()
	if err != nil {
		return domain.Interval{}, fmt.Errorf("%w: invalid start time: %v", ErrInvalidInput, err)
	}
	return domain.Interval{Start: startMin, End: startMin + durationMinutes}, nil
}

// dayWindow возвращает рабочее окно дня в минутах от полуночи
func dayWindow(schedule providerconfig.DaySchedule) (openMin, closeMin int, ok bool, err error) {
	if !schedule.IsOpen || schedule.OpenTime == nil || schedule.CloseTime == nil {
		return 0, 0, false, nil
	}

	openTS, err := types.NewTimeStringFromString(*schedule.OpenTime)
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: invalid open time %q", ErrInternal, *schedule.OpenTime)
	}
	closeTS, err := types.NewTimeStringFromString(*schedule.CloseTime)
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: invalid close time %q", ErrInternal, *schedule.CloseTime)
	}

	openMin, err = openTS.Minutes()
	if err != nil {
		return 0, 0, false, err
	}
	closeMin, err = closeTS.Minutes()
	if err != nil {
		return 0, 0, false, err
	}

	if closeMin <= openMin {
		return 0, 0, false, nil
	}
	return openMin, closeMin, true, nil
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return dateOnly.Before(nowOnly)
}
