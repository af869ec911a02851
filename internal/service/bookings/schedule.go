package bookings

import (
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/pkg/types"
)

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

// scheduleForBooking возвращает расписание, действующее для брони:
// расписание назначенного мастера, если он есть и активен, иначе
// расписание провайдера
func scheduleForBooking(provider *providerconfig.Provider, b *domain.Booking, weekday time.Weekday) providerconfig.DaySchedule {
	if b.TeamMemberID != nil {
		if member := provider.FindTeamMember(*b.TeamMemberID); member != nil {
			return member.WeeklySchedule.ForWeekday(weekday)
		}
	}
	return provider.WeeklySchedule.ForWeekday(weekday)
}

// excludeBooking выфильтровывает саму переносимую бронь из списка:
// старое время не должно конфликтовать с новым
func excludeBooking(bookings []*domain.Booking, id int64) []*domain.Booking {
	out := make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// isDateInPast проверяет, что дата раньше сегодняшнего дня
func isDateInPast(date, now time.Time) bool {
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return dateOnly.Before(nowOnly)
}
