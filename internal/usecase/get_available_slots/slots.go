package get_available_slots

import (
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/pkg/types"
)

// dayWindow возвращает рабочее окно дня в минутах от полуночи.
// ok == false, если провайдер в этот день закрыт.
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

// generateCandidates генерирует все кандидаты слотов внутри рабочего окна.
// Старты идут с шагом granularity от времени открытия; слот должен
// целиком помещаться до закрытия (конец слота может совпадать с закрытием).
func generateCandidates(openMin, closeMin, durationMinutes, granularity int) []domain.Interval {
	candidates := make([]domain.Interval, 0)

	for start := openMin; start+durationMinutes <= closeMin; start += granularity {
		candidates = append(candidates, domain.Interval{
			Start: start,
			End:   start + durationMinutes,
		})
	}

	return candidates
}

// noticeCutoffMinutes вычисляет самое раннее допустимое время начала слота
// (в минутах от полуночи запрошенной даты) с учетом минимального уведомления.
//
// Возвращает:
//   - 0, если вся дата уже за горизонтом уведомления (любой слот подходит)
//   - 24*60+1, если горизонт уведомления уже прошел всю запрошенную дату
//     (ни один слот не подходит)
//   - иначе минуту, раньше которой слот начинаться не может
func noticeCutoffMinutes(requestDate, nowLocal time.Time, minNoticeHours int) int {
	cutoff := nowLocal.Add(time.Duration(minNoticeHours) * time.Hour)

	cutoffDay := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())
	requestDay := time.Date(requestDate.Year(), requestDate.Month(), requestDate.Day(), 0, 0, 0, 0, requestDate.Location())

	if cutoffDay.Before(requestDay) {
		return 0
	}
	if cutoffDay.After(requestDay) {
		return 24*60 + 1
	}

	// Округление вверх до минуты: создание брони сравнивает точные
	// моменты, и слот в усеченных секундах до горизонта был бы показан
	// доступным, а затем отклонен
	cutoffMin := cutoff.Hour()*60 + cutoff.Minute()
	if cutoff.Second() > 0 || cutoff.Nanosecond() > 0 {
		cutoffMin++
	}
	return cutoffMin
}

// memberCoversInterval проверяет, что рабочие часы мастера в указанный день
// полностью покрывают интервал слота
func memberCoversInterval(member *providerconfig.TeamMember, weekday time.Weekday, candidate domain.Interval) bool {
	openMin, closeMin, ok, err := dayWindow(member.WeeklySchedule.ForWeekday(weekday))
	if err != nil || !ok {
		return false
	}
	return candidate.Start >= openMin && candidate.End <= closeMin
}

// anyMemberFree проверяет, есть ли хотя бы один активный мастер, который
// работает в интервале слота и не имеет пересекающихся бронирований
func anyMemberFree(
	provider *providerconfig.Provider,
	weekday time.Weekday,
	candidate domain.Interval,
	bufferMinutes int,
	bookings []*domain.Booking,
) bool {
	for i := range provider.TeamMembers {
		member := &provider.TeamMembers[i]
		if !member.Active {
			continue
		}
		if !memberCoversInterval(member, weekday, candidate) {
			continue
		}
		if !domain.HasConflict(candidate, bufferMinutes, bookings, &member.ID) {
			return true
		}
	}
	return false
}

// isDateInPast проверяет, что дата раньше сегодняшнего дня
func isDateInPast(date, now time.Time) bool {
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return dateOnly.Before(nowOnly)
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// isBeyondAdvanceWindow проверяет, что дата дальше горизонта бронирования.
// advanceBookingDays == 0 означает отсутствие ограничения.
func isBeyondAdvanceWindow(date, now time.Time, advanceBookingDays int) bool {
	if advanceBookingDays <= 0 {
		return false
	}
	horizon := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, advanceBookingDays)
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return dateOnly.After(horizon)
}
