package create_booking

import (
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
)

// memberCoversInterval проверяет, что рабочие часы мастера в указанный день
// полностью покрывают интервал слота
func memberCoversInterval(member *providerconfig.TeamMember, weekday time.Weekday, slot domain.Interval) bool {
	openMin, closeMin, ok, err := dayWindow(member.WeeklySchedule.ForWeekday(weekday))
	if err != nil || !ok {
		return false
	}
	return slot.Start >= openMin && slot.End <= closeMin
}

// pickLeastRecentlyBooked выбирает свободного мастера для слота.
//
// Кандидаты - активные мастера, чьи рабочие часы покрывают слот и у
// которых нет пересекающихся бронирований. Из кандидатов выбирается
// мастер, которому дольше всех не назначали запись (мастера вообще без
// записей идут первыми); при равенстве выигрывает меньший ID, чтобы
// выбор был детерминированным.
func pickLeastRecentlyBooked(
	provider *providerconfig.Provider,
	weekday time.Weekday,
	slot domain.Interval,
	bufferMinutes int,
	bookings []*domain.Booking,
	lastBooked map[int64]time.Time,
) *providerconfig.TeamMember {
	var best *providerconfig.TeamMember
	var bestAt time.Time

	for i := range provider.TeamMembers {
		member := &provider.TeamMembers[i]
		if !member.Active {
			continue
		}
		if !memberCoversInterval(member, weekday, slot) {
			continue
		}
		if domain.HasConflict(slot, bufferMinutes, bookings, &member.ID) {
			continue
		}

		at := lastBooked[member.ID] // нулевое время, если записей еще не было

		if best == nil || at.Before(bestAt) || (at.Equal(bestAt) && member.ID < best.ID) {
			best = member
			bestAt = at
		}
	}

	return best
}
