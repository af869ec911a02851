package providerconfig

import (
	"time"
)

// Provider настройки провайдера, отдаваемые сервисом настроек.
// Движок бронирований читает их как конфигурацию и никогда не изменяет.
type Provider struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`

	// Timezone IANA-имя таймзоны провайдера, авторитетно для всех дат и времен
	Timezone string `json:"timezone"`

	// SalonMode true, если провайдер - салон с командой мастеров
	SalonMode bool `json:"salonMode"`

	// InstantBooking true, если бронь подтверждается автоматически после оплаты депозита
	InstantBooking bool `json:"instantBooking"`

	// SameDayBooking разрешены ли бронирования день в день
	SameDayBooking bool `json:"sameDayBooking"`

	BufferMinutes          int `json:"bufferMinutes"`
	SlotGranularityMinutes int `json:"slotGranularityMinutes"`
	AdvanceBookingDays     int `json:"advanceBookingDays"` // 0 = без ограничения
	MinNoticeHours         int `json:"minNoticeHours"`
	RescheduleWindowHours  int `json:"rescheduleWindowHours"`

	Currency string `json:"currency"`

	CancellationPolicy CancellationPolicy `json:"cancellationPolicy"`

	WeeklySchedule WeeklySchedule `json:"weeklySchedule"`
	BlockedDates   []BlockedDate  `json:"blockedDates"`
	TeamMembers    []TeamMember   `json:"teamMembers"`
}

// CancellationPolicy параметры политики отмены провайдера
type CancellationPolicy struct {
	// FreeCancelHours за сколько часов до записи отмена дает полный возврат
	FreeCancelHours int `json:"freeCancelHours"`

	// LateCancelRefundPercent процент возврата депозита при поздней отмене клиентом
	LateCancelRefundPercent int `json:"lateCancelRefundPercent"`
}

// WeeklySchedule недельный шаблон рабочих часов
type WeeklySchedule struct {
	Monday    DaySchedule `json:"monday"`
	Tuesday   DaySchedule `json:"tuesday"`
	Wednesday DaySchedule `json:"wednesday"`
	Thursday  DaySchedule `json:"thursday"`
	Friday    DaySchedule `json:"friday"`
	Saturday  DaySchedule `json:"saturday"`
	Sunday    DaySchedule `json:"sunday"`
}

// ForWeekday возвращает расписание на день недели
func (w WeeklySchedule) ForWeekday(weekday time.Weekday) DaySchedule {
	switch weekday {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	case time.Sunday:
		return w.Sunday
	default:
		return DaySchedule{IsOpen: false}
	}
}

// DaySchedule рабочие часы на один день недели
type DaySchedule struct {
	IsOpen    bool    `json:"isOpen"`
	OpenTime  *string `json:"openTime,omitempty"`  // "09:00"
	CloseTime *string `json:"closeTime,omitempty"` // "17:00"
}

// BlockedDate диапазон дат, закрытых для бронирования (отпуск, выходной)
type BlockedDate struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Contains проверяет, попадает ли дата в заблокированный диапазон (включительно)
func (b BlockedDate) Contains(date time.Time) bool {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(b.StartDate.Year(), b.StartDate.Month(), b.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(b.EndDate.Year(), b.EndDate.Month(), b.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(start) && !d.After(end)
}

// IsDateBlocked проверяет дату по всем заблокированным диапазонам провайдера
func (p *Provider) IsDateBlocked(date time.Time) bool {
	for _, b := range p.BlockedDates {
		if b.Contains(date) {
			return true
		}
	}
	return false
}

// TeamMember мастер салона со своим расписанием
type TeamMember struct {
	ID             int64          `json:"id"`
	DisplayName    string         `json:"displayName"`
	Active         bool           `json:"active"`
	WeeklySchedule WeeklySchedule `json:"weeklySchedule"`
}

// FindTeamMember возвращает активного мастера по ID
func (p *Provider) FindTeamMember(id int64) *TeamMember {
	for i := range p.TeamMembers {
		if p.TeamMembers[i].ID == id && p.TeamMembers[i].Active {
			return &p.TeamMembers[i]
		}
	}
	return nil
}

// Service услуга провайдера
type Service struct {
	ID              int64   `json:"id"`
	ProviderID      int64   `json:"providerId"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"durationMinutes"`
	Price           float64 `json:"price"`
	DepositAmount   float64 `json:"depositAmount"`
}

// Addon дополнение к услуге
type Addon struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"durationMinutes"`
	Price           float64 `json:"price"`
}
