package create_booking

import "errors"

var (
	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("create_booking: provider not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrAddonNotFound возвращается, когда одно из дополнений не найдено
	ErrAddonNotFound = errors.New("create_booking: addon not found")

	// ErrTeamMemberNotFound возвращается, когда запрошенный мастер не найден или неактивен
	ErrTeamMemberNotFound = errors.New("create_booking: team member not found")

	// ErrInvalidDate возвращается при некорректной дате бронирования (в прошлом)
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение advanceBookingDays
	ErrDateTooFarInFuture = errors.New("create_booking: date is too far in the future")

	// ErrSameDayNotAllowed возвращается, когда провайдер не принимает записи день в день
	ErrSameDayNotAllowed = errors.New("create_booking: same-day booking is not allowed")

	// ErrDateBlocked возвращается, когда дата закрыта провайдером (отпуск, выходной)
	ErrDateBlocked = errors.New("create_booking: date is blocked")

	// ErrProviderClosed возвращается, когда провайдер закрыт в указанную дату
	ErrProviderClosed = errors.New("create_booking: provider is closed on this date")

	// ErrOutsideWorkingHours возвращается, когда слот не помещается в рабочие часы
	ErrOutsideWorkingHours = errors.New("create_booking: slot is outside working hours")

	// ErrInvalidTimeSlot возвращается, когда время начала не выровнено по сетке слотов
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrTooLateToBook возвращается, когда бронирование нарушает minNoticeHours
	ErrTooLateToBook = errors.New("create_booking: too late to book this slot")

	// ErrSlotNotAvailable возвращается, когда выбранный слот уже занят
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrNoTeamMemberAvailable возвращается, когда в салоне нет свободного мастера на слот
	ErrNoTeamMemberAvailable = errors.New("create_booking: no team member available")

	// ErrPaymentDeclined возвращается, когда платежный сервис отклонил депозит
	ErrPaymentDeclined = errors.New("create_booking: deposit payment declined")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
