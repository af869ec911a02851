package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("provider not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrIllegalTransition возвращается, когда переход запрещен правилами
	// жизненного цикла; исходная ошибка с деталями состояния заворачивается
	ErrIllegalTransition = errors.New("illegal booking transition")

	// ErrStatusConflict возвращается, когда бронь изменилась конкурентно
	// между проверкой и обновлением
	ErrStatusConflict = errors.New("booking status changed concurrently")

	// ErrRescheduleWindowClosed возвращается, когда до записи осталось
	// меньше rescheduleWindowHours
	ErrRescheduleWindowClosed = errors.New("reschedule window has closed")

	// ErrSlotNotAvailable возвращается, когда новое время переноса занято
	ErrSlotNotAvailable = errors.New("slot is not available")

	// ErrOutsideWorkingHours возвращается, когда новое время вне рабочих часов
	ErrOutsideWorkingHours = errors.New("slot is outside working hours")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
