package reschedule

import "errors"

var (
	// ErrRequestNotFound возвращается, когда запрос на перенос не найден
	ErrRequestNotFound = errors.New("reschedule request not found")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("provider not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrBookingNotActive возвращается, когда бронь уже в терминальном статусе
	ErrBookingNotActive = errors.New("booking is not active")

	// ErrPendingRequestExists возвращается, когда у брони уже есть
	// нерассмотренный запрос на перенос
	ErrPendingRequestExists = errors.New("booking already has a pending reschedule request")

	// ErrAlreadyResolved возвращается, когда запрос уже обработан
	ErrAlreadyResolved = errors.New("reschedule request already resolved")

	// ErrSlotNotAvailable возвращается, когда предложенное время занято
	ErrSlotNotAvailable = errors.New("slot is not available")

	// ErrOutsideWorkingHours возвращается, когда предложенное время вне рабочих часов
	ErrOutsideWorkingHours = errors.New("slot is outside working hours")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
