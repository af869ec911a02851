package payments

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронь не найдена
	ErrBookingNotFound = errors.New("payments: booking not found")

	// ErrUnknownEventType возвращается для неизвестного типа платежного события
	ErrUnknownEventType = errors.New("payments: unknown payment event type")

	// ErrInvalidInput возвращается при некорректных данных события
	ErrInvalidInput = errors.New("payments: invalid input")

	// ErrInternal возвращается при внутренней ошибке сервиса
	ErrInternal = errors.New("payments: internal error")
)
