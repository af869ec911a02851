package payments

import "errors"

var (
	// ErrChargeDeclined возвращается, когда платежный провайдер отклонил списание депозита
	ErrChargeDeclined = errors.New("payments: deposit charge declined")

	// ErrRefundFailed возвращается, когда возврат не удался.
	// Статус оплаты брони при этом не меняется - финансовая сверка
	// повторит возврат независимо от статуса бронирования.
	ErrRefundFailed = errors.New("payments: refund failed")

	// ErrBookingUnknown возвращается, когда платежный сервис не знает о брони
	ErrBookingUnknown = errors.New("payments: booking unknown to payment provider")

	// ErrInvalidResponse возвращается при некорректном ответе платежного сервиса
	ErrInvalidResponse = errors.New("payments: invalid response")

	// ErrInternal возвращается при сетевых и прочих внутренних ошибках
	ErrInternal = errors.New("payments: internal error")
)
