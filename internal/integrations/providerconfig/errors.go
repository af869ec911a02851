package providerconfig

import "errors"

var (
	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("providerconfig: provider not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("providerconfig: service not found")

	// ErrAddonNotFound возвращается, когда одно из дополнений не найдено
	ErrAddonNotFound = errors.New("providerconfig: addon not found")

	// ErrInvalidResponse возвращается при некорректном ответе сервиса настроек
	ErrInvalidResponse = errors.New("providerconfig: invalid response")

	// ErrInternal возвращается при сетевых и прочих внутренних ошибках
	ErrInternal = errors.New("providerconfig: internal error")
)
