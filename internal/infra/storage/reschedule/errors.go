package reschedule

import "errors"

var (
	// ErrRequestNotFound возвращается, когда запрос на перенос не найден
	ErrRequestNotFound = errors.New("reschedule.repository: request not found")

	// ErrPendingRequestExists возвращается при попытке создать второй
	// pending запрос для одной брони (нарушение частичного уникального индекса)
	ErrPendingRequestExists = errors.New("reschedule.repository: booking already has a pending reschedule request")

	// ErrAlreadyResolved возвращается, когда запрос уже обработан
	// (конкурентный approve/deny выиграл)
	ErrAlreadyResolved = errors.New("reschedule.repository: request already resolved")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reschedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reschedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reschedule.repository: failed to scan row")
)
