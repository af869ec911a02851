package paymentevent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/glossly/booking-service/pkg/dbmetrics"
	"github.com/glossly/booking-service/pkg/psqlbuilder"
)

// uniqueViolationCode код ошибки PostgreSQL при нарушении уникального индекса
const uniqueViolationCode = "23505"

var (
	// ErrAlreadyProcessed возвращается при повторной обработке того же
	// платежного события (replay вебхука)
	ErrAlreadyProcessed = errors.New("paymentevent.repository: event already processed")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("paymentevent.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("paymentevent.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("paymentevent.repository: failed to scan row")
)

// Repository хранилище обработанных платежных событий.
// Записи создаются в той же транзакции, что и смена статуса оплаты,
// поэтому повтор события не может примениться дважды.
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// MarkProcessed фиксирует обработку платежного события.
// Повторное событие с тем же eventID дает ErrAlreadyProcessed.
func (r *Repository) MarkProcessed(ctx context.Context, eventID string, bookingID int64, eventType string, amount float64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("processed_payment_events").
		Columns("event_id", "booking_id", "event_type", "amount").
		Values(eventID, bookingID, eventType, amount).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkProcessed - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return ErrAlreadyProcessed
		}
		return fmt.Errorf("%w: MarkProcessed - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// AmountTotals возвращает суммы обработанных событий брони по типам.
// Журнал - источник истины для "сколько списано / сколько возвращено":
// по нему координатор различает полный и частичный возврат.
// Вызывается под блокировкой строки брони в транзакции применения события.
func (r *Repository) AmountTotals(ctx context.Context, bookingID int64) (map[string]float64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("event_type", "COALESCE(SUM(amount), 0)").
		From("processed_payment_events").
		Where(squirrel.Eq{"booking_id": bookingID}).
		GroupBy("event_type").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: AmountTotals - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: AmountTotals - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var eventType string
		var total float64
		if err := rows.Scan(&eventType, &total); err != nil {
			return nil, fmt.Errorf("%w: AmountTotals - scan row: %w", ErrScanRow, err)
		}
		totals[eventType] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: AmountTotals - rows error: %w", ErrScanRow, err)
	}

	return totals, nil
}
