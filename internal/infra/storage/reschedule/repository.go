package reschedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/pkg/dbmetrics"
	"github.com/glossly/booking-service/pkg/psqlbuilder"
)

// uniqueViolationCode код ошибки PostgreSQL при нарушении уникального индекса
const uniqueViolationCode = "23505"

var requestColumns = []string{
	"id",
	"booking_id",
	"proposed_date",
	"proposed_time",
	"reason",
	"status",
	"requested_at",
	"responded_at",
}

// Repository репозиторий запросов на перенос записи
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает pending запрос на перенос.
// Инвариант "не более одного pending запроса на бронь" обеспечивает
// частичный уникальный индекс по booking_id WHERE status = 'pending';
// его нарушение транслируется в ErrPendingRequestExists.
func (r *Repository) Create(ctx context.Context, req *domain.RescheduleRequest) (*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reschedule_requests").
		Columns(
			"booking_id",
			"proposed_date",
			"proposed_time",
			"reason",
			"status",
		).
		Values(
			req.BookingID,
			req.ProposedDate,
			req.ProposedTime,
			req.Reason,
			req.Status,
		).
		Suffix("RETURNING id, requested_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&req.ID, &req.RequestedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return nil, ErrPendingRequestExists
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return req, nil
}

// GetByID получает запрос на перенос по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(requestColumns...).
		From("reschedule_requests").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var req domain.RescheduleRequest
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&req.ID,
		&req.BookingID,
		&req.ProposedDate,
		&req.ProposedTime,
		&req.Reason,
		&req.Status,
		&req.RequestedAt,
		&req.RespondedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan request: %w", ErrScanRow, err)
	}

	return &req, nil
}

// Resolve закрывает pending запрос статусом approved или denied.
// Guarded update: уже обработанный запрос дает ErrAlreadyResolved.
func (r *Repository) Resolve(ctx context.Context, id int64, status domain.RescheduleStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reschedule_requests").
		Set("status", status).
		Set("responded_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.RescheduleStatusPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Resolve - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Resolve - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Resolve - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrAlreadyResolved
	}

	return nil
}
