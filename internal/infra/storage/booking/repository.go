package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/pkg/dbmetrics"
	"github.com/glossly/booking-service/pkg/psqlbuilder"
	"github.com/glossly/booking-service/pkg/types"
)

// bookingColumns полный набор колонок таблицы bookings в порядке сканирования
var bookingColumns = []string{
	"id",
	"client_id",
	"provider_id",
	"service_id",
	"team_member_id",
	"booking_date",
	"start_time",
	"duration_minutes",
	"timezone",
	"service_name",
	"service_price",
	"addon_ids",
	"addon_total",
	"service_fee",
	"deposit_amount",
	"tip_amount",
	"currency",
	"status",
	"payment_status",
	"cancellation_reason",
	"internal_notes",
	"confirmed_at",
	"cancelled_at",
	"completed_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Если в контексте есть активная транзакция - выполняется в её рамках.
// Создание брони всегда вызывается из сериализуемой транзакции вместе с
// повторной проверкой конфликтов, чтобы из двух гонящихся запросов на один
// слот выигрывал ровно один.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"client_id",
			"provider_id",
			"service_id",
			"team_member_id",
			"booking_date",
			"start_time",
			"duration_minutes",
			"timezone",
			"service_name",
			"service_price",
			"addon_ids",
			"addon_total",
			"service_fee",
			"deposit_amount",
			"tip_amount",
			"currency",
			"status",
			"payment_status",
			"internal_notes",
		).
		Values(
			booking.ClientID,
			booking.ProviderID,
			booking.ServiceID,
			booking.TeamMemberID,
			booking.BookingDate,
			booking.StartTime,
			booking.DurationMinutes,
			booking.Timezone,
			booking.ServiceName,
			booking.ServicePrice,
			pq.Array(booking.AddonIDs),
			booking.AddonTotal,
			booking.ServiceFee,
			booking.DepositAmount,
			booking.TipAmount,
			booking.Currency,
			booking.Status,
			booking.PaymentStatus,
			booking.InternalNotes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает бронирование по ID с блокировкой строки (FOR UPDATE).
// Используется внутри транзакций переходов состояния, чтобы конкурирующие
// confirm/cancel/reschedule на одной брони сериализовались.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, true)
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if forUpdate && dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %w", ErrScanRow, err)
	}

	return booking, nil
}

// GetActiveByProviderAndDate получает активные (pending/confirmed) брони
// провайдера на дату. Внутри транзакции строки блокируются FOR UPDATE -
// это чтение, на котором строится проверка конфликтов при создании брони.
func (r *Repository) GetActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	activeStatuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		activeStatuses[i] = string(s)
	}

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Eq{"status": activeStatuses}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByProviderAndDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByProviderAndDate - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetByClientID получает историю бронирований клиента
func (r *Repository) GetByClientID(ctx context.Context, filter domain.ClientBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"client_id": filter.ClientID}).
		OrderBy("booking_date DESC, start_time DESC")

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientID - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetByProviderWithFilter получает бронирования провайдера с фильтрацией
// по мастеру, периоду, статусу и включению неактивных броней
func (r *Repository) GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"provider_id": filter.ProviderID})

	if filter.TeamMemberID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"team_member_id": *filter.TeamMemberID})
	}
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": *filter.EndDate})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		inactiveStatuses := make([]string, len(domain.InactiveStatuses))
		for i, s := range domain.InactiveStatuses {
			inactiveStatuses[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": inactiveStatuses})
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate) {
		selectBuilder = selectBuilder.OrderBy("start_time ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("booking_date DESC, start_time DESC")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderWithFilter - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// Confirm переводит бронь pending -> confirmed.
// Guarded update: WHERE проверяет и статус, и оплату депозита, поэтому
// конкурентный переход или неоплаченный депозит дают ErrStatusConflict.
func (r *Repository) Confirm(ctx context.Context, id int64) error {
	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusConfirmed).
		Set("confirmed_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.Eq{"payment_status": []string{
			string(domain.PaymentDepositPaid),
			string(domain.PaymentFullyPaid),
		}}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Confirm - build update query: %v", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, "Confirm", query, args)
}

// Cancel переводит бронь в один из статусов отмены с указанием причины
func (r *Repository) Cancel(ctx context.Context, id int64, status domain.BookingStatus, reason string) error {
	cancellable := []string{
		string(domain.StatusPending),
		string(domain.StatusConfirmed),
	}

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", status).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": cancellable}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, "Cancel", query, args)
}

// Complete переводит бронь confirmed -> completed с фиксацией чаевых и заметок
func (r *Repository) Complete(ctx context.Context, id int64, tipAmount float64, notes *string) error {
	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCompleted).
		Set("tip_amount", tipAmount).
		Set("completed_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.StatusConfirmed})

	if notes != nil {
		updateBuilder = updateBuilder.Set("internal_notes", *notes)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: Complete - build update query: %v", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, "Complete", query, args)
}

// MarkNoShow переводит бронь confirmed -> no_show
func (r *Repository) MarkNoShow(ctx context.Context, id int64, notes *string) error {
	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", domain.StatusNoShow).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.StatusConfirmed})

	if notes != nil {
		updateBuilder = updateBuilder.Set("internal_notes", *notes)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkNoShow - build update query: %v", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, "MarkNoShow", query, args)
}

// UpdateSchedule меняет дату/время (и опционально мастера) активной брони.
// Вызывается только из транзакции, в которой уже перепроверены конфликты.
func (r *Repository) UpdateSchedule(ctx context.Context, id int64, date time.Time, startTime types.TimeString, teamMemberID *int64) error {
	activeStatuses := []string{
		string(domain.StatusPending),
		string(domain.StatusConfirmed),
	}

	updateBuilder := psqlbuilder.Update("bookings").
		Set("booking_date", date).
		Set("start_time", startTime.String()).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": activeStatuses})

	if teamMemberID != nil {
		updateBuilder = updateBuilder.Set("team_member_id", *teamMemberID)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - build update query: %v", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, "UpdateSchedule", query, args)
}

// UpdatePaymentStatus переводит статус оплаты из одного из ожидаемых
// статусов в новый. Перевод из неожиданного статуса дает ErrStatusConflict -
// так webhook-события остаются идемпотентными на уровне строки.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, from []domain.PaymentStatus, to domain.PaymentStatus) error {
	expected := make([]string, len(from))
	for i, s := range from {
		expected[i] = string(s)
	}

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"payment_status": expected}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, "UpdatePaymentStatus", query, args)
}

// SelectUnconfirmedBefore выбирает брони для auto-decline sweeper:
// pending, с оплаченным депозитом, созданные не позже cutoff.
// Запрос естественно идемпотентен: бронь, уже обработанная предыдущим
// запуском, не попадает в выборку.
func (r *Repository) SelectUnconfirmedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.Eq{"payment_status": domain.PaymentDepositPaid}).
		Where(squirrel.LtOrEq{"created_at": cutoff}).
		OrderBy("created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: SelectUnconfirmedBefore - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: SelectUnconfirmedBefore - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// TeamMemberLastBooked возвращает время последнего созданного бронирования
// для каждого мастера провайдера. Используется резолвером "any available
// stylist" для упорядочивания least-recently-booked first.
func (r *Repository) TeamMemberLastBooked(ctx context.Context, providerID int64) (map[int64]time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("team_member_id", "MAX(created_at)").
		From("bookings").
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.NotEq{"team_member_id": nil}).
		GroupBy("team_member_id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: TeamMemberLastBooked - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: TeamMemberLastBooked - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make(map[int64]time.Time)
	for rows.Next() {
		var memberID int64
		var lastBooked time.Time
		if err := rows.Scan(&memberID, &lastBooked); err != nil {
			return nil, fmt.Errorf("%w: TeamMemberLastBooked - scan row: %w", ErrScanRow, err)
		}
		result[memberID] = lastBooked
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: TeamMemberLastBooked - rows error: %w", ErrScanRow, err)
	}

	return result, nil
}

// execGuarded выполняет guarded update и переводит 0 затронутых строк в ErrStatusConflict
func (r *Repository) execGuarded(ctx context.Context, method string, query string, args []interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, method, err)
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.ProviderID,
		&booking.ServiceID,
		&booking.TeamMemberID,
		&booking.BookingDate,
		&booking.StartTime,
		&booking.DurationMinutes,
		&booking.Timezone,
		&booking.ServiceName,
		&booking.ServicePrice,
		pq.Array(&booking.AddonIDs),
		&booking.AddonTotal,
		&booking.ServiceFee,
		&booking.DepositAmount,
		&booking.TipAmount,
		&booking.Currency,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.CancellationReason,
		&booking.InternalNotes,
		&booking.ConfirmedAt,
		&booking.CancelledAt,
		&booking.CompletedAt,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %w", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %w", ErrScanRow, err)
	}

	return bookings, nil
}
