package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glossly/booking-service/internal/domain"
	eventStorage "github.com/glossly/booking-service/internal/infra/storage/paymentevent"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
)

// MockBookingRepository is a mock implementation of BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error) {
	args := m.Called(ctx, providerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Confirm(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, from []domain.PaymentStatus, to domain.PaymentStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// MockProcessedEventRepository is a mock implementation of ProcessedEventRepository
type MockProcessedEventRepository struct {
	mock.Mock
}

func (m *MockProcessedEventRepository) MarkProcessed(ctx context.Context, eventID string, bookingID int64, eventType string, amount float64) error {
	args := m.Called(ctx, eventID, bookingID, eventType, amount)
	return args.Error(0)
}

func (m *MockProcessedEventRepository) AmountTotals(ctx context.Context, bookingID int64) (map[string]float64, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

// MockProviderConfigClient is a mock implementation of ProviderConfigClient
type MockProviderConfigClient struct {
	mock.Mock
}

func (m *MockProviderConfigClient) GetProvider(ctx context.Context, providerID int64) (*providerconfig.Provider, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providerconfig.Provider), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	events []domain.EventType
}

func (m *MockEventPublisher) PublishAsync(event domain.DomainEvent) {
	m.events = append(m.events, event.Type)
}

// FakeTxManager runs callbacks without a real transaction
type FakeTxManager struct{}

func (FakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (FakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// FailingCommitTxManager runs the serializable callback but fails as if
// the commit lost a serialization conflict
type FailingCommitTxManager struct {
	commitErr error
}

func (m FailingCommitTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m FailingCommitTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return m.commitErr
}

type noopLogger struct{}

func (noopLogger) Info(format string, v ...interface{})  {}
func (noopLogger) Warn(format string, v ...interface{})  {}
func (noopLogger) Error(format string, v ...interface{}) {}

type testEnv struct {
	bookings  *MockBookingRepository
	events    *MockProcessedEventRepository
	client    *MockProviderConfigClient
	publisher *MockEventPublisher
	svc       *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		bookings:  &MockBookingRepository{},
		events:    &MockProcessedEventRepository{},
		client:    &MockProviderConfigClient{},
		publisher: &MockEventPublisher{},
	}
	env.svc = NewService(env.bookings, env.events, env.client, env.publisher, FakeTxManager{}, noopLogger{})
	return env
}

func awaitingBooking() *domain.Booking {
	return &domain.Booking{
		ID:              1,
		ClientID:        100,
		ProviderID:      200,
		BookingDate:     time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		StartTime:       "11:00",
		DurationMinutes: 30,
		Timezone:        "UTC",
		ServicePrice:    50,
		DepositAmount:   10,
		ServiceFee:      5,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentAwaitingDeposit,
	}
}

func depositEvent() *PaymentEventInput {
	return &PaymentEventInput{
		EventID:   "evt-1",
		EventType: EventTypeDepositConfirmed,
		BookingID: 1,
		Amount:    15,
	}
}

func TestHandleEvent_DepositConfirmed(t *testing.T) {
	env := newTestEnv()

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(awaitingBooking(), nil)
	env.events.On("MarkProcessed", mock.Anything, "evt-1", int64(1), EventTypeDepositConfirmed, 15.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1),
		[]domain.PaymentStatus{domain.PaymentAwaitingDeposit}, domain.PaymentDepositPaid).Return(nil)
	env.client.On("GetProvider", mock.Anything, int64(200)).Return(&providerconfig.Provider{ID: 200}, nil)

	result, err := env.svc.HandleEvent(context.Background(), depositEvent())

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentDepositPaid), result.PaymentStatus)
	assert.Equal(t, string(domain.StatusPending), result.BookingStatus)
	assert.False(t, result.Duplicate)
	// Manual confirmation still required without instant booking
	env.bookings.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	assert.Empty(t, env.publisher.events)
}

func TestHandleEvent_DuplicateEventIsNoOp(t *testing.T) {
	env := newTestEnv()

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(awaitingBooking(), nil)
	env.events.On("MarkProcessed", mock.Anything, "evt-1", int64(1), EventTypeDepositConfirmed, 15.0).
		Return(eventStorage.ErrAlreadyProcessed)

	result, err := env.svc.HandleEvent(context.Background(), depositEvent())

	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, string(domain.PaymentAwaitingDeposit), result.PaymentStatus)
	env.bookings.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEvent_InstantBookingAutoConfirms(t *testing.T) {
	env := newTestEnv()

	instant := &providerconfig.Provider{ID: 200, InstantBooking: true, BufferMinutes: 0}
	paid := awaitingBooking()
	paid.PaymentStatus = domain.PaymentDepositPaid

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(awaitingBooking(), nil).Once()
	env.events.On("MarkProcessed", mock.Anything, "evt-1", int64(1), EventTypeDepositConfirmed, 15.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1),
		[]domain.PaymentStatus{domain.PaymentAwaitingDeposit}, domain.PaymentDepositPaid).Return(nil)
	env.client.On("GetProvider", mock.Anything, int64(200)).Return(instant, nil)
	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(paid, nil).Once()
	env.bookings.On("GetActiveByProviderAndDate", mock.Anything, int64(200), paid.BookingDate).
		Return([]*domain.Booking{paid}, nil)
	env.bookings.On("Confirm", mock.Anything, int64(1)).Return(nil)

	result, err := env.svc.HandleEvent(context.Background(), depositEvent())

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), result.BookingStatus)
	assert.Equal(t, []domain.EventType{domain.EventBookingConfirmed}, env.publisher.events)
}

func TestHandleEvent_InstantBookingConflictLeavesPending(t *testing.T) {
	env := newTestEnv()

	instant := &providerconfig.Provider{ID: 200, InstantBooking: true, BufferMinutes: 0}
	paid := awaitingBooking()
	paid.PaymentStatus = domain.PaymentDepositPaid

	// The slot was filled by another booking while the deposit was in flight
	rival := &domain.Booking{
		ID:              9,
		ProviderID:      200,
		BookingDate:     paid.BookingDate,
		StartTime:       "11:00",
		DurationMinutes: 30,
		Status:          domain.StatusConfirmed,
	}

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(awaitingBooking(), nil).Once()
	env.events.On("MarkProcessed", mock.Anything, "evt-1", int64(1), EventTypeDepositConfirmed, 15.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1),
		[]domain.PaymentStatus{domain.PaymentAwaitingDeposit}, domain.PaymentDepositPaid).Return(nil)
	env.client.On("GetProvider", mock.Anything, int64(200)).Return(instant, nil)
	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(paid, nil).Once()
	env.bookings.On("GetActiveByProviderAndDate", mock.Anything, int64(200), paid.BookingDate).
		Return([]*domain.Booking{paid, rival}, nil)

	result, err := env.svc.HandleEvent(context.Background(), depositEvent())

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentDepositPaid), result.PaymentStatus)
	assert.Equal(t, string(domain.StatusPending), result.BookingStatus)
	env.bookings.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	assert.Empty(t, env.publisher.events)
}

// The confirmation event is published after the transaction commits: a
// failed commit must not announce a confirmation that never happened
func TestHandleEvent_InstantBookingCommitFailurePublishesNothing(t *testing.T) {
	env := newTestEnv()
	env.svc = NewService(env.bookings, env.events, env.client, env.publisher,
		FailingCommitTxManager{commitErr: errors.New("commit failed")}, noopLogger{})

	instant := &providerconfig.Provider{ID: 200, InstantBooking: true, BufferMinutes: 0}
	paid := awaitingBooking()
	paid.PaymentStatus = domain.PaymentDepositPaid

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(awaitingBooking(), nil).Once()
	env.events.On("MarkProcessed", mock.Anything, "evt-1", int64(1), EventTypeDepositConfirmed, 15.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1),
		[]domain.PaymentStatus{domain.PaymentAwaitingDeposit}, domain.PaymentDepositPaid).Return(nil)
	env.client.On("GetProvider", mock.Anything, int64(200)).Return(instant, nil)
	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(paid, nil).Once()
	env.bookings.On("GetActiveByProviderAndDate", mock.Anything, int64(200), paid.BookingDate).
		Return([]*domain.Booking{paid}, nil)
	env.bookings.On("Confirm", mock.Anything, int64(1)).Return(nil)

	result, err := env.svc.HandleEvent(context.Background(), depositEvent())

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), result.BookingStatus)
	assert.Empty(t, env.publisher.events)
}

func TestHandleEvent_BalanceConfirmed(t *testing.T) {
	env := newTestEnv()

	paid := awaitingBooking()
	paid.PaymentStatus = domain.PaymentDepositPaid
	paid.Status = domain.StatusConfirmed

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(paid, nil)
	env.events.On("MarkProcessed", mock.Anything, "evt-2", int64(1), EventTypeBalanceConfirmed, 45.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1),
		[]domain.PaymentStatus{domain.PaymentDepositPaid}, domain.PaymentFullyPaid).Return(nil)

	result, err := env.svc.HandleEvent(context.Background(), &PaymentEventInput{
		EventID: "evt-2", EventType: EventTypeBalanceConfirmed, BookingID: 1, Amount: 45,
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentFullyPaid), result.PaymentStatus)
}

func TestHandleEvent_FullRefund(t *testing.T) {
	env := newTestEnv()

	paid := awaitingBooking()
	paid.PaymentStatus = domain.PaymentDepositPaid // amount paid = 15

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(paid, nil)
	env.events.On("AmountTotals", mock.Anything, int64(1)).
		Return(map[string]float64{EventTypeDepositConfirmed: 15}, nil)
	env.events.On("MarkProcessed", mock.Anything, "evt-3", int64(1), EventTypeRefundConfirmed, 15.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1), mock.Anything, domain.PaymentRefunded).Return(nil)

	result, err := env.svc.HandleEvent(context.Background(), &PaymentEventInput{
		EventID: "evt-3", EventType: EventTypeRefundConfirmed, BookingID: 1, Amount: 15,
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentRefunded), result.PaymentStatus)
}

func TestHandleEvent_PartialRefund(t *testing.T) {
	env := newTestEnv()

	paid := awaitingBooking()
	paid.PaymentStatus = domain.PaymentDepositPaid

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(paid, nil)
	env.events.On("AmountTotals", mock.Anything, int64(1)).
		Return(map[string]float64{EventTypeDepositConfirmed: 15}, nil)
	env.events.On("MarkProcessed", mock.Anything, "evt-4", int64(1), EventTypeRefundConfirmed, 5.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1), mock.Anything, domain.PaymentPartiallyRefunded).Return(nil)

	result, err := env.svc.HandleEvent(context.Background(), &PaymentEventInput{
		EventID: "evt-4", EventType: EventTypeRefundConfirmed, BookingID: 1, Amount: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentPartiallyRefunded), result.PaymentStatus)
}

// After a partial refund the status no longer carries the balance: a
// small follow-up refund must not flip the booking to fully refunded
func TestHandleEvent_SecondRefundAfterPartialStaysPartial(t *testing.T) {
	env := newTestEnv()

	partial := awaitingBooking()
	partial.PaymentStatus = domain.PaymentPartiallyRefunded

	// Collected 15, already returned 5: 10 outstanding
	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(partial, nil)
	env.events.On("AmountTotals", mock.Anything, int64(1)).
		Return(map[string]float64{EventTypeDepositConfirmed: 15, EventTypeRefundConfirmed: 5}, nil)
	env.events.On("MarkProcessed", mock.Anything, "evt-8", int64(1), EventTypeRefundConfirmed, 2.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1), mock.Anything, domain.PaymentPartiallyRefunded).Return(nil)

	result, err := env.svc.HandleEvent(context.Background(), &PaymentEventInput{
		EventID: "evt-8", EventType: EventTypeRefundConfirmed, BookingID: 1, Amount: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentPartiallyRefunded), result.PaymentStatus)
}

func TestHandleEvent_FinalRefundAfterPartialCompletes(t *testing.T) {
	env := newTestEnv()

	partial := awaitingBooking()
	partial.PaymentStatus = domain.PaymentPartiallyRefunded

	env.bookings.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(partial, nil)
	env.events.On("AmountTotals", mock.Anything, int64(1)).
		Return(map[string]float64{EventTypeDepositConfirmed: 15, EventTypeRefundConfirmed: 5}, nil)
	env.events.On("MarkProcessed", mock.Anything, "evt-9", int64(1), EventTypeRefundConfirmed, 10.0).Return(nil)
	env.bookings.On("UpdatePaymentStatus", mock.Anything, int64(1), mock.Anything, domain.PaymentRefunded).Return(nil)

	result, err := env.svc.HandleEvent(context.Background(), &PaymentEventInput{
		EventID: "evt-9", EventType: EventTypeRefundConfirmed, BookingID: 1, Amount: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentRefunded), result.PaymentStatus)
}

func TestHandleEvent_UnknownEventType(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.HandleEvent(context.Background(), &PaymentEventInput{
		EventID: "evt-5", EventType: "chargebackFiled", BookingID: 1,
	})

	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestHandleEvent_ValidationErrors(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name  string
		input *PaymentEventInput
	}{
		{"missing event id", &PaymentEventInput{EventType: EventTypeDepositConfirmed, BookingID: 1, Amount: 15}},
		{"zero booking id", &PaymentEventInput{EventID: "evt-6", EventType: EventTypeDepositConfirmed, Amount: 15}},
		{"negative amount", &PaymentEventInput{EventID: "evt-7", EventType: EventTypeDepositConfirmed, BookingID: 1, Amount: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.HandleEvent(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
