package auto_decline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glossly/booking-service/internal/domain"
)

// MockBookingRepository is a mock implementation of BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) SelectUnconfirmedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Booking, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id int64, status domain.BookingStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, from []domain.PaymentStatus, to domain.PaymentStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// MockPaymentClient is a mock implementation of PaymentClient
type MockPaymentClient struct {
	mock.Mock
}

func (m *MockPaymentClient) Refund(ctx context.Context, bookingID int64, amount float64) error {
	args := m.Called(ctx, bookingID, amount)
	return args.Error(0)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	events []domain.DomainEvent
}

func (m *MockEventPublisher) PublishAsync(event domain.DomainEvent) {
	m.events = append(m.events, event)
}

// FakeTxManager runs the callback without a real transaction
type FakeTxManager struct{}

func (FakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// FixedTimeProvider returns a fixed point in time
type FixedTimeProvider struct {
	now time.Time
}

func (p *FixedTimeProvider) Now() time.Time {
	return p.now
}

type noopLogger struct{}

func (noopLogger) Info(format string, v ...interface{})  {}
func (noopLogger) Warn(format string, v ...interface{})  {}
func (noopLogger) Error(format string, v ...interface{}) {}

var sweepNow = time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)

func expiredBooking(id int64) *domain.Booking {
	return &domain.Booking{
		ID:              id,
		ClientID:        1,
		ProviderID:      10,
		BookingDate:     time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		StartTime:       "11:00",
		DurationMinutes: 30,
		Timezone:        "UTC",
		DepositAmount:   10,
		ServiceFee:      5,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentDepositPaid,
		CreatedAt:       sweepNow.Add(-50 * time.Hour), // past the 48-hour window
	}
}

func newSweeper(repo *MockBookingRepository, payment *MockPaymentClient, publisher *MockEventPublisher) *UseCase {
	uc := NewUseCase(repo, payment, publisher, FakeTxManager{}, 48, noopLogger{})
	uc.timeProvider = &FixedTimeProvider{now: sweepNow}
	return uc
}

func TestExecute_DeclinesExpiredBookingsWithFullRefund(t *testing.T) {
	repo := &MockBookingRepository{}
	payment := &MockPaymentClient{}
	publisher := &MockEventPublisher{}
	uc := newSweeper(repo, payment, publisher)

	b1 := expiredBooking(1)
	b2 := expiredBooking(2)

	repo.On("SelectUnconfirmedBefore", mock.Anything, sweepNow.Add(-48*time.Hour)).
		Return([]*domain.Booking{b1, b2}, nil)
	repo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(expiredBooking(1), nil)
	repo.On("GetByIDForUpdate", mock.Anything, int64(2)).Return(expiredBooking(2), nil)

	// Deposit plus platform fee comes back in full
	payment.On("Refund", mock.Anything, int64(1), 15.0).Return(nil)
	payment.On("Refund", mock.Anything, int64(2), 15.0).Return(nil)

	repo.On("Cancel", mock.Anything, int64(1), domain.StatusCancelledByProvider, domain.AutoDeclineReason).Return(nil)
	repo.On("Cancel", mock.Anything, int64(2), domain.StatusCancelledByProvider, domain.AutoDeclineReason).Return(nil)
	repo.On("UpdatePaymentStatus", mock.Anything, int64(1),
		[]domain.PaymentStatus{domain.PaymentDepositPaid}, domain.PaymentRefunded).Return(nil)
	repo.On("UpdatePaymentStatus", mock.Anything, int64(2),
		[]domain.PaymentStatus{domain.PaymentDepositPaid}, domain.PaymentRefunded).Return(nil)

	result, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.CandidateCount)
	assert.Equal(t, 2, result.DeclinedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Empty(t, result.FailedIDs)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, domain.EventBookingCancelled, publisher.events[0].Type)
	require.NotNil(t, publisher.events[0].Reason)
	assert.Equal(t, domain.AutoDeclineReason, *publisher.events[0].Reason)

	repo.AssertExpectations(t)
	payment.AssertExpectations(t)
}

func TestExecute_RefundFailureLeavesBookingPending(t *testing.T) {
	repo := &MockBookingRepository{}
	payment := &MockPaymentClient{}
	publisher := &MockEventPublisher{}
	uc := newSweeper(repo, payment, publisher)

	b1 := expiredBooking(1)
	b2 := expiredBooking(2)

	repo.On("SelectUnconfirmedBefore", mock.Anything, mock.Anything).
		Return([]*domain.Booking{b1, b2}, nil)
	repo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(expiredBooking(1), nil)
	repo.On("GetByIDForUpdate", mock.Anything, int64(2)).Return(expiredBooking(2), nil)

	// First refund fails, second succeeds: one failure must not stop the sweep
	payment.On("Refund", mock.Anything, int64(1), 15.0).Return(errors.New("gateway timeout"))
	payment.On("Refund", mock.Anything, int64(2), 15.0).Return(nil)

	repo.On("Cancel", mock.Anything, int64(2), domain.StatusCancelledByProvider, domain.AutoDeclineReason).Return(nil)
	repo.On("UpdatePaymentStatus", mock.Anything, int64(2),
		[]domain.PaymentStatus{domain.PaymentDepositPaid}, domain.PaymentRefunded).Return(nil)

	result, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.DeclinedCount)
	assert.Equal(t, []int64{1}, result.FailedIDs)

	// The failed booking was never transitioned
	repo.AssertNotCalled(t, "Cancel", mock.Anything, int64(1), mock.Anything, mock.Anything)
	assert.Len(t, publisher.events, 1)
}

func TestExecute_ConcurrentlyConfirmedBookingSkipped(t *testing.T) {
	repo := &MockBookingRepository{}
	payment := &MockPaymentClient{}
	publisher := &MockEventPublisher{}
	uc := newSweeper(repo, payment, publisher)

	candidate := expiredBooking(1)
	repo.On("SelectUnconfirmedBefore", mock.Anything, mock.Anything).
		Return([]*domain.Booking{candidate}, nil)

	// By the time the row is locked the provider has confirmed
	confirmed := expiredBooking(1)
	confirmed.Status = domain.StatusConfirmed
	repo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(confirmed, nil)

	result, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.DeclinedCount)
	assert.Equal(t, 1, result.SkippedCount)
	payment.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, publisher.events)
}

func TestExecute_NoCandidates(t *testing.T) {
	repo := &MockBookingRepository{}
	payment := &MockPaymentClient{}
	publisher := &MockEventPublisher{}
	uc := newSweeper(repo, payment, publisher)

	repo.On("SelectUnconfirmedBefore", mock.Anything, mock.Anything).
		Return([]*domain.Booking{}, nil)

	result, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.CandidateCount)
	assert.Empty(t, publisher.events)
}
