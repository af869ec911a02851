package create_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/payments"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/pkg/ptr"
)

// MockBookingRepository is a mock implementation of BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	args := m.Called(ctx, booking)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Booking) *domain.Booking); ok {
		return fn(ctx, booking), args.Error(1)
	}
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

func (m *MockBookingRepository) TeamMemberLastBooked(ctx context.Context, providerID int64) (map[int64]time.Time, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]time.Time), args.Error(1)
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

func (m *MockProviderConfigClient) GetService(ctx context.Context, providerID, serviceID int64) (*providerconfig.Service, error) {
	args := m.Called(ctx, providerID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providerconfig.Service), args.Error(1)
}

func (m *MockProviderConfigClient) GetAddons(ctx context.Context, providerID, serviceID int64, addonIDs []int64) ([]providerconfig.Addon, error) {
	args := m.Called(ctx, providerID, serviceID, addonIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]providerconfig.Addon), args.Error(1)
}

// MockPaymentClient is a mock implementation of PaymentClient
type MockPaymentClient struct {
	mock.Mock
}

func (m *MockPaymentClient) ChargeDeposit(ctx context.Context, bookingID int64, amount float64, currency string) (*payments.PaymentHandle, error) {
	args := m.Called(ctx, bookingID, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentHandle), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	events []domain.EventType
}

func (m *MockEventPublisher) PublishAsync(event domain.DomainEvent) {
	m.events = append(m.events, event.Type)
}

// FakeTxManager runs the callback without a real transaction
type FakeTxManager struct{}

func (FakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
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

type testEnv struct {
	repo      *MockBookingRepository
	client    *MockProviderConfigClient
	payment   *MockPaymentClient
	publisher *MockEventPublisher
	uc        *UseCase
}

func newTestEnv(now time.Time) *testEnv {
	env := &testEnv{
		repo:      &MockBookingRepository{},
		client:    &MockProviderConfigClient{},
		payment:   &MockPaymentClient{},
		publisher: &MockEventPublisher{},
	}
	env.uc = NewUseCase(
		env.repo,
		env.client,
		env.payment,
		env.publisher,
		FakeTxManager{},
		PricingConfig{ServiceFeePercent: 10, DefaultCurrency: "USD"},
		noopLogger{},
	)
	env.uc.timeProvider = &FixedTimeProvider{now: now}
	return env
}

func weekdayHours(open, close string) providerconfig.DaySchedule {
	return providerconfig.DaySchedule{IsOpen: true, OpenTime: ptr.Ptr(open), CloseTime: ptr.Ptr(close)}
}

func monToFriSchedule(open, close string) providerconfig.WeeklySchedule {
	return providerconfig.WeeklySchedule{
		Monday:    weekdayHours(open, close),
		Tuesday:   weekdayHours(open, close),
		Wednesday: weekdayHours(open, close),
		Thursday:  weekdayHours(open, close),
		Friday:    weekdayHours(open, close),
		Saturday:  providerconfig.DaySchedule{IsOpen: false},
		Sunday:    providerconfig.DaySchedule{IsOpen: false},
	}
}

func soloProvider() *providerconfig.Provider {
	return &providerconfig.Provider{
		ID:                     10,
		Timezone:               "UTC",
		SameDayBooking:         true,
		BufferMinutes:          15,
		SlotGranularityMinutes: 15,
		MinNoticeHours:         1,
		Currency:               "USD",
		WeeklySchedule:         monToFriSchedule("09:00", "17:00"),
	}
}

func salonProvider() *providerconfig.Provider {
	p := soloProvider()
	p.SalonMode = true
	p.BufferMinutes = 0
	p.TeamMembers = []providerconfig.TeamMember{
		{ID: 100, DisplayName: "Alice", Active: true, WeeklySchedule: monToFriSchedule("09:00", "17:00")},
		{ID: 101, DisplayName: "Bob", Active: true, WeeklySchedule: monToFriSchedule("09:00", "17:00")},
	}
	return p
}

func testService() *providerconfig.Service {
	return &providerconfig.Service{
		ID:              20,
		ProviderID:      10,
		Name:            "Haircut",
		DurationMinutes: 30,
		Price:           50,
		DepositAmount:   10,
	}
}

func validRequest() *Request {
	return &Request{
		ClientID:   1,
		ProviderID: 10,
		ServiceID:  20,
		Date:       "2025-06-09", // Monday
		StartTime:  "11:00",
	}
}

var testNow = time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC) // Thursday before

func TestExecute_CreatesPendingBookingAndChargesDeposit(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)
	env.repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{}, nil)

	env.repo.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Status == domain.StatusPending &&
			b.PaymentStatus == domain.PaymentAwaitingDeposit &&
			b.DurationMinutes == 30 &&
			b.ServiceFee == 5 && // 10% of 50
			b.DepositAmount == 10
	})).Return(func(ctx context.Context, b *domain.Booking) *domain.Booking {
		created := *b
		created.ID = 42
		return &created
	}, nil)

	// Deposit plus the platform fee is charged upfront
	env.payment.On("ChargeDeposit", mock.Anything, int64(42), 15.0, "USD").
		Return(&payments.PaymentHandle{Reference: "pay_1"}, nil)

	resp, err := env.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Equal(t, string(domain.PaymentAwaitingDeposit), resp.PaymentStatus)
	assert.Equal(t, []domain.EventType{domain.EventBookingCreated}, env.publisher.events)

	env.repo.AssertExpectations(t)
	env.payment.AssertExpectations(t)
}

func TestExecute_ConflictingSlotRejected(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)

	// Existing booking 11:15-11:45 overlaps the buffered 11:00-11:30 slot
	existing := &domain.Booking{
		ID:              7,
		ProviderID:      10,
		StartTime:       "11:15",
		DurationMinutes: 30,
		Status:          domain.StatusConfirmed,
	}
	env.repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{existing}, nil)

	_, err := env.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	env.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExecute_BufferAloneBlocksAdjacentSlot(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)

	// Booking ends exactly at 11:00; the 15-minute buffer still blocks an 11:00 start
	existing := &domain.Booking{
		ID:              7,
		ProviderID:      10,
		StartTime:       "10:30",
		DurationMinutes: 30,
		Status:          domain.StatusConfirmed,
	}
	env.repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{existing}, nil)

	_, err := env.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_SalonAssignsLeastRecentlyBookedMember(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(salonProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)
	env.repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{}, nil)

	// Alice was booked more recently than Bob
	env.repo.On("TeamMemberLastBooked", mock.Anything, int64(10)).Return(map[int64]time.Time{
		100: time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC),
		101: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}, nil)

	env.repo.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.TeamMemberID != nil && *b.TeamMemberID == 101
	})).Return(func(ctx context.Context, b *domain.Booking) *domain.Booking {
		created := *b
		created.ID = 43
		return &created
	}, nil)
	env.payment.On("ChargeDeposit", mock.Anything, int64(43), 15.0, "USD").
		Return(&payments.PaymentHandle{Reference: "pay_2"}, nil)

	resp, err := env.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	require.NotNil(t, resp.TeamMemberID)
	assert.Equal(t, int64(101), *resp.TeamMemberID)
	assert.Equal(t, []domain.EventType{domain.EventBookingCreated, domain.EventTeamMemberAssigned}, env.publisher.events)
}

func TestExecute_SalonAllMembersBusy(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(salonProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)

	bookings := []*domain.Booking{
		{ID: 1, ProviderID: 10, TeamMemberID: ptr.Ptr(int64(100)), StartTime: "11:00", DurationMinutes: 30, Status: domain.StatusConfirmed},
		{ID: 2, ProviderID: 10, TeamMemberID: ptr.Ptr(int64(101)), StartTime: "11:00", DurationMinutes: 30, Status: domain.StatusPending},
	}
	env.repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return(bookings, nil)
	env.repo.On("TeamMemberLastBooked", mock.Anything, int64(10)).Return(map[int64]time.Time{}, nil)

	_, err := env.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrNoTeamMemberAvailable)
}

func TestExecute_SpecificMemberBusy(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(salonProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)

	bookings := []*domain.Booking{
		{ID: 1, ProviderID: 10, TeamMemberID: ptr.Ptr(int64(100)), StartTime: "11:00", DurationMinutes: 30, Status: domain.StatusConfirmed},
	}
	env.repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return(bookings, nil)

	req := validRequest()
	req.TeamMemberID = ptr.Ptr(int64(100))

	_, err := env.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_DeclinedDepositRollsBack(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)
	env.repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{}, nil)
	env.repo.On("Create", mock.Anything, mock.Anything).Return(func(ctx context.Context, b *domain.Booking) *domain.Booking {
		created := *b
		created.ID = 44
		return &created
	}, nil)
	env.payment.On("ChargeDeposit", mock.Anything, int64(44), 15.0, "USD").
		Return(nil, payments.ErrChargeDeclined)

	_, err := env.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.Empty(t, env.publisher.events)
}

func TestExecute_AddonsExtendDurationAndPrice(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)
	env.client.On("GetAddons", mock.Anything, int64(10), int64(20), []int64{5, 6}).Return([]providerconfig.Addon{
		{ID: 5, Name: "Deep conditioning", DurationMinutes: 15, Price: 20},
		{ID: 6, Name: "Styling", DurationMinutes: 15, Price: 30},
	}, nil)
	env.repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{}, nil)

	env.repo.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.DurationMinutes == 60 && // 30 + 15 + 15
			b.AddonTotal == 50 &&
			b.ServiceFee == 10 // 10% of (50 + 50)
	})).Return(func(ctx context.Context, b *domain.Booking) *domain.Booking {
		created := *b
		created.ID = 45
		return &created
	}, nil)
	env.payment.On("ChargeDeposit", mock.Anything, int64(45), 20.0, "USD").
		Return(&payments.PaymentHandle{Reference: "pay_3"}, nil)

	req := validRequest()
	req.AddonIDs = []int64{5, 6}

	resp, err := env.uc.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 60, resp.DurationMinutes)
	assert.Equal(t, 50.0, resp.AddonTotal)
}

func TestExecute_OutsideWorkingHours(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)

	req := validRequest()
	req.StartTime = "16:45" // 30-minute service would run past 17:00

	_, err := env.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrOutsideWorkingHours)
}

func TestExecute_ClosedDay(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)

	req := validRequest()
	req.Date = "2025-06-08" // Sunday

	_, err := env.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrProviderClosed)
}

func TestExecute_MinNoticeViolated(t *testing.T) {
	// Same day, 10:30, with a 1-hour minimum notice
	env := newTestEnv(time.Date(2025, 6, 9, 10, 30, 0, 0, time.UTC))

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)

	_, err := env.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrTooLateToBook)
}

func TestExecute_PastDate(t *testing.T) {
	env := newTestEnv(testNow)

	env.client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	env.client.On("GetService", mock.Anything, int64(10), int64(20)).Return(testService(), nil)

	req := validRequest()
	req.Date = "2025-06-02"

	_, err := env.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestExecute_ValidationErrors(t *testing.T) {
	env := newTestEnv(testNow)

	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing client", func(r *Request) { r.ClientID = 0 }},
		{"missing provider", func(r *Request) { r.ProviderID = 0 }},
		{"missing service", func(r *Request) { r.ServiceID = 0 }},
		{"missing date", func(r *Request) { r.Date = "" }},
		{"bad date", func(r *Request) { r.Date = "June 9" }},
		{"missing time", func(r *Request) { r.StartTime = "" }},
		{"bad time", func(r *Request) { r.StartTime = "25:99" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			_, err := env.uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
