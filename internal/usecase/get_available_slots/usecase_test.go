package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
	"github.com/glossly/booking-service/pkg/ptr"
)

// MockBookingRepository is a mock implementation of BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) GetActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error) {
	args := m.Called(ctx, providerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
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

func newTestUseCase(repo *MockBookingRepository, client *MockProviderConfigClient, now time.Time) *UseCase {
	uc := NewUseCase(repo, client, noopLogger{})
	uc.timeProvider = &FixedTimeProvider{now: now}
	return uc
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
		WeeklySchedule:         monToFriSchedule("09:00", "17:00"),
	}
}

func thirtyMinuteService() *providerconfig.Service {
	return &providerconfig.Service{ID: 20, ProviderID: 10, Name: "Haircut", DurationMinutes: 30, Price: 50}
}

func slotByStart(t *testing.T, slots []domain.AvailabilitySlot, start string) domain.AvailabilitySlot {
	t.Helper()
	for _, s := range slots {
		if s.StartTime.String() == start {
			return s
		}
	}
	t.Fatalf("slot starting at %s not found", start)
	return domain.AvailabilitySlot{}
}

func TestExecute_BufferExcludesNeighbouringSlots(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	// Thursday before the requested Monday
	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	// Existing booking Monday 10:00-10:30
	existing := &domain.Booking{
		ID:              1,
		ProviderID:      10,
		StartTime:       "10:00",
		DurationMinutes: 30,
		Status:          domain.StatusConfirmed,
	}
	repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{existing}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		ProviderID: 10,
		ServiceID:  20,
		Date:       "2025-06-09", // Monday
	})

	require.NoError(t, err)

	// 09:00 .. 16:30 starts with a 15-minute step
	assert.Len(t, resp.Slots, 31)

	// Far from the booking: bookable
	assert.True(t, slotByStart(t, resp.Slots, "09:00").Available)
	assert.True(t, slotByStart(t, resp.Slots, "09:15").Available)

	// The booking plus its 15-minute buffer blocks 09:45-10:45:
	// every slot overlapping that window is not bookable
	for _, start := range []string{"09:30", "09:45", "10:00", "10:15", "10:30"} {
		assert.False(t, slotByStart(t, resp.Slots, start).Available, "slot %s must not be bookable", start)
	}

	// First start clear of the buffer
	assert.True(t, slotByStart(t, resp.Slots, "10:45").Available)
	assert.True(t, slotByStart(t, resp.Slots, "16:30").Available)

	repo.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestExecute_CancelledBookingDoesNotBlock(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	cancelled := &domain.Booking{
		ID:              1,
		ProviderID:      10,
		StartTime:       "10:00",
		DurationMinutes: 30,
		Status:          domain.StatusCancelledByClient,
	}
	repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{cancelled}, nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-09"})

	require.NoError(t, err)
	assert.True(t, slotByStart(t, resp.Slots, "10:00").Available)
}

func TestExecute_ClosedDayReturnsNoSlots(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	resp, err := uc.Execute(context.Background(), &Request{
		ProviderID: 10,
		ServiceID:  20,
		Date:       "2025-06-08", // Sunday
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_PastDateReturnsNoSlots(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	client.On("GetProvider", mock.Anything, int64(10)).Return(soloProvider(), nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-02"})

	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_SameDayBookingDisabled(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	provider := soloProvider()
	provider.SameDayBooking = false
	client.On("GetProvider", mock.Anything, int64(10)).Return(provider, nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-09"})

	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_BlockedDateReturnsNoSlots(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	provider := soloProvider()
	provider.BlockedDates = []providerconfig.BlockedDate{
		{
			StartDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC),
		},
	}
	client.On("GetProvider", mock.Anything, int64(10)).Return(provider, nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-09"})

	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_AdvanceWindowCutsOffFarDates(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	provider := soloProvider()
	provider.AdvanceBookingDays = 7
	client.On("GetProvider", mock.Anything, int64(10)).Return(provider, nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-16"})

	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_MinNoticeMarksEarlySlotsUnavailable(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	// Same day, 12:00, with a 2-hour minimum notice
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	provider := soloProvider()
	provider.MinNoticeHours = 2
	client.On("GetProvider", mock.Anything, int64(10)).Return(provider, nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)
	repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-09"})

	require.NoError(t, err)
	assert.False(t, slotByStart(t, resp.Slots, "13:45").Available)
	assert.True(t, slotByStart(t, resp.Slots, "14:00").Available)
}

// Sub-minute seconds round the notice cutoff up, so the calculator
// never offers a slot that booking creation would reject as too late
func TestExecute_MinNoticeSecondsRoundUp(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	// 12:00:30 + 2h notice puts the cutoff at 14:00:30
	now := time.Date(2025, 6, 9, 12, 0, 30, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	provider := soloProvider()
	provider.MinNoticeHours = 2
	client.On("GetProvider", mock.Anything, int64(10)).Return(provider, nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)
	repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-09"})

	require.NoError(t, err)
	assert.False(t, slotByStart(t, resp.Slots, "14:00").Available)
	assert.True(t, slotByStart(t, resp.Slots, "14:15").Available)
}

func TestExecute_SalonAnyMemberFreeSlotStaysAvailable(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	provider := soloProvider()
	provider.SalonMode = true
	provider.BufferMinutes = 0
	provider.TeamMembers = []providerconfig.TeamMember{
		{ID: 100, DisplayName: "Alice", Active: true, WeeklySchedule: monToFriSchedule("09:00", "17:00")},
		{ID: 101, DisplayName: "Bob", Active: true, WeeklySchedule: monToFriSchedule("09:00", "17:00")},
	}
	client.On("GetProvider", mock.Anything, int64(10)).Return(provider, nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	// Alice is booked 10:00-10:30, Bob is free
	aliceBooking := &domain.Booking{
		ID:              1,
		ProviderID:      10,
		TeamMemberID:    ptr.Ptr(int64(100)),
		StartTime:       "10:00",
		DurationMinutes: 30,
		Status:          domain.StatusConfirmed,
	}
	repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return([]*domain.Booking{aliceBooking}, nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-09"})

	require.NoError(t, err)
	assert.True(t, slotByStart(t, resp.Slots, "10:00").Available)

	// Same slot for Alice specifically is taken
	respAlice, err := uc.Execute(context.Background(), &Request{
		ProviderID:   10,
		ServiceID:    20,
		Date:         "2025-06-09",
		TeamMemberID: ptr.Ptr(int64(100)),
	})

	require.NoError(t, err)
	assert.False(t, slotByStart(t, respAlice.Slots, "10:00").Available)
	assert.True(t, slotByStart(t, respAlice.Slots, "10:30").Available)
}

func TestExecute_SalonAllMembersBusySlotUnavailable(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	provider := soloProvider()
	provider.SalonMode = true
	provider.BufferMinutes = 0
	provider.TeamMembers = []providerconfig.TeamMember{
		{ID: 100, DisplayName: "Alice", Active: true, WeeklySchedule: monToFriSchedule("09:00", "17:00")},
		{ID: 101, DisplayName: "Bob", Active: true, WeeklySchedule: monToFriSchedule("09:00", "17:00")},
	}
	client.On("GetProvider", mock.Anything, int64(10)).Return(provider, nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	bookings := []*domain.Booking{
		{ID: 1, ProviderID: 10, TeamMemberID: ptr.Ptr(int64(100)), StartTime: "10:00", DurationMinutes: 30, Status: domain.StatusConfirmed},
		{ID: 2, ProviderID: 10, TeamMemberID: ptr.Ptr(int64(101)), StartTime: "10:00", DurationMinutes: 30, Status: domain.StatusPending},
	}
	repo.On("GetActiveByProviderAndDate", mock.Anything, int64(10), mock.Anything).
		Return(bookings, nil)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 10, ServiceID: 20, Date: "2025-06-09"})

	require.NoError(t, err)
	assert.False(t, slotByStart(t, resp.Slots, "10:00").Available)
	assert.True(t, slotByStart(t, resp.Slots, "10:30").Available)
}

func TestExecute_ProviderNotFound(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	uc := newTestUseCase(repo, client, time.Now())

	client.On("GetProvider", mock.Anything, int64(99)).Return(nil, providerconfig.ErrProviderNotFound)

	_, err := uc.Execute(context.Background(), &Request{ProviderID: 99, ServiceID: 20, Date: "2025-06-09"})

	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestExecute_TeamMemberNotFound(t *testing.T) {
	repo := &MockBookingRepository{}
	client := &MockProviderConfigClient{}

	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(repo, client, now)

	provider := soloProvider()
	provider.SalonMode = true
	client.On("GetProvider", mock.Anything, int64(10)).Return(provider, nil)
	client.On("GetService", mock.Anything, int64(10), int64(20)).Return(thirtyMinuteService(), nil)

	_, err := uc.Execute(context.Background(), &Request{
		ProviderID:   10,
		ServiceID:    20,
		Date:         "2025-06-09",
		TeamMemberID: ptr.Ptr(int64(999)),
	})

	assert.ErrorIs(t, err, ErrTeamMemberNotFound)
}

func TestExecute_ValidationErrors(t *testing.T) {
	uc := newTestUseCase(&MockBookingRepository{}, &MockProviderConfigClient{}, time.Now())

	cases := []struct {
		name string
		req  *Request
	}{
		{"missing provider", &Request{ServiceID: 20, Date: "2025-06-09"}},
		{"missing service", &Request{ProviderID: 10, Date: "2025-06-09"}},
		{"missing date", &Request{ProviderID: 10, ServiceID: 20}},
		{"bad date format", &Request{ProviderID: 10, ServiceID: 20, Date: "09.06.2025"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tc.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
