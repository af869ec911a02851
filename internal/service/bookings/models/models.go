package models

import (
	"errors"
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/pkg/types"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	Actor              domain.Actor `json:"-"`
	CancellationReason string       `json:"cancellationReason"`
}

// CompleteBookingRequest запрос на завершение записи
type CompleteBookingRequest struct {
	Actor         domain.Actor `json:"-"`
	TipAmount     float64      `json:"tipAmount"`
	InternalNotes *string      `json:"internalNotes,omitempty"`
}

// MarkNoShowRequest запрос на отметку неявки клиента
type MarkNoShowRequest struct {
	Actor         domain.Actor `json:"-"`
	InternalNotes *string      `json:"internalNotes,omitempty"`
}

// RescheduleBookingRequest запрос клиента на перенос записи
type RescheduleBookingRequest struct {
	Actor        domain.Actor     `json:"-"`
	NewDate      string           `json:"newDate"` // формат YYYY-MM-DD
	NewStartTime types.TimeString `json:"newStartTime"`
}

// GetClientBookingsRequest запрос на получение бронирований клиента
type GetClientBookingsRequest struct {
	ClientID int64   `json:"clientId"`
	Status   *string `json:"status,omitempty"`
}

// GetProviderBookingsRequest запрос на получение бронирований провайдера
type GetProviderBookingsRequest struct {
	ProviderID      int64      `json:"providerId"`
	TeamMemberID    *int64     `json:"teamMemberId,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Status          *string    `json:"status,omitempty"`
	IncludeInactive bool       `json:"includeInactive,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetProviderBookingsRequest) ToDomainFilter() (domain.ProviderBookingsFilter, error) {
	filter := domain.ProviderBookingsFilter{
		ProviderID:      r.ProviderID,
		TeamMemberID:    r.TeamMemberID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64  `json:"id"`
	ClientID        int64  `json:"clientId"`
	ProviderID      int64  `json:"providerId"`
	ServiceID       int64  `json:"serviceId"`
	TeamMemberID    *int64 `json:"teamMemberId,omitempty"`
	BookingDate     string `json:"bookingDate"` // "2025-10-15"
	StartTime       string `json:"startTime"`   // "10:00"
	DurationMinutes int    `json:"durationMinutes"`
	Timezone        string `json:"timezone"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"paymentStatus"`

	// Денормализованные коммерческие данные
	ServiceName   string  `json:"serviceName"`
	ServicePrice  float64 `json:"servicePrice"`
	AddonIDs      []int64 `json:"addonIds,omitempty"`
	AddonTotal    float64 `json:"addonTotal"`
	ServiceFee    float64 `json:"serviceFee"`
	DepositAmount float64 `json:"depositAmount"`
	TipAmount     float64 `json:"tipAmount"`
	Currency      string  `json:"currency"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	InternalNotes      *string `json:"internalNotes,omitempty"`

	ConfirmedAt *string `json:"confirmedAt,omitempty"` // ISO 8601 format
	CancelledAt *string `json:"cancelledAt,omitempty"`
	CompletedAt *string `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// CancelResult итог отмены: статус брони и сумма возврата.
// RefundStatus описывает судьбу денег: "pending" - возврат инициирован,
// "failed" - платежный сервис отказал (возврат будет повторен вручную),
// "none" - возвращать было нечего.
type CancelResult struct {
	Booking      *BookingResponse `json:"booking"`
	RefundAmount float64          `json:"refundAmount"`
	RefundStatus string           `json:"refundStatus"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		ProviderID:         b.ProviderID,
		ServiceID:          b.ServiceID,
		TeamMemberID:       b.TeamMemberID,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		DurationMinutes:    b.DurationMinutes,
		Timezone:           b.Timezone,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		ServiceName:        b.ServiceName,
		ServicePrice:       b.ServicePrice,
		AddonIDs:           b.AddonIDs,
		AddonTotal:         b.AddonTotal,
		ServiceFee:         b.ServiceFee,
		DepositAmount:      b.DepositAmount,
		TipAmount:          b.TipAmount,
		Currency:           b.Currency,
		CancellationReason: b.CancellationReason,
		InternalNotes:      b.InternalNotes,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	resp.ConfirmedAt = formatTimePtr(b.ConfirmedAt)
	resp.CancelledAt = formatTimePtr(b.CancelledAt)
	resp.CompletedAt = formatTimePtr(b.CompletedAt)

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	if bookings == nil {
		return &BookingListResponse{
			Bookings: []BookingResponse{},
		}
	}

	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, len(bookings)),
	}

	for i, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings[i] = *bookingResp
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)

	validStatuses := []domain.BookingStatus{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusCompleted,
		domain.StatusCancelledByClient,
		domain.StatusCancelledByProvider,
		domain.StatusNoShow,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
