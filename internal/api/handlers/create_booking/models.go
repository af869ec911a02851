package create_booking

import (
	"encoding/json"
	"fmt"

	createBooking "github.com/glossly/booking-service/internal/usecase/create_booking"
	"github.com/glossly/booking-service/pkg/types"
)

// TeamMemberSelection принимает id мастера, null или литерал "any"
type TeamMemberSelection struct {
	ID *int64
}

func (s *TeamMemberSelection) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `"any"` {
		s.ID = nil
		return nil
	}

	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf(`teamMemberId must be a number, null or "any"`)
	}
	s.ID = &id
	return nil
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ProviderID   int64               `json:"providerId"`
	ServiceID    int64               `json:"serviceId"`
	AddonIDs     []int64             `json:"addonIds,omitempty"`
	TeamMemberID TeamMemberSelection `json:"teamMemberId,omitempty"`
	Date         string              `json:"date"`
	StartTime    types.TimeString    `json:"startTime"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(clientID int64) *createBooking.Request {
	return &createBooking.Request{
		ClientID:     clientID,
		ProviderID:   r.ProviderID,
		ServiceID:    r.ServiceID,
		AddonIDs:     r.AddonIDs,
		TeamMemberID: r.TeamMemberID.ID,
		Date:         r.Date,
		StartTime:    r.StartTime,
	}
}
