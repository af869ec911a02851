package get_available_slots

import (
	"fmt"
	"time"

	"github.com/glossly/booking-service/internal/domain"
)

// validateRequest проверяет корректность входных данных
func validateRequest(req *Request) error {
	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: provider_id must be positive", ErrInvalidInput)
	}
	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: service_id must be positive", ErrInvalidInput)
	}
	if req.Date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if _, err := time.Parse(domain.DateFormat, req.Date); err != nil {
		return fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrInvalidInput)
	}
	if req.TeamMemberID != nil && *req.TeamMemberID <= 0 {
		return fmt.Errorf("%w: team_member_id must be positive", ErrInvalidInput)
	}
	return nil
}
