package grants

import (
	"time"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
)

// Validate checks the fields struct tags cannot express. Dates are
// compared with today in the server's local zone.
func Validate(r *domain.GrantUtilization) error {
	return validateAt(r, time.Now())
}

func validateAt(r *domain.GrantUtilization, now time.Time) error {
	if r == nil {
		return &constants.ValidationError{Reason: "empty grant utilization"}
	}
	if !r.Amount.IsPositive() {
		return &constants.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !r.Amount.Equal(r.Amount.Round(2)) {
		return &constants.ValidationError{Field: "amount", Reason: "at most two decimal places"}
	}
	if r.UtilizationDate != "" {
		d, err := time.ParseInLocation(time.DateOnly, r.UtilizationDate, now.Location())
		if err != nil {
			return &constants.ValidationError{Field: "utilization_date", Reason: "expected YYYY-MM-DD"}
		}
		y, m, day := now.Date()
		if d.After(time.Date(y, m, day, 0, 0, 0, 0, now.Location())) {
			return &constants.ValidationError{Field: "utilization_date", Reason: "must not be in the future"}
		}
	}
	return nil
}
