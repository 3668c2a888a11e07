package snapshot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidSnapshot marks a structurally malformed claim snapshot. This is
// fatal to a scoring run: a claim that cannot be validated must never be
// silently scored as zero-risk.
var ErrInvalidSnapshot = errors.New("invalid claim snapshot")

// Validate checks the structural requirements of a snapshot. Missing
// optional signal sources (vehicle, medical bills, policy) are not errors;
// the scorers treat their absence as a zero contribution.
func (c *ClaimSnapshot) Validate() error {
	if c.ClaimID == uuid.Nil {
		return fmt.Errorf("%w: claim id is required", ErrInvalidSnapshot)
	}
	if c.LossDate.IsZero() {
		return fmt.Errorf("%w: loss date is required", ErrInvalidSnapshot)
	}
	if c.ReportedDate.IsZero() {
		return fmt.Errorf("%w: reported date is required", ErrInvalidSnapshot)
	}
	if c.AsOf.IsZero() {
		return fmt.Errorf("%w: as-of timestamp is required", ErrInvalidSnapshot)
	}
	if c.LossType == "" {
		return fmt.Errorf("%w: loss type is required", ErrInvalidSnapshot)
	}
	if c.EstimatedAmount < 0 {
		return fmt.Errorf("%w: estimated amount cannot be negative", ErrInvalidSnapshot)
	}
	if c.ReportedDate.Before(c.LossDate) {
		return fmt.Errorf("%w: reported date precedes loss date", ErrInvalidSnapshot)
	}
	return nil
}
