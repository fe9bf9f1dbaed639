package docstore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIndexOutOfRange is returned when a day, activity, or tip index does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrLastDay is returned when deleting the only remaining day.
	ErrLastDay = errors.New("cannot delete the last remaining day")
	// ErrUnknownField is returned when a field path is not editable.
	ErrUnknownField = errors.New("unknown field")
)

// ValidationError lists every problem found in a draft. The mutation that
// produced it was not applied.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// IsValidationError checks if err is a ValidationError (including wrapped errors).
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Quota identifies which document limit was hit.
type Quota string

const (
	QuotaDays       Quota = "days"
	QuotaActivities Quota = "activities"
)

// QuotaError reports a mutation rejected because it would exceed a limit.
type QuotaError struct {
	Quota Quota
	Limit int
}

func (e *QuotaError) Error() string {
	switch e.Quota {
	case QuotaDays:
		return fmt.Sprintf("Maximum %d days allowed", e.Limit)
	case QuotaActivities:
		return fmt.Sprintf("Maximum %d activities per day", e.Limit)
	default:
		return fmt.Sprintf("quota %s exceeded (limit %d)", e.Quota, e.Limit)
	}
}

// IsQuotaError checks if err is a QuotaError (including wrapped errors).
func IsQuotaError(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

func outOfRange(what string, idx int) error {
	return fmt.Errorf("%s %d: %w", what, idx, ErrIndexOutOfRange)
}
