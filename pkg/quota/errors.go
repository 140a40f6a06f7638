package quota

import (
	"errors"
	"fmt"
)

var (
	ErrQuotaExceeded      = errors.New("quota.errors.limit_exceeded")
	ErrInvalidRequest     = errors.New("quota.errors.invalid_request")
	ErrUnknownKind        = errors.New("quota.errors.unknown_resource")
	ErrUnknownTier        = errors.New("quota.errors.unknown_tier")
	ErrFailedToLoadPolicy = errors.New("quota.errors.failed_to_load_policy")
	ErrInvalidPolicy      = errors.New("quota.errors.invalid_policy")
	ErrFailedToCountUsage = errors.New("quota.errors.failed_to_count_usage")
)

// ExceededError reports an exhausted or insufficient allowance. Detail is
// safe to show to the user.
type ExceededError struct {
	Kind      Kind
	Detail    string
	Limit     int64
	Used      int64
	Requested int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s: %s (used %d of %d, requested %d)", ErrQuotaExceeded, e.Detail, e.Used, e.Limit, e.Requested)
}

func (e *ExceededError) Unwrap() error { return ErrQuotaExceeded }

// IsExceeded reports whether err is a quota rejection.
func IsExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
