package playbilling

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("playbilling: invalid input")
	ErrVerificationFailed  = errors.New("playbilling: verification failed")
	ErrCircuitOpen         = errors.New("playbilling: circuit open")
	ErrTimeout             = errors.New("playbilling: provider timeout")
	ErrMalformedResponse   = errors.New("playbilling: malformed provider response")
	ErrMissingCredentials  = errors.New("playbilling: missing service account credentials")
	ErrInvalidCredentials  = errors.New("playbilling: invalid service account credentials")
	ErrInvalidStateDefault = errors.New("playbilling: unknown state default must be active or expired")
)

// VerificationError reports a failed provider lookup. StatusCode is zero when
// no HTTP response was received.
type VerificationError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *VerificationError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Reason != "":
		return fmt.Sprintf("playbilling: provider returned %d: %s", e.StatusCode, e.Reason)
	case e.StatusCode != 0:
		return fmt.Sprintf("playbilling: provider returned %d", e.StatusCode)
	case e.Err != nil:
		return "playbilling: verification failed: " + e.Err.Error()
	default:
		return ErrVerificationFailed.Error()
	}
}

// Unwrap exposes both the class sentinel and the cause.
func (e *VerificationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrVerificationFailed}
	}
	return []error{ErrVerificationFailed, e.Err}
}

// IsVerificationError reports whether err is a provider verification failure.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrVerificationFailed)
}

// retryable reports whether the failure says something about provider
// health. Client errors such as an unknown token do not trip the breaker.
func (e *VerificationError) retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
