package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// ProviderError is the typed failure every provider adapter returns. The
// orchestrator reads its fields directly — rate limiting and retry counts
// are never inferred from message text.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Attempt     int // 1-based attempt number that produced this error
	MaxAttempts int
	RateLimited bool
	Err         error
}

func (e *ProviderError) Error() string {
	if e.Attempt > 0 && e.MaxAttempts > 0 {
		return fmt.Sprintf("%s: attempt %d/%d: %v", e.Provider, e.Attempt, e.MaxAttempts, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with provider identity and HTTP status.
// RateLimited is derived from the status code at the throw site.
func NewProviderError(provider string, statusCode int, err error) *ProviderError {
	return &ProviderError{
		Provider:    provider,
		StatusCode:  statusCode,
		RateLimited: statusCode == http.StatusTooManyRequests,
		Err:         err,
	}
}

// AsProviderError extracts a ProviderError from err's chain, if present.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRateLimited reports whether err carries a rate-limit signal.
func IsRateLimited(err error) bool {
	if pe, ok := AsProviderError(err); ok {
		return pe.RateLimited
	}
	return false
}

// RetriesFrom returns the number of retries (attempts beyond the first)
// recorded on err, defaulting to zero.
func RetriesFrom(err error) int {
	if pe, ok := AsProviderError(err); ok && pe.Attempt > 1 {
		return pe.Attempt - 1
	}
	return 0
}

// StatusCodeFrom returns the HTTP status recorded on err, or zero.
func StatusCodeFrom(err error) int {
	if pe, ok := AsProviderError(err); ok {
		return pe.StatusCode
	}
	return 0
}

// IsTransient reports whether err is worth retrying: a ProviderError with a
// transient HTTP status, or a network-level timeout/connection failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if pe, ok := AsProviderError(err); ok {
		if pe.StatusCode != 0 {
			return IsTransientHTTPStatus(pe.StatusCode)
		}
		// No status recorded: fall through to the network checks on the cause.
		err = pe.Err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
