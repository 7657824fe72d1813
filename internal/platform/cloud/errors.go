package cloud

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors shared across adapters and the remote execution layer.
var (
	// ErrNotFound marks lookups for resources the provider no longer
	// knows about. Delete paths treat it as success.
	ErrNotFound = errors.New("not found")

	// ErrProvisioningTimeout marks a bounded wait that expired before
	// the awaited condition held.
	ErrProvisioningTimeout = errors.New("provisioning timeout")

	// ErrAuthenticationFailed marks rejected credentials, whether a
	// provider API token or the SSH key. Retrying with the same
	// credentials cannot succeed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrConnectionRefused marks exhausted attempts to reach a host.
	ErrConnectionRefused = errors.New("connection refused")
)

// QuotaError reports that the account cannot hold more instances. Bulk
// creation stops submitting new requests when it sees one.
type QuotaError struct {
	Provider string
	Detail   string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %s", e.Provider, e.Detail)
}

// RejectedError reports a request the provider refused as invalid.
// Retrying the identical request cannot succeed.
type RejectedError struct {
	Provider   string
	StatusCode int
	Detail     string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected request (status %d): %s", e.Provider, e.StatusCode, e.Detail)
}

// UnavailableError reports a provider-side failure or an unreachable
// API. These are transient and safe to retry.
type UnavailableError struct {
	Provider   string
	StatusCode int
	Detail     string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable (status %d): %s", e.Provider, e.StatusCode, e.Detail)
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsQuotaExceeded reports whether err is an account capacity rejection.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// IsRejected reports whether the provider refused the request as invalid.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// IsUnavailable reports whether err is a transient provider failure.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// IsTimeout reports whether a bounded wait expired.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrProvisioningTimeout)
}

// IsAuthenticationFailed reports whether credentials were rejected.
func IsAuthenticationFailed(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed)
}

// ClassifyHTTP maps a provider HTTP failure onto the taxonomy. A zero
// statusCode means the API was never reached (transport failure).
func ClassifyHTTP(provider string, statusCode int, detail string) error {
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", provider, detail, ErrNotFound)
	case statusCode == http.StatusTooManyRequests:
		return &UnavailableError{Provider: provider, StatusCode: statusCode, Detail: detail}
	case quotaHint(detail):
		return &QuotaError{Provider: provider, Detail: detail}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %s: %w", provider, detail, ErrAuthenticationFailed)
	case statusCode >= 500 || statusCode == 0:
		return &UnavailableError{Provider: provider, StatusCode: statusCode, Detail: detail}
	case statusCode >= 400:
		return &RejectedError{Provider: provider, StatusCode: statusCode, Detail: detail}
	default:
		return &UnavailableError{Provider: provider, StatusCode: statusCode, Detail: detail}
	}
}

// quotaHint matches the limit messages providers return when an account
// is at capacity, e.g. "creating this droplet will exceed your droplet
// limit".
func quotaHint(detail string) bool {
	lower := strings.ToLower(detail)
	return strings.Contains(lower, "limit") || strings.Contains(lower, "quota")
}
