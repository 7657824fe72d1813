package cloud

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyHTTP(t *testing.T) {
	tests := []struct {
		name   string
		status int
		detail string
		check  func(error) bool
	}{
		{
			name:   "404 maps to not found",
			status: 404,
			detail: "droplet not found",
			check:  IsNotFound,
		},
		{
			name:   "rate limit is transient, not quota",
			status: 429,
			detail: "rate limit exceeded",
			check:  IsUnavailable,
		},
		{
			name:   "droplet limit maps to quota",
			status: 422,
			detail: "creating this droplet will exceed your droplet limit",
			check:  IsQuotaExceeded,
		},
		{
			name:   "server error is transient",
			status: 503,
			detail: "service unavailable",
			check:  IsUnavailable,
		},
		{
			name:   "transport failure is transient",
			status: 0,
			detail: "connection reset",
			check:  IsUnavailable,
		},
		{
			name:   "bad request is rejected",
			status: 400,
			detail: "invalid region",
			check:  IsRejected,
		},
		{
			name:   "bad token maps to auth failure",
			status: 401,
			detail: "invalid token",
			check:  IsAuthenticationFailed,
		},
		{
			name:   "forbidden maps to auth failure",
			status: 403,
			detail: "insufficient permissions",
			check:  IsAuthenticationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyHTTP("digitalocean", tt.status, tt.detail)
			if !tt.check(err) {
				t.Errorf("classification mismatch for status %d: %v", tt.status, err)
			}
		})
	}
}

func TestClassifyHTTPRetainsDetail(t *testing.T) {
	err := ClassifyHTTP("vultr", 400, "invalid plan vc2-9c-1gb")
	got := err.Error()
	if !strings.Contains(got, "vultr") || !strings.Contains(got, "invalid plan") {
		t.Errorf("expected provider and detail in message, got %q", got)
	}
}

func TestHelpersRecognizeWrappedErrors(t *testing.T) {
	base := &QuotaError{Provider: "linode", Detail: "instance limit reached"}
	wrapped := fmt.Errorf("create tf2-05: %w", base)

	if !IsQuotaExceeded(wrapped) {
		t.Error("wrapped quota error not recognized")
	}
	if IsQuotaExceeded(errors.New("unrelated")) {
		t.Error("plain error misclassified as quota")
	}

	timeout := fmt.Errorf("waiting for address after 15m0s: %w", ErrProvisioningTimeout)
	if !IsTimeout(timeout) {
		t.Error("wrapped timeout not recognized")
	}

	auth := fmt.Errorf("dial 203.0.113.9: %w", ErrAuthenticationFailed)
	if !IsAuthenticationFailed(auth) {
		t.Error("wrapped auth failure not recognized")
	}
}
