package vultr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/vultr/govultr/v3"

	"github.com/imamik/srcdsctl/internal/platform/cloud"
)

func TestActiveIP(t *testing.T) {
	tests := []struct {
		name     string
		instance *govultr.Instance
		wantIP   string
		wantOK   bool
	}{
		{
			name:     "pending",
			instance: &govultr.Instance{Status: "pending"},
		},
		{
			name:     "active with placeholder address",
			instance: &govultr.Instance{Status: "active", MainIP: "0.0.0.0"},
		},
		{
			name:     "active without address",
			instance: &govultr.Instance{Status: "active"},
		},
		{
			name:     "active with address",
			instance: &govultr.Instance{Status: "active", MainIP: "203.0.113.77"},
			wantIP:   "203.0.113.77",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, ok := activeIP(tt.instance)
			if ok != tt.wantOK {
				t.Errorf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ip != tt.wantIP {
				t.Errorf("expected ip %q, got %q", tt.wantIP, ip)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusNotFound}
	if !cloud.IsNotFound(classify(resp, errors.New("instance not found"))) {
		t.Error("404 should map to not found")
	}

	if !cloud.IsUnavailable(classify(nil, errors.New("connection refused"))) {
		t.Error("transport failure should map to unavailable")
	}

	resp = &http.Response{StatusCode: http.StatusBadRequest}
	if !cloud.IsRejected(classify(resp, errors.New("invalid plan"))) {
		t.Error("400 should map to rejected")
	}

	if classify(nil, nil) != nil {
		t.Error("nil error should stay nil")
	}
}

func TestIsMissingInstance(t *testing.T) {
	if !isMissingInstance(errors.New("Invalid instance.")) {
		t.Error("invalid instance message should count as missing")
	}
	if !isMissingInstance(errors.New("instance not found")) {
		t.Error("not found message should count as missing")
	}
	if isMissingInstance(errors.New("rate limit exceeded")) {
		t.Error("unrelated message misclassified as missing")
	}
}

func TestRecommendedSizes(t *testing.T) {
	sizes := (&Client{}).RecommendedSizes()

	// Vultr's vc2 line stops at 4 cores in the recommended tier, so
	// there is no xlarge here.
	want := map[string]string{
		"small":  "vc2-1c-2gb",
		"medium": "vc2-2c-4gb",
		"large":  "vc2-4c-8gb",
	}
	if len(sizes) != len(want) {
		t.Fatalf("expected %d sizes, got %d", len(want), len(sizes))
	}
	for _, s := range sizes {
		if want[s.Key] != s.Slug {
			t.Errorf("size %s: expected slug %q, got %q", s.Key, want[s.Key], s.Slug)
		}
	}
}

func TestInstanceToServer(t *testing.T) {
	i := &govultr.Instance{
		ID:          "cb676a46-66fd-4dfb-b839-443f2e6c0b60",
		Label:       "tf2-03",
		Region:      "fra",
		Plan:        "vc2-2c-4gb",
		Status:      "active",
		MainIP:      "203.0.113.77",
		DateCreated: "2026-08-20T14:12:00+00:00",
		Tags:        []string{"srcdsctl", "srcds-tf2-03"},
	}

	s := instanceToServer(i)
	if s.ID != i.ID || s.Name != "tf2-03" || s.PublicIP != "203.0.113.77" {
		t.Errorf("mapping mismatch: %+v", s)
	}
	if s.CreatedAt.IsZero() {
		t.Error("expected parsed creation time")
	}
}
