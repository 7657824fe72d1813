package config

import (
	"testing"
	"time"
)

func TestLoadTimeoutsDefaults(t *testing.T) {
	timeouts := LoadTimeouts()

	if timeouts.Address != 15*time.Minute {
		t.Errorf("Expected Address default 15m, got %v", timeouts.Address)
	}
	if timeouts.AddressPoll != 8*time.Second {
		t.Errorf("Expected AddressPoll default 8s, got %v", timeouts.AddressPoll)
	}
	if timeouts.SSHReady != 15*time.Minute {
		t.Errorf("Expected SSHReady default 15m, got %v", timeouts.SSHReady)
	}
	if timeouts.SSHPoll != 5*time.Second {
		t.Errorf("Expected SSHPoll default 5s, got %v", timeouts.SSHPoll)
	}
	if timeouts.Settle != 5*time.Second {
		t.Errorf("Expected Settle default 5s, got %v", timeouts.Settle)
	}
	if timeouts.CloudInit != 10*time.Minute {
		t.Errorf("Expected CloudInit default 10m, got %v", timeouts.CloudInit)
	}
	if timeouts.CloudInitPoll != 3*time.Second {
		t.Errorf("Expected CloudInitPoll default 3s, got %v", timeouts.CloudInitPoll)
	}
	if timeouts.Setup != 30*time.Minute {
		t.Errorf("Expected Setup default 30m, got %v", timeouts.Setup)
	}
	if timeouts.MarkerPoll != 5*time.Second {
		t.Errorf("Expected MarkerPoll default 5s, got %v", timeouts.MarkerPoll)
	}
	if timeouts.CreatePacing != time.Second {
		t.Errorf("Expected CreatePacing default 1s, got %v", timeouts.CreatePacing)
	}
	if timeouts.Dial != 10*time.Second {
		t.Errorf("Expected Dial default 10s, got %v", timeouts.Dial)
	}
}

func TestLoadTimeoutsFromEnvironment(t *testing.T) {
	t.Setenv("SRCDSCTL_TIMEOUT_SETUP", "45m")
	t.Setenv("SRCDSCTL_TIMEOUT_MARKER_POLL", "2s")

	timeouts := LoadTimeouts()

	if timeouts.Setup != 45*time.Minute {
		t.Errorf("Expected Setup override 45m, got %v", timeouts.Setup)
	}
	if timeouts.MarkerPoll != 2*time.Second {
		t.Errorf("Expected MarkerPoll override 2s, got %v", timeouts.MarkerPoll)
	}
	// Untouched values keep their defaults.
	if timeouts.Address != 15*time.Minute {
		t.Errorf("Expected Address default 15m, got %v", timeouts.Address)
	}
}

func TestLoadTimeoutsInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SRCDSCTL_TIMEOUT_SETUP", "not-a-duration")

	timeouts := LoadTimeouts()

	if timeouts.Setup != 30*time.Minute {
		t.Errorf("Expected fallback to 30m for invalid value, got %v", timeouts.Setup)
	}
}
