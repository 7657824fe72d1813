package config

import (
	"os"
	"time"
)

// Timeouts holds every bounded wait in the provisioning flow. All values
// can be overridden via environment variables, which keeps knobs out of
// the settings file while still allowing slow providers to be tamed.
type Timeouts struct {
	Address       time.Duration // wait for a public IPv4 after create
	AddressPoll   time.Duration // poll interval while waiting for the address
	SSHReady      time.Duration // wait for sshd to accept and execute commands
	SSHPoll       time.Duration // poll interval for SSH readiness
	Settle        time.Duration // pause between port open and first command
	CloudInit     time.Duration // wait for cloud-init and apt to finish
	CloudInitPoll time.Duration // poll interval for the cloud-init wait
	Setup         time.Duration // wait for the detached setup script
	MarkerPoll    time.Duration // poll interval for the setup completion marker
	CreatePacing  time.Duration // delay between create calls in a bulk request
	Dial          time.Duration // TCP dial timeout for SSH connections
}

// LoadTimeouts builds the timeout table from environment variables,
// falling back to defaults when a variable is unset or unparsable.
//
// Environment variables:
//   - SRCDSCTL_TIMEOUT_ADDRESS (default: 15m)
//   - SRCDSCTL_TIMEOUT_ADDRESS_POLL (default: 8s)
//   - SRCDSCTL_TIMEOUT_SSH_READY (default: 15m)
//   - SRCDSCTL_TIMEOUT_SSH_POLL (default: 5s)
//   - SRCDSCTL_TIMEOUT_SETTLE (default: 5s)
//   - SRCDSCTL_TIMEOUT_CLOUD_INIT (default: 10m)
//   - SRCDSCTL_TIMEOUT_CLOUD_INIT_POLL (default: 3s)
//   - SRCDSCTL_TIMEOUT_SETUP (default: 30m)
//   - SRCDSCTL_TIMEOUT_MARKER_POLL (default: 5s)
//   - SRCDSCTL_TIMEOUT_CREATE_PACING (default: 1s)
//   - SRCDSCTL_TIMEOUT_DIAL (default: 10s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Address:       parseDuration("SRCDSCTL_TIMEOUT_ADDRESS", 15*time.Minute),
		AddressPoll:   parseDuration("SRCDSCTL_TIMEOUT_ADDRESS_POLL", 8*time.Second),
		SSHReady:      parseDuration("SRCDSCTL_TIMEOUT_SSH_READY", 15*time.Minute),
		SSHPoll:       parseDuration("SRCDSCTL_TIMEOUT_SSH_POLL", 5*time.Second),
		Settle:        parseDuration("SRCDSCTL_TIMEOUT_SETTLE", 5*time.Second),
		CloudInit:     parseDuration("SRCDSCTL_TIMEOUT_CLOUD_INIT", 10*time.Minute),
		CloudInitPoll: parseDuration("SRCDSCTL_TIMEOUT_CLOUD_INIT_POLL", 3*time.Second),
		Setup:         parseDuration("SRCDSCTL_TIMEOUT_SETUP", 30*time.Minute),
		MarkerPoll:    parseDuration("SRCDSCTL_TIMEOUT_MARKER_POLL", 5*time.Second),
		CreatePacing:  parseDuration("SRCDSCTL_TIMEOUT_CREATE_PACING", time.Second),
		Dial:          parseDuration("SRCDSCTL_TIMEOUT_DIAL", 10*time.Second),
	}
}

// parseDuration reads a duration from the environment, returning the
// default when unset or invalid.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
