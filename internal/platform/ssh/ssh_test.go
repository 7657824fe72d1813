package ssh

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/imamik/srcdsctl/internal/util/keygen"
)

// generateTestKey generates a throwaway keypair for use in tests.
func generateTestKey(t *testing.T) *keygen.KeyPair {
	t.Helper()
	keyPair, err := keygen.GenerateED25519("test")
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	return keyPair
}

func TestNewDialer_Success(t *testing.T) {
	keyPair := generateTestKey(t)

	cfg := &Config{
		Host:       "192.0.2.10",
		PrivateKey: keyPair.PrivateKey,
	}

	dialer, err := NewDialer(cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if dialer == nil {
		t.Fatal("expected dialer, got nil")
	}

	// Verify defaults were applied
	if dialer.config.Port != defaultPort { //nolint:staticcheck // t.Fatal above ensures dialer is not nil
		t.Errorf("expected port %d, got %d", defaultPort, dialer.config.Port)
	}
	if dialer.config.User != defaultUser {
		t.Errorf("expected user %q, got %q", defaultUser, dialer.config.User)
	}
	if dialer.config.DialTimeout != defaultDialTimeout {
		t.Errorf("expected timeout %v, got %v", defaultDialTimeout, dialer.config.DialTimeout)
	}
	if dialer.config.MaxAttempts != defaultMaxAttempts {
		t.Errorf("expected max attempts %d, got %d", defaultMaxAttempts, dialer.config.MaxAttempts)
	}
	if dialer.signer == nil {
		t.Fatal("expected signer to be set, got nil")
	}
}

func TestNewDialer_InvalidKey(t *testing.T) {
	cfg := &Config{
		Host:       "192.0.2.10",
		PrivateKey: []byte("invalid key"),
	}

	_, err := NewDialer(cfg)
	if err == nil {
		t.Fatal("expected error for invalid private key, got nil")
	}
}

func TestNewDialer_NilConfig(t *testing.T) {
	_, err := NewDialer(nil)
	if err == nil {
		t.Fatal("expected error for nil config, got nil")
	}
	if err.Error() != "config cannot be nil" {
		t.Errorf("expected 'config cannot be nil' error, got: %v", err)
	}
}

func TestNewDialer_EmptyHost(t *testing.T) {
	keyPair := generateTestKey(t)

	_, err := NewDialer(&Config{PrivateKey: keyPair.PrivateKey})
	if err == nil {
		t.Fatal("expected error for empty host, got nil")
	}
}

func TestNewDialer_EmptyPrivateKey(t *testing.T) {
	_, err := NewDialer(&Config{Host: "192.0.2.10"})
	if err == nil {
		t.Fatal("expected error for empty private key, got nil")
	}
}

func TestNewDialer_ConfigNotMutated(t *testing.T) {
	keyPair := generateTestKey(t)

	cfg := &Config{
		Host:       "192.0.2.10",
		PrivateKey: keyPair.PrivateKey,
	}

	_, err := NewDialer(cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Port != 0 || cfg.User != "" || cfg.DialTimeout != 0 || cfg.MaxAttempts != 0 {
		t.Errorf("caller config was mutated: %+v", cfg)
	}
}

func TestNewDialer_CustomConfig(t *testing.T) {
	keyPair := generateTestKey(t)

	cfg := &Config{
		Host:        "192.0.2.10",
		Port:        2222,
		User:        "steam",
		PrivateKey:  keyPair.PrivateKey,
		DialTimeout: 5 * time.Second,
		MaxAttempts: 3,
	}

	dialer, err := NewDialer(cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if dialer.config.Port != 2222 {
		t.Errorf("expected port 2222, got %d", dialer.config.Port)
	}
	if dialer.config.User != "steam" {
		t.Errorf("expected user steam, got %q", dialer.config.User)
	}
	if dialer.addr() != "192.0.2.10:2222" {
		t.Errorf("unexpected addr %q", dialer.addr())
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 3 * time.Second},
		{2, 6 * time.Second},
		{4, 12 * time.Second},
		{5, 15 * time.Second},
		{10, 15 * time.Second},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.attempt); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsAuthErr(t *testing.T) {
	authErr := errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none publickey], no supported methods remain")
	if !isAuthErr(authErr) {
		t.Error("expected auth failure to be recognized")
	}
	if isAuthErr(errors.New("dial tcp 192.0.2.10:22: connect: connection refused")) {
		t.Error("connection refusal should not look like an auth failure")
	}
	if isAuthErr(nil) {
		t.Error("nil error should not look like an auth failure")
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	keyPair := generateTestKey(t)

	dialer, err := NewDialer(&Config{
		Host:        "192.0.2.10", // non-routable test address
		PrivateKey:  keyPair.PrivateKey,
		DialTimeout: 100 * time.Millisecond,
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("expected no error creating dialer, got: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = dialer.Run(ctx, "echo test")
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestPlanTree(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel, content string) {
		t.Helper()
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("cfg/server.cfg", "hostname test")
	mustWrite("cfg/.hidden", "skip me")
	mustWrite("maps/cp_dustbowl.bsp", "mapdata")
	mustWrite(".git/config", "skip the whole dir")

	entries, err := planTree(dir, "/root/srcds-includes")
	if err != nil {
		t.Fatalf("planTree failed: %v", err)
	}

	got := map[string]bool{}
	files := 0
	for _, e := range entries {
		got[e.remotePath] = e.dir
		if !e.dir {
			files++
		}
	}

	if files != 2 {
		t.Errorf("expected 2 files planned, got %d", files)
	}
	if isDir, ok := got["/root/srcds-includes/cfg/server.cfg"]; !ok || isDir {
		t.Error("expected cfg/server.cfg as a file entry")
	}
	if isDir, ok := got["/root/srcds-includes/maps/cp_dustbowl.bsp"]; !ok || isDir {
		t.Error("expected maps/cp_dustbowl.bsp as a file entry")
	}
	if isDir, ok := got["/root/srcds-includes"]; !ok || !isDir {
		t.Error("expected the root directory entry")
	}
	for remote := range got {
		if filepath.Base(remote) == ".hidden" || filepath.Base(remote) == ".git" || filepath.Base(remote) == "config" {
			t.Errorf("dotfile leaked into the plan: %s", remote)
		}
	}
}

func TestPlanTree_MissingDir(t *testing.T) {
	_, err := planTree(filepath.Join(t.TempDir(), "nope"), "/root/srcds-includes")
	if err == nil {
		t.Fatal("expected error for missing local directory")
	}
}

func TestWaitForPort_Open(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer func() { _ = ln.Close() }()

	keyPair := generateTestKey(t)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}

	dialer, err := NewDialer(&Config{
		Host:       host,
		Port:       port,
		PrivateKey: keyPair.PrivateKey,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dialer.waitForPort(ctx, 100*time.Millisecond); err != nil {
		t.Errorf("expected open port to be detected, got: %v", err)
	}
}

func TestWaitForPort_Timeout(t *testing.T) {
	keyPair := generateTestKey(t)

	dialer, err := NewDialer(&Config{
		Host:       "127.0.0.1",
		Port:       1, // closed on any sane machine
		PrivateKey: keyPair.PrivateKey,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err = dialer.waitForPort(ctx, 50*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got: %v", err)
	}
}
