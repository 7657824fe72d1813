// Package ssh executes commands and transfers files on freshly created
// game servers. It handles connection establishment with retry logic,
// key-based authentication, and readiness probing for hosts that are
// still booting.
//
// Security: host key verification is disabled by default because the
// servers are created seconds before the first connection and their
// host keys are not known in advance. Configure HostKeyCallback when
// talking to persistent machines.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/imamik/srcdsctl/internal/platform/cloud"
)

const (
	defaultPort        = 22
	defaultUser        = "root"
	defaultDialTimeout = 10 * time.Second
	defaultMaxAttempts = 10

	baseRetryDelay = 3 * time.Second
	maxRetryDelay  = 15 * time.Second

	portProbeTimeout = 2 * time.Second
)

// Config holds connection parameters for one remote host.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// MaxAttempts is the number of connection attempts before giving up.
	// If zero, defaultMaxAttempts is used.
	MaxAttempts int

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// Dialer runs commands and copies files on a single remote host.
// It parses the private key once during construction and opens
// connections on demand per operation.
type Dialer struct {
	config *Config
	signer ssh.Signer
}

// Result carries the outcome of one remote command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// NewDialer validates the config, applies defaults and parses the
// private key.
func NewDialer(cfg *Config) (*Dialer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.User == "" {
		configCopy.User = defaultUser
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxAttempts == 0 {
		configCopy.MaxAttempts = defaultMaxAttempts
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Hosts are created moments before the first dial
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Dialer{
		config: &configCopy,
		signer: signer,
	}, nil
}

// Host returns the host the dialer was built for.
func (d *Dialer) Host() string { return d.config.Host }

func (d *Dialer) addr() string {
	return net.JoinHostPort(d.config.Host, strconv.Itoa(d.config.Port))
}

func (d *Dialer) clientConfig() *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User:            d.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(d.signer)},
		HostKeyCallback: d.config.HostKeyCallback,
		Timeout:         d.config.DialTimeout,
	}
}

// dialOnce makes a single connection attempt.
func (d *Dialer) dialOnce() (*ssh.Client, error) {
	client, err := ssh.Dial("tcp", d.addr(), d.clientConfig())
	if err != nil {
		if isAuthErr(err) {
			return nil, fmt.Errorf("ssh to %s: %v: %w", d.addr(), err, cloud.ErrAuthenticationFailed)
		}
		return nil, err
	}
	return client, nil
}

// connect establishes a connection, retrying transient dial failures
// with a growing delay. Authentication failures abort immediately.
func (d *Dialer) connect(ctx context.Context) (*ssh.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		client, err := d.dialOnce()
		if err == nil {
			return client, nil
		}
		if errors.Is(err, cloud.ErrAuthenticationFailed) {
			return nil, err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return nil, fmt.Errorf("establishing ssh connection to %s after %d attempts (%v): %w",
		d.addr(), d.config.MaxAttempts, lastErr, cloud.ErrConnectionRefused)
}

// retryDelay grows linearly with the attempt number, capped so a slow
// boot does not push waits past a useful interval.
func retryDelay(attempt int) time.Duration {
	return min(maxRetryDelay, time.Duration(attempt)*baseRetryDelay)
}

func isAuthErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}

// Run executes a command in a fresh session. A non-zero exit status is
// reported through Result.ExitCode, not as an error; errors indicate
// connection or session failures.
func (d *Dialer) Run(ctx context.Context, command string) (Result, error) {
	client, err := d.connect(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = client.Close() }()

	return runSession(ctx, client, command)
}

// runOnce is Run without connection retries, for probe loops that
// supply their own pacing.
func (d *Dialer) runOnce(ctx context.Context, command string) (Result, error) {
	client, err := d.dialOnce()
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = client.Close() }()

	return runSession(ctx, client, command)
}

func runSession(ctx context.Context, client *ssh.Client, command string) (Result, error) {
	session, err := client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create ssh session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = client.Close()
		<-done
		return Result{}, ctx.Err()
	case err = <-done:
	}

	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return result, fmt.Errorf("running %q: %w", command, err)
		}
		result.ExitCode = exitErr.ExitStatus()
	}
	return result, nil
}

// Output runs a command and returns stdout, turning a non-zero exit
// status into an error.
func (d *Dialer) Output(ctx context.Context, command string) (string, error) {
	res, err := d.Run(ctx, command)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return res.Stdout, fmt.Errorf("remote command %q exited %d: %s",
			command, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}

// treeEntry is one node of a local directory scheduled for upload.
type treeEntry struct {
	localPath  string
	remotePath string
	dir        bool
}

// planTree walks localDir and maps every directory and regular file to
// its remote destination. Dotfiles and dot-directories are skipped;
// remote paths are always POSIX regardless of the local separator.
func planTree(localDir, remoteDir string) ([]treeEntry, error) {
	var entries []treeEntry
	err := filepath.WalkDir(localDir, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != localDir && strings.HasPrefix(de.Name(), ".") {
			if de.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		remote := remoteDir
		if rel != "." {
			remote = path.Join(remoteDir, filepath.ToSlash(rel))
		}
		entries = append(entries, treeEntry{localPath: p, remotePath: remote, dir: de.IsDir()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UploadTree copies a local directory to remoteDir over SFTP, creating
// remote directories as needed. Returns the number of files copied.
func (d *Dialer) UploadTree(ctx context.Context, localDir, remoteDir string) (int, error) {
	entries, err := planTree(localDir, remoteDir)
	if err != nil {
		return 0, fmt.Errorf("scanning %s: %w", localDir, err)
	}

	client, err := d.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Close() }()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return 0, fmt.Errorf("opening sftp session: %w", err)
	}
	defer func() { _ = sc.Close() }()

	count := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if e.dir {
			if err := sc.MkdirAll(e.remotePath); err != nil {
				return count, fmt.Errorf("mkdir %s: %w", e.remotePath, err)
			}
			continue
		}
		if err := copyFile(sc, e.localPath, e.remotePath); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func copyFile(sc *sftp.Client, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := sc.Create(remotePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", remotePath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("copying to %s: %w", remotePath, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", remotePath, err)
	}
	return nil
}

// UploadFile writes content to remotePath with the given mode, creating
// parent directories as needed.
func (d *Dialer) UploadFile(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error {
	client, err := d.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("opening sftp session: %w", err)
	}
	defer func() { _ = sc.Close() }()

	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := sc.MkdirAll(dir); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	f, err := sc.Create(remotePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", remotePath, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", remotePath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", remotePath, err)
	}
	if err := sc.Chmod(remotePath, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", remotePath, err)
	}
	return nil
}

// Download reads a remote file into memory.
func (d *Dialer) Download(ctx context.Context, remotePath string) ([]byte, error) {
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return nil, fmt.Errorf("opening sftp session: %w", err)
	}
	defer func() { _ = sc.Close() }()

	f, err := sc.Open(remotePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", remotePath, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", remotePath, err)
	}
	return data, nil
}

// WaitForReady blocks until the host accepts SSH sessions and actually
// executes commands. Waiting for the port alone is not enough: sshd
// restarts during cloud-init and resets connections mid-handshake, so
// readiness is proven by running a trivial command.
func (d *Dialer) WaitForReady(ctx context.Context, timeout, poll, settle time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.waitForPort(ctx, poll); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("ssh port on %s not open after %s: %w",
				d.config.Host, timeout, cloud.ErrProvisioningTimeout)
		}
		return err
	}

	// Let sshd finish initializing once the port opens.
	select {
	case <-ctx.Done():
	case <-time.After(settle):
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		if ctx.Err() == nil {
			res, err := d.runOnce(ctx, "echo READY")
			if err == nil && res.ExitCode == 0 && strings.TrimSpace(res.Stdout) == "READY" {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("ssh on %s not ready after %s: %w",
					d.config.Host, timeout, cloud.ErrProvisioningTimeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// waitForPort polls until the SSH port accepts TCP connections.
func (d *Dialer) waitForPort(ctx context.Context, poll time.Duration) error {
	addr := d.addr()
	probe := func() bool {
		conn, err := net.DialTimeout("tcp", addr, portProbeTimeout)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}

	if probe() {
		return nil
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if probe() {
				return nil
			}
		}
	}
}

// WaitForMarker polls until the remote marker file exists and returns
// its trimmed content. Each probe dials fresh, so the wait survives
// connection drops while long-running remote work is in flight.
func (d *Dialer) WaitForMarker(ctx context.Context, remotePath string, timeout, interval time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if ctx.Err() == nil {
			res, err := d.runOnce(ctx, fmt.Sprintf("cat %s 2>/dev/null", remotePath))
			if err == nil && res.ExitCode == 0 {
				return strings.TrimSpace(res.Stdout), nil
			}
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("marker %s on %s after %s: %w",
					remotePath, d.config.Host, timeout, cloud.ErrProvisioningTimeout)
			}
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitForCondition polls a remote command until it exits zero. The
// what argument names the condition in the timeout error.
func (d *Dialer) WaitForCondition(ctx context.Context, command, what string, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if ctx.Err() == nil {
			res, err := d.runOnce(ctx, command)
			if err == nil && res.ExitCode == 0 {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%s on %s after %s: %w",
					what, d.config.Host, timeout, cloud.ErrProvisioningTimeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tail returns the last n lines of a remote file.
func (d *Dialer) Tail(ctx context.Context, remotePath string, lines int) (string, error) {
	return d.Output(ctx, fmt.Sprintf("tail -n %d %s", lines, remotePath))
}
