package provisioning

import (
	"context"
	"os"
	"time"

	"github.com/imamik/srcdsctl/internal/platform/ssh"
)

// Remote is the slice of the SSH layer the orchestrator drives. It is
// satisfied by *ssh.Dialer; tests substitute a recording fake.
type Remote interface {
	Run(ctx context.Context, command string) (ssh.Result, error)
	Output(ctx context.Context, command string) (string, error)
	UploadTree(ctx context.Context, localDir, remoteDir string) (int, error)
	UploadFile(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error
	Download(ctx context.Context, remotePath string) ([]byte, error)
	WaitForReady(ctx context.Context, timeout, poll, settle time.Duration) error
	WaitForMarker(ctx context.Context, remotePath string, timeout, interval time.Duration) (string, error)
	WaitForCondition(ctx context.Context, command, what string, timeout, interval time.Duration) error
	Tail(ctx context.Context, remotePath string, lines int) (string, error)
}

// DialFunc opens a Remote for an instance address.
type DialFunc func(cfg *ssh.Config) (Remote, error)

// DialSSH is the production DialFunc.
func DialSSH(cfg *ssh.Config) (Remote, error) {
	return ssh.NewDialer(cfg)
}
