package provisioning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/srcdsctl/internal/overlay"
	"github.com/imamik/srcdsctl/internal/registry"
	"github.com/imamik/srcdsctl/internal/util/naming"
)

const (
	// cloudInitFinishedCommand exits zero once cloud-init wrote its
	// boot-finished stamp. Images without cloud-init can touch the
	// srcdsctl marker instead.
	cloudInitFinishedCommand = "test -f /var/lib/cloud/instance/boot-finished || test -f /var/local/srcdsctl-init-done"

	// packageManagerIdleCommand exits zero while no apt, dpkg or
	// unattended-upgrade process holds the package locks.
	packageManagerIdleCommand = "! pgrep -x unattended-upgrade >/dev/null 2>&1" +
		" && ! pgrep -x apt >/dev/null 2>&1" +
		" && ! pgrep -x apt-get >/dev/null 2>&1" +
		" && ! pgrep -x dpkg >/dev/null 2>&1"
)

// launchSetupCommand starts the setup script detached and records its
// exit status in the marker file when it finishes. Because the script
// outlives the SSH session, a dropped connection cannot kill a
// half-finished installation.
var launchSetupCommand = fmt.Sprintf(
	"rm -f %s && nohup bash -c 'bash -x %s > %s 2>&1; echo $? > %s' >/dev/null 2>&1 &",
	overlay.RemoteMarkerFile, overlay.RemoteSetupScript, overlay.RemoteSetupLog, overlay.RemoteMarkerFile,
)

// bootstrap installs the game server over SSH: wait for sshd, upload
// the rendered setup script and content, let cloud-init and apt finish,
// then launch the setup detached and wait for its completion marker.
// The setup log is downloaded whether the script succeeded or not.
func (p *Provisioner) bootstrap(ctx context.Context, inst *registry.Instance) error {
	remote, err := p.remoteFor(inst)
	if err != nil {
		return err
	}

	t := p.timeouts
	if err := remote.WaitForReady(ctx, t.SSHReady, t.SSHPoll, t.Settle); err != nil {
		return err
	}

	if err := p.uploadPayload(ctx, remote, inst); err != nil {
		return err
	}

	if err := remote.WaitForCondition(ctx, cloudInitFinishedCommand, "cloud-init", t.CloudInit, t.CloudInitPoll); err != nil {
		return err
	}
	if err := remote.WaitForCondition(ctx, packageManagerIdleCommand, "package locks", t.CloudInit, t.CloudInitPoll); err != nil {
		return err
	}

	if _, err := remote.Output(ctx, launchSetupCommand); err != nil {
		return fmt.Errorf("launching setup script: %w", err)
	}

	status, waitErr := remote.WaitForMarker(ctx, overlay.RemoteMarkerFile, t.Setup, t.MarkerPoll)
	logPath, logErr := p.downloadSetupLog(ctx, remote, inst)
	if logErr != nil {
		p.publish(Event{Type: EventWarning, Instance: inst.Name, Phase: registry.PhaseBootstrapping, Err: logErr, Message: "setup log not downloaded"})
	}
	if waitErr != nil {
		return waitErr
	}
	switch {
	case status == "":
		return fmt.Errorf("setup script finished without recording an exit status")
	case status != "0":
		if logPath != "" {
			return fmt.Errorf("setup script exited with status %s, log at %s", status, logPath)
		}
		return fmt.Errorf("setup script exited with status %s", status)
	}
	return nil
}

// uploadPayload pushes the rendered setup script, the includes tree and
// the overlay apply script. The shell alias is a convenience and must
// not fail the bootstrap.
func (p *Provisioner) uploadPayload(ctx context.Context, remote Remote, inst *registry.Instance) error {
	tpl, err := p.bundle.SetupTemplate()
	if err != nil {
		return err
	}
	script := overlay.RenderSetupScript(tpl, map[string]string{
		overlay.KeyServerHostname:    p.hostname,
		overlay.KeyRCONPassword:      inst.Secrets.RCONPassword,
		overlay.KeyServerPassword:    inst.Secrets.ServerPassword,
		overlay.KeyStartMap:          inst.StartMap,
		overlay.KeySpectatorPassword: inst.Secrets.SpectatorPassword,
	})
	script = overlay.EnsurePostInstall(script)

	if err := remote.UploadFile(ctx, script, overlay.RemoteSetupScript, 0o700); err != nil {
		return err
	}
	if p.bundle.HasIncludes() {
		n, err := remote.UploadTree(ctx, p.bundle.IncludesDir(), overlay.RemoteIncludesDir)
		if err != nil {
			return err
		}
		p.publish(Event{Type: EventInfo, Instance: inst.Name, Phase: registry.PhaseBootstrapping, Message: fmt.Sprintf("uploaded %d include files", n)})
	}
	if err := remote.UploadFile(ctx, overlay.ApplyScript(), overlay.RemoteApplyScript, 0o700); err != nil {
		return err
	}
	if _, err := remote.Run(ctx, overlay.RegisterAliasCommand); err != nil {
		p.publish(Event{Type: EventWarning, Instance: inst.Name, Phase: registry.PhaseBootstrapping, Err: err, Message: "shell alias not registered"})
	}
	return nil
}

// downloadSetupLog copies the remote setup log next to the registry so
// failures can be inspected without SSH, and records the local path on
// the instance.
func (p *Provisioner) downloadSetupLog(ctx context.Context, remote Remote, inst *registry.Instance) (string, error) {
	data, err := remote.Download(ctx, overlay.RemoteSetupLog)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(p.logsDir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(p.logsDir, naming.SetupLogFile(inst.Name, inst.ID))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	if err := p.store.Update(inst.ID, func(i *registry.Instance) error {
		i.SetupLog = path
		return nil
	}); err != nil {
		return path, err
	}
	return path, nil
}

// applyOverlay uploads the current includes tree and apply script, then
// runs the apply on the host. Safe to repeat; the script only appends
// the autoexec directive when it is missing.
func (p *Provisioner) applyOverlay(ctx context.Context, inst *registry.Instance) error {
	remote, err := p.remoteFor(inst)
	if err != nil {
		return err
	}
	if p.bundle.HasIncludes() {
		if _, err := remote.UploadTree(ctx, p.bundle.IncludesDir(), overlay.RemoteIncludesDir); err != nil {
			return err
		}
	}
	if err := remote.UploadFile(ctx, overlay.ApplyScript(), overlay.RemoteApplyScript, 0o700); err != nil {
		return err
	}
	res, err := remote.Run(ctx, "bash "+overlay.RemoteApplyScript)
	if err != nil {
		return fmt.Errorf("running overlay apply: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("overlay apply exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}
