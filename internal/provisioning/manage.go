package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/imamik/srcdsctl/internal/overlay"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
	"github.com/imamik/srcdsctl/internal/platform/ssh"
	"github.com/imamik/srcdsctl/internal/registry"
	"github.com/imamik/srcdsctl/internal/util/async"
)

// Reconfigure re-runs provisioning from the recorded state onward using
// the instance's stored credentials. It is the resume path after an
// interrupted or failed run and never creates a second machine.
func (p *Provisioner) Reconfigure(ctx context.Context, id string) error {
	return p.finish(ctx, id)
}

// Reapply pushes the current includes tree to the instance and runs the
// overlay apply. The game process is not restarted.
func (p *Provisioner) Reapply(ctx context.Context, id string) error {
	inst, err := p.store.Get(id)
	if err != nil {
		return err
	}
	if inst.PublicIP == "" {
		return fmt.Errorf("instance %s has no public address yet", inst.Name)
	}
	if err := p.enterPhase(inst, registry.PhaseApplyingOverlay); err != nil {
		return err
	}
	if err := p.applyOverlay(ctx, inst); err != nil {
		return p.failPhase(inst, registry.PhaseApplyingOverlay, err)
	}
	if err := p.enterPhase(inst, registry.PhaseReady); err != nil {
		return err
	}
	p.publish(Event{Type: EventInstanceReady, Instance: inst.Name, Phase: registry.PhaseReady, Message: "overlay applied"})
	return nil
}

// Delete removes the machine at the provider and then the registry row.
// A machine the provider no longer knows about deletes cleanly; any
// other provider error leaves the row in Deleting with the error
// recorded, so the orphan stays visible.
func (p *Provisioner) Delete(ctx context.Context, id string) error {
	inst, err := p.store.Get(id)
	if err != nil {
		return err
	}
	if err := p.enterPhase(inst, registry.PhaseDeleting); err != nil {
		return err
	}
	if err := p.provider.DeleteServer(ctx, id); err != nil && !cloud.IsNotFound(err) {
		if uerr := p.store.Update(id, func(i *registry.Instance) error {
			i.LastError = err.Error()
			return nil
		}); uerr != nil {
			return errors.Join(err, uerr)
		}
		return fmt.Errorf("deleting server %s: %w", inst.Name, err)
	}
	if err := p.store.Remove(id); err != nil {
		return err
	}
	p.publish(Event{Type: EventInstanceDeleted, Instance: inst.Name, Message: "instance deleted"})
	return nil
}

// Logs returns the last lines of the game container's output.
func (p *Provisioner) Logs(ctx context.Context, id string, lines int) (string, error) {
	remote, err := p.remoteByID(id)
	if err != nil {
		return "", err
	}
	res, err := remote.Run(ctx, fmt.Sprintf("docker logs --tail %d %s", lines, overlay.ContainerName))
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("docker logs exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout + res.Stderr, nil
}

// Restart restarts the game container.
func (p *Provisioner) Restart(ctx context.Context, id string) error {
	remote, err := p.remoteByID(id)
	if err != nil {
		return err
	}
	res, err := remote.Run(ctx, "docker restart "+overlay.ContainerName)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("docker restart exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// RunCommand executes an arbitrary command on the instance host and
// returns the result without interpreting the exit status.
func (p *Provisioner) RunCommand(ctx context.Context, id, command string) (ssh.Result, error) {
	remote, err := p.remoteByID(id)
	if err != nil {
		return ssh.Result{}, err
	}
	return remote.Run(ctx, command)
}

// SetupLog returns the last lines of the remote setup log.
func (p *Provisioner) SetupLog(ctx context.Context, id string, lines int) (string, error) {
	remote, err := p.remoteByID(id)
	if err != nil {
		return "", err
	}
	return remote.Tail(ctx, overlay.RemoteSetupLog, lines)
}

func (p *Provisioner) remoteByID(id string) (Remote, error) {
	inst, err := p.store.Get(id)
	if err != nil {
		return nil, err
	}
	return p.remoteFor(inst)
}

// forEach runs op concurrently on every tracked instance and collects
// per-instance failures by name. The second return is the first failure
// wrapped with its task name, nil when everything succeeded.
func (p *Provisioner) forEach(ctx context.Context, op func(context.Context, registry.Instance) error) (map[string]error, error) {
	instances, err := p.store.List()
	if err != nil {
		return nil, err
	}
	failed := map[string]error{}
	if len(instances) == 0 {
		return failed, nil
	}

	var mu sync.Mutex
	tasks := make([]async.Task, len(instances))
	for i, inst := range instances {
		tasks[i] = async.Task{
			Name: inst.Name,
			Func: func(ctx context.Context) error {
				if err := op(ctx, inst); err != nil {
					mu.Lock()
					failed[inst.Name] = err
					mu.Unlock()
					return err
				}
				return nil
			},
		}
	}
	return failed, async.RunParallel(ctx, tasks)
}

// DeleteAll deletes every tracked instance.
func (p *Provisioner) DeleteAll(ctx context.Context) (map[string]error, error) {
	return p.forEach(ctx, func(ctx context.Context, inst registry.Instance) error {
		return p.Delete(ctx, inst.ID)
	})
}

// ReapplyAll runs the overlay apply on every tracked instance.
func (p *Provisioner) ReapplyAll(ctx context.Context) (map[string]error, error) {
	return p.forEach(ctx, func(ctx context.Context, inst registry.Instance) error {
		return p.Reapply(ctx, inst.ID)
	})
}

// RestartAll restarts the game container on every tracked instance.
func (p *Provisioner) RestartAll(ctx context.Context) (map[string]error, error) {
	return p.forEach(ctx, func(ctx context.Context, inst registry.Instance) error {
		return p.Restart(ctx, inst.ID)
	})
}

// RunAll executes command on every tracked instance. A non-zero exit
// anywhere counts as that instance failing.
func (p *Provisioner) RunAll(ctx context.Context, command string) (map[string]error, error) {
	return p.forEach(ctx, func(ctx context.Context, inst registry.Instance) error {
		res, err := p.RunCommand(ctx, inst.ID, command)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		}
		return nil
	})
}
