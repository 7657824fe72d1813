package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/overlay"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
	"github.com/imamik/srcdsctl/internal/platform/ssh"
	"github.com/imamik/srcdsctl/internal/registry"
	"github.com/imamik/srcdsctl/internal/secrets"
	"github.com/imamik/srcdsctl/internal/util/naming"
)

// Options wires a Provisioner's collaborators.
type Options struct {
	Provider cloud.Provider
	Store    *registry.Store
	Bundle   *overlay.Bundle
	Timeouts *config.Timeouts

	// Hostname is the public server name pushed into the game
	// configuration of every instance.
	Hostname string

	// PublicKey is the OpenSSH authorized_keys line registered with the
	// provider; PrivateKey is its PEM counterpart used for dialing.
	PublicKey  string
	PrivateKey []byte

	// LogsDir receives downloaded setup logs.
	LogsDir string

	// Optional; defaulted by New.
	Secrets  secrets.Generator
	Observer Observer
	Dial     DialFunc
}

// Provisioner runs the instance lifecycle against one provider.
type Provisioner struct {
	provider cloud.Provider
	store    *registry.Store
	bundle   *overlay.Bundle
	timeouts *config.Timeouts

	hostname   string
	publicKey  string
	privateKey []byte
	logsDir    string

	secrets  secrets.Generator
	observer Observer
	dial     DialFunc
}

// New validates the options and builds a Provisioner.
func New(opts Options) (*Provisioner, error) {
	if opts.Provider == nil {
		return nil, errors.New("provisioning: provider is required")
	}
	if opts.Store == nil {
		return nil, errors.New("provisioning: registry store is required")
	}
	if opts.Bundle == nil {
		return nil, errors.New("provisioning: overlay bundle is required")
	}
	if opts.Timeouts == nil {
		return nil, errors.New("provisioning: timeouts are required")
	}
	if opts.PublicKey == "" {
		return nil, errors.New("provisioning: public key is required")
	}
	if len(opts.PrivateKey) == 0 {
		return nil, errors.New("provisioning: private key is required")
	}
	if opts.LogsDir == "" {
		return nil, errors.New("provisioning: logs directory is required")
	}

	p := &Provisioner{
		provider:   opts.Provider,
		store:      opts.Store,
		bundle:     opts.Bundle,
		timeouts:   opts.Timeouts,
		hostname:   opts.Hostname,
		publicKey:  opts.PublicKey,
		privateKey: opts.PrivateKey,
		logsDir:    opts.LogsDir,
		secrets:    opts.Secrets,
		observer:   opts.Observer,
		dial:       opts.Dial,
	}
	if p.secrets == nil {
		p.secrets = secrets.NewGenerator()
	}
	if p.observer == nil {
		p.observer = NewLogObserver()
	}
	if p.dial == nil {
		p.dial = DialSSH
	}
	return p, nil
}

// withObserver returns a copy publishing through o. Bulk operations use
// it to stamp a batch id onto every event.
func (p *Provisioner) withObserver(o Observer) *Provisioner {
	clone := *p
	clone.observer = o
	return &clone
}

func (p *Provisioner) publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	p.observer.Event(e)
}

// InstanceSpec describes one instance to create.
type InstanceSpec struct {
	Name     string
	Region   string
	Size     string
	StartMap string
}

// Create provisions a single instance end to end and returns its final
// registry row. The instance is tracked from the moment the provider
// assigns it an id, so a failure after that point leaves a row behind
// for inspection or deletion rather than an untracked machine.
func (p *Provisioner) Create(ctx context.Context, spec InstanceSpec) (*registry.Instance, error) {
	inst, err := p.createInstance(ctx, spec)
	if err != nil {
		return nil, err
	}
	if err := p.finish(ctx, inst.ID); err != nil {
		if row, getErr := p.store.Get(inst.ID); getErr == nil {
			return row, err
		}
		return inst, err
	}
	return p.store.Get(inst.ID)
}

// createInstance runs the create phase: register the SSH key, create
// the machine, and insert the registry row as soon as the provider id
// is known.
func (p *Provisioner) createInstance(ctx context.Context, spec InstanceSpec) (*registry.Instance, error) {
	if spec.Name == "" {
		return nil, errors.New("instance name is required")
	}
	if _, err := p.store.GetByName(spec.Name); err == nil {
		return nil, fmt.Errorf("%q: %w", spec.Name, registry.ErrNameInUse)
	} else if !errors.Is(err, registry.ErrInstanceNotFound) {
		return nil, err
	}

	creds, err := secrets.NewInstanceSecrets(p.secrets)
	if err != nil {
		return nil, err
	}

	p.publish(Event{Type: EventPhaseStarted, Instance: spec.Name, Phase: registry.PhaseCreating, Message: "creating server"})

	keyID, err := p.provider.EnsureSSHKey(ctx, naming.SSHKeyName(), p.publicKey)
	if err != nil {
		p.publish(Event{Type: EventPhaseFailed, Instance: spec.Name, Phase: registry.PhaseCreating, Err: err, Message: "ssh key registration failed"})
		return nil, fmt.Errorf("registering ssh key: %w", err)
	}

	srv, err := p.provider.CreateServer(ctx, cloud.CreateRequest{
		Name:      spec.Name,
		Region:    spec.Region,
		Size:      spec.Size,
		SSHKeyID:  keyID,
		PublicKey: p.publicKey,
		Tags:      []string{naming.Tool, naming.InstanceTag(spec.Name)},
	})
	if err != nil {
		p.publish(Event{Type: EventPhaseFailed, Instance: spec.Name, Phase: registry.PhaseCreating, Err: err, Message: "create failed"})
		return nil, fmt.Errorf("creating server %s: %w", spec.Name, err)
	}

	inst := registry.Instance{
		ID:        srv.ID,
		Name:      spec.Name,
		Provider:  p.provider.Name(),
		Region:    spec.Region,
		Size:      spec.Size,
		PublicIP:  srv.PublicIP,
		Secrets:   creds,
		StartMap:  spec.StartMap,
		CreatedAt: srv.CreatedAt,
		Phase:     registry.PhaseCreating,
	}
	if srv.Region != "" {
		inst.Region = srv.Region
	}
	if srv.Size != "" {
		inst.Size = srv.Size
	}
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now().UTC()
	}

	if err := p.store.Insert(inst); err != nil {
		return nil, fmt.Errorf("recording instance %s: %w", spec.Name, err)
	}
	p.publish(Event{Type: EventPhaseCompleted, Instance: spec.Name, Phase: registry.PhaseCreating, Message: "server " + srv.ID + " created"})
	return &inst, nil
}

// finish drives an existing instance from its recorded state to Ready.
// It never creates machines, which makes it the resume path: an
// instance interrupted mid-provisioning picks up at the address wait or
// the bootstrap without a second create.
func (p *Provisioner) finish(ctx context.Context, id string) error {
	inst, err := p.store.Get(id)
	if err != nil {
		return err
	}

	if inst.PublicIP == "" {
		if err := p.enterPhase(inst, registry.PhaseAwaitingAddress); err != nil {
			return err
		}
		ip, err := p.provider.WaitForActiveIP(ctx, id)
		if err != nil {
			return p.failPhase(inst, registry.PhaseAwaitingAddress, err)
		}
		if err := p.store.Update(id, func(i *registry.Instance) error {
			i.PublicIP = ip
			return nil
		}); err != nil {
			return err
		}
		inst.PublicIP = ip
		p.publish(Event{Type: EventPhaseCompleted, Instance: inst.Name, Phase: registry.PhaseAwaitingAddress, Message: "address " + ip})
	}

	if err := p.enterPhase(inst, registry.PhaseBootstrapping); err != nil {
		return err
	}
	if err := p.bootstrap(ctx, inst); err != nil {
		return p.failPhase(inst, registry.PhaseBootstrapping, err)
	}
	p.publish(Event{Type: EventPhaseCompleted, Instance: inst.Name, Phase: registry.PhaseBootstrapping, Message: "game server installed"})

	if err := p.enterPhase(inst, registry.PhaseApplyingOverlay); err != nil {
		return err
	}
	if err := p.applyOverlay(ctx, inst); err != nil {
		return p.failPhase(inst, registry.PhaseApplyingOverlay, err)
	}
	p.publish(Event{Type: EventPhaseCompleted, Instance: inst.Name, Phase: registry.PhaseApplyingOverlay, Message: "overlay applied"})

	if err := p.enterPhase(inst, registry.PhaseReady); err != nil {
		return err
	}
	p.publish(Event{Type: EventInstanceReady, Instance: inst.Name, Phase: registry.PhaseReady, Message: "instance ready"})
	return nil
}

// enterPhase records the transition before the phase's work starts. A
// crash after this write resumes at the recorded phase.
func (p *Provisioner) enterPhase(inst *registry.Instance, phase registry.Phase) error {
	if err := p.store.Update(inst.ID, func(i *registry.Instance) error {
		i.Phase = phase
		i.FailedPhase = ""
		i.LastError = ""
		return nil
	}); err != nil {
		return fmt.Errorf("recording phase %s for %s: %w", phase, inst.Name, err)
	}
	if phase != registry.PhaseReady {
		p.publish(Event{Type: EventPhaseStarted, Instance: inst.Name, Phase: phase, Message: "starting"})
	}
	return nil
}

// failPhase marks the instance Failed at the given phase and returns
// the cause wrapped with the phase name. The machine is kept for
// inspection; deletion is always an explicit operation.
func (p *Provisioner) failPhase(inst *registry.Instance, phase registry.Phase, cause error) error {
	p.publish(Event{Type: EventPhaseFailed, Instance: inst.Name, Phase: phase, Err: cause, Message: "failed"})
	if err := p.store.Update(inst.ID, func(i *registry.Instance) error {
		i.Phase = registry.PhaseFailed
		i.FailedPhase = phase
		i.LastError = cause.Error()
		return nil
	}); err != nil {
		return errors.Join(cause, err)
	}
	return fmt.Errorf("%s: %w", phase, cause)
}

// remoteFor dials the instance's public address with the tool's key.
func (p *Provisioner) remoteFor(inst *registry.Instance) (Remote, error) {
	if inst.PublicIP == "" {
		return nil, fmt.Errorf("instance %s has no public address yet", inst.Name)
	}
	return p.dial(&ssh.Config{
		Host:        inst.PublicIP,
		PrivateKey:  p.privateKey,
		DialTimeout: p.timeouts.Dial,
	})
}
