// Package cloud defines the capability surface a provider adapter
// implements and the error taxonomy adapters normalize into.
//
// The orchestrator only ever sees these types. Each adapter wraps its
// official SDK, translates SDK errors at the boundary, and keeps
// provider-specific notions (labels vs tags, numeric vs UUID ids) to
// itself.
package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/srcdsctl/internal/util/retry"
)

// Server describes a provisioned instance as reported by a provider.
type Server struct {
	ID        string
	Name      string
	Region    string
	Size      string
	PublicIP  string
	Status    string
	CreatedAt time.Time
	Tags      []string
}

// Region is a datacenter instances can be placed in.
type Region struct {
	Slug string
	Name string
}

// SizeOption maps a portable size name onto a provider plan.
type SizeOption struct {
	Key   string // portable name: small, medium, large, xlarge
	Slug  string // provider plan identifier
	Label string // human description for menus
}

// CreateRequest carries everything needed to create an instance.
type CreateRequest struct {
	Name      string
	Region    string
	Size      string
	SSHKeyID  string
	PublicKey string
	Tags      []string
}

// Capacity reports how many more instances the account can create. Not
// every provider exposes an account limit; Known is false in that case.
type Capacity struct {
	Remaining int
	Known     bool
}

// Provider is the capability surface the orchestrator drives.
type Provider interface {
	// Name returns the provider's registry identifier, e.g. "linode".
	Name() string

	ListRegions(ctx context.Context) ([]Region, error)

	// RecommendedSizes returns the provider plans backing the portable
	// size names, in menu order.
	RecommendedSizes() []SizeOption

	// EnsureSSHKey registers publicKey under name unless a key with
	// identical material already exists, and returns the provider's
	// identifier for it. Registering the same material twice never
	// errors.
	EnsureSSHKey(ctx context.Context, name, publicKey string) (string, error)

	CreateServer(ctx context.Context, req CreateRequest) (*Server, error)

	// WaitForActiveIP polls until the instance is running with a public
	// IPv4 address and returns it. The wait is bounded; expiry yields
	// ErrProvisioningTimeout.
	WaitForActiveIP(ctx context.Context, id string) (string, error)

	// DeleteServer removes the instance. Deleting an instance the
	// provider no longer knows about succeeds.
	DeleteServer(ctx context.Context, id string) error

	CapacityRemaining(ctx context.Context) (Capacity, error)
}

// RetryTransient runs op with exponential backoff. Quota rejections,
// invalid requests, bad credentials and missing resources are final;
// only transient failures are retried.
func RetryTransient(ctx context.Context, op func() error) error {
	return retry.WithExponentialBackoff(ctx, func() error {
		err := op()
		if err == nil {
			return nil
		}
		if IsQuotaExceeded(err) || IsRejected(err) || IsNotFound(err) || IsAuthenticationFailed(err) {
			return retry.Fatal(err)
		}
		return err
	}, retry.WithMaxRetries(3))
}

// Poll calls fn at the given interval until it reports done, returning
// the final value. The wait is bounded by timeout; expiry yields
// ErrProvisioningTimeout wrapped with what.
func Poll[T any](ctx context.Context, timeout, interval time.Duration, what string, fn func(context.Context) (T, bool, error)) (T, error) {
	var zero T

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		v, done, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		if done {
			return v, nil
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-deadline.C:
			return zero, fmt.Errorf("%s after %s: %w", what, timeout, ErrProvisioningTimeout)
		case <-tick.C:
		}
	}
}
