package provisioning

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imamik/srcdsctl/internal/platform/cloud"
	"github.com/imamik/srcdsctl/internal/registry"
	"github.com/imamik/srcdsctl/internal/util/async"
)

// BulkRequest asks for a numbered series of identical instances.
type BulkRequest struct {
	Prefix   string
	Count    int
	Region   string
	Size     string
	StartMap string
}

// BulkResult reports what a bulk create achieved. Created lists every
// instance that got a machine; Failed maps instance names to the error
// that stopped them.
type BulkResult struct {
	BatchID   string
	Requested int
	Planned   int
	Created   []string
	Ready     []string
	Failed    map[string]error
}

// BulkCreate provisions count instances named prefix-NN. Machines are
// created sequentially with a fixed pacing delay so the provider sees a
// steady stream; the slow stages that follow run concurrently, one task
// per instance. A quota rejection stops further creates but never
// abandons machines that already exist.
func (p *Provisioner) BulkCreate(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("instance count must be positive, got %d", req.Count)
	}
	if req.Prefix == "" {
		return nil, fmt.Errorf("name prefix is required")
	}

	batchID := uuid.NewString()
	bp := p.withObserver(p.observer.WithFields(map[string]string{"batch": batchID}))

	result := &BulkResult{
		BatchID:   batchID,
		Requested: req.Count,
		Planned:   req.Count,
		Failed:    map[string]error{},
	}

	// Capacity gate. The probe is advisory: a probe failure downgrades
	// to a warning rather than blocking the request.
	capacity, err := p.provider.CapacityRemaining(ctx)
	switch {
	case err != nil:
		bp.publish(Event{Type: EventWarning, Err: err, Message: "capacity check failed, continuing"})
	case capacity.Known && capacity.Remaining <= 0:
		return nil, fmt.Errorf("account has no capacity for new %s instances", p.provider.Name())
	case capacity.Known && capacity.Remaining < req.Count:
		result.Planned = capacity.Remaining
		bp.publish(Event{Type: EventWarning, Message: fmt.Sprintf("capacity allows %d of %d requested instances", capacity.Remaining, req.Count)})
	}

	names, err := p.store.NextNames(req.Prefix, result.Planned)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		bp.publish(Event{Type: EventPhaseStarted, Instance: name, Phase: registry.PhaseRequested, Message: "queued"})
	}

	created := make([]*registry.Instance, 0, len(names))
	for i, name := range names {
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(p.timeouts.CreatePacing):
			}
		}
		inst, err := bp.createInstance(ctx, InstanceSpec{
			Name:     name,
			Region:   req.Region,
			Size:     req.Size,
			StartMap: req.StartMap,
		})
		if err != nil {
			result.Failed[name] = err
			if cloud.IsQuotaExceeded(err) || cloud.IsAuthenticationFailed(err) {
				bp.publish(Event{Type: EventWarning, Err: err, Message: fmt.Sprintf("stopping after %d of %d creates", len(created), len(names))})
				break
			}
			continue
		}
		created = append(created, inst)
		result.Created = append(result.Created, inst.Name)
	}
	if len(created) == 0 {
		for _, name := range names {
			if err, ok := result.Failed[name]; ok {
				return result, err
			}
		}
		return result, fmt.Errorf("no instances created")
	}

	var mu sync.Mutex
	tasks := make([]async.Task, len(created))
	for i, inst := range created {
		tasks[i] = async.Task{
			Name: inst.Name,
			Func: func(ctx context.Context) error {
				if err := bp.finish(ctx, inst.ID); err != nil {
					mu.Lock()
					result.Failed[inst.Name] = err
					mu.Unlock()
					return err
				}
				mu.Lock()
				result.Ready = append(result.Ready, inst.Name)
				mu.Unlock()
				return nil
			},
		}
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		bp.publish(Event{Type: EventWarning, Err: err, Message: fmt.Sprintf("%d of %d created instances failed to provision", len(created)-len(result.Ready), len(created))})
	}

	sort.Strings(result.Ready)
	return result, nil
}
