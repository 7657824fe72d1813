// Package registry persists the set of managed game servers as a single
// JSON snapshot on disk. Every mutation rewrites the snapshot through a
// temporary file so readers never observe a torn state, and a process
// crash leaves either the old or the new snapshot in place.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/imamik/srcdsctl/internal/util/naming"
)

const snapshotVersion = 1

// ErrInstanceNotFound is returned when a lookup misses.
var ErrInstanceNotFound = errors.New("instance not found")

// ErrNameInUse is returned when an insert would duplicate a name.
var ErrNameInUse = errors.New("instance name already in use")

// Phase is the lifecycle stage of one instance. Phases are recorded
// durably before the work of the phase begins, so an interrupted run
// can be resumed from the snapshot.
type Phase string

const (
	PhaseRequested       Phase = "requested"
	PhaseCreating        Phase = "creating"
	PhaseAwaitingAddress Phase = "awaiting-address"
	PhaseBootstrapping   Phase = "bootstrapping"
	PhaseApplyingOverlay Phase = "applying-overlay"
	PhaseReady           Phase = "ready"
	PhaseFailed          Phase = "failed"
	PhaseDeleting        Phase = "deleting"
)

// Secrets holds the generated credentials of one game server.
type Secrets struct {
	ServerPassword    string `json:"server_password"`
	RCONPassword      string `json:"rcon_password"`
	SpectatorPassword string `json:"spectator_password"`
}

// Instance is one managed game server.
type Instance struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Region    string    `json:"region"`
	Size      string    `json:"size"`
	PublicIP  string    `json:"ip,omitempty"`
	Secrets   Secrets   `json:"secrets"`
	StartMap  string    `json:"start_map,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Phase       Phase  `json:"phase"`
	FailedPhase Phase  `json:"failed_phase,omitempty"`
	LastError   string `json:"last_error,omitempty"`
	SetupLog    string `json:"setup_log,omitempty"`
}

type snapshot struct {
	Version   int                 `json:"version"`
	Instances map[string]Instance `json:"instances"`
}

// Store reads and writes the registry snapshot. All operations are
// serialized through a single mutex; each one reloads the file, applies
// its change and writes the result back.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store backed by the snapshot file at path. The
// file does not need to exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// load reads the snapshot. A missing file yields an empty registry;
// anything else that fails to parse is an error, never a silent reset.
// Callers must hold s.mu.
func (s *Store) load() (*snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &snapshot{Version: snapshotVersion, Instances: map[string]Instance{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", s.path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", s.path, err)
	}
	if snap.Version > snapshotVersion {
		return nil, fmt.Errorf("registry %s has snapshot version %d, this build supports up to %d",
			s.path, snap.Version, snapshotVersion)
	}
	if snap.Instances == nil {
		snap.Instances = map[string]Instance{}
	}
	return &snap, nil
}

// save atomically replaces the snapshot file. The data is written to a
// sibling temporary file, synced, closed and renamed into place.
// Callers must hold s.mu.
func (s *Store) save(snap *snapshot) error {
	snap.Version = snapshotVersion

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary registry file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temporary registry file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("syncing temporary registry file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temporary registry file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing registry file: %w", err)
	}

	// Sync the directory so the rename survives power loss.
	if dir, err := os.Open(filepath.Dir(s.path)); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return nil
}

// List returns all instances ordered by creation time, then name.
func (s *Store) List() ([]Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	instances := make([]Instance, 0, len(snap.Instances))
	for _, inst := range snap.Instances {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool {
		if !instances[i].CreatedAt.Equal(instances[j].CreatedAt) {
			return instances[i].CreatedAt.Before(instances[j].CreatedAt)
		}
		return instances[i].Name < instances[j].Name
	})
	return instances, nil
}

// Get returns the instance with the given provider ID.
func (s *Store) Get(id string) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	inst, ok := snap.Instances[id]
	if !ok {
		return nil, fmt.Errorf("instance %s: %w", id, ErrInstanceNotFound)
	}
	return &inst, nil
}

// GetByName returns the instance with the given display name.
func (s *Store) GetByName(name string) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, inst := range snap.Instances {
		if inst.Name == name {
			return &inst, nil
		}
	}
	return nil, fmt.Errorf("instance %q: %w", name, ErrInstanceNotFound)
}

// Insert adds a new instance. Names must be unique across all tracked
// instances regardless of provider.
func (s *Store) Insert(inst Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := snap.Instances[inst.ID]; ok {
		return fmt.Errorf("instance id %s already registered", inst.ID)
	}
	for _, existing := range snap.Instances {
		if existing.Name == inst.Name {
			return fmt.Errorf("%q is taken by instance %s: %w", inst.Name, existing.ID, ErrNameInUse)
		}
	}

	snap.Instances[inst.ID] = inst
	return s.save(snap)
}

// Update applies fn to the stored instance and persists the result. If
// fn returns an error nothing is written.
func (s *Store) Update(id string, fn func(*Instance) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return err
	}
	inst, ok := snap.Instances[id]
	if !ok {
		return fmt.Errorf("instance %s: %w", id, ErrInstanceNotFound)
	}
	if err := fn(&inst); err != nil {
		return err
	}

	snap.Instances[id] = inst
	return s.save(snap)
}

// Remove deletes an instance from the registry.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := snap.Instances[id]; !ok {
		return fmt.Errorf("instance %s: %w", id, ErrInstanceNotFound)
	}

	delete(snap.Instances, id)
	return s.save(snap)
}

// NextNames returns n fresh display names continuing the numbered
// series for prefix past the highest existing index.
func (s *Store) NextNames(prefix string, n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	start := 1
	for _, inst := range snap.Instances {
		suffix, ok := strings.CutPrefix(inst.Name, prefix+"-")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(suffix)
		if err != nil || idx < 0 {
			continue
		}
		if idx+1 > start {
			start = idx + 1
		}
	}
	return naming.Series(prefix, start, n), nil
}
