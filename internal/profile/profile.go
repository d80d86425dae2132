// Package profile mirrors the profile collection held by the daemon.
//
// Every mutation is a boundary call whose response is the entire refreshed
// store, which replaces the mirror atomically. Nothing is predicted locally and
// a failed call leaves the mirror untouched.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tessro/ocd/internal/daemon"
)

// Errors returned by Store operations.
var (
	ErrEmptyName         = errors.New("profile name is empty")
	ErrLastProfile       = errors.New("cannot delete last profile")
	ErrNotFound          = errors.New("profile not found")
	ErrInconsistentStore = errors.New("inconsistent profile store")
)

// Store is the in-memory mirror of daemon.ProfilesStore.
type Store struct {
	svc daemon.ProfileService

	mu sync.RWMutex
	// +checklocks:mu
	state daemon.ProfilesStore
	// +checklocks:mu
	loaded bool
}

// NewStore returns an empty mirror backed by svc.
func NewStore(svc daemon.ProfileService) *Store {
	return &Store{svc: svc}
}

// List fetches the collection.
func (s *Store) List(ctx context.Context) (daemon.ProfilesStore, error) {
	return s.apply("list", func() (*daemon.ProfilesStore, error) {
		return s.svc.ListProfiles(ctx)
	})
}

// Create adds a profile. Blank names are rejected without a boundary call.
func (s *Store) Create(ctx context.Context, name string) (daemon.ProfilesStore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.Snapshot(), ErrEmptyName
	}
	return s.apply("create", func() (*daemon.ProfilesStore, error) {
		return s.svc.CreateProfile(ctx, name)
	})
}

// SetActive selects the active profile.
func (s *Store) SetActive(ctx context.Context, id string) (daemon.ProfilesStore, error) {
	return s.apply("set_active", func() (*daemon.ProfilesStore, error) {
		return s.svc.SetActiveProfile(ctx, id)
	})
}

// Rename changes a profile's name. Blank names are rejected locally.
func (s *Store) Rename(ctx context.Context, id, name string) (daemon.ProfilesStore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.Snapshot(), ErrEmptyName
	}
	return s.apply("rename", func() (*daemon.ProfilesStore, error) {
		return s.svc.RenameProfile(ctx, id, name)
	})
}

// Delete removes a profile. Deleting the only remaining profile is refused
// locally; the daemon enforces the same rule and may still refuse.
func (s *Store) Delete(ctx context.Context, id string) (daemon.ProfilesStore, error) {
	if !s.CanDelete() {
		return s.Snapshot(), ErrLastProfile
	}
	return s.apply("delete", func() (*daemon.ProfilesStore, error) {
		return s.svc.DeleteProfile(ctx, id)
	})
}

// apply runs call and swaps in the returned store if it is consistent.
func (s *Store) apply(op string, call func() (*daemon.ProfilesStore, error)) (daemon.ProfilesStore, error) {
	slog.Debug("profiles call", "op", op)
	next, err := call()
	if err != nil {
		slog.Warn("profiles call failed", "op", op, "error", err)
		return s.Snapshot(), err
	}
	if err := Validate(next); err != nil {
		slog.Warn("profiles call returned bad store", "op", op, "error", err)
		return s.Snapshot(), err
	}

	s.mu.Lock()
	s.state = next.Clone()
	s.loaded = true
	out := s.state.Clone()
	s.mu.Unlock()
	return out, nil
}

// Validate checks the store invariant: the active id is empty or names an
// existing profile. An empty collection is only valid before the first
// profile is created.
func Validate(ps *daemon.ProfilesStore) error {
	if ps == nil {
		return fmt.Errorf("%w: empty response", ErrInconsistentStore)
	}
	if ps.ActiveProfileID != "" {
		if _, ok := ps.Find(ps.ActiveProfileID); !ok {
			return fmt.Errorf("%w: active profile %q does not exist", ErrInconsistentStore, ps.ActiveProfileID)
		}
	}
	return nil
}

// Snapshot returns a copy of the mirror.
func (s *Store) Snapshot() daemon.ProfilesStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Loaded reports whether any call has succeeded yet.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// ActiveID returns the active profile id, or "".
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveProfileID
}

// Active returns the active profile.
func (s *Store) Active() (daemon.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Active()
}

// Get returns the profile with id.
func (s *Store) Get(id string) (daemon.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.Find(id)
	if !ok {
		return daemon.Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// CanDelete reports whether the delete affordance is enabled.
func (s *Store) CanDelete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Profiles) > 1
}
