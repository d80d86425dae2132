// Package secrets stores per-profile secrets in the OS keychain, or in an
// encrypted file store when no keychain is available.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ServicePrefix namespaces keychain entries per profile.
const ServicePrefix = "openclaw-desktop:"

// EnvPassword supplies the file backend passphrase.
const EnvPassword = "OCD_KEYRING_PASSWORD"

// ErrNoPassword is returned when the file backend has no passphrase.
var ErrNoPassword = errors.New("file keyring needs a password (set " + EnvPassword + ")")

// Options selects the keyring backend.
type Options struct {
	// Backend is "" for the platform default or "file".
	Backend string
	// FileDir is where the file backend keeps its entries.
	FileDir string
	// Password unlocks the file backend. Defaults to reading EnvPassword.
	Password keyring.PromptFunc
}

// Store reads and writes secrets. Each profile maps to its own keyring service.
type Store struct {
	opts Options

	mu sync.Mutex
	// +checklocks:mu
	rings map[string]keyring.Keyring
}

// New returns a Store. Keyrings are opened lazily per profile.
func New(opts Options) *Store {
	if opts.Password == nil {
		opts.Password = func(string) (string, error) {
			if pw := os.Getenv(EnvPassword); pw != "" {
				return pw, nil
			}
			return "", ErrNoPassword
		}
	}
	return &Store{opts: opts, rings: make(map[string]keyring.Keyring)}
}

// Service returns the keyring service name for a profile.
func Service(profileID string) string {
	return ServicePrefix + profileID
}

func (s *Store) ring(profileID string) (keyring.Keyring, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rings[profileID]; ok {
		return r, nil
	}

	service := Service(profileID)
	cfg := keyring.Config{
		ServiceName:      service,
		FilePasswordFunc: s.opts.Password,
	}
	if s.opts.Backend == "file" {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	if s.opts.FileDir != "" {
		cfg.FileDir = filepath.Join(s.opts.FileDir, safeName(service))
	}

	r, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring %s: %w", service, err)
	}
	s.rings[profileID] = r
	return r, nil
}

// Set stores value under key for a profile.
func (s *Store) Set(_ context.Context, profileID, key, value string) error {
	r, err := s.ring(profileID)
	if err != nil {
		return err
	}
	return r.Set(keyring.Item{Key: key, Data: []byte(value), Label: Service(profileID) + " " + key})
}

// Get returns the stored value, or nil if there is none.
func (s *Store) Get(_ context.Context, profileID, key string) (*string, error) {
	r, err := s.ring(profileID)
	if err != nil {
		return nil, err
	}
	item, err := r.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v := string(item.Data)
	return &v, nil
}

// Delete removes a secret. Deleting a missing secret succeeds.
func (s *Store) Delete(_ context.Context, profileID, key string) error {
	r, err := s.ring(profileID)
	if err != nil {
		return err
	}
	err = r.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// safeName maps a service name onto a directory name.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, s)
}
