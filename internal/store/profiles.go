package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/id"
)

// Profiles returns the profile collection, creating the Default profile first
// if the collection is empty.
func (s *Store) Profiles(ctx context.Context) (*daemon.ProfilesStore, error) {
	var out *daemon.ProfilesStore
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureDefault(ctx, tx); err != nil {
			return err
		}
		var err error
		out, err = loadProfiles(ctx, tx)
		return err
	})
	return out, err
}

// CreateProfile appends a profile and makes it active.
func (s *Store) CreateProfile(ctx context.Context, name string) (*daemon.ProfilesStore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.mutateProfiles(ctx, func(tx *sql.Tx) error {
		pid := id.New(id.ProfilePrefix)
		if err := insertProfile(ctx, tx, pid, name, s.now()); err != nil {
			return err
		}
		return setActive(ctx, tx, pid)
	})
}

// SetActiveProfile selects an existing profile.
func (s *Store) SetActiveProfile(ctx context.Context, profileID string) (*daemon.ProfilesStore, error) {
	return s.mutateProfiles(ctx, func(tx *sql.Tx) error {
		if err := profileExists(ctx, tx, profileID); err != nil {
			return err
		}
		return setActive(ctx, tx, profileID)
	})
}

// RenameProfile changes a profile's name.
func (s *Store) RenameProfile(ctx context.Context, profileID, name string) (*daemon.ProfilesStore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.mutateProfiles(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE profiles SET name = ? WHERE id = ?`, name, profileID)
		if err != nil {
			return err
		}
		return expectRow(res, "profile", profileID)
	})
}

// DeleteProfile removes a profile with its chats and settings. The last
// profile cannot be deleted. Deleting the active profile activates the first
// remaining one.
func (s *Store) DeleteProfile(ctx context.Context, profileID string) (*daemon.ProfilesStore, error) {
	return s.mutateProfiles(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
			return err
		}
		if n <= 1 {
			return ErrLastProfile
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, profileID); err != nil {
			return err
		}

		active, err := activeID(ctx, tx)
		if err != nil {
			return err
		}
		if active != profileID {
			return nil
		}
		var first string
		err = tx.QueryRowContext(ctx, `SELECT id FROM profiles ORDER BY position LIMIT 1`).Scan(&first)
		if err != nil {
			return err
		}
		return setActive(ctx, tx, first)
	})
}

// ProfileExists returns ErrNotFound if no profile has id.
func (s *Store) ProfileExists(ctx context.Context, profileID string) error {
	return profileExists(ctx, s.db, profileID)
}

func (s *Store) mutateProfiles(ctx context.Context, fn func(tx *sql.Tx) error) (*daemon.ProfilesStore, error) {
	var out *daemon.ProfilesStore
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureDefault(ctx, tx); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		out, err = loadProfiles(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ensureDefault(ctx context.Context, tx *sql.Tx) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	pid := id.New(id.ProfilePrefix)
	if err := insertProfile(ctx, tx, pid, DefaultProfileName, s.now()); err != nil {
		return err
	}
	return setActive(ctx, tx, pid)
}

func insertProfile(ctx context.Context, tx *sql.Tx, pid, name string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, created_at, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM profiles))`,
		pid, name, toMillis(now))
	return err
}

func setActive(ctx context.Context, tx *sql.Tx, pid string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		activeProfileKey, pid)
	return err
}

func activeID(ctx context.Context, tx *sql.Tx) (string, error) {
	var v string
	err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, activeProfileKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func profileExists(ctx context.Context, q queryer, pid string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE id = ?`, pid).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("profile %s: %w", pid, ErrNotFound)
	}
	return err
}

func loadProfiles(ctx context.Context, tx *sql.Tx) (*daemon.ProfilesStore, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, created_at FROM profiles ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &daemon.ProfilesStore{Version: 1, Profiles: []daemon.Profile{}}
	for rows.Next() {
		var p daemon.Profile
		var created int64
		if err := rows.Scan(&p.ID, &p.Name, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = fromMillis(created)
		out.Profiles = append(out.Profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	active, err := activeID(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, ok := out.Find(active); ok {
		out.ActiveProfileID = active
	}
	return out, nil
}

func expectRow(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, key, ErrNotFound)
	}
	return nil
}
