package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tessro/ocd/internal/daemon"
)

// Settings returns a profile's stored settings. Unset fields are nil; callers
// back-fill defaults.
func (s *Store) Settings(ctx context.Context, profileID string) (*daemon.ProfileSettings, error) {
	if err := s.ProfileExists(ctx, profileID); err != nil {
		return nil, err
	}
	var path, baseURL, model sql.NullString
	var devExec, autoDo sql.NullBool
	err := s.db.QueryRowContext(ctx, `
		SELECT openclaw_path, ollama_base_url, ollama_model, dev_full_exec_auto, auto_do_mode
		FROM settings WHERE profile_id = ?`, profileID).Scan(&path, &baseURL, &model, &devExec, &autoDo)
	if errors.Is(err, sql.ErrNoRows) {
		return &daemon.ProfileSettings{Version: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	out := &daemon.ProfileSettings{
		Version:       1,
		OpenclawPath:  stringPtr(path),
		OllamaBaseURL: stringPtr(baseURL),
		OllamaModel:   stringPtr(model),
	}
	out.DevFullExecAuto = boolPtr(devExec)
	out.AutoDoMode = boolPtr(autoDo)
	return out, nil
}

// UpdateSettings reads a profile's settings, applies fn and writes the result
// back.
func (s *Store) UpdateSettings(ctx context.Context, profileID string, fn func(*daemon.ProfileSettings)) (*daemon.ProfileSettings, error) {
	cur, err := s.Settings(ctx, profileID)
	if err != nil {
		return nil, err
	}
	fn(cur)
	cur.Version = 1

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (profile_id, openclaw_path, ollama_base_url, ollama_model, dev_full_exec_auto, auto_do_mode)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			openclaw_path = excluded.openclaw_path,
			ollama_base_url = excluded.ollama_base_url,
			ollama_model = excluded.ollama_model,
			dev_full_exec_auto = excluded.dev_full_exec_auto,
			auto_do_mode = excluded.auto_do_mode`,
		profileID, nullStringPtr(cur.OpenclawPath), nullStringPtr(cur.OllamaBaseURL),
		nullStringPtr(cur.OllamaModel), nullBoolPtr(cur.DevFullExecAuto), nullBoolPtr(cur.AutoDoMode))
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func boolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

func nullBoolPtr(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}
