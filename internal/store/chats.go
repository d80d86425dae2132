package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/id"
)

// Defaults applied to new chats.
const (
	DefaultChatTitle = "New chat"
	DefaultThinking  = daemon.ThinkingLow
	DefaultWorker    = "default"
)

const chatColumns = `id, title, session_id, created_at, updated_at, agent_id, thinking, worker`

// ListChats returns a profile's chats, newest first. An unknown profile has
// no chats.
func (s *Store) ListChats(ctx context.Context, profileID string) (*daemon.ChatIndex, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE profile_id = ? ORDER BY position DESC`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ix := &daemon.ChatIndex{Version: 1, Chats: []daemon.Chat{}}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		ix.Chats = append(ix.Chats, c)
	}
	return ix, rows.Err()
}

// CreateChat inserts a chat at the top of the profile's index. A nil title
// becomes DefaultChatTitle.
func (s *Store) CreateChat(ctx context.Context, profileID string, title *string) (*daemon.Chat, error) {
	if err := s.ProfileExists(ctx, profileID); err != nil {
		return nil, err
	}
	t := DefaultChatTitle
	if title != nil {
		t = *title
	}
	now := s.now()
	cid := id.New(id.ChatPrefix)
	c := daemon.Chat{
		ID:        cid,
		Title:     t,
		SessionID: id.Session(cid),
		CreatedAt: now,
		UpdatedAt: now,
		Thinking:  DefaultThinking,
		Worker:    DefaultWorker,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, profile_id, title, session_id, created_at, updated_at, agent_id, thinking, worker, position)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM chats WHERE profile_id = ?))`,
		c.ID, profileID, c.Title, c.SessionID, toMillis(now), toMillis(now), string(c.Thinking), c.Worker, profileID)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	return &c, nil
}

// RenameChat retitles a chat and returns the index.
func (s *Store) RenameChat(ctx context.Context, profileID, chatID, title string) (*daemon.ChatIndex, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ? AND profile_id = ?`,
		title, toMillis(s.now()), chatID, profileID)
	if err != nil {
		return nil, err
	}
	if err := expectRow(res, "chat", chatID); err != nil {
		return nil, err
	}
	return s.ListChats(ctx, profileID)
}

// UpdateChat applies a partial settings update. Nil fields are unchanged and
// empty strings clear the field.
func (s *Store) UpdateChat(ctx context.Context, profileID, chatID string, u daemon.ChatSettingsUpdate) (*daemon.ChatIndex, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(s.now())}
	if u.Thinking != nil {
		sets = append(sets, "thinking = ?")
		args = append(args, nullString(strings.TrimSpace(string(*u.Thinking))))
	}
	if u.AgentID != nil {
		sets = append(sets, "agent_id = ?")
		args = append(args, nullString(strings.TrimSpace(*u.AgentID)))
	}
	if u.Worker != nil {
		sets = append(sets, "worker = ?")
		args = append(args, nullString(strings.TrimSpace(*u.Worker)))
	}
	args = append(args, chatID, profileID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET `+strings.Join(sets, ", ")+` WHERE id = ? AND profile_id = ?`, args...)
	if err != nil {
		return nil, err
	}
	if err := expectRow(res, "chat", chatID); err != nil {
		return nil, err
	}
	return s.ListChats(ctx, profileID)
}

// DeleteChat removes a chat and its thread. Deleting an unknown chat is not
// an error.
func (s *Store) DeleteChat(ctx context.Context, profileID, chatID string) (*daemon.ChatIndex, error) {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ? AND profile_id = ?`, chatID, profileID)
	if err != nil {
		return nil, err
	}
	return s.ListChats(ctx, profileID)
}

// Chat returns one chat.
func (s *Store) Chat(ctx context.Context, profileID, chatID string) (daemon.Chat, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE id = ? AND profile_id = ?`, chatID, profileID)
	c, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return daemon.Chat{}, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	return c, err
}

// Thread returns a chat's messages in order.
func (s *Store) Thread(ctx context.Context, profileID, chatID string) (*daemon.ChatThread, error) {
	if _, err := s.Chat(ctx, profileID, chatID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, text, created_at FROM messages WHERE chat_id = ? ORDER BY seq`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := &daemon.ChatThread{Version: 1, ChatID: chatID, Messages: []daemon.ChatMessage{}}
	for rows.Next() {
		var m daemon.ChatMessage
		var role string
		var created int64
		if err := rows.Scan(&m.ID, &role, &m.Text, &created); err != nil {
			return nil, err
		}
		m.Role = daemon.Role(role)
		m.CreatedAt = fromMillis(created)
		t.Messages = append(t.Messages, m)
	}
	return t, rows.Err()
}

// AppendMessage commits a message to the end of a chat's thread and bumps the
// chat's updated time.
func (s *Store) AppendMessage(ctx context.Context, profileID, chatID string, role daemon.Role, text string) (daemon.ChatMessage, error) {
	now := s.now()
	m := daemon.ChatMessage{ID: id.New(id.MessagePrefix), Role: role, Text: text, CreatedAt: now}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE chats SET updated_at = ? WHERE id = ? AND profile_id = ?`, toMillis(now), chatID, profileID)
		if err != nil {
			return err
		}
		if err := expectRow(res, "chat", chatID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, seq, role, text, created_at)
			VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE chat_id = ?), ?, ?, ?)`,
			m.ID, chatID, chatID, string(role), text, toMillis(now))
		return err
	})
	if err != nil {
		return daemon.ChatMessage{}, err
	}
	return m, nil
}

// ResetThread deletes every message of a chat and returns the empty thread.
func (s *Store) ResetThread(ctx context.Context, profileID, chatID string) (*daemon.ChatThread, error) {
	if _, err := s.Chat(ctx, profileID, chatID); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return nil, err
	}
	return &daemon.ChatThread{Version: 1, ChatID: chatID, Messages: []daemon.ChatMessage{}}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChat(sc scanner) (daemon.Chat, error) {
	var c daemon.Chat
	var created, updated int64
	var agent, thinking, worker sql.NullString
	if err := sc.Scan(&c.ID, &c.Title, &c.SessionID, &created, &updated, &agent, &thinking, &worker); err != nil {
		return daemon.Chat{}, err
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	c.AgentID = agent.String
	c.Thinking = daemon.ThinkingLevel(thinking.String)
	c.Worker = worker.String
	return c, nil
}
