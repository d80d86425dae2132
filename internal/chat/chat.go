// Package chat mirrors the chat index and active thread of the active profile.
//
// The index and thread are replaced wholesale from boundary responses. Thread
// reads carry a selection ticket: a read that settles after a newer selection
// (or a send) has superseded it is discarded, so the displayed thread always
// belongs to the last selected chat regardless of arrival order.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/event"
)

// Errors returned by Manager operations.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrEmptyTitle   = errors.New("chat title is empty")
	ErrNoProfile    = errors.New("no active profile")
	ErrNoChat       = errors.New("no active chat")
)

// AssistantError is returned by Send when the agent reply carries the error
// marker. The reply is already committed to the thread.
type AssistantError struct {
	MessageID string
	Text      string
}

func (e *AssistantError) Error() string {
	return strings.TrimSpace(strings.TrimPrefix(e.Text, daemon.ErrorMarker))
}

// View is a snapshot of the manager's state.
type View struct {
	ProfileID    string
	Chats        []daemon.Chat
	ActiveChatID string
	// Thread is nil until the active chat's thread has loaded.
	Thread *daemon.ChatThread
	Draft  string
}

// ActiveChat returns the selected chat.
func (v View) ActiveChat() (daemon.Chat, bool) {
	if v.ActiveChatID == "" {
		return daemon.Chat{}, false
	}
	for _, c := range v.Chats {
		if c.ID == v.ActiveChatID {
			return c, true
		}
	}
	return daemon.Chat{}, false
}

// Manager is the chat session mirror.
type Manager struct {
	svc daemon.ChatService

	mu sync.Mutex
	// +checklocks:mu
	profileID string
	// +checklocks:mu
	chats []daemon.Chat
	// +checklocks:mu
	activeID string
	// +checklocks:mu
	thread *daemon.ChatThread
	// +checklocks:mu
	draft string
	// ticket is bumped by every selection and every applied send. A thread
	// read applies only if the ticket it took is still current.
	// +checklocks:mu
	ticket uint64

	changes event.Emitter[View]
}

// NewManager returns a manager with no profile.
func NewManager(svc daemon.ChatService) *Manager {
	return &Manager{svc: svc}
}

// View returns a snapshot.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// +checklocks:m.mu
func (m *Manager) viewLocked() View {
	v := View{
		ProfileID:    m.profileID,
		Chats:        append([]daemon.Chat(nil), m.chats...),
		ActiveChatID: m.activeID,
		Draft:        m.draft,
	}
	if m.thread != nil {
		th := *m.thread
		th.Messages = append([]daemon.ChatMessage(nil), th.Messages...)
		v.Thread = &th
	}
	return v
}

// Subscribe registers fn for every state change.
func (m *Manager) Subscribe(fn func(View)) (unsubscribe func()) {
	return m.changes.Subscribe(fn)
}

func (m *Manager) notify() {
	m.changes.Emit(m.View())
}

// Draft returns the composer text.
func (m *Manager) Draft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// SetDraft replaces the composer text.
func (m *Manager) SetDraft(text string) {
	m.mu.Lock()
	m.draft = text
	m.mu.Unlock()
	m.notify()
}

// SetProfile switches to profileID and re-fetches its chat index.
// Switching profiles drops the selection and invalidates in-flight reads.
func (m *Manager) SetProfile(ctx context.Context, profileID string) error {
	m.mu.Lock()
	if m.profileID != profileID {
		m.profileID = profileID
		m.chats = nil
		m.activeID = ""
		m.thread = nil
		m.ticket++
	}
	m.mu.Unlock()
	m.notify()

	if profileID == "" {
		return nil
	}
	return m.ListChats(ctx)
}

// ListChats re-fetches the index. If no chat is selected, or the selected
// chat vanished, the first chat in index order is selected.
func (m *Manager) ListChats(ctx context.Context) error {
	pid, err := m.requireProfile()
	if err != nil {
		return err
	}
	slog.Debug("chats call", "op", "list", "profile", pid)
	ix, err := m.svc.ListChats(ctx, pid)
	if err != nil {
		slog.Warn("chats call failed", "op", "list", "error", err)
		return err
	}
	return m.applyIndex(ctx, pid, ix, "")
}

// CreateChat creates a chat, re-lists and selects it.
func (m *Manager) CreateChat(ctx context.Context, title *string) (daemon.Chat, error) {
	pid, err := m.requireProfile()
	if err != nil {
		return daemon.Chat{}, err
	}
	slog.Debug("chats call", "op", "create", "profile", pid)
	c, err := m.svc.CreateChat(ctx, pid, title)
	if err != nil {
		slog.Warn("chats call failed", "op", "create", "error", err)
		return daemon.Chat{}, err
	}
	ix, err := m.svc.ListChats(ctx, pid)
	if err != nil {
		slog.Warn("chats call failed", "op", "list", "error", err)
		return *c, err
	}
	return *c, m.applyIndex(ctx, pid, ix, c.ID)
}

// RenameChat sets a chat's title. Blank titles are rejected locally.
func (m *Manager) RenameChat(ctx context.Context, chatID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	pid, err := m.requireProfile()
	if err != nil {
		return err
	}
	slog.Debug("chats call", "op", "rename", "chat", chatID)
	ix, err := m.svc.RenameChat(ctx, pid, chatID, title)
	if err != nil {
		slog.Warn("chats call failed", "op", "rename", "error", err)
		return err
	}
	return m.applyIndex(ctx, pid, ix, "")
}

// DeleteChat removes a chat. If it was selected, the first remaining chat
// is selected, or none.
func (m *Manager) DeleteChat(ctx context.Context, chatID string) error {
	pid, err := m.requireProfile()
	if err != nil {
		return err
	}
	slog.Debug("chats call", "op", "delete", "chat", chatID)
	ix, err := m.svc.DeleteChat(ctx, pid, chatID)
	if err != nil {
		slog.Warn("chats call failed", "op", "delete", "error", err)
		return err
	}
	return m.applyIndex(ctx, pid, ix, "")
}

// UpdateChatSettings applies a partial settings update to a chat.
func (m *Manager) UpdateChatSettings(ctx context.Context, chatID string, update daemon.ChatSettingsUpdate) error {
	if update.Empty() {
		return nil
	}
	if update.Thinking != nil && *update.Thinking != "" && !update.Thinking.Valid() {
		return fmt.Errorf("invalid thinking level %q", *update.Thinking)
	}
	pid, err := m.requireProfile()
	if err != nil {
		return err
	}
	slog.Debug("chats call", "op", "update", "chat", chatID)
	ix, err := m.svc.UpdateChat(ctx, pid, chatID, update)
	if err != nil {
		slog.Warn("chats call failed", "op", "update", "error", err)
		return err
	}
	return m.applyIndex(ctx, pid, ix, "")
}

// Select makes chatID active and fetches its thread. Reads are not
// serialized by the busy lock, so a slower earlier fetch is discarded.
func (m *Manager) Select(ctx context.Context, chatID string) error {
	m.mu.Lock()
	if m.profileID == "" {
		m.mu.Unlock()
		return ErrNoProfile
	}
	pid, ticket := m.selectLocked(chatID)
	m.mu.Unlock()
	m.notify()

	if chatID == "" {
		return nil
	}
	return m.load(ctx, pid, chatID, ticket)
}

// FetchThread re-reads the active chat's thread.
func (m *Manager) FetchThread(ctx context.Context) error {
	m.mu.Lock()
	if m.profileID == "" {
		m.mu.Unlock()
		return ErrNoProfile
	}
	if m.activeID == "" {
		m.mu.Unlock()
		return ErrNoChat
	}
	m.ticket++
	pid, chatID, ticket := m.profileID, m.activeID, m.ticket
	m.mu.Unlock()

	return m.load(ctx, pid, chatID, ticket)
}

// Send posts text to the active chat. The draft is cleared before the call;
// the thread is taken from the response only. A reply carrying the error
// marker is committed and reported as *AssistantError.
func (m *Manager) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	m.mu.Lock()
	if m.profileID == "" {
		m.mu.Unlock()
		return ErrNoProfile
	}
	if m.activeID == "" {
		m.mu.Unlock()
		return ErrNoChat
	}
	pid, chatID := m.profileID, m.activeID
	m.draft = ""
	m.mu.Unlock()
	m.notify()

	slog.Debug("chats call", "op", "send", "chat", chatID)
	res, err := m.svc.SendChat(ctx, pid, chatID, text)
	if err != nil {
		slog.Warn("chats call failed", "op", "send", "error", err)
		return err
	}

	m.mu.Lock()
	applied := m.profileID == pid && m.activeID == chatID
	if applied {
		th := res.Thread
		m.thread = &th
		m.ticket++
	}
	m.mu.Unlock()
	if applied {
		m.notify()
	} else {
		slog.Debug("send settled after selection changed; thread not shown", "chat", chatID)
	}

	// The send bumps the chat's updated time; refresh titles and order.
	if ix, err := m.svc.ListChats(ctx, pid); err != nil {
		slog.Warn("chats refresh after send failed", "error", err)
	} else if err := m.applyIndex(ctx, pid, ix, ""); err != nil {
		slog.Warn("chats refresh after send failed", "error", err)
	}

	if last, ok := res.Thread.Last(); ok && last.IsError() {
		return &AssistantError{MessageID: last.ID, Text: last.Text}
	}
	return nil
}

// Reset clears the active chat's messages.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	pid, chatID := m.profileID, m.activeID
	m.mu.Unlock()
	if pid == "" {
		return ErrNoProfile
	}
	if chatID == "" {
		return ErrNoChat
	}

	slog.Debug("chats call", "op", "reset", "chat", chatID)
	th, err := m.svc.ResetChat(ctx, pid, chatID)
	if err != nil {
		slog.Warn("chats call failed", "op", "reset", "error", err)
		return err
	}

	m.mu.Lock()
	applied := m.profileID == pid && m.activeID == chatID
	if applied {
		m.thread = th
		m.ticket++
	}
	m.mu.Unlock()
	if applied {
		m.notify()
	}
	return nil
}

func (m *Manager) requireProfile() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileID == "" {
		return "", ErrNoProfile
	}
	return m.profileID, nil
}

// +checklocks:m.mu
func (m *Manager) selectLocked(chatID string) (profileID string, ticket uint64) {
	m.activeID = chatID
	m.thread = nil
	m.ticket++
	return m.profileID, m.ticket
}

// applyIndex swaps in ix for profile pid and fixes up the selection.
// If want is set, it is selected. Otherwise the current selection is kept
// when still present, or the first chat is selected.
func (m *Manager) applyIndex(ctx context.Context, pid string, ix *daemon.ChatIndex, want string) error {
	m.mu.Lock()
	if m.profileID != pid {
		m.mu.Unlock()
		slog.Debug("chat index for previous profile dropped", "profile", pid)
		return nil
	}
	m.chats = append([]daemon.Chat(nil), ix.Chats...)

	target := m.activeID
	switch {
	case want != "":
		target = want
	case target != "":
		if _, ok := ix.Find(target); !ok {
			target = ""
		}
	}
	if target == "" && len(m.chats) > 0 {
		target = m.chats[0].ID
	}

	if target == m.activeID && (target == "" || m.thread != nil) {
		m.mu.Unlock()
		m.notify()
		return nil
	}
	_, ticket := m.selectLocked(target)
	m.mu.Unlock()
	m.notify()

	if target == "" {
		return nil
	}
	return m.load(ctx, pid, target, ticket)
}

// load fetches a thread and applies it only if ticket is still current.
// A superseded read is dropped, including its error.
func (m *Manager) load(ctx context.Context, pid, chatID string, ticket uint64) error {
	slog.Debug("chats call", "op", "thread", "chat", chatID)
	th, err := m.svc.ChatThread(ctx, pid, chatID)

	m.mu.Lock()
	if m.ticket != ticket || m.profileID != pid || m.activeID != chatID {
		m.mu.Unlock()
		slog.Debug("stale thread read dropped", "chat", chatID)
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		slog.Warn("chats call failed", "op", "thread", "error", err)
		return err
	}
	m.thread = th
	m.mu.Unlock()

	m.notify()
	return nil
}
