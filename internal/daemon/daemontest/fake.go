// Package daemontest provides an in-memory daemon.Boundary for tests.
package daemontest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tessro/ocd/internal/daemon"
)

// Fake implements daemon.Boundary in memory.
//
// SetFail injects an error for a named operation (the daemon message type,
// e.g. "chats.rename"). Hook, if set, runs at the start of every call outside the
// lock, which lets tests block a call or interleave other calls with it.
type Fake struct {
	mu sync.Mutex

	Hook func(ctx context.Context, op daemon.MessageType, args ...string)

	// Reply overrides the assistant reply for SendChat. Defaults to "echo: <text>".
	Reply func(text string) string

	fail      map[daemon.MessageType]error
	calls     []string
	store     daemon.ProfilesStore
	chats     map[string][]daemon.Chat
	threads   map[string][]daemon.ChatMessage
	secrets   map[string]string
	settings  map[string]daemon.ProfileSettings
	autostart bool
	gateway   daemon.GatewayStatus
	logs      daemon.GatewayLogs
	model     string
	seq       int
	now       time.Time
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		fail:     make(map[daemon.MessageType]error),
		store:    daemon.ProfilesStore{Version: 1},
		chats:    make(map[string][]daemon.Chat),
		threads:  make(map[string][]daemon.ChatMessage),
		secrets:  make(map[string]string),
		settings: make(map[string]daemon.ProfileSettings),
		gateway:  daemon.GatewayStatus{ExitCode: 0, Stdout: "gateway: stopped"},
		now:      time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// SeedProfiles adds profiles named names; the first becomes active.
// It returns the new ids.
func (f *Fake) SeedProfiles(names ...string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(names))
	for _, n := range names {
		p := f.newProfileLocked(n)
		ids = append(ids, p.ID)
	}
	if f.store.ActiveProfileID == "" && len(ids) > 0 {
		f.store.ActiveProfileID = ids[0]
	}
	return ids
}

// SeedChat adds a chat with the given messages (alternating user and
// assistant) at the end of the profile's index. It returns the chat id.
func (f *Fake) SeedChat(profileID, title string, texts ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.newChatLocked(title)
	f.chats[profileID] = append(f.chats[profileID], c)
	for i, text := range texts {
		role := daemon.RoleUser
		if i%2 == 1 {
			role = daemon.RoleAssistant
		}
		f.appendLocked(c.ID, role, text)
	}
	return c.ID
}

// SetFail makes op fail with err. A nil err clears the failure.
func (f *Fake) SetFail(op daemon.MessageType, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// SetGateway sets the status returned by gateway calls and the log tail.
func (f *Fake) SetGateway(st daemon.GatewayStatus, logs daemon.GatewayLogs) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gateway = st
	f.logs = logs
}

// Calls returns the operations called so far, formatted "op arg1 arg2".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times op was called.
func (f *Fake) CallCount(op daemon.MessageType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	prefix := string(op)
	for _, c := range f.calls {
		if c == prefix || strings.HasPrefix(c, prefix+" ") {
			n++
		}
	}
	return n
}

// Secret returns the stored secret.
func (f *Fake) Secret(profileID, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.secrets[profileID+"/"+key]
	return v, ok
}

// begin records the call, runs the hook and returns the injected error.
func (f *Fake) begin(ctx context.Context, op daemon.MessageType, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, strings.TrimSpace(string(op)+" "+strings.Join(args, " ")))
	hook := f.Hook
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, op, args...)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[op]; err != nil {
		return daemon.NewServerError(string(op), err.Error())
	}
	return nil
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *Fake) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *Fake) newProfileLocked(name string) daemon.Profile {
	p := daemon.Profile{ID: f.nextID("p"), Name: name, CreatedAt: f.tick()}
	f.store.Profiles = append(f.store.Profiles, p)
	return p
}

func (f *Fake) newChatLocked(title string) daemon.Chat {
	id := f.nextID("c")
	now := f.tick()
	return daemon.Chat{
		ID:        id,
		Title:     title,
		SessionID: "desktop-" + id,
		CreatedAt: now,
		UpdatedAt: now,
		Thinking:  daemon.ThinkingLow,
		Worker:    "default",
	}
}

func (f *Fake) appendLocked(chatID string, role daemon.Role, text string) daemon.ChatMessage {
	m := daemon.ChatMessage{ID: f.nextID("m"), Role: role, Text: text, CreatedAt: f.tick()}
	f.threads[chatID] = append(f.threads[chatID], m)
	return m
}

func (f *Fake) storeLocked() *daemon.ProfilesStore {
	out := f.store.Clone()
	return &out
}

func (f *Fake) indexLocked(profileID string) *daemon.ChatIndex {
	return &daemon.ChatIndex{Version: 1, Chats: append([]daemon.Chat(nil), f.chats[profileID]...)}
}

func (f *Fake) threadLocked(chatID string) *daemon.ChatThread {
	return &daemon.ChatThread{Version: 1, ChatID: chatID, Messages: append([]daemon.ChatMessage(nil), f.threads[chatID]...)}
}

func (f *Fake) chatPosLocked(profileID, chatID string) (int, error) {
	for i, c := range f.chats[profileID] {
		if c.ID == chatID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("chat not found: %s", chatID)
}

// ListProfiles implements daemon.ProfileService.
func (f *Fake) ListProfiles(ctx context.Context) (*daemon.ProfilesStore, error) {
	if err := f.begin(ctx, daemon.MsgProfilesList); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storeLocked(), nil
}

// CreateProfile implements daemon.ProfileService. The new profile becomes active.
func (f *Fake) CreateProfile(ctx context.Context, name string) (*daemon.ProfilesStore, error) {
	if err := f.begin(ctx, daemon.MsgProfilesCreate, name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, daemon.NewServerError("profiles.create", "profile name is empty")
	}
	p := f.newProfileLocked(name)
	f.store.ActiveProfileID = p.ID
	return f.storeLocked(), nil
}

// SetActiveProfile implements daemon.ProfileService.
func (f *Fake) SetActiveProfile(ctx context.Context, profileID string) (*daemon.ProfilesStore, error) {
	if err := f.begin(ctx, daemon.MsgProfilesSetActive, profileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store.Find(profileID); !ok {
		return nil, daemon.NewServerError("profiles.set_active", "profile not found")
	}
	f.store.ActiveProfileID = profileID
	return f.storeLocked(), nil
}

// RenameProfile implements daemon.ProfileService.
func (f *Fake) RenameProfile(ctx context.Context, profileID, name string) (*daemon.ProfilesStore, error) {
	if err := f.begin(ctx, daemon.MsgProfilesRename, profileID, name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.store.Profiles {
		if f.store.Profiles[i].ID == profileID {
			f.store.Profiles[i].Name = strings.TrimSpace(name)
			return f.storeLocked(), nil
		}
	}
	return nil, daemon.NewServerError("profiles.rename", "profile not found")
}

// DeleteProfile implements daemon.ProfileService.
func (f *Fake) DeleteProfile(ctx context.Context, profileID string) (*daemon.ProfilesStore, error) {
	if err := f.begin(ctx, daemon.MsgProfilesDelete, profileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.store.Profiles) <= 1 {
		return nil, daemon.NewServerError("profiles.delete", "cannot delete last profile")
	}
	kept := f.store.Profiles[:0:0]
	for _, p := range f.store.Profiles {
		if p.ID != profileID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(f.store.Profiles) {
		return nil, daemon.NewServerError("profiles.delete", "profile not found")
	}
	f.store.Profiles = kept
	if f.store.ActiveProfileID == profileID {
		f.store.ActiveProfileID = kept[0].ID
	}
	delete(f.chats, profileID)
	return f.storeLocked(), nil
}

// SetSecret implements daemon.SecretService.
func (f *Fake) SetSecret(ctx context.Context, profileID, key, value string) error {
	if err := f.begin(ctx, daemon.MsgSecretsSet, profileID, key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[profileID+"/"+key] = value
	return nil
}

// GetSecret implements daemon.SecretService.
func (f *Fake) GetSecret(ctx context.Context, profileID, key string) (*string, error) {
	if err := f.begin(ctx, daemon.MsgSecretsGet, profileID, key); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.secrets[profileID+"/"+key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// DeleteSecret implements daemon.SecretService.
func (f *Fake) DeleteSecret(ctx context.Context, profileID, key string) error {
	if err := f.begin(ctx, daemon.MsgSecretsDelete, profileID, key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.secrets, profileID+"/"+key)
	return nil
}

// ListChats implements daemon.ChatService.
func (f *Fake) ListChats(ctx context.Context, profileID string) (*daemon.ChatIndex, error) {
	if err := f.begin(ctx, daemon.MsgChatsList, profileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexLocked(profileID), nil
}

// CreateChat implements daemon.ChatService. New chats go to the top of the index.
func (f *Fake) CreateChat(ctx context.Context, profileID string, title *string) (*daemon.Chat, error) {
	if err := f.begin(ctx, daemon.MsgChatsCreate, profileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := "New chat"
	if title != nil && strings.TrimSpace(*title) != "" {
		t = strings.TrimSpace(*title)
	}
	c := f.newChatLocked(t)
	f.chats[profileID] = append([]daemon.Chat{c}, f.chats[profileID]...)
	return &c, nil
}

// RenameChat implements daemon.ChatService.
func (f *Fake) RenameChat(ctx context.Context, profileID, chatID, title string) (*daemon.ChatIndex, error) {
	if err := f.begin(ctx, daemon.MsgChatsRename, profileID, chatID, title); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.chatPosLocked(profileID, chatID)
	if err != nil {
		return nil, daemon.NewServerError("chats.rename", err.Error())
	}
	f.chats[profileID][i].Title = strings.TrimSpace(title)
	f.chats[profileID][i].UpdatedAt = f.tick()
	return f.indexLocked(profileID), nil
}

// UpdateChat implements daemon.ChatService.
func (f *Fake) UpdateChat(ctx context.Context, profileID, chatID string, u daemon.ChatSettingsUpdate) (*daemon.ChatIndex, error) {
	if err := f.begin(ctx, daemon.MsgChatsUpdate, profileID, chatID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.chatPosLocked(profileID, chatID)
	if err != nil {
		return nil, daemon.NewServerError("chats.update", err.Error())
	}
	c := &f.chats[profileID][i]
	if u.Thinking != nil {
		c.Thinking = *u.Thinking
	}
	if u.AgentID != nil {
		c.AgentID = *u.AgentID
	}
	if u.Worker != nil {
		c.Worker = *u.Worker
	}
	c.UpdatedAt = f.tick()
	return f.indexLocked(profileID), nil
}

// DeleteChat implements daemon.ChatService.
func (f *Fake) DeleteChat(ctx context.Context, profileID, chatID string) (*daemon.ChatIndex, error) {
	if err := f.begin(ctx, daemon.MsgChatsDelete, profileID, chatID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.chatPosLocked(profileID, chatID)
	if err != nil {
		return nil, daemon.NewServerError("chats.delete", err.Error())
	}
	chats := f.chats[profileID]
	f.chats[profileID] = append(chats[:i:i], chats[i+1:]...)
	delete(f.threads, chatID)
	return f.indexLocked(profileID), nil
}

// ChatThread implements daemon.ChatService.
func (f *Fake) ChatThread(ctx context.Context, profileID, chatID string) (*daemon.ChatThread, error) {
	if err := f.begin(ctx, daemon.MsgChatThread, profileID, chatID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threadLocked(chatID), nil
}

// SendChat implements daemon.ChatService.
func (f *Fake) SendChat(ctx context.Context, profileID, chatID, text string) (*daemon.ChatSendResult, error) {
	if err := f.begin(ctx, daemon.MsgChatSend, profileID, chatID, text); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.chatPosLocked(profileID, chatID); err != nil {
		return nil, daemon.NewServerError("chat.send", err.Error())
	}
	f.appendLocked(chatID, daemon.RoleUser, text)
	reply := "echo: " + text
	if f.Reply != nil {
		reply = f.Reply(text)
	}
	m := f.appendLocked(chatID, daemon.RoleAssistant, reply)
	return &daemon.ChatSendResult{Thread: *f.threadLocked(chatID), AssistantMessageID: m.ID}, nil
}

// ResetChat implements daemon.ChatService.
func (f *Fake) ResetChat(ctx context.Context, profileID, chatID string) (*daemon.ChatThread, error) {
	if err := f.begin(ctx, daemon.MsgChatReset, profileID, chatID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.threads, chatID)
	return f.threadLocked(chatID), nil
}

func (f *Fake) gatewayCall(ctx context.Context, op daemon.MessageType, profileID string, running *bool) (*daemon.GatewayStatus, error) {
	if err := f.begin(ctx, op, profileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if running != nil {
		if *running {
			f.gateway.Stdout = "gateway: running"
		} else {
			f.gateway.Stdout = "gateway: stopped"
		}
	}
	st := f.gateway
	return &st, nil
}

// GatewayStatus implements daemon.GatewayService.
func (f *Fake) GatewayStatus(ctx context.Context, profileID string) (*daemon.GatewayStatus, error) {
	return f.gatewayCall(ctx, daemon.MsgGatewayStatus, profileID, nil)
}

// GatewayStart implements daemon.GatewayService.
func (f *Fake) GatewayStart(ctx context.Context, profileID string) (*daemon.GatewayStatus, error) {
	on := true
	return f.gatewayCall(ctx, daemon.MsgGatewayStart, profileID, &on)
}

// GatewayStop implements daemon.GatewayService.
func (f *Fake) GatewayStop(ctx context.Context, profileID string) (*daemon.GatewayStatus, error) {
	off := false
	return f.gatewayCall(ctx, daemon.MsgGatewayStop, profileID, &off)
}

// GatewayRestart implements daemon.GatewayService.
func (f *Fake) GatewayRestart(ctx context.Context, profileID string) (*daemon.GatewayStatus, error) {
	on := true
	return f.gatewayCall(ctx, daemon.MsgGatewayRestart, profileID, &on)
}

// GatewayLogs implements daemon.GatewayService.
func (f *Fake) GatewayLogs(ctx context.Context, lines int) (*daemon.GatewayLogs, error) {
	if err := f.begin(ctx, daemon.MsgGatewayLogs, fmt.Sprint(lines)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	logs := f.logs
	return &logs, nil
}

func (f *Fake) settingsLocked(profileID string) *daemon.ProfileSettings {
	s := f.settings[profileID]
	s.Version = 1
	return &s
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// GetSettings implements daemon.SettingsService.
func (f *Fake) GetSettings(ctx context.Context, profileID string) (*daemon.ProfileSettings, error) {
	if err := f.begin(ctx, daemon.MsgSettingsGet, profileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settingsLocked(profileID), nil
}

func (f *Fake) setSetting(ctx context.Context, op daemon.MessageType, profileID string, apply func(*daemon.ProfileSettings)) (*daemon.ProfileSettings, error) {
	if err := f.begin(ctx, op, profileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.settings[profileID]
	apply(&s)
	f.settings[profileID] = s
	return f.settingsLocked(profileID), nil
}

// SetOpenclawPath implements daemon.SettingsService.
func (f *Fake) SetOpenclawPath(ctx context.Context, profileID string, path *string) (*daemon.ProfileSettings, error) {
	return f.setSetting(ctx, daemon.MsgSettingsSetOpenclawPath, profileID, func(s *daemon.ProfileSettings) {
		s.OpenclawPath = blankToNil(path)
	})
}

// SetOllamaBaseURL implements daemon.SettingsService.
func (f *Fake) SetOllamaBaseURL(ctx context.Context, profileID string, baseURL *string) (*daemon.ProfileSettings, error) {
	return f.setSetting(ctx, daemon.MsgSettingsSetOllamaBaseURL, profileID, func(s *daemon.ProfileSettings) {
		s.OllamaBaseURL = blankToNil(baseURL)
	})
}

// SetOllamaModel implements daemon.SettingsService.
func (f *Fake) SetOllamaModel(ctx context.Context, profileID string, model *string) (*daemon.ProfileSettings, error) {
	return f.setSetting(ctx, daemon.MsgSettingsSetOllamaModel, profileID, func(s *daemon.ProfileSettings) {
		s.OllamaModel = blankToNil(model)
	})
}

// SetDevFullExecAuto implements daemon.SettingsService.
func (f *Fake) SetDevFullExecAuto(ctx context.Context, profileID string, enabled bool) (*daemon.ProfileSettings, error) {
	return f.setSetting(ctx, daemon.MsgSettingsSetDevFullExecAuto, profileID, func(s *daemon.ProfileSettings) {
		s.DevFullExecAuto = &enabled
	})
}

// SetAutoDoMode implements daemon.SettingsService.
func (f *Fake) SetAutoDoMode(ctx context.Context, profileID string, enabled bool) (*daemon.ProfileSettings, error) {
	return f.setSetting(ctx, daemon.MsgSettingsSetAutoDoMode, profileID, func(s *daemon.ProfileSettings) {
		s.AutoDoMode = &enabled
	})
}

// GetAutostart implements daemon.AutostartService.
func (f *Fake) GetAutostart(ctx context.Context) (bool, error) {
	if err := f.begin(ctx, daemon.MsgAutostartGet); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.autostart, nil
}

// SetAutostart implements daemon.AutostartService.
func (f *Fake) SetAutostart(ctx context.Context, enabled bool) error {
	if err := f.begin(ctx, daemon.MsgAutostartSet, fmt.Sprint(enabled)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autostart = enabled
	return nil
}

// ModelsStatus implements daemon.ModelsService.
func (f *Fake) ModelsStatus(ctx context.Context, profileID string) (*daemon.ModelsStatus, error) {
	if err := f.begin(ctx, daemon.MsgModelsStatus, profileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &daemon.ModelsStatus{Stdout: "default: " + f.model}, nil
}

// SetDefaultModel implements daemon.ModelsService.
func (f *Fake) SetDefaultModel(ctx context.Context, profileID, model string) (*daemon.ModelsStatus, error) {
	if err := f.begin(ctx, daemon.MsgModelsSet, profileID, model); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
	return &daemon.ModelsStatus{Stdout: "default: " + f.model}, nil
}

// ErrInjected is a convenience error for SetFail.
var ErrInjected = errors.New("injected failure")

var _ daemon.Boundary = (*Fake)(nil)
