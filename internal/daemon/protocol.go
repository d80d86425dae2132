// Package daemon provides the ocd daemon server, IPC protocol, and the
// boundary contract the desktop state layer is written against.
package daemon

import (
	"strings"
	"time"
)

// MessageType identifies the type of IPC message.
type MessageType string

const (
	// Server management
	MsgPing     MessageType = "ping"
	MsgShutdown MessageType = "shutdown"

	// Push notifications
	MsgAttach MessageType = "attach" // Subscribe to push events
	MsgDetach MessageType = "detach" // Unsubscribe from push events
	MsgPush   MessageType = "push"   // Fire a push event (tray actions)

	// Profiles
	MsgProfilesList      MessageType = "profiles.list"
	MsgProfilesCreate    MessageType = "profiles.create"
	MsgProfilesSetActive MessageType = "profiles.set_active"
	MsgProfilesRename    MessageType = "profiles.rename"
	MsgProfilesDelete    MessageType = "profiles.delete"

	// Secrets
	MsgSecretsSet    MessageType = "secrets.set"
	MsgSecretsGet    MessageType = "secrets.get"
	MsgSecretsDelete MessageType = "secrets.delete"

	// Chats
	MsgChatsList   MessageType = "chats.list"
	MsgChatsCreate MessageType = "chats.create"
	MsgChatsRename MessageType = "chats.rename"
	MsgChatsUpdate MessageType = "chats.update"
	MsgChatsDelete MessageType = "chats.delete"
	MsgChatThread  MessageType = "chat.thread"
	MsgChatSend    MessageType = "chat.send"
	MsgChatReset   MessageType = "chat.reset"

	// Gateway
	MsgGatewayStatus  MessageType = "gateway.status"
	MsgGatewayStart   MessageType = "gateway.start"
	MsgGatewayStop    MessageType = "gateway.stop"
	MsgGatewayRestart MessageType = "gateway.restart"
	MsgGatewayLogs    MessageType = "gateway.logs"

	// Settings
	MsgSettingsGet                MessageType = "settings.get"
	MsgSettingsSetOpenclawPath    MessageType = "settings.set_openclaw_path"
	MsgSettingsSetOllamaBaseURL   MessageType = "settings.set_ollama_base_url"
	MsgSettingsSetOllamaModel     MessageType = "settings.set_ollama_model"
	MsgSettingsSetDevFullExecAuto MessageType = "settings.set_dev_full_exec_auto"
	MsgSettingsSetAutoDoMode      MessageType = "settings.set_auto_do_mode"

	// Autostart
	MsgAutostartGet MessageType = "autostart.get"
	MsgAutostartSet MessageType = "autostart.set"

	// Models
	MsgModelsStatus MessageType = "models.status"
	MsgModelsSet    MessageType = "models.set"
)

// Request is the envelope for all IPC requests.
type Request struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id,omitempty"`      // Optional request ID for correlation
	Payload any         `json:"payload,omitempty"` // Type-specific payload
}

// Response is the envelope for all IPC responses.
type Response struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id,omitempty"` // Correlates with request ID
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Payload any         `json:"payload,omitempty"` // Type-specific payload
}

// PingResponse is the payload for ping responses.
type PingResponse struct {
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	StartedAt time.Time `json:"started_at"`
}

// ErrorMarker prefixes assistant message text when the agent call failed.
// The message is still committed to the thread.
const ErrorMarker = "[error]"

// Profile is a named, isolated configuration scope.
type Profile struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ProfilesStore is the full profile collection plus the active selection.
// ActiveProfileID is empty when no profile is active.
type ProfilesStore struct {
	Version         int       `json:"version" yaml:"version"`
	ActiveProfileID string    `json:"active_profile_id,omitempty" yaml:"active_profile_id,omitempty"`
	Profiles        []Profile `json:"profiles" yaml:"profiles"`
}

// Find returns the profile with the given id.
func (s *ProfilesStore) Find(id string) (Profile, bool) {
	for _, p := range s.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Active returns the active profile, if any.
func (s *ProfilesStore) Active() (Profile, bool) {
	if s.ActiveProfileID == "" {
		return Profile{}, false
	}
	return s.Find(s.ActiveProfileID)
}

// Clone returns a deep copy safe to hand to callers.
func (s ProfilesStore) Clone() ProfilesStore {
	s.Profiles = append([]Profile(nil), s.Profiles...)
	return s
}

// ThinkingLevel is the agent reasoning effort for a chat.
type ThinkingLevel string

// Thinking levels accepted by the agent.
const (
	ThinkingOff     ThinkingLevel = "off"
	ThinkingMinimal ThinkingLevel = "minimal"
	ThinkingLow     ThinkingLevel = "low"
	ThinkingMedium  ThinkingLevel = "medium"
	ThinkingHigh    ThinkingLevel = "high"
)

// ThinkingLevels lists the accepted levels in increasing order.
var ThinkingLevels = []ThinkingLevel{ThinkingOff, ThinkingMinimal, ThinkingLow, ThinkingMedium, ThinkingHigh}

// Valid reports whether t is one of the known levels.
func (t ThinkingLevel) Valid() bool {
	for _, l := range ThinkingLevels {
		if t == l {
			return true
		}
	}
	return false
}

// Chat is a titled conversation scoped to a profile.
type Chat struct {
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	SessionID string        `json:"session_id" yaml:"session_id"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" yaml:"updated_at"`
	AgentID   string        `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
	Thinking  ThinkingLevel `json:"thinking,omitempty" yaml:"thinking,omitempty"`
	Worker    string        `json:"worker,omitempty" yaml:"worker,omitempty"`
}

// ChatIndex is the ordered chat list of one profile.
type ChatIndex struct {
	Version int    `json:"version" yaml:"version"`
	Chats   []Chat `json:"chats" yaml:"chats"`
}

// Find returns the chat with the given id.
func (ix *ChatIndex) Find(id string) (Chat, bool) {
	for _, c := range ix.Chats {
		if c.ID == id {
			return c, true
		}
	}
	return Chat{}, false
}

// Role identifies the author of a chat message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is one immutable entry of a thread.
type ChatMessage struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// IsError reports whether the message is an assistant reply carrying ErrorMarker.
func (m ChatMessage) IsError() bool {
	return m.Role == RoleAssistant && strings.HasPrefix(m.Text, ErrorMarker)
}

// ChatThread is the ordered message history of a chat.
type ChatThread struct {
	Version  int           `json:"version" yaml:"version"`
	ChatID   string        `json:"chat_id" yaml:"chat_id"`
	Messages []ChatMessage `json:"messages" yaml:"messages"`
}

// Last returns the final message of the thread.
func (t *ChatThread) Last() (ChatMessage, bool) {
	if t == nil || len(t.Messages) == 0 {
		return ChatMessage{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// ChatSendResult is the canonical thread after a send.
type ChatSendResult struct {
	Thread             ChatThread `json:"thread"`
	AssistantMessageID string     `json:"assistant_message_id,omitempty"`
}

// ChatSettingsUpdate is a partial update of chat settings.
// A nil field is left unchanged; a pointer to "" clears the field.
type ChatSettingsUpdate struct {
	Thinking *ThinkingLevel `json:"thinking,omitempty"`
	AgentID  *string        `json:"agent_id,omitempty"`
	Worker   *string        `json:"worker,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ChatSettingsUpdate) Empty() bool {
	return u.Thinking == nil && u.AgentID == nil && u.Worker == nil
}

// GatewayStatus is the result of one openclaw gateway invocation.
type GatewayStatus struct {
	ExitCode int    `json:"exit_code" yaml:"exit_code"`
	Stdout   string `json:"stdout" yaml:"stdout"`
	Stderr   string `json:"stderr" yaml:"stderr"`
}

// GatewayLogs is a tail snapshot of the gateway's stdout and stderr logs.
type GatewayLogs struct {
	Out string `json:"out" yaml:"out"`
	Err string `json:"err" yaml:"err"`
}

// DefaultGatewayLogLines is the log tail length used when none is given.
const DefaultGatewayLogLines = 200

// ProfileSettings is the per-profile configuration.
type ProfileSettings struct {
	Version         int     `json:"version" yaml:"version"`
	OpenclawPath    *string `json:"openclaw_path,omitempty" yaml:"openclaw_path,omitempty"`
	OllamaBaseURL   *string `json:"ollama_base_url,omitempty" yaml:"ollama_base_url,omitempty"`
	OllamaModel     *string `json:"ollama_model,omitempty" yaml:"ollama_model,omitempty"`
	DevFullExecAuto *bool   `json:"dev_full_exec_auto,omitempty" yaml:"dev_full_exec_auto,omitempty"`
	AutoDoMode      *bool   `json:"auto_do_mode,omitempty" yaml:"auto_do_mode,omitempty"`
}

// ModelsStatus is the output of `openclaw models status`.
type ModelsStatus struct {
	ExitCode int    `json:"exit_code" yaml:"exit_code"`
	Stdout   string `json:"stdout" yaml:"stdout"`
	Stderr   string `json:"stderr" yaml:"stderr"`
}

// ProfileCreateRequest is the payload for profiles.create.
type ProfileCreateRequest struct {
	Name string `json:"name"`
}

// ProfileRequest identifies a profile.
type ProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

// ProfileRenameRequest is the payload for profiles.rename.
type ProfileRenameRequest struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
}

// SecretRequest is the payload for secrets.*. Value is only used by set.
type SecretRequest struct {
	ProfileID string `json:"profile_id"`
	Key       string `json:"key"`
	Value     string `json:"value,omitempty"`
}

// SecretGetResponse is the payload for secrets.get responses.
type SecretGetResponse struct {
	Value *string `json:"value,omitempty"`
}

// ChatCreateRequest is the payload for chats.create.
type ChatCreateRequest struct {
	ProfileID string  `json:"profile_id"`
	Title     *string `json:"title,omitempty"`
}

// ChatRequest identifies a chat within a profile.
type ChatRequest struct {
	ProfileID string `json:"profile_id"`
	ChatID    string `json:"chat_id"`
}

// ChatRenameRequest is the payload for chats.rename.
type ChatRenameRequest struct {
	ProfileID string `json:"profile_id"`
	ChatID    string `json:"chat_id"`
	Title     string `json:"title"`
}

// ChatUpdateRequest is the payload for chats.update.
type ChatUpdateRequest struct {
	ProfileID string             `json:"profile_id"`
	ChatID    string             `json:"chat_id"`
	Update    ChatSettingsUpdate `json:"update"`
}

// ChatSendRequest is the payload for chat.send.
type ChatSendRequest struct {
	ProfileID string `json:"profile_id"`
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
}

// GatewayLogsRequest is the payload for gateway.logs.
type GatewayLogsRequest struct {
	Lines int `json:"lines,omitempty"`
}

// SettingsStringRequest sets an optional string setting. Nil clears it.
type SettingsStringRequest struct {
	ProfileID string  `json:"profile_id"`
	Value     *string `json:"value,omitempty"`
}

// SettingsBoolRequest sets a boolean setting.
type SettingsBoolRequest struct {
	ProfileID string `json:"profile_id"`
	Enabled   bool   `json:"enabled"`
}

// AutostartPayload carries the launch-at-login flag.
type AutostartPayload struct {
	Enabled bool `json:"enabled"`
}

// ModelsSetRequest is the payload for models.set.
type ModelsSetRequest struct {
	ProfileID string `json:"profile_id"`
	Model     string `json:"model"`
}

// PushKind names a fire-and-forget push notification.
type PushKind string

// Push notifications raised by the tray.
const (
	PushNewChat        PushKind = "new_chat"
	PushRestartGateway PushKind = "restart_gateway"
)

// Valid reports whether k is a known push kind.
func (k PushKind) Valid() bool {
	return k == PushNewChat || k == PushRestartGateway
}

// PushRequest is the payload for push requests.
type PushRequest struct {
	Kind PushKind `json:"kind"`
}

// StreamEvent is sent to attached clients when a push notification fires.
type StreamEvent struct {
	Type      string    `json:"type"` // always "push"
	Kind      PushKind  `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// EventResult carries a stream event or the error that ended the stream.
type EventResult struct {
	Event *StreamEvent
	Err   error
}
