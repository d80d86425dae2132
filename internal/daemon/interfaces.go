package daemon

import "context"

// ProfileService manages the profile collection. Every call returns the whole store.
type ProfileService interface {
	ListProfiles(ctx context.Context) (*ProfilesStore, error)
	CreateProfile(ctx context.Context, name string) (*ProfilesStore, error)
	SetActiveProfile(ctx context.Context, profileID string) (*ProfilesStore, error)
	RenameProfile(ctx context.Context, profileID, name string) (*ProfilesStore, error)
	DeleteProfile(ctx context.Context, profileID string) (*ProfilesStore, error)
}

// SecretService stores per-profile secrets.
type SecretService interface {
	SetSecret(ctx context.Context, profileID, key, value string) error
	// GetSecret returns nil when no secret is stored.
	GetSecret(ctx context.Context, profileID, key string) (*string, error)
	DeleteSecret(ctx context.Context, profileID, key string) error
}

// ChatService manages chats and their threads.
type ChatService interface {
	ListChats(ctx context.Context, profileID string) (*ChatIndex, error)
	CreateChat(ctx context.Context, profileID string, title *string) (*Chat, error)
	RenameChat(ctx context.Context, profileID, chatID, title string) (*ChatIndex, error)
	UpdateChat(ctx context.Context, profileID, chatID string, update ChatSettingsUpdate) (*ChatIndex, error)
	DeleteChat(ctx context.Context, profileID, chatID string) (*ChatIndex, error)
	ChatThread(ctx context.Context, profileID, chatID string) (*ChatThread, error)
	SendChat(ctx context.Context, profileID, chatID, text string) (*ChatSendResult, error)
	ResetChat(ctx context.Context, profileID, chatID string) (*ChatThread, error)
}

// GatewayService controls the gateway process. Logs are not profile-scoped.
type GatewayService interface {
	GatewayStatus(ctx context.Context, profileID string) (*GatewayStatus, error)
	GatewayStart(ctx context.Context, profileID string) (*GatewayStatus, error)
	GatewayStop(ctx context.Context, profileID string) (*GatewayStatus, error)
	GatewayRestart(ctx context.Context, profileID string) (*GatewayStatus, error)
	GatewayLogs(ctx context.Context, lines int) (*GatewayLogs, error)
}

// SettingsService reads and writes per-profile settings.
// Setters return the settings after the write.
type SettingsService interface {
	GetSettings(ctx context.Context, profileID string) (*ProfileSettings, error)
	SetOpenclawPath(ctx context.Context, profileID string, path *string) (*ProfileSettings, error)
	SetOllamaBaseURL(ctx context.Context, profileID string, baseURL *string) (*ProfileSettings, error)
	SetOllamaModel(ctx context.Context, profileID string, model *string) (*ProfileSettings, error)
	SetDevFullExecAuto(ctx context.Context, profileID string, enabled bool) (*ProfileSettings, error)
	SetAutoDoMode(ctx context.Context, profileID string, enabled bool) (*ProfileSettings, error)
}

// AutostartService toggles launch at login.
type AutostartService interface {
	GetAutostart(ctx context.Context) (bool, error)
	SetAutostart(ctx context.Context, enabled bool) error
}

// ModelsService inspects and selects the agent's default model.
type ModelsService interface {
	ModelsStatus(ctx context.Context, profileID string) (*ModelsStatus, error)
	SetDefaultModel(ctx context.Context, profileID, model string) (*ModelsStatus, error)
}

// Boundary is every external call the desktop state layer makes.
type Boundary interface {
	ProfileService
	SecretService
	ChatService
	GatewayService
	SettingsService
	AutostartService
	ModelsService
}

// EventStreamer delivers push notifications from the daemon.
type EventStreamer interface {
	StreamEvents() (<-chan EventResult, error)
	StopEventStream()
}

// Compile-time assertions to verify Client implements all interfaces.
var (
	_ Boundary      = (*Client)(nil)
	_ EventStreamer = (*Client)(nil)
)
