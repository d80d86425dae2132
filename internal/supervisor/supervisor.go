// Package supervisor provides the daemon request handler. It implements every
// boundary operation over the store, the keyring, the openclaw CLI and the
// local Ollama server.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/ocd/internal/autostart"
	"github.com/tessro/ocd/internal/config"
	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/ollama"
	"github.com/tessro/ocd/internal/openclaw"
	"github.com/tessro/ocd/internal/paths"
	"github.com/tessro/ocd/internal/secrets"
	"github.com/tessro/ocd/internal/store"
	"github.com/tessro/ocd/internal/tools"
	"github.com/tessro/ocd/internal/version"
)

// Version is the supervisor/daemon version.
var Version = version.Version

// ErrChatBusy is returned when a chat already has a send in flight.
var ErrChatBusy = errors.New("chat is busy (inflight)")

// Config holds daemon-wide defaults.
type Config struct {
	// OpenclawPath is used when a profile has no override. Empty means $PATH.
	OpenclawPath string

	// LogsDir holds gateway.log and gateway.err.log.
	LogsDir string

	// OllamaBaseURL and OllamaModel back-fill unset profile settings.
	OllamaBaseURL string
	OllamaModel   string

	// History is how many thread messages are sent to the model.
	History int

	// ProfilesDir holds one working directory per profile for exec tool
	// calls. Empty means the system temp dir.
	ProfilesDir string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return ConfigFrom(nil)
}

// ConfigFrom builds a Config from the global config file. A nil cfg yields defaults.
func ConfigFrom(cfg *config.GlobalConfig) Config {
	profilesDir, err := paths.ProfilesDir()
	if err != nil {
		slog.Warn("no profiles dir; exec tool runs in temp dir", "error", err)
	}
	return Config{
		ProfilesDir:   profilesDir,
		OpenclawPath:  cfg.GetOpenclawPath(),
		LogsDir:       cfg.GetOpenclawLogsDir(),
		OllamaBaseURL: cfg.GetOllamaBaseURL(),
		OllamaModel:   cfg.GetOllamaModel(),
		History:       cfg.GetOllamaHistory(),
	}
}

// Supervisor handles IPC requests.
// It implements the daemon.Handler interface.
type Supervisor struct {
	store     *store.Store
	secrets   *secrets.Store
	autostart *autostart.Manager
	openclaw  *openclaw.Runner
	tools     *tools.Runner
	config    Config
	startedAt time.Time

	// +checklocks:mu
	inflight map[string]struct{} // profile::chat with a send in progress

	shutdownCh chan struct{} // Created at init, closed to signal shutdown
	shutdownMu sync.Mutex    // Protects closing shutdownCh exactly once

	// +checklocks:mu
	server *daemon.Server // Server reference for broadcasting push events

	mu sync.RWMutex
}

// New creates a Supervisor.
func New(st *store.Store, sec *secrets.Store, auto *autostart.Manager, cfg Config) *Supervisor {
	if cfg.History <= 0 {
		cfg.History = config.DefaultOllamaHistory
	}
	if cfg.OllamaBaseURL == "" {
		cfg.OllamaBaseURL = ollama.DefaultBaseURL
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = ollama.DefaultModel
	}
	return &Supervisor{
		store:      st,
		secrets:    sec,
		autostart:  auto,
		openclaw:   openclaw.NewRunner(),
		tools:      tools.NewRunner(),
		config:     cfg,
		startedAt:  time.Now(),
		inflight:   make(map[string]struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Handle processes IPC requests and returns responses.
// Implements daemon.Handler.
func (s *Supervisor) Handle(ctx context.Context, req *daemon.Request) *daemon.Response {
	slog.Debug("supervisor handling request", "type", req.Type)
	switch req.Type {
	// Server management
	case daemon.MsgPing:
		return s.handlePing(ctx, req)
	case daemon.MsgShutdown:
		return s.handleShutdown(ctx, req)
	case daemon.MsgAttach:
		return s.handleAttach(ctx, req)
	case daemon.MsgDetach:
		return s.handleDetach(ctx, req)
	case daemon.MsgPush:
		return s.handlePush(ctx, req)

	// Profiles
	case daemon.MsgProfilesList:
		return s.handleProfilesList(ctx, req)
	case daemon.MsgProfilesCreate:
		return s.handleProfilesCreate(ctx, req)
	case daemon.MsgProfilesSetActive:
		return s.handleProfilesSetActive(ctx, req)
	case daemon.MsgProfilesRename:
		return s.handleProfilesRename(ctx, req)
	case daemon.MsgProfilesDelete:
		return s.handleProfilesDelete(ctx, req)

	// Secrets
	case daemon.MsgSecretsSet:
		return s.handleSecretsSet(ctx, req)
	case daemon.MsgSecretsGet:
		return s.handleSecretsGet(ctx, req)
	case daemon.MsgSecretsDelete:
		return s.handleSecretsDelete(ctx, req)

	// Chats
	case daemon.MsgChatsList:
		return s.handleChatsList(ctx, req)
	case daemon.MsgChatsCreate:
		return s.handleChatsCreate(ctx, req)
	case daemon.MsgChatsRename:
		return s.handleChatsRename(ctx, req)
	case daemon.MsgChatsUpdate:
		return s.handleChatsUpdate(ctx, req)
	case daemon.MsgChatsDelete:
		return s.handleChatsDelete(ctx, req)
	case daemon.MsgChatThread:
		return s.handleChatThread(ctx, req)
	case daemon.MsgChatSend:
		return s.handleChatSend(ctx, req)
	case daemon.MsgChatReset:
		return s.handleChatReset(ctx, req)

	// Gateway
	case daemon.MsgGatewayStatus:
		return s.handleGateway(ctx, req, openclaw.Status)
	case daemon.MsgGatewayStart:
		return s.handleGateway(ctx, req, openclaw.Start)
	case daemon.MsgGatewayStop:
		return s.handleGateway(ctx, req, openclaw.Stop)
	case daemon.MsgGatewayRestart:
		return s.handleGateway(ctx, req, openclaw.Restart)
	case daemon.MsgGatewayLogs:
		return s.handleGatewayLogs(ctx, req)

	// Settings
	case daemon.MsgSettingsGet:
		return s.handleSettingsGet(ctx, req)
	case daemon.MsgSettingsSetOpenclawPath:
		return s.handleSettingsString(ctx, req, func(ps *daemon.ProfileSettings, v *string) { ps.OpenclawPath = v })
	case daemon.MsgSettingsSetOllamaBaseURL:
		return s.handleSettingsString(ctx, req, func(ps *daemon.ProfileSettings, v *string) { ps.OllamaBaseURL = v })
	case daemon.MsgSettingsSetOllamaModel:
		return s.handleSettingsString(ctx, req, func(ps *daemon.ProfileSettings, v *string) { ps.OllamaModel = v })
	case daemon.MsgSettingsSetDevFullExecAuto:
		return s.handleSettingsBool(ctx, req, func(ps *daemon.ProfileSettings, v *bool) { ps.DevFullExecAuto = v })
	case daemon.MsgSettingsSetAutoDoMode:
		return s.handleSettingsBool(ctx, req, func(ps *daemon.ProfileSettings, v *bool) { ps.AutoDoMode = v })

	// Autostart
	case daemon.MsgAutostartGet:
		return s.handleAutostartGet(ctx, req)
	case daemon.MsgAutostartSet:
		return s.handleAutostartSet(ctx, req)

	// Models
	case daemon.MsgModelsStatus:
		return s.handleModelsStatus(ctx, req)
	case daemon.MsgModelsSet:
		return s.handleModelsSet(ctx, req)

	default:
		return errorResponse(req, "unknown request type: "+string(req.Type))
	}
}

// ShutdownCh returns a channel that is closed when shutdown is requested.
func (s *Supervisor) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// StartedAt returns when the supervisor was started.
func (s *Supervisor) StartedAt() time.Time {
	return s.startedAt
}

// SetServer sets the daemon server reference used for push broadcasts.
func (s *Supervisor) SetServer(srv *daemon.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.server = srv
}

// Server returns the daemon server, or nil if not set.
func (s *Supervisor) Server() *daemon.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server
}

// beginSend marks a chat as having a send in flight.
func (s *Supervisor) beginSend(profileID, chatID string) (end func(), err error) {
	key := profileID + "::" + chatID
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, ErrChatBusy
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}
