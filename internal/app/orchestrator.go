// Package app composes the desktop state components and routes user intents.
//
// Every mutating intent runs inside the busy lock. A second intent while the
// lock is held is ignored, not queued. Read-only refreshes (thread fetch,
// selection, log tail) do not take the lock. Errors stop here: validation
// failures are silent, boundary failures become error toasts.
package app

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tessro/ocd/internal/busy"
	"github.com/tessro/ocd/internal/chat"
	"github.com/tessro/ocd/internal/config"
	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/event"
	"github.com/tessro/ocd/internal/gateway"
	"github.com/tessro/ocd/internal/modal"
	"github.com/tessro/ocd/internal/profile"
	"github.com/tessro/ocd/internal/settings"
	"github.com/tessro/ocd/internal/toast"
)

// Config configures the orchestrator.
type Config struct {
	// SecretKey is the key the secret dialogs read and write.
	SecretKey string

	// LogLines is the gateway log tail length.
	LogLines int

	// Toasts are the per-kind auto-dismiss delays.
	Toasts toast.Timeouts
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		SecretKey: config.DefaultSecretKey,
		LogLines:  daemon.DefaultGatewayLogLines,
		Toasts:    toast.DefaultTimeouts,
	}
}

// ConfigFrom builds a Config from the global config file. A nil cfg yields defaults.
func ConfigFrom(cfg *config.GlobalConfig) Config {
	return Config{
		SecretKey: cfg.GetSecretKey(),
		LogLines:  cfg.GetGatewayLogLines(),
		Toasts: toast.Timeouts{
			Info:    cfg.GetInfoTimeout(),
			Success: cfg.GetSuccessTimeout(),
			Error:   cfg.GetErrorTimeout(),
		},
	}
}

// View is a snapshot of everything a front end renders.
type View struct {
	Busy   busy.State
	Banner string
	Toasts []toast.Toast
	Modal  modal.Modal

	Profiles         daemon.ProfilesStore
	CanDeleteProfile bool

	Chat     chat.View
	Gateway  gateway.View
	Settings settings.View

	SecretKey string
}

// Orchestrator owns the busy lock and composes the state components.
type Orchestrator struct {
	boundary daemon.Boundary
	config   Config

	busy     *busy.Lock
	toasts   *toast.Queue
	modal    *modal.Machine
	profiles *profile.Store
	chats    *chat.Manager
	gateway  *gateway.Controller
	settings *settings.Panel

	mu sync.Mutex
	// banner is the persistent message shown when the initial profile load fails.
	// +checklocks:mu
	banner string

	changes event.Emitter[struct{}]
	unsubs  []func()
}

// Option customizes construction.
type Option func(*Orchestrator)

// WithBusyLock injects the busy lock.
func WithBusyLock(l *busy.Lock) Option {
	return func(o *Orchestrator) { o.busy = l }
}

// WithToastQueue injects the toast queue.
func WithToastQueue(q *toast.Queue) Option {
	return func(o *Orchestrator) { o.toasts = q }
}

// New wires the components over b.
func New(b daemon.Boundary, cfg Config, opts ...Option) *Orchestrator {
	if cfg.SecretKey == "" {
		cfg.SecretKey = config.DefaultSecretKey
	}
	o := &Orchestrator{
		boundary: b,
		config:   cfg,
		modal:    modal.New(),
		profiles: profile.NewStore(b),
		chats:    chat.NewManager(b),
		gateway:  gateway.NewController(b, cfg.LogLines),
		settings: settings.NewPanel(b),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.busy == nil {
		o.busy = busy.New()
	}
	if o.toasts == nil {
		o.toasts = toast.NewQueue(toast.WithTimeouts(cfg.Toasts))
	}

	changed := func() { o.changes.Emit(struct{}{}) }
	o.unsubs = append(o.unsubs,
		o.busy.Subscribe(func(busy.State) { changed() }),
		o.toasts.Subscribe(func([]toast.Toast) { changed() }),
		o.modal.Subscribe(func(modal.Modal) { changed() }),
		o.chats.Subscribe(func(chat.View) { changed() }),
		o.gateway.Subscribe(func(gateway.View) { changed() }),
		o.settings.Subscribe(func(settings.View) { changed() }),
	)
	return o
}

// Close detaches from the components.
func (o *Orchestrator) Close() {
	for _, unsub := range o.unsubs {
		unsub()
	}
	o.unsubs = nil
	o.toasts.Clear()
}

// Subscribe registers fn for any state change. fn runs on the goroutine that
// caused the change and should only schedule a re-render.
func (o *Orchestrator) Subscribe(fn func()) (unsubscribe func()) {
	return o.changes.Subscribe(func(struct{}) { fn() })
}

func (o *Orchestrator) notify() {
	o.changes.Emit(struct{}{})
}

// View returns a snapshot of the whole state.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	banner := o.banner
	o.mu.Unlock()

	return View{
		Busy:             o.busy.State(),
		Banner:           banner,
		Toasts:           o.toasts.List(),
		Modal:            o.modal.Current(),
		Profiles:         o.profiles.Snapshot(),
		CanDeleteProfile: o.profiles.CanDelete(),
		Chat:             o.chats.View(),
		Gateway:          o.gateway.View(),
		Settings:         o.settings.View(),
		SecretKey:        o.config.SecretKey,
	}
}

// Busy reports whether a mutating intent is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Held()
}

// Toasts returns the toast queue.
func (o *Orchestrator) Toasts() *toast.Queue {
	return o.toasts
}

// DismissToast removes a toast early.
func (o *Orchestrator) DismissToast(id string) {
	o.toasts.Dismiss(id)
}

func (o *Orchestrator) setBanner(msg string) {
	o.mu.Lock()
	o.banner = msg
	o.mu.Unlock()
	o.notify()
}

// isValidation reports errors caught before any boundary call.
func isValidation(err error) bool {
	for _, target := range []error{
		profile.ErrEmptyName,
		profile.ErrLastProfile,
		chat.ErrEmptyMessage,
		chat.ErrEmptyTitle,
		chat.ErrNoProfile,
		chat.ErrNoChat,
		modal.ErrNoModal,
		errNoProfile,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// report turns an error into user-visible feedback and reports success.
func (o *Orchestrator) report(title string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, busy.ErrBusy):
		slog.Debug("intent ignored while busy", "intent", title, "holder", o.busy.Reason())
	case isValidation(err):
		slog.Debug("intent rejected", "intent", title, "error", err)
	default:
		o.toasts.Error(title, daemon.Message(err))
	}
	return false
}

// action runs fn under the busy lock and reports its outcome.
func (o *Orchestrator) action(reason, failTitle string, fn func() error) bool {
	return o.report(failTitle, o.busy.Run(reason, fn))
}
