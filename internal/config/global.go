// Package config provides configuration loading and validation for ocd.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tessro/ocd/internal/paths"
)

// Defaults applied when a key is absent from config.toml.
const (
	DefaultLogLevel        = "info"
	DefaultSecretKey       = "gateway.token"
	DefaultRequestTimeout  = 10 * time.Minute
	DefaultOllamaBaseURL   = "http://localhost:11434"
	DefaultOllamaModel     = "ollama/huihui_ai/qwen3-abliterated:8b"
	DefaultOllamaHistory   = 16
	DefaultInfoTimeout     = 4 * time.Second
	DefaultSuccessTimeout  = 2500 * time.Millisecond
	DefaultErrorTimeout    = 8 * time.Second
	DefaultGatewayLogLines = 200
	DefaultOpenclawLogsDir = "~/.openclaw/logs"
)

// Duration is a time.Duration that decodes from TOML strings such as "2.5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// GlobalConfig represents the global ocd configuration.
type GlobalConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// SecretKey is the keyring entry the secret dialogs operate on.
	SecretKey string `toml:"secret_key"`

	Daemon   DaemonConfig   `toml:"daemon"`
	Openclaw OpenclawConfig `toml:"openclaw"`
	Ollama   OllamaConfig   `toml:"ollama"`
	Toasts   ToastConfig    `toml:"toasts"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Keyring  KeyringConfig  `toml:"keyring"`
}

// DaemonConfig contains IPC settings.
type DaemonConfig struct {
	// RequestTimeout bounds a single request/response exchange with the daemon.
	// Sends wait on a model, so this is deliberately long.
	RequestTimeout Duration `toml:"request_timeout"`
}

// OpenclawConfig locates the openclaw CLI and its logs.
type OpenclawConfig struct {
	Path    string `toml:"path"`
	LogsDir string `toml:"logs_dir"`
}

// OllamaConfig holds defaults for profiles that have not set their own model.
type OllamaConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	History int    `toml:"history"`
}

// ToastConfig sets auto-dismiss timeouts per notification kind.
type ToastConfig struct {
	InfoTimeout    Duration `toml:"info_timeout"`
	SuccessTimeout Duration `toml:"success_timeout"`
	ErrorTimeout   Duration `toml:"error_timeout"`
}

// GatewayConfig controls the gateway log tail.
type GatewayConfig struct {
	LogLines int `toml:"log_lines"`
}

// KeyringConfig selects the secret storage backend.
type KeyringConfig struct {
	// Backend is "" for the OS default or "file" for an encrypted file store.
	Backend string `toml:"backend"`
	FileDir string `toml:"file_dir"`
}

// GlobalConfigPath returns the path to the global ocd config.
func GlobalConfigPath() (string, error) {
	return paths.ConfigPath()
}

// LoadGlobalConfig loads the global ocd configuration.
// Returns nil config and nil error if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := GlobalConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadGlobalConfigFromPath(path)
}

// LoadGlobalConfigFromPath loads the global config from a specific path.
// Returns nil config and nil error if the file doesn't exist.
func LoadGlobalConfigFromPath(path string) (*GlobalConfig, error) {
	var cfg GlobalConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetLogLevel returns the configured log level or the default.
func (c *GlobalConfig) GetLogLevel() string {
	if c != nil && c.LogLevel != "" {
		return c.LogLevel
	}
	return DefaultLogLevel
}

// GetSecretKey returns the keyring entry used by the secret dialogs.
func (c *GlobalConfig) GetSecretKey() string {
	if c != nil && c.SecretKey != "" {
		return c.SecretKey
	}
	return DefaultSecretKey
}

// GetRequestTimeout returns the daemon request timeout.
func (c *GlobalConfig) GetRequestTimeout() time.Duration {
	if c != nil && c.Daemon.RequestTimeout.Duration > 0 {
		return c.Daemon.RequestTimeout.Duration
	}
	return DefaultRequestTimeout
}

// GetOpenclawPath returns the configured openclaw binary, or "" to search $PATH.
func (c *GlobalConfig) GetOpenclawPath() string {
	if c == nil {
		return ""
	}
	return c.Openclaw.Path
}

// GetOpenclawLogsDir returns the gateway logs directory with ~ expanded.
func (c *GlobalConfig) GetOpenclawLogsDir() string {
	dir := DefaultOpenclawLogsDir
	if c != nil && c.Openclaw.LogsDir != "" {
		dir = c.Openclaw.LogsDir
	}
	return paths.ExpandHome(dir)
}

// GetOllamaBaseURL returns the default Ollama endpoint.
func (c *GlobalConfig) GetOllamaBaseURL() string {
	if c != nil && c.Ollama.BaseURL != "" {
		return c.Ollama.BaseURL
	}
	return DefaultOllamaBaseURL
}

// GetOllamaModel returns the default Ollama model.
func (c *GlobalConfig) GetOllamaModel() string {
	if c != nil && c.Ollama.Model != "" {
		return c.Ollama.Model
	}
	return DefaultOllamaModel
}

// GetOllamaHistory returns how many trailing messages are sent with each chat turn.
func (c *GlobalConfig) GetOllamaHistory() int {
	if c != nil && c.Ollama.History > 0 {
		return c.Ollama.History
	}
	return DefaultOllamaHistory
}

// GetInfoTimeout returns the auto-dismiss delay for info notifications.
func (c *GlobalConfig) GetInfoTimeout() time.Duration {
	if c != nil && c.Toasts.InfoTimeout.Duration > 0 {
		return c.Toasts.InfoTimeout.Duration
	}
	return DefaultInfoTimeout
}

// GetSuccessTimeout returns the auto-dismiss delay for success notifications.
func (c *GlobalConfig) GetSuccessTimeout() time.Duration {
	if c != nil && c.Toasts.SuccessTimeout.Duration > 0 {
		return c.Toasts.SuccessTimeout.Duration
	}
	return DefaultSuccessTimeout
}

// GetErrorTimeout returns the auto-dismiss delay for error notifications.
func (c *GlobalConfig) GetErrorTimeout() time.Duration {
	if c != nil && c.Toasts.ErrorTimeout.Duration > 0 {
		return c.Toasts.ErrorTimeout.Duration
	}
	return DefaultErrorTimeout
}

// GetGatewayLogLines returns the gateway log tail length.
func (c *GlobalConfig) GetGatewayLogLines() int {
	if c != nil && c.Gateway.LogLines > 0 {
		return c.Gateway.LogLines
	}
	return DefaultGatewayLogLines
}

// GetKeyringBackend returns the configured keyring backend name.
func (c *GlobalConfig) GetKeyringBackend() string {
	if c == nil {
		return ""
	}
	return c.Keyring.Backend
}

// GetKeyringFileDir returns the directory for the file keyring backend.
func (c *GlobalConfig) GetKeyringFileDir() string {
	if c != nil && c.Keyring.FileDir != "" {
		return paths.ExpandHome(c.Keyring.FileDir)
	}
	dir, err := paths.KeyringDir()
	if err != nil {
		return ""
	}
	return dir
}
