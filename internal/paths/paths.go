// Package paths provides a single source of truth for ocd file paths.
// All path helpers honor environment variable overrides for isolated testing.
//
// Path resolution precedence:
//  1. Specific env vars (OCD_SOCKET_PATH, OCD_PID_PATH) take highest priority
//  2. OCD_DIR env var sets the base directory (derives socket/pid/config/data)
//  3. Default behavior (~/.ocd, ~/.config/ocd) when no env vars are set
package paths

import (
	"os"
	"path/filepath"
)

// Environment variable names for path overrides.
const (
	// EnvOcdDir is the base directory override (e.g., /tmp/ocd-test).
	// When set, socket, PID, database and config paths derive from this directory.
	EnvOcdDir = "OCD_DIR"

	// EnvSocketPath overrides the socket path directly.
	EnvSocketPath = "OCD_SOCKET_PATH"

	// EnvPIDPath overrides the PID file path directly.
	EnvPIDPath = "OCD_PID_PATH"
)

// BaseDir returns the ocd base directory (~/.ocd by default).
// Honors OCD_DIR environment variable.
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvOcdDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ocd"), nil
}

// ConfigDir returns the ocd config directory (~/.config/ocd by default).
// When OCD_DIR is set, returns OCD_DIR/config instead.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvOcdDir); dir != "" {
		return filepath.Join(dir, "config"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ocd"), nil
}

// ConfigPath returns the path to the global ocd config file.
// (~/.config/ocd/config.toml by default, or OCD_DIR/config/config.toml).
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath returns the path of the daemon's SQLite database.
// (~/.ocd/ocd.db by default, or OCD_DIR/ocd.db).
func DatabasePath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "ocd.db"), nil
}

// KeyringDir returns the directory used by the file keyring backend.
func KeyringDir() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "keyring"), nil
}

// TranscriptsDir returns the default directory for exported chat transcripts.
func TranscriptsDir() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "transcripts"), nil
}

// ProfilesDir returns the directory holding per-profile working directories.
func ProfilesDir() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "profiles"), nil
}

// SocketPath returns the daemon socket path.
// Precedence: OCD_SOCKET_PATH > OCD_DIR/ocd.sock > ~/.ocd/ocd.sock
func SocketPath() string {
	if path := os.Getenv(EnvSocketPath); path != "" {
		return path
	}
	base, err := BaseDir()
	if err != nil {
		return "/tmp/ocd.sock"
	}
	return filepath.Join(base, "ocd.sock")
}

// PIDPath returns the daemon PID file path.
// Precedence: OCD_PID_PATH > OCD_DIR/ocd.pid > ~/.ocd/ocd.pid
func PIDPath() string {
	if path := os.Getenv(EnvPIDPath); path != "" {
		return path
	}
	base, err := BaseDir()
	if err != nil {
		return "/tmp/ocd.pid"
	}
	return filepath.Join(base, "ocd.pid")
}

// OpenclawLogsDir returns the directory the openclaw gateway writes its logs to
// (~/.openclaw/logs).
func OpenclawLogsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".openclaw", "logs"), nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
