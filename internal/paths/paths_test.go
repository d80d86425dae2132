package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseDir(t *testing.T) {
	t.Run("default uses home directory", func(t *testing.T) {
		t.Setenv(EnvOcdDir, "")

		dir, err := BaseDir()
		if err != nil {
			t.Fatalf("BaseDir() error = %v", err)
		}
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".ocd")
		if dir != expected {
			t.Errorf("BaseDir() = %q, want %q", dir, expected)
		}
	})

	t.Run("OCD_DIR overrides default", func(t *testing.T) {
		t.Setenv(EnvOcdDir, "/tmp/ocd-test")

		dir, err := BaseDir()
		if err != nil {
			t.Fatalf("BaseDir() error = %v", err)
		}
		if dir != "/tmp/ocd-test" {
			t.Errorf("BaseDir() = %q, want %q", dir, "/tmp/ocd-test")
		}
	})
}

func TestConfigPath(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(EnvOcdDir, "")

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath() error = %v", err)
		}
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "ocd", "config.toml")
		if path != expected {
			t.Errorf("ConfigPath() = %q, want %q", path, expected)
		}
	})

	t.Run("OCD_DIR override", func(t *testing.T) {
		t.Setenv(EnvOcdDir, "/tmp/ocd-test")

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath() error = %v", err)
		}
		if path != "/tmp/ocd-test/config/config.toml" {
			t.Errorf("ConfigPath() = %q", path)
		}
	})
}

func TestDerivedPaths(t *testing.T) {
	t.Setenv(EnvOcdDir, "/tmp/ocd-test")
	t.Setenv(EnvSocketPath, "")
	t.Setenv(EnvPIDPath, "")

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"database", DatabasePath, "/tmp/ocd-test/ocd.db"},
		{"keyring", KeyringDir, "/tmp/ocd-test/keyring"},
		{"transcripts", TranscriptsDir, "/tmp/ocd-test/transcripts"},
		{"profiles", ProfilesDir, "/tmp/ocd-test/profiles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if got := SocketPath(); got != "/tmp/ocd-test/ocd.sock" {
		t.Errorf("SocketPath() = %q", got)
	}
	if got := PIDPath(); got != "/tmp/ocd-test/ocd.pid" {
		t.Errorf("PIDPath() = %q", got)
	}
}

func TestSpecificOverridesWin(t *testing.T) {
	t.Setenv(EnvOcdDir, "/tmp/ocd-test")
	t.Setenv(EnvSocketPath, "/run/custom.sock")
	t.Setenv(EnvPIDPath, "/run/custom.pid")

	if got := SocketPath(); got != "/run/custom.sock" {
		t.Errorf("SocketPath() = %q, want /run/custom.sock", got)
	}
	if got := PIDPath(); got != "/run/custom.pid" {
		t.Errorf("PIDPath() = %q, want /run/custom.pid", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/logs", filepath.Join(home, "logs")},
		{"/abs/path", "/abs/path"},
		{"~", "~"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
