package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config *GlobalConfig
		want   string
	}{
		{"nil config", nil, DefaultLogLevel},
		{"empty log level", &GlobalConfig{}, DefaultLogLevel},
		{"custom log level", &GlobalConfig{LogLevel: "debug"}, "debug"},
		{"warn level", &GlobalConfig{LogLevel: "warn"}, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.GetLogLevel(); got != tt.want {
				t.Errorf("GetLogLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToastTimeouts(t *testing.T) {
	tests := []struct {
		name        string
		config      *GlobalConfig
		wantSuccess time.Duration
		wantError   time.Duration
	}{
		{"nil config", nil, DefaultSuccessTimeout, DefaultErrorTimeout},
		{"empty", &GlobalConfig{}, DefaultSuccessTimeout, DefaultErrorTimeout},
		{"custom", &GlobalConfig{Toasts: ToastConfig{
			SuccessTimeout: Duration{time.Second},
			ErrorTimeout:   Duration{20 * time.Second},
		}}, time.Second, 20 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.GetSuccessTimeout(); got != tt.wantSuccess {
				t.Errorf("GetSuccessTimeout() = %v, want %v", got, tt.wantSuccess)
			}
			if got := tt.config.GetErrorTimeout(); got != tt.wantError {
				t.Errorf("GetErrorTimeout() = %v, want %v", got, tt.wantError)
			}
		})
	}
}

func TestDefaultErrorOutlivesSuccess(t *testing.T) {
	var c *GlobalConfig
	if c.GetErrorTimeout() <= c.GetSuccessTimeout() {
		t.Errorf("error timeout %v should be longer than success timeout %v",
			c.GetErrorTimeout(), c.GetSuccessTimeout())
	}
}

func TestLoadGlobalConfigFromPath(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadGlobalConfigFromPath(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg != nil {
			t.Errorf("expected nil config, got %+v", cfg)
		}
	})

	t.Run("full file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
log_level = "debug"
secret_key = "openai.key"

[daemon]
request_timeout = "90s"

[openclaw]
path = "/opt/openclaw/bin/openclaw"

[ollama]
base_url = "http://gpu-box:11434"
model = "llama3"
history = 8

[toasts]
success_timeout = "1s"

[gateway]
log_lines = 50
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadGlobalConfigFromPath(path)
		if err != nil {
			t.Fatalf("LoadGlobalConfigFromPath() error = %v", err)
		}
		if cfg.GetLogLevel() != "debug" {
			t.Errorf("log level = %q", cfg.GetLogLevel())
		}
		if cfg.GetSecretKey() != "openai.key" {
			t.Errorf("secret key = %q", cfg.GetSecretKey())
		}
		if cfg.GetRequestTimeout() != 90*time.Second {
			t.Errorf("request timeout = %v", cfg.GetRequestTimeout())
		}
		if cfg.GetOpenclawPath() != "/opt/openclaw/bin/openclaw" {
			t.Errorf("openclaw path = %q", cfg.GetOpenclawPath())
		}
		if cfg.GetOllamaBaseURL() != "http://gpu-box:11434" || cfg.GetOllamaModel() != "llama3" {
			t.Errorf("ollama = %q %q", cfg.GetOllamaBaseURL(), cfg.GetOllamaModel())
		}
		if cfg.GetOllamaHistory() != 8 {
			t.Errorf("history = %d", cfg.GetOllamaHistory())
		}
		if cfg.GetSuccessTimeout() != time.Second {
			t.Errorf("success timeout = %v", cfg.GetSuccessTimeout())
		}
		if cfg.GetErrorTimeout() != DefaultErrorTimeout {
			t.Errorf("error timeout = %v, want default", cfg.GetErrorTimeout())
		}
		if cfg.GetGatewayLogLines() != 50 {
			t.Errorf("log lines = %d", cfg.GetGatewayLogLines())
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[daemon]\nrequest_timeout = \"soon\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadGlobalConfigFromPath(path); err == nil {
			t.Error("expected error for invalid duration")
		}
	})
}
