package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validation errors.
var (
	ErrInvalidLogLevel       = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidKeyringBackend = errors.New("keyring backend must be empty or 'file'")
	ErrInvalidBaseURL        = errors.New("base URL must be an absolute http(s) URL")
	ErrNegativeValue         = errors.New("value must not be negative")
)

var validLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidationError wraps a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks a decoded config for values that would only fail later.
func (c *GlobalConfig) Validate() error {
	if c == nil {
		return nil
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return &ValidationError{Field: "log_level", Value: c.LogLevel, Message: "unknown level", Err: ErrInvalidLogLevel}
	}
	switch c.Keyring.Backend {
	case "", "file":
	default:
		return &ValidationError{Field: "keyring.backend", Value: c.Keyring.Backend, Message: "unsupported backend", Err: ErrInvalidKeyringBackend}
	}
	if c.Ollama.BaseURL != "" {
		if err := ValidateBaseURL(c.Ollama.BaseURL); err != nil {
			return &ValidationError{Field: "ollama.base_url", Value: c.Ollama.BaseURL, Message: "not a valid URL", Err: err}
		}
	}

	durations := []struct {
		field string
		value Duration
	}{
		{"daemon.request_timeout", c.Daemon.RequestTimeout},
		{"toasts.info_timeout", c.Toasts.InfoTimeout},
		{"toasts.success_timeout", c.Toasts.SuccessTimeout},
		{"toasts.error_timeout", c.Toasts.ErrorTimeout},
	}
	for _, d := range durations {
		if d.value.Duration < 0 {
			return &ValidationError{Field: d.field, Value: d.value.String(), Message: "must not be negative", Err: ErrNegativeValue}
		}
	}
	if c.Ollama.History < 0 {
		return &ValidationError{Field: "ollama.history", Value: fmt.Sprint(c.Ollama.History), Message: "must not be negative", Err: ErrNegativeValue}
	}
	if c.Gateway.LogLines < 0 {
		return &ValidationError{Field: "gateway.log_lines", Value: fmt.Sprint(c.Gateway.LogLines), Message: "must not be negative", Err: ErrNegativeValue}
	}
	return nil
}

// ValidateBaseURL checks that s is an absolute http or https URL.
func ValidateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	return nil
}
