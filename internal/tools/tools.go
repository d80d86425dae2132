// Package tools runs the tool calls a local model can request while
// answering a chat message: a shell command or an HTTP GET.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

// Name identifies a tool.
type Name string

// Tools the model may call.
const (
	Exec   Name = "exec"
	WebGet Name = "web_get"
	Final  Name = "final"
)

// Defaults for a Runner.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxOutput = 64 << 10
)

// ErrorPrefix marks a tool failure reported back to the model.
const ErrorPrefix = "[tool_error]"

// Call is a tool call encoded by the model as a single JSON object, e.g.
// {"tool":"exec","cmd":"ls"}.
type Call struct {
	Tool Name   `json:"tool"`
	Cmd  string `json:"cmd,omitempty"`
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

// Parse reports whether content is exactly one well-formed tool call.
// Anything else is a plain answer.
func Parse(content string) (Call, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "{") {
		return Call{}, false
	}
	var c Call
	dec := json.NewDecoder(strings.NewReader(content))
	if err := dec.Decode(&c); err != nil {
		return Call{}, false
	}
	if dec.More() {
		return Call{}, false
	}
	switch c.Tool {
	case Exec:
		return c, strings.TrimSpace(c.Cmd) != ""
	case WebGet:
		return c, strings.TrimSpace(c.URL) != ""
	case Final:
		return c, true
	default:
		return Call{}, false
	}
}

// Runner executes tool calls.
type Runner struct {
	// Shell runs exec commands as `Shell -c <cmd>`. Empty means /bin/sh.
	Shell string

	// Timeout bounds one call. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxOutput truncates results. Zero means DefaultMaxOutput.
	MaxOutput int

	HTTP *http.Client
}

// NewRunner returns a Runner with defaults.
func NewRunner() *Runner {
	return &Runner{HTTP: &http.Client{}}
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Runner) limit() int {
	if r.MaxOutput <= 0 {
		return DefaultMaxOutput
	}
	return r.MaxOutput
}

// Exec runs cmd through the shell in dir and returns its stdout. A nonzero
// exit is an error carrying stderr.
func (r *Runner) Exec(ctx context.Context, cmd, dir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	c := exec.CommandContext(ctx, shell, "-c", cmd)
	c.Dir = dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return r.truncate(stdout.String()), nil
	case errors.As(err, &exitErr):
		return "", fmt.Errorf("exec failed (code %d): %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	default:
		return "", fmt.Errorf("failed to spawn shell: %w", err)
	}
}

// WebGet fetches rawURL and returns the body. Only http and https are allowed.
func (r *Runner) WebGet(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("web_get: unsupported url %q", rawURL)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("web_get failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(r.limit())+1))
	if err != nil {
		return "", fmt.Errorf("web_get read: %w", err)
	}
	text := r.truncate(string(body))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("web_get %s: %s", resp.Status, strings.TrimSpace(text))
	}
	return text, nil
}

func (r *Runner) truncate(s string) string {
	if n := r.limit(); len(s) > n {
		return s[:n] + "\n[truncated]"
	}
	return s
}

// Result formats a tool outcome for the model.
func Result(out string, err error) string {
	if err != nil {
		return ErrorPrefix + " " + err.Error()
	}
	return out
}
