// Package openclaw runs the openclaw CLI on behalf of a profile and reads the
// gateway's log files.
package openclaw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tessro/ocd/internal/paths"
)

// ErrNotInstalled is returned when no openclaw binary can be found.
var ErrNotInstalled = errors.New("openclaw not found (set openclaw.path or the profile's OpenClaw path)")

// DefaultTimeout bounds a single openclaw invocation.
const DefaultTimeout = 2 * time.Minute

// Verb is a gateway subcommand.
type Verb string

// Gateway verbs.
const (
	Status  Verb = "status"
	Start   Verb = "start"
	Stop    Verb = "stop"
	Restart Verb = "restart"
)

// Result is the outcome of one invocation. A nonzero ExitCode is not an error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ProfileName derives the openclaw profile for a local profile id. Anything
// outside [A-Za-z0-9] becomes '-'.
func ProfileName(profileID string) string {
	safe := strings.Map(func(r rune) rune {
		if r < 0x80 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, profileID)
	return "ocd-" + safe
}

// Runner executes openclaw.
type Runner struct {
	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	lookPath func(string) (string, error)
}

// NewRunner returns a Runner that searches $PATH.
func NewRunner() *Runner {
	return &Runner{lookPath: exec.LookPath}
}

// Resolve picks the binary: the profile override, then the configured path,
// then openclaw on $PATH.
func (r *Runner) Resolve(override, configured string) (string, error) {
	for _, p := range []string{override, configured} {
		if p = strings.TrimSpace(p); p != "" {
			return paths.ExpandHome(p), nil
		}
	}
	p, err := r.lookPath("openclaw")
	if err != nil {
		return "", ErrNotInstalled
	}
	return p, nil
}

// Run invokes bin with args. The error is non-nil only when the process could
// not be run at all.
func (r *Runner) Run(ctx context.Context, bin string, args ...string) (Result, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := r.command(ctx, bin, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, fmt.Errorf("failed to run openclaw %s: %w", strings.Join(args, " "), err)
	}
}

// command builds the exec.Cmd. Node scripts run under an explicit node
// binary; otherwise node's directory is prepended to PATH for shims.
func (r *Runner) command(ctx context.Context, bin string, args []string) *exec.Cmd {
	if resolved, err := filepath.EvalSymlinks(bin); err == nil {
		bin = resolved
	}
	node, nodeErr := r.lookPath("node")

	var cmd *exec.Cmd
	if isNodeScript(bin) && nodeErr == nil {
		cmd = exec.CommandContext(ctx, node, append([]string{bin}, args...)...)
	} else {
		cmd = exec.CommandContext(ctx, bin, args...)
	}

	env := append(os.Environ(), "NODE_NO_WARNINGS=1", "NODE_OPTIONS=--no-deprecation")
	if nodeErr == nil {
		env = append(env, "PATH="+filepath.Dir(node)+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	cmd.Env = env
	return cmd
}

func isNodeScript(path string) bool {
	return strings.HasSuffix(path, ".mjs") || strings.HasSuffix(path, ".js")
}

// Gateway runs `openclaw --profile <profile> gateway <verb>`.
func (r *Runner) Gateway(ctx context.Context, bin, profile string, verb Verb) (Result, error) {
	switch verb {
	case Status, Start, Stop, Restart:
	default:
		return Result{}, fmt.Errorf("unknown gateway verb %q", verb)
	}
	return r.Run(ctx, bin, "--profile", profile, "gateway", string(verb))
}

// ModelsStatus runs `openclaw --profile <profile> models status --status-plain`.
func (r *Runner) ModelsStatus(ctx context.Context, bin, profile string) (Result, error) {
	return r.Run(ctx, bin, "--profile", profile, "models", "status", "--status-plain")
}

// SetModel runs `openclaw --profile <profile> models set <model>`.
func (r *Runner) SetModel(ctx context.Context, bin, profile, model string) (Result, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return Result{}, errors.New("model required")
	}
	return r.Run(ctx, bin, "--profile", profile, "models", "set", model)
}
