package openclaw

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeScript creates an executable shell script standing in for openclaw.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "openclaw")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRunner(onPath string) *Runner {
	return &Runner{lookPath: func(name string) (string, error) {
		if name == "openclaw" && onPath != "" {
			return onPath, nil
		}
		return "", exec.ErrNotFound
	}}
}

func TestProfileName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"p_1700000000", "ocd-p-1700000000"},
		{"abc", "ocd-abc"},
		{"a b/c", "ocd-a-b-c"},
		{"é1", "ocd--1"},
	}
	for _, tt := range tests {
		if got := ProfileName(tt.id); got != tt.want {
			t.Errorf("ProfileName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	r := testRunner("/usr/bin/openclaw")

	tests := []struct {
		name       string
		override   string
		configured string
		want       string
	}{
		{"override wins", "/opt/oc", "/etc/oc", "/opt/oc"},
		{"configured", "  ", "/etc/oc", "/etc/oc"},
		{"path", "", "", "/usr/bin/openclaw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.override, tt.configured)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := testRunner("").Resolve("", ""); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("err = %v, want ErrNotInstalled", err)
	}
}

func TestGateway_PassesProfileAndVerb(t *testing.T) {
	bin := writeScript(t, `echo "$@"`+"\n")
	r := testRunner("")

	for _, verb := range []Verb{Status, Start, Stop, Restart} {
		res, err := r.Gateway(context.Background(), bin, "ocd-p1", verb)
		if err != nil {
			t.Fatalf("%s: %v", verb, err)
		}
		want := "--profile ocd-p1 gateway " + string(verb)
		if strings.TrimSpace(res.Stdout) != want {
			t.Errorf("%s stdout = %q, want %q", verb, res.Stdout, want)
		}
		if res.ExitCode != 0 {
			t.Errorf("%s exit = %d", verb, res.ExitCode)
		}
	}

	if _, err := r.Gateway(context.Background(), bin, "ocd-p1", Verb("reboot")); err == nil {
		t.Error("unknown verb accepted")
	}
}

func TestRun_NonzeroExitIsNotError(t *testing.T) {
	bin := writeScript(t, "echo out\necho boom >&2\nexit 3\n")
	res, err := testRunner("").Run(context.Background(), bin)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 || strings.TrimSpace(res.Stderr) != "boom" || strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("res = %+v", res)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	_, err := testRunner("").Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestModels(t *testing.T) {
	bin := writeScript(t, `echo "$@"`+"\n")
	r := testRunner("")
	ctx := context.Background()

	res, err := r.ModelsStatus(ctx, bin, "ocd-p1")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(res.Stdout); got != "--profile ocd-p1 models status --status-plain" {
		t.Errorf("status args = %q", got)
	}

	res, err = r.SetModel(ctx, bin, "ocd-p1", " ollama/llama3 ")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(res.Stdout); got != "--profile ocd-p1 models set ollama/llama3" {
		t.Errorf("set args = %q", got)
	}

	if _, err := r.SetModel(ctx, bin, "ocd-p1", " "); err == nil {
		t.Error("blank model accepted")
	}
}

func TestTailLogs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, OutLog), []byte("a\nb\nc\nd\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		lines int
		want  string
	}{
		{2, "c\nd"},
		{10, "a\nb\nc\nd"},
		{0, "a\nb\nc\nd\n"},
	}
	for _, tt := range tests {
		logs, err := TailLogs(dir, tt.lines)
		if err != nil {
			t.Fatal(err)
		}
		if logs.Out != tt.want {
			t.Errorf("lines=%d Out = %q, want %q", tt.lines, logs.Out, tt.want)
		}
		if logs.Err != "" {
			t.Errorf("missing err log = %q, want empty", logs.Err)
		}
	}

	logs, err := TailLogs(filepath.Join(dir, "absent"), 5)
	if err != nil || logs.Out != "" || logs.Err != "" {
		t.Errorf("missing dir = %+v, %v", logs, err)
	}
}
