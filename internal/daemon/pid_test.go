package daemon

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

func TestWriteReadPID(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "subdir", "test.pid")

	if err := WritePID(pidPath); err != nil {
		t.Fatalf("WritePID: %v", err)
	}

	pid, err := ReadPID(pidPath)
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("ReadPID() = %d, want %d", pid, os.Getpid())
	}
}

func TestReadPID_Errors(t *testing.T) {
	if _, err := ReadPID("/nonexistent/path/test.pid"); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	pidPath := filepath.Join(t.TempDir(), "bad.pid")
	if err := os.WriteFile(pidPath, []byte("not-a-pid\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPID(pidPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestRemovePID(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "test.pid")
	if err := WritePID(pidPath); err != nil {
		t.Fatal(err)
	}
	if err := RemovePID(pidPath); err != nil {
		t.Fatalf("RemovePID: %v", err)
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("PID file still exists")
	}
	if err := RemovePID(pidPath); err != nil {
		t.Errorf("RemovePID on missing file: %v", err)
	}
}

func TestIsProcessRunning(t *testing.T) {
	tests := []struct {
		name string
		pid  int
		want bool
	}{
		{"current process", os.Getpid(), true},
		{"zero", 0, false},
		{"negative", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsProcessRunning(tt.pid); got != tt.want {
				t.Errorf("IsProcessRunning(%d) = %v, want %v", tt.pid, got, tt.want)
			}
		})
	}
}

// deadPID returns the pid of a process that has already exited.
func deadPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run helper process: %v", err)
	}
	return cmd.Process.Pid
}

func TestCleanStalePID(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "stale.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(deadPID(t))+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if !CleanStalePID(pidPath) {
		t.Error("expected stale PID to be cleaned")
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("stale PID file still exists")
	}
}

func TestAcquirePID(t *testing.T) {
	t.Run("fresh", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "ocd.pid")
		release, err := AcquirePID(pidPath)
		if err != nil {
			t.Fatalf("AcquirePID: %v", err)
		}
		if running, pid := IsDaemonRunning(pidPath); !running || pid != os.Getpid() {
			t.Errorf("IsDaemonRunning() = %v, %d", running, pid)
		}
		release()
		if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
			t.Error("release did not remove PID file")
		}
	})

	t.Run("stale file is replaced", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "ocd.pid")
		if err := os.WriteFile(pidPath, []byte(strconv.Itoa(deadPID(t))), 0600); err != nil {
			t.Fatal(err)
		}
		release, err := AcquirePID(pidPath)
		if err != nil {
			t.Fatalf("AcquirePID: %v", err)
		}
		release()
	})

	t.Run("live owner", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "ocd.pid")
		// pid 1 is always alive; signalling it may be EPERM, which still counts.
		if err := os.WriteFile(pidPath, []byte("1\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if os.Getpid() == 1 {
			t.Skip("running as pid 1")
		}
		if _, err := AcquirePID(pidPath); !errors.Is(err, ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning, got %v", err)
		}
	})
}
