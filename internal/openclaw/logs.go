package openclaw

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Log file names inside the openclaw logs directory.
const (
	OutLog = "gateway.log"
	ErrLog = "gateway.err.log"
)

// Logs is a tail of both gateway logs.
type Logs struct {
	Out string
	Err string
}

// TailLogs returns the last lines of each gateway log in dir. A missing file
// reads as empty; lines <= 0 returns the whole file.
func TailLogs(dir string, lines int) (Logs, error) {
	out, err := tailFile(filepath.Join(dir, OutLog), lines)
	if err != nil {
		return Logs{}, err
	}
	errOut, err := tailFile(filepath.Join(dir, ErrLog), lines)
	if err != nil {
		return Logs{}, err
	}
	return Logs{Out: out, Err: errOut}, nil
}

func tailFile(path string, n int) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read log file: %w", err)
	}
	raw := string(data)
	if n <= 0 {
		return raw, nil
	}
	all := strings.Split(strings.TrimSuffix(strings.ReplaceAll(raw, "\r\n", "\n"), "\n"), "\n")
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return strings.Join(all, "\n"), nil
}
