// Package autostart installs or removes a login item that starts the ocd
// daemon: an XDG autostart desktop entry on Linux, a LaunchAgent on macOS.
package autostart

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"
)

// Label identifies the login item.
const Label = "com.tessro.ocd"

// Manager toggles the login item.
type Manager struct {
	// Path is the login item file.
	Path string
	// Args is the command line started at login.
	Args []string

	darwin bool
}

// New returns a Manager for the current platform that starts exe with args.
func New(exe string, args ...string) (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return ForOS(runtime.GOOS, home, exe, args...), nil
}

// ForOS returns a Manager for goos rooted at home.
func ForOS(goos, home, exe string, args ...string) *Manager {
	m := &Manager{Args: append([]string{exe}, args...)}
	if goos == "darwin" {
		m.darwin = true
		m.Path = filepath.Join(home, "Library", "LaunchAgents", Label+".plist")
		return m
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(home, ".config")
	}
	m.Path = filepath.Join(dir, "autostart", "ocd.desktop")
	return m
}

// Enabled reports whether the login item exists.
func (m *Manager) Enabled() (bool, error) {
	_, err := os.Stat(m.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Set installs or removes the login item. Both directions are idempotent.
func (m *Manager) Set(enabled bool) error {
	if !enabled {
		err := os.Remove(m.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	content, err := m.render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.Path), 0o755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	return os.WriteFile(m.Path, content, 0o644)
}

var desktopEntry = template.Must(template.New("desktop").Parse(`[Desktop Entry]
Type=Application
Name=OpenClaw Desktop
Comment=Start the ocd daemon at login
Exec={{.Exec}}
Terminal=false
X-GNOME-Autostart-enabled=true
`))

var launchAgent = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
{{- range .Args}}
		<string>{{.}}</string>
{{- end}}
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`))

func (m *Manager) render() ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if m.darwin {
		args := make([]string, len(m.Args))
		for i, a := range m.Args {
			args[i] = xmlEscape(a)
		}
		err = launchAgent.Execute(&buf, struct {
			Label string
			Args  []string
		}{Label, args})
	} else {
		err = desktopEntry.Execute(&buf, struct{ Exec string }{execLine(m.Args)})
	}
	return buf.Bytes(), err
}

// execLine quotes arguments for a desktop entry Exec key.
func execLine(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"'\\$`") {
			r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
			a = `"` + r.Replace(a) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
