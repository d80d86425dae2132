package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/config"
	"github.com/tessro/ocd/internal/daemon"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change profile settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, err := targetProfile(cmd.Context(), client)
		if err != nil {
			return err
		}
		s, err := client.GetSettings(cmd.Context(), pid)
		if err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
		return render(s, func(w io.Writer) { printSettings(w, s) })
	},
}

func printSettings(w io.Writer, s *daemon.ProfileSettings) {
	dev := s.DevFullExecAuto != nil && *s.DevFullExecAuto
	autoDo := s.AutoDoMode != nil && *s.AutoDoMode
	fmt.Fprintf(w, "openclaw path:\t%s\n", deref(s.OpenclawPath, "(default)"))
	fmt.Fprintf(w, "ollama base url:\t%s\n", deref(s.OllamaBaseURL, "(default)"))
	fmt.Fprintf(w, "ollama model:\t%s\n", deref(s.OllamaModel, "(default)"))
	fmt.Fprintf(w, "dev full exec auto:\t%t\n", dev)
	fmt.Fprintf(w, "auto-do mode:\t%t\n", autoDo)
}

// optionalArg turns "" into nil so the daemon restores the default.
func optionalArg(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var settingsOpenclawPathCmd = &cobra.Command{
	Use:   "openclaw-path [path]",
	Short: "Set the OpenClaw binary for this profile (no argument restores the default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(cmd, func(c *daemon.Client, pid string) (*daemon.ProfileSettings, error) {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return c.SetOpenclawPath(cmd.Context(), pid, optionalArg(path))
		})
	},
}

var settingsOllamaURLCmd = &cobra.Command{
	Use:   "ollama-url [url]",
	Short: "Set the Ollama base URL (no argument restores the default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var url string
		if len(args) > 0 {
			url = args[0]
			if err := config.ValidateBaseURL(url); err != nil {
				return err
			}
		}
		return updateSettings(cmd, func(c *daemon.Client, pid string) (*daemon.ProfileSettings, error) {
			return c.SetOllamaBaseURL(cmd.Context(), pid, optionalArg(url))
		})
	},
}

var settingsOllamaModelCmd = &cobra.Command{
	Use:   "ollama-model [model]",
	Short: "Set the Ollama model (no argument restores the default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(cmd, func(c *daemon.Client, pid string) (*daemon.ProfileSettings, error) {
			var model string
			if len(args) > 0 {
				model = args[0]
			}
			return c.SetOllamaModel(cmd.Context(), pid, optionalArg(model))
		})
	},
}

var settingsDevExecCmd = &cobra.Command{
	Use:   "dev-exec <on|off>",
	Short: "Toggle developer full-exec auto mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		return updateSettings(cmd, func(c *daemon.Client, pid string) (*daemon.ProfileSettings, error) {
			return c.SetDevFullExecAuto(cmd.Context(), pid, enabled)
		})
	},
}

var settingsAutoDoCmd = &cobra.Command{
	Use:   "auto-do <on|off>",
	Short: "Toggle auto-do mode (action requests are answered with tool calls)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		return updateSettings(cmd, func(c *daemon.Client, pid string) (*daemon.ProfileSettings, error) {
			return c.SetAutoDoMode(cmd.Context(), pid, enabled)
		})
	},
}

// updateSettings runs fn against the target profile and prints the result.
func updateSettings(cmd *cobra.Command, fn func(c *daemon.Client, pid string) (*daemon.ProfileSettings, error)) error {
	client := MustConnect()
	defer client.Close()

	pid, err := targetProfile(cmd.Context(), client)
	if err != nil {
		return err
	}
	s, err := fn(client, pid)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return render(s, func(w io.Writer) { printSettings(w, s) })
}

// parseOnOff accepts on/off as well as anything strconv.ParseBool does.
func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}

func init() {
	settingsCmd.AddCommand(settingsOpenclawPathCmd)
	settingsCmd.AddCommand(settingsOllamaURLCmd)
	settingsCmd.AddCommand(settingsOllamaModelCmd)
	settingsCmd.AddCommand(settingsDevExecCmd)
	settingsCmd.AddCommand(settingsAutoDoCmd)
	rootCmd.AddCommand(settingsCmd)
}
