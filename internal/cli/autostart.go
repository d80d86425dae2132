package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart [on|off]",
	Short: "Show or change whether the daemon starts at login",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		if len(args) == 1 {
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			if err := client.SetAutostart(cmd.Context(), enabled); err != nil {
				return fmt.Errorf("set autostart: %w", err)
			}
		}

		enabled, err := client.GetAutostart(cmd.Context())
		if err != nil {
			return fmt.Errorf("get autostart: %w", err)
		}
		fmt.Printf("🦞 Autostart: %s\n", onOff(enabled))
		return nil
	},
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	rootCmd.AddCommand(autostartCmd)
}
