package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/daemon"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Send tray actions to running front ends",
	Long: "Tray actions are fire-and-forget notifications. The daemon forwards them " +
		"to every attached TUI, which reacts as if the action was taken there.",
}

func trayPushCmd(use, short string, kind daemon.PushKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := MustConnect()
			defer client.Close()

			if err := client.Push(cmd.Context(), kind); err != nil {
				return fmt.Errorf("push %s: %w", kind, err)
			}
			fmt.Printf("🦞 Sent %s\n", kind)
			return nil
		},
	}
}

func init() {
	trayCmd.AddCommand(trayPushCmd("new-chat", "Ask front ends to open a new chat", daemon.PushNewChat))
	trayCmd.AddCommand(trayPushCmd("restart-gateway", "Ask front ends to restart the gateway", daemon.PushRestartGateway))
	rootCmd.AddCommand(trayCmd)
}
