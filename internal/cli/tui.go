package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/app"
	"github.com/tessro/ocd/internal/logging"
	"github.com/tessro/ocd/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal user interface",
	Long:  "Launch the interactive TUI for chatting with the agent and managing profiles and the gateway.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := logging.Setup(logging.TUILogPath(), logging.ParseLevel(globalConfig.GetLogLevel()))
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		defer cleanup()

		client, err := ConnectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		o := app.New(client, app.ConfigFrom(globalConfig))
		defer o.Close()

		slog.Info("tui starting", "socket", client.SocketPath())
		return tui.Run(cmd.Context(), o, tui.Options{
			Streamer: client,
			Reconnect: func() error {
				_ = client.Close()
				return client.Connect()
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
