package cli

import (
	"github.com/spf13/cobra"
)

// stopCmd is a top-level alias for `ocd daemon stop`.
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Long:  "Stop the running ocd daemon. Attached front ends lose their connection.",
	Args:  cobra.NoArgs,
	RunE:  daemonStopCmd.RunE,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
