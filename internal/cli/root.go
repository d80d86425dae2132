// Package cli implements the ocd command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/config"
	"github.com/tessro/ocd/internal/paths"
)

// ocdDir is the global --ocd-dir flag value.
var ocdDir string

// profileFlag selects the profile a command acts on. Empty means the active one.
var profileFlag string

// globalConfig is loaded before every command. Nil means defaults.
var globalConfig *config.GlobalConfig

var rootCmd = &cobra.Command{
	Use:   "ocd",
	Short: "OpenClaw desktop companion",
	Long:  "ocd manages OpenClaw profiles, chats and the gateway process from the terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set OCD_DIR so every path helper sees the override.
		if ocdDir != "" {
			if err := os.Setenv(paths.EnvOcdDir, ocdDir); err != nil {
				return err
			}
		}
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		globalConfig = cfg
		return nil
	},
	SilenceUsage: true,
}

// OcdDir returns the value of the --ocd-dir flag.
func OcdDir() string {
	return ocdDir
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ocdDir, "ocd-dir", "", "base directory for ocd data (overrides ~/.ocd)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table or yaml")
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "profile name or id (default: the active profile)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
