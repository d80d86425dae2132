package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/daemon"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the agent's model status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, err := targetProfile(cmd.Context(), client)
		if err != nil {
			return err
		}
		st, err := client.ModelsStatus(cmd.Context(), pid)
		if err != nil {
			return fmt.Errorf("models status: %w", err)
		}
		return printModels(st)
	},
}

var modelsSetCmd = &cobra.Command{
	Use:   "set <model>",
	Short: "Set the agent's default model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, err := targetProfile(cmd.Context(), client)
		if err != nil {
			return err
		}
		st, err := client.SetDefaultModel(cmd.Context(), pid, args[0])
		if err != nil {
			return fmt.Errorf("set model: %w", err)
		}
		return printModels(st)
	},
}

func printModels(st *daemon.ModelsStatus) error {
	err := render(st, func(w io.Writer) {
		fmt.Fprintln(w, strings.TrimSpace(st.Stdout))
		if s := strings.TrimSpace(st.Stderr); s != "" {
			fmt.Fprintln(w, s)
		}
	})
	if err != nil {
		return err
	}
	if st.ExitCode != 0 {
		return fmt.Errorf("openclaw models exited with code %d", st.ExitCode)
	}
	return nil
}

func init() {
	modelsCmd.AddCommand(modelsSetCmd)
	rootCmd.AddCommand(modelsCmd)
}
