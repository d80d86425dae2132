package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/gateway"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Control the OpenClaw gateway",
	Long:  "Run gateway lifecycle commands for a profile and read the gateway logs.",
}

// gatewayActionCmd builds a status/start/stop/restart subcommand.
func gatewayActionCmd(action gateway.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := MustConnect()
			defer client.Close()

			pid, err := targetProfile(cmd.Context(), client)
			if err != nil {
				return err
			}
			st, err := runGatewayAction(cmd.Context(), client, action, pid)
			if err != nil {
				return fmt.Errorf("gateway %s: %w", action, err)
			}
			if err := render(st, func(w io.Writer) { printGatewayStatus(w, st) }); err != nil {
				return err
			}
			if st.ExitCode != 0 {
				return fmt.Errorf("gateway %s exited with code %d", action, st.ExitCode)
			}
			return nil
		},
	}
}

func runGatewayAction(ctx context.Context, svc daemon.GatewayService, action gateway.Action, profileID string) (*daemon.GatewayStatus, error) {
	switch action {
	case gateway.ActionStatus:
		return svc.GatewayStatus(ctx, profileID)
	case gateway.ActionStart:
		return svc.GatewayStart(ctx, profileID)
	case gateway.ActionStop:
		return svc.GatewayStop(ctx, profileID)
	case gateway.ActionRestart:
		return svc.GatewayRestart(ctx, profileID)
	default:
		return nil, fmt.Errorf("unknown gateway action %q", action)
	}
}

func printGatewayStatus(w io.Writer, st *daemon.GatewayStatus) {
	if out := strings.TrimSpace(st.Stdout); out != "" {
		fmt.Fprintln(w, out)
	}
	if errOut := strings.TrimSpace(st.Stderr); errOut != "" {
		fmt.Fprintln(w, errOut)
	}
	if st.ExitCode != 0 {
		fmt.Fprintf(w, "exit code:\t%d\n", st.ExitCode)
	}
}

var gatewayLogsLines int

var gatewayLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the tail of the gateway logs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		lines := gatewayLogsLines
		if !cmd.Flags().Changed("lines") {
			lines = globalConfig.GetGatewayLogLines()
		}
		logs, err := client.GatewayLogs(cmd.Context(), lines)
		if err != nil {
			return fmt.Errorf("gateway logs: %w", err)
		}
		if outputFormat == "yaml" {
			return render(logs, nil)
		}
		fmt.Println("==> gateway.log <==")
		fmt.Println(orNoOutput(logs.Out))
		fmt.Fprintln(os.Stderr, "==> gateway.err.log <==")
		fmt.Fprintln(os.Stderr, orNoOutput(logs.Err))
		return nil
	},
}

func orNoOutput(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}

func init() {
	gatewayLogsCmd.Flags().IntVarP(&gatewayLogsLines, "lines", "n", daemon.DefaultGatewayLogLines, "number of lines (negative for the whole file)")

	gatewayCmd.AddCommand(gatewayActionCmd(gateway.ActionStatus, "Show gateway status"))
	gatewayCmd.AddCommand(gatewayActionCmd(gateway.ActionStart, "Start the gateway"))
	gatewayCmd.AddCommand(gatewayActionCmd(gateway.ActionStop, "Stop the gateway"))
	gatewayCmd.AddCommand(gatewayActionCmd(gateway.ActionRestart, "Restart the gateway"))
	gatewayCmd.AddCommand(gatewayLogsCmd)
	rootCmd.AddCommand(gatewayCmd)
}
