package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and profile status",
	Long:  "Display whether the ocd daemon is running, the active profile and its gateway state.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := ConnectClient()
	if err != nil {
		if errors.Is(err, ErrDaemonNotRunning) {
			fmt.Println("🦞 ocd daemon is not running")
			return nil
		}
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()

	ping, err := client.Ping()
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	fmt.Printf("🦞 ocd daemon running (version %s, uptime %s)\n", ping.Version, ping.Uptime)

	ctx := cmd.Context()
	store, err := client.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	p, ok := store.Active()
	if !ok {
		fmt.Println("   No active profile.")
		return nil
	}
	fmt.Printf("   Profile: %s (%d total)\n", p.Name, len(store.Profiles))

	ix, err := client.ListChats(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	fmt.Printf("   Chats: %d\n", len(ix.Chats))

	st, err := client.GatewayStatus(ctx, p.ID)
	if err != nil {
		fmt.Printf("   Gateway: unknown (%v)\n", err)
		return nil
	}
	state := firstLine(st.Stdout)
	if st.ExitCode != 0 {
		state = fmt.Sprintf("exit %d %s", st.ExitCode, firstLine(st.Stderr))
	}
	fmt.Printf("   Gateway: %s\n", orDash(state))
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
