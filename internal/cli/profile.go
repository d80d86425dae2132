package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/daemon"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Manage profiles",
	Long:    "Commands for listing, creating, switching, renaming and deleting profiles.",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		store, err := client.ListProfiles(cmd.Context())
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		return render(store, func(w io.Writer) { printProfiles(w, store) })
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile and make it active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		store, err := client.CreateProfile(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		p, _ := store.Active()
		fmt.Printf("🦞 Created profile: %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <profile>",
	Short: "Make a profile active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		id, err := resolveProfileArg(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		store, err := client.SetActiveProfile(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("select profile: %w", err)
		}
		p, _ := store.Active()
		fmt.Printf("🦞 Active profile: %s\n", p.Name)
		return nil
	},
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename <profile> <name>",
	Short: "Rename a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		id, err := resolveProfileArg(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		store, err := client.RenameProfile(cmd.Context(), id, args[1])
		if err != nil {
			return fmt.Errorf("rename profile: %w", err)
		}
		p, _ := store.Find(id)
		fmt.Printf("🦞 Renamed profile: %s\n", p.Name)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile>",
	Short: "Delete a profile and its chats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		id, err := resolveProfileArg(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		if _, err := client.DeleteProfile(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete profile: %s", daemon.Message(err))
		}
		fmt.Printf("🦞 Deleted profile: %s\n", args[0])
		return nil
	},
}

// printProfiles writes the profile table. The active profile is starred.
func printProfiles(w io.Writer, store *daemon.ProfilesStore) {
	fmt.Fprintln(w, "  NAME\tID\tCREATED")
	for _, p := range store.Profiles {
		mark := " "
		if p.ID == store.ActiveProfileID {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\n", mark, p.Name, p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileRenameCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
