package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/paths"
	"github.com/tessro/ocd/internal/transcript"
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"chats"},
	Short:   "Manage chats",
	Long:    "Commands for the chats of a profile. Chats are addressed by title or id.",
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, err := targetProfile(cmd.Context(), client)
		if err != nil {
			return err
		}
		ix, err := client.ListChats(cmd.Context(), pid)
		if err != nil {
			return fmt.Errorf("list chats: %w", err)
		}
		return render(ix, func(w io.Writer) {
			if len(ix.Chats) == 0 {
				fmt.Fprintln(w, "No chats yet. Create one with: ocd chat new")
				return
			}
			fmt.Fprintln(w, "TITLE\tID\tTHINKING\tWORKER\tUPDATED")
			for _, c := range ix.Chats {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Title, c.ID, orDash(string(c.Thinking)),
					orDash(c.Worker), c.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
		})
	},
}

var chatNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a chat",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, err := targetProfile(cmd.Context(), client)
		if err != nil {
			return err
		}
		var title *string
		if len(args) > 0 {
			title = &args[0]
		}
		c, err := client.CreateChat(cmd.Context(), pid, title)
		if err != nil {
			return fmt.Errorf("create chat: %w", err)
		}
		fmt.Printf("🦞 Created chat: %s (%s)\n", c.Title, c.ID)
		return nil
	},
}

var chatShowCmd = &cobra.Command{
	Use:   "show <chat>",
	Short: "Print a chat's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, chatID, err := targetChat(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		th, err := client.ChatThread(cmd.Context(), pid, chatID)
		if err != nil {
			return fmt.Errorf("read chat: %w", err)
		}
		return render(th, func(w io.Writer) { printThread(w, th.Messages) })
	},
}

var chatRenameCmd = &cobra.Command{
	Use:   "rename <chat> <title>",
	Short: "Rename a chat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, chatID, err := targetChat(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		if _, err := client.RenameChat(cmd.Context(), pid, chatID, args[1]); err != nil {
			return fmt.Errorf("rename chat: %w", err)
		}
		fmt.Printf("🦞 Renamed chat: %s\n", strings.TrimSpace(args[1]))
		return nil
	},
}

var chatDeleteCmd = &cobra.Command{
	Use:   "delete <chat>",
	Short: "Delete a chat and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, chatID, err := targetChat(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		if _, err := client.DeleteChat(cmd.Context(), pid, chatID); err != nil {
			return fmt.Errorf("delete chat: %w", err)
		}
		fmt.Printf("🦞 Deleted chat: %s\n", chatID)
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <chat> <message...>",
	Short: "Send a message and print the reply",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("message is empty")
		}

		client := MustConnect()
		defer client.Close()

		pid, chatID, err := targetChat(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		res, err := client.SendChat(cmd.Context(), pid, chatID, text)
		if err != nil {
			return fmt.Errorf("send: %s", daemon.Message(err))
		}
		last, ok := res.Thread.Last()
		if !ok {
			return nil
		}
		if last.IsError() {
			return fmt.Errorf("agent: %s", strings.TrimSpace(strings.TrimPrefix(last.Text, daemon.ErrorMarker)))
		}
		fmt.Println(last.Text)
		return nil
	},
}

var chatResetCmd = &cobra.Command{
	Use:   "reset <chat>",
	Short: "Clear a chat's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, chatID, err := targetChat(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		if _, err := client.ResetChat(cmd.Context(), pid, chatID); err != nil {
			return fmt.Errorf("reset chat: %w", err)
		}
		fmt.Printf("🦞 Reset chat: %s\n", chatID)
		return nil
	},
}

var (
	chatSetThinking string
	chatSetAgent    string
	chatSetWorker   string
)

var chatSetCmd = &cobra.Command{
	Use:   "set <chat>",
	Short: "Change a chat's thinking level, agent or worker",
	Long: "Change per-chat settings. Only the flags given are changed; " +
		"an empty value clears a setting.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		update, err := chatUpdateFromFlags(cmd)
		if err != nil {
			return err
		}

		client := MustConnect()
		defer client.Close()

		pid, chatID, err := targetChat(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		if _, err := client.UpdateChat(cmd.Context(), pid, chatID, update); err != nil {
			return fmt.Errorf("update chat: %w", err)
		}
		fmt.Printf("🦞 Updated chat: %s\n", chatID)
		return nil
	},
}

// chatUpdateFromFlags builds a partial update from the flags that were set.
func chatUpdateFromFlags(cmd *cobra.Command) (daemon.ChatSettingsUpdate, error) {
	var u daemon.ChatSettingsUpdate
	flags := cmd.Flags()
	if flags.Changed("thinking") {
		level := daemon.ThinkingLevel(chatSetThinking)
		if level != "" && !level.Valid() {
			return u, fmt.Errorf("invalid thinking level %q (want one of %s)", chatSetThinking, thinkingChoices())
		}
		u.Thinking = &level
	}
	if flags.Changed("agent") {
		u.AgentID = &chatSetAgent
	}
	if flags.Changed("worker") {
		u.Worker = &chatSetWorker
	}
	if u.Empty() {
		return u, fmt.Errorf("nothing to change (use --thinking, --agent or --worker)")
	}
	return u, nil
}

func thinkingChoices() string {
	names := make([]string, 0, len(daemon.ThinkingLevels))
	for _, l := range daemon.ThinkingLevels {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

var chatExportOut string

var chatExportCmd = &cobra.Command{
	Use:   "export <chat>",
	Short: "Export a chat as an HTML transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		ctx := cmd.Context()
		pid, chatID, err := targetChat(ctx, client, args[0])
		if err != nil {
			return err
		}
		doc, err := loadTranscript(ctx, client, pid, chatID)
		if err != nil {
			return err
		}

		out := chatExportOut
		if out == "" {
			dir, err := paths.TranscriptsDir()
			if err != nil {
				return err
			}
			out = filepath.Join(dir, chatID+".html")
		}
		if out == "-" {
			return writeTranscript(os.Stdout, doc)
		}

		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create transcript: %w", err)
		}
		if err := writeTranscript(f, doc); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("🦞 Exported %d messages to %s\n", len(doc.Thread.Messages), out)
		return nil
	},
}

// loadTranscript gathers everything an export needs.
func loadTranscript(ctx context.Context, b daemon.Boundary, profileID, chatID string) (transcript.Document, error) {
	var doc transcript.Document
	store, err := b.ListProfiles(ctx)
	if err != nil {
		return doc, fmt.Errorf("list profiles: %w", err)
	}
	if p, ok := store.Find(profileID); ok {
		doc.Profile = p.Name
	}
	ix, err := b.ListChats(ctx, profileID)
	if err != nil {
		return doc, fmt.Errorf("list chats: %w", err)
	}
	c, ok := ix.Find(chatID)
	if !ok {
		return doc, fmt.Errorf("chat %s not found", chatID)
	}
	th, err := b.ChatThread(ctx, profileID, chatID)
	if err != nil {
		return doc, fmt.Errorf("read chat: %w", err)
	}
	doc.Chat = c
	doc.Thread = *th
	doc.Exported = time.Now()
	return doc, nil
}

func writeTranscript(w io.Writer, doc transcript.Document) error {
	r, err := transcript.New()
	if err != nil {
		return err
	}
	if err := r.Render(w, doc); err != nil {
		return fmt.Errorf("render transcript: %w", err)
	}
	return nil
}

// targetChat resolves the profile selection and a chat argument within it.
func targetChat(ctx context.Context, b daemon.Boundary, arg string) (profileID, chatID string, err error) {
	profileID, err = targetProfile(ctx, b)
	if err != nil {
		return "", "", err
	}
	chatID, err = resolveChatArg(ctx, b, profileID, arg)
	if err != nil {
		return "", "", err
	}
	return profileID, chatID, nil
}

// printThread writes messages as a plain transcript.
func printThread(w io.Writer, msgs []daemon.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	for _, m := range msgs {
		label := string(m.Role)
		text := m.Text
		if m.IsError() {
			label = "error"
			text = strings.TrimSpace(strings.TrimPrefix(text, daemon.ErrorMarker))
		}
		fmt.Fprintf(w, "[%s] %s:\t%s\n", m.CreatedAt.Local().Format("15:04"), label,
			strings.ReplaceAll(text, "\n", "\n\t"))
	}
}

func init() {
	chatSetCmd.Flags().StringVar(&chatSetThinking, "thinking", "", "thinking level ("+thinkingChoices()+")")
	chatSetCmd.Flags().StringVar(&chatSetAgent, "agent", "", "agent id")
	chatSetCmd.Flags().StringVar(&chatSetWorker, "worker", "", "worker name")
	chatExportCmd.Flags().StringVarP(&chatExportOut, "out", "O", "", "output file (default ~/.ocd/transcripts/<chat>.html, - for stdout)")

	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatNewCmd)
	chatCmd.AddCommand(chatShowCmd)
	chatCmd.AddCommand(chatRenameCmd)
	chatCmd.AddCommand(chatDeleteCmd)
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatResetCmd)
	chatCmd.AddCommand(chatSetCmd)
	chatCmd.AddCommand(chatExportCmd)
	rootCmd.AddCommand(chatCmd)
}
