package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/ocd/internal/autostart"
	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/logging"
	"github.com/tessro/ocd/internal/paths"
	"github.com/tessro/ocd/internal/secrets"
	"github.com/tessro/ocd/internal/store"
	"github.com/tessro/ocd/internal/supervisor"
)

var daemonQuiet bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the ocd daemon in the foreground",
	Long: "Run the daemon that owns profiles, chats, secrets and the gateway. " +
		"Front ends and CLI commands talk to it over a unix socket.",
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		if err := client.Shutdown(); err != nil {
			return fmt.Errorf("shutdown daemon: %w", err)
		}
		fmt.Println("🦞 ocd daemon stopped")
		return nil
	},
}

func runDaemon(cmd *cobra.Command, args []string) error {
	level := logging.ParseLevel(globalConfig.GetLogLevel())
	var cleanup func()
	var err error
	if daemonQuiet {
		cleanup, err = logging.Setup("", level)
	} else {
		cleanup, err = logging.SetupMulti("", os.Stderr, level)
	}
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()

	release, err := daemon.AcquirePID(paths.PIDPath())
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("🦞 %w", err)
		}
		return fmt.Errorf("write pid file: %w", err)
	}
	defer release()

	dbPath, err := paths.DatabasePath()
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	sec := secrets.New(secrets.Options{
		Backend: globalConfig.GetKeyringBackend(),
		FileDir: globalConfig.GetKeyringFileDir(),
	})

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	auto, err := autostart.New(exe, "daemon", "--quiet")
	if err != nil {
		return fmt.Errorf("autostart: %w", err)
	}

	sup := supervisor.New(st, sec, auto, supervisor.ConfigFrom(globalConfig))
	srv := daemon.NewServer(paths.SocketPath(), sup)
	sup.SetServer(srv)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			slog.Warn("stop server", "error", err)
		}
	}()

	slog.Info("daemon started", "socket", srv.SocketPath(), "db", dbPath, "pid", os.Getpid())
	if !daemonQuiet {
		fmt.Printf("🦞 ocd daemon listening on %s\n", srv.SocketPath())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		slog.Info("daemon stopping", "signal", sig.String())
	case <-sup.ShutdownCh():
		slog.Info("daemon stopping", "reason", "shutdown request")
	case <-cmd.Context().Done():
		slog.Info("daemon stopping", "reason", "context done")
	}
	return nil
}

func init() {
	daemonCmd.Flags().BoolVarP(&daemonQuiet, "quiet", "q", false, "log to file only")
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}
