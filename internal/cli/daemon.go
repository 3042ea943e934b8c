package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s22625/ciwatch/internal/daemon"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the polling daemon in the foreground",
		Long: `Run the polling daemon in the foreground.

The daemon polls the CI server, logs status changes to daemon.log in the
state directory and answers "status", "jobs", "ignore" and "unignore" over
a unix socket. Set http_addr in the config to also serve /status and /jobs
over HTTP. Use "ciwatch start" to run it in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}

	return cmd
}

func runDaemon() error {
	cfg, err := loadPollConfig()
	if err != nil {
		return err
	}

	if daemon.IsRunning(cfg.StateDir) {
		pid := daemon.GetRunningPID(cfg.StateDir)
		return withExitCode(ExitInternalError, fmt.Errorf("daemon already running (pid=%d)", pid))
	}

	return daemon.New(cfg, newFactory()).Run()
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPollConfig()
			if err != nil {
				return err
			}
			if daemon.IsRunning(cfg.StateDir) {
				fmt.Fprintf(cmd.OutOrStdout(), "daemon already running (pid=%d)\n", daemon.GetRunningPID(cfg.StateDir))
				return nil
			}
			pid, err := daemon.StartInBackground(cfg.StateDir, forwardedFlags(), forwardedEnv())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daemon started (pid=%d, log=%s)\n", pid, daemon.LogFilePath(cfg.StateDir))
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pid := daemon.GetRunningPID(cfg.StateDir)
			if pid == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "daemon not running")
				return nil
			}
			if err := daemon.Kill(cfg.StateDir); err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daemon stopped (pid=%d)\n", pid)
			return nil
		},
	}
}
