package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s22625/ciwatch/internal/daemon"
)

func newIgnoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ignore JOB",
		Short: "Exclude a job from the aggregated status",
		Long: `Exclude a job from the aggregated status of the running daemon.

The job keeps being listed by "ciwatch jobs" and is marked as ignored.
Ignoring is not persisted; add the job to "ignore" in the config file to
ignore it permanently.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendIgnore(cmd, daemon.RequestIgnore, args[0])
		},
	}
}

func newUnignoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unignore JOB",
		Short: "Include an ignored job in the aggregated status again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendIgnore(cmd, daemon.RequestUnignore, args[0])
		},
	}
}

func sendIgnore(cmd *cobra.Command, reqType, job string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !daemon.IsDaemonSocketAvailable(cfg.StateDir) {
		return withExitCode(ExitDaemonNotRunning, fmt.Errorf("daemon not running (start it with \"ciwatch start\")"))
	}

	resp, err := daemon.Send(cfg.StateDir, daemon.Request{Type: reqType, Job: job})
	if err != nil {
		return err
	}

	if globalOpts.JSON {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	if reqType == daemon.RequestIgnore {
		fmt.Fprintf(cmd.OutOrStdout(), "ignoring %s\n", job)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "watching %s again\n", job)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", statusTitle(resp.Status))
	return nil
}
