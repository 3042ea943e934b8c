package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/s22625/ciwatch/internal/daemon"
	"github.com/s22625/ciwatch/internal/model"
)

type statusOptions struct {
	Once bool
}

func newStatusCmd() *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the aggregated CI status",
		Long: `Show the aggregated status of all non-ignored jobs.

Exits with status 1 when any non-ignored job is failing, so the command
can be used in scripts and shell prompts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := query(daemon.RequestStatus, opts.Once)
			if err != nil {
				return err
			}
			if err := outputStatus(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.Status == string(model.JobStatusFailing) {
				return withExitCode(ExitFailing, nil)
			}
			return nil
		},
	}

	addOnceFlag(cmd.Flags(), &opts.Once)

	return cmd
}

func outputStatus(w io.Writer, resp *daemon.Response) error {
	if globalOpts.JSON {
		out := struct {
			OK        bool   `json:"ok"`
			Observed  bool   `json:"observed"`
			Status    string `json:"status"`
			Message   string `json:"message"`
			PollError string `json:"poll_error,omitempty"`
		}{
			OK:        true,
			Observed:  resp.Observed,
			Status:    resp.Status,
			Message:   resp.Message,
			PollError: resp.PollErr,
		}
		return writeJSON(w, out)
	}

	if !resp.Observed {
		fmt.Fprintln(w, "Status: waiting for first poll")
	} else {
		fmt.Fprintf(w, "Status: %s\n", statusTitle(resp.Status))
		if resp.Message != "" {
			fmt.Fprintln(w, resp.Message)
		}
	}
	if resp.PollErr != "" {
		fmt.Fprintf(w, "last poll failed: %s\n", resp.PollErr)
	}
	return nil
}

// statusTitle renders a status received from the daemon for humans.
func statusTitle(s string) string {
	status, _ := model.NormalizeJobStatus(s)
	return status.Title()
}
