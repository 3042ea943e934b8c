package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/s22625/ciwatch/internal/daemon"
	"github.com/s22625/ciwatch/internal/model"
)

const (
	defaultTableWidth = 80
	minNameWidth      = 8
)

type jobsOptions struct {
	Once bool
}

func newJobsCmd() *cobra.Command {
	opts := &jobsOptions{}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs and their status",
		Long:  `List every job reported by the CI server, including ignored ones.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := query(daemon.RequestJobs, opts.Once)
			if err != nil {
				return err
			}
			if globalOpts.JSON {
				return outputJobsJSON(cmd.OutOrStdout(), resp)
			}
			color, width := terminalInfo(os.Stdout)
			return outputJobsTable(cmd.OutOrStdout(), resp.Jobs, color, width)
		},
	}

	addOnceFlag(cmd.Flags(), &opts.Once)

	return cmd
}

// terminalInfo reports whether f wants colour and how wide it is.
func terminalInfo(f *os.File) (bool, int) {
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false, defaultTableWidth
	}
	width := defaultTableWidth
	if w, _, err := term.GetSize(int(fd)); err == nil && w > 0 {
		width = w
	}
	return os.Getenv("NO_COLOR") == "", width
}

func outputJobsJSON(w io.Writer, resp *daemon.Response) error {
	items := resp.Jobs
	if items == nil {
		items = []daemon.JobEntry{}
	}
	output := struct {
		OK       bool              `json:"ok"`
		Observed bool              `json:"observed"`
		Items    []daemon.JobEntry `json:"items"`
	}{
		OK:       true,
		Observed: resp.Observed,
		Items:    items,
	}
	return writeJSON(w, output)
}

func outputJobsTable(w io.Writer, jobs []daemon.JobEntry, color bool, width int) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No jobs found")
		return err
	}

	renderer := lipgloss.NewRenderer(w)
	if color {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
	header := renderer.NewStyle().Bold(true)
	muted := renderer.NewStyle().Faint(true)
	statusStyles := map[model.JobStatus]lipgloss.Style{
		model.JobStatusOK:       renderer.NewStyle().Foreground(lipgloss.Color("42")),
		model.JobStatusFailing:  renderer.NewStyle().Foreground(lipgloss.Color("196")),
		model.JobStatusDisabled: renderer.NewStyle().Foreground(lipgloss.Color("245")),
		model.JobStatusUnknown:  renderer.NewStyle().Foreground(lipgloss.Color("165")),
	}

	nameW := len("JOB")
	for _, j := range jobs {
		if jw := runewidth.StringWidth(j.Name); jw > nameW {
			nameW = jw
		}
	}
	// status and ignored columns plus separators
	if limit := width - 22; nameW > limit {
		nameW = max(limit, minNameWidth)
	}

	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf("%-*s  %-9s  %s", nameW, "JOB", "STATUS", "IGNORED")))
	b.WriteString("\n")
	for _, j := range jobs {
		name := runewidth.FillRight(runewidth.Truncate(j.Name, nameW, "..."), nameW)
		status := model.JobStatus(j.Status)
		statusText := fmt.Sprintf("%-9s", j.Status)
		ignored := ""
		if j.Ignored {
			ignored = "yes"
			b.WriteString(muted.Render(name + "  " + statusText + "  " + ignored))
			b.WriteString("\n")
			continue
		}
		if style, ok := statusStyles[status]; ok {
			statusText = style.Render(statusText)
		}
		b.WriteString(name + "  " + statusText + "  " + ignored)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
