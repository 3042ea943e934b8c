package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/s22625/ciwatch/internal/daemon"
	"github.com/s22625/ciwatch/internal/model"
	"github.com/s22625/ciwatch/internal/monitor"
	"github.com/s22625/ciwatch/internal/notify"
	"github.com/s22625/ciwatch/internal/status"
)

type watchOptions struct {
	NoDesktop bool
	NoBell    bool
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the interactive dashboard",
		Long: `Poll the CI server in this process and show the job dashboard.

Keys: j/k move, i toggles ignore on the selected job, h hides ignored
jobs, r polls now, q quits. Dashboard ignores are kept in the state directory.
Status changes raise a desktop notification and ring the terminal bell
unless disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoDesktop, "no-desktop", false, "Disable desktop notifications")
	cmd.Flags().BoolVar(&opts.NoBell, "no-bell", false, "Disable the terminal bell")

	return cmd
}

func runWatch(opts *watchOptions) error {
	cfg, err := loadPollConfig()
	if err != nil {
		return err
	}

	if err := daemon.EnsureStateDir(cfg.StateDir); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	logFile, err := os.OpenFile(daemon.LogFilePath(cfg.StateDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := daemon.NewLogger(logFile, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := monitor.LoadUISettings(cfg.StateDir)
	ignore := append(slices.Clone(cfg.Ignore), settings.Ignored...)

	server := model.Server{Host: cfg.Host, Username: cfg.Username, Password: cfg.Password}
	p := daemon.NewPipeline(server, newFactory(), ignore, cfg.Interval, logger)

	dash := monitor.NewDashboard(p, cfg.Host, cfg.Interval)
	dash.SetHideIgnored(settings.HideIgnored)
	program := dash.Program(ctx)
	view := monitor.NewView(program)
	p.AddJobsView(view)
	p.Scheduler.PolledEvent().Register(func(r daemon.PollResult) {
		view.SetPollResult(r.At, r.Err)
	})

	statusViews := []status.View{view}
	notifyOpts := notify.Options{
		Desktop: cfg.Notify.Desktop && !opts.NoDesktop,
		Bell:    cfg.Notify.Bell && !opts.NoBell,
	}
	if notifyOpts.Desktop || notifyOpts.Bell {
		statusViews = append(statusViews, notify.New(os.Stderr, notifyOpts))
	}
	p.AddStatusView(status.NewMultiView(statusViews))

	logger.Printf("watch started (host=%s, interval=%s)", cfg.Host, cfg.Interval)

	done := make(chan error, 1)
	go func() {
		done <- p.Scheduler.Run(ctx)
	}()

	_, err = program.Run()
	cancel()
	<-done

	settings.HideIgnored = dash.HideIgnored()
	settings.Ignored = nil
	for _, name := range p.Filter.Ignored() {
		if !slices.Contains(cfg.Ignore, name) {
			settings.Ignored = append(settings.Ignored, name)
		}
	}
	if saveErr := monitor.SaveUISettings(cfg.StateDir, settings); saveErr != nil {
		logger.Warnf("failed to save dashboard settings: %v", saveErr)
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
