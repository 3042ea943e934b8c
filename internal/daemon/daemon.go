package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/s22625/ciwatch/internal/config"
	"github.com/s22625/ciwatch/internal/httpapi"
	"github.com/s22625/ciwatch/internal/jobs"
	"github.com/s22625/ciwatch/internal/model"
	"github.com/s22625/ciwatch/internal/notify"
)

const (
	shutdownTimeout = 5 * time.Second
	// killTimeout outlasts a poll that is in flight when SIGTERM arrives.
	killTimeout      = 45 * time.Second
	killPollInterval = 100 * time.Millisecond
)

// Daemon runs the pipeline headless, with a log file, a PID file, the
// control socket and an optional HTTP endpoint.
type Daemon struct {
	cfg     *config.Config
	factory jobs.Factory
	logger  Logger
}

// New creates a daemon for cfg. Jobs are fetched through factory.
func New(cfg *config.Config, factory jobs.Factory) *Daemon {
	return &Daemon{cfg: cfg, factory: factory}
}

// Run starts the daemon main loop (blocking) until SIGINT or SIGTERM.
func (d *Daemon) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.RunContext(ctx)
}

// RunContext is Run with an explicit lifetime.
func (d *Daemon) RunContext(ctx context.Context) error {
	stateDir := d.cfg.StateDir
	if err := EnsureStateDir(stateDir); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	logPath := LogFilePath(stateDir)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	d.logger = NewLogger(logFile, d.cfg.LogLevel)

	if err := WritePID(stateDir); err != nil {
		return err
	}
	pid := os.Getpid()
	defer RemovePIDIfOwned(stateDir, pid)

	execPath, _ := os.Executable()
	if err := WriteMetadata(stateDir, Metadata{
		PID:       pid,
		StartedAt: time.Now(),
		Host:      d.cfg.Host,
		Interval:  d.cfg.Interval.String(),
		HTTPAddr:  d.cfg.HTTPAddr,
		ExecPath:  execPath,
	}); err != nil {
		warnf(d.logger, "failed to write metadata: %v", err)
	}
	defer removeMetadataIfOwned(stateDir, pid)

	d.logger.Printf("daemon started (pid=%d, host=%s, interval=%s)", pid, d.cfg.Host, d.cfg.Interval)

	server := model.Server{Host: d.cfg.Host, Username: d.cfg.Username, Password: d.cfg.Password}
	p := NewPipeline(server, d.factory, d.cfg.Ignore, d.cfg.Interval, d.logger)

	var httpSrv *http.Server
	if d.cfg.HTTPAddr != "" {
		api := httpapi.New(p, d.logger)
		p.AddJobsView(api)
		p.AddStatusView(api)
		p.Scheduler.PolledEvent().Register(func(r PollResult) {
			api.SetPollResult(r.At, r.Err)
		})
		httpSrv = &http.Server{
			Addr:         d.cfg.HTTPAddr,
			Handler:      api.Handler(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			d.logger.Printf("http endpoint listening on %s", d.cfg.HTTPAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errorf(d.logger, "http endpoint failed: %v", err)
			}
		}()
	}

	if (d.cfg.Notify.Desktop || d.cfg.Notify.Bell) && isatty.IsTerminal(os.Stderr.Fd()) {
		p.AddStatusView(notify.New(os.Stderr, notify.Options{
			Desktop: d.cfg.Notify.Desktop,
			Bell:    d.cfg.Notify.Bell,
		}))
	}

	socket := NewSocketServer(stateDir, p, d.logger)
	if err := socket.Start(); err != nil {
		return err
	}
	defer socket.Stop()

	err = p.Scheduler.Run(ctx)

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			d.logger.Printf("http shutdown: %v", err)
		}
	}

	d.logger.Printf("daemon stopped")
	return err
}

// StartInBackground launches the daemon as a detached process running
// "<executable> daemon <args...>". It returns the PID of the running
// daemon, which is the existing one if it is already up. env is appended
// to the current environment of the child.
func StartInBackground(stateDir string, args, env []string) (int, error) {
	if IsRunning(stateDir) {
		return GetRunningPID(stateDir), nil
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to find executable: %w", err)
	}

	cmd := &exec.Cmd{
		Path: executable,
		Args: append([]string{executable, "daemon"}, args...),
		Env:  append(os.Environ(), env...),
		SysProcAttr: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}

	// Give it a moment to start and write its PID.
	time.Sleep(100 * time.Millisecond)

	return cmd.Process.Pid, nil
}

// Kill stops the daemon for the given state dir and waits for it to exit.
func Kill(stateDir string) error {
	return killWithin(stateDir, killTimeout)
}

func killWithin(stateDir string, timeout time.Duration) error {
	pid := GetRunningPID(stateDir)
	if pid == 0 {
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for IsProcessRunning(pid) {
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon (pid %d) did not exit within %s", pid, timeout)
		}
		time.Sleep(killPollInterval)
	}

	return RemovePIDIfOwned(stateDir, pid)
}
