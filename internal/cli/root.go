package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/s22625/ciwatch/internal/config"
	"github.com/s22625/ciwatch/internal/jenkins"
	"github.com/s22625/ciwatch/internal/jobs"
)

// Exit codes
const (
	ExitOK               = 0
	ExitFailing          = 1
	ExitConfigError      = 2
	ExitDaemonNotRunning = 3
	ExitInternalError    = 10
)

// GlobalOptions holds options shared across all commands
type GlobalOptions struct {
	ConfigPath string
	Host       string
	Username   string
	Password   string
	Interval   time.Duration
	StateDir   string
	LogLevel   string
	JSON       bool
}

var globalOpts = &GlobalOptions{}

// newFactory builds the client factory; tests replace it.
var newFactory = func() jobs.Factory {
	return jenkins.Factory{}
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// rootCmd represents the base command
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ciwatch",
		Short: "Watch CI job status from the terminal",
		Long: `ciwatch polls a Jenkins server for the status of its jobs, aggregates
them into a single status and tells you when it changes.

Jobs can be ignored so that a known-broken job does not mask the rest.
Run "ciwatch watch" for the dashboard or "ciwatch start" for a background
daemon that other commands query.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	bindGlobalFlags(cmd.PersistentFlags(), globalOpts)

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newJobsCmd())
	cmd.AddCommand(newIgnoreCmd())
	cmd.AddCommand(newUnignoreCmd())

	return cmd
}

func bindGlobalFlags(fs *pflag.FlagSet, opts *GlobalOptions) {
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: .ciwatch/config.yaml, ~/.config/ciwatch/config.yaml)")
	fs.StringVar(&opts.Host, "host", "", "Jenkins host (or set CIWATCH_HOST; FAKE for a demo server)")
	fs.StringVar(&opts.Username, "username", "", "Jenkins username")
	fs.StringVar(&opts.Password, "password", "", "Jenkins password or API token")
	fs.DurationVar(&opts.Interval, "interval", 0, "Poll interval (default 5s)")
	fs.StringVar(&opts.StateDir, "state-dir", "", "Directory for daemon pid, log and socket")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (error|warn|info|debug)")
	fs.BoolVar(&opts.JSON, "json", false, "Output in JSON format")
}

// addOnceFlag registers --once on commands that can bypass the daemon.
func addOnceFlag(fs *pflag.FlagSet, once *bool) {
	fs.BoolVar(once, "once", false, "Poll the CI server directly instead of asking the daemon")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintln(os.Stderr, exitErr.err)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitInternalError)
	}
}

// loadConfig resolves configuration.
// Precedence: flags > local .ciwatch/config.yaml > parent .ciwatch/config.yaml > CIWATCH_* env > ~/.config/ciwatch/config.yaml
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globalOpts.ConfigPath != "" {
		cfg, err = config.LoadFile(globalOpts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	if globalOpts.Host != "" {
		cfg.Host = globalOpts.Host
	}
	if globalOpts.Username != "" {
		cfg.Username = globalOpts.Username
	}
	if globalOpts.Password != "" {
		cfg.Password = globalOpts.Password
	} else if v := os.Getenv(forwardedPasswordEnv); v != "" {
		cfg.Password = v
	}
	if globalOpts.Interval != 0 {
		cfg.Interval = globalOpts.Interval
	}
	if globalOpts.StateDir != "" {
		cfg.StateDir = config.ExpandPath(globalOpts.StateDir, "")
	}
	if globalOpts.LogLevel != "" {
		cfg.LogLevel = globalOpts.LogLevel
	}
	return cfg, nil
}

// loadPollConfig is loadConfig for commands that talk to the CI server.
func loadPollConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return cfg, nil
}

// forwardedPasswordEnv carries --password to a background daemon, keeping
// it out of the process arguments. It takes the flag's precedence.
const forwardedPasswordEnv = "CIWATCH_FORWARDED_PASSWORD"

// forwardedFlags returns the global flags set on this invocation, for
// passing on to a background daemon. The password travels in
// forwardedEnv instead.
func forwardedFlags() []string {
	var args []string
	add := func(name, value string) {
		if value != "" {
			args = append(args, "--"+name, value)
		}
	}
	add("config", globalOpts.ConfigPath)
	add("host", globalOpts.Host)
	add("username", globalOpts.Username)
	if globalOpts.Interval != 0 {
		add("interval", globalOpts.Interval.String())
	}
	add("state-dir", globalOpts.StateDir)
	add("log-level", globalOpts.LogLevel)
	return args
}

// forwardedEnv returns the environment entries a background daemon needs
// on top of the current environment.
func forwardedEnv() []string {
	if globalOpts.Password == "" {
		return nil
	}
	return []string{forwardedPasswordEnv + "=" + globalOpts.Password}
}
