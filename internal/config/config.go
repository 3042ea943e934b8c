package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultInterval is the poll period when none is configured.
	DefaultInterval = 5 * time.Second
	// MinInterval keeps a misconfigured interval from hammering the server.
	MinInterval = time.Second
)

// NotifyConfig switches the terminal notifiers.
type NotifyConfig struct {
	Desktop bool `yaml:"desktop"`
	Bell    bool `yaml:"bell"`
}

// Config holds ciwatch configuration
type Config struct {
	Host     string
	Username string
	Password string
	Interval time.Duration
	Ignore   []string
	LogLevel string
	StateDir string
	HTTPAddr string
	Notify   NotifyConfig
}

type fileConfig struct {
	Host     string   `yaml:"host"`
	Server   string   `yaml:"server"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Token    string   `yaml:"token"`
	Interval string   `yaml:"interval"`
	Ignore   []string `yaml:"ignore"`
	LogLevel string   `yaml:"log_level"`
	StateDir string   `yaml:"state_dir"`
	HTTPAddr string   `yaml:"http_addr"`
	Notify   struct {
		Desktop *bool `yaml:"desktop"`
		Bell    *bool `yaml:"bell"`
	} `yaml:"notify"`
}

const (
	configFile = "config.yaml"
	repoDir    = ".ciwatch"
	appName    = "ciwatch"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Interval: DefaultInterval,
		LogLevel: "info",
		StateDir: defaultStateDir(),
		Notify:   NotifyConfig{Desktop: true, Bell: true},
	}
}

// Load loads configuration with the following precedence (highest first):
// 1. Repo-local .ciwatch/config.yaml in the current directory
// 2. Parent .ciwatch/config.yaml files (searched upward from cwd)
// 3. Environment variables
// 4. Global ~/.config/ciwatch/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	if globalPath := globalConfigPath(); globalPath != "" {
		if err := loadFromFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	repoPaths, err := findRepoConfigs()
	if err != nil {
		return nil, err
	}
	for _, repoPath := range repoPaths {
		if err := loadFromFile(repoPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadFile loads a single explicit config file on top of the defaults and
// the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := loadFromFile(ExpandPath(path, ""), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot be polled.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("CI host not specified (use --host, set CIWATCH_HOST, or create .ciwatch/config.yaml)")
	}
	if c.Interval < MinInterval {
		return fmt.Errorf("interval %s is below the minimum of %s", c.Interval, MinInterval)
	}
	return nil
}

// findRepoConfigs searches upward from cwd for .ciwatch/config.yaml files.
// Returned paths are ordered from furthest ancestor to closest (highest precedence last).
func findRepoConfigs() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := cwd
	var paths []string
	for {
		configPath := filepath.Join(dir, repoDir, configFile)
		if _, err := os.Stat(configPath); err == nil {
			paths = append(paths, configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}

	return paths, nil
}

// globalConfigPath returns the path to global config
func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, configFile)
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".local", "state", appName)
}

// loadFromFile loads config from a YAML file, merging into existing cfg.
// A relative state_dir is resolved against the directory holding .ciwatch
// (or the config file's own directory for the global file).
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	configDir := filepath.Dir(path)
	baseDir := configDir
	if filepath.Base(configDir) == repoDir {
		baseDir = filepath.Dir(configDir)
	}

	host := fileCfg.Host
	if host == "" {
		host = fileCfg.Server
	}
	if host != "" {
		cfg.Host = host
	}
	if fileCfg.Username != "" {
		cfg.Username = fileCfg.Username
	}
	password := fileCfg.Password
	if password == "" {
		password = fileCfg.Token
	}
	if password != "" {
		cfg.Password = password
	}
	if fileCfg.Interval != "" {
		d, err := time.ParseDuration(fileCfg.Interval)
		if err != nil {
			return fmt.Errorf("%s: invalid interval %q: %w", path, fileCfg.Interval, err)
		}
		cfg.Interval = d
	}
	if len(fileCfg.Ignore) > 0 {
		cfg.Ignore = fileCfg.Ignore
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.StateDir != "" {
		cfg.StateDir = ExpandPath(fileCfg.StateDir, baseDir)
	}
	if fileCfg.HTTPAddr != "" {
		cfg.HTTPAddr = fileCfg.HTTPAddr
	}
	if fileCfg.Notify.Desktop != nil {
		cfg.Notify.Desktop = *fileCfg.Notify.Desktop
	}
	if fileCfg.Notify.Bell != nil {
		cfg.Notify.Bell = *fileCfg.Notify.Bell
	}

	return nil
}

// applyEnv applies environment variables to config
func applyEnv(cfg *Config) error {
	if v := os.Getenv("CIWATCH_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("CIWATCH_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("CIWATCH_PASSWORD"); v != "" {
		cfg.Password = v
	} else if v := os.Getenv("CIWATCH_TOKEN"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("CIWATCH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CIWATCH_INTERVAL: %w", err)
		}
		cfg.Interval = d
	}
	if v := os.Getenv("CIWATCH_IGNORE"); v != "" {
		cfg.Ignore = splitList(v)
	}
	if v := os.Getenv("CIWATCH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CIWATCH_STATE_DIR"); v != "" {
		cfg.StateDir = ExpandPath(v, "")
	}
	if v := os.Getenv("CIWATCH_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CIWATCH_NOTIFY_DESKTOP"); v != "" {
		cfg.Notify.Desktop = parseBool(v)
	}
	if v := os.Getenv("CIWATCH_NOTIFY_BELL"); v != "" {
		cfg.Notify.Bell = parseBool(v)
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ExpandPath expands ~ and makes path absolute relative to base
func ExpandPath(path, base string) string {
	if path == "" {
		return ""
	}

	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}

	return path
}
