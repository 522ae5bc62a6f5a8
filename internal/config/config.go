package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for weeksnap.
type Config struct {
	Output   Output        `yaml:"output"`
	Storage  Storage       `yaml:"storage"`
	Logging  Logging       `yaml:"logging"`
	Collect  CollectConfig `yaml:"collect"`
	Identity Identity      `yaml:"identity"`
	Sources  Sources       `yaml:"sources"`
}

// Output controls where run directories are created.
type Output struct {
	Root  string `yaml:"root"`
	Force bool   `yaml:"force"`
}

// Storage holds paths for the run history ledger. An empty HistoryPath
// disables the ledger.
type Storage struct {
	HistoryPath string `yaml:"history_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CollectConfig holds defaults shared by every source.
type CollectConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ToolsDir       string `yaml:"tools_dir"`
	Python         string `yaml:"python"`
	GH             string `yaml:"gh"`
}

// Identity names the person the snapshot is about, as each service knows
// them.
type Identity struct {
	GitHubUser  string `yaml:"github_user"`
	GitHubOrg   string `yaml:"github_org"`
	Email       string `yaml:"email"`
	SlackHandle string `yaml:"slack_handle"`
}

// Sources holds per-source settings.
type Sources struct {
	GitHub       SourceConfig `yaml:"github"`
	Slack        SlackConfig  `yaml:"slack"`
	Gmail        SourceConfig `yaml:"gmail"`
	Drive        SourceConfig `yaml:"drive"`
	Calendar     SourceConfig `yaml:"calendar"`
	Linear       SourceConfig `yaml:"linear"`
	LaunchDarkly SourceConfig `yaml:"launchdarkly"`
}

// SourceConfig holds tuning knobs for one source.
type SourceConfig struct {
	// Enabled defaults to true when omitted.
	Enabled        *bool `yaml:"enabled"`
	DelayMS        int   `yaml:"delay_ms"`
	TimeoutSeconds int   `yaml:"timeout_seconds"`
	Limit          int   `yaml:"limit"`
}

// SlackConfig extends SourceConfig with channel filters.
type SlackConfig struct {
	SourceConfig `yaml:",inline"`
	Channels     []string `yaml:"channels"`
	Count        int      `yaml:"count"`
}

// IsEnabled reports whether the source should run.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Delay returns the pause between consecutive sub-queries.
func (s SourceConfig) Delay() time.Duration {
	return time.Duration(s.DelayMS) * time.Millisecond
}

// Timeout returns the per-command timeout for the source, falling back to
// def when unset.
func (s SourceConfig) Timeout(def time.Duration) time.Duration {
	if s.TimeoutSeconds > 0 {
		return time.Duration(s.TimeoutSeconds) * time.Second
	}
	return def
}

// Timeout returns the default per-command timeout.
func (c CollectConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ---------------------------------------------------------------------------
// Defaults and loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration.
func Default() *Config {
	historyPath := ""
	if dir, err := os.UserCacheDir(); err == nil {
		historyPath = filepath.Join(dir, "weeksnap", "history.db")
	}
	return &Config{
		Output:  Output{Root: "."},
		Storage: Storage{HistoryPath: historyPath},
		Logging: Logging{Level: "info", Format: "text"},
		Collect: CollectConfig{
			TimeoutSeconds: 30,
			Python:         ".venv/bin/python",
			GH:             "gh",
		},
		Sources: Sources{
			GitHub: SourceConfig{Limit: 100},
			Slack:  SlackConfig{Count: 50},
		},
	}
}

// Load reads the YAML configuration file at the given path on top of the
// defaults, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadIfExists behaves like Load but returns the defaults (with environment
// overrides) when path does not exist.
func LoadIfExists(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		applyEnvOverrides(cfg)
		cfg.expandPaths()
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// Validate checks values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	if c.Collect.TimeoutSeconds <= 0 {
		return fmt.Errorf("collect.timeout_seconds must be positive, got %d", c.Collect.TimeoutSeconds)
	}
	for name, sc := range c.Sources.all() {
		if sc.DelayMS < 0 {
			return fmt.Errorf("sources.%s.delay_ms must not be negative", name)
		}
		if sc.TimeoutSeconds < 0 {
			return fmt.Errorf("sources.%s.timeout_seconds must not be negative", name)
		}
	}
	return nil
}

func (s Sources) all() map[string]SourceConfig {
	return map[string]SourceConfig{
		"github":       s.GitHub,
		"slack":        s.Slack.SourceConfig,
		"gmail":        s.Gmail,
		"drive":        s.Drive,
		"calendar":     s.Calendar,
		"linear":       s.Linear,
		"launchdarkly": s.LaunchDarkly,
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEEKSNAP_OUTPUT_ROOT"); v != "" {
		cfg.Output.Root = v
	}

	if v := os.Getenv("WEEKSNAP_TOOLS_DIR"); v != "" {
		cfg.Collect.ToolsDir = v
	}

	if v, ok := os.LookupEnv("WEEKSNAP_HISTORY_PATH"); ok {
		cfg.Storage.HistoryPath = v
	}

	if v := os.Getenv("WEEKSNAP_GITHUB_USER"); v != "" {
		cfg.Identity.GitHubUser = v
	}

	if v := os.Getenv("WEEKSNAP_GITHUB_ORG"); v != "" {
		cfg.Identity.GitHubOrg = v
	}

	if v := os.Getenv("WEEKSNAP_EMAIL"); v != "" {
		cfg.Identity.Email = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) expandPaths() {
	c.Collect.ToolsDir = expandHome(c.Collect.ToolsDir)
	c.Storage.HistoryPath = expandHome(c.Storage.HistoryPath)
	c.Output.Root = expandHome(c.Output.Root)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
