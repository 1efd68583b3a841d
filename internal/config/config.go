package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// Global configuration structure.
type Global struct {
	ProjectsDir string `mapstructure:"projects_dir" yaml:"projects_dir"`
	// StoreDriver is "fs" or "sqlite".
	StoreDriver string `mapstructure:"store_driver" yaml:"store_driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" yaml:"log_json"`

	// Chart generation
	ChartTimeoutSec    int `mapstructure:"chart_timeout_sec" yaml:"chart_timeout_sec"`
	PairPlotMaxColumns int `mapstructure:"pair_plot_max_columns" yaml:"pair_plot_max_columns"`
	PreviewRows        int `mapstructure:"preview_rows" yaml:"preview_rows"`

	// HTTP server
	HTTPAddr    string `mapstructure:"http_addr" yaml:"http_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	keys = append(keys, "projects_dir", "sqlite_path")
	sort.Strings(keys)
	return keys
}

var defaults = map[string]any{
	"store_driver":          "fs",
	"log_level":             "info",
	"log_json":              false,
	"chart_timeout_sec":     30,
	"pair_plot_max_columns": 7,
	"preview_rows":          5,
	"http_addr":             "127.0.0.1:8080",
	"max_upload_mb":         64,
}

// Dir is the default configuration directory, ~/.vizprep.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".vizprep"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.vizprep/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("VIZPREP")
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	// Bind keys without defaults so AutomaticEnv reaches them in Unmarshal.
	_ = v.BindEnv("projects_dir")
	_ = v.BindEnv("sqlite_path")

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ProjectsDir == "" {
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(dir, "vizprep.db")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges and enumerations.
func (c *Global) Validate() error {
	switch c.StoreDriver {
	case "fs", "sqlite":
	default:
		return errs.Validation("store_driver", "must be fs or sqlite, got %q", c.StoreDriver)
	}
	if c.ChartTimeoutSec <= 0 {
		return errs.Validation("chart_timeout_sec", "must be positive")
	}
	if c.PairPlotMaxColumns < 2 {
		return errs.Validation("pair_plot_max_columns", "must be at least 2")
	}
	if c.PreviewRows <= 0 {
		return errs.Validation("preview_rows", "must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return errs.Validation("max_upload_mb", "must be positive")
	}
	return nil
}

// Set assigns a single key from its string form, as used by `config set`.
// c is unchanged when the result would not validate.
func (c *Global) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "projects_dir":
		next.ProjectsDir = value
	case "store_driver":
		next.StoreDriver = value
	case "sqlite_path":
		next.SQLitePath = value
	case "log_level":
		next.LogLevel = value
	case "log_json":
		next.LogJSON, err = cast.ToBoolE(value)
	case "chart_timeout_sec":
		next.ChartTimeoutSec, err = cast.ToIntE(value)
	case "pair_plot_max_columns":
		next.PairPlotMaxColumns, err = cast.ToIntE(value)
	case "preview_rows":
		next.PreviewRows, err = cast.ToIntE(value)
	case "http_addr":
		next.HTTPAddr = value
	case "max_upload_mb":
		next.MaxUploadMB, err = cast.ToIntE(value)
	default:
		return errs.Validation("key", "unknown config key %q", key)
	}
	if err != nil {
		return errs.Validation(key, "invalid value %q: %v", value, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
