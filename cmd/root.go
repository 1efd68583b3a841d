package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
	cfgpkg "github.com/KaramelBytes/vizprep-cli/internal/config"
	"github.com/KaramelBytes/vizprep-cli/internal/logging"
	"github.com/KaramelBytes/vizprep-cli/internal/utils"
)

var (
	cfgFile string
	debug   bool
	// Store overrides (override config if set)
	flagStoreDriver string
	flagProjectsDir string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "vizprep",
	Short: "VizPrep CLI: clean tabular datasets and generate chart specs",
	Long: `VizPrep imports CSV, TSV, JSON, XLSX or Arrow files into projects, infers
column types, applies cleaning operations (impute, drop, recode, outliers) and
produces declarative chart specifications with a short statistical analysis.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.vizprep/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagStoreDriver, "store", "", "store driver: fs or sqlite (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagProjectsDir, "projects-dir", "", "projects directory (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal here; commands that need config report it again.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	applyOverrides(cfg)
}

func applyOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("store") && flagStoreDriver != "" {
		c.StoreDriver = flagStoreDriver
	}
	if f.Changed("projects-dir") && flagProjectsDir != "" {
		c.ProjectsDir = flagProjectsDir
	}
	if debug {
		c.LogLevel = "debug"
	}
	c.ProjectsDir = utils.ExpandHome(c.ProjectsDir)
	c.SQLitePath = utils.ExpandHome(c.SQLitePath)
}

// requireConfig returns the loaded config, loading it on first use.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(c)
	cfg = c
	return cfg, nil
}

func newLogger(c *cfgpkg.Global) (*zap.Logger, error) {
	return logging.New(c.LogLevel, c.LogJSON)
}

// withApp opens the workspace, runs fn and closes everything again.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	a, err := app.Open(ctx, c, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
