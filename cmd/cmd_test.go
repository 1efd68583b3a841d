package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = "region,units,date\nNorth,10,2024-01-01\nsouth,NA,2024-01-02\nEast,30,2024-01-03\nnorth,25,\n"

// resetFlags clears values and Changed state left behind by a previous
// invocation of the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() != "stringToString" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	recodeMap, chartMap = map[string]string{}, map[string]string{}
	chartTune, chartFilters = map[string]string{}, map[string]string{}
	cfg = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, "command %v", args)
	return out
}

// isolate points HOME at a temp dir so config and projects stay local.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"VIZPREP_PROJECTS_DIR", "VIZPREP_STORE_DRIVER", "VIZPREP_SQLITE_PATH"} {
		t.Setenv(k, "")
	}
	t.Cleanup(func() { cfg = nil })
	return home
}

func writeSales(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))
	return path
}

func TestCLI_ImportCleanChartExport(t *testing.T) {
	home := isolate(t)
	path := writeSales(t, home)

	out := runCmd(t, "import", path, "-d", "q1")
	assert.Contains(t, out, "✓ Project created: sales (4 rows × 3 columns)")
	assert.Contains(t, out, "COLUMN")

	out = runCmd(t, "list")
	assert.Contains(t, out, "- sales (4 rows × 3 columns): q1")

	out = runCmd(t, "impute", "sales", "units", "--method", "median")
	assert.Contains(t, out, "✓ sales:")

	runCmd(t, "recode", "sales", "region", "--map", "north=North")
	out = runCmd(t, "unique", "sales", "region")
	assert.Equal(t, "East\nNorth\nsouth\n", out)

	out = runCmd(t, "outliers", "detect", "sales", "units")
	assert.Contains(t, out, "Outliers: 0")

	out = runCmd(t, "chart", "sales", "histogram", "--map", "x_axis=units")
	assert.Contains(t, out, "histogram (4 rows)")

	chartFile := filepath.Join(home, "hist.json")
	out = runCmd(t, "chart", "sales", "histogram", "--map", "x_axis=units", "-o", chartFile)
	assert.Contains(t, out, "✓ Chart written")
	assert.FileExists(t, chartFile)

	out = runCmd(t, "export", "sales")
	assert.Equal(t, "region,units,date\nNorth,10,2024-01-01\nsouth,25,2024-01-02\nEast,30,2024-01-03\nNorth,25,\n", out)

	out = runCmd(t, "drop", "sales", "date")
	assert.Contains(t, out, "(4 rows × 2 columns)")

	out = runCmd(t, "delete", "sales", "--yes")
	assert.Contains(t, out, "✓ Project deleted: sales")
	out = runCmd(t, "list")
	assert.Contains(t, out, "(no projects)")
}

func TestCLI_ChartFilters(t *testing.T) {
	home := isolate(t)
	runCmd(t, "import", writeSales(t, home), "--name", "s")

	out := runCmd(t, "chart", "s", "count_plot", "--map", "x_axis=region", "--filter", "region=East|North")
	assert.Contains(t, out, "count_plot (2 rows)")

	out = runCmd(t, "chart", "s", "histogram", "--map", "x_axis=units", "--filter", "units=20..")
	assert.Contains(t, out, "histogram (2 rows)")
}

func TestCLI_Errors(t *testing.T) {
	home := isolate(t)
	runCmd(t, "import", writeSales(t, home), "--name", "s")

	_, err := execute(t, "chart", "s", "unknown_kind", "--map", "x_axis=units")
	assert.Error(t, err)

	_, err = execute(t, "impute", "s", "region", "--method", "mean")
	assert.Error(t, err)

	_, err = execute(t, "show", "missing")
	assert.Error(t, err)

	_, err = execute(t, "import", filepath.Join(home, "notes.pdf"))
	assert.Error(t, err)

	_, err = execute(t, "recode", "s", "region")
	assert.Error(t, err)
}

func TestCLI_DeleteWithoutConfirmationAborts(t *testing.T) {
	home := isolate(t)
	runCmd(t, "import", writeSales(t, home), "--name", "s")

	rootCmd.SetIn(bytes.NewBufferString("n\n"))
	defer rootCmd.SetIn(nil)
	out := runCmd(t, "delete", "s")
	assert.Contains(t, out, "Aborted")

	out = runCmd(t, "list")
	assert.Contains(t, out, "- s (4 rows × 3 columns)")
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)

	out := runCmd(t, "config", "set", "chart_timeout_sec", "12")
	assert.Contains(t, out, "Saved config")
	assert.FileExists(t, filepath.Join(home, ".vizprep", "config.yaml"))

	out = runCmd(t, "config", "show")
	assert.Contains(t, out, "chart_timeout_sec: 12")
	assert.Contains(t, out, "store_driver: fs")

	_, err := execute(t, "config", "set", "store_driver", "mongo")
	assert.Error(t, err)
	_, err = execute(t, "config", "set", "no_such_key", "1")
	assert.Error(t, err)
}

func TestCLI_SQLiteStore(t *testing.T) {
	home := isolate(t)
	path := writeSales(t, home)

	runCmd(t, "--store", "sqlite", "import", path)
	out := runCmd(t, "--store", "sqlite", "show", "sales")
	assert.Contains(t, out, "Project: sales")
	assert.Contains(t, out, "Source: sales.csv (csv")

	// The fs store is a separate workspace.
	out = runCmd(t, "list")
	assert.Contains(t, out, "(no projects)")
}

func TestParseFilterFlags(t *testing.T) {
	got := parseFilterFlags(map[string]string{"city": "NY|LA", "age": "18..65", "score": "..5"})
	assert.Equal(t, []any{"NY", "LA"}, got["city"])
	assert.Equal(t, map[string]any{"min": "18", "max": "65"}, got["age"])
	assert.Equal(t, map[string]any{"min": "", "max": "5"}, got["score"])
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []any{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
