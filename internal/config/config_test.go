package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "fs", c.StoreDriver)
	assert.Equal(t, 30, c.ChartTimeoutSec)
	assert.Equal(t, 7, c.PairPlotMaxColumns)
	assert.Equal(t, 5, c.PreviewRows)
	assert.Equal(t, "127.0.0.1:8080", c.HTTPAddr)
	assert.Equal(t, 64, c.MaxUploadMB)
	assert.Equal(t, filepath.Join(home, ".vizprep", "projects"), c.ProjectsDir)
	assert.Equal(t, filepath.Join(home, ".vizprep", "vizprep.db"), c.SQLitePath)
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_driver: sqlite\nchart_timeout_sec: 12\nprojects_dir: /data/p\n"), 0o644))
	t.Setenv("VIZPREP_CHART_TIMEOUT_SEC", "5")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.StoreDriver)
	assert.Equal(t, 5, c.ChartTimeoutSec)
	assert.Equal(t, "/data/p", c.ProjectsDir)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_driver: postgres\n"), 0o644))
	_, err := Load(path)
	assert.True(t, errs.IsValidation(err))
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("preview_rows", "10"))
	require.NoError(t, c.Set("log_json", "true"))
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".vizprep", "config.yaml"))
	require.NoError(t, err)
	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, again.PreviewRows)
	assert.True(t, again.LogJSON)
}

func TestSet(t *testing.T) {
	c := &Global{StoreDriver: "fs", ChartTimeoutSec: 30, PairPlotMaxColumns: 7, PreviewRows: 5, MaxUploadMB: 64}
	assert.True(t, errs.IsValidation(c.Set("nope", "1")))
	assert.True(t, errs.IsValidation(c.Set("chart_timeout_sec", "soon")))
	assert.True(t, errs.IsValidation(c.Set("pair_plot_max_columns", "1")))
	require.NoError(t, c.Set("http_addr", ":9090"))
	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Len(t, Keys(), 10)
}
