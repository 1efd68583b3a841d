package app

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vizprep-cli/internal/chart"
	"github.com/KaramelBytes/vizprep-cli/internal/cleaning"
	"github.com/KaramelBytes/vizprep-cli/internal/config"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/ingest"
)

const salesCSV = "region,units,date\nNorth,10,2024-01-01\nsouth,NA,2024-01-02\nEast,30,2024-01-03\nnorth,25,\n"

func openApp(t *testing.T, driver string) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Global{
		StoreDriver:        driver,
		ProjectsDir:        filepath.Join(dir, "projects"),
		SQLitePath:         filepath.Join(dir, "vizprep.db"),
		ChartTimeoutSec:    5,
		PairPlotMaxColumns: 7,
		PreviewRows:        2,
	}
	a, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func importSales(t *testing.T, a *App) {
	t.Helper()
	p, err := a.Import(context.Background(), "sales", "q1", "sales.csv", strings.NewReader(salesCSV), ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, "csv", p.Source.Format)
	assert.Equal(t, int64(len(salesCSV)), p.Source.Bytes)
}

func TestWorkflow(t *testing.T) {
	for _, driver := range []string{"fs", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			a := openApp(t, driver)
			importSales(t, a)

			p, err := a.Get(ctx, "sales")
			require.NoError(t, err)
			assert.Equal(t, 4, p.Metadata.Rows)
			d, ok := p.Metadata.Descriptor("date")
			require.True(t, ok)
			assert.Equal(t, "temporal", string(d.Type))
			assert.Equal(t, 1, d.MissingCount)

			var preview []map[string]any
			require.NoError(t, json.Unmarshal([]byte(p.Metadata.FirstNRows), &preview))
			assert.Len(t, preview, 2)

			raw, err := a.Rows(ctx, "sales", "region", "asc")
			require.NoError(t, err)
			var rows []map[string]any
			require.NoError(t, json.Unmarshal(raw, &rows))
			got := make([]string, len(rows))
			for i, r := range rows {
				got[i] = r["region"].(string)
			}
			assert.Equal(t, []string{"East", "North", "north", "south"}, got)

			vals, err := a.Unique(ctx, "sales", "region")
			require.NoError(t, err)
			assert.Equal(t, []string{"East", "North", "north", "south"}, vals)

			md, err := a.Cleaning.Apply(ctx, "sales", cleaning.Impute{Column: "units", Method: cleaning.ImputeMedian})
			require.NoError(t, err)
			d, _ = md.Descriptor("units")
			assert.Equal(t, 0, d.MissingCount)

			resp, err := a.Charts.Generate(ctx, "sales", chart.Request{
				ChartKind:     "bar_chart",
				ColumnMapping: map[string]any{"x_axis": "region", "y_axis": "units"},
			})
			require.NoError(t, err)
			assert.Equal(t, chart.KindBar, resp.ChartKind)
			assert.Equal(t, 4, resp.Rows)

			var buf bytes.Buffer
			require.NoError(t, a.Export(ctx, "sales", &buf))
			assert.Equal(t, "region,units,date\nNorth,10,2024-01-01\nsouth,25,2024-01-02\nEast,30,2024-01-03\nnorth,25,\n", buf.String())

			list, err := a.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)

			require.NoError(t, a.Delete(ctx, "sales"))
			_, err = a.Get(ctx, "sales")
			assert.True(t, errs.IsNotFound(err))
		})
	}
}

func TestImportRejections(t *testing.T) {
	a := openApp(t, "fs")
	ctx := context.Background()
	_, err := a.Import(ctx, "bad name", "", "x.csv", strings.NewReader("a\n1\n"), ingest.Options{})
	assert.True(t, errs.IsValidation(err))
	_, err = a.Import(ctx, "ok", "", "x.parquet", strings.NewReader("a\n1\n"), ingest.Options{})
	assert.True(t, errs.IsValidation(err))

	importSales(t, a)
	_, err = a.Import(ctx, "sales", "", "sales.csv", strings.NewReader(salesCSV), ingest.Options{})
	assert.True(t, errs.IsValidation(err))
}

func TestRowsAndUniqueErrors(t *testing.T) {
	a := openApp(t, "fs")
	importSales(t, a)
	ctx := context.Background()

	_, err := a.Rows(ctx, "sales", "region", "sideways")
	assert.True(t, errs.IsValidation(err))
	_, err = a.Rows(ctx, "sales", "zip", "")
	assert.True(t, errs.IsNotFound(err))
	_, err = a.Unique(ctx, "sales", "zip")
	assert.True(t, errs.IsNotFound(err))
	_, err = a.Unique(ctx, "ghost", "region")
	assert.True(t, errs.IsNotFound(err))
}
