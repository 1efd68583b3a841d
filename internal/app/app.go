// Package app wires the store, cleaning and chart services into the
// workspace operations shared by the CLI and the HTTP API.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/chart"
	"github.com/KaramelBytes/vizprep-cli/internal/cleaning"
	"github.com/KaramelBytes/vizprep-cli/internal/config"
	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/ingest"
	"github.com/KaramelBytes/vizprep-cli/internal/project"
	"github.com/KaramelBytes/vizprep-cli/internal/store"
)

// App is one open workspace.
type App struct {
	Store    store.Store
	Cleaning *cleaning.Service
	Charts   *chart.Service

	locks  *store.KeyedMutex
	synth  *dataset.Synthesizer
	logger *zap.Logger
}

// Open builds an App from configuration, opening the configured store.
func Open(ctx context.Context, cfg *config.Global, logger *zap.Logger) (*App, error) {
	st, err := store.Open(ctx, cfg.StoreDriver, cfg.ProjectsDir, cfg.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return New(st, logger,
		chart.WithTimeout(time.Duration(cfg.ChartTimeoutSec)*time.Second),
		chart.WithMaxPairColumns(cfg.PairPlotMaxColumns),
	).WithPreviewRows(cfg.PreviewRows), nil
}

// New wires services around an existing store.
func New(st store.Store, logger *zap.Logger, chartOpts ...chart.Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Store:  st,
		locks:  store.NewKeyedMutex(),
		synth:  &dataset.Synthesizer{},
		logger: logger,
	}
	a.Cleaning = cleaning.NewService(st, a.locks, a.synth, logger)
	a.Charts = chart.NewService(st, logger, chartOpts...)
	return a
}

// WithPreviewRows sets the metadata preview length; n <= 0 keeps the default.
func (a *App) WithPreviewRows(n int) *App {
	a.synth.PreviewRows = n
	return a
}

// Close releases the store.
func (a *App) Close() error { return a.Store.Close() }

// Import creates a project from an uploaded file.
func (a *App) Import(ctx context.Context, name, description, filename string, r io.Reader, opt ingest.Options) (*project.Project, error) {
	if err := project.ValidateName(name); err != nil {
		return nil, err
	}
	cr := &countingReader{r: r}
	t, format, err := ingest.Read(cr, filename, opt)
	if err != nil {
		return nil, err
	}
	md, err := a.synth.Synthesize(ctx, t)
	if err != nil {
		return nil, err
	}
	p := project.NewProject(name, description, "")
	p.Source = &project.Source{
		Name:       filepath.Base(filename),
		Format:     format,
		Bytes:      cr.n,
		ImportedAt: p.CreatedAt,
	}

	unlock := a.locks.Lock(name)
	defer unlock()
	if err := a.Store.Create(ctx, p, t, md); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the project record with its current metadata.
func (a *App) Get(ctx context.Context, name string) (*project.Project, error) {
	return a.Store.Get(ctx, name)
}

// List returns all projects sorted by name.
func (a *App) List(ctx context.Context) ([]*project.Project, error) {
	return a.Store.List(ctx)
}

// Delete removes a project and its snapshot.
func (a *App) Delete(ctx context.Context, name string) error {
	unlock := a.locks.Lock(name)
	defer unlock()
	return a.Store.Delete(ctx, name)
}

// Rows returns every row of the snapshot as JSON records, optionally sorted.
func (a *App) Rows(ctx context.Context, name, sortKey, direction string) ([]byte, error) {
	order, err := dataset.ParseSortOrder(direction)
	if err != nil {
		return nil, err
	}
	t, err := a.Store.LoadSnapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	rows, err := dataset.SortedRows(t, sortKey, order)
	if err != nil {
		return nil, err
	}
	return dataset.RowsJSON(t, rows)
}

// Unique returns the sorted distinct non-missing values of a column as text.
func (a *App) Unique(ctx context.Context, name, column string) ([]string, error) {
	t, err := a.Store.LoadSnapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	return dataset.UniqueTexts(c), nil
}

// Export writes the current snapshot as CSV.
func (a *App) Export(ctx context.Context, name string, w io.Writer) error {
	t, err := a.Store.LoadSnapshot(ctx, name)
	if err != nil {
		return err
	}
	return ingest.WriteCSV(w, t)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
