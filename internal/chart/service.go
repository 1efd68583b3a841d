package chart

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/filter"
)

// DefaultTimeout is the soft wall-clock guard for one chart.
const DefaultTimeout = 30 * time.Second

// Request is a chart request as received from a client.
type Request struct {
	ChartKind        string         `json:"chart_kind"`
	ColumnMapping    map[string]any `json:"column_mapping"`
	TuningParameters map[string]any `json:"tuning_parameters"`
	Filters          map[string]any `json:"filters"`
}

// Response carries the rendered chart and its commentary.
type Response struct {
	ChartKind    Kind    `json:"chart_kind"`
	ChartData    *Output `json:"chart_data"`
	AnalysisText string  `json:"analysis_text"`
	Rows         int     `json:"rows"`
}

// SnapshotLoader is the read side of the project store.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, name string) (*dataset.Table, error)
}

// Service loads the committed snapshot, filters it and dispatches to a generator.
// It never writes to the store.
type Service struct {
	loader         SnapshotLoader
	timeout        time.Duration
	maxPairColumns int
	newRenderer    func() Renderer
	logger         *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithTimeout sets the soft wall-clock guard; d <= 0 keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxPairColumns caps pair-plot columns; n <= 0 keeps the default.
func WithMaxPairColumns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPairColumns = n
		}
	}
}

// WithRenderer installs a renderer factory called once per request.
func WithRenderer(f func() Renderer) Option {
	return func(s *Service) { s.newRenderer = f }
}

// NewService builds a chart service.
func NewService(loader SnapshotLoader, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		loader:         loader,
		timeout:        DefaultTimeout,
		maxPairColumns: DefaultPairPlotColumns,
		newRenderer:    func() Renderer { return NewJSONRenderer() },
		logger:         logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Generate answers one chart request for a project.
func (s *Service) Generate(ctx context.Context, projectName string, req Request) (*Response, error) {
	kind, err := ParseKind(req.ChartKind)
	if err != nil {
		return nil, err
	}
	mapping, err := ParseMapping(req.ColumnMapping)
	if err != nil {
		return nil, err
	}
	tuning, err := ParseTuning(req.TuningParameters)
	if err != nil {
		return nil, err
	}
	for _, knob := range tuning.Ignored {
		s.logger.Warn("tuning parameter ignored", zap.String("project", projectName), zap.String("kind", string(kind)), zap.String("knob", knob))
	}

	t, err := s.loader.LoadSnapshot(ctx, projectName)
	if err != nil {
		return nil, err
	}
	filtered := filter.Apply(t, filter.Parse(req.Filters), s.logger)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	in := &Input{Table: filtered, Mapping: mapping, Tuning: tuning, MaxPairColumns: s.maxPairColumns}
	if tuning.Seed != nil {
		in.Rand = rand.New(rand.NewPCG(*tuning.Seed, *tuning.Seed))
	}
	start := time.Now()
	spec, text, err := Generate(ctx, kind, in)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, errs.Precondition(nil, "%s generation exceeded %s; reduce the data with filters or select fewer columns", kind, s.timeout)
	}
	if err != nil {
		return nil, err
	}
	out, err := s.newRenderer().Render(ctx, spec)
	if err != nil {
		return nil, err
	}
	s.logger.Info("chart generated",
		zap.String("project", projectName),
		zap.String("kind", string(kind)),
		zap.Int("rows", filtered.NumRows()),
		zap.Duration("elapsed", time.Since(start)))
	return &Response{ChartKind: kind, ChartData: out, AnalysisText: text, Rows: filtered.NumRows()}, nil
}
