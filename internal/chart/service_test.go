package chart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

type memLoader map[string]*dataset.Table

func (m memLoader) LoadSnapshot(ctx context.Context, name string) (*dataset.Table, error) {
	t, ok := m[name]
	if !ok {
		return nil, errs.NotFound("project", name)
	}
	return t, nil
}

func TestServiceGenerateWithFilters(t *testing.T) {
	tbl := people()
	svc := NewService(memLoader{"p": tbl}, nil)
	resp, err := svc.Generate(context.Background(), "p", Request{
		ChartKind:     "histogram",
		ColumnMapping: map[string]any{"x_axis": "age"},
		Filters:       map[string]any{"city": []any{"NY"}},
	})
	require.NoError(t, err)
	assert.Equal(t, KindHistogram, resp.ChartKind)
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, ModeSpec, resp.ChartData.Mode)
	assert.Contains(t, resp.AnalysisText, "- Count: 3")
	assert.Equal(t, 6, tbl.NumRows(), "snapshot must not be modified")

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"analysis_text"`)
	assert.Contains(t, string(b), `"chart_data"`)
}

func TestServiceErrors(t *testing.T) {
	svc := NewService(memLoader{"p": people()}, nil)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "p", Request{ChartKind: "spider"})
	assert.True(t, errs.IsValidation(err))

	_, err = svc.Generate(ctx, "ghost", Request{ChartKind: "histogram", ColumnMapping: map[string]any{"x_axis": "age"}})
	assert.True(t, errs.IsNotFound(err))

	_, err = svc.Generate(ctx, "p", Request{ChartKind: "histogram", ColumnMapping: map[string]any{"x_axis": "age"}, TuningParameters: map[string]any{"nbins": "x"}})
	assert.True(t, errs.IsValidation(err))
}

func TestServiceTimeoutIsPrecondition(t *testing.T) {
	svc := NewService(memLoader{"p": people()}, nil, WithTimeout(time.Nanosecond))
	_, err := svc.Generate(context.Background(), "p", Request{
		ChartKind:     "heatmap",
		ColumnMapping: map[string]any{"columns": []any{"age", "income", "debt"}},
	})
	require.Error(t, err)
	assert.True(t, errs.IsPrecondition(err))
	assert.Contains(t, err.Error(), "exceeded")
}

func TestServiceSeededPairPlotIsDeterministic(t *testing.T) {
	tbl, cols := wide(9)
	svc := NewService(memLoader{"w": tbl}, nil, WithMaxPairColumns(4))
	req := Request{
		ChartKind:        "pair_plot",
		ColumnMapping:    map[string]any{"columns": cols},
		TuningParameters: map[string]any{"seed": 11},
	}
	a, err := svc.Generate(context.Background(), "w", req)
	require.NoError(t, err)
	b, err := svc.Generate(context.Background(), "w", req)
	require.NoError(t, err)
	assert.Len(t, a.ChartData.Spec.Series[0].Dimensions, 4)
	assert.Equal(t, a.AnalysisText, b.AnalysisText)
}

type countingRenderer struct{ calls *int }

func (r countingRenderer) Render(ctx context.Context, s *Spec) (*Output, error) {
	*r.calls++
	return &Output{Mode: ModeSpec, Spec: s}, nil
}

func TestServiceBuildsRendererPerRequest(t *testing.T) {
	calls, built := 0, 0
	svc := NewService(memLoader{"p": people()}, nil, WithRenderer(func() Renderer {
		built++
		return countingRenderer{calls: &calls}
	}))
	for i := 0; i < 2; i++ {
		_, err := svc.Generate(context.Background(), "p", Request{ChartKind: "count_plot", ColumnMapping: map[string]any{"x_axis": "city"}})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, built)
	assert.Equal(t, 2, calls)
}

func TestJSONRendererRejectsEmptySpec(t *testing.T) {
	_, err := NewJSONRenderer().Render(context.Background(), &Spec{Kind: KindHistogram})
	assert.Error(t, err)
}
