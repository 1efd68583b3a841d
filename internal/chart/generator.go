// Package chart dispatches chart requests to one generator per chart kind.
// Every generator validates its column roles, computes the statistics its
// commentary needs, and builds a declarative Spec.
package chart

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// DefaultPairPlotColumns caps the number of columns in a scatter matrix.
const DefaultPairPlotColumns = 7

// Input is everything a generator needs. Table is already filtered.
type Input struct {
	Table   *dataset.Table
	Mapping Mapping
	Tuning  Tuning
	// Rand drives pair-plot column sampling. Nil means a time-seeded source.
	Rand *rand.Rand
	// MaxPairColumns defaults to DefaultPairPlotColumns when <= 0.
	MaxPairColumns int
}

// Generator builds one chart kind.
type Generator interface {
	Kind() Kind
	Generate(ctx context.Context, in *Input) (*Spec, string, error)
}

var registry = map[Kind]Generator{}

func register(g Generator) { registry[g.Kind()] = g }

func init() {
	for _, g := range []Generator{
		histogramGen{}, kdeGen{}, rugGen{},
		countGen{}, pieGen{kind: KindPie, limit: 20}, pieGen{kind: KindPie3D, limit: 15},
		scatterGen{}, densityGen{kind: KindDensity}, densityGen{kind: KindHexbin},
		bubbleGen{}, scatter3DGen{},
		seriesGen{kind: KindLine}, seriesGen{kind: KindArea},
		barGen{}, stackedBarGen{}, violinGen{},
		heatmapGen{}, pairPlotGen{}, parallelGen{},
		hierarchyGen{kind: KindSunburst}, hierarchyGen{kind: KindTreemap},
	} {
		register(g)
	}
}

// Lookup returns the generator for k.
func Lookup(k Kind) (Generator, error) {
	g, ok := registry[k]
	if !ok {
		return nil, errs.Validation("chart_kind", "unsupported chart kind %q", k)
	}
	return g, nil
}

// Generate runs the generator for k and applies the tuning knobs.
func Generate(ctx context.Context, k Kind, in *Input) (*Spec, string, error) {
	g, err := Lookup(k)
	if err != nil {
		return nil, "", err
	}
	spec, text, err := g.Generate(ctx, in)
	if err != nil {
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	applyTuning(spec, in.Tuning)
	return spec, text, nil
}

// resolve fetches the column mapped to role.
func resolve(in *Input, role, name string) (*dataset.Column, error) {
	if name == "" {
		return nil, errs.Validation(role, "required role '%s' is not mapped to a column", role)
	}
	return in.Table.Column(name)
}

// resolveTyped fetches a column and checks its inferred type.
func resolveTyped(in *Input, kind Kind, role, name string, want ...dataset.ColumnType) (*dataset.Column, dataset.ColumnType, error) {
	c, err := resolve(in, role, name)
	if err != nil {
		return nil, "", err
	}
	got := dataset.ClassifySample(c)
	for _, w := range want {
		if got == w {
			return c, got, nil
		}
	}
	return nil, got, errs.Validation(role, "%s requires a %s column, but '%s' is %s", kind, joinTypes(want), c.Name, got)
}

func joinTypes(ts []dataset.ColumnType) string {
	switch len(ts) {
	case 0:
		return ""
	case 1:
		return string(ts[0])
	}
	s := string(ts[0])
	for _, t := range ts[1:len(ts)-1] {
		s += ", " + string(t)
	}
	return s + " or " + string(ts[len(ts)-1])
}

// numericColumns resolves a list role where every entry must be numerical.
func numericColumns(in *Input, kind Kind, role string, names []string, min int) ([]*dataset.Column, error) {
	if len(names) < min {
		return nil, errs.Validation(role, "%s requires at least %d numerical columns, got %d", kind, min, len(names))
	}
	seen := make(map[string]bool, len(names))
	cols := make([]*dataset.Column, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		c, _, err := resolveTyped(in, kind, role, n, dataset.Numerical)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if len(cols) < min {
		return nil, errs.Validation(role, "%s requires at least %d distinct numerical columns, got %d", kind, min, len(cols))
	}
	return cols, nil
}

// requireValues returns the non-missing numbers of c or a precondition error.
func requireValues(c *dataset.Column) ([]float64, error) {
	vals := c.Floats()
	if len(vals) == 0 {
		return nil, errs.Precondition([]string{c.Name}, "column has no valid numerical data after dropping missing values")
	}
	return vals, nil
}

// paired returns row-aligned values where every column is present.
func paired(cols ...*dataset.Column) ([][]float64, []int) {
	out := make([][]float64, len(cols))
	var rows []int
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
row:
	for r := 0; r < n; r++ {
		vals := make([]float64, len(cols))
		for i, c := range cols {
			v, ok := c.Float(r)
			if !ok {
				continue row
			}
			vals[i] = v
		}
		for i := range cols {
			out[i] = append(out[i], vals[i])
		}
		rows = append(rows, r)
	}
	return out, rows
}

func names(cols ...*dataset.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// cellValue renders a cell for a data series.
func cellValue(c *dataset.Column, r int) any {
	if c.IsMissing(r) {
		return nil
	}
	switch c.Storage {
	case dataset.StorageNumeric:
		return c.Nums[r]
	case dataset.StorageTime:
		return dataset.FormatTime(c.Times[r])
	default:
		return c.Texts[r]
	}
}

func floatsAny(vals []float64) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func columnAny(c *dataset.Column, rows []int) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = cellValue(c, r)
	}
	return out
}

func axisTypeFor(t dataset.ColumnType) string {
	switch t {
	case dataset.Numerical:
		return AxisLinear
	case dataset.Temporal:
		return AxisDate
	default:
		return AxisCategory
	}
}

func defaultTitle(format string, args ...any) string {
	return printer.Sprintf(format, args...)
}

func sampler(in *Input) *rand.Rand {
	if in.Rand != nil {
		return in.Rand
	}
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>1))
}
