package chart

import (
	"context"
	"sort"
	"strings"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/stats"
)

type pair struct {
	a, b string
	r    float64
}

// correlationMatrix computes pairwise Pearson r over pairwise-complete rows.
// Pairs are returned once each, keyed by their unordered column names.
func correlationMatrix(ctx context.Context, cols []*dataset.Column) ([][]float64, []pair, error) {
	n := len(cols)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	var pairs []pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			c, _, _, err := correlate(cols[i], cols[j])
			if err != nil {
				return nil, nil, err
			}
			m[i][j], m[j][i] = c.R, c.R
			a, b := cols[i].Name, cols[j].Name
			if b < a {
				a, b = b, a
			}
			pairs = append(pairs, pair{a: a, b: b, r: c.R})
		}
	}
	return m, pairs, nil
}

// describePairs lists the strongest positive and negative pairs.
func describePairs(a *analysis, pairs []pair, limit int) {
	sorted := append([]pair(nil), pairs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].r > sorted[j].r })

	a.add("Strongest Positive Correlations:")
	shown := 0
	for _, p := range sorted {
		if shown == limit || p.r <= 0 {
			break
		}
		a.add("- '%s' and '%s': %.2f (%s)", p.a, p.b, p.r, stats.Strength(p.r))
		shown++
	}
	if shown == 0 {
		a.add("- None found.")
	}
	a.blank()
	a.add("Strongest Negative Correlations:")
	shown = 0
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		if shown == limit || p.r >= 0 {
			break
		}
		a.add("- '%s' and '%s': %.2f (%s)", p.a, p.b, p.r, stats.Strength(p.r))
		shown++
	}
	if shown == 0 {
		a.add("- None found.")
	}
}

type heatmapGen struct{}

func (heatmapGen) Kind() Kind { return KindHeatmap }

func (heatmapGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	cols, err := numericColumns(in, KindHeatmap, RoleColumns, in.Mapping.Columns, 2)
	if err != nil {
		return nil, "", err
	}
	m, pairs, err := correlationMatrix(ctx, cols)
	if err != nil {
		return nil, "", err
	}
	labels := names(cols...)
	spec := newSpec(KindHeatmap, "Correlation Matrix")
	spec.Encoding[RoleColumns] = strings.Join(labels, ", ")
	spec.Series = []Series{{Labels: labels, Matrix: m}}
	spec.Options["zmin"] = -1.0
	spec.Options["zmax"] = 1.0

	var a analysis
	a.add("Correlation analysis across %d numerical columns:", len(cols))
	a.blank()
	describePairs(&a, pairs, 3)
	return spec, a.String(), nil
}

type pairPlotGen struct{}

func (pairPlotGen) Kind() Kind { return KindPairPlot }

// Generate samples columns uniformly at random when more than
// MaxPairColumns are selected. Without a seeded Input.Rand the sample differs
// between calls.
func (pairPlotGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	cols, err := numericColumns(in, KindPairPlot, RoleColumns, in.Mapping.Columns, 2)
	if err != nil {
		return nil, "", err
	}
	limit := in.MaxPairColumns
	if limit <= 0 {
		limit = DefaultPairPlotColumns
	}
	sampled := false
	if len(cols) > limit {
		pick := sampler(in).Perm(len(cols))[:limit]
		sort.Ints(pick)
		chosen := make([]*dataset.Column, limit)
		for i, p := range pick {
			chosen[i] = cols[p]
		}
		cols = chosen
		sampled = true
	}
	_, pairs, err := correlationMatrix(ctx, cols)
	if err != nil {
		return nil, "", err
	}
	vals, _ := paired(cols...)
	dims := make([]Dimension, len(cols))
	for i, c := range cols {
		dims[i] = Dimension{Label: c.Name, Values: vals[i]}
	}
	spec := newSpec(KindPairPlot, "Pairwise Relationships")
	spec.Encoding[RoleColumns] = strings.Join(names(cols...), ", ")
	spec.Series = []Series{{Dimensions: dims}}
	if in.Mapping.Color != "" {
		color, err := resolve(in, RoleColor, in.Mapping.Color)
		if err != nil {
			return nil, "", err
		}
		_, rows := paired(cols...)
		spec.Series[0].Color = columnAny(color, rows)
		spec.Encoding[RoleColor] = color.Name
	}

	var a analysis
	a.add("Pairwise analysis of %d numerical columns:", len(cols))
	if sampled {
		a.add("(Too many columns were selected; %d were sampled at random: %s.)", limit, strings.Join(names(cols...), ", "))
	}
	a.blank()
	describePairs(&a, pairs, 2)
	a.blank()
	a.add("Distribution shape per column:")
	for _, c := range cols {
		s, ok := stats.Describe(c.Floats())
		if !ok {
			continue
		}
		a.add("- '%s' is %s (Skewness: %.2f)", c.Name, stats.SkewLabel(s.Skew), s.Skew)
	}
	return spec, a.String(), nil
}

type parallelGen struct{}

func (parallelGen) Kind() Kind { return KindParallelCoordinates }

func (parallelGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	cols, err := numericColumns(in, KindParallelCoordinates, RoleColumns, in.Mapping.Columns, 3)
	if err != nil {
		return nil, "", err
	}
	var color *dataset.Column
	if in.Mapping.Color != "" {
		if color, _, err = resolveTyped(in, KindParallelCoordinates, RoleColor, in.Mapping.Color, dataset.Numerical); err != nil {
			return nil, "", err
		}
	}
	_, pairs, err := correlationMatrix(ctx, cols)
	if err != nil {
		return nil, "", err
	}
	all := cols
	if color != nil {
		all = append(append([]*dataset.Column(nil), cols...), color)
	}
	vals, rows := paired(all...)
	if len(rows) == 0 {
		return nil, "", errs.Precondition(names(all...), "no rows have every selected column present")
	}
	dims := make([]Dimension, len(cols))
	for i, c := range cols {
		dims[i] = Dimension{Label: c.Name, Values: vals[i]}
	}
	spec := newSpec(KindParallelCoordinates, "Parallel Coordinates")
	spec.Encoding[RoleColumns] = strings.Join(names(cols...), ", ")
	s := Series{Dimensions: dims}
	if color != nil {
		spec.Encoding[RoleColor] = color.Name
		s.Color = floatsAny(vals[len(vals)-1])
	}
	spec.Series = []Series{s}

	var a analysis
	a.add("Parallel coordinates across %d numerical columns (%s complete rows):", len(cols), count(len(rows)))
	a.blank()
	describePairs(&a, pairs, 2)
	return spec, a.String(), nil
}
