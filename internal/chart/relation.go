package chart

import (
	"context"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/stats"
)

// correlate pairs two numeric columns and computes Pearson r.
func correlate(x, y *dataset.Column) (stats.Correlation, [][]float64, []int, error) {
	vals, rows := paired(x, y)
	if len(rows) < 2 {
		return stats.Correlation{}, nil, nil, errs.Precondition([]string{x.Name, y.Name}, "at least 2 rows with both values present are required, found %d", len(rows))
	}
	c, ok := stats.Pearson(vals[0], vals[1])
	if !ok {
		return stats.Correlation{}, nil, nil, errs.Precondition([]string{x.Name, y.Name}, "correlation is undefined because at least one column is constant")
	}
	return c, vals, rows, nil
}

func describeCorrelation(a *analysis, x, y string, c stats.Correlation) {
	a.add("Relationship analysis between '%s' and '%s':", x, y)
	a.add("- Pearson Correlation (r): %.2f", c.R)
	if stats.Strength(c.R) == "negligible" {
		a.add("- This value indicates a negligible or non-existent linear relationship.")
	} else {
		a.add("- This value indicates a %s %s linear relationship.", stats.Strength(c.R), stats.Direction(c.R))
	}
	if c.Significant() {
		a.add("- The correlation is statistically significant (p-value: %.3g).", c.P)
	} else {
		a.add("- The correlation is not statistically significant (p-value: %.3g).", c.P)
	}
	a.add("- Valid data points: %s", count(c.N))
}

func numericPair(in *Input, kind Kind) (*dataset.Column, *dataset.Column, error) {
	x, _, err := resolveTyped(in, kind, RoleX, in.Mapping.X, dataset.Numerical)
	if err != nil {
		return nil, nil, err
	}
	y, _, err := resolveTyped(in, kind, RoleY, in.Mapping.Y, dataset.Numerical)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

type scatterGen struct{}

func (scatterGen) Kind() Kind { return KindScatter }

func (scatterGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	x, y, err := numericPair(in, KindScatter)
	if err != nil {
		return nil, "", err
	}
	var color *dataset.Column
	if in.Mapping.Color != "" {
		if color, err = resolve(in, RoleColor, in.Mapping.Color); err != nil {
			return nil, "", err
		}
	}
	corr, vals, rows, err := correlate(x, y)
	if err != nil {
		return nil, "", err
	}
	spec := newSpec(KindScatter, defaultTitle("%s vs %s", y.Name, x.Name))
	spec.Encoding[RoleX] = x.Name
	spec.Encoding[RoleY] = y.Name
	s := Series{X: floatsAny(vals[0]), Y: floatsAny(vals[1])}
	if color != nil {
		spec.Encoding[RoleColor] = color.Name
		s.Color = columnAny(color, rows)
	}
	spec.Series = []Series{s}
	spec.XAxis = linearAxis(x.Name, vals[0])
	spec.YAxis = linearAxis(y.Name, vals[1])

	var a analysis
	describeCorrelation(&a, x.Name, y.Name, corr)
	return spec, a.String(), nil
}

// densityGen covers the 2D density contour and the hexbin plot.
type densityGen struct {
	kind Kind
}

func (g densityGen) Kind() Kind { return g.kind }

func (g densityGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	x, y, err := numericPair(in, g.kind)
	if err != nil {
		return nil, "", err
	}
	corr, vals, _, err := correlate(x, y)
	if err != nil {
		return nil, "", err
	}
	title := "Density of %s vs %s"
	if g.kind == KindHexbin {
		title = "Hexbin of %s vs %s"
	}
	spec := newSpec(g.kind, defaultTitle(title, y.Name, x.Name))
	spec.Encoding[RoleX] = x.Name
	spec.Encoding[RoleY] = y.Name
	spec.Series = []Series{{X: floatsAny(vals[0]), Y: floatsAny(vals[1])}}
	spec.XAxis = linearAxis(x.Name, vals[0])
	spec.YAxis = linearAxis(y.Name, vals[1])
	spec.Options["gridsize"] = in.Tuning.GridSize

	var a analysis
	describeCorrelation(&a, x.Name, y.Name, corr)
	a.blank()
	a.add("Points are binned on a %d x %d grid; darker cells mark where observations concentrate.", in.Tuning.GridSize, in.Tuning.GridSize)
	return spec, a.String(), nil
}

type bubbleGen struct{}

func (bubbleGen) Kind() Kind { return KindBubble }

func (bubbleGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	x, y, err := numericPair(in, KindBubble)
	if err != nil {
		return nil, "", err
	}
	size, _, err := resolveTyped(in, KindBubble, RoleSize, in.Mapping.Size, dataset.Numerical)
	if err != nil {
		return nil, "", err
	}
	vals, _ := paired(x, y, size)
	if len(vals[0]) < 2 {
		return nil, "", errs.Precondition([]string{x.Name, y.Name, size.Name}, "at least 2 rows with all three values present are required, found %d", len(vals[0]))
	}
	corr, ok := stats.Pearson(vals[0], vals[1])
	if !ok {
		return nil, "", errs.Precondition([]string{x.Name, y.Name}, "correlation is undefined because at least one column is constant")
	}

	spec := newSpec(KindBubble, defaultTitle("%s vs %s sized by %s", y.Name, x.Name, size.Name))
	spec.Encoding[RoleX] = x.Name
	spec.Encoding[RoleY] = y.Name
	spec.Encoding[RoleSize] = size.Name
	spec.Series = []Series{{X: floatsAny(vals[0]), Y: floatsAny(vals[1]), Size: vals[2]}}
	spec.XAxis = linearAxis(x.Name, vals[0])
	spec.YAxis = linearAxis(y.Name, vals[1])

	var a analysis
	describeCorrelation(&a, x.Name, y.Name, corr)
	a.blank()
	if sc, ok := stats.Pearson(vals[2], vals[1]); ok && abs(sc.R) > 0.3 {
		a.add("Bubble size ('%s') has a %s %s relationship with '%s' (r = %.2f), so larger bubbles tend to sit %s.",
			size.Name, stats.Strength(sc.R), stats.Direction(sc.R), y.Name, sc.R, higherOrLower(sc.R))
	} else {
		a.add("Bubble size ('%s') shows little linear relationship with '%s'.", size.Name, y.Name)
	}
	if b, ok := stats.IQRBounds(vals[2]); ok {
		outliers := 0
		for _, v := range vals[2] {
			if !b.Contains(v) {
				outliers++
			}
		}
		if outliers > 0 {
			a.add("%s bubble(s) have unusually large or small '%s' values (outside %s to %s).", count(outliers), size.Name, num(b.Lower), num(b.Upper))
		}
	}
	return spec, a.String(), nil
}

func higherOrLower(r float64) string {
	if r < 0 {
		return "lower on the y-axis"
	}
	return "higher on the y-axis"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

type scatter3DGen struct{}

func (scatter3DGen) Kind() Kind { return KindScatter3D }

func (scatter3DGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	x, y, err := numericPair(in, KindScatter3D)
	if err != nil {
		return nil, "", err
	}
	z, _, err := resolveTyped(in, KindScatter3D, RoleZ, in.Mapping.Z, dataset.Numerical)
	if err != nil {
		return nil, "", err
	}
	var color *dataset.Column
	if in.Mapping.Color != "" {
		if color, err = resolve(in, RoleColor, in.Mapping.Color); err != nil {
			return nil, "", err
		}
	}
	vals, rows := paired(x, y, z)
	if len(rows) < 2 {
		return nil, "", errs.Precondition([]string{x.Name, y.Name, z.Name}, "at least 2 rows with all three values present are required, found %d", len(rows))
	}
	cols := []*dataset.Column{x, y, z}
	var a analysis
	a.add("3D relationship analysis for '%s', '%s' and '%s' (%s complete rows):", x.Name, y.Name, z.Name, count(len(rows)))
	for _, p := range [][2]int{{0, 1}, {0, 2}, {1, 2}} {
		c, ok := stats.Pearson(vals[p[0]], vals[p[1]])
		if !ok {
			return nil, "", errs.Precondition([]string{cols[p[0]].Name, cols[p[1]].Name}, "correlation is undefined because at least one column is constant")
		}
		a.add("- '%s' vs '%s': r = %.2f (%s %s, p-value: %.3g)", cols[p[0]].Name, cols[p[1]].Name, c.R, stats.Strength(c.R), stats.Direction(c.R), c.P)
	}

	spec := newSpec(KindScatter3D, defaultTitle("%s, %s and %s", x.Name, y.Name, z.Name))
	spec.Encoding[RoleX] = x.Name
	spec.Encoding[RoleY] = y.Name
	spec.Encoding[RoleZ] = z.Name
	s := Series{X: floatsAny(vals[0]), Y: floatsAny(vals[1]), Z: floatsAny(vals[2])}
	if color != nil {
		spec.Encoding[RoleColor] = color.Name
		s.Color = columnAny(color, rows)
	}
	spec.Series = []Series{s}
	spec.XAxis = linearAxis(x.Name, vals[0])
	spec.YAxis = linearAxis(y.Name, vals[1])
	spec.ZAxis = linearAxis(z.Name, vals[2])
	return spec, a.String(), nil
}
