package chart

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// seriesGen draws line and area charts. A temporal x axis produces a trend
// analysis; a numerical x axis produces a correlation analysis.
type seriesGen struct {
	kind Kind
}

func (g seriesGen) Kind() Kind { return g.kind }

type timePoint struct {
	row int
	t   time.Time
	y   float64
}

func (g seriesGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	var color *dataset.Column
	if in.Mapping.Color != "" {
		var err error
		if color, err = resolve(in, RoleColor, in.Mapping.Color); err != nil {
			return nil, "", err
		}
	}

	// time_axis takes precedence; the value then comes from y_axis, or from
	// x_axis when y_axis is unmapped.
	if in.Mapping.Time != "" {
		x, _, err := resolveTyped(in, g.kind, RoleTime, in.Mapping.Time, dataset.Temporal)
		if err != nil {
			return nil, "", err
		}
		role, name := RoleY, in.Mapping.Y
		if name == "" && in.Mapping.X != "" {
			role, name = RoleX, in.Mapping.X
		}
		y, _, err := resolveTyped(in, g.kind, role, name, dataset.Numerical)
		if err != nil {
			return nil, "", err
		}
		return g.timeSeries(ctx, x, y, color)
	}

	x, xType, err := resolveTyped(in, g.kind, RoleX, in.Mapping.X, dataset.Temporal, dataset.Numerical)
	if err != nil {
		return nil, "", err
	}
	y, _, err := resolveTyped(in, g.kind, RoleY, in.Mapping.Y, dataset.Numerical)
	if err != nil {
		return nil, "", err
	}
	if xType == dataset.Temporal {
		return g.timeSeries(ctx, x, y, color)
	}
	return g.numericSeries(x, y, color)
}

func (g seriesGen) timeSeries(ctx context.Context, x, y, color *dataset.Column) (*Spec, string, error) {
	points := make([]timePoint, 0, x.Len())
	for r := 0; r < x.Len(); r++ {
		t, ok := timeAt(x, r)
		v, vok := y.Float(r)
		if !ok || !vok {
			continue
		}
		points = append(points, timePoint{row: r, t: t, y: v})
	}
	if len(points) < 2 {
		return nil, "", errs.Precondition([]string{x.Name, y.Name}, "at least 2 rows with a valid time and value are required, found %d", len(points))
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	maxIdx, minIdx := 0, 0
	for i, p := range points {
		xs[i] = float64(p.t.Unix())
		ys[i] = p.y
		if p.y > points[maxIdx].y {
			maxIdx = i
		}
		if p.y < points[minIdx].y {
			minIdx = i
		}
	}

	spec := newSpec(g.kind, defaultTitle("%s over %s", y.Name, x.Name))
	spec.Encoding[RoleX] = x.Name
	spec.Encoding[RoleY] = y.Name
	spec.Series = groupSeries(color, len(points), func(i int) int { return points[i].row }, func(i int) (any, any) {
		return dataset.FormatTime(points[i].t), points[i].y
	})
	if color != nil {
		spec.Encoding[RoleColor] = color.Name
	}
	spec.XAxis = &Axis{Title: x.Name, Type: AxisDate}
	spec.YAxis = linearAxis(y.Name, ys)

	var a analysis
	a.add("Trend analysis of '%s' over '%s':", y.Name, x.Name)
	a.add("- Period: %s to %s (%s observations)", points[0].t.Format("2006-01-02"), points[len(points)-1].t.Format("2006-01-02"), count(len(points)))
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	switch perDay := slope * 86400; {
	case allEqual(xs) || perDay == 0:
		a.add("- The overall trend is flat.")
	case perDay > 0:
		a.add("- The overall trend is increasing (about %s per day).", num(perDay))
	default:
		a.add("- The overall trend is decreasing (about %s per day).", num(perDay))
	}
	a.add("- Highest value: %s on %s", num(points[maxIdx].y), points[maxIdx].t.Format("2006-01-02"))
	a.add("- Lowest value: %s on %s", num(points[minIdx].y), points[minIdx].t.Format("2006-01-02"))
	return spec, a.String(), nil
}

func (g seriesGen) numericSeries(x, y, color *dataset.Column) (*Spec, string, error) {
	corr, vals, rows, err := correlate(x, y)
	if err != nil {
		return nil, "", err
	}
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return vals[0][order[i]] < vals[0][order[j]] })

	spec := newSpec(g.kind, defaultTitle("%s by %s", y.Name, x.Name))
	spec.Encoding[RoleX] = x.Name
	spec.Encoding[RoleY] = y.Name
	spec.Series = groupSeries(color, len(order), func(i int) int { return rows[order[i]] }, func(i int) (any, any) {
		return vals[0][order[i]], vals[1][order[i]]
	})
	if color != nil {
		spec.Encoding[RoleColor] = color.Name
	}
	spec.XAxis = linearAxis(x.Name, vals[0])
	spec.YAxis = linearAxis(y.Name, vals[1])

	var a analysis
	describeCorrelation(&a, x.Name, y.Name, corr)
	return spec, a.String(), nil
}

// groupSeries splits n ordered points into one series per color value.
func groupSeries(color *dataset.Column, n int, row func(int) int, point func(int) (any, any)) []Series {
	if color == nil {
		s := Series{X: make([]any, n), Y: make([]any, n)}
		for i := 0; i < n; i++ {
			s.X[i], s.Y[i] = point(i)
		}
		return []Series{s}
	}
	index := map[string]int{}
	var out []Series
	for i := 0; i < n; i++ {
		key := color.Text(row(i))
		j, ok := index[key]
		if !ok {
			j = len(out)
			index[key] = j
			out = append(out, Series{Name: key})
		}
		xv, yv := point(i)
		out[j].X = append(out[j].X, xv)
		out[j].Y = append(out[j].Y, yv)
	}
	return out
}

func timeAt(c *dataset.Column, r int) (time.Time, bool) {
	if c.IsMissing(r) {
		return time.Time{}, false
	}
	if c.Storage == dataset.StorageTime {
		return c.Times[r], true
	}
	return dataset.ParseTime(c.Text(r))
}

func allEqual(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}
