package chart

import (
	"context"
	"math"
	"sort"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/stats"
)

// axes is the orientation resolved from the actual column types.
type axes struct {
	category    *dataset.Column
	categoryTyp dataset.ColumnType
	value       *dataset.Column
	// horizontal is true when the numerical column sits on x.
	horizontal bool
}

func (o axes) orientation() string {
	if o.horizontal {
		return "h"
	}
	return "v"
}

// orient decides which of x/y is the grouping axis. groups lists the types
// accepted for the grouping column.
func orient(in *Input, kind Kind, groups ...dataset.ColumnType) (axes, error) {
	x, err := resolve(in, RoleX, in.Mapping.X)
	if err != nil {
		return axes{}, err
	}
	y, err := resolve(in, RoleY, in.Mapping.Y)
	if err != nil {
		return axes{}, err
	}
	xt, yt := dataset.ClassifySample(x), dataset.ClassifySample(y)
	isGroup := func(t dataset.ColumnType) bool {
		for _, g := range groups {
			if t == g {
				return true
			}
		}
		return false
	}
	switch {
	case isGroup(xt) && yt == dataset.Numerical:
		return axes{category: x, categoryTyp: xt, value: y}, nil
	case xt == dataset.Numerical && isGroup(yt):
		return axes{category: y, categoryTyp: yt, value: x, horizontal: true}, nil
	default:
		return axes{}, errs.Validation(RoleX, "%s needs one %s axis and one numerical axis, but '%s' is %s and '%s' is %s",
			kind, joinTypes(groups), x.Name, xt, y.Name, yt)
	}
}

// rejectMissing fails when any of cols has a missing cell.
func rejectMissing(cols ...*dataset.Column) error {
	var bad []string
	for _, c := range cols {
		if c != nil && c.MissingCount() > 0 {
			bad = append(bad, c.Name)
		}
	}
	if len(bad) > 0 {
		return errs.Precondition(bad, "selected columns contain missing values. Please clean them first.")
	}
	return nil
}

// groupValues collects numeric values per category in first-seen order.
func groupValues(cat, val *dataset.Column) ([]string, map[string][]float64) {
	var order []string
	groups := make(map[string][]float64)
	for r := 0; r < cat.Len(); r++ {
		v, ok := val.Float(r)
		if !ok || cat.IsMissing(r) {
			continue
		}
		k := cat.Text(r)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], v)
	}
	return order, groups
}

func setOrientedAxes(spec *Spec, o axes, vals []float64) {
	catAxis := &Axis{Title: o.category.Name, Type: axisTypeFor(o.categoryTyp)}
	valAxis := linearAxis(o.value.Name, vals)
	spec.Orientation = o.orientation()
	if o.horizontal {
		spec.XAxis, spec.YAxis = valAxis, catAxis
	} else {
		spec.XAxis, spec.YAxis = catAxis, valAxis
	}
	spec.Encoding[RoleX] = spec.XAxis.Title
	spec.Encoding[RoleY] = spec.YAxis.Title
}

// pointsFor lays category/value pairs on x/y according to orientation.
func pointsFor(o axes, cats []string, vals []float64) Series {
	c, v := stringsAny(cats), floatsAny(vals)
	if o.horizontal {
		return Series{X: v, Y: c}
	}
	return Series{X: c, Y: v}
}

type barGen struct{}

func (barGen) Kind() Kind { return KindBar }

func (barGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	o, err := orient(in, KindBar, dataset.Categorical, dataset.Temporal)
	if err != nil {
		return nil, "", err
	}
	if err := rejectMissing(o.category, o.value); err != nil {
		return nil, "", err
	}
	totals, _ := sums(o.category, o.value)
	if len(totals) == 0 {
		return nil, "", errs.Precondition([]string{o.category.Name, o.value.Name}, "no rows to aggregate")
	}
	labels, values := splitFreq(totals)

	spec := newSpec(KindBar, defaultTitle("Total %s by %s", o.value.Name, o.category.Name))
	spec.Series = []Series{pointsFor(o, labels, values)}
	setOrientedAxes(spec, o, values)

	var a analysis
	a.add("Aggregate analysis of '%s' by '%s':", o.value.Name, o.category.Name)
	a.add("- Categories: %s", count(len(totals)))
	a.add("- Average sum per category: %s", num(stats.Mean(values)))
	a.blank()
	n := min(topCategories, len(totals))
	a.add("Top %d categories by total '%s':", n, o.value.Name)
	for _, f := range totals[:n] {
		a.add("- %s: %s", f.label, num(f.value))
	}
	return spec, a.String(), nil
}

type stackedBarGen struct{}

func (stackedBarGen) Kind() Kind { return KindStackedBar }

func (stackedBarGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	o, err := orient(in, KindStackedBar, dataset.Categorical, dataset.Temporal)
	if err != nil {
		return nil, "", err
	}
	var color *dataset.Column
	if in.Mapping.Color != "" {
		if color, _, err = resolveTyped(in, KindStackedBar, RoleColor, in.Mapping.Color, dataset.Categorical, dataset.Temporal); err != nil {
			return nil, "", err
		}
	}
	if err := rejectMissing(o.category, o.value, color); err != nil {
		return nil, "", err
	}
	totals, _ := sums(o.category, o.value)
	if len(totals) == 0 {
		return nil, "", errs.Precondition([]string{o.category.Name, o.value.Name}, "no rows to aggregate")
	}
	labels, catValues := splitFreq(totals)

	var spec *Spec
	var stackTotals []freq
	var grand float64
	if color == nil {
		spec = newSpec(KindStackedBar, defaultTitle("%s by %s", o.value.Name, o.category.Name))
		series := pointsFor(o, labels, catValues)
		series.Name = o.value.Name
		spec.Series = []Series{series}
	} else {
		stackTotals, grand = sums(color, o.value)
		// One series per stack level, each covering every category.
		catIndex := make(map[string]int, len(labels))
		for i, l := range labels {
			catIndex[l] = i
		}
		stackIndex := make(map[string]int, len(stackTotals))
		cells := make([][]float64, len(stackTotals))
		for i, st := range stackTotals {
			stackIndex[st.label] = i
			cells[i] = make([]float64, len(labels))
		}
		for r := 0; r < o.category.Len(); r++ {
			v, _ := o.value.Float(r)
			cells[stackIndex[color.Text(r)]][catIndex[o.category.Text(r)]] += v
		}
		spec = newSpec(KindStackedBar, defaultTitle("%s by %s and %s", o.value.Name, o.category.Name, color.Name))
		for i, st := range stackTotals {
			series := pointsFor(o, labels, cells[i])
			series.Name = st.label
			spec.Series = append(spec.Series, series)
		}
		spec.Encoding[RoleColor] = color.Name
	}
	setOrientedAxes(spec, o, append(append([]float64{}, catValues...), 0))
	spec.Options["barmode"] = "stack"

	var a analysis
	if color == nil {
		a.add("Stacked composition of '%s' by '%s':", o.value.Name, o.category.Name)
	} else {
		a.add("Stacked composition of '%s' by '%s' and '%s':", o.value.Name, o.category.Name, color.Name)
	}
	a.add("- Average sum per category: %s", num(stats.Mean(catValues)))
	n := min(topCategories, len(totals))
	a.add("Top %d categories by total:", n)
	for _, f := range totals[:n] {
		a.add("- %s: %s", f.label, num(f.value))
	}
	if color != nil {
		a.blank()
		a.add("The largest '%s' segment overall is '%s' with %s (%s of the grand total).",
			color.Name, stackTotals[0].label, num(stackTotals[0].value), pct(stackTotals[0].value, grand))
	}
	return spec, a.String(), nil
}

type violinGen struct{}

func (violinGen) Kind() Kind { return KindViolin }

type groupStat struct {
	label  string
	n      int
	mean   float64
	median float64
	std    float64
}

func (violinGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	o, err := orient(in, KindViolin, dataset.Categorical)
	if err != nil {
		return nil, "", err
	}
	if err := rejectMissing(o.category, o.value); err != nil {
		return nil, "", err
	}
	order, groups := groupValues(o.category, o.value)
	if len(order) == 0 {
		return nil, "", errs.Precondition([]string{o.category.Name, o.value.Name}, "no rows to aggregate")
	}
	gs := make([]groupStat, 0, len(order))
	var all []float64
	for _, k := range order {
		vals := groups[k]
		all = append(all, vals...)
		gs = append(gs, groupStat{label: k, n: len(vals), mean: stats.Mean(vals), median: stats.Median(vals), std: stats.StdDev(vals)})
	}
	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].median != gs[j].median {
			return gs[i].median > gs[j].median
		}
		return gs[i].label < gs[j].label
	})

	spec := newSpec(KindViolin, defaultTitle("Distribution of %s by %s", o.value.Name, o.category.Name))
	for _, k := range order {
		vals := groups[k]
		cats := make([]string, len(vals))
		for i := range cats {
			cats[i] = k
		}
		s := pointsFor(o, cats, vals)
		s.Name = k
		spec.Series = append(spec.Series, s)
	}
	setOrientedAxes(spec, o, all)

	var a analysis
	a.add("Distribution of '%s' across '%s' categories:", o.value.Name, o.category.Name)
	for _, g := range gs {
		std := "n/a"
		if !math.IsNaN(g.std) {
			std = num(g.std)
		}
		a.add("- %s: n=%s, mean=%s, median=%s, std=%s", g.label, count(g.n), num(g.mean), num(g.median), std)
	}
	a.blank()
	a.add("Highest Median: '%s' (%s)", gs[0].label, num(gs[0].median))
	return spec, a.String(), nil
}
