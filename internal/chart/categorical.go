package chart

import (
	"context"
	"sort"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

const topCategories = 3

type freq struct {
	label string
	value float64
}

// frequencies counts non-missing values of c, most frequent first; ties
// break on the label so output is stable.
func frequencies(c *dataset.Column) ([]freq, float64) {
	counts := make(map[string]float64)
	var total float64
	for r := 0; r < c.Len(); r++ {
		if c.IsMissing(r) {
			continue
		}
		counts[c.Text(r)]++
		total++
	}
	return sortFreq(counts), total
}

// sums totals values per label of names over rows where both are present.
func sums(names, values *dataset.Column) ([]freq, float64) {
	totals := make(map[string]float64)
	var total float64
	for r := 0; r < names.Len(); r++ {
		v, ok := values.Float(r)
		if names.IsMissing(r) || !ok {
			continue
		}
		totals[names.Text(r)] += v
		total += v
	}
	return sortFreq(totals), total
}

func sortFreq(m map[string]float64) []freq {
	out := make([]freq, 0, len(m))
	for k, v := range m {
		out = append(out, freq{label: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value > out[j].value
		}
		return out[i].label < out[j].label
	})
	return out
}

func describeFrequencies(a *analysis, fs []freq, total float64, unit string) {
	n := topCategories
	if len(fs) < n {
		n = len(fs)
	}
	a.add("Top %d Most Frequent Categories:", n)
	for _, f := range fs[:n] {
		if unit == "" {
			a.add("- %s: %s (%s)", f.label, count(int(f.value)), pct(f.value, total))
		} else {
			a.add("- %s: %s %s (%s)", f.label, num(f.value), unit, pct(f.value, total))
		}
	}
}

type countGen struct{}

func (countGen) Kind() Kind { return KindCount }

func (countGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	c, typ, err := resolveTyped(in, KindCount, RoleX, in.Mapping.X, dataset.Categorical, dataset.Temporal)
	if err != nil {
		return nil, "", err
	}
	fs, total := frequencies(c)
	if total == 0 {
		return nil, "", errs.Precondition([]string{c.Name}, "column has no values after dropping missing entries")
	}
	labels, counts := splitFreq(fs)

	spec := newSpec(KindCount, defaultTitle("Count of %s", c.Name))
	spec.Encoding[RoleX] = c.Name
	spec.Series = []Series{{Name: c.Name, X: stringsAny(labels), Y: floatsAny(counts)}}
	spec.XAxis = &Axis{Title: c.Name, Type: axisTypeFor(typ)}
	spec.YAxis = &Axis{Title: "Count", Type: AxisLinear}

	var a analysis
	a.add("Frequency analysis for '%s':", c.Name)
	a.add("- Total non-missing values: %s", count(int(total)))
	a.add("- Distinct categories: %s", count(len(fs)))
	a.blank()
	describeFrequencies(&a, fs, total, "")
	return spec, a.String(), nil
}

// pieGen serves both the flat and the 3D pie; they differ in kind and
// category limit.
type pieGen struct {
	kind  Kind
	limit int
}

func (g pieGen) Kind() Kind { return g.kind }

func (g pieGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	c, _, err := resolveTyped(in, g.kind, RoleNames, in.Mapping.Names, dataset.Categorical)
	if err != nil {
		return nil, "", err
	}
	if n := dataset.UniqueCount(c); n > g.limit {
		return nil, "", errs.Precondition([]string{c.Name}, "%d distinct categories is too many for %s (limit %d); use a bar or count plot instead", n, g.kind, g.limit)
	}
	var (
		fs    []freq
		total float64
		unit  string
	)
	if in.Mapping.Values != "" {
		v, _, err := resolveTyped(in, g.kind, RoleValues, in.Mapping.Values, dataset.Numerical)
		if err != nil {
			return nil, "", err
		}
		fs, total = sums(c, v)
		unit = "total " + v.Name
		for _, f := range fs {
			if f.value < 0 {
				return nil, "", errs.Precondition([]string{v.Name}, "pie slices cannot be negative (category '%s' sums to %s)", f.label, num(f.value))
			}
		}
	} else {
		fs, total = frequencies(c)
	}
	if total <= 0 {
		return nil, "", errs.Precondition([]string{c.Name}, "column has no values to chart after dropping missing entries")
	}
	labels, values := splitFreq(fs)

	spec := newSpec(g.kind, defaultTitle("Composition of %s", c.Name))
	spec.Encoding[RoleNames] = c.Name
	if in.Mapping.Values != "" {
		spec.Encoding[RoleValues] = in.Mapping.Values
	}
	spec.Series = []Series{{Name: c.Name, Labels: labels, Values: values}}
	if g.kind == KindPie3D {
		spec.Options["depth"] = 0.25
	}

	var a analysis
	a.add("Composition analysis for '%s':", c.Name)
	a.add("- Number of slices: %s", count(len(fs)))
	a.blank()
	describeFrequencies(&a, fs, total, unit)
	return spec, a.String(), nil
}

func splitFreq(fs []freq) ([]string, []float64) {
	labels := make([]string, len(fs))
	values := make([]float64, len(fs))
	for i, f := range fs {
		labels[i] = f.label
		values[i] = f.value
	}
	return labels, values
}

func stringsAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
