// Package filter narrows a table snapshot with per-column predicates before
// chart generation. It never mutates its input and never fails a request
// because of a stale or mismatched predicate.
package filter

import (
	"sort"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
)

// Filter is one column predicate. Values applies to categorical columns;
// Min/Max apply to numerical ones.
type Filter struct {
	Column string
	// Values is the allowed set; nil means the predicate was not a list.
	Values []string
	Min    *float64
	Max    *float64
	// Range is true when the predicate was a {min, max} object.
	Range bool
}

// Parse converts a loosely typed filter mapping. Predicates that are neither
// a list nor an object are kept with no criteria and end up ignored.
// The result is ordered by column name.
func Parse(raw map[string]any) []Filter {
	out := make([]Filter, 0, len(raw))
	for col, pred := range raw {
		f := Filter{Column: col}
		switch p := pred.(type) {
		case []any:
			f.Values = make([]string, 0, len(p))
			for _, v := range p {
				f.Values = append(f.Values, cast.ToString(v))
			}
		case []string:
			f.Values = append([]string{}, p...)
		case map[string]any:
			f.Range = true
			f.Min = bound(p["min"])
			f.Max = bound(p["max"])
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out
}

// bound coerces a range bound; blank or non-numeric bounds are dropped.
func bound(v any) *float64 {
	if v == nil || v == "" {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

// Apply keeps the rows that satisfy every applicable filter, in input order.
// When no filter restricts anything the input table itself is returned.
func Apply(t *dataset.Table, filters []Filter, logger *zap.Logger) *dataset.Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	keep := make([]bool, t.NumRows())
	for i := range keep {
		keep[i] = true
	}
	restricted := false
	for _, f := range filters {
		c, err := t.Column(f.Column)
		if err != nil {
			logger.Warn("filter skipped: column not found", zap.String("column", f.Column))
			continue
		}
		typ := dataset.Classify(c)
		switch {
		case typ == dataset.Categorical && f.Values != nil:
			if len(f.Values) == 0 {
				continue
			}
			allowed := make(map[string]struct{}, len(f.Values))
			for _, v := range f.Values {
				allowed[v] = struct{}{}
			}
			for r := range keep {
				if !keep[r] {
					continue
				}
				_, ok := allowed[c.Text(r)]
				keep[r] = ok && !c.IsMissing(r)
			}
			restricted = true
		case typ == dataset.Numerical && f.Range:
			if f.Min == nil && f.Max == nil {
				continue
			}
			for r := range keep {
				if !keep[r] {
					continue
				}
				v, ok := c.Float(r)
				keep[r] = ok && (f.Min == nil || v >= *f.Min) && (f.Max == nil || v <= *f.Max)
			}
			restricted = true
		default:
			logger.Debug("filter ignored: predicate does not fit column type",
				zap.String("column", f.Column), zap.String("type", string(typ)))
		}
	}
	if !restricted {
		return t
	}
	rows := make([]int, 0, len(keep))
	for r, ok := range keep {
		if ok {
			rows = append(rows, r)
		}
	}
	logger.Debug("filters applied", zap.Int("rows_in", t.NumRows()), zap.Int("rows_out", len(rows)))
	return t.Take(rows)
}
