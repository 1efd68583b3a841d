// Package cleaning implements the snapshot transitions: impute, remove a
// column, recode, and treat outliers. Operations are pure: Apply returns a
// new table and leaves its input untouched. Service adds locking,
// persistence and metadata resynthesis.
package cleaning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/vizprep-cli/internal/chart"
	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/stats"
)

// Operation is one atomic snapshot transition.
type Operation interface {
	Name() string
	Apply(t *dataset.Table) (*dataset.Table, error)
}

// ImputeMethod selects how missing cells are filled.
type ImputeMethod string

const (
	ImputeMean     ImputeMethod = "mean"
	ImputeMedian   ImputeMethod = "median"
	ImputeMode     ImputeMethod = "mode"
	ImputeConstant ImputeMethod = "constant"
)

// Impute fills every missing cell of Column.
type Impute struct {
	Column string       `json:"column"`
	Method ImputeMethod `json:"method"`
	// Constant is required for ImputeConstant; it may be a number or a string.
	Constant any `json:"constant,omitempty"`
}

func (op Impute) Name() string { return "impute" }

func (op Impute) Apply(t *dataset.Table) (*dataset.Table, error) {
	c, err := t.Column(op.Column)
	if err != nil {
		return nil, err
	}
	typ := dataset.Classify(c)
	switch op.Method {
	case ImputeMean, ImputeMedian:
		if typ != dataset.Numerical {
			return nil, errs.Validation("method", "method '%s' is only valid for numerical columns; '%s' is %s", op.Method, c.Name, typ)
		}
	case ImputeMode:
	case ImputeConstant:
		if op.Constant == nil {
			return nil, errs.Validation("constant", "a constant value is required for method 'constant'")
		}
	default:
		return nil, errs.Validation("method", "unsupported imputation method %q (want mean, median, mode or constant)", op.Method)
	}
	if c.MissingCount() == 0 {
		return t, nil
	}

	out := c.Clone()
	switch op.Method {
	case ImputeMean, ImputeMedian:
		vals := c.Floats()
		if len(vals) == 0 {
			return nil, errs.Precondition([]string{c.Name}, "column has no non-missing values to compute the %s from", op.Method)
		}
		v := stats.Mean(vals)
		if op.Method == ImputeMedian {
			v = stats.Median(vals)
		}
		fillNumeric(out, v)
	case ImputeMode:
		if err := fillMode(out); err != nil {
			return nil, err
		}
	case ImputeConstant:
		if err := fillConstant(out, op.Constant); err != nil {
			return nil, err
		}
	}
	return t.WithColumn(out)
}

func fillNumeric(c *dataset.Column, v float64) {
	for i := range c.Valid {
		if !c.Valid[i] {
			c.Nums[i] = v
			c.Valid[i] = true
		}
	}
}

// fillMode uses the most frequent value; ties go to the smallest value.
func fillMode(c *dataset.Column) error {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i := range c.Valid {
		if !c.Valid[i] {
			continue
		}
		k := c.Text(i)
		counts[k]++
		if _, ok := first[k]; !ok {
			first[k] = i
		}
	}
	if len(counts) == 0 {
		return errs.Precondition([]string{c.Name}, "column has no non-missing values to take the mode from")
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return lessCell(c, first[a], first[b])
	})
	best := first[keys[0]]
	for i := range c.Valid {
		if c.Valid[i] {
			continue
		}
		switch c.Storage {
		case dataset.StorageNumeric:
			c.Nums[i] = c.Nums[best]
		case dataset.StorageTime:
			c.Times[i] = c.Times[best]
		default:
			c.Texts[i] = c.Texts[best]
		}
		c.Valid[i] = true
	}
	return nil
}

func lessCell(c *dataset.Column, a, b int) bool {
	switch c.Storage {
	case dataset.StorageNumeric:
		return c.Nums[a] < c.Nums[b]
	case dataset.StorageTime:
		return c.Times[a].Before(c.Times[b])
	default:
		return c.Texts[a] < c.Texts[b]
	}
}

func fillConstant(c *dataset.Column, constant any) error {
	switch c.Storage {
	case dataset.StorageNumeric:
		v, err := cast.ToFloat64E(constant)
		if err != nil {
			return errs.Validation("constant", "constant value %v must be numeric for column '%s'", constant, c.Name)
		}
		fillNumeric(c, v)
	case dataset.StorageTime:
		tv, ok := parseConstantTime(constant)
		if !ok {
			return errs.Validation("constant", "constant value %v is not a date/time for column '%s'", constant, c.Name)
		}
		for i := range c.Valid {
			if !c.Valid[i] {
				c.Times[i] = tv
				c.Valid[i] = true
			}
		}
	default:
		s, err := cast.ToStringE(constant)
		if err != nil || s == "" {
			return errs.Validation("constant", "constant value %v cannot be used as text for column '%s'", constant, c.Name)
		}
		for i := range c.Valid {
			if !c.Valid[i] {
				c.Texts[i] = s
				c.Valid[i] = true
			}
		}
	}
	return nil
}

func parseConstantTime(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t.UTC(), true
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return time.Time{}, false
	}
	return dataset.ParseTime(s)
}

// RemoveColumn deletes a column.
type RemoveColumn struct {
	Column string `json:"column"`
}

func (op RemoveColumn) Name() string { return "remove_column" }

func (op RemoveColumn) Apply(t *dataset.Table) (*dataset.Table, error) {
	if _, err := t.Column(op.Column); err != nil {
		return nil, err
	}
	if t.NumCols() == 1 {
		return nil, errs.Precondition([]string{op.Column}, "cannot remove the only remaining column")
	}
	return t.Drop(op.Column)
}

// Recode rewrites matching values. The column becomes text; missing cells
// stay missing and unmatched values pass through unchanged.
type Recode struct {
	Column   string            `json:"column"`
	ValueMap map[string]string `json:"value_map"`
}

func (op Recode) Name() string { return "recode" }

func (op Recode) Apply(t *dataset.Table) (*dataset.Table, error) {
	c, err := t.Column(op.Column)
	if err != nil {
		return nil, err
	}
	if op.ValueMap == nil {
		return nil, errs.Validation("value_map", "a value map is required")
	}
	texts := make([]string, c.Len())
	out := &dataset.Column{Name: c.Name, Storage: dataset.StorageText, Texts: texts, Valid: append([]bool(nil), c.Valid...)}
	for i := range texts {
		if c.IsMissing(i) {
			continue
		}
		s := c.Text(i)
		if mapped, ok := op.ValueMap[s]; ok {
			s = mapped
		}
		texts[i] = s
	}
	return t.WithColumn(out)
}

// ParseValueMap accepts a flat mapping whose values are strings, numbers or
// booleans; nested or null values are rejected.
func ParseValueMap(raw any) (map[string]string, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		if sm, ok := raw.(map[string]string); ok {
			return sm, nil
		}
		return nil, errs.Validation("value_map", "must be a flat object mapping old values to new values, got %T", raw)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch v.(type) {
		case string, bool, float64, float32, int, int64, int32, uint, uint64, uint32:
			out[k] = cast.ToString(v)
		default:
			return nil, errs.Validation("value_map", "value for %q must be a string, got %T", k, v)
		}
	}
	return out, nil
}

// OutlierMethod selects how TreatOutliers handles values outside the fences.
type OutlierMethod string

const (
	OutlierRemove OutlierMethod = "remove"
	OutlierCap    OutlierMethod = "cap"
)

// TreatOutliers removes or caps values outside the 1.5*IQR fences.
type TreatOutliers struct {
	Column string        `json:"column"`
	Method OutlierMethod `json:"method"`
}

func (op TreatOutliers) Name() string { return "treat_outliers" }

func (op TreatOutliers) Apply(t *dataset.Table) (*dataset.Table, error) {
	if op.Method != OutlierRemove && op.Method != OutlierCap {
		return nil, errs.Validation("method", "unsupported treatment method %q (want remove or cap)", op.Method)
	}
	c, b, err := fences(t, op.Column)
	if err != nil {
		return nil, err
	}
	switch op.Method {
	case OutlierRemove:
		rows := make([]int, 0, c.Len())
		for i := 0; i < c.Len(); i++ {
			if c.IsMissing(i) || b.Contains(c.Nums[i]) {
				rows = append(rows, i)
			}
		}
		return t.Take(rows), nil
	default:
		out := c.Clone()
		for i := range out.Nums {
			if out.Valid[i] {
				out.Nums[i] = b.Clamp(out.Nums[i])
			}
		}
		return t.WithColumn(out)
	}
}

// Batch applies several imputations as a single transition.
type Batch struct {
	Imputations []Impute `json:"imputations"`
}

func (op Batch) Name() string { return "batch_impute" }

func (op Batch) Apply(t *dataset.Table) (*dataset.Table, error) {
	if len(op.Imputations) == 0 {
		return nil, errs.Validation("imputations", "at least one imputation is required")
	}
	cur := t
	for i, imp := range op.Imputations {
		next, err := imp.Apply(cur)
		if err != nil {
			return nil, fmt.Errorf("imputation %d (%s): %w", i+1, imp.Column, err)
		}
		cur = next
	}
	return cur, nil
}

// OutlierReport is the read-only result of outlier detection.
type OutlierReport struct {
	Column         string      `json:"column_name"`
	Count          int         `json:"outlier_count"`
	LowerBound     float64     `json:"lower_bound"`
	UpperBound     float64     `json:"upper_bound"`
	Q1             float64     `json:"q1"`
	Q3             float64     `json:"q3"`
	IQR            float64     `json:"iqr"`
	SampleOutliers []float64   `json:"sample_outliers"`
	Plot           *chart.Spec `json:"plot_spec,omitempty"`
}

// MaxSampleOutliers bounds OutlierReport.SampleOutliers.
const MaxSampleOutliers = 10

// DetectOutliers reports values outside the 1.5*IQR fences. Quartiles use
// linear interpolation between closest ranks.
func DetectOutliers(t *dataset.Table, column string) (*OutlierReport, error) {
	c, b, err := fences(t, column)
	if err != nil {
		return nil, err
	}
	r := &OutlierReport{Column: c.Name, LowerBound: b.Lower, UpperBound: b.Upper, Q1: b.Q1, Q3: b.Q3, IQR: b.IQR, SampleOutliers: []float64{}}
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) || b.Contains(c.Nums[i]) {
			continue
		}
		r.Count++
		if len(r.SampleOutliers) < MaxSampleOutliers {
			r.SampleOutliers = append(r.SampleOutliers, c.Nums[i])
		}
	}
	r.Plot = chart.BoxPlot(c.Name, c.Floats(), b)
	return r, nil
}

func fences(t *dataset.Table, column string) (*dataset.Column, stats.Bounds, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, stats.Bounds{}, err
	}
	if typ := dataset.Classify(c); typ != dataset.Numerical {
		return nil, stats.Bounds{}, errs.Validation("column", "outlier detection requires a numerical column; '%s' is %s", c.Name, typ)
	}
	b, ok := stats.IQRBounds(c.Floats())
	if !ok {
		return nil, stats.Bounds{}, errs.Precondition([]string{c.Name}, "column contains no valid numerical data to analyze")
	}
	return c, b, nil
}

// Describe renders an operation for logs and CLI output.
func Describe(op Operation) string {
	switch o := op.(type) {
	case Impute:
		return fmt.Sprintf("impute %s with %s", o.Column, o.Method)
	case RemoveColumn:
		return "remove column " + o.Column
	case Recode:
		return fmt.Sprintf("recode %s (%d mappings)", o.Column, len(o.ValueMap))
	case TreatOutliers:
		return fmt.Sprintf("%s outliers in %s", o.Method, o.Column)
	case Batch:
		cols := make([]string, len(o.Imputations))
		for i, imp := range o.Imputations {
			cols[i] = imp.Column
		}
		return "impute " + strings.Join(cols, ", ")
	default:
		return op.Name()
	}
}
