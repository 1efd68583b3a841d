package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
)

func table() *dataset.Table {
	return dataset.MustNew(
		dataset.NewNumericColumn("age", []float64{25, 30, math.NaN(), 45, 60}),
		dataset.NewTextColumn("city", []string{"NY", "LA", "NY", "", "SF"}),
		dataset.NewTextColumn("day", []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}),
	)
}

func TestEmptyFiltersReturnInput(t *testing.T) {
	in := table()
	assert.Same(t, in, Apply(in, nil, nil))
	assert.Same(t, in, Apply(in, Parse(map[string]any{}), nil))
}

func TestCategoricalList(t *testing.T) {
	in := table()
	out := Apply(in, Parse(map[string]any{"city": []any{"NY", "SF"}}), nil)
	require.Equal(t, 3, out.NumRows())
	city, _ := out.Column("city")
	assert.Equal(t, []string{"NY", "NY", "SF"}, city.Texts)
	age, _ := out.Column("age")
	assert.True(t, age.IsMissing(1))
}

func TestEmptyListIsNoFilter(t *testing.T) {
	in := table()
	assert.Same(t, in, Apply(in, Parse(map[string]any{"city": []any{}}), nil))
}

func TestNumericRangeCoercesBounds(t *testing.T) {
	in := table()
	out := Apply(in, Parse(map[string]any{"age": map[string]any{"min": "26", "max": 50.0}}), nil)
	age, _ := out.Column("age")
	assert.Equal(t, []float64{30, 45}, age.Nums)

	out = Apply(in, Parse(map[string]any{"age": map[string]any{"min": 40}}), nil)
	age, _ = out.Column("age")
	assert.Equal(t, []float64{45, 60}, age.Nums)
}

func TestFiltersCombineAndKeepOrder(t *testing.T) {
	out := Apply(table(), Parse(map[string]any{
		"city": []any{"NY", "LA", "SF"},
		"age":  map[string]any{"max": 59},
	}), nil)
	age, _ := out.Column("age")
	assert.Equal(t, []float64{25, 30}, age.Nums)
}

func TestMismatchedAndUnknownAreIgnored(t *testing.T) {
	in := table()
	raw := map[string]any{
		"missing": []any{"x"},
		"age":     []any{"25"},
		"city":    map[string]any{"min": 1},
		"day":     []any{"2024-01-01"},
	}
	assert.Same(t, in, Apply(in, Parse(raw), nil))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := table()
	before := in.Clone()
	_ = Apply(in, Parse(map[string]any{"city": []any{"LA"}}), nil)
	assert.Equal(t, before, in)
}
