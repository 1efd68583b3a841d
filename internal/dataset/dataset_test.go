package dataset

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

var nan = math.NaN()

func TestClassifyByStorage(t *testing.T) {
	assert.Equal(t, Numerical, Classify(NewNumericColumn("n", []float64{1, nan})))
	assert.Equal(t, Numerical, Classify(NewNumericColumn("empty", []float64{nan, nan})))
	assert.Equal(t, Temporal, Classify(NewTimeColumn("ts", []time.Time{time.Now()})))
	assert.Equal(t, Categorical, Classify(NewTextColumn("city", []string{"NY", "LA"})))
	assert.Equal(t, Categorical, Classify(NewTextColumn("blank", []string{"", ""})))
}

func TestClassifyTextDates(t *testing.T) {
	dates := NewTextColumn("d", []string{"2024-01-05", "", "2024/02/07", "March 3, 2024"})
	assert.Equal(t, Temporal, Classify(dates))

	mixed := NewTextColumn("m", []string{"2024-01-05", "tomorrow"})
	assert.Equal(t, Categorical, Classify(mixed))

	codes := NewTextColumn("codes", []string{"1001", "1002"})
	assert.Equal(t, Categorical, Classify(codes))
}

func TestClassifyDeterministicUnderReordering(t *testing.T) {
	a := NewTextColumn("d", []string{"", "2024-01-05", "", "2024-01-06", "x"})
	b := NewTextColumn("d", []string{"x", "2024-01-06", "2024-01-05", "", ""})
	for i := 0; i < 5; i++ {
		assert.Equal(t, Classify(a), Classify(b))
		assert.Equal(t, ClassifySample(a), ClassifySample(b))
	}
	assert.Equal(t, Categorical, Classify(a))
}

func TestClassifySampleMayDisagree(t *testing.T) {
	vals := make([]string, 0, 12)
	for d := 10; d < 21; d++ {
		vals = append(vals, "2024-01-"+itoa(d))
	}
	vals = append(vals, "zzz")
	c := NewTextColumn("d", vals)
	assert.Equal(t, Temporal, ClassifySample(c))
	assert.Equal(t, Categorical, Classify(c))
}

func itoa(d int) string { return FormatFloat(float64(d)) }

func TestSynthesizeRoundTripScenario(t *testing.T) {
	tbl := MustNew(
		NewNumericColumn("age", []float64{25, 30, nan, 45}),
		NewTextColumn("city", []string{"NY", "LA", "NY", "SF"}),
	)
	md, err := Synthesize(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, 4, md.Rows)
	assert.Equal(t, 2, md.Cols)

	age, ok := md.Descriptor("age")
	require.True(t, ok)
	assert.Equal(t, Numerical, age.Type)
	assert.Equal(t, 1, age.MissingCount)
	assert.Equal(t, 3, age.UniqueValues)

	city, ok := md.Descriptor("city")
	require.True(t, ok)
	assert.Equal(t, Categorical, city.Type)
	assert.Equal(t, 3, city.UniqueValues)

	assert.JSONEq(t, `[{"age":25,"city":"NY"},{"age":30,"city":"LA"},{"age":null,"city":"NY"},{"age":45,"city":"SF"}]`, md.FirstNRows)
}

func TestSynthesizePreviewIsBoundedAndISO(t *testing.T) {
	ts := make([]time.Time, 8)
	for i := range ts {
		ts[i] = time.Date(2024, 1, i+1, 12, 0, 0, 0, time.UTC)
	}
	tbl := MustNew(NewTimeColumn("when", ts))
	md, err := (&Synthesizer{PreviewRows: 5, Parallelism: 1}).Synthesize(context.Background(), tbl)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(md.FirstNRows), &rows))
	require.Len(t, rows, 5)
	assert.Equal(t, "2024-01-01T12:00:00.000Z", rows[0]["when"])
	assert.Equal(t, Temporal, md.Columns[0].Type)
}

func TestSynthesizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Synthesize(ctx, MustNew(NewNumericColumn("a", []float64{1})))
	require.ErrorIs(t, err, context.Canceled)
}

func TestTableOperationsDoNotMutate(t *testing.T) {
	tbl := MustNew(
		NewNumericColumn("a", []float64{1, 2, 3}),
		NewTextColumn("b", []string{"x", "y", "z"}),
	)
	dropped, err := tbl.Drop("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, dropped.Names())
	assert.Equal(t, []string{"a", "b"}, tbl.Names())

	taken := tbl.Take([]int{2, 0})
	assert.Equal(t, "z", taken.Columns[1].Text(0))
	assert.Equal(t, 3, tbl.NumRows())

	_, err = tbl.Drop("missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := New(NewNumericColumn("a", []float64{1}), NewNumericColumn("b", []float64{1, 2}))
	assert.True(t, errs.IsValidation(err))
	_, err = New(NewNumericColumn("a", []float64{1}), NewNumericColumn("a", []float64{2}))
	assert.True(t, errs.IsValidation(err))
}

func TestSortedRows(t *testing.T) {
	tbl := MustNew(
		NewNumericColumn("n", []float64{3, nan, 1, 2}),
		NewTextColumn("s", []string{"b", "A", "", "c"}),
	)
	rows, err := SortedRows(tbl, "n", Ascending)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 0, 1}, rows)

	rows, err = SortedRows(tbl, "n", Descending)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 2, 1}, rows)

	rows, err = SortedRows(tbl, "s", Ascending)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 3, 2}, rows)

	_, err = SortedRows(tbl, "nope", Ascending)
	assert.True(t, errs.IsNotFound(err))

	_, err = ParseSortOrder("sideways")
	assert.True(t, errs.IsValidation(err))
}

func TestUniqueTexts(t *testing.T) {
	c := NewNumericColumn("n", []float64{2, 1, nan, 2, 10})
	assert.Equal(t, []string{"1", "10", "2"}, UniqueTexts(c))
}
