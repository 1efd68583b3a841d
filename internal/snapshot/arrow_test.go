package snapshot

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
)

func TestRoundTripPreservesTypesAndNulls(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 123000000, time.UTC)
	in := dataset.MustNew(
		dataset.NewNumericColumn("age", []float64{25, 30, math.NaN(), 45}),
		dataset.NewTextColumn("city", []string{"NY", "", "NY", "SF"}),
		dataset.NewTimeColumn("joined", []time.Time{ts, {}, ts.Add(time.Hour), ts}),
	)
	b, err := Marshal(in)
	require.NoError(t, err)

	out, err := Unmarshal(b)
	require.NoError(t, err)
	require.Equal(t, in.Names(), out.Names())
	assert.Equal(t, 4, out.NumRows())

	age, _ := out.Column("age")
	assert.Equal(t, dataset.StorageNumeric, age.Storage)
	assert.True(t, age.IsMissing(2))
	assert.Equal(t, 45.0, age.Nums[3])

	city, _ := out.Column("city")
	assert.Equal(t, dataset.StorageText, city.Storage)
	assert.True(t, city.IsMissing(1))
	assert.Equal(t, "SF", city.Texts[3])

	joined, _ := out.Column("joined")
	assert.Equal(t, dataset.StorageTime, joined.Storage)
	assert.True(t, joined.IsMissing(1))
	assert.True(t, ts.Equal(joined.Times[0]))
}

func TestDecodeAcceptsForeignTypesAcrossBatches(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "n", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "flag", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	for batch := 0; batch < 2; batch++ {
		b := array.NewRecordBuilder(mem, schema)
		b.Field(0).(*array.Int64Builder).AppendValues([]int64{int64(batch), 7}, []bool{true, batch == 0})
		b.Field(1).(*array.BooleanBuilder).AppendValues([]bool{true, false}, nil)
		rec := b.NewRecord()
		require.NoError(t, w.Write(rec))
		rec.Release()
		b.Release()
	}
	require.NoError(t, w.Close())

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, out.NumRows())
	n, _ := out.Column("n")
	assert.Equal(t, []float64{0, 7, 1, 0}, n.Nums)
	assert.Equal(t, []bool{true, true, true, false}, n.Valid)
	flag, _ := out.Column("flag")
	assert.Equal(t, "true", flag.Texts[0])
	assert.Equal(t, "false", flag.Texts[1])
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("not arrow"))
	assert.Error(t, err)
}
