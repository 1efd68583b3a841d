// Package snapshot encodes table snapshots as Arrow IPC streams.
//
// A snapshot is a single stream with one record batch. Numeric columns are
// nullable Float64, text columns Utf8 and datetimes Timestamp[us, UTC].
// Decoding also accepts the integer, date and boolean types other Arrow
// producers commonly emit.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
)

var timestampType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

// Schema builds the Arrow schema for t.
func Schema(t *dataset.Table) *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		var typ arrow.DataType
		switch c.Storage {
		case dataset.StorageNumeric:
			typ = arrow.PrimitiveTypes.Float64
		case dataset.StorageTime:
			typ = timestampType
		default:
			typ = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: c.Name, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Encode writes t to w as an Arrow IPC stream.
func Encode(w io.Writer, t *dataset.Table) error {
	mem := memory.NewGoAllocator()
	schema := Schema(t)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, c := range t.Columns {
		switch fb := b.Field(i).(type) {
		case *array.Float64Builder:
			fb.Reserve(c.Len())
			for r := 0; r < c.Len(); r++ {
				if c.IsMissing(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(c.Nums[r])
			}
		case *array.TimestampBuilder:
			fb.Reserve(c.Len())
			for r := 0; r < c.Len(); r++ {
				if c.IsMissing(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(arrow.Timestamp(c.Times[r].UnixMicro()))
			}
		case *array.StringBuilder:
			fb.Reserve(c.Len())
			for r := 0; r < c.Len(); r++ {
				if c.IsMissing(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(c.Texts[r])
			}
		default:
			return fmt.Errorf("encode column %q: unexpected builder %T", c.Name, fb)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := wr.Write(rec); err != nil {
		_ = wr.Close()
		return fmt.Errorf("write record batch: %w", err)
	}
	if err := wr.Close(); err != nil {
		return fmt.Errorf("close ipc writer: %w", err)
	}
	return nil
}

// Marshal is Encode into a byte slice.
func Marshal(t *dataset.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads an Arrow IPC stream into a table, concatenating every record batch.
func Decode(r io.Reader) (*dataset.Table, error) {
	mem := memory.NewGoAllocator()
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("open ipc stream: %w", err)
	}
	defer rdr.Release()

	schema := rdr.Schema()
	cols := make([]*dataset.Column, schema.NumFields())
	for i, f := range schema.Fields() {
		st, err := storageFor(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		cols[i] = &dataset.Column{Name: f.Name, Storage: st}
	}

	for rdr.Next() {
		rec := rdr.Record()
		for i := range cols {
			if err := appendArray(cols[i], rec.Column(i)); err != nil {
				return nil, fmt.Errorf("column %q: %w", cols[i].Name, err)
			}
		}
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read record batch: %w", err)
	}
	return dataset.New(cols...)
}

// Unmarshal is Decode from a byte slice.
func Unmarshal(b []byte) (*dataset.Table, error) {
	return Decode(bytes.NewReader(b))
}

func storageFor(t arrow.DataType) (dataset.Storage, error) {
	switch t.ID() {
	case arrow.FLOAT64, arrow.FLOAT32,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return dataset.StorageNumeric, nil
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return dataset.StorageTime, nil
	case arrow.STRING, arrow.LARGE_STRING, arrow.BOOL:
		return dataset.StorageText, nil
	default:
		return 0, fmt.Errorf("unsupported arrow type %s", t)
	}
}

func appendArray(c *dataset.Column, arr arrow.Array) error {
	n := arr.Len()
	for r := 0; r < n; r++ {
		valid := arr.IsValid(r)
		switch c.Storage {
		case dataset.StorageNumeric:
			v := 0.0
			if valid {
				v = numericValue(arr, r)
				if math.IsNaN(v) {
					valid = false
					v = 0
				}
			}
			c.Nums = append(c.Nums, v)
		case dataset.StorageTime:
			var v time.Time
			if valid {
				v = timeValue(arr, r)
			}
			c.Times = append(c.Times, v)
		default:
			s := ""
			if valid {
				s = textValue(arr, r)
			}
			c.Texts = append(c.Texts, s)
		}
		c.Valid = append(c.Valid, valid)
	}
	return nil
}

func numericValue(arr arrow.Array, r int) float64 {
	switch a := arr.(type) {
	case *array.Float64:
		return a.Value(r)
	case *array.Float32:
		return float64(a.Value(r))
	case *array.Int8:
		return float64(a.Value(r))
	case *array.Int16:
		return float64(a.Value(r))
	case *array.Int32:
		return float64(a.Value(r))
	case *array.Int64:
		return float64(a.Value(r))
	case *array.Uint8:
		return float64(a.Value(r))
	case *array.Uint16:
		return float64(a.Value(r))
	case *array.Uint32:
		return float64(a.Value(r))
	case *array.Uint64:
		return float64(a.Value(r))
	default:
		return math.NaN()
	}
}

func timeValue(arr arrow.Array, r int) time.Time {
	switch a := arr.(type) {
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(r).ToTime(unit).UTC()
	case *array.Date32:
		return a.Value(r).ToTime().UTC()
	case *array.Date64:
		return a.Value(r).ToTime().UTC()
	default:
		return time.Time{}
	}
}

func textValue(arr arrow.Array, r int) string {
	switch a := arr.(type) {
	case *array.String:
		return a.Value(r)
	case *array.LargeString:
		return a.Value(r)
	case *array.Boolean:
		return strconv.FormatBool(a.Value(r))
	default:
		return arr.ValueStr(r)
	}
}
