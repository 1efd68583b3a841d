package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultPreviewRows is the number of leading rows serialized into metadata.
const DefaultPreviewRows = 5

// ColumnDescriptor summarizes one column.
type ColumnDescriptor struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	UniqueValues int        `json:"unique_values"`
	MissingCount int        `json:"missing_count"`
}

// Metadata is the dataset summary stored next to every snapshot.
type Metadata struct {
	Rows       int                `json:"rows"`
	Cols       int                `json:"cols"`
	Columns    []ColumnDescriptor `json:"metadata"`
	FirstNRows string             `json:"first_n_rows"`
}

// Descriptor looks up a column descriptor by name.
func (m *Metadata) Descriptor(name string) (ColumnDescriptor, bool) {
	for _, d := range m.Columns {
		if d.Name == name {
			return d, true
		}
	}
	return ColumnDescriptor{}, false
}

// Synthesizer derives Metadata from a table. The zero value is ready to use.
type Synthesizer struct {
	// PreviewRows defaults to DefaultPreviewRows when <= 0.
	PreviewRows int
	// Parallelism bounds concurrent column scans; defaults to GOMAXPROCS.
	Parallelism int
}

// Synthesize runs a zero-value Synthesizer.
func Synthesize(ctx context.Context, t *Table) (*Metadata, error) {
	return (&Synthesizer{}).Synthesize(ctx, t)
}

// Synthesize classifies every column in full mode and builds a fresh Metadata.
// The result depends on nothing but t.
func (s *Synthesizer) Synthesize(ctx context.Context, t *Table) (*Metadata, error) {
	descs := make([]ColumnDescriptor, len(t.Columns))

	g, gctx := errgroup.WithContext(ctx)
	limit := s.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, c := range t.Columns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			descs[i] = Describe(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := s.PreviewRows
	if n <= 0 {
		n = DefaultPreviewRows
	}
	preview, err := RecordsJSON(t, 0, n)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		Rows:       t.NumRows(),
		Cols:       t.NumCols(),
		Columns:    descs,
		FirstNRows: string(preview),
	}, nil
}

// Describe builds the descriptor for a single column.
func Describe(c *Column) ColumnDescriptor {
	return ColumnDescriptor{
		Name:         c.Name,
		Type:         Classify(c),
		UniqueValues: UniqueCount(c),
		MissingCount: c.MissingCount(),
	}
}

// UniqueCount counts distinct non-missing values.
func UniqueCount(c *Column) int {
	switch c.Storage {
	case StorageNumeric:
		seen := make(map[float64]struct{})
		for i, v := range c.Nums {
			if c.Valid[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	case StorageTime:
		seen := make(map[int64]struct{})
		for i, v := range c.Times {
			if c.Valid[i] {
				seen[v.UnixNano()] = struct{}{}
			}
		}
		return len(seen)
	default:
		return len(distinctTexts(c))
	}
}

// RecordsJSON serializes rows [start, end) as a JSON array of objects whose
// keys follow column order. Missing cells are null; timestamps are ISO-8601 UTC.
func RecordsJSON(t *Table, start, end int) ([]byte, error) {
	if end > t.NumRows() {
		end = t.NumRows()
	}
	if start < 0 {
		start = 0
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for r := start; r < end; r++ {
		if r > start {
			buf.WriteByte(',')
		}
		if err := writeRecord(&buf, t, r); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// RowsJSON serializes the given row indices in order.
func RowsJSON(t *Table, rows []int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for j, r := range rows {
		if j > 0 {
			buf.WriteByte(',')
		}
		if err := writeRecord(&buf, t, r); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeRecord(buf *bytes.Buffer, t *Table, r int) error {
	buf.WriteByte('{')
	for i, c := range t.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := writeCell(buf, c, r); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeCell(buf *bytes.Buffer, c *Column, r int) error {
	if c.IsMissing(r) {
		buf.WriteString("null")
		return nil
	}
	switch c.Storage {
	case StorageNumeric:
		v := c.Nums[r]
		if math.IsInf(v, 0) || math.IsNaN(v) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(FormatFloat(v))
		return nil
	case StorageTime:
		b, err := json.Marshal(FormatTime(c.Times[r]))
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	default:
		b, err := json.Marshal(c.Texts[r])
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}
