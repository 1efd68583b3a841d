package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
)

// WriteCSV writes t with a header row. Missing cells are empty; timestamps
// are ISO-8601 UTC.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for j, c := range t.Columns {
			if c.IsMissing(r) {
				rec[j] = ""
				continue
			}
			rec[j] = c.Text(r)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
