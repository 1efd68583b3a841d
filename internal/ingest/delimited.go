package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

type delimitedReader struct{}

func (delimitedReader) Format() string { return "csv" }

func (delimitedReader) CanRead(filename string) bool {
	return hasExt(filename, ".csv", ".tsv", ".txt")
}

func (delimitedReader) Read(data []byte, filename string, opt Options) (*dataset.Table, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(filename, data)
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.Validation("file", "%s is empty", filepath.Base(filename))
	}
	if err != nil {
		return nil, errs.Validation("file", "parse %s: %v", filepath.Base(filename), err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Validation("file", "parse %s: %v", filepath.Base(filename), err)
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		rows = append(rows, rec)
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
	}
	return buildTable(header, rows, opt)
}

// sniffDelimiter uses the extension for .tsv and otherwise picks the most
// frequent of ',', ';' and '\t' on the first line.
func sniffDelimiter(filename string, data []byte) rune {
	if hasExt(filename, ".tsv") {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
