// Package ingest turns uploaded files into table snapshots.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/snapshot"
)

// Options controls how an upload is read.
type Options struct {
	// Sheet selects an XLSX worksheet by name; empty means the first sheet.
	Sheet string
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Delimiter overrides the field separator for delimited text. 0 picks
	// ',' or '\t' from the extension.
	Delimiter rune
	// LocaleNumbers accepts "1.234,5" style decimals, thousands separators
	// and trailing percent signs when inferring numeric columns.
	LocaleNumbers bool
}

// Reader decodes one upload format.
type Reader interface {
	Format() string
	CanRead(filename string) bool
	Read(data []byte, filename string, opt Options) (*dataset.Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(delimitedReader{})
	Register(jsonReader{})
	Register(xlsxReader{})
	Register(arrowReader{})
}

// Formats lists the extensions accepted for upload.
func Formats() []string {
	return []string{".csv", ".tsv", ".txt", ".json", ".xlsx", ".arrow"}
}

// Detect returns the reader for filename or a validation error.
func Detect(filename string) (Reader, error) {
	for _, r := range registry {
		if r.CanRead(filename) {
			return r, nil
		}
	}
	return nil, errs.Validation("file", "unsupported file type %q (supported: %s)", filepath.Ext(filename), strings.Join(Formats(), ", "))
}

// Read decodes an upload. filename only selects the format.
func Read(r io.Reader, filename string, opt Options) (*dataset.Table, string, error) {
	rd, err := Detect(filename)
	if err != nil {
		return nil, "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	t, err := rd.Read(data, filename, opt)
	if err != nil {
		return nil, "", err
	}
	if t.NumCols() == 0 {
		return nil, "", errs.Validation("file", "%s contains no columns", filepath.Base(filename))
	}
	return t, rd.Format(), nil
}

// ReadFile opens path and decodes it with Read.
func ReadFile(path string, opt Options) (*dataset.Table, string, error) {
	if _, err := Detect(path); err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return Read(f, path, opt)
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

type arrowReader struct{}

func (arrowReader) Format() string { return "arrow" }

func (arrowReader) CanRead(filename string) bool { return hasExt(filename, ".arrow") }

func (arrowReader) Read(data []byte, filename string, opt Options) (*dataset.Table, error) {
	t, err := snapshot.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Validation("file", "%s is not a valid arrow stream: %v", filepath.Base(filename), err)
	}
	if opt.MaxRows > 0 && t.NumRows() > opt.MaxRows {
		rows := make([]int, opt.MaxRows)
		for i := range rows {
			rows[i] = i
		}
		t = t.Take(rows)
	}
	return t, nil
}
