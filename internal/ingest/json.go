package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// jsonReader accepts an array of flat records. Keys become columns in order
// of first appearance; nested values are kept as compact JSON text.
type jsonReader struct{}

func (jsonReader) Format() string { return "json" }

func (jsonReader) CanRead(filename string) bool { return hasExt(filename, ".json") }

func (jsonReader) Read(data []byte, filename string, opt Options) (*dataset.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	bad := func(format string, args ...any) error {
		return errs.Validation("file", "%s: "+format, append([]any{filepath.Base(filename)}, args...)...)
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, bad("invalid JSON: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, bad("expected an array of records")
	}

	var header []string
	index := map[string]int{}
	var rows []map[string]string
	for dec.More() {
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rec, keys, err := readRecord(dec)
		if err != nil {
			return nil, bad("%v", err)
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(header)
				header = append(header, k)
			}
		}
		rows = append(rows, rec)
	}
	grid := make([][]string, len(rows))
	for i, rec := range rows {
		grid[i] = make([]string, len(header))
		for k, v := range rec {
			grid[i][index[k]] = v
		}
	}
	return buildTable(header, grid, opt)
}

// readRecord decodes one object, preserving key order.
func readRecord(dec *json.Decoder) (map[string]string, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("every array element must be an object")
	}
	rec := map[string]string{}
	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := kt.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		rec[key] = cellText(raw)
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	return rec, keys, nil
}

func cellText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case trimmed[0] == '{' || trimmed[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	}
	return string(trimmed)
}
