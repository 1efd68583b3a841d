package ingest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
)

var missingTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true,
	"null": true, "NULL": true, "None": true, "none": true, "#N/A": true,
	"-": true, "NaT": true, "<NA>": true,
}

// IsMissingToken reports whether a raw cell means "no value".
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// buildTable assembles columns from a header and string rows. Short rows are
// padded with missing cells and extra cells are dropped. A column becomes
// numeric when every non-missing cell parses as a number.
func buildTable(header []string, rows [][]string, opt Options) (*dataset.Table, error) {
	names := headerNames(header)
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		rows = rows[:opt.MaxRows]
	}
	cols := make([]*dataset.Column, len(names))
	for j, name := range names {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				raw[i] = strings.TrimSpace(row[j])
			}
			if IsMissingToken(raw[i]) {
				raw[i] = ""
			}
		}
		cols[j] = inferColumn(name, raw, opt)
	}
	return dataset.New(cols...)
}

func inferColumn(name string, raw []string, opt Options) *dataset.Column {
	nums := make([]float64, len(raw))
	seen := 0
	for i, s := range raw {
		if s == "" {
			nums[i] = math.NaN()
			continue
		}
		v, ok := parseNumber(s, opt.LocaleNumbers)
		if !ok {
			return dataset.NewTextColumn(name, raw)
		}
		nums[i] = v
		seen++
	}
	if seen == 0 {
		return dataset.NewTextColumn(name, raw)
	}
	return dataset.NewNumericColumn(name, nums)
}

// headerNames fills blank names and disambiguates duplicates with a numeric suffix.
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", base, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

var localeNumber = regexp.MustCompile(`^[+-]?[0-9][0-9.,\s\x{00A0}]*([eE][+-]?[0-9]+)?\s*%?$`)

func parseNumber(s string, locale bool) (float64, bool) {
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
		return f, true
	}
	if !locale || !localeNumber.MatchString(s) {
		return 0, false
	}
	return parseLocaleNumber(s)
}

// parseLocaleNumber resolves the decimal separator from the last ',' or '.'
// and strips the other as a thousands separator. A lone comma followed by
// exactly three digits, or repeated commas, group thousands.
func parseLocaleNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	raw = strings.ReplaceAll(raw, "\u00a0", "")
	raw = strings.ReplaceAll(raw, " ", "")
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	if cpos > dpos {
		dec = ','
		if dpos < 0 && (strings.Count(raw, ",") > 1 || len(raw)-cpos-1 == 3) {
			dec = '.'
		}
	}
	for _, sep := range []rune{',', '.'} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
