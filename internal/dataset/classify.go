package dataset

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ColumnType is the semantic type inferred for a column.
type ColumnType string

const (
	Numerical   ColumnType = "numerical"
	Temporal    ColumnType = "temporal"
	Categorical ColumnType = "categorical"
)

// IsCategoricalOrTemporal reports whether t can act as a grouping axis.
func (t ColumnType) IsCategoricalOrTemporal() bool { return t == Categorical || t == Temporal }

// SampleSize bounds the number of distinct values ClassifySample parses.
const SampleSize = 10

// Classify infers the column type from the full non-missing value set.
// Metadata synthesis uses this mode.
func Classify(c *Column) ColumnType {
	return classify(c, 0)
}

// ClassifySample infers the column type from at most SampleSize distinct
// values (the lexicographically smallest ones, so row order never matters).
// It may disagree with Classify; use it only for ad hoc display decisions.
func ClassifySample(c *Column) ColumnType {
	return classify(c, SampleSize)
}

func classify(c *Column, limit int) ColumnType {
	switch c.Storage {
	case StorageNumeric:
		return Numerical
	case StorageTime:
		return Temporal
	}
	values := distinctTexts(c)
	if len(values) == 0 {
		return Categorical
	}
	if limit > 0 && len(values) > limit {
		sort.Strings(values)
		values = values[:limit]
	}
	for _, v := range values {
		if _, ok := ParseTime(v); !ok {
			return Categorical
		}
	}
	return Temporal
}

func distinctTexts(c *Column) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i, s := range c.Texts {
		if !c.Valid[i] {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano, TimeLayout, "2006-01-02", "2006/01/02",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
}

// ParseTime parses a date/time string. Common ISO layouts are tried first,
// then a permissive parser that infers the layout from the value itself.
// Bare numbers are rejected so that codes and counts stay categorical.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isBareNumber(s) {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func isBareNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
