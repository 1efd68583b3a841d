package dataset

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// SortOrder is the direction of a raw rows view.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortOrder accepts "", "asc" and "desc".
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", errs.Validation("sort_direction", "unsupported direction %q (want asc or desc)", s)
	}
}

// SortedRows returns row indices ordered by the key column. Numeric columns
// sort numerically, datetimes chronologically, text case-insensitively.
// Missing cells always sort last and ties keep their original order.
// An empty key returns the natural order.
func SortedRows(t *Table, key string, order SortOrder) ([]int, error) {
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	if key == "" {
		return rows, nil
	}
	c, err := t.Column(key)
	if err != nil {
		return nil, err
	}
	desc := order == Descending
	var lowered []string
	if c.Storage == StorageText {
		lowered = make([]string, c.Len())
		for i, s := range c.Texts {
			lowered[i] = strings.ToLower(s)
		}
	}
	less := func(a, b int) bool {
		switch c.Storage {
		case StorageNumeric:
			return c.Nums[a] < c.Nums[b]
		case StorageTime:
			return c.Times[a].Before(c.Times[b])
		default:
			return lowered[a] < lowered[b]
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		ma, mb := c.IsMissing(a), c.IsMissing(b)
		if ma || mb {
			return !ma && mb
		}
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return rows, nil
}

// UniqueTexts returns the sorted distinct non-missing values rendered as text.
func UniqueTexts(c *Column) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		s := c.Text(i)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
