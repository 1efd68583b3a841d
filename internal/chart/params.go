package chart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// Role names accepted in a column mapping.
const (
	RoleX       = "x_axis"
	RoleY       = "y_axis"
	RoleZ       = "z_axis"
	RoleColor   = "color"
	RoleSize    = "size"
	RoleNames   = "names"
	RoleValues  = "values"
	RoleTime    = "time_axis"
	RolePath    = "path"
	RoleColumns = "columns"
)

// Mapping assigns dataset columns to chart roles.
type Mapping struct {
	X       string
	Y       string
	Z       string
	Color   string
	Size    string
	Names   string
	Values  string
	Time    string
	Path    []string
	Columns []string
}

// ParseMapping converts a loosely typed role mapping. Single-column roles
// must be strings; list roles accept a list of strings or one string.
// Unknown roles are ignored.
func ParseMapping(raw map[string]any) (Mapping, error) {
	var m Mapping
	single := map[string]*string{
		RoleX: &m.X, RoleY: &m.Y, RoleZ: &m.Z, RoleColor: &m.Color, RoleSize: &m.Size,
		RoleNames: &m.Names, RoleValues: &m.Values, RoleTime: &m.Time,
	}
	for role, dst := range single {
		v, ok := raw[role]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return Mapping{}, errs.Validation(role, "expected a column name, got %T", v)
		}
		*dst = strings.TrimSpace(s)
	}
	var err error
	if m.Path, err = stringList(raw, RolePath); err != nil {
		return Mapping{}, err
	}
	if m.Columns, err = stringList(raw, RoleColumns); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

func stringList(raw map[string]any, role string) ([]string, error) {
	v, ok := raw[role]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		return []string{strings.TrimSpace(t)}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errs.Validation(role, "expected a list of column names, found %T", item)
			}
			out = append(out, strings.TrimSpace(s))
		}
		return out, nil
	default:
		return nil, errs.Validation(role, "expected a list of column names, got %T", v)
	}
}

// Range is an explicit axis range.
type Range struct {
	Min float64
	Max float64
}

// Tuning holds optional visual knobs. Zero values mean "not set".
type Tuning struct {
	Title      string
	XRange     *Range
	YRange     *Range
	MarkerSize float64
	Opacity    float64
	LineWidth  float64
	LineStyle  string
	BarMode    string
	Palette    string
	NBins      int
	GridSize   int
	Seed       *uint64

	// Ignored lists knobs that were dropped as malformed or unknown.
	Ignored []string
}

// Defaults for binned charts.
const (
	DefaultNBins    = 50
	DefaultGridSize = 50
)

var (
	lineStyles = map[string]bool{"solid": true, "dot": true, "dash": true, "longdash": true, "dashdot": true, "longdashdot": true}
	barModes   = map[string]bool{"group": true, "stack": true, "overlay": true, "relative": true}
)

// ParseTuning validates tuning parameters. Malformed axis ranges and
// unknown palettes are dropped and recorded in Ignored; every other
// malformed knob is a validation error.
func ParseTuning(raw map[string]any) (Tuning, error) {
	t := Tuning{NBins: DefaultNBins, GridSize: DefaultGridSize}
	if v, ok := raw["custom_title"]; ok && v != nil {
		t.Title = strings.TrimSpace(cast.ToString(v))
	}
	t.XRange = parseRange(raw, "x", &t.Ignored)
	t.YRange = parseRange(raw, "y", &t.Ignored)

	var err error
	if t.MarkerSize, err = positiveFloat(raw, "marker_size"); err != nil {
		return Tuning{}, err
	}
	if t.LineWidth, err = positiveFloat(raw, "line_width"); err != nil {
		return Tuning{}, err
	}
	if v, ok := raw["opacity"]; ok && v != nil {
		f, cerr := cast.ToFloat64E(v)
		if cerr != nil || f < 0 || f > 1 {
			return Tuning{}, errs.Validation("opacity", "must be a number between 0 and 1, got %v", v)
		}
		t.Opacity = f
	}
	if v, ok := raw["line_style"]; ok && v != nil {
		s := strings.ToLower(cast.ToString(v))
		if !lineStyles[s] {
			return Tuning{}, errs.Validation("line_style", "unsupported line style %q", s)
		}
		t.LineStyle = s
	}
	if v, ok := raw["barmode"]; ok && v != nil {
		s := strings.ToLower(cast.ToString(v))
		if !barModes[s] {
			return Tuning{}, errs.Validation("barmode", "unsupported bar mode %q", s)
		}
		t.BarMode = s
	}
	if v, ok := raw["color_palette"]; ok && v != nil {
		name := cast.ToString(v)
		if _, known := lookupPalette(name); known {
			t.Palette = name
		} else if name != "" {
			t.Ignored = append(t.Ignored, fmt.Sprintf("color_palette %q", name))
		}
	}
	if n, set, err := positiveInt(raw, "nbins"); err != nil {
		return Tuning{}, err
	} else if set {
		t.NBins = n
	}
	if n, set, err := positiveInt(raw, "gridsize"); err != nil {
		return Tuning{}, err
	} else if set {
		t.GridSize = n
	}
	if v, ok := raw["seed"]; ok && v != nil {
		seed, cerr := cast.ToUint64E(v)
		if cerr != nil {
			return Tuning{}, errs.Validation("seed", "must be a non-negative integer, got %v", v)
		}
		t.Seed = &seed
	}
	sort.Strings(t.Ignored)
	return t, nil
}

// parseRange needs both bounds and min < max; anything else is ignored.
func parseRange(raw map[string]any, axis string, ignored *[]string) *Range {
	minKey, maxKey := axis+"_range_min", axis+"_range_max"
	lo, hasLo := raw[minKey]
	hi, hasHi := raw[maxKey]
	if !hasLo && !hasHi {
		return nil
	}
	fmin, errMin := cast.ToFloat64E(lo)
	fmax, errMax := cast.ToFloat64E(hi)
	if !hasLo || !hasHi || errMin != nil || errMax != nil || lo == nil || hi == nil || lo == "" || hi == "" || fmin >= fmax {
		*ignored = append(*ignored, axis+"_range")
		return nil
	}
	return &Range{Min: fmin, Max: fmax}
}

func positiveFloat(raw map[string]any, key string) (float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f <= 0 {
		return 0, errs.Validation(key, "must be a positive number, got %v", v)
	}
	return f, nil
}

func positiveInt(raw map[string]any, key string) (int, bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f <= 0 || f != float64(int(f)) {
		return 0, false, errs.Validation(key, "must be a positive integer, got %v", v)
	}
	return int(f), true, nil
}
