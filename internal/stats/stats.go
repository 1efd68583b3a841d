// Package stats holds the numeric helpers shared by the cleaning and chart
// packages: quantiles, descriptive summaries, IQR bounds and Pearson correlation.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sorted returns an ascending copy of vals.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the q-th quantile of an ascending slice using linear
// interpolation between closest ranks (position q*(n-1)).
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median of unsorted values.
func Median(vals []float64) float64 {
	return Quantile(Sorted(vals), 0.5)
}

// Mean of vals; NaN when empty.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// StdDev is the sample standard deviation (n-1 denominator); NaN when n < 2.
func StdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

// Skewness is the adjusted Fisher-Pearson coefficient. Degenerate inputs
// (n < 3 or zero variance) yield 0.
func Skewness(vals []float64) float64 {
	if len(vals) < 3 {
		return 0
	}
	s := stat.Skew(vals, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// Summary is the describe()-style profile of a numeric sample.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	Skew   float64
}

// Describe computes a Summary over vals. It returns false when vals is empty.
func Describe(vals []float64) (Summary, bool) {
	if len(vals) == 0 {
		return Summary{}, false
	}
	s := Sorted(vals)
	return Summary{
		Count:  len(s),
		Mean:   Mean(s),
		Std:    StdDev(s),
		Min:    s[0],
		Q1:     Quantile(s, 0.25),
		Median: Quantile(s, 0.5),
		Q3:     Quantile(s, 0.75),
		Max:    s[len(s)-1],
		Skew:   Skewness(s),
	}, true
}

// SkewLabel buckets a skewness coefficient.
func SkewLabel(skew float64) string {
	switch {
	case skew > 0.5:
		return "positively skewed"
	case skew < -0.5:
		return "negatively skewed"
	default:
		return "roughly symmetrical"
	}
}

// Bounds are Tukey fences derived from the interquartile range.
type Bounds struct {
	Q1    float64
	Q3    float64
	IQR   float64
	Lower float64
	Upper float64
}

// Contains reports whether v lies inside [Lower, Upper].
func (b Bounds) Contains(v float64) bool { return v >= b.Lower && v <= b.Upper }

// Clamp limits v to [Lower, Upper].
func (b Bounds) Clamp(v float64) float64 {
	return math.Min(math.Max(v, b.Lower), b.Upper)
}

// IQRBounds computes Q1, Q3 and the 1.5*IQR fences. It returns false when vals is empty.
func IQRBounds(vals []float64) (Bounds, bool) {
	if len(vals) == 0 {
		return Bounds{}, false
	}
	s := Sorted(vals)
	q1 := Quantile(s, 0.25)
	q3 := Quantile(s, 0.75)
	iqr := q3 - q1
	return Bounds{Q1: q1, Q3: q3, IQR: iqr, Lower: q1 - 1.5*iqr, Upper: q3 + 1.5*iqr}, true
}

// DynamicRange returns a display range from the 1st/99th percentiles padded
// by 5% of their span. A constant sample yields [min-1, max+1].
func DynamicRange(vals []float64) (lo, hi float64, ok bool) {
	if len(vals) == 0 {
		return 0, 0, false
	}
	s := Sorted(vals)
	p1 := Quantile(s, 0.01)
	p99 := Quantile(s, 0.99)
	if p1 == p99 {
		return s[0] - 1, s[len(s)-1] + 1, true
	}
	buf := (p99 - p1) * 0.05
	return p1 - buf, p99 + buf, true
}
