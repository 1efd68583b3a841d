package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Correlation is a Pearson coefficient with its two-sided p-value.
type Correlation struct {
	R float64
	P float64
	N int
}

// Pearson computes r and the two-sided p-value for paired samples. It
// returns false when fewer than two pairs are given or either side is constant.
func Pearson(x, y []float64) (Correlation, bool) {
	n := len(x)
	if n != len(y) || n < 2 {
		return Correlation{}, false
	}
	if isConstant(x) || isConstant(y) {
		return Correlation{}, false
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return Correlation{}, false
	}
	r = math.Max(-1, math.Min(1, r))
	return Correlation{R: r, P: pValue(r, n), N: n}, true
}

func pValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}

func isConstant(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}

// Strength buckets |r|.
func Strength(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.7:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.1:
		return "weak"
	default:
		return "negligible"
	}
}

// Direction names the sign of r.
func Direction(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}

// Significant reports p < 0.05.
func (c Correlation) Significant() bool { return c.P < 0.05 }
