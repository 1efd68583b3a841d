package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileLinear(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5, 100}
	assert.InDelta(t, 2.25, Quantile(s, 0.25), 1e-12)
	assert.InDelta(t, 4.75, Quantile(s, 0.75), 1e-12)
	assert.InDelta(t, 3.5, Quantile(s, 0.5), 1e-12)
	assert.Equal(t, 1.0, Quantile(s, 0))
	assert.Equal(t, 100.0, Quantile(s, 1))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestIQRBounds(t *testing.T) {
	b, ok := IQRBounds([]float64{100, 1, 3, 2, 5, 4})
	require.True(t, ok)
	assert.InDelta(t, 2.5, b.IQR, 1e-12)
	assert.InDelta(t, -1.5, b.Lower, 1e-12)
	assert.InDelta(t, 8.5, b.Upper, 1e-12)
	assert.False(t, b.Contains(100))
	assert.Equal(t, 8.5, b.Clamp(100))
	assert.Equal(t, 3.0, b.Clamp(3))

	_, ok = IQRBounds(nil)
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	s, ok := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.True(t, ok)
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.138089935, s.Std, 1e-6)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.InDelta(t, 4.5, s.Median, 1e-12)

	_, ok = Describe(nil)
	assert.False(t, ok)
}

func TestSkewness(t *testing.T) {
	assert.Greater(t, Skewness([]float64{1, 1, 1, 2, 2, 3, 10, 20}), 0.5)
	assert.Less(t, Skewness([]float64{-20, -10, -3, -2, -2, -1, -1, -1}), -0.5)
	assert.Equal(t, 0.0, Skewness([]float64{3, 3, 3, 3}))
	assert.Equal(t, 0.0, Skewness([]float64{1, 2}))

	assert.Equal(t, "positively skewed", SkewLabel(0.8))
	assert.Equal(t, "negatively skewed", SkewLabel(-0.51))
	assert.Equal(t, "roughly symmetrical", SkewLabel(0.5))
}

func TestDynamicRange(t *testing.T) {
	lo, hi, ok := DynamicRange([]float64{5, 5, 5})
	require.True(t, ok)
	assert.Equal(t, 4.0, lo)
	assert.Equal(t, 6.0, hi)

	lo, hi, ok = DynamicRange([]float64{0, 100})
	require.True(t, ok)
	// p1 = 1, p99 = 99, buffer = 4.9
	assert.InDelta(t, -3.9, lo, 1e-9)
	assert.InDelta(t, 103.9, hi, 1e-9)

	_, _, ok = DynamicRange(nil)
	assert.False(t, ok)
}

func TestPearson(t *testing.T) {
	c, ok := Pearson([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
	require.True(t, ok)
	assert.InDelta(t, 1.0, c.R, 1e-12)
	assert.Equal(t, 0.0, c.P)
	assert.True(t, c.Significant())

	c, ok = Pearson([]float64{1, 2, 3, 4, 5, 6}, []float64{2, 1, 4, 3, 6, 5})
	require.True(t, ok)
	assert.InDelta(t, 0.8286, c.R, 1e-4)
	assert.InDelta(t, 0.0416, c.P, 1e-3)

	_, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok)
	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok)

	c, ok = Pearson([]float64{1, 2}, []float64{3, 1})
	require.True(t, ok)
	assert.Equal(t, 1.0, c.P)
}

func TestStrengthAndDirection(t *testing.T) {
	cases := []struct {
		r    float64
		want string
	}{
		{0.7, "strong"}, {-0.85, "strong"}, {0.4, "moderate"}, {-0.1, "weak"}, {0.05, "negligible"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Strength(c.r), "r=%v", c.r)
	}
	assert.Equal(t, "negative", Direction(-0.2))
	assert.Equal(t, "positive", Direction(0.2))
}
