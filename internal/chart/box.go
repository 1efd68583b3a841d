package chart

import (
	"github.com/KaramelBytes/vizprep-cli/internal/stats"
)

// BoxPlot builds the spec returned with outlier detection: the raw values
// plus the quartiles and fences the detection used.
func BoxPlot(column string, vals []float64, b stats.Bounds) *Spec {
	spec := newSpec(KindBox, defaultTitle("Box plot of %s", column))
	spec.Encoding[RoleY] = column
	spec.Series = []Series{{Name: column, Y: floatsAny(vals)}}
	spec.YAxis = linearAxis(column, vals)
	spec.Options["q1"] = b.Q1
	spec.Options["q3"] = b.Q3
	spec.Options["lower_fence"] = b.Lower
	spec.Options["upper_fence"] = b.Upper
	return spec
}
