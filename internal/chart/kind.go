package chart

import (
	"strings"

	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// Kind identifies a chart generator.
type Kind string

const (
	KindHistogram           Kind = "histogram"
	KindKDE                 Kind = "kde_plot"
	KindCount               Kind = "count_plot"
	KindPie                 Kind = "pie_chart"
	KindPie3D               Kind = "pie_chart_3d"
	KindScatter             Kind = "scatter"
	KindLine                Kind = "line_chart"
	KindArea                Kind = "area_chart"
	KindBar                 Kind = "bar_chart"
	KindStackedBar          Kind = "stacked_bar_chart"
	KindViolin              Kind = "violin_plot"
	KindDensity             Kind = "density_plot"
	KindHexbin              Kind = "hexbin_plot"
	KindHeatmap             Kind = "heatmap"
	KindPairPlot            Kind = "pair_plot"
	KindBubble              Kind = "bubble_chart"
	KindScatter3D           Kind = "scatter_3d"
	KindParallelCoordinates Kind = "parallel_coordinates"
	KindSunburst            Kind = "sunburst_chart"
	KindTreemap             Kind = "treemap"
	KindRug                 Kind = "rug_plot"

	// KindBox is produced by outlier detection; it has no generator.
	KindBox Kind = "box"
)

// Kinds lists every kind that has a generator, in menu order.
func Kinds() []Kind {
	return []Kind{
		KindHistogram, KindKDE, KindCount, KindPie, KindPie3D,
		KindScatter, KindLine, KindArea, KindBar, KindStackedBar,
		KindViolin, KindDensity, KindHexbin, KindHeatmap, KindPairPlot,
		KindBubble, KindScatter3D, KindParallelCoordinates, KindSunburst,
		KindTreemap, KindRug,
	}
}

// ParseKind resolves a wire name to a registered Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if _, ok := registry[k]; !ok {
		return "", errs.Validation("chart_kind", "unsupported chart kind %q", s)
	}
	return k, nil
}

// markerKinds, lineKinds and barKinds restrict which styling knobs apply.
var (
	markerKinds = map[Kind]bool{KindScatter: true, KindBubble: true, KindScatter3D: true}
	lineKinds   = map[Kind]bool{KindLine: true, KindArea: true}
	barKinds    = map[Kind]bool{KindBar: true, KindStackedBar: true}
)
