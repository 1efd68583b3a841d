package chart

import (
	"github.com/KaramelBytes/vizprep-cli/internal/stats"
)

// linearAxis builds a numeric axis with the dynamic default range.
func linearAxis(title string, vals []float64) *Axis {
	a := &Axis{Title: title, Type: AxisLinear}
	if lo, hi, ok := stats.DynamicRange(vals); ok {
		a.Range = &[2]float64{lo, hi}
	}
	return a
}

// applyTuning overlays user knobs on a generated spec. Styling only lands
// on kinds where the property is meaningful.
func applyTuning(s *Spec, t Tuning) {
	if t.Title != "" {
		s.Title = t.Title
	}
	if t.XRange != nil && s.XAxis != nil && s.XAxis.Type == AxisLinear {
		s.XAxis.Range = &[2]float64{t.XRange.Min, t.XRange.Max}
	}
	if t.YRange != nil && s.YAxis != nil && s.YAxis.Type == AxisLinear {
		s.YAxis.Range = &[2]float64{t.YRange.Min, t.YRange.Max}
	}
	if pal, ok := lookupPalette(t.Palette); ok {
		s.Style.Palette = pal
	}
	switch {
	case markerKinds[s.Kind]:
		s.Style.MarkerSize = t.MarkerSize
		s.Style.Opacity = t.Opacity
	case lineKinds[s.Kind]:
		s.Style.LineWidth = t.LineWidth
		s.Style.LineDash = t.LineStyle
		s.Style.Opacity = t.Opacity
	case barKinds[s.Kind]:
		s.Style.BarMode = t.BarMode
	}
}
