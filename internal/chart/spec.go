package chart

// Spec is a renderer-agnostic chart description.
type Spec struct {
	Kind        Kind              `json:"kind"`
	Title       string            `json:"title"`
	Encoding    map[string]string `json:"encoding,omitempty"`
	Orientation string            `json:"orientation,omitempty"`
	Series      []Series          `json:"series"`
	XAxis       *Axis             `json:"x_axis,omitempty"`
	YAxis       *Axis             `json:"y_axis,omitempty"`
	ZAxis       *Axis             `json:"z_axis,omitempty"`
	Style       Style             `json:"style"`
	Options     map[string]any    `json:"options,omitempty"`
}

// Series is one trace. Only the fields meaningful for the chart kind are set.
type Series struct {
	Name       string      `json:"name,omitempty"`
	X          []any       `json:"x,omitempty"`
	Y          []any       `json:"y,omitempty"`
	Z          []any       `json:"z,omitempty"`
	Size       []float64   `json:"size,omitempty"`
	Color      []any       `json:"color,omitempty"`
	Labels     []string    `json:"labels,omitempty"`
	Parents    []string    `json:"parents,omitempty"`
	IDs        []string    `json:"ids,omitempty"`
	Values     []float64   `json:"values,omitempty"`
	Matrix     [][]float64 `json:"matrix,omitempty"`
	Dimensions []Dimension `json:"dimensions,omitempty"`
}

// Dimension is one axis of a parallel-coordinates or scatter-matrix chart.
type Dimension struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// Axis scale types.
const (
	AxisLinear   = "linear"
	AxisCategory = "category"
	AxisDate     = "date"
)

// Axis describes one plot axis.
type Axis struct {
	Title string      `json:"title"`
	Type  string      `json:"type"`
	Range *[2]float64 `json:"range,omitempty"`
}

// Style carries the applied visual tuning.
type Style struct {
	Palette    []string `json:"palette,omitempty"`
	MarkerSize float64  `json:"marker_size,omitempty"`
	Opacity    float64  `json:"opacity,omitempty"`
	LineWidth  float64  `json:"line_width,omitempty"`
	LineDash   string   `json:"line_dash,omitempty"`
	BarMode    string   `json:"barmode,omitempty"`
}

func newSpec(kind Kind, title string) *Spec {
	return &Spec{Kind: kind, Title: title, Encoding: map[string]string{}, Options: map[string]any{}}
}
