package chart

import (
	"context"
	"fmt"
)

// Output modes.
const (
	ModeSpec  = "spec"
	ModeImage = "image"
)

// Output is what a renderer returns for one spec.
type Output struct {
	Mode string `json:"mode"`
	Spec *Spec  `json:"spec,omitempty"`
	// Image is a base64 encoded raster, set only in ModeImage.
	Image string `json:"image,omitempty"`
}

// Renderer turns a spec into client-ready chart data. Implementations are
// constructed per request and hold no process-wide state.
type Renderer interface {
	Render(ctx context.Context, s *Spec) (*Output, error)
}

// JSONRenderer passes the declarative spec through for interactive
// front ends. Every chart kind renders in ModeSpec.
type JSONRenderer struct{}

// NewJSONRenderer returns a renderer for one request.
func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(ctx context.Context, s *Spec) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || len(s.Series) == 0 {
		return nil, fmt.Errorf("render: empty chart spec")
	}
	return &Output{Mode: ModeSpec, Spec: s}, nil
}
