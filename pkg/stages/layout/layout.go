// Package layout implements the layout calculation stage.
package layout

import (
	"context"
	"fmt"

	"github.com/user/framesync/pkg/pipeline"
)

// ScaleNumerator and ScaleDenominator define the downscale factor applied to
// every input frame relative to the canvas (5/8 of the canvas size).
const (
	ScaleNumerator   = 5
	ScaleDenominator = 8
)

// Stage calculates the composition geometry.
// This is a pure function with no external dependencies.
type Stage struct{}

// NewStage creates a new layout stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute calculates the layout based on the input parameters.
func (s *Stage) Execute(ctx context.Context, input pipeline.LayoutInput) (pipeline.LayoutResult, error) {
	if err := Validate(input); err != nil {
		return pipeline.LayoutResult{}, err
	}
	return ComputeLayout(input), nil
}

// Validate checks that the geometry can be computed.
func Validate(input pipeline.LayoutInput) error {
	if input.SourceWidth <= 0 || input.SourceHeight <= 0 {
		return fmt.Errorf("%w: source %dx%d", pipeline.ErrUnsupportedResolution, input.SourceWidth, input.SourceHeight)
	}
	if input.CanvasWidth <= 0 || input.CanvasHeight <= 0 || input.CanvasWidth%2 != 0 {
		return fmt.Errorf("%w: canvas %dx%d", pipeline.ErrUnsupportedResolution, input.CanvasWidth, input.CanvasHeight)
	}
	scaledW := input.CanvasWidth * ScaleNumerator / ScaleDenominator
	if scaledW < input.CanvasWidth/2 {
		return fmt.Errorf("%w: scaled width %d narrower than half canvas", pipeline.ErrUnsupportedResolution, scaledW)
	}
	return nil
}

// ComputeLayout performs the layout calculation.
// This is exposed as a standalone function for testing and reuse.
//
// Each source is downscaled to 5/8 of the canvas (1200x675 for 1920x1080),
// the central band of half the canvas width is kept (columns 120..1079) and
// the two bands are placed side by side at the top of the canvas. Rows below
// the scaled height stay black.
func ComputeLayout(input pipeline.LayoutInput) pipeline.LayoutResult {
	scaled := pipeline.Dimension{
		Width:  input.CanvasWidth * ScaleNumerator / ScaleDenominator,
		Height: input.CanvasHeight * ScaleNumerator / ScaleDenominator,
	}
	half := input.CanvasWidth / 2
	cropX := (scaled.Width - half) / 2

	return pipeline.LayoutResult{
		Source: pipeline.Dimension{Width: input.SourceWidth, Height: input.SourceHeight},
		Canvas: pipeline.Dimension{Width: input.CanvasWidth, Height: input.CanvasHeight},
		Scaled: scaled,
		Crop: pipeline.Rectangle{
			X:      cropX,
			Y:      0,
			Width:  half,
			Height: scaled.Height,
		},
		Left:  pipeline.Point{X: 0, Y: 0},
		Right: pipeline.Point{X: half, Y: 0},
	}
}
