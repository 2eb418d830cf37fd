// Package composite implements the frame composition stage.
package composite

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/pipeline"
)

// Scaler names accepted by Options.Scaler.
const (
	ScalerArea       = "area"
	ScalerCatmullRom = "catmullrom"
	ScalerBilinear   = "bilinear"
	ScalerNearest    = "nearest"
)

// Options configures the compositor.
type Options struct {
	// Scaler selects the downscale filter (default: area).
	Scaler string
	// Parallel scales the two sources on separate goroutines.
	Parallel bool
}

// Compositor composes two source frames side by side on a black canvas.
// It owns scratch buffers and the output canvas, so a Compositor must not be
// used from more than one goroutine at a time.
type Compositor struct {
	layout   pipeline.LayoutResult
	parallel bool
	canvas   *frame.Image
	left     bandScaler
	right    bandScaler
}

// bandScaler downsamples one source and writes the kept band into the canvas.
type bandScaler interface {
	scale(dst, src *frame.Image, offX, offY int)
}

// NewCompositor creates a compositor for the given geometry.
func NewCompositor(layout pipeline.LayoutResult, opts Options) (*Compositor, error) {
	c := &Compositor{
		layout:   layout,
		parallel: opts.Parallel,
		canvas:   frame.New(layout.Canvas.Width, layout.Canvas.Height),
	}

	newScaler := func() (bandScaler, error) {
		switch opts.Scaler {
		case "", ScalerArea:
			return newAreaScaler(layout.Source.Width, layout.Source.Height,
				layout.Scaled.Width, layout.Scaled.Height, layout.Crop.X, layout.Crop.Width), nil
		case ScalerCatmullRom:
			return newDrawScaler(draw.CatmullRom, layout), nil
		case ScalerBilinear:
			return newDrawScaler(draw.BiLinear, layout), nil
		case ScalerNearest:
			return newDrawScaler(draw.NearestNeighbor, layout), nil
		default:
			return nil, fmt.Errorf("unknown scaler %q", opts.Scaler)
		}
	}

	var err error
	if c.left, err = newScaler(); err != nil {
		return nil, err
	}
	if c.right, err = newScaler(); err != nil {
		return nil, err
	}
	return c, nil
}

// Layout returns the geometry the compositor was built with.
func (c *Compositor) Layout() pipeline.LayoutResult {
	return c.layout
}

// Compose downscales both frames, crops their central bands and places A on
// the left and B on the right. The returned canvas is reused by the next call.
func (c *Compositor) Compose(a, b *frame.Image) (*frame.Image, error) {
	if err := c.check("A", a); err != nil {
		return nil, err
	}
	if err := c.check("B", b); err != nil {
		return nil, err
	}

	c.canvas.Clear()
	l, r := c.layout.Left, c.layout.Right

	if c.parallel {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.right.scale(c.canvas, b, r.X, r.Y)
		}()
		c.left.scale(c.canvas, a, l.X, l.Y)
		wg.Wait()
	} else {
		c.left.scale(c.canvas, a, l.X, l.Y)
		c.right.scale(c.canvas, b, r.X, r.Y)
	}

	return c.canvas, nil
}

func (c *Compositor) check(source string, img *frame.Image) error {
	if img == nil {
		return pipeline.NewSourceError(source, "frame", fmt.Errorf("nil frame"))
	}
	want := c.layout.Source
	if img.Width() != want.Width || img.Height() != want.Height {
		return pipeline.NewSourceError(source,
			fmt.Sprintf("frame %dx%d, expected %dx%d", img.Width(), img.Height(), want.Width, want.Height),
			pipeline.ErrUnsupportedResolution)
	}
	return nil
}

// drawScaler resamples with a golang.org/x/image/draw interpolator.
type drawScaler struct {
	interp draw.Interpolator
	crop   image.Rectangle
	src    *image.RGBA
	scaled *image.RGBA
}

func newDrawScaler(interp draw.Interpolator, layout pipeline.LayoutResult) *drawScaler {
	return &drawScaler{
		interp: interp,
		crop: image.Rect(layout.Crop.X, layout.Crop.Y,
			layout.Crop.X+layout.Crop.Width, layout.Crop.Y+layout.Crop.Height),
		src:    image.NewRGBA(image.Rect(0, 0, layout.Source.Width, layout.Source.Height)),
		scaled: image.NewRGBA(image.Rect(0, 0, layout.Scaled.Width, layout.Scaled.Height)),
	}
}

func (s *drawScaler) scale(dst, src *frame.Image, offX, offY int) {
	// Expand to RGBA so the interpolator takes its fast path.
	for y := 0; y < src.Height(); y++ {
		in := src.Row(y)
		out := s.src.Pix[y*s.src.Stride:]
		for x := 0; x < src.Width(); x++ {
			out[x*4] = in[x*3]
			out[x*4+1] = in[x*3+1]
			out[x*4+2] = in[x*3+2]
			out[x*4+3] = 0xff
		}
	}

	s.interp.Scale(s.scaled, s.scaled.Bounds(), s.src, s.src.Bounds(), draw.Src, nil)

	w := s.crop.Dx()
	for y := 0; y < s.crop.Dy(); y++ {
		in := s.scaled.Pix[s.scaled.PixOffset(s.crop.Min.X, s.crop.Min.Y+y):]
		out := dst.Row(offY + y)[offX*frame.BytesPerPixel:]
		for x := 0; x < w; x++ {
			out[x*3] = in[x*4]
			out[x*3+1] = in[x*4+1]
			out[x*3+2] = in[x*4+2]
		}
	}
}
