package composite

import (
	"errors"
	"math"
	"testing"

	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/stages/layout"
)

func filled(w, h int, r, g, b uint8) *frame.Image {
	img := frame.New(w, h)
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = r, g, b
	}
	return img
}

func pixel(img *frame.Image, x, y int) [3]uint8 {
	i := img.PixOffset(x, y)
	return [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

func newTestCompositor(t *testing.T, input pipeline.LayoutInput, opts Options) *Compositor {
	t.Helper()
	c, err := NewCompositor(layout.ComputeLayout(input), opts)
	if err != nil {
		t.Fatalf("NewCompositor failed: %v", err)
	}
	return c
}

func TestCompose_FullHDGeometry(t *testing.T) {
	c := newTestCompositor(t, pipeline.DefaultLayoutInput(), Options{})

	a := filled(1920, 1080, 200, 10, 10)
	b := filled(1920, 1080, 10, 10, 200)

	out, err := c.Compose(a, b)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if out.Width() != 1920 || out.Height() != 1080 {
		t.Fatalf("canvas: expected 1920x1080, got %dx%d", out.Width(), out.Height())
	}

	checks := []struct {
		x, y int
		want [3]uint8
	}{
		{0, 0, [3]uint8{200, 10, 10}},
		{959, 674, [3]uint8{200, 10, 10}},
		{960, 0, [3]uint8{10, 10, 200}},
		{1919, 674, [3]uint8{10, 10, 200}},
		{0, 675, [3]uint8{0, 0, 0}},
		{1919, 1079, [3]uint8{0, 0, 0}},
	}
	for _, c := range checks {
		if got := pixel(out, c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d): expected %v, got %v", c.x, c.y, c.want, got)
		}
	}
}

func TestCompose_CropsCentralBand(t *testing.T) {
	// 16x8 canvas: sources are scaled to 10x5 and columns 1..8 are kept.
	input := pipeline.LayoutInput{SourceWidth: 16, SourceHeight: 8, CanvasWidth: 16, CanvasHeight: 8}
	c := newTestCompositor(t, input, Options{})

	// Left half of A is red and right half is green. The kept band is centred,
	// so the canvas must show red then green within the left half.
	a := frame.New(16, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			i := a.PixOffset(x, y)
			if x < 8 {
				a.Pix[i] = 255
			} else {
				a.Pix[i+1] = 255
			}
		}
	}
	b := filled(16, 8, 0, 0, 255)

	out, err := c.Compose(a, b)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if got := pixel(out, 0, 0); got != [3]uint8{255, 0, 0} {
		t.Errorf("left edge: expected red, got %v", got)
	}
	if got := pixel(out, 7, 0); got != [3]uint8{0, 255, 0} {
		t.Errorf("band edge: expected green, got %v", got)
	}
	if got := pixel(out, 8, 4); got != [3]uint8{0, 0, 255} {
		t.Errorf("right band: expected blue, got %v", got)
	}
	if got := pixel(out, 3, 5); got != [3]uint8{0, 0, 0} {
		t.Errorf("below band: expected black, got %v", got)
	}
}

func TestCompose_RejectsWrongResolution(t *testing.T) {
	c := newTestCompositor(t, pipeline.DefaultLayoutInput(), Options{})

	_, err := c.Compose(filled(1280, 720, 0, 0, 0), filled(1920, 1080, 0, 0, 0))
	if !errors.Is(err, pipeline.ErrUnsupportedResolution) {
		t.Fatalf("expected ErrUnsupportedResolution, got %v", err)
	}
	if src, ok := pipeline.FailedSource(err); !ok || src != "A" {
		t.Errorf("expected failing source A, got %q", src)
	}
}

func TestCompose_ClearsPreviousFrame(t *testing.T) {
	input := pipeline.LayoutInput{SourceWidth: 16, SourceHeight: 8, CanvasWidth: 16, CanvasHeight: 8}
	c := newTestCompositor(t, input, Options{})

	if _, err := c.Compose(filled(16, 8, 255, 255, 255), filled(16, 8, 255, 255, 255)); err != nil {
		t.Fatal(err)
	}
	out, err := c.Compose(filled(16, 8, 0, 0, 0), filled(16, 8, 0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out.Pix {
		if v != 0 {
			t.Fatalf("byte %d: expected 0 after black inputs, got %d", i, v)
		}
	}
}

func TestCompose_ScalersPreserveFlatColour(t *testing.T) {
	input := pipeline.LayoutInput{SourceWidth: 64, SourceHeight: 36, CanvasWidth: 64, CanvasHeight: 36}
	for _, name := range []string{ScalerArea, ScalerCatmullRom, ScalerBilinear, ScalerNearest} {
		t.Run(name, func(t *testing.T) {
			c := newTestCompositor(t, input, Options{Scaler: name})
			out, err := c.Compose(filled(64, 36, 90, 120, 30), filled(64, 36, 30, 60, 90))
			if err != nil {
				t.Fatalf("Compose failed: %v", err)
			}
			if got := pixel(out, 10, 10); got != [3]uint8{90, 120, 30} {
				t.Errorf("left: expected {90 120 30}, got %v", got)
			}
			if got := pixel(out, 40, 10); got != [3]uint8{30, 60, 90} {
				t.Errorf("right: expected {30 60 90}, got %v", got)
			}
		})
	}
}

func TestCompose_ParallelMatchesSequential(t *testing.T) {
	input := pipeline.LayoutInput{SourceWidth: 64, SourceHeight: 36, CanvasWidth: 64, CanvasHeight: 36}
	seq := newTestCompositor(t, input, Options{})
	par := newTestCompositor(t, input, Options{Parallel: true})

	a := frame.New(64, 36)
	b := frame.New(64, 36)
	for i := range a.Pix {
		a.Pix[i] = uint8(i * 7)
		b.Pix[i] = uint8(i * 13)
	}

	want, err := seq.Compose(a, b)
	if err != nil {
		t.Fatal(err)
	}
	got, err := par.Compose(a, b)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want.Pix {
		if want.Pix[i] != got.Pix[i] {
			t.Fatalf("byte %d differs: sequential %d, parallel %d", i, want.Pix[i], got.Pix[i])
		}
	}
}

func TestNewCompositor_UnknownScaler(t *testing.T) {
	_, err := NewCompositor(layout.ComputeLayout(pipeline.DefaultLayoutInput()), Options{Scaler: "lanczos"})
	if err == nil {
		t.Fatal("expected error for unknown scaler")
	}
}

func TestAreaTable_WeightsSumToOne(t *testing.T) {
	sizes := [][2]int{{1920, 1200}, {1080, 675}, {1280, 1200}, {720, 675}, {4, 2}, {5, 3}}
	for _, s := range sizes {
		table := areaTable(s[0], s[1])
		if len(table) != s[1] {
			t.Fatalf("%v: expected %d entries, got %d", s, s[1], len(table))
		}
		for d, taps := range table {
			var sum float64
			for _, tap := range taps {
				if tap.src < 0 || tap.src >= s[0] {
					t.Fatalf("%v: destination %d references source %d", s, d, tap.src)
				}
				sum += float64(tap.weight)
			}
			if math.Abs(sum-1) > 1e-4 {
				t.Errorf("%v: destination %d weights sum to %v", s, d, sum)
			}
		}
	}
}

func TestAreaScaler_AveragesIntegerFactor(t *testing.T) {
	// 4x2 -> 2x1 averages 2x2 blocks.
	src := frame.New(4, 2)
	values := []uint8{0, 10, 20, 30, 40, 50, 60, 70}
	for i, v := range values {
		x, y := i%4, i/4
		o := src.PixOffset(x, y)
		src.Pix[o], src.Pix[o+1], src.Pix[o+2] = v, v, v
	}

	s := newAreaScaler(4, 2, 2, 1, 0, 2)
	dst := frame.New(2, 1)
	s.scale(dst, src, 0, 0)

	// (0+10+40+50)/4 = 25, (20+30+60+70)/4 = 45
	if got := pixel(dst, 0, 0)[0]; got != 25 {
		t.Errorf("left: expected 25, got %d", got)
	}
	if got := pixel(dst, 1, 0)[0]; got != 45 {
		t.Errorf("right: expected 45, got %d", got)
	}
}
