// Package frame provides the packed RGB24 pixel buffer shared by decoders,
// the compositor and encoders.
package frame

import (
	"image"
	"image/color"
)

// BytesPerPixel is the number of bytes used by one RGB24 pixel.
const BytesPerPixel = 3

// Image is a packed 8-bit RGB image, the layout ffmpeg produces for
// -pix_fmt rgb24. It implements draw.Image so it can be used directly with
// golang.org/x/image/draw scalers.
type Image struct {
	// Pix holds the pixels in R, G, B order, row by row.
	Pix []uint8
	// Stride is the distance in bytes between vertically adjacent pixels.
	Stride int
	Rect   image.Rectangle
}

// New returns an all-zero (black) image of the given size.
func New(width, height int) *Image {
	return &Image{
		Pix:    make([]uint8, width*height*BytesPerPixel),
		Stride: width * BytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// Size returns the number of bytes needed for a width x height frame.
func Size(width, height int) int {
	return width * height * BytesPerPixel
}

// Width returns the image width in pixels.
func (p *Image) Width() int { return p.Rect.Dx() }

// Height returns the image height in pixels.
func (p *Image) Height() int { return p.Rect.Dy() }

// ColorModel implements image.Image.
func (p *Image) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (p *Image) Bounds() image.Rectangle { return p.Rect }

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*BytesPerPixel
}

// At implements image.Image.
func (p *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

// Set implements draw.Image. Alpha is discarded.
func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	p.Pix[i] = rgba.R
	p.Pix[i+1] = rgba.G
	p.Pix[i+2] = rgba.B
}

// Row returns the bytes of row y (relative to Rect.Min.Y).
func (p *Image) Row(y int) []uint8 {
	start := y * p.Stride
	return p.Pix[start : start+p.Rect.Dx()*BytesPerPixel]
}

// Clear sets every pixel to zero.
func (p *Image) Clear() {
	clear(p.Pix)
}

// Clone returns a deep copy.
func (p *Image) Clone() *Image {
	pix := make([]uint8, len(p.Pix))
	copy(pix, p.Pix)
	return &Image{Pix: pix, Stride: p.Stride, Rect: p.Rect}
}

// FromImage converts any image.Image into a packed RGB image with a (0,0) origin.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	dst := New(b.Dx(), b.Dy())
	if rgba, ok := src.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			row := dst.Row(y)
			so := rgba.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < b.Dx(); x++ {
				row[x*3] = rgba.Pix[so+x*4]
				row[x*3+1] = rgba.Pix[so+x*4+1]
				row[x*3+2] = rgba.Pix[so+x*4+2]
			}
		}
		return dst
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
