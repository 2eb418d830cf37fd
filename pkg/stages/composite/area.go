package composite

import (
	"math"

	"github.com/user/framesync/pkg/frame"
)

// areaTap is one source sample contributing to a destination sample.
type areaTap struct {
	src    int
	weight float32
}

// areaTable computes, for every destination sample, the source samples it
// covers and their fractional coverage. Weights of one destination sample
// sum to 1.
func areaTable(srcSize, dstSize int) [][]areaTap {
	scale := float64(srcSize) / float64(dstSize)
	table := make([][]areaTap, dstSize)

	for d := 0; d < dstSize; d++ {
		f1 := float64(d) * scale
		f2 := f1 + scale
		s1 := int(math.Ceil(f1))
		s2 := int(math.Floor(f2))
		if s2 > srcSize {
			s2 = srcSize
		}
		cell := math.Min(scale, float64(srcSize)-f1)

		var taps []areaTap
		if float64(s1)-f1 > 1e-3 && s1 > 0 {
			taps = append(taps, areaTap{src: s1 - 1, weight: float32((float64(s1) - f1) / cell)})
		}
		for s := s1; s < s2; s++ {
			taps = append(taps, areaTap{src: s, weight: float32(1 / cell)})
		}
		if f2-float64(s2) > 1e-3 && s2 < srcSize {
			w := math.Min(math.Min(f2-float64(s2), 1), cell) / cell
			taps = append(taps, areaTap{src: s2, weight: float32(w)})
		}
		table[d] = taps
	}
	return table
}

// areaScaler downsamples RGB frames by pixel-area averaging and writes only a
// horizontal band of the result. It keeps its tables and scratch buffer
// between calls and is not safe for concurrent use.
type areaScaler struct {
	srcW, srcH int
	dstH       int
	bandX      int // First scaled column kept
	bandW      int // Number of scaled columns kept

	xTaps [][]areaTap // Indexed by band column
	yTaps [][]areaTap // Indexed by scaled row

	rows []float32 // Horizontally resampled source rows, srcH x bandW x 3
	acc  []float32 // One output row
}

func newAreaScaler(srcW, srcH, dstW, dstH, bandX, bandW int) *areaScaler {
	x := areaTable(srcW, dstW)
	return &areaScaler{
		srcW:  srcW,
		srcH:  srcH,
		dstH:  dstH,
		bandX: bandX,
		bandW: bandW,
		xTaps: x[bandX : bandX+bandW],
		yTaps: areaTable(srcH, dstH),
		rows:  make([]float32, srcH*bandW*frame.BytesPerPixel),
		acc:   make([]float32, bandW*frame.BytesPerPixel),
	}
}

// scale resamples src and writes the band into dst at (offX, offY).
func (s *areaScaler) scale(dst, src *frame.Image, offX, offY int) {
	rowLen := s.bandW * frame.BytesPerPixel

	// Horizontal pass.
	for y := 0; y < s.srcH; y++ {
		in := src.Row(y)
		out := s.rows[y*rowLen : (y+1)*rowLen]
		for x, taps := range s.xTaps {
			var r, g, b float32
			for _, t := range taps {
				i := t.src * frame.BytesPerPixel
				r += float32(in[i]) * t.weight
				g += float32(in[i+1]) * t.weight
				b += float32(in[i+2]) * t.weight
			}
			o := x * frame.BytesPerPixel
			out[o], out[o+1], out[o+2] = r, g, b
		}
	}

	// Vertical pass.
	acc := s.acc
	for y, taps := range s.yTaps {
		clear(acc)
		for _, t := range taps {
			in := s.rows[t.src*rowLen : (t.src+1)*rowLen]
			for i, v := range in {
				acc[i] += v * t.weight
			}
		}
		out := dst.Row(offY + y)[offX*frame.BytesPerPixel:]
		for i, v := range acc {
			out[i] = saturate(v)
		}
	}
}

func saturate(v float32) uint8 {
	r := math.RoundToEven(float64(v))
	switch {
	case r <= 0:
		return 0
	case r >= 255:
		return 255
	default:
		return uint8(r)
	}
}
