// Package mp4probe reads video stream properties from MP4 and QuickTime
// containers without decoding. It is the fallback when ffprobe is missing.
package mp4probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framesync/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when the container has no usable video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track found")

	// ErrFragmented is returned for fragmented files, whose sample tables are empty.
	ErrFragmented = errors.New("mp4probe: fragmented files are not supported")
)

// Prober implements ffmpegio.Prober on top of mp4ff.
type Prober struct{}

// New creates a new Prober.
func New() *Prober {
	return &Prober{}
}

// Probe reads the properties of the first video track of path.
func (p *Prober) Probe(ctx context.Context, path string) (ports.SourceProperties, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.SourceProperties{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	props, err := ProbeReader(f)
	if err != nil {
		return ports.SourceProperties{}, fmt.Errorf("%s: %w", path, err)
	}
	props.Path = path
	return props, nil
}

// ProbeReader reads the properties of the first video track.
func ProbeReader(reader io.ReadSeeker) (ports.SourceProperties, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return ports.SourceProperties{}, fmt.Errorf("decode mp4: %w", err)
	}
	if mp4File.IsFragmented() {
		return ports.SourceProperties{}, ErrFragmented
	}
	if mp4File.Moov == nil {
		return ports.SourceProperties{}, ErrNoVideoTrack
	}

	for _, trak := range mp4File.Moov.Traks {
		if props, ok := propsFromTrack(trak); ok {
			return props, nil
		}
	}
	return ports.SourceProperties{}, ErrNoVideoTrack
}

// propsFromTrack extracts size, rate and sample count from a video track.
func propsFromTrack(trak *mp4.TrakBox) (ports.SourceProperties, bool) {
	if trak == nil || trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return ports.SourceProperties{}, false
	}
	// Only process video tracks
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return ports.SourceProperties{}, false
	}
	mdia := trak.Mdia
	if mdia.Mdhd == nil || mdia.Minf == nil || mdia.Minf.Stbl == nil || mdia.Minf.Stbl.Stsd == nil {
		return ports.SourceProperties{}, false
	}
	stbl := mdia.Minf.Stbl

	var props ports.SourceProperties
	found := false
	for _, child := range stbl.Stsd.Children {
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			props.Width = int(vse.Width)
			props.Height = int(vse.Height)
			props.Codec = codecName(child.Type())
			found = true
			break
		}
	}
	if !found {
		return ports.SourceProperties{}, false
	}

	if stbl.Stsz != nil {
		props.FrameCount = float64(stbl.Stsz.SampleNumber)
	}
	if mdia.Mdhd.Timescale > 0 && mdia.Mdhd.Duration > 0 {
		seconds := float64(mdia.Mdhd.Duration) / float64(mdia.Mdhd.Timescale)
		props.FPS = props.FrameCount / seconds
	}
	return props, true
}

func codecName(sampleEntry string) string {
	switch sampleEntry {
	case "avc1", "avc3":
		return "h264"
	case "hvc1", "hev1":
		return "hevc"
	case "av01":
		return "av1"
	case "mp4v":
		return "mpeg4"
	default:
		return sampleEntry
	}
}
