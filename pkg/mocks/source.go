package mocks

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/ports"
)

// VideoSource is a mock implementation of ports.VideoSource.
// Each path opens a FrameReader producing Videos[path].Frames synthetic frames.
type VideoSource struct {
	mu sync.Mutex

	Videos   map[string]Video
	OpenFunc func(ctx context.Context, path string) (ports.FrameReader, error)

	// Recorded calls for verification
	Opened  []string
	Readers []*FrameReader
}

// Video describes a synthetic video.
type Video struct {
	FPS    float64
	Width  int
	Height int
	Frames int
	// FailAt makes ReadFrame return an error at that frame index when > 0.
	FailAt int
}

func (m *VideoSource) Open(ctx context.Context, path string) (ports.FrameReader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Opened = append(m.Opened, path)

	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, path)
	}
	v, ok := m.Videos[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	r := NewFrameReader(path, v)
	m.Readers = append(m.Readers, r)
	return r, nil
}

// CountFrames implements ports.FrameCounter.
func (m *VideoSource) CountFrames(ctx context.Context, path string) (int, error) {
	v, ok := m.Videos[path]
	if !ok {
		return 0, fmt.Errorf("count %s: %w", path, fs.ErrNotExist)
	}
	return v.Frames, nil
}

var (
	_ ports.VideoSource  = (*VideoSource)(nil)
	_ ports.FrameCounter = (*VideoSource)(nil)
)

// FrameReader is a mock implementation of ports.FrameReader.
// Frame i has the value i%256 in the red channel of its first pixel.
type FrameReader struct {
	props ports.SourceProperties
	video Video

	// Recorded state for verification
	Read   int
	Closed bool
}

// NewFrameReader creates a reader for a synthetic video.
func NewFrameReader(path string, v Video) *FrameReader {
	return &FrameReader{
		props: ports.SourceProperties{
			Path:       path,
			FPS:        v.FPS,
			Width:      v.Width,
			Height:     v.Height,
			FrameCount: float64(v.Frames),
		},
		video: v,
	}
}

func (m *FrameReader) Properties() ports.SourceProperties {
	return m.props
}

func (m *FrameReader) ReadFrame() (*frame.Image, error) {
	if m.Closed {
		return nil, fmt.Errorf("read after close")
	}
	if m.video.FailAt > 0 && m.Read == m.video.FailAt {
		return nil, fmt.Errorf("decode frame %d: corrupt packet", m.Read)
	}
	if m.Read >= m.video.Frames {
		return nil, io.EOF
	}
	img := frame.New(m.video.Width, m.video.Height)
	if len(img.Pix) > 0 {
		img.Pix[0] = uint8(m.Read % 256)
	}
	m.Read++
	return img, nil
}

func (m *FrameReader) Close() error {
	m.Closed = true
	return nil
}

var _ ports.FrameReader = (*FrameReader)(nil)
