package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/ports"
)

// VideoSink is a mock implementation of ports.VideoSink.
type VideoSink struct {
	mu sync.Mutex

	CreateFunc func(ctx context.Context, path string, opts ports.SinkOptions) (ports.FrameWriter, error)

	// Files, when set, receives an empty file at every created path, the
	// way an encoder creates its output before the first frame.
	Files ports.FileSystem

	// Recorded calls for verification
	Created []CreateCall
	Writers []*FrameWriter
}

// CreateCall records a call to Create.
type CreateCall struct {
	Path    string
	Options ports.SinkOptions
}

func (m *VideoSink) Create(ctx context.Context, path string, opts ports.SinkOptions) (ports.FrameWriter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, CreateCall{Path: path, Options: opts})
	if m.Files != nil {
		if err := m.Files.WriteFile(path, nil); err != nil {
			return nil, err
		}
	}
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, path, opts)
	}
	w := &FrameWriter{opts: opts}
	m.Writers = append(m.Writers, w)
	return w, nil
}

var _ ports.VideoSink = (*VideoSink)(nil)

// FrameWriter is a mock implementation of ports.FrameWriter.
type FrameWriter struct {
	opts ports.SinkOptions

	WriteFrameFunc func(img *frame.Image) error

	// Recorded calls for verification
	Frames int
	// Marks holds the first two bytes of every written frame.
	Marks  [][2]uint8
	Closed bool
}

func (m *FrameWriter) WriteFrame(img *frame.Image) error {
	if m.Closed {
		return fmt.Errorf("write after close")
	}
	if m.WriteFrameFunc != nil {
		if err := m.WriteFrameFunc(img); err != nil {
			return err
		}
	}
	if img.Width() != m.opts.Width || img.Height() != m.opts.Height {
		return fmt.Errorf("frame %dx%d does not match writer %dx%d", img.Width(), img.Height(), m.opts.Width, m.opts.Height)
	}
	m.Frames++
	m.Marks = append(m.Marks, [2]uint8{img.Pix[0], img.Pix[1]})
	return nil
}

func (m *FrameWriter) Close() error {
	m.Closed = true
	return nil
}

var _ ports.FrameWriter = (*FrameWriter)(nil)
