package mocks

import (
	"image"
	"sync"

	"github.com/user/framesync/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	AlignmentJSON  []byte
	ResampleTable  []byte
	ComposedFrames map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:        enabled,
		ComposedFrames: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveAlignmentJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AlignmentJSON = data
	return nil
}

func (m *DebugSink) SaveResampleTable(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResampleTable = data
	return nil
}

func (m *DebugSink) SaveComposedFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ComposedFrames[index] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                      { return false }
func (m *NullSink) SaveAlignmentJSON(data []byte) error                { return nil }
func (m *NullSink) SaveResampleTable(data []byte) error                { return nil }
func (m *NullSink) SaveComposedFrame(index int, img image.Image) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
