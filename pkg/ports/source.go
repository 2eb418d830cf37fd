// Package ports declares the interfaces the stages depend on: video sources
// and sinks, metadata loaders, exporters, the file system and logging.
package ports

import (
	"context"

	"github.com/user/framesync/pkg/frame"
)

// SourceProperties describes a video stream as reported by the decoder.
type SourceProperties struct {
	Path       string  `json:"path"`
	FPS        float64 `json:"fps"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameCount float64 `json:"frame_count"` // May be an estimate
	Codec      string  `json:"codec,omitempty"`
}

// VideoSource opens recordings for sequential frame access.
type VideoSource interface {
	// Open starts decoding the video at path.
	Open(ctx context.Context, path string) (FrameReader, error)
}

// FrameReader yields decoded frames in presentation order.
type FrameReader interface {
	// Properties returns the stream properties known at open time.
	Properties() SourceProperties

	// ReadFrame returns the next frame, or io.EOF once the stream is exhausted.
	// The returned image may be reused by the next call.
	ReadFrame() (*frame.Image, error)

	// Close stops decoding and releases resources.
	Close() error
}

// FrameCounter is implemented by sources that can count frames exactly by
// decoding the whole stream.
type FrameCounter interface {
	CountFrames(ctx context.Context, path string) (int, error)
}
