package ports

import (
	"context"

	"github.com/user/framesync/pkg/frame"
)

// VideoSink creates encoded output videos.
type VideoSink interface {
	// Create opens an encoder writing to path.
	Create(ctx context.Context, path string, opts SinkOptions) (FrameWriter, error)
}

// SinkOptions configures video encoding parameters.
type SinkOptions struct {
	FourCC string  // Codec tag, e.g. "mp4v" or "avc1"
	FPS    float64 // Output frame rate, equal to the source frame rate
	Width  int
	Height int
	// Quality is a codec specific quality value (qscale for mp4v, CRF for avc1).
	// Zero selects the encoder default.
	Quality int
}

// FrameWriter accepts frames in output order.
type FrameWriter interface {
	// WriteFrame encodes a single frame. The frame size must match SinkOptions.
	WriteFrame(img *frame.Image) error

	// Close flushes and finalizes the output file.
	Close() error
}
