package ffmpegio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/ports"
)

// Sink encodes rgb24 frames piped to an ffmpeg process.
type Sink struct{}

// NewSink creates a new ffmpeg-backed video sink.
func NewSink() *Sink {
	return &Sink{}
}

// EncodeArgs returns the ffmpeg arguments that read rgb24 from stdin and
// encode to path.
func EncodeArgs(path string, opts ports.SinkOptions) []string {
	in := ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgb24",
		"video_size": fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"framerate": strconv.FormatFloat(opts.FPS, 'f', -1, 64),
	}

	out := ffmpeg.KwArgs{"pix_fmt": "yuv420p"}
	switch opts.FourCC {
	case "avc1", "h264", "H264":
		out["c:v"] = "libx264"
		out["tag:v"] = "avc1"
		out["preset"] = "fast"
		crf := 23
		if opts.Quality > 0 && opts.Quality <= 51 {
			crf = opts.Quality
		}
		out["crf"] = strconv.Itoa(crf)
	default:
		// mp4v: MPEG-4 Part 2, as written by OpenCV's VideoWriter.
		out["c:v"] = "mpeg4"
		out["tag:v"] = "mp4v"
		q := 3
		if opts.Quality > 0 && opts.Quality <= 31 {
			q = opts.Quality
		}
		out["q:v"] = strconv.Itoa(q)
	}

	return ffmpeg.Input("pipe:0", in).
		Output(path, out).
		OverWriteOutput().
		GetArgs()
}

// Create implements ports.VideoSink.
func (s *Sink) Create(ctx context.Context, path string, opts ports.SinkOptions) (ports.FrameWriter, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid sink options %dx%d @ %v fps", opts.Width, opts.Height, opts.FPS)
	}

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}

	w := &frameWriter{opts: opts}
	// Cancellation must not truncate the file: the writer is finalized by Close.
	w.cmd = exec.Command(ffmpegPath, EncodeArgs(path, opts)...)
	w.cmd.Stderr = &w.stderr

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	w.stdin = stdin

	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return w, nil
}

var _ ports.VideoSink = (*Sink)(nil)

// lockedBuffer collects ffmpeg's stderr. exec copies into it from its own
// goroutine while the process runs, and a failed write reads it before Wait.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type frameWriter struct {
	opts ports.SinkOptions

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr lockedBuffer
	frames int
	closed bool
}

func (w *frameWriter) WriteFrame(img *frame.Image) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if img.Width() != w.opts.Width || img.Height() != w.opts.Height {
		return fmt.Errorf("frame %dx%d does not match output %dx%d", img.Width(), img.Height(), w.opts.Width, w.opts.Height)
	}

	rowLen := w.opts.Width * frame.BytesPerPixel
	if img.Stride == rowLen {
		if _, err := w.stdin.Write(img.Pix[:rowLen*w.opts.Height]); err != nil {
			return fmt.Errorf("failed to write frame: %w\nstderr: %s", err, w.stderr.String())
		}
	} else {
		for y := 0; y < w.opts.Height; y++ {
			if _, err := w.stdin.Write(img.Row(y)); err != nil {
				return fmt.Errorf("failed to write frame: %w\nstderr: %s", err, w.stderr.String())
			}
		}
	}

	w.frames++
	return nil
}

// Close flushes ffmpeg and waits for the output file to be finalized.
func (w *frameWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, w.stderr.String())
	}
	return nil
}
