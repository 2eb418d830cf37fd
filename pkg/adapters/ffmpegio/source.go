package ffmpegio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/ports"
)

// Source decodes videos to packed RGB24 frames by piping ffmpeg's rawvideo
// output.
type Source struct {
	prober Prober
}

// NewSource creates a Source. A nil prober uses ffprobe.
func NewSource(prober Prober) *Source {
	if prober == nil {
		prober = FFprobe{}
	}
	return &Source{prober: prober}
}

// DecodeArgs returns the ffmpeg arguments that decode path to rgb24 on stdout.
func DecodeArgs(path string) []string {
	return ffmpeg.Input(path).
		Output("pipe:1", ffmpeg.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": "rgb24",
			"vsync":   "passthrough",
			"an":      "",
		}).
		GetArgs()
}

// Open implements ports.VideoSource.
func (s *Source) Open(ctx context.Context, path string) (ports.FrameReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	props, err := s.prober.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if props.Width <= 0 || props.Height <= 0 {
		return nil, fmt.Errorf("probe %s: invalid frame size %dx%d", path, props.Width, props.Height)
	}

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}

	// The reader outlives Open, so it gets its own cancelable context.
	cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cmd := exec.CommandContext(cctx, ffmpegPath, DecodeArgs(path)...)
	r := &frameReader{
		props:  props,
		cmd:    cmd,
		cancel: cancel,
		buf:    frame.New(props.Width, props.Height),
	}
	cmd.Stderr = &r.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	r.stdout = bufio.NewReaderSize(stdout, len(r.buf.Pix))

	return r, nil
}

// CountFrames implements ports.FrameCounter by fully decoding the video.
func (s *Source) CountFrames(ctx context.Context, path string) (int, error) {
	if counter, ok := s.prober.(ports.FrameCounter); ok {
		return counter.CountFrames(ctx, path)
	}
	return FFprobe{}.CountFrames(ctx, path)
}

var (
	_ ports.VideoSource  = (*Source)(nil)
	_ ports.FrameCounter = (*Source)(nil)
)

// frameReader reads fixed-size rgb24 frames from a running ffmpeg process.
type frameReader struct {
	props  ports.SourceProperties
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout *bufio.Reader
	stderr bytes.Buffer
	buf    *frame.Image

	mu     sync.Mutex
	closed bool
	eof    bool
}

func (r *frameReader) Properties() ports.SourceProperties {
	return r.props
}

// ReadFrame returns the next frame. The returned image is reused by the next call.
func (r *frameReader) ReadFrame() (*frame.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if r.eof {
		return nil, io.EOF
	}

	_, err := io.ReadFull(r.stdout, r.buf.Pix)
	switch err {
	case nil:
		return r.buf, nil
	case io.EOF, io.ErrUnexpectedEOF:
		// A truncated trailing frame is treated as end of stream.
		r.eof = true
		if werr := r.cmd.Wait(); werr != nil && r.stderr.Len() > 0 {
			return nil, fmt.Errorf("ffmpeg decoding failed: %w\nstderr: %s", werr, r.stderr.String())
		}
		r.cmd = nil
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
}

// Close stops ffmpeg if it is still running.
func (r *frameReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.cancel()
	if r.cmd != nil && !r.eof {
		// Killed on purpose; the exit status carries no information.
		_ = r.cmd.Wait()
	}
	return nil
}
