// Package combine implements the video combination stage.
//
// The stage drives two frame readers in lockstep and writes one composite
// frame per pair. It runs as a small state machine:
//
//	opening -> validating -> seeking -> composing -> draining -> closed
//
// Any state may jump to draining on error; draining always releases both
// readers and the writer. An output that was started but not completed
// because of an error is removed, so a failed run leaves no video behind.
// Interruption is not an error: the frames written so far are finalized.
package combine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
)

// DefaultProgressInterval is the number of written frames between progress events.
const DefaultProgressInterval = 1000

// Composer builds one output frame from a pair of input frames.
type Composer interface {
	Compose(a, b *frame.Image) (*frame.Image, error)
}

// Options configures the combiner.
type Options struct {
	// Source is the resolution both inputs must have.
	Source pipeline.Dimension
	// Canvas is the output frame size.
	Canvas pipeline.Dimension
	// FourCC is the output codec tag (default: mp4v).
	FourCC string
	// Quality is passed through to the video sink.
	Quality int
	// ProgressInterval is the number of frames between progress events (default: 1000).
	ProgressInterval int
	// AccurateFrameCount counts frames by decoding when the source supports it.
	AccurateFrameCount bool
	// ConsumeTable walks the resample table when the alignment has one,
	// instead of advancing both readers one frame per output frame.
	ConsumeTable bool
	// SnapshotInterval saves every Nth composed frame to the debug sink (0: never).
	SnapshotInterval int
}

// Stage combines two videos into one side-by-side video.
type Stage struct {
	source   ports.VideoSource
	sink     ports.VideoSink
	composer Composer
	debug    ports.DebugSink
	files    ports.FileSystem
	logger   ports.Logger
	opts     Options
	observer pipeline.Observer
}

// NewStage creates a new combine stage.
// files is used to discard the output of a failed run.
func NewStage(source ports.VideoSource, sink ports.VideoSink, composer Composer, debug ports.DebugSink, files ports.FileSystem, logger ports.Logger, opts Options) *Stage {
	if opts.FourCC == "" {
		opts.FourCC = "mp4v"
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	return &Stage{
		source:   source,
		sink:     sink,
		composer: composer,
		debug:    debug,
		files:    files,
		logger:   logger.WithComponent("combine"),
		opts:     opts,
	}
}

// SetObserver registers a callback for state changes and progress.
func (s *Stage) SetObserver(o pipeline.Observer) {
	s.observer = o
}

// run holds the resources and counters of one Execute call.
type run struct {
	stage  *Stage
	input  pipeline.CombineInput
	state  pipeline.CombineState
	a, b   ports.FrameReader
	writer ports.FrameWriter
	result pipeline.CombineResult
}

// Execute runs the state machine to completion.
func (s *Stage) Execute(ctx context.Context, input pipeline.CombineInput) (result pipeline.CombineResult, err error) {
	r := &run{stage: s, input: input}
	defer func() {
		if cerr := r.drain(err != nil); cerr != nil && err == nil {
			err = cerr
		}
		result = r.result
	}()

	r.enter(pipeline.StateOpening)
	if err := r.open(ctx); err != nil {
		return r.result, err
	}

	r.enter(pipeline.StateValidating)
	if err := r.validate(ctx); err != nil {
		return r.result, err
	}

	r.enter(pipeline.StateSeeking)
	exhausted, err := r.seek()
	if err != nil {
		return r.result, err
	}
	if exhausted {
		s.logger.Warn("A source ended before its start frame, nothing to combine")
		return r.result, nil
	}

	if err := r.create(ctx); err != nil {
		return r.result, err
	}

	r.enter(pipeline.StateComposing)
	if s.opts.ConsumeTable && input.Alignment.HasTable() {
		err = r.composeTable(ctx)
	} else {
		err = r.composeLockstep(ctx)
	}
	return r.result, err
}

func (r *run) enter(state pipeline.CombineState) {
	r.state = state
	r.stage.logger.Debug("State: %s", string(state))
	r.notify(pipeline.CombineEvent{Kind: pipeline.EventStateChanged, State: state, FramesWritten: r.result.FramesWritten})
}

func (r *run) notify(ev pipeline.CombineEvent) {
	if r.stage.observer != nil {
		r.stage.observer(ev)
	}
}

func (r *run) open(ctx context.Context) error {
	var err error
	if r.a, err = r.openOne(ctx, "A", r.input.PathA); err != nil {
		return err
	}
	if r.b, err = r.openOne(ctx, "B", r.input.PathB); err != nil {
		return err
	}
	return nil
}

func (r *run) openOne(ctx context.Context, id, path string) (ports.FrameReader, error) {
	if path == "" {
		return nil, pipeline.NewSourceError(id, "video path", pipeline.ErrSourceNotFound)
	}
	reader, err := r.stage.source.Open(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pipeline.NewSourceError(id, path, pipeline.ErrSourceNotFound)
		}
		return nil, pipeline.NewSourceError(id, "open "+path, err)
	}
	return reader, nil
}

func (r *run) validate(ctx context.Context) error {
	pa := r.a.Properties()
	pb := r.b.Properties()

	if r.stage.opts.AccurateFrameCount {
		if counter, ok := r.stage.source.(ports.FrameCounter); ok {
			r.stage.logger.Debug("Counting frames by decoding both videos")
			n, err := counter.CountFrames(ctx, r.input.PathA)
			if err != nil {
				return pipeline.NewSourceError("A", "count frames", err)
			}
			pa.FrameCount = float64(n)
			if n, err = counter.CountFrames(ctx, r.input.PathB); err != nil {
				return pipeline.NewSourceError("B", "count frames", err)
			}
			pb.FrameCount = float64(n)
		}
	}

	r.result.PropertiesA = pa
	r.result.PropertiesB = pb
	r.stage.logger.Debug("Source A: %.3f fps, %dx%d, %.0f frames", pa.FPS, pa.Width, pa.Height, pa.FrameCount)
	r.stage.logger.Debug("Source B: %.3f fps, %dx%d, %.0f frames", pb.FPS, pb.Width, pb.Height, pb.FrameCount)

	if err := CheckProperties(pa, pb, r.stage.opts.Source); err != nil {
		return err
	}

	r.notify(pipeline.CombineEvent{Kind: pipeline.EventValidated, State: r.state, PropertiesA: pa, PropertiesB: pb})
	return nil
}

// CheckProperties verifies that both sources share fps and resolution and
// that the resolution equals the configured contract.
func CheckProperties(pa, pb ports.SourceProperties, contract pipeline.Dimension) error {
	switch {
	case pa.FPS != pb.FPS:
		return pipeline.NewSourceError("", fmt.Sprintf("fps %v vs %v", pa.FPS, pb.FPS), pipeline.ErrPropertyMismatch)
	case pa.Height != pb.Height:
		return pipeline.NewSourceError("", fmt.Sprintf("height %d vs %d", pa.Height, pb.Height), pipeline.ErrPropertyMismatch)
	case pa.Width != pb.Width:
		return pipeline.NewSourceError("", fmt.Sprintf("width %d vs %d", pa.Width, pb.Width), pipeline.ErrPropertyMismatch)
	}
	if pa.Width != contract.Width || pa.Height != contract.Height {
		return pipeline.NewSourceError("",
			fmt.Sprintf("%dx%d, expected %dx%d", pa.Width, pa.Height, contract.Width, contract.Height),
			pipeline.ErrUnsupportedResolution)
	}
	return nil
}

// seek discards frames until both readers are positioned on their start frame.
func (r *run) seek() (exhausted bool, err error) {
	align := r.input.Alignment
	if exhausted, err = skip(r.a, "A", align.StartIndexA, &r.result.FramesSkippedA); err != nil || exhausted {
		return exhausted, err
	}
	return skip(r.b, "B", align.StartIndexB, &r.result.FramesSkippedB)
}

func skip(reader ports.FrameReader, id string, n int, skipped *int) (bool, error) {
	for *skipped < n {
		if _, err := reader.ReadFrame(); err != nil {
			if err == io.EOF {
				return true, nil
			}
			return false, pipeline.NewSourceError(id, fmt.Sprintf("seek frame %d", *skipped), err)
		}
		*skipped++
	}
	return false, nil
}

func (r *run) create(ctx context.Context) error {
	opts := ports.SinkOptions{
		FourCC:  r.stage.opts.FourCC,
		FPS:     r.result.PropertiesA.FPS,
		Width:   r.stage.opts.Canvas.Width,
		Height:  r.stage.opts.Canvas.Height,
		Quality: r.stage.opts.Quality,
	}
	w, err := r.stage.sink.Create(ctx, r.input.OutputPath, opts)
	if err != nil {
		return fmt.Errorf("create output %s: %w", r.input.OutputPath, err)
	}
	r.writer = w
	r.stage.logger.Debug("Writing %s (%s, %.3f fps, %dx%d)", r.input.OutputPath, opts.FourCC, opts.FPS, opts.Width, opts.Height)
	return nil
}

// composeLockstep reads one frame from each reader per output frame.
func (r *run) composeLockstep(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			r.result.Interrupted = true
			return nil
		}

		fa, err := r.a.ReadFrame()
		if err != nil {
			return r.endOfStream("A", err)
		}
		fb, err := r.b.ReadFrame()
		if err != nil {
			return r.endOfStream("B", err)
		}

		if err := r.emit(fa, fb); err != nil {
			return err
		}
	}
}

// composeTable walks the resample table from the start row. A reader is
// advanced until it holds the row's frame; a repeated index repeats the
// current frame.
func (r *run) composeTable(ctx context.Context) error {
	align := r.input.Alignment
	posA := align.StartIndexA - 1
	posB := align.StartIndexB - 1
	var fa, fb *frame.Image

	for _, row := range align.ResampleTable[align.TablePosition:] {
		if ctx.Err() != nil {
			r.result.Interrupted = true
			return nil
		}

		var err error
		var done bool
		if fa, posA, done, err = r.advance(r.a, "A", fa, posA, row.A, &r.result.FramesSkippedA); err != nil || done {
			return err
		}
		if fb, posB, done, err = r.advance(r.b, "B", fb, posB, row.B, &r.result.FramesSkippedB); err != nil || done {
			return err
		}

		if err := r.emit(fa, fb); err != nil {
			return err
		}
	}
	return nil
}

// advance reads until the reader holds frame target. Frames passed over
// without being composed count as skipped.
func (r *run) advance(reader ports.FrameReader, id string, cur *frame.Image, pos, target int, skipped *int) (*frame.Image, int, bool, error) {
	for pos < target || cur == nil {
		img, err := reader.ReadFrame()
		if err != nil {
			return nil, pos, true, r.endOfStream(id, err)
		}
		if pos+1 < target {
			*skipped++
		}
		cur = img
		pos++
	}
	return cur, pos, false, nil
}

// endOfStream turns io.EOF into a normal end of composition.
func (r *run) endOfStream(id string, err error) error {
	if err == io.EOF {
		r.stage.logger.Debug("Source %s exhausted after %d frames", id, r.result.FramesWritten)
		return nil
	}
	return pipeline.NewSourceError(id, fmt.Sprintf("read frame after %d written", r.result.FramesWritten), err)
}

func (r *run) emit(fa, fb *frame.Image) error {
	out, err := r.stage.composer.Compose(fa, fb)
	if err != nil {
		return fmt.Errorf("compose frame %d: %w", r.result.FramesWritten, err)
	}
	if err := r.writer.WriteFrame(out); err != nil {
		return fmt.Errorf("write frame %d: %w", r.result.FramesWritten, err)
	}

	n := r.result.FramesWritten
	r.result.FramesWritten++

	if iv := r.stage.opts.SnapshotInterval; iv > 0 && n%iv == 0 && r.stage.debug != nil && r.stage.debug.Enabled() {
		if err := r.stage.debug.SaveComposedFrame(n, out.Clone()); err != nil {
			r.stage.logger.Warn("Failed to save debug frame %d: %v", n, err)
		}
	}
	if r.result.FramesWritten%r.stage.opts.ProgressInterval == 0 {
		r.notify(pipeline.CombineEvent{Kind: pipeline.EventProgress, State: r.state, FramesWritten: r.result.FramesWritten})
	}
	return nil
}

// drain releases every resource that was acquired. The writer's close error
// is reported because it finalizes the output file. When the run failed, or
// finalizing did, the output is discarded.
func (r *run) drain(failed bool) error {
	r.enter(pipeline.StateDraining)

	var werr error
	if r.writer != nil {
		if err := r.writer.Close(); err != nil {
			werr = fmt.Errorf("finalize output: %w", err)
		}
		if failed || werr != nil {
			r.discard()
		}
	}
	if r.a != nil {
		if err := r.a.Close(); err != nil {
			r.stage.logger.Debug("Close source A: %v", err)
		}
	}
	if r.b != nil {
		if err := r.b.Close(); err != nil {
			r.stage.logger.Debug("Close source B: %v", err)
		}
	}

	r.enter(pipeline.StateClosed)
	return werr
}

// discard removes a partially written output.
func (r *run) discard() {
	path := r.input.OutputPath
	if r.stage.files == nil || path == "" {
		return
	}
	ok, err := r.stage.files.Exists(path)
	if err == nil && ok {
		err = r.stage.files.Remove(path)
	}
	if err != nil {
		r.stage.logger.Warn("Failed to remove incomplete output %s: %v", path, err)
		return
	}
	if ok {
		r.result.OutputDiscarded = true
		r.stage.logger.Warn("Removed incomplete output %s", path)
	}
}
