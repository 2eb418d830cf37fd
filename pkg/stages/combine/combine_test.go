package combine

import (
	"context"
	"errors"
	"testing"

	"github.com/user/framesync/pkg/adapters/logger"
	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/mocks"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
)

// markComposer copies the first byte of each input into the first two bytes
// of the output so tests can tell which frames were paired.
type markComposer struct {
	canvas pipeline.Dimension
}

func (c markComposer) Compose(a, b *frame.Image) (*frame.Image, error) {
	out := frame.New(c.canvas.Width, c.canvas.Height)
	out.Pix[0] = a.Pix[0]
	out.Pix[1] = b.Pix[0]
	return out, nil
}

var small = pipeline.Dimension{Width: 4, Height: 2}

func testOptions() Options {
	return Options{Source: small, Canvas: small}
}

// newTestStage wires the sink to an in-memory file system so tests can see
// whether the output survived.
func newTestStage(source *mocks.VideoSource, sink *mocks.VideoSink, opts Options) *Stage {
	if sink.Files == nil {
		sink.Files = mocks.NewFileSystem()
	}
	return NewStage(source, sink, markComposer{canvas: opts.Canvas}, mocks.NewDebugSink(false), sink.Files, logger.NewNoop(), opts)
}

func outputExists(t *testing.T, sink *mocks.VideoSink, path string) bool {
	t.Helper()
	ok, err := sink.Files.Exists(path)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

func video(frames int) mocks.Video {
	return mocks.Video{FPS: 30, Width: 4, Height: 2, Frames: frames}
}

func TestStage_LockstepFromStartIndices(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a.mov": video(30), "b.mov": video(25)}}
	sink := &mocks.VideoSink{}
	stage := newTestStage(source, sink, testOptions())

	result, err := stage.Execute(context.Background(), pipeline.CombineInput{
		PathA: "a.mov", PathB: "b.mov", OutputPath: "out.mp4",
		Alignment: pipeline.AlignmentResult{StartIndexA: 10, StartIndexB: 12},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// min(30-10, 25-12)
	if result.FramesWritten != 13 {
		t.Errorf("frames written: expected 13, got %d", result.FramesWritten)
	}
	if result.FramesSkippedA != 10 || result.FramesSkippedB != 12 {
		t.Errorf("skipped: expected (10, 12), got (%d, %d)", result.FramesSkippedA, result.FramesSkippedB)
	}
	if result.Interrupted {
		t.Error("run must not be flagged as interrupted")
	}

	if len(sink.Created) != 1 {
		t.Fatalf("expected 1 output, got %d", len(sink.Created))
	}
	created := sink.Created[0]
	if created.Path != "out.mp4" || created.Options.FourCC != "mp4v" || created.Options.FPS != 30 {
		t.Errorf("unexpected sink options: %+v", created)
	}

	w := sink.Writers[0]
	// Output frame k pairs A[10+k] with B[12+k].
	for k, m := range w.Marks {
		if int(m[0]) != 10+k || int(m[1]) != 12+k {
			t.Fatalf("frame %d: expected pair (%d, %d), got %v", k, 10+k, 12+k, m)
		}
	}
	if !w.Closed {
		t.Error("writer was not closed")
	}
	if !outputExists(t, sink, "out.mp4") || result.OutputDiscarded {
		t.Error("completed output must be kept")
	}
	for i, r := range source.Readers {
		if !r.Closed {
			t.Errorf("reader %d was not closed", i)
		}
	}
}

func TestStage_FrameCountIsIdempotent(t *testing.T) {
	run := func() int {
		source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(40), "b": video(40)}}
		sink := &mocks.VideoSink{}
		result, err := newTestStage(source, sink, testOptions()).Execute(context.Background(), pipeline.CombineInput{
			PathA: "a", PathB: "b", OutputPath: "o",
			Alignment: pipeline.AlignmentResult{StartIndexA: 10, StartIndexB: 10},
		})
		if err != nil {
			t.Fatal(err)
		}
		return result.FramesWritten
	}
	first, second := run(), run()
	if first != 30 || second != 30 {
		t.Errorf("expected 30 frames on both runs, got %d and %d", first, second)
	}
}

func TestStage_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		a, b    mocks.Video
		wantErr error
	}{
		{
			name:    "fps mismatch",
			a:       mocks.Video{FPS: 30, Width: 4, Height: 2, Frames: 20},
			b:       mocks.Video{FPS: 25, Width: 4, Height: 2, Frames: 20},
			wantErr: pipeline.ErrPropertyMismatch,
		},
		{
			name:    "height mismatch",
			a:       mocks.Video{FPS: 30, Width: 4, Height: 2, Frames: 20},
			b:       mocks.Video{FPS: 30, Width: 4, Height: 4, Frames: 20},
			wantErr: pipeline.ErrPropertyMismatch,
		},
		{
			name:    "resolution outside contract",
			a:       mocks.Video{FPS: 30, Width: 8, Height: 4, Frames: 20},
			b:       mocks.Video{FPS: 30, Width: 8, Height: 4, Frames: 20},
			wantErr: pipeline.ErrUnsupportedResolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": tt.a, "b": tt.b}}
			sink := &mocks.VideoSink{}
			_, err := newTestStage(source, sink, testOptions()).Execute(context.Background(), pipeline.CombineInput{
				PathA: "a", PathB: "b", OutputPath: "o",
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(sink.Created) != 0 {
				t.Error("output must not be created when validation fails")
			}
			for i, r := range source.Readers {
				if !r.Closed {
					t.Errorf("reader %d was not closed", i)
				}
			}
		})
	}
}

func TestStage_MissingSource(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(20)}}
	sink := &mocks.VideoSink{}

	_, err := newTestStage(source, sink, testOptions()).Execute(context.Background(), pipeline.CombineInput{
		PathA: "a", PathB: "missing", OutputPath: "o",
	})
	if !errors.Is(err, pipeline.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if src, _ := pipeline.FailedSource(err); src != "B" {
		t.Errorf("failed source: expected B, got %q", src)
	}
	if !source.Readers[0].Closed {
		t.Error("reader A was not closed")
	}
}

func TestStage_InterruptIsNotAnError(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(100), "b": video(100)}}
	sink := &mocks.VideoSink{}
	opts := testOptions()
	opts.ProgressInterval = 5
	stage := newTestStage(source, sink, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stage.SetObserver(func(ev pipeline.CombineEvent) {
		if ev.Kind == pipeline.EventProgress && ev.FramesWritten == 5 {
			cancel()
		}
	})

	result, err := stage.Execute(ctx, pipeline.CombineInput{PathA: "a", PathB: "b", OutputPath: "o"})
	if err != nil {
		t.Fatalf("interrupt must not be an error, got %v", err)
	}
	if !result.Interrupted {
		t.Error("expected Interrupted to be set")
	}
	if result.FramesWritten != 5 {
		t.Errorf("frames written: expected 5, got %d", result.FramesWritten)
	}
	if !sink.Writers[0].Closed {
		t.Error("writer was not closed after interrupt")
	}
	if !outputExists(t, sink, "o") || result.OutputDiscarded {
		t.Error("interrupted output must be kept")
	}
}

func TestStage_ObserverSeesStatesAndProgress(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(12), "b": video(12)}}
	sink := &mocks.VideoSink{}
	opts := testOptions()
	opts.ProgressInterval = 5
	stage := newTestStage(source, sink, opts)

	var states []pipeline.CombineState
	var progress []int
	validated := false
	stage.SetObserver(func(ev pipeline.CombineEvent) {
		switch ev.Kind {
		case pipeline.EventStateChanged:
			states = append(states, ev.State)
		case pipeline.EventProgress:
			progress = append(progress, ev.FramesWritten)
		case pipeline.EventValidated:
			validated = ev.PropertiesA.FPS == 30
		}
	})

	if _, err := stage.Execute(context.Background(), pipeline.CombineInput{PathA: "a", PathB: "b", OutputPath: "o"}); err != nil {
		t.Fatal(err)
	}

	wantStates := []pipeline.CombineState{
		pipeline.StateOpening, pipeline.StateValidating, pipeline.StateSeeking,
		pipeline.StateComposing, pipeline.StateDraining, pipeline.StateClosed,
	}
	if len(states) != len(wantStates) {
		t.Fatalf("states: expected %v, got %v", wantStates, states)
	}
	for i := range wantStates {
		if states[i] != wantStates[i] {
			t.Errorf("state %d: expected %s, got %s", i, wantStates[i], states[i])
		}
	}
	if len(progress) != 2 || progress[0] != 5 || progress[1] != 10 {
		t.Errorf("progress: expected [5 10], got %v", progress)
	}
	if !validated {
		t.Error("expected a validated event carrying source properties")
	}
}

func TestStage_ReadErrorAborts(t *testing.T) {
	b := video(50)
	b.FailAt = 15
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(50), "b": b}}
	sink := &mocks.VideoSink{}

	result, err := newTestStage(source, sink, testOptions()).Execute(context.Background(), pipeline.CombineInput{
		PathA: "a", PathB: "b", OutputPath: "o",
		Alignment: pipeline.AlignmentResult{StartIndexA: 10, StartIndexB: 10},
	})
	if err == nil {
		t.Fatal("expected read error")
	}
	if src, _ := pipeline.FailedSource(err); src != "B" {
		t.Errorf("failed source: expected B, got %q", src)
	}
	if result.FramesWritten != 5 {
		t.Errorf("frames written: expected 5, got %d", result.FramesWritten)
	}
	if !sink.Writers[0].Closed {
		t.Error("writer was not closed")
	}
	if outputExists(t, sink, "o") {
		t.Error("partial output must be removed after a read error")
	}
	if !result.OutputDiscarded {
		t.Error("result must report the discarded output")
	}
}

func TestStage_WriteErrorDiscardsOutput(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(20), "b": video(20)}}
	sink := &mocks.VideoSink{}
	stage := newTestStage(source, sink, testOptions())
	w := &brokenWriter{failAt: 3}
	sink.CreateFunc = func(ctx context.Context, path string, opts ports.SinkOptions) (ports.FrameWriter, error) {
		return w, nil
	}

	result, err := stage.Execute(context.Background(), pipeline.CombineInput{PathA: "a", PathB: "b", OutputPath: "o"})
	if err == nil {
		t.Fatal("expected write error")
	}
	if result.FramesWritten != 2 {
		t.Errorf("frames written: expected 2, got %d", result.FramesWritten)
	}
	if !w.closed {
		t.Error("writer was not closed")
	}
	if outputExists(t, sink, "o") || !result.OutputDiscarded {
		t.Errorf("output kept after write error (discarded=%v)", result.OutputDiscarded)
	}
}

// brokenWriter fails on its failAt-th frame.
type brokenWriter struct {
	failAt int
	n      int
	closed bool
}

func (w *brokenWriter) WriteFrame(*frame.Image) error {
	w.n++
	if w.n == w.failAt {
		return errors.New("broken pipe")
	}
	return nil
}

func (w *brokenWriter) Close() error {
	w.closed = true
	return nil
}

func TestStage_FinalizeErrorDiscardsOutput(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(4), "b": video(4)}}
	sink := &mocks.VideoSink{}
	stage := newTestStage(source, sink, testOptions())
	sink.CreateFunc = func(ctx context.Context, path string, opts ports.SinkOptions) (ports.FrameWriter, error) {
		return failingCloser{}, nil
	}

	_, err := stage.Execute(context.Background(), pipeline.CombineInput{PathA: "a", PathB: "b", OutputPath: "o"})
	if err == nil {
		t.Fatal("expected finalize error")
	}
	if outputExists(t, sink, "o") {
		t.Error("output kept after finalize error")
	}
}

type failingCloser struct{}

func (failingCloser) WriteFrame(*frame.Image) error { return nil }
func (failingCloser) Close() error                  { return errors.New("moov atom not written") }

func TestStage_ExhaustedWhileSeeking(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(5), "b": video(50)}}
	sink := &mocks.VideoSink{}

	result, err := newTestStage(source, sink, testOptions()).Execute(context.Background(), pipeline.CombineInput{
		PathA: "a", PathB: "b", OutputPath: "o",
		Alignment: pipeline.AlignmentResult{StartIndexA: 10, StartIndexB: 10},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.FramesWritten != 0 {
		t.Errorf("frames written: expected 0, got %d", result.FramesWritten)
	}
	if len(sink.Created) != 0 {
		t.Error("no output expected when a source ends before its start frame")
	}
}

func TestStage_ConsumeTable(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(10), "b": video(10)}}
	sink := &mocks.VideoSink{}
	opts := testOptions()
	opts.ConsumeTable = true

	table := []pipeline.IndexPair{
		{A: 0, B: 0}, {A: 1, B: 0}, // before the start row
		{A: 2, B: 1}, {A: 2, B: 2}, {A: 4, B: 3}, {A: 5, B: 5}, {A: 9, B: 6},
	}
	result, err := newTestStage(source, sink, opts).Execute(context.Background(), pipeline.CombineInput{
		PathA: "a", PathB: "b", OutputPath: "o",
		Alignment: pipeline.AlignmentResult{
			Mode:          pipeline.ResampledMatch,
			StartIndexA:   2,
			StartIndexB:   1,
			ResampleTable: table,
			TablePosition: 2,
		},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := [][2]uint8{{2, 1}, {2, 2}, {4, 3}, {5, 5}, {9, 6}}
	marks := sink.Writers[0].Marks
	if len(marks) != len(want) {
		t.Fatalf("expected %d frames, got %d (%v)", len(want), len(marks), marks)
	}
	for i := range want {
		if marks[i] != want[i] {
			t.Errorf("frame %d: expected %v, got %v", i, want[i], marks[i])
		}
	}
	// A: 2 seeked + frames 3, 6, 7, 8 passed over. B: 1 seeked + frame 4.
	if result.FramesSkippedA != 6 || result.FramesSkippedB != 2 {
		t.Errorf("skipped: expected (6, 2), got (%d, %d)", result.FramesSkippedA, result.FramesSkippedB)
	}
}

func TestStage_ConsumeTableOffIgnoresTable(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(10), "b": video(10)}}
	sink := &mocks.VideoSink{}

	result, err := newTestStage(source, sink, testOptions()).Execute(context.Background(), pipeline.CombineInput{
		PathA: "a", PathB: "b", OutputPath: "o",
		Alignment: pipeline.AlignmentResult{
			Mode:          pipeline.ResampledMatch,
			StartIndexA:   2,
			StartIndexB:   1,
			ResampleTable: []pipeline.IndexPair{{A: 2, B: 1}, {A: 9, B: 9}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.FramesWritten != 8 {
		t.Errorf("frames written: expected 8, got %d", result.FramesWritten)
	}
}

func TestStage_AccurateFrameCount(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(17), "b": video(19)}}
	sink := &mocks.VideoSink{}
	opts := testOptions()
	opts.AccurateFrameCount = true

	result, err := newTestStage(source, sink, opts).Execute(context.Background(), pipeline.CombineInput{PathA: "a", PathB: "b", OutputPath: "o"})
	if err != nil {
		t.Fatal(err)
	}
	if result.PropertiesA.FrameCount != 17 || result.PropertiesB.FrameCount != 19 {
		t.Errorf("frame counts: got %v and %v", result.PropertiesA.FrameCount, result.PropertiesB.FrameCount)
	}
}

func TestStage_SnapshotsToDebugSink(t *testing.T) {
	source := &mocks.VideoSource{Videos: map[string]mocks.Video{"a": video(12), "b": video(12)}}
	sink := &mocks.VideoSink{}
	debug := mocks.NewDebugSink(true)
	opts := testOptions()
	opts.SnapshotInterval = 5
	stage := NewStage(source, sink, markComposer{canvas: small}, debug, mocks.NewFileSystem(), logger.NewNoop(), opts)

	if _, err := stage.Execute(context.Background(), pipeline.CombineInput{PathA: "a", PathB: "b", OutputPath: "o"}); err != nil {
		t.Fatal(err)
	}
	for _, i := range []int{0, 5, 10} {
		if _, ok := debug.ComposedFrames[i]; !ok {
			t.Errorf("expected snapshot of frame %d", i)
		}
	}
	if len(debug.ComposedFrames) != 3 {
		t.Errorf("expected 3 snapshots, got %d", len(debug.ComposedFrames))
	}
}

func TestCheckProperties(t *testing.T) {
	base := mocks.NewFrameReader("a", video(1)).Properties()
	if err := CheckProperties(base, base, small); err != nil {
		t.Errorf("identical properties: unexpected error %v", err)
	}
	other := base
	other.Width = 8
	if err := CheckProperties(base, other, small); !errors.Is(err, pipeline.ErrPropertyMismatch) {
		t.Errorf("width mismatch: expected ErrPropertyMismatch, got %v", err)
	}
}
