// Package integration contains integration tests for the framesync pipeline.
// They need ffmpeg and ffprobe and are skipped when either is missing.
package integration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/user/framesync/pkg/adapters/ffmpegio"
	"github.com/user/framesync/pkg/adapters/filesink"
	"github.com/user/framesync/pkg/adapters/logger"
	"github.com/user/framesync/pkg/adapters/matfile"
	"github.com/user/framesync/pkg/adapters/mp4probe"
	"github.com/user/framesync/pkg/adapters/nullsink"
	"github.com/user/framesync/pkg/adapters/osfilesystem"
	"github.com/user/framesync/pkg/framesync"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
)

const (
	testWidth  = 64
	testHeight = 36
	testFrames = 40
	testFPS    = 30
)

func requireFFmpeg(t *testing.T) string {
	t.Helper()
	if _, err := ffmpegio.FindFFprobe(); err != nil {
		t.Skip("ffprobe not available")
	}
	path, err := ffmpegio.FindFFmpeg()
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	return path
}

// makeVideo renders a short test pattern.
func makeVideo(t *testing.T, ffmpegPath, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	cmd := exec.Command(ffmpegPath, "-y", "-loglevel", "error",
		"-f", "lavfi", "-i", fmt.Sprintf("testsrc=size=%dx%d:rate=%d", testWidth, testHeight, testFPS),
		"-frames:v", fmt.Sprint(testFrames),
		"-pix_fmt", "yuv420p", "-c:v", "mpeg4",
		path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg failed: %v\n%s", err, out)
	}
}

// makeTimes writes a MAT file with capture times starting at first.
func makeTimes(t *testing.T, path string, shared, first float64) {
	t.Helper()
	times := make([]float64, testFrames)
	for i := range times {
		times[i] = first + float64(i)/testFPS
	}
	data, err := matfile.Encoder{Compress: true}.Encode(
		matfile.Variable{Name: "sharedStartTime", Data: []float64{shared}},
		matfile.Variable{Name: "stopCaptureTime", Data: []float64{times[len(times)-1]}},
		matfile.Variable{Name: "frameCaptTime", Dims: []int{testFrames, 1}, Data: times},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

// makeSession lays out one pair the way the recording scripts do.
func makeSession(t *testing.T, ffmpegPath, root string, offsetB float64) {
	t.Helper()
	for _, site := range []struct {
		lab    string
		offset float64
	}{{"Mordor", 0}, {"Gondor", offsetB}} {
		dir := filepath.Join(root, "pair3_"+site.lab+"_behav")
		makeVideo(t, ffmpegPath, filepath.Join(dir, "pair3_"+site.lab+"_freeConv.mov"))
		makeTimes(t, filepath.Join(dir, "pair3_"+site.lab+"_freeConv_frameTimes.mat"), 1000, 1000.5+site.offset)
	}
}

func newPipeline(t *testing.T, cfg framesync.Config, debug ports.DebugSink) *framesync.Pipeline {
	t.Helper()
	fs := osfilesystem.New()
	p, err := framesync.NewPipeline(context.Background(), cfg, framesync.Deps{
		FileSystem: fs,
		Source:     ffmpegio.NewSource(ffmpegio.ChainProber{ffmpegio.FFprobe{}, mp4probe.New()}),
		Sink:       ffmpegio.NewSink(),
		Debug:      debug,
		Logger:     logger.NewNoop(),
	})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p
}

func testConfig() *framesync.ConfigBuilder {
	return framesync.NewConfigBuilder().
		WithSourceSize(testWidth, testHeight).
		WithCanvasSize(testWidth, testHeight).
		WithExports(framesync.ExportMAT, framesync.ExportJSON)
}

func TestPipeline_DirectMatch(t *testing.T) {
	ffmpegPath := requireFFmpeg(t)
	root := t.TempDir()
	makeSession(t, ffmpegPath, root, 0)

	p := newPipeline(t, testConfig().Build(), nullsink.New())
	result, err := p.Run(context.Background(), root, 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Alignment.Mode != pipeline.DirectMatch {
		t.Errorf("Mode = %q, want direct", result.Alignment.Mode)
	}
	if want := testFrames - 10; result.Combine.FramesWritten != want {
		t.Errorf("FramesWritten = %d, want %d", result.Combine.FramesWritten, want)
	}

	output := filepath.Join(root, "pair3_freeConv_combined_video.mp4")
	props, err := ffmpegio.FFprobe{}.Probe(context.Background(), output)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if props.Width != testWidth || props.Height != testHeight {
		t.Errorf("output = %dx%d, want %dx%d", props.Width, props.Height, testWidth, testHeight)
	}

	data, err := os.ReadFile(filepath.Join(root, "pair3_freeConv_combined_video_start.mat"))
	if err != nil {
		t.Fatalf("start time file: %v", err)
	}
	f, err := matfile.Decode(data)
	if err != nil {
		t.Fatalf("decode start time file: %v", err)
	}
	abs, _ := f.Field("absolute_start")
	rel, _ := f.Field("rel_start")
	wantAbs := 1000.5 + 10.0/testFPS
	if len(abs) != 1 || math.Abs(abs[0]-wantAbs) > 1e-9 {
		t.Errorf("absolute_start = %v, want %v", abs, wantAbs)
	}
	if len(rel) != 1 || math.Abs(rel[0]-(wantAbs-1000)) > 1e-9 {
		t.Errorf("rel_start = %v", rel)
	}

	if _, err := os.Stat(filepath.Join(root, "pair3_freeConv_combined_video_start.json")); err != nil {
		t.Errorf("json start time file: %v", err)
	}
}

func TestPipeline_ResampledMatchWithDebug(t *testing.T) {
	ffmpegPath := requireFFmpeg(t)
	root := t.TempDir()
	makeSession(t, ffmpegPath, root, 0.05)
	debugDir := filepath.Join(t.TempDir(), "debug")

	cfg := testConfig().WithSnapshotInterval(5).WithConsumeTable(true).Build()
	p := newPipeline(t, cfg, filesink.New(debugDir, osfilesystem.New()))

	result, err := p.Run(context.Background(), root, 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Alignment.Mode != pipeline.ResampledMatch {
		t.Fatalf("Mode = %q, want resampled", result.Alignment.Mode)
	}
	if result.Combine.FramesWritten == 0 {
		t.Error("no frames written")
	}

	for _, name := range []string{"alignment.json", "resample_table.csv"} {
		if _, err := os.Stat(filepath.Join(debugDir, name)); err != nil {
			t.Errorf("debug file %s: %v", name, err)
		}
	}
	snapshots, _ := filepath.Glob(filepath.Join(debugDir, "frames", "composed", "*.png"))
	if len(snapshots) == 0 {
		t.Error("no composed frame snapshots saved")
	}
}

func TestPipeline_ResolutionContract(t *testing.T) {
	ffmpegPath := requireFFmpeg(t)
	root := t.TempDir()
	makeSession(t, ffmpegPath, root, 0)

	cfg := testConfig().WithSourceSize(1920, 1080).Build()
	p := newPipeline(t, cfg, nullsink.New())

	_, err := p.Run(context.Background(), root, 3)
	if err == nil {
		t.Fatal("expected resolution error")
	}
	if !errors.Is(err, pipeline.ErrUnsupportedResolution) {
		t.Errorf("err = %v, want ErrUnsupportedResolution", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "pair3_freeConv_combined_video_start.mat")); statErr == nil {
		t.Error("start time must not be exported after a failed run")
	}
}
