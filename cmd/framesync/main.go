// Package main provides the CLI entry point for framesync.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/user/framesync/pkg/adapters/ffmpegio"
	"github.com/user/framesync/pkg/adapters/filesink"
	"github.com/user/framesync/pkg/adapters/logger"
	"github.com/user/framesync/pkg/adapters/mp4probe"
	"github.com/user/framesync/pkg/adapters/nullsink"
	"github.com/user/framesync/pkg/adapters/osfilesystem"
	"github.com/user/framesync/pkg/discovery"
	"github.com/user/framesync/pkg/framesync"
	"github.com/user/framesync/pkg/orchestrator"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
	"github.com/user/framesync/pkg/summarizer"
)

var version = "dev"

func main() {
	// .env may carry FFMPEG_PATH, FFPROBE_PATH and AWS_* settings
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, l10n.F("framesync version %s", c.App.Version))
	}

	return &cli.App{
		Name:    "framesync",
		Usage:   l10n.T("Combine two synchronized recordings into one side-by-side video"),
		Version: version,
		Description: l10n.T("framesync aligns two recordings of the same session by their frame capture " +
			"timestamps and writes one combined video plus its real-world start time."),
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     l10n.T("Find the recordings of a pair and session and combine them"),
				ArgsUsage: "<input_dir> <pair> [session]",
				Flags:     commonFlags(),
				Action:    runAction,
			},
			{
				Name:      "combine",
				Usage:     l10n.T("Combine two explicitly given recordings"),
				ArgsUsage: " ",
				Flags:     append(explicitFlags(true), commonFlags()...),
				Action:    combineAction,
			},
			{
				Name:      "align",
				Usage:     l10n.T("Print the frame alignment without writing a video"),
				ArgsUsage: "[<input_dir> <pair> [session]]",
				Flags:     append(explicitFlags(false), commonFlags()...),
				Action:    alignAction,
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		// Configuration
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T("Configuration"), Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Category: l10n.T("Configuration"), Usage: l10n.T("Preset (freeConv or BG), chosen from the session name by default")},
		&cli.StringFlag{Name: "lab-a", Category: l10n.T("Configuration"), Usage: l10n.T("Site shown on the left (default: Mordor)")},
		&cli.StringFlag{Name: "lab-b", Category: l10n.T("Configuration"), Usage: l10n.T("Site shown on the right (default: Gondor)")},

		// Alignment
		&cli.IntFlag{Name: "start-index", Category: l10n.T("Alignment"), Usage: l10n.T("Reference frame index (default: 10)")},
		&cli.Float64Flag{Name: "tolerance", Category: l10n.T("Alignment"), Usage: l10n.T("Allowed reference frame discrepancy in seconds (default: 0.02)")},
		&cli.Float64Flag{Name: "target-fps", Category: l10n.T("Alignment"), Usage: l10n.T("Rate of the resampling timeline (default: 30)")},
		&cli.StringFlag{Name: "strategy", Category: l10n.T("Alignment"), Usage: l10n.T("Drift fallback: resample or nearest")},

		// Video
		&cli.StringFlag{Name: "scaler", Category: l10n.T("Video"), Usage: l10n.T("Downscale filter: area, catmullrom, bilinear or nearest")},
		&cli.BoolFlag{Name: "parallel", Category: l10n.T("Video"), Usage: l10n.T("Scale both sources concurrently")},
		&cli.StringFlag{Name: "fourcc", Category: l10n.T("Video"), Usage: l10n.T("Output codec tag (default: mp4v)")},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Category: l10n.T("Video"), Usage: l10n.T("Encoder quality passed to ffmpeg")},
		&cli.BoolFlag{Name: "accurate-frame-count", Category: l10n.T("Video"), Usage: l10n.T("Count frames by decoding both videos (slow)")},
		&cli.BoolFlag{Name: "consume-table", Category: l10n.T("Video"), Usage: l10n.T("Follow the resample table frame by frame")},
		&cli.IntFlag{Name: "progress-interval", Category: l10n.T("Video"), Usage: l10n.T("Frames between progress messages (default: 1000)")},
		&cli.StringFlag{Name: "ffmpeg", Category: l10n.T("Video"), Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH, then PATH)")},
		&cli.StringFlag{Name: "ffprobe", Category: l10n.T("Video"), Usage: l10n.T("Path to ffprobe (falls back to FFPROBE_PATH, then PATH)")},

		// Export
		&cli.StringSliceFlag{Name: "export", Aliases: []string{"e"}, Category: l10n.T("Export"), Usage: l10n.T("Start time formats: mat, json, s3 (default: mat)")},
		&cli.StringFlag{Name: "s3-bucket", Category: l10n.T("Export"), EnvVars: []string{"FRAMESYNC_S3_BUCKET"}, Usage: l10n.T("S3 bucket for start times")},
		&cli.StringFlag{Name: "s3-prefix", Category: l10n.T("Export"), EnvVars: []string{"FRAMESYNC_S3_PREFIX"}, Usage: l10n.T("S3 key prefix")},
		&cli.StringFlag{Name: "s3-region", Category: l10n.T("Export"), Usage: l10n.T("AWS region (default: AWS configuration chain)")},
		&cli.StringFlag{Name: "s3-profile", Category: l10n.T("Export"), Usage: l10n.T("AWS shared config profile")},
		&cli.BoolFlag{Name: "s3-path-style", Category: l10n.T("Export"), Usage: l10n.T("Use path-style addressing for S3-compatible stores")},
		&cli.BoolFlag{Name: "s3-upload-video", Category: l10n.T("Export"), Usage: l10n.T("Also upload the combined video")},
		&cli.StringFlag{Name: "summary", Category: l10n.T("Export"), Usage: l10n.T("Write a Markdown summary of the run to this path")},

		// Debug
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: l10n.T("Debug"), Usage: l10n.T("Save alignment data and composed frame snapshots")},
		&cli.StringFlag{Name: "debug-dir", Category: l10n.T("Debug"), Usage: l10n.T("Directory for debug output (default: ./debug)")},
		&cli.IntFlag{Name: "snapshot-interval", Category: l10n.T("Debug"), Usage: l10n.T("Save every Nth composed frame when debugging (default: 500)")},

		// Logging
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T("Logging"), Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.StringFlag{Name: "log-format", Category: l10n.T("Logging"), Usage: l10n.T("Log format (console, pretty, json)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T("Logging"), Usage: l10n.T("Suppress all log output")},
	}
}

// explicitFlags are the file paths used instead of discovery.
func explicitFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "video-a", Category: l10n.T("Input"), Required: required, Usage: l10n.T("Video of source A")},
		&cli.StringFlag{Name: "video-b", Category: l10n.T("Input"), Required: required, Usage: l10n.T("Video of source B")},
		&cli.StringFlag{Name: "meta-a", Category: l10n.T("Input"), Required: required, Usage: l10n.T("Timestamp file of source A (.mat, .yaml or .json)")},
		&cli.StringFlag{Name: "meta-b", Category: l10n.T("Input"), Required: required, Usage: l10n.T("Timestamp file of source B (.mat, .yaml or .json)")},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: l10n.T("Input"), Usage: l10n.T("Output MP4 file path")},
		&cli.IntFlag{Name: "pair", Category: l10n.T("Input"), Usage: l10n.T("Pair number used to name the start time files")},
		&cli.StringFlag{Name: "session", Category: l10n.T("Input"), Usage: l10n.T("Session name (default: freeConv)")},
	}
}

// target is what a command works on: a discovery query or explicit files.
type target struct {
	root    string
	pair    int
	session string
	sources *pipeline.DiscoverResult
}

func discoveryTarget(c *cli.Context) (target, error) {
	args := c.Args()
	if args.Len() < 2 || args.Len() > 3 {
		return target{}, cli.Exit(l10n.T("expected <input_dir> <pair> [session]"), 2)
	}
	pair, err := strconv.Atoi(args.Get(1))
	if err != nil || pair < 1 {
		return target{}, cli.Exit(l10n.F("invalid pair number %q", args.Get(1)), 2)
	}
	t := target{root: args.Get(0), pair: pair, session: args.Get(2)}
	return t, nil
}

func explicitTarget(c *cli.Context) target {
	return target{
		pair:    c.Int("pair"),
		session: c.String("session"),
		sources: &pipeline.DiscoverResult{
			A:          pipeline.SourceFiles{VideoPath: c.String("video-a"), MetadataPath: c.String("meta-a")},
			B:          pipeline.SourceFiles{VideoPath: c.String("video-b"), MetadataPath: c.String("meta-b")},
			OutputPath: c.String("output"),
		},
	}
}

func runAction(c *cli.Context) error {
	t, err := discoveryTarget(c)
	if err != nil {
		return err
	}
	return execute(c, t, false)
}

func combineAction(c *cli.Context) error {
	return execute(c, explicitTarget(c), false)
}

func alignAction(c *cli.Context) error {
	if c.IsSet("meta-a") || c.IsSet("meta-b") {
		return execute(c, explicitTarget(c), true)
	}
	t, err := discoveryTarget(c)
	if err != nil {
		return err
	}
	return execute(c, t, true)
}

func execute(c *cli.Context, t target, alignOnly bool) error {
	s, err := resolveSettings(c, t.session)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if t.sources != nil {
		t.sources.A.Label = s.config.LabA
		t.sources.B.Label = s.config.LabB
		if t.sources.OutputPath == "" {
			t.sources.OutputPath = discovery.OutputPath(".", t.pair, s.config.Session)
		}
	}
	log := newLogger(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
	}()

	ffmpegio.SetFFmpegPath(s.ffmpegPath)
	ffmpegio.SetFFprobePath(s.ffprobePath)
	fs := osfilesystem.New()

	var debugSink ports.DebugSink = nullsink.New()
	if s.debug {
		if err := fs.MkdirAll(s.debugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		debugSink = filesink.New(s.debugDir, fs)
		log.Info(l10n.F("Debug output: %s", s.debugDir))
	}

	p, err := framesync.NewPipeline(ctx, s.config, framesync.Deps{
		FileSystem: fs,
		Source:     ffmpegio.NewSource(ffmpegio.ChainProber{ffmpegio.FFprobe{}, mp4probe.New()}),
		Sink:       ffmpegio.NewSink(),
		Debug:      debugSink,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	var result orchestrator.RunResult
	switch {
	case alignOnly:
		result, err = p.Align(ctx, t.root, t.pair, t.sources)
	case t.sources != nil:
		result, err = p.RunFiles(ctx, t.pair, *t.sources)
	default:
		result, err = p.Run(ctx, t.root, t.pair)
	}
	if err != nil {
		return err
	}

	if alignOnly {
		return printAlignment(c, result.Alignment)
	}

	if s.summaryPath != "" {
		summary := result.Summary(s.preset, p.Layout.Canvas)
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), fs)
		if err := w.Write(s.summaryPath, summary); err != nil {
			log.Warn(l10n.F("Failed to write summary: %s", err))
		} else {
			log.Info(l10n.F("Summary saved to %s", s.summaryPath))
		}
	}

	if result.Combine.Interrupted {
		return cli.Exit(l10n.T("interrupted"), 130)
	}
	return nil
}

func printAlignment(c *cli.Context, a pipeline.AlignmentResult) error {
	out := struct {
		Mode            pipeline.AlignMode `json:"mode"`
		StartIndexA     int                `json:"start_index_a"`
		StartIndexB     int                `json:"start_index_b"`
		ReferenceDiff   float64            `json:"reference_diff"`
		AbsoluteStart   float64            `json:"absolute_start"`
		SharedStartTime float64            `json:"shared_start"`
		RelativeStart   float64            `json:"rel_start"`
		TableLength     int                `json:"table_length,omitempty"`
	}{
		Mode:            a.Mode,
		StartIndexA:     a.StartIndexA,
		StartIndexB:     a.StartIndexB,
		ReferenceDiff:   a.ReferenceDiff,
		AbsoluteStart:   a.AbsoluteStart,
		SharedStartTime: a.SharedStartTime,
		RelativeStart:   a.RelativeStart,
		TableLength:     len(a.ResampleTable),
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newLogger(s settings) ports.Logger {
	if s.quiet {
		return logger.NewNoop()
	}
	// validated by resolveSettings
	level, _ := ports.ParseLogLevel(s.logLevel)
	switch s.logFormat {
	case "pretty":
		return logger.NewSlog(level)
	case "json":
		return logger.NewSlogJSON(os.Stderr, level)
	default:
		return logger.NewConsole(level)
	}
}
