package main

import (
	"github.com/urfave/cli/v2"

	"github.com/user/framesync/pkg/config"
	"github.com/user/framesync/pkg/framesync"
	"github.com/user/framesync/pkg/pipeline"
)

// settings is the resolved configuration of one command: preset defaults,
// then the YAML file, then command line flags.
type settings struct {
	config framesync.Config
	preset string

	ffmpegPath  string
	ffprobePath string
	summaryPath string

	debug    bool
	debugDir string

	logLevel  string
	logFormat string
	quiet     bool
}

func resolveSettings(c *cli.Context, session string) (settings, error) {
	var (
		file config.Config
		err  error
	)
	if path := c.String("config"); path != "" {
		file, err = config.LoadFromFile(path)
	} else {
		file, err = config.Defaults(string(framesync.PresetForSession(session)))
	}
	if err != nil {
		return settings{}, err
	}

	// An explicit preset replaces the preset defaults but keeps file values
	if c.IsSet("preset") && c.String("preset") != file.Preset {
		base, err := config.Defaults(c.String("preset"))
		if err != nil {
			return settings{}, err
		}
		file.Preset = base.Preset
		file.SourceWidth, file.SourceHeight = base.SourceWidth, base.SourceHeight
		file.CanvasWidth, file.CanvasHeight = base.CanvasWidth, base.CanvasHeight
	}
	if session != "" {
		file.Session = session
	}
	if c.IsSet("strategy") {
		file.Align.Strategy = c.String("strategy")
	}
	if c.IsSet("log-format") {
		file.LogFormat = c.String("log-format")
	}
	if c.IsSet("log-level") {
		file.LogLevel = c.String("log-level")
	}

	b, err := file.Builder()
	if err != nil {
		return settings{}, err
	}
	applyFlags(c, b)

	s := settings{
		config:      b.Build(),
		preset:      file.Preset,
		ffmpegPath:  file.FFmpegPath,
		ffprobePath: file.FFprobePath,
		summaryPath: c.String("summary"),
		debug:       file.Debug || c.Bool("debug"),
		debugDir:    file.DebugDir,
		logLevel:    file.LogLevel,
		logFormat:   file.LogFormat,
		quiet:       c.Bool("quiet"),
	}
	if c.IsSet("ffmpeg") {
		s.ffmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("ffprobe") {
		s.ffprobePath = c.String("ffprobe")
	}
	if c.IsSet("debug-dir") {
		s.debugDir = c.String("debug-dir")
	}
	if !s.debug {
		s.config.SnapshotInterval = 0
	}
	return s, nil
}

// applyFlags layers the flags the user actually set on top of b.
func applyFlags(c *cli.Context, b *framesync.ConfigBuilder) {
	b.WithLabs(c.String("lab-a"), c.String("lab-b"))

	if c.IsSet("start-index") {
		b.WithStartIndex(c.Int("start-index"))
	}
	if c.IsSet("tolerance") {
		b.WithTolerance(c.Float64("tolerance"))
	}
	if c.IsSet("target-fps") {
		b.WithTargetFPS(c.Float64("target-fps"))
	}
	if c.IsSet("strategy") {
		b.WithStrategy(pipeline.DriftStrategy(c.String("strategy")))
	}
	if c.IsSet("scaler") {
		b.WithScaler(c.String("scaler"))
	}
	if c.IsSet("parallel") {
		b.WithParallel(c.Bool("parallel"))
	}
	if c.IsSet("fourcc") {
		b.WithFourCC(c.String("fourcc"))
	}
	if c.IsSet("quality") {
		b.WithQuality(c.Int("quality"))
	}
	if c.IsSet("accurate-frame-count") {
		b.WithAccurateFrameCount(c.Bool("accurate-frame-count"))
	}
	if c.IsSet("consume-table") {
		b.WithConsumeTable(c.Bool("consume-table"))
	}
	if c.IsSet("progress-interval") {
		b.WithProgressInterval(c.Int("progress-interval"))
	}
	if c.IsSet("snapshot-interval") {
		b.WithSnapshotInterval(c.Int("snapshot-interval"))
	}
	if c.IsSet("export") {
		b.WithExports(c.StringSlice("export")...)
	}

	s3 := b.Build().S3
	if c.IsSet("s3-bucket") {
		s3.Bucket = c.String("s3-bucket")
	}
	if c.IsSet("s3-prefix") {
		s3.Prefix = c.String("s3-prefix")
	}
	if c.IsSet("s3-region") {
		s3.Region = c.String("s3-region")
	}
	if c.IsSet("s3-profile") {
		s3.Profile = c.String("s3-profile")
	}
	if c.IsSet("s3-path-style") {
		s3.UsePathStyle = c.Bool("s3-path-style")
	}
	if c.IsSet("s3-upload-video") {
		s3.UploadVideo = c.Bool("s3-upload-video")
	}
	b.WithS3(s3)
}
