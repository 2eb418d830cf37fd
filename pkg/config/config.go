// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"github.com/user/framesync/pkg/framesync"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration file for framesync.
type Config struct {
	// Preset selects the defaults every other value overrides (freeConv or BG).
	Preset string `yaml:"preset"`

	// Input
	InputDir string `yaml:"input_dir"`
	Pair     int    `yaml:"pair"`
	Session  string `yaml:"session"`
	LabA     string `yaml:"lab_a"`
	LabB     string `yaml:"lab_b"`

	// Metadata
	Fields FieldsConfig `yaml:"fields"`

	// Alignment
	Align AlignConfig `yaml:"align"`

	// Geometry
	SourceWidth  int `yaml:"source_width"`
	SourceHeight int `yaml:"source_height"`
	CanvasWidth  int `yaml:"canvas_width"`
	CanvasHeight int `yaml:"canvas_height"`

	// Composition
	Scaler   string `yaml:"scaler"`
	Parallel bool   `yaml:"parallel"`

	// Encoding
	FourCC             string `yaml:"fourcc"`
	Quality            int    `yaml:"quality"`
	ProgressInterval   int    `yaml:"progress_interval"`
	AccurateFrameCount bool   `yaml:"accurate_frame_count"`
	ConsumeTable       bool   `yaml:"consume_table"`
	FFmpegPath         string `yaml:"ffmpeg_path"`
	FFprobePath        string `yaml:"ffprobe_path"`

	// Export
	Exports []string `yaml:"exports"`
	S3      S3Config `yaml:"s3"`

	// Debug
	Debug            bool   `yaml:"debug"`
	DebugDir         string `yaml:"debug_dir"`
	SnapshotInterval int    `yaml:"snapshot_interval"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// FieldsConfig names the metadata variables.
type FieldsConfig struct {
	SharedStart  string `yaml:"shared_start"`
	Stop         string `yaml:"stop"`
	CaptureTimes string `yaml:"capture_times"`
}

// AlignConfig represents alignment settings.
type AlignConfig struct {
	StartIndex int     `yaml:"start_index"`
	Tolerance  float64 `yaml:"tolerance"`
	TargetFPS  float64 `yaml:"target_fps"`
	Strategy   string  `yaml:"strategy"`
}

// S3Config represents the S3 exporter settings.
type S3Config struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Profile     string `yaml:"profile"`
	PathStyle   bool   `yaml:"path_style"`
	UploadVideo bool   `yaml:"upload_video"`
}

// Defaults returns a Config with the values of the named preset.
func Defaults(preset string) (Config, error) {
	b, err := framesync.NewPresetConfigBuilder(preset)
	if err != nil {
		return Config{}, err
	}
	p := b.Build()
	if preset == "" {
		preset = string(framesync.PresetFreeConv)
	}

	return Config{
		Preset:  preset,
		Session: p.Session,
		LabA:    p.LabA,
		LabB:    p.LabB,

		Fields: FieldsConfig{
			SharedStart:  p.Fields.SharedStart,
			Stop:         p.Fields.Stop,
			CaptureTimes: p.Fields.CaptureTimes,
		},

		Align: AlignConfig{
			StartIndex: p.StartIndex,
			Tolerance:  p.Tolerance,
			TargetFPS:  p.TargetFPS,
			Strategy:   string(p.Strategy),
		},

		SourceWidth:  p.SourceWidth,
		SourceHeight: p.SourceHeight,
		CanvasWidth:  p.CanvasWidth,
		CanvasHeight: p.CanvasHeight,

		Scaler: p.Scaler,

		FourCC:           p.FourCC,
		ProgressInterval: p.ProgressInterval,

		Exports: p.Exports,

		DebugDir:         "./debug",
		SnapshotInterval: 500,

		LogLevel:  "info",
		LogFormat: "console",
	}, nil
}

// LoadFromFile loads configuration from a YAML file. The preset named in the
// file provides the defaults for everything the file leaves out.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, err
	}

	cfg, err := Defaults(head.Preset)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the builder cannot repair.
func (c Config) Validate() error {
	switch pipeline.DriftStrategy(c.Align.Strategy) {
	case pipeline.StrategyResample, pipeline.StrategyNearest:
	default:
		return fmt.Errorf("unknown strategy %q", c.Align.Strategy)
	}
	switch c.LogFormat {
	case "", "console", "pretty", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Builder converts Config to a framesync.ConfigBuilder so that command line
// flags can be layered on top.
func (c Config) Builder() (*framesync.ConfigBuilder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	b, err := framesync.NewPresetConfigBuilder(c.Preset)
	if err != nil {
		return nil, err
	}

	return b.
		WithSession(c.Session).
		WithLabs(c.LabA, c.LabB).
		WithFields(pipeline.FieldNames{
			SharedStart:  c.Fields.SharedStart,
			Stop:         c.Fields.Stop,
			CaptureTimes: c.Fields.CaptureTimes,
		}).
		WithStartIndex(c.Align.StartIndex).
		WithTolerance(c.Align.Tolerance).
		WithTargetFPS(c.Align.TargetFPS).
		WithStrategy(pipeline.DriftStrategy(c.Align.Strategy)).
		WithSourceSize(c.SourceWidth, c.SourceHeight).
		WithCanvasSize(c.CanvasWidth, c.CanvasHeight).
		WithScaler(c.Scaler).
		WithParallel(c.Parallel).
		WithFourCC(c.FourCC).
		WithQuality(c.Quality).
		WithProgressInterval(c.ProgressInterval).
		WithAccurateFrameCount(c.AccurateFrameCount).
		WithConsumeTable(c.ConsumeTable).
		WithSnapshotInterval(c.SnapshotInterval).
		WithExports(c.Exports...).
		WithS3(framesync.S3Config{
			Bucket:       c.S3.Bucket,
			Prefix:       c.S3.Prefix,
			Region:       c.S3.Region,
			Profile:      c.S3.Profile,
			UsePathStyle: c.S3.PathStyle,
			UploadVideo:  c.S3.UploadVideo,
		}), nil
}
