// Package framesync provides a high-level API for combining two synchronized
// CommGame recordings into one side-by-side video.
package framesync

import (
	"fmt"
	"strings"

	"github.com/user/framesync/pkg/orchestrator"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/stages/combine"
	"github.com/user/framesync/pkg/stages/composite"
)

// Preset represents a recording setup preset name.
type Preset string

const (
	// PresetFreeConv is the free conversation task, recorded at 1920x1080.
	PresetFreeConv Preset = "freeConv"
	// PresetBG is the BG1..BG9 game task, recorded at 1280x720.
	PresetBG Preset = "BG"
)

// Export format names accepted by WithExports.
const (
	ExportMAT  = "mat"
	ExportJSON = "json"
	ExportS3   = "s3"
)

// S3Config selects where start times are published.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	UsePathStyle bool
	UploadVideo  bool
}

// Config represents the configuration for one combination run.
type Config struct {
	// Session
	Session string // Session name, e.g. "freeConv" or "BG3"
	LabA    string // Site shown on the left (default: Mordor)
	LabB    string // Site shown on the right (default: Gondor)

	// Metadata
	Fields pipeline.FieldNames

	// Alignment
	StartIndex int                    // Reference frame index (min: 0)
	Tolerance  float64                // Reference-frame tolerance in seconds (min: 0)
	TargetFPS  float64                // Synthetic timeline rate (min: 1)
	Strategy   pipeline.DriftStrategy // Drift fallback

	// Geometry
	SourceWidth  int
	SourceHeight int
	CanvasWidth  int // Must be even
	CanvasHeight int

	// Composition
	Scaler   string // area, catmullrom, bilinear or nearest
	Parallel bool   // Scale both sources concurrently

	// Encoding
	FourCC             string
	Quality            int
	ProgressInterval   int // Frames between progress events (min: 1)
	AccurateFrameCount bool
	ConsumeTable       bool

	// Debug
	SnapshotInterval int // Save every Nth composed frame to the debug sink (0: never)

	// Export
	Exports []string // Any of mat, json, s3
	S3      S3Config
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with freeConv preset defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: freeConvDefaults(),
	}
}

// NewBGConfigBuilder creates a new ConfigBuilder with BG preset defaults.
func NewBGConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: bgDefaults(),
	}
}

// NewPresetConfigBuilder creates a ConfigBuilder for a named preset.
// Preset names are matched case-insensitively.
func NewPresetConfigBuilder(name string) (*ConfigBuilder, error) {
	switch strings.ToLower(name) {
	case "", strings.ToLower(string(PresetFreeConv)):
		return NewConfigBuilder(), nil
	case strings.ToLower(string(PresetBG)):
		return NewBGConfigBuilder(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q (want %s or %s)", name, PresetFreeConv, PresetBG)
	}
}

// PresetForSession picks the preset matching a session name: BG1..BG9 use
// the BG preset, everything else freeConv.
func PresetForSession(session string) Preset {
	if strings.HasPrefix(strings.ToUpper(session), "BG") {
		return PresetBG
	}
	return PresetFreeConv
}

// freeConvDefaults returns the freeConv preset configuration.
func freeConvDefaults() Config {
	labA, labB := pipeline.DefaultLabs()
	align := pipeline.DefaultAlignOptions()
	layout := pipeline.DefaultLayoutInput()
	return Config{
		Session: string(PresetFreeConv),
		LabA:    labA,
		LabB:    labB,
		Fields:  pipeline.DefaultFieldNames(),

		StartIndex: align.StartIndex,
		Tolerance:  align.Tolerance,
		TargetFPS:  align.TargetFPS,
		Strategy:   align.Strategy,

		SourceWidth:  layout.SourceWidth,
		SourceHeight: layout.SourceHeight,
		CanvasWidth:  layout.CanvasWidth,
		CanvasHeight: layout.CanvasHeight,

		Scaler: composite.ScalerArea,

		FourCC:           "mp4v",
		ProgressInterval: combine.DefaultProgressInterval,

		Exports: []string{ExportMAT},
	}
}

// bgDefaults returns the BG preset configuration. The canvas stays at
// 1920x1080, so each 1280x720 frame is scaled to 1200x675.
func bgDefaults() Config {
	cfg := freeConvDefaults()
	cfg.Session = "BG1"
	cfg.SourceWidth = 1280
	cfg.SourceHeight = 720
	return cfg
}

// Build returns the final Config, applying validation and constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	if cfg.StartIndex < 0 {
		cfg.StartIndex = 0
	}
	if cfg.Tolerance < 0 {
		cfg.Tolerance = 0
	}
	if cfg.TargetFPS < 1 {
		cfg.TargetFPS = pipeline.DefaultAlignOptions().TargetFPS
	}
	if cfg.Strategy == "" {
		cfg.Strategy = pipeline.StrategyResample
	}

	// The canvas is split into two equal halves
	if cfg.CanvasWidth%2 != 0 {
		cfg.CanvasWidth--
	}

	if cfg.ProgressInterval < 1 {
		cfg.ProgressInterval = combine.DefaultProgressInterval
	}
	if cfg.SnapshotInterval < 0 {
		cfg.SnapshotInterval = 0
	}
	if cfg.FourCC == "" {
		cfg.FourCC = "mp4v"
	}

	cfg.Exports = normalizeExports(cfg.Exports)
	return cfg
}

func normalizeExports(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// WithSession sets the session name.
func (b *ConfigBuilder) WithSession(session string) *ConfigBuilder {
	b.config.Session = session
	return b
}

// WithLabs sets the site names of source A and source B.
// Empty names keep the current value.
func (b *ConfigBuilder) WithLabs(a, bLab string) *ConfigBuilder {
	if a != "" {
		b.config.LabA = a
	}
	if bLab != "" {
		b.config.LabB = bLab
	}
	return b
}

// WithFields sets the metadata variable names. Empty names keep the current value.
func (b *ConfigBuilder) WithFields(f pipeline.FieldNames) *ConfigBuilder {
	if f.SharedStart != "" {
		b.config.Fields.SharedStart = f.SharedStart
	}
	if f.Stop != "" {
		b.config.Fields.Stop = f.Stop
	}
	if f.CaptureTimes != "" {
		b.config.Fields.CaptureTimes = f.CaptureTimes
	}
	return b
}

// WithStartIndex sets the reference frame index.
// Negative values will be forced to 0.
func (b *ConfigBuilder) WithStartIndex(i int) *ConfigBuilder {
	b.config.StartIndex = i
	return b
}

// WithTolerance sets the allowed reference-frame discrepancy in seconds.
func (b *ConfigBuilder) WithTolerance(seconds float64) *ConfigBuilder {
	b.config.Tolerance = seconds
	return b
}

// WithTargetFPS sets the rate of the synthetic resampling timeline.
func (b *ConfigBuilder) WithTargetFPS(fps float64) *ConfigBuilder {
	b.config.TargetFPS = fps
	return b
}

// WithStrategy sets the drift fallback.
func (b *ConfigBuilder) WithStrategy(s pipeline.DriftStrategy) *ConfigBuilder {
	b.config.Strategy = s
	return b
}

// WithSourceSize sets the resolution both recordings must have.
func (b *ConfigBuilder) WithSourceSize(width, height int) *ConfigBuilder {
	b.config.SourceWidth = width
	b.config.SourceHeight = height
	return b
}

// WithCanvasSize sets the output resolution.
// Odd widths are rounded down to the next even value.
func (b *ConfigBuilder) WithCanvasSize(width, height int) *ConfigBuilder {
	b.config.CanvasWidth = width
	b.config.CanvasHeight = height
	return b
}

// WithScaler sets the downscale filter.
func (b *ConfigBuilder) WithScaler(name string) *ConfigBuilder {
	b.config.Scaler = name
	return b
}

// WithParallel scales both sources on separate goroutines.
func (b *ConfigBuilder) WithParallel(enabled bool) *ConfigBuilder {
	b.config.Parallel = enabled
	return b
}

// WithFourCC sets the output codec tag.
func (b *ConfigBuilder) WithFourCC(fourcc string) *ConfigBuilder {
	b.config.FourCC = fourcc
	return b
}

// WithQuality sets the encoder quality passed to the video sink.
func (b *ConfigBuilder) WithQuality(q int) *ConfigBuilder {
	b.config.Quality = q
	return b
}

// WithProgressInterval sets the number of frames between progress events.
func (b *ConfigBuilder) WithProgressInterval(n int) *ConfigBuilder {
	b.config.ProgressInterval = n
	return b
}

// WithAccurateFrameCount counts frames by decoding both videos.
func (b *ConfigBuilder) WithAccurateFrameCount(enabled bool) *ConfigBuilder {
	b.config.AccurateFrameCount = enabled
	return b
}

// WithConsumeTable makes the combiner walk the resample table.
func (b *ConfigBuilder) WithConsumeTable(enabled bool) *ConfigBuilder {
	b.config.ConsumeTable = enabled
	return b
}

// WithSnapshotInterval saves every Nth composed frame when debugging.
func (b *ConfigBuilder) WithSnapshotInterval(n int) *ConfigBuilder {
	b.config.SnapshotInterval = n
	return b
}

// WithExports replaces the list of start time exporters.
func (b *ConfigBuilder) WithExports(names ...string) *ConfigBuilder {
	b.config.Exports = append([]string(nil), names...)
	return b
}

// WithS3 configures the S3 exporter. It does not enable it; add "s3" to the
// exports for that.
func (b *ConfigBuilder) WithS3(s3 S3Config) *ConfigBuilder {
	b.config.S3 = s3
	return b
}

// HasExport reports whether the named exporter is enabled.
func (c Config) HasExport(name string) bool {
	for _, e := range c.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// AlignOptions returns the aligner settings.
func (c Config) AlignOptions() pipeline.AlignOptions {
	return pipeline.AlignOptions{
		StartIndex: c.StartIndex,
		Tolerance:  c.Tolerance,
		TargetFPS:  c.TargetFPS,
		Strategy:   c.Strategy,
	}
}

// LayoutInput returns the resolution contract.
func (c Config) LayoutInput() pipeline.LayoutInput {
	return pipeline.LayoutInput{
		SourceWidth:  c.SourceWidth,
		SourceHeight: c.SourceHeight,
		CanvasWidth:  c.CanvasWidth,
		CanvasHeight: c.CanvasHeight,
	}
}

// CompositeOptions returns the compositor settings.
func (c Config) CompositeOptions() composite.Options {
	return composite.Options{
		Scaler:   c.Scaler,
		Parallel: c.Parallel,
	}
}

// CombineOptions returns the combiner settings for a computed layout.
func (c Config) CombineOptions(layout pipeline.LayoutResult) combine.Options {
	return combine.Options{
		Source:             layout.Source,
		Canvas:             layout.Canvas,
		FourCC:             c.FourCC,
		Quality:            c.Quality,
		ProgressInterval:   c.ProgressInterval,
		AccurateFrameCount: c.AccurateFrameCount,
		ConsumeTable:       c.ConsumeTable,
		SnapshotInterval:   c.SnapshotInterval,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config for a
// discovery run under root.
func (c Config) ToOrchestratorConfig(root string, pair int) orchestrator.Config {
	return orchestrator.Config{
		Root:    root,
		Pair:    pair,
		Session: c.Session,
		LabA:    c.LabA,
		LabB:    c.LabB,
		Fields:  c.Fields,
		Align:   c.AlignOptions(),
	}
}
