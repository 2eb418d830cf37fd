// Package summarizer provides summary generation for combination runs.
package summarizer

import "time"

// Summary contains all data collected during a combination run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Session identification
	Session SessionInfo

	// Per-source details, A then B
	Sources [2]SourceInfo

	// Alignment decision
	Alignment AlignmentInfo

	// Output video details
	Video VideoInfo

	// Where the start time was exported
	Exports []ExportInfo
}

// SessionInfo identifies the recording session.
type SessionInfo struct {
	Pair    int
	Session string
	Preset  string
}

// SourceInfo describes one input recording.
type SourceInfo struct {
	Label        string
	VideoPath    string
	MetadataPath string
	FPS          float64
	Width        int
	Height       int
	FrameCount   float64
	CaptureTimes int
	// Skipped counts frames read but not written (start offset and table repeats).
	Skipped int
}

// AlignmentInfo describes how the start frames were chosen.
type AlignmentInfo struct {
	Mode            string
	Strategy        string
	StartIndexA     int
	StartIndexB     int
	ReferenceDiff   float64
	AbsoluteStart   float64
	SharedStartTime float64
	RelativeStart   float64
	TableLength     int
}

// VideoInfo contains information about the output video.
type VideoInfo struct {
	Path          string
	FramesWritten int
	CanvasWidth   int
	CanvasHeight  int
	FPS           float64
	Interrupted   bool
}

// DurationSec returns the playback length of the output video.
func (v VideoInfo) DurationSec() float64 {
	if v.FPS <= 0 {
		return 0
	}
	return float64(v.FramesWritten) / v.FPS
}

// ExportInfo records one exporter's output.
type ExportInfo struct {
	Name     string
	Location string
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSession sets the session identification.
func (b *Builder) WithSession(pair int, session, preset string) *Builder {
	b.summary.Session = SessionInfo{
		Pair:    pair,
		Session: session,
		Preset:  preset,
	}
	return b
}

// WithSources sets both source descriptions.
func (b *Builder) WithSources(a, bInfo SourceInfo) *Builder {
	b.summary.Sources = [2]SourceInfo{a, bInfo}
	return b
}

// WithAlignment sets the alignment decision.
func (b *Builder) WithAlignment(alignment AlignmentInfo) *Builder {
	b.summary.Alignment = alignment
	return b
}

// WithVideo sets video output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// AddExport records an exported start-time file.
func (b *Builder) AddExport(name, location string) *Builder {
	b.summary.Exports = append(b.summary.Exports, ExportInfo{Name: name, Location: location})
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
