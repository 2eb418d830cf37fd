package pipeline

import (
	"github.com/user/framesync/pkg/frame"
	"github.com/user/framesync/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Rectangle represents a rectangular area.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Point is a position on the canvas.
type Point struct {
	X int
	Y int
}

// SourceID identifies one of the two recordings.
type SourceID int

const (
	// SourceA is the left-hand recording (Mordor lab in the CommGame setup).
	SourceA SourceID = iota
	// SourceB is the right-hand recording (Gondor lab in the CommGame setup).
	SourceB
)

// String returns "A" or "B".
func (s SourceID) String() string {
	switch s {
	case SourceA:
		return "A"
	case SourceB:
		return "B"
	default:
		return "?"
	}
}

// SourceFiles are the on-disk inputs for one recording site.
type SourceFiles struct {
	Label        string // Human readable site name, e.g. "Mordor"
	VideoPath    string
	MetadataPath string
}

// =============================================================================
// Discover Stage Types
// =============================================================================

// DiscoverInput identifies one recording session on disk.
type DiscoverInput struct {
	Root    string // Directory searched recursively
	Pair    int    // Pair number, e.g. 3
	Session string // Session name, e.g. "freeConv"
	LabA    string // Site of source A (default: Mordor)
	LabB    string // Site of source B (default: Gondor)
}

// DefaultLabs returns the site names of the CommGame setup.
func DefaultLabs() (a, b string) {
	return "Mordor", "Gondor"
}

// DiscoverResult holds the files found for a session.
type DiscoverResult struct {
	A          SourceFiles
	B          SourceFiles
	OutputPath string // <Root>/pair<N>_<session>_combined_video.mp4
}

// =============================================================================
// Extract Stage Types
// =============================================================================

// FieldNames names the metadata variables holding the timestamps.
type FieldNames struct {
	SharedStart  string // Task initialisation time shared across sites
	Stop         string // Capture stop time
	CaptureTimes string // Per-frame capture timestamps
}

// DefaultFieldNames returns the variable names written by the CommGame
// recording scripts.
func DefaultFieldNames() FieldNames {
	return FieldNames{
		SharedStart:  "sharedStartTime",
		Stop:         "stopCaptureTime",
		CaptureTimes: "frameCaptTime",
	}
}

// ExtractInput contains the metadata locations for both sources.
type ExtractInput struct {
	A      SourceFiles
	B      SourceFiles
	Fields FieldNames
}

// TimestampSeries holds the timing metadata of one recording.
// All times are unix seconds. CaptureTimes never contains NaN.
type TimestampSeries struct {
	Label        string
	Path         string
	SharedStart  float64
	Stop         float64
	CaptureTimes []float64
}

// Duration returns Stop - SharedStart.
func (s TimestampSeries) Duration() float64 {
	return s.Stop - s.SharedStart
}

// ExtractResult contains both loaded series.
type ExtractResult struct {
	A TimestampSeries
	B TimestampSeries
}

// =============================================================================
// Align Stage Types
// =============================================================================

// AlignMode describes how the start indices were chosen.
type AlignMode string

const (
	// DirectMatch means the reference frames lined up within tolerance.
	DirectMatch AlignMode = "direct"
	// ResampledMatch means both sources were matched onto a synthetic uniform timeline.
	ResampledMatch AlignMode = "resampled"
	// NearestMatch means the later reference frame was kept and the other
	// source's nearest capture time was searched.
	NearestMatch AlignMode = "nearest"
)

// DriftStrategy selects the fallback used when the reference frames drift
// beyond tolerance.
type DriftStrategy string

const (
	// StrategyResample builds a synthetic timeline at TargetFPS.
	StrategyResample DriftStrategy = "resample"
	// StrategyNearest keeps the later reference frame and searches the other source.
	StrategyNearest DriftStrategy = "nearest"
)

// AlignOptions configures the aligner.
type AlignOptions struct {
	StartIndex int           // Reference frame index (default: 10)
	Tolerance  float64       // Allowed reference-frame discrepancy in seconds (default: 0.02)
	TargetFPS  float64       // Synthetic timeline rate for resampling (default: 30)
	Strategy   DriftStrategy // Drift fallback (default: resample)
}

// DefaultAlignOptions returns AlignOptions with default values.
func DefaultAlignOptions() AlignOptions {
	return AlignOptions{
		StartIndex: 10,
		Tolerance:  0.02,
		TargetFPS:  30,
		Strategy:   StrategyResample,
	}
}

// AlignInput contains the two series to align.
type AlignInput struct {
	A       TimestampSeries
	B       TimestampSeries
	Options AlignOptions
}

// IndexPair is one row of the resample table.
type IndexPair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// AlignmentResult describes which frames start the composite video.
type AlignmentResult struct {
	StartIndexA     int       `json:"start_index_a"`
	StartIndexB     int       `json:"start_index_b"`
	AbsoluteStart   float64   `json:"absolute_start"`
	SharedStartTime float64   `json:"shared_start_time"`
	RelativeStart   float64   `json:"relative_start"`
	Mode            AlignMode `json:"mode"`
	// Strategy is the drift fallback that was configured for the run.
	Strategy DriftStrategy `json:"strategy"`

	// ReferenceDiff is A - B at the reference frame, in seconds.
	ReferenceDiff float64 `json:"reference_diff"`
	// Later is the source whose reference frame was captured later.
	Later SourceID `json:"later"`
	// OverlapDuration is min(duration A, duration B); zero for direct matches.
	OverlapDuration float64 `json:"overlap_duration,omitempty"`

	// ResampleTable has one pair per synthetic timeline tick (resampled mode only).
	ResampleTable []IndexPair `json:"resample_table,omitempty"`
	// TablePosition is the table row the start indices were taken from.
	TablePosition int `json:"table_position,omitempty"`
}

// HasTable reports whether a resample table is available.
func (r AlignmentResult) HasTable() bool {
	return r.Mode == ResampledMatch && len(r.ResampleTable) > 0
}

// =============================================================================
// Layout Stage Types
// =============================================================================

// LayoutInput describes the resolution contract of a run.
type LayoutInput struct {
	SourceWidth  int // Expected input frame width (default: 1920)
	SourceHeight int // Expected input frame height (default: 1080)
	CanvasWidth  int // Output canvas width (default: 1920)
	CanvasHeight int // Output canvas height (default: 1080)
}

// DefaultLayoutInput returns LayoutInput with default values.
func DefaultLayoutInput() LayoutInput {
	return LayoutInput{
		SourceWidth:  1920,
		SourceHeight: 1080,
		CanvasWidth:  1920,
		CanvasHeight: 1080,
	}
}

// LayoutResult contains the composition geometry.
type LayoutResult struct {
	Source Dimension // Required input frame size
	Canvas Dimension // Output frame size
	Scaled Dimension // Size each input is downscaled to
	// Crop is the band kept from each downscaled frame.
	Crop Rectangle
	// Left and Right are where the crops of A and B are placed on the canvas.
	Left  Point
	Right Point
}

// =============================================================================
// Combine Stage Types
// =============================================================================

// CombineInput contains the inputs for one combination run.
type CombineInput struct {
	PathA      string
	PathB      string
	OutputPath string
	Alignment  AlignmentResult
}

// CombineState is a state of the combiner state machine.
type CombineState string

const (
	StateOpening    CombineState = "opening"
	StateValidating CombineState = "validating"
	StateSeeking    CombineState = "seeking"
	StateComposing  CombineState = "composing"
	StateDraining   CombineState = "draining"
	StateClosed     CombineState = "closed"
)

// CombineEventKind identifies an observer event.
type CombineEventKind int

const (
	// EventStateChanged is emitted on every state transition.
	EventStateChanged CombineEventKind = iota
	// EventProgress is emitted every ProgressInterval written frames.
	EventProgress
	// EventValidated is emitted once source properties have been checked.
	EventValidated
)

// CombineEvent is delivered to the combiner's observer.
type CombineEvent struct {
	Kind          CombineEventKind
	State         CombineState
	FramesWritten int
	PropertiesA   ports.SourceProperties
	PropertiesB   ports.SourceProperties
}

// Observer receives combiner events. It must not block for long.
type Observer func(CombineEvent)

// CombineResult summarises a combination run.
type CombineResult struct {
	FramesWritten   int
	FramesSkippedA  int
	FramesSkippedB  int
	Interrupted     bool
	// OutputDiscarded is set when a failed run removed its partial output.
	OutputDiscarded bool
	PropertiesA     ports.SourceProperties
	PropertiesB     ports.SourceProperties
}

// ComposedFrame pairs a composite image with the input indices it came from.
type ComposedFrame struct {
	Index  int
	IndexA int
	IndexB int
	Image  *frame.Image
}
