// Package align implements the frame alignment stage.
//
// Two recordings of the same session are captured on separate machines, so
// frame i of one video is not guaranteed to show the same instant as frame i
// of the other. The stage compares the capture timestamps at a reference
// index and either accepts the index as common start (direct match) or falls
// back to matching both recordings against a synthetic uniform timeline.
package align

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
)

// Stage computes the start frame of each source.
// This is a pure function apart from logging.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new align stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("align"),
	}
}

// Execute aligns the two timestamp series.
func (s *Stage) Execute(ctx context.Context, input pipeline.AlignInput) (pipeline.AlignmentResult, error) {
	result, err := Align(input.A, input.B, input.Options)
	if err != nil {
		return result, err
	}

	switch result.Mode {
	case pipeline.DirectMatch:
		s.logger.Debug("Reference frames match within %.3f s (diff %.4f s)", input.Options.Tolerance, result.ReferenceDiff)
	case pipeline.ResampledMatch:
		s.logger.Warn("Reference frame drift %.4f s exceeds tolerance, resampling onto %.0f fps timeline", result.ReferenceDiff, input.Options.TargetFPS)
		s.logger.Debug("Resample table: %d entries over %.3f s", len(result.ResampleTable), result.OverlapDuration)
	case pipeline.NearestMatch:
		s.logger.Warn("Reference frame drift %.4f s exceeds tolerance, searching nearest frame", result.ReferenceDiff)
	}
	s.logger.Debug("Start frames: A=%d B=%d", result.StartIndexA, result.StartIndexB)

	return result, nil
}

// Align performs the alignment. It is exposed as a standalone function for
// testing and reuse.
func Align(a, b pipeline.TimestampSeries, opts pipeline.AlignOptions) (pipeline.AlignmentResult, error) {
	opts = withDefaults(opts)
	start := opts.StartIndex

	if err := checkSeries(pipeline.SourceA, a, start); err != nil {
		return pipeline.AlignmentResult{}, err
	}
	if err := checkSeries(pipeline.SourceB, b, start); err != nil {
		return pipeline.AlignmentResult{}, err
	}

	refA := a.CaptureTimes[start]
	refB := b.CaptureTimes[start]
	diff := refA - refB
	// Equal infinities give NaN, which neither >= nor < can partition.
	if math.IsNaN(diff) {
		return pipeline.AlignmentResult{}, pipeline.NewSourceError("",
			fmt.Sprintf("reference frame %d (A=%v, B=%v)", start, refA, refB),
			pipeline.ErrInvalidTimestamps)
	}

	result := pipeline.AlignmentResult{
		ReferenceDiff: diff,
		Later:         pipeline.SourceA,
		Strategy:      opts.Strategy,
	}
	if diff < 0 {
		result.Later = pipeline.SourceB
	}

	switch {
	case math.Abs(diff) <= opts.Tolerance:
		result.Mode = pipeline.DirectMatch
		result.StartIndexA = start
		result.StartIndexB = start

	case opts.Strategy == pipeline.StrategyNearest:
		result.Mode = pipeline.NearestMatch
		if result.Later == pipeline.SourceA {
			result.StartIndexA = start
			result.StartIndexB = Nearest(b.CaptureTimes, refA)
		} else {
			result.StartIndexB = start
			result.StartIndexA = Nearest(a.CaptureTimes, refB)
		}

	default:
		overlap := math.Min(a.Duration(), b.Duration())
		if !(overlap > 0) {
			return pipeline.AlignmentResult{}, pipeline.NewSourceError("",
				fmt.Sprintf("overlap duration %v", overlap),
				pipeline.ErrInvalidTimestamps)
		}
		// A stop time in the wrong unit would otherwise ask for billions of ticks.
		if recorded := math.Min(recordedSpan(a), recordedSpan(b)); overlap > recorded+MaxStopSlack {
			return pipeline.AlignmentResult{}, pipeline.NewSourceError("",
				fmt.Sprintf("overlap duration %.3f s exceeds the %.3f s covered by capture times", overlap, recorded),
				pipeline.ErrInvalidTimestamps)
		}
		table := Resample(a.CaptureTimes, b.CaptureTimes, a.SharedStart, overlap, opts.TargetFPS)
		if len(table) <= start {
			return pipeline.AlignmentResult{}, pipeline.NewSourceError("",
				fmt.Sprintf("resample table has %d entries, need index %d", len(table), start),
				pipeline.ErrInvalidTimestamps)
		}
		result.Mode = pipeline.ResampledMatch
		result.OverlapDuration = overlap
		result.ResampleTable = table
		result.TablePosition = start
		result.StartIndexA = table[start].A
		result.StartIndexB = table[start].B
	}

	result.AbsoluteStart = (a.CaptureTimes[result.StartIndexA] + b.CaptureTimes[result.StartIndexB]) / 2
	result.SharedStartTime = a.SharedStart
	result.RelativeStart = result.AbsoluteStart - result.SharedStartTime

	return result, nil
}

func withDefaults(opts pipeline.AlignOptions) pipeline.AlignOptions {
	def := pipeline.DefaultAlignOptions()
	if opts.StartIndex < 0 {
		opts.StartIndex = def.StartIndex
	}
	if opts.Tolerance < 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.TargetFPS <= 0 {
		opts.TargetFPS = def.TargetFPS
	}
	if opts.Strategy == "" {
		opts.Strategy = def.Strategy
	}
	return opts
}

func checkSeries(id pipeline.SourceID, s pipeline.TimestampSeries, start int) error {
	label := s.Label
	if label == "" {
		label = id.String()
	}
	if len(s.CaptureTimes) < start+1 {
		return pipeline.NewSourceError(label,
			fmt.Sprintf("%d capture times, need at least %d", len(s.CaptureTimes), start+1),
			pipeline.ErrInvalidTimestamps)
	}
	for i, t := range s.CaptureTimes {
		if math.IsNaN(t) {
			return pipeline.NewSourceError(label,
				fmt.Sprintf("capture time %d is NaN", i),
				pipeline.ErrInvalidTimestamps)
		}
	}
	return nil
}

// MaxStopSlack is how far, in seconds, the stop time may lie beyond the
// last capture time before the overlap is rejected.
const MaxStopSlack = 60.0

// recordedSpan is the time from the shared start to the latest capture.
func recordedSpan(s pipeline.TimestampSeries) float64 {
	last := math.Inf(-1)
	for _, t := range s.CaptureTimes {
		last = math.Max(last, t)
	}
	return last - s.SharedStart
}

// Timeline returns the synthetic timeline start + k/fps for every k with
// start + k/fps < start + duration. The tick count is
// ceil(duration*fps) computed the way numpy's arange does.
func Timeline(start, duration, fps float64) []float64 {
	step := 1 / fps
	stop := start + duration
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return nil
	}
	ticks := make([]float64, n)
	for k := range ticks {
		ticks[k] = start + float64(k)*step
	}
	return ticks
}

// Resample pairs every tick of the synthetic timeline with the nearest
// capture time of each source.
func Resample(timesA, timesB []float64, sharedStart, duration, fps float64) []pipeline.IndexPair {
	ticks := Timeline(sharedStart, duration, fps)
	na := newNearestFinder(timesA)
	nb := newNearestFinder(timesB)

	table := make([]pipeline.IndexPair, len(ticks))
	for k, t := range ticks {
		table[k] = pipeline.IndexPair{A: na.find(t), B: nb.find(t)}
	}
	return table
}

// Nearest returns the index of the capture time closest to t. The first
// index wins when several are equally close. times must not be empty.
func Nearest(times []float64, t float64) int {
	return newNearestFinder(times).find(t)
}

type nearestFinder struct {
	times  []float64
	sorted bool
}

func newNearestFinder(times []float64) nearestFinder {
	return nearestFinder{times: times, sorted: sort.Float64sAreSorted(times)}
}

func (f nearestFinder) find(t float64) int {
	if !f.sorted {
		return linearNearest(f.times, t)
	}

	times := f.times
	// First index with times[i] >= t.
	i := sort.SearchFloat64s(times, t)
	switch {
	case i == 0:
		return 0
	case i == len(times):
		return sort.SearchFloat64s(times, times[i-1])
	}
	if t-times[i-1] <= times[i]-t {
		// Lower neighbour wins ties; step back over duplicates.
		return sort.SearchFloat64s(times, times[i-1])
	}
	return i
}

func linearNearest(times []float64, t float64) int {
	best := 0
	bestDiff := math.Abs(times[0] - t)
	for i := 1; i < len(times); i++ {
		if d := math.Abs(times[i] - t); d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return best
}
