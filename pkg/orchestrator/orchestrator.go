// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
)

// Config contains all configuration for one run.
type Config struct {
	// Discovery
	Root    string
	Pair    int
	Session string
	LabA    string
	LabB    string

	// Sources bypasses discovery when set.
	Sources *pipeline.DiscoverResult

	// Extraction
	Fields pipeline.FieldNames

	// Alignment
	Align pipeline.AlignOptions

	// AlignOnly stops after alignment; nothing is written or exported.
	AlignOnly bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Session: "freeConv",
		Fields:  pipeline.DefaultFieldNames(),
		Align:   pipeline.DefaultAlignOptions(),
	}
}

// observable is implemented by stages that report progress.
type observable interface {
	SetObserver(pipeline.Observer)
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	discoverStage pipeline.Stage[pipeline.DiscoverInput, pipeline.DiscoverResult]
	extractStage  pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult]
	alignStage    pipeline.Stage[pipeline.AlignInput, pipeline.AlignmentResult]
	combineStage  pipeline.Stage[pipeline.CombineInput, pipeline.CombineResult]
	exporters     []ports.ResultExporter
	sink          ports.DebugSink
	logger        ports.Logger
}

// New creates a new Orchestrator.
func New(
	discoverStage pipeline.Stage[pipeline.DiscoverInput, pipeline.DiscoverResult],
	extractStage pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult],
	alignStage pipeline.Stage[pipeline.AlignInput, pipeline.AlignmentResult],
	combineStage pipeline.Stage[pipeline.CombineInput, pipeline.CombineResult],
	exporters []ports.ResultExporter,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	o := &Orchestrator{
		discoverStage: discoverStage,
		extractStage:  extractStage,
		alignStage:    alignStage,
		combineStage:  combineStage,
		exporters:     exporters,
		sink:          sink,
		logger:        logger,
	}
	if obs, ok := combineStage.(observable); ok {
		obs.SetObserver(o.observe)
	}
	return o
}

// Run executes the complete pipeline.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	started := time.Now()
	o.logger.Info(l10n.T("Starting pipeline"))
	result := RunResult{Pair: config.Pair, Session: config.Session}

	// 1. Discover input files
	if config.Sources != nil {
		result.Sources = *config.Sources
	} else {
		o.logger.Info(l10n.F("Searching %s for pair %d, session %s", config.Root, config.Pair, config.Session))
		found, err := o.discoverStage.Execute(ctx, pipeline.DiscoverInput{
			Root:    config.Root,
			Pair:    config.Pair,
			Session: config.Session,
			LabA:    config.LabA,
			LabB:    config.LabB,
		})
		if err != nil {
			o.logger.Error(l10n.F("Failed to find input files: %s", err))
			return result, fmt.Errorf("discover stage: %w", err)
		}
		result.Sources = found
	}
	o.logger.Info(l10n.F("Source A: %s", result.Sources.A.VideoPath))
	o.logger.Info(l10n.F("Source B: %s", result.Sources.B.VideoPath))

	// 2. Load timestamps
	series, err := o.extractStage.Execute(ctx, pipeline.ExtractInput{
		A:      result.Sources.A,
		B:      result.Sources.B,
		Fields: config.Fields,
	})
	if err != nil {
		o.logger.Error(l10n.F("Failed to load timestamps: %s", err))
		return result, fmt.Errorf("extract stage: %w", err)
	}
	result.Series = series

	// 3. Align start frames
	alignment, err := o.alignStage.Execute(ctx, pipeline.AlignInput{
		A:       series.A,
		B:       series.B,
		Options: config.Align,
	})
	if err != nil {
		o.logger.Error(l10n.F("Failed to align timestamps: %s", err))
		return result, fmt.Errorf("align stage: %w", err)
	}
	result.Alignment = alignment
	o.logger.Info(l10n.F("Alignment: %s, start frames A=%d B=%d", string(alignment.Mode), alignment.StartIndexA, alignment.StartIndexB))
	o.logger.Info(l10n.F("Video starts at %.6f (%.6f s after shared start)", alignment.AbsoluteStart, alignment.RelativeStart))
	o.saveAlignment(alignment)

	if config.AlignOnly {
		result.Elapsed = time.Since(started)
		return result, nil
	}

	// 4. Combine videos
	o.logger.Info(l10n.F("Combining into %s", result.Sources.OutputPath))
	combined, err := o.combineStage.Execute(ctx, pipeline.CombineInput{
		PathA:      result.Sources.A.VideoPath,
		PathB:      result.Sources.B.VideoPath,
		OutputPath: result.Sources.OutputPath,
		Alignment:  alignment,
	})
	result.Combine = combined
	if err != nil {
		o.logger.Error(l10n.F("Failed to combine videos: %s", err))
		return result, fmt.Errorf("combine stage: %w", err)
	}
	o.logger.Info(l10n.F("Wrote %d frames", combined.FramesWritten))
	if combined.Interrupted {
		// The start time of an incomplete video is not published.
		o.logger.Warn(l10n.F("Interrupted after %d frames, output is incomplete", combined.FramesWritten))
		result.Elapsed = time.Since(started)
		return result, nil
	}

	// 5. Export start time
	if combined.FramesWritten == 0 {
		o.logger.Warn(l10n.T("No frames written, skipping start time export"))
	} else {
		rec := ports.StartRecord{
			Pair:            strconv.Itoa(config.Pair),
			Session:         config.Session,
			Dir:             filepath.Dir(result.Sources.OutputPath),
			Video:           result.Sources.OutputPath,
			AbsoluteStart:   alignment.AbsoluteStart,
			SharedStartTime: alignment.SharedStartTime,
			RelativeStart:   alignment.RelativeStart,
		}
		for _, exp := range o.exporters {
			loc, err := exp.Export(ctx, rec)
			if err != nil {
				o.logger.Error(l10n.F("Failed to export start time (%s): %s", exp.Name(), err))
				return result, fmt.Errorf("export stage: %s: %w", exp.Name(), err)
			}
			o.logger.Info(l10n.F("Start time saved to %s", loc))
			result.Exports = append(result.Exports, ExportResult{Name: exp.Name(), Location: loc})
		}
	}

	result.Elapsed = time.Since(started)
	o.logger.Info(l10n.T("Pipeline completed successfully"))
	return result, nil
}

// observe turns combiner events into log lines.
func (o *Orchestrator) observe(ev pipeline.CombineEvent) {
	switch ev.Kind {
	case pipeline.EventValidated:
		a, b := ev.PropertiesA, ev.PropertiesB
		o.logger.Info(l10n.F("Videos: %.3f fps, %dx%d, %.0f and %.0f frames", a.FPS, a.Width, a.Height, a.FrameCount, b.FrameCount))
	case pipeline.EventProgress:
		o.logger.Info(l10n.F("Frame %d written", ev.FramesWritten))
	}
}

func (o *Orchestrator) saveAlignment(alignment pipeline.AlignmentResult) {
	if o.sink == nil || !o.sink.Enabled() {
		return
	}

	table := alignment.ResampleTable
	alignment.ResampleTable = nil
	if data, err := json.MarshalIndent(alignment, "", "  "); err == nil {
		if err := o.sink.SaveAlignmentJSON(data); err != nil {
			o.logger.Warn(l10n.F("Failed to save debug output: %s", err))
		}
	}

	if len(table) == 0 {
		return
	}
	if err := o.sink.SaveResampleTable(TableCSV(table)); err != nil {
		o.logger.Warn(l10n.F("Failed to save debug output: %s", err))
	}
}

// TableCSV renders a resample table with one row per timeline tick.
func TableCSV(table []pipeline.IndexPair) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"tick", "a", "b"})
	for i, p := range table {
		_ = w.Write([]string{strconv.Itoa(i), strconv.Itoa(p.A), strconv.Itoa(p.B)})
	}
	w.Flush()
	return buf.Bytes()
}

// ExportResult is one exported start-time file.
type ExportResult struct {
	Name     string
	Location string
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	Pair    int
	Session string

	Sources   pipeline.DiscoverResult
	Series    pipeline.ExtractResult
	Alignment pipeline.AlignmentResult
	Combine   pipeline.CombineResult
	Exports   []ExportResult

	Elapsed time.Duration
}
