package orchestrator

import (
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
	"github.com/user/framesync/pkg/summarizer"
)

// Summary converts the run result into a summarizer.Summary.
func (r RunResult) Summary(preset string, canvas pipeline.Dimension) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithSession(r.Pair, r.Session, preset).
		WithSources(
			sourceInfo(r.Sources.A, r.Series.A, r.Combine.PropertiesA, r.Combine.FramesSkippedA),
			sourceInfo(r.Sources.B, r.Series.B, r.Combine.PropertiesB, r.Combine.FramesSkippedB),
		).
		WithAlignment(summarizer.AlignmentInfo{
			Mode:            string(r.Alignment.Mode),
			Strategy:        string(r.Alignment.Strategy),
			StartIndexA:     r.Alignment.StartIndexA,
			StartIndexB:     r.Alignment.StartIndexB,
			ReferenceDiff:   r.Alignment.ReferenceDiff,
			AbsoluteStart:   r.Alignment.AbsoluteStart,
			SharedStartTime: r.Alignment.SharedStartTime,
			RelativeStart:   r.Alignment.RelativeStart,
			TableLength:     len(r.Alignment.ResampleTable),
		}).
		WithVideo(summarizer.VideoInfo{
			Path:          r.Sources.OutputPath,
			FramesWritten: r.Combine.FramesWritten,
			CanvasWidth:   canvas.Width,
			CanvasHeight:  canvas.Height,
			FPS:           r.Combine.PropertiesA.FPS,
			Interrupted:   r.Combine.Interrupted,
		})
	for _, e := range r.Exports {
		b.AddExport(e.Name, e.Location)
	}
	return b.Build()
}

func sourceInfo(files pipeline.SourceFiles, series pipeline.TimestampSeries, props ports.SourceProperties, skipped int) summarizer.SourceInfo {
	return summarizer.SourceInfo{
		Label:        files.Label,
		VideoPath:    files.VideoPath,
		MetadataPath: files.MetadataPath,
		FPS:          props.FPS,
		Width:        props.Width,
		Height:       props.Height,
		FrameCount:   props.FrameCount,
		CaptureTimes: len(series.CaptureTimes),
		Skipped:      skipped,
	}
}
