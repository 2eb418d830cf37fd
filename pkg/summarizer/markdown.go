package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Combination Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Session\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Pair | %d |\n", s.Session.Pair)
	fmt.Fprintf(&b, "| Session | %s |\n", orDash(s.Session.Session))
	fmt.Fprintf(&b, "| Preset | %s |\n", orDash(s.Session.Preset))
	b.WriteString("\n")

	b.WriteString("## Sources\n\n")
	b.WriteString("| | Label | Video | Timestamps | FPS | Size | Frames | Capture times | Skipped |\n")
	b.WriteString("|---|-------|-------|------------|-----|------|--------|---------------|---------|\n")
	for i, src := range s.Sources {
		fmt.Fprintf(&b, "| %c | %s | %s | %s | %.3f | %dx%d | %.0f | %d | %d |\n",
			'A'+i, orDash(src.Label), orDash(src.VideoPath), orDash(src.MetadataPath),
			src.FPS, src.Width, src.Height, src.FrameCount, src.CaptureTimes, src.Skipped)
	}
	b.WriteString("\n")

	a := s.Alignment
	b.WriteString("## Alignment\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Mode | %s |\n", orDash(a.Mode))
	fmt.Fprintf(&b, "| Drift strategy | %s |\n", orDash(a.Strategy))
	fmt.Fprintf(&b, "| Start frames | A=%d, B=%d |\n", a.StartIndexA, a.StartIndexB)
	fmt.Fprintf(&b, "| Reference difference | %.4f s |\n", a.ReferenceDiff)
	if a.TableLength > 0 {
		fmt.Fprintf(&b, "| Resample table | %d entries |\n", a.TableLength)
	}
	fmt.Fprintf(&b, "| Absolute start | %.6f |\n", a.AbsoluteStart)
	fmt.Fprintf(&b, "| Shared start | %.6f |\n", a.SharedStartTime)
	fmt.Fprintf(&b, "| Relative start | %.6f s |\n", a.RelativeStart)
	b.WriteString("\n")

	v := s.Video
	b.WriteString("## Output\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| File | %s |\n", orDash(v.Path))
	fmt.Fprintf(&b, "| Frames written | %d |\n", v.FramesWritten)
	fmt.Fprintf(&b, "| Duration | %.2f s |\n", v.DurationSec())
	fmt.Fprintf(&b, "| Canvas | %dx%d |\n", v.CanvasWidth, v.CanvasHeight)
	if v.Interrupted {
		b.WriteString("| Status | **interrupted** |\n")
	} else {
		b.WriteString("| Status | complete |\n")
	}

	if len(s.Exports) > 0 {
		b.WriteString("\n## Start Time Exports\n\n")
		for _, e := range s.Exports {
			fmt.Fprintf(&b, "- %s: `%s`\n", e.Name, e.Location)
		}
	}

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
