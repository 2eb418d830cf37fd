package summarizer

import (
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithSession(t *testing.T) {
	summary := NewBuilder().
		WithSession(3, "freeConv", "freeConv").
		Build()

	if summary.Session.Pair != 3 {
		t.Errorf("expected pair 3, got %d", summary.Session.Pair)
	}
	if summary.Session.Session != "freeConv" {
		t.Errorf("expected session 'freeConv', got '%s'", summary.Session.Session)
	}
}

func TestBuilder_WithSources(t *testing.T) {
	summary := NewBuilder().
		WithSources(SourceInfo{Label: "Mordor", Skipped: 10}, SourceInfo{Label: "Gondor", Skipped: 12}).
		Build()

	if summary.Sources[0].Label != "Mordor" || summary.Sources[1].Label != "Gondor" {
		t.Errorf("unexpected labels: %+v", summary.Sources)
	}
	if summary.Sources[1].Skipped != 12 {
		t.Errorf("expected 12 skipped, got %d", summary.Sources[1].Skipped)
	}
}

func TestBuilder_AddExport(t *testing.T) {
	summary := NewBuilder().
		AddExport("mat", "/d/a_start.mat").
		AddExport("json", "/d/a_start.json").
		Build()

	if len(summary.Exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(summary.Exports))
	}
	if summary.Exports[1].Name != "json" {
		t.Errorf("expected second export 'json', got '%s'", summary.Exports[1].Name)
	}
}

func TestVideoInfo_DurationSec(t *testing.T) {
	if got := (VideoInfo{FramesWritten: 90, FPS: 30}).DurationSec(); got != 3 {
		t.Errorf("expected 3 s, got %v", got)
	}
	if got := (VideoInfo{FramesWritten: 90}).DurationSec(); got != 0 {
		t.Errorf("expected 0 without fps, got %v", got)
	}
}

func TestFormatFunc(t *testing.T) {
	f := FormatFunc(func(s *Summary) string { return s.Session.Session })
	if got := f.Format(&Summary{Session: SessionInfo{Session: "BG1"}}); got != "BG1" {
		t.Errorf("expected 'BG1', got %q", got)
	}
}
