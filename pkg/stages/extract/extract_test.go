package extract

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/user/framesync/pkg/adapters/logger"
	"github.com/user/framesync/pkg/mocks"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
)

func validRecord(first float64) ports.MapRecord {
	return ports.MapRecord{
		"sharedStartTime": {1000},
		"stopCaptureTime": {1060},
		"frameCaptTime":   {first, first + 0.1, math.NaN(), first + 0.3},
	}
}

func TestStage_Execute(t *testing.T) {
	loader := &mocks.MetadataLoader{
		Records: map[string]ports.MetadataRecord{
			"a.mat": validRecord(1000.5),
			"b.mat": validRecord(1000.6),
		},
	}
	stage := NewStage(loader, logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.ExtractInput{
		A: pipeline.SourceFiles{Label: "Mordor", MetadataPath: "a.mat"},
		B: pipeline.SourceFiles{Label: "Gondor", MetadataPath: "b.mat"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.A.Label != "Mordor" || result.B.Label != "Gondor" {
		t.Errorf("labels: got %q, %q", result.A.Label, result.B.Label)
	}
	if len(result.A.CaptureTimes) != 3 {
		t.Errorf("expected NaN to be dropped, got %v", result.A.CaptureTimes)
	}
	if result.A.SharedStart != 1000 || result.A.Stop != 1060 {
		t.Errorf("scalars: got shared %v stop %v", result.A.SharedStart, result.A.Stop)
	}
	if result.B.CaptureTimes[0] != 1000.6 {
		t.Errorf("B first capture: expected 1000.6, got %v", result.B.CaptureTimes[0])
	}
	if result.A.Path != "a.mat" {
		t.Errorf("path: expected a.mat, got %q", result.A.Path)
	}
	if len(loader.Loaded) != 2 {
		t.Errorf("expected 2 loads, got %v", loader.Loaded)
	}
}

func TestStage_ExecuteDoesNotMutateRecord(t *testing.T) {
	rec := validRecord(1)
	loader := &mocks.MetadataLoader{Records: map[string]ports.MetadataRecord{"a": rec, "b": rec}}
	stage := NewStage(loader, logger.NewNoop())

	if _, err := stage.Execute(context.Background(), pipeline.ExtractInput{
		A: pipeline.SourceFiles{MetadataPath: "a"},
		B: pipeline.SourceFiles{MetadataPath: "b"},
	}); err != nil {
		t.Fatal(err)
	}
	if len(rec["frameCaptTime"]) != 4 || !math.IsNaN(rec["frameCaptTime"][2]) {
		t.Errorf("record was modified: %v", rec["frameCaptTime"])
	}
}

func TestStage_ExecuteErrors(t *testing.T) {
	missingField := validRecord(1)
	delete(missingField, "stopCaptureTime")

	badScalar := validRecord(1)
	badScalar["sharedStartTime"] = []float64{1, 2}

	noTimes := validRecord(1)
	delete(noTimes, "frameCaptTime")

	tests := []struct {
		name       string
		pathB      string
		recordB    ports.MetadataRecord
		wantErr    error
		wantSource string
	}{
		{name: "empty path", pathB: "", wantErr: pipeline.ErrMetadataNotFound, wantSource: "Gondor"},
		{name: "file does not exist", pathB: "missing.mat", wantErr: pipeline.ErrMetadataNotFound, wantSource: "Gondor"},
		{name: "missing scalar", pathB: "b", recordB: missingField, wantErr: pipeline.ErrMetadataFieldMissing, wantSource: "Gondor"},
		{name: "missing capture times", pathB: "b", recordB: noTimes, wantErr: pipeline.ErrMetadataFieldMissing, wantSource: "Gondor"},
		{name: "scalar with two values", pathB: "b", recordB: badScalar, wantErr: pipeline.ErrMetadataFieldInvalid, wantSource: "Gondor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := map[string]ports.MetadataRecord{"a": validRecord(1)}
			if tt.recordB != nil {
				records["b"] = tt.recordB
			}
			stage := NewStage(&mocks.MetadataLoader{Records: records}, logger.NewNoop())

			_, err := stage.Execute(context.Background(), pipeline.ExtractInput{
				A: pipeline.SourceFiles{Label: "Mordor", MetadataPath: "a"},
				B: pipeline.SourceFiles{Label: "Gondor", MetadataPath: tt.pathB},
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if src, _ := pipeline.FailedSource(err); src != tt.wantSource {
				t.Errorf("failed source: expected %q, got %q", tt.wantSource, src)
			}
		})
	}
}

func TestStage_ExecuteLoaderFailure(t *testing.T) {
	boom := errors.New("corrupt header")
	loader := &mocks.MetadataLoader{
		LoadFunc: func(path string) (ports.MetadataRecord, error) { return nil, boom },
	}
	stage := NewStage(loader, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.ExtractInput{
		A: pipeline.SourceFiles{Label: "Mordor", MetadataPath: "a"},
		B: pipeline.SourceFiles{Label: "Gondor", MetadataPath: "b"},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if errors.Is(err, pipeline.ErrMetadataNotFound) {
		t.Error("loader failure must not be reported as not found")
	}
}

func TestFromRecord_CustomFieldNames(t *testing.T) {
	rec := ports.MapRecord{
		"t0":    {5},
		"t1":    {9},
		"times": {5.5, 6, 6.5},
	}
	series, dropped, err := FromRecord(rec, pipeline.FieldNames{SharedStart: "t0", Stop: "t1", CaptureTimes: "times"})
	if err != nil {
		t.Fatalf("FromRecord failed: %v", err)
	}
	if dropped != 0 {
		t.Errorf("dropped: expected 0, got %d", dropped)
	}
	if series.Duration() != 4 {
		t.Errorf("duration: expected 4, got %v", series.Duration())
	}
}
