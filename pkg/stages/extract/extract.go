// Package extract implements the timestamp extraction stage.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"

	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
)

// Stage loads the capture timestamps of both sources.
type Stage struct {
	loader ports.MetadataLoader
	logger ports.Logger
}

// NewStage creates a new extract stage.
func NewStage(loader ports.MetadataLoader, logger ports.Logger) *Stage {
	return &Stage{
		loader: loader,
		logger: logger.WithComponent("extract"),
	}
}

// Execute loads both timestamp series.
func (s *Stage) Execute(ctx context.Context, input pipeline.ExtractInput) (pipeline.ExtractResult, error) {
	fields := input.Fields
	if fields == (pipeline.FieldNames{}) {
		fields = pipeline.DefaultFieldNames()
	}

	a, err := s.load(input.A, "A", fields)
	if err != nil {
		return pipeline.ExtractResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return pipeline.ExtractResult{}, err
	}
	b, err := s.load(input.B, "B", fields)
	if err != nil {
		return pipeline.ExtractResult{}, err
	}

	return pipeline.ExtractResult{A: a, B: b}, nil
}

func (s *Stage) load(src pipeline.SourceFiles, fallback string, fields pipeline.FieldNames) (pipeline.TimestampSeries, error) {
	label := src.Label
	if label == "" {
		label = fallback
	}

	if src.MetadataPath == "" {
		return pipeline.TimestampSeries{}, pipeline.NewSourceError(label, "metadata path", pipeline.ErrMetadataNotFound)
	}

	s.logger.Debug("Loading timestamps from %s", src.MetadataPath)
	rec, err := s.loader.Load(src.MetadataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pipeline.TimestampSeries{}, pipeline.NewSourceError(label, src.MetadataPath, pipeline.ErrMetadataNotFound)
		}
		return pipeline.TimestampSeries{}, pipeline.NewSourceError(label, src.MetadataPath, err)
	}

	series, dropped, err := FromRecord(rec, fields)
	if err != nil {
		var se *pipeline.SourceError
		if errors.As(err, &se) {
			se.Source = label
		}
		return pipeline.TimestampSeries{}, err
	}
	series.Label = label
	series.Path = src.MetadataPath

	if dropped > 0 {
		s.logger.Warn("Source %s: dropped %d NaN capture times", label, dropped)
	}
	s.logger.Debug("Source %s: %d capture times, %.3f s recorded", label, len(series.CaptureTimes), series.Duration())

	return series, nil
}

// FromRecord builds a TimestampSeries from a metadata record and reports how
// many NaN capture times were dropped.
func FromRecord(rec ports.MetadataRecord, fields pipeline.FieldNames) (pipeline.TimestampSeries, int, error) {
	shared, err := scalar(rec, fields.SharedStart)
	if err != nil {
		return pipeline.TimestampSeries{}, 0, err
	}
	stop, err := scalar(rec, fields.Stop)
	if err != nil {
		return pipeline.TimestampSeries{}, 0, err
	}

	raw, ok := rec.Field(fields.CaptureTimes)
	if !ok {
		return pipeline.TimestampSeries{}, 0, pipeline.NewSourceError("", "field "+fields.CaptureTimes, pipeline.ErrMetadataFieldMissing)
	}

	times := make([]float64, 0, len(raw))
	for _, t := range raw {
		if math.IsNaN(t) {
			continue
		}
		times = append(times, t)
	}

	return pipeline.TimestampSeries{
		SharedStart:  shared,
		Stop:         stop,
		CaptureTimes: times,
	}, len(raw) - len(times), nil
}

func scalar(rec ports.MetadataRecord, name string) (float64, error) {
	v, ok := rec.Field(name)
	if !ok {
		return 0, pipeline.NewSourceError("", "field "+name, pipeline.ErrMetadataFieldMissing)
	}
	if len(v) != 1 {
		return 0, pipeline.NewSourceError("",
			fmt.Sprintf("field %s has %d values, expected 1", name, len(v)),
			pipeline.ErrMetadataFieldInvalid)
	}
	return v[0], nil
}
