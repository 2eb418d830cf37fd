package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMetadataNotFound is returned when no metadata file exists for a source.
	ErrMetadataNotFound = errors.New("metadata not found")

	// ErrMetadataFieldMissing is returned when a required metadata field is absent.
	ErrMetadataFieldMissing = errors.New("metadata field missing")

	// ErrMetadataFieldInvalid is returned when a metadata field has the wrong shape.
	ErrMetadataFieldInvalid = errors.New("metadata field invalid")

	// ErrSourceNotFound is returned when no video file exists for a source.
	ErrSourceNotFound = errors.New("source video not found")

	// ErrPropertyMismatch is returned when fps or resolution differ between sources.
	ErrPropertyMismatch = errors.New("video properties do not match")

	// ErrUnsupportedResolution is returned when a frame size differs from the
	// configured resolution contract.
	ErrUnsupportedResolution = errors.New("unsupported resolution")

	// ErrInvalidTimestamps is returned when the capture times cannot be aligned.
	ErrInvalidTimestamps = errors.New("invalid timestamps")
)

// SourceError attaches the failing source and check to an error kind.
type SourceError struct {
	Source string // Source label or "A"/"B"
	Check  string // What was being checked, e.g. "field frameCaptTime"
	Err    error
}

func (e *SourceError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Check, e.Err)
	}
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Check, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError builds a SourceError wrapping err.
func NewSourceError(source, check string, err error) *SourceError {
	return &SourceError{Source: source, Check: check, Err: err}
}

// FailedSource returns the source label carried by err, if any.
func FailedSource(err error) (string, bool) {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Source, se.Source != ""
	}
	return "", false
}
