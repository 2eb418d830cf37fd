package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate processing results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveAlignmentJSON saves the alignment result as JSON.
	SaveAlignmentJSON(data []byte) error

	// SaveResampleTable saves the resample table as CSV.
	SaveResampleTable(data []byte) error

	// SaveComposedFrame saves a composed frame.
	SaveComposedFrame(index int, img image.Image) error
}
