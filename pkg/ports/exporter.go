package ports

import "context"

// StartRecord is the real-world start time of a composite video.
type StartRecord struct {
	Pair    string // Pair number, e.g. "03"
	Session string // Session name, e.g. "freeConv"
	Dir     string // Directory the composite video was written to
	Video   string // Path of the composite video

	AbsoluteStart   float64 `json:"absolute_start"`
	SharedStartTime float64 `json:"shared_start"`
	RelativeStart   float64 `json:"rel_start"`
}

// BaseName returns the file stem shared by the composite video and its
// start-time records.
func (r StartRecord) BaseName() string {
	return "pair" + r.Pair + "_" + r.Session + "_combined_video"
}

// ResultExporter persists a StartRecord.
type ResultExporter interface {
	// Name identifies the exporter in logs.
	Name() string

	// Export writes the record. Implementations decide the location from
	// the record's Dir and BaseName.
	Export(ctx context.Context, rec StartRecord) (location string, err error)
}
