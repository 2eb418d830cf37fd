package matfile

import (
	"context"
	"path/filepath"

	"github.com/user/framesync/pkg/ports"
)

// exportKeys is the variable order written to start-time files.
var exportKeys = []string{"absolute_start", "shared_start", "rel_start"}

// Exporter writes <Dir>/<BaseName>_start.mat.
type Exporter struct {
	fs  ports.FileSystem
	enc Encoder
}

// NewExporter creates an Exporter.
func NewExporter(fs ports.FileSystem) *Exporter {
	return &Exporter{fs: fs}
}

// Name implements ports.ResultExporter.
func (e *Exporter) Name() string { return "mat" }

// Export implements ports.ResultExporter.
func (e *Exporter) Export(ctx context.Context, rec ports.StartRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := e.enc.Scalars(exportKeys, map[string]float64{
		"absolute_start": rec.AbsoluteStart,
		"shared_start":   rec.SharedStartTime,
		"rel_start":      rec.RelativeStart,
	})
	if err != nil {
		return "", err
	}

	path := filepath.Join(rec.Dir, rec.BaseName()+"_start.mat")
	if err := e.fs.WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

var _ ports.ResultExporter = (*Exporter)(nil)
