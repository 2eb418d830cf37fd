// Package filesink writes debug artefacts (alignment JSON, resample table,
// composed frame PNGs) below a directory.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/user/framesync/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
	png     png.Encoder
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
		png:     png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveAlignmentJSON saves the alignment result as JSON.
func (s *Sink) SaveAlignmentJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "alignment.json")
	return s.fs.WriteFile(path, data)
}

// SaveResampleTable saves the resample table as CSV.
func (s *Sink) SaveResampleTable(data []byte) error {
	path := filepath.Join(s.baseDir, "resample_table.csv")
	return s.fs.WriteFile(path, data)
}

// SaveComposedFrame saves a composed frame as PNG.
func (s *Sink) SaveComposedFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", "composed")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode composed frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%06d.png", index))
	return s.fs.WriteFile(path, buf.Bytes())
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
