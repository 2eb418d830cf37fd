// Package jsonexport writes start-time records as JSON files.
package jsonexport

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/user/framesync/pkg/ports"
)

// Document is the JSON form of a ports.StartRecord.
type Document struct {
	Pair            string  `json:"pair,omitempty"`
	Session         string  `json:"session,omitempty"`
	Video           string  `json:"video,omitempty"`
	AbsoluteStart   float64 `json:"absolute_start"`
	SharedStartTime float64 `json:"shared_start"`
	RelativeStart   float64 `json:"rel_start"`
}

// Marshal returns the indented JSON document for rec.
func Marshal(rec ports.StartRecord) ([]byte, error) {
	doc := Document{
		Pair:            rec.Pair,
		Session:         rec.Session,
		AbsoluteStart:   rec.AbsoluteStart,
		SharedStartTime: rec.SharedStartTime,
		RelativeStart:   rec.RelativeStart,
	}
	if rec.Video != "" {
		doc.Video = filepath.Base(rec.Video)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Exporter writes <Dir>/<BaseName>_start.json.
type Exporter struct {
	fs ports.FileSystem
}

// New creates an Exporter.
func New(fs ports.FileSystem) *Exporter {
	return &Exporter{fs: fs}
}

// Name implements ports.ResultExporter.
func (e *Exporter) Name() string { return "json" }

// Export implements ports.ResultExporter.
func (e *Exporter) Export(ctx context.Context, rec ports.StartRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := Marshal(rec)
	if err != nil {
		return "", err
	}
	path := filepath.Join(rec.Dir, rec.BaseName()+"_start.json")
	if err := e.fs.WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

var _ ports.ResultExporter = (*Exporter)(nil)
