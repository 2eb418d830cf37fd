// Package smartloader selects a metadata loader from the file extension.
package smartloader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/framesync/pkg/adapters/matfile"
	"github.com/user/framesync/pkg/adapters/yamlmeta"
	"github.com/user/framesync/pkg/ports"
)

// Format is a metadata file format.
type Format string

const (
	// FormatMAT is a MATLAB level 5 MAT-file.
	FormatMAT Format = "mat"
	// FormatYAML is a YAML or JSON sidecar.
	FormatYAML Format = "yaml"
	// FormatUnknown is returned for unrecognised extensions.
	FormatUnknown Format = "unknown"
)

// ErrUnsupportedFormat is returned when no loader handles a file.
var ErrUnsupportedFormat = errors.New("smartloader: unsupported metadata format")

// Detect returns the format implied by the extension of path.
func Detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mat":
		return FormatMAT
	case ".yaml", ".yml", ".json":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// Loader dispatches to a per-format ports.MetadataLoader.
type Loader struct {
	loaders map[Format]ports.MetadataLoader
}

// New creates a Loader with the MAT-file and sidecar backends.
func New(fs ports.FileSystem) *Loader {
	return &Loader{loaders: map[Format]ports.MetadataLoader{
		FormatMAT:  matfile.NewLoader(fs),
		FormatYAML: yamlmeta.NewLoader(fs),
	}}
}

// Register replaces the backend for a format.
func (l *Loader) Register(f Format, loader ports.MetadataLoader) {
	l.loaders[f] = loader
}

// Load implements ports.MetadataLoader.
func (l *Loader) Load(path string) (ports.MetadataRecord, error) {
	format := Detect(path)
	inner, ok := l.loaders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
	return inner.Load(path)
}

var _ ports.MetadataLoader = (*Loader)(nil)
