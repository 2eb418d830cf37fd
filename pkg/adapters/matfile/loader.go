package matfile

import (
	"fmt"

	"github.com/user/framesync/pkg/ports"
)

// Loader reads MAT-files through a ports.FileSystem.
type Loader struct {
	fs ports.FileSystem
}

// NewLoader creates a Loader.
func NewLoader(fs ports.FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load implements ports.MetadataLoader.
func (l *Loader) Load(path string) (ports.MetadataRecord, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

var _ ports.MetadataLoader = (*Loader)(nil)
