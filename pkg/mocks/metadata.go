package mocks

import (
	"fmt"
	"io/fs"
	"sync"

	"github.com/user/framesync/pkg/ports"
)

// MetadataLoader is a mock implementation of ports.MetadataLoader.
// Records are served by path; unknown paths report fs.ErrNotExist.
type MetadataLoader struct {
	mu sync.Mutex

	Records  map[string]ports.MetadataRecord
	LoadFunc func(path string) (ports.MetadataRecord, error)

	// Recorded calls for verification
	Loaded []string
}

func (m *MetadataLoader) Load(path string) (ports.MetadataRecord, error) {
	m.mu.Lock()
	m.Loaded = append(m.Loaded, path)
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	if rec, ok := m.Records[path]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("load %s: %w", path, fs.ErrNotExist)
}

var _ ports.MetadataLoader = (*MetadataLoader)(nil)
