package mocks

import (
	"context"
	"sync"

	"github.com/user/framesync/pkg/ports"
)

// ResultExporter is a mock implementation of ports.ResultExporter.
type ResultExporter struct {
	mu sync.Mutex

	NameValue  string
	ExportFunc func(ctx context.Context, rec ports.StartRecord) (string, error)

	// Recorded calls for verification
	Records []ports.StartRecord
}

func (m *ResultExporter) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

func (m *ResultExporter) Export(ctx context.Context, rec ports.StartRecord) (string, error) {
	m.mu.Lock()
	m.Records = append(m.Records, rec)
	m.mu.Unlock()
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, rec)
	}
	return rec.BaseName(), nil
}

var _ ports.ResultExporter = (*ResultExporter)(nil)
