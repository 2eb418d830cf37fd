// Package nullsink provides the debug sink used when --debug is off.
package nullsink

import (
	"image"

	"github.com/user/framesync/pkg/ports"
)

// Sink reports itself disabled and drops everything it is given. The
// combiner checks Enabled before converting frames for snapshots, so a run
// without debugging pays nothing for them.
type Sink struct{}

func New() *Sink {
	return &Sink{}
}

func (*Sink) Enabled() bool                            { return false }
func (*Sink) SaveAlignmentJSON([]byte) error           { return nil }
func (*Sink) SaveResampleTable([]byte) error           { return nil }
func (*Sink) SaveComposedFrame(int, image.Image) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
