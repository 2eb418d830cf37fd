// Package yamlmeta loads timestamp metadata from YAML or JSON sidecar files.
//
// A sidecar maps variable names to a number or a list of numbers:
//
//	sharedStartTime: 1700000000.0
//	stopCaptureTime: 1700000600.0
//	frameCaptTime: [1700000000.03, 1700000000.07, .nan]
//
// JSON documents are accepted as well. null list entries load as NaN.
package yamlmeta

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/user/framesync/pkg/ports"
)

// ErrNotNumeric is returned when a variable holds something other than numbers.
var ErrNotNumeric = errors.New("yamlmeta: variable is not numeric")

// Loader reads sidecar files through a ports.FileSystem.
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
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Parse decodes a sidecar document.
func Parse(data []byte) (ports.MapRecord, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yamlmeta: %w", err)
	}

	rec := make(ports.MapRecord, len(doc))
	for name, node := range doc {
		values, err := numbers(&node)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (line %d)", err, name, node.Line)
		}
		rec[name] = values
	}
	return rec, nil
}

func numbers(node *yaml.Node) ([]float64, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := number(node)
		if err != nil {
			return nil, err
		}
		return []float64{v}, nil
	case yaml.SequenceNode:
		out := make([]float64, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, ErrNotNumeric
			}
			v, err := number(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, ErrNotNumeric
	}
}

func number(node *yaml.Node) (float64, error) {
	if node.Tag == "!!null" {
		return math.NaN(), nil
	}
	var v float64
	if err := node.Decode(&v); err != nil {
		return 0, ErrNotNumeric
	}
	return v, nil
}

var _ ports.MetadataLoader = (*Loader)(nil)
