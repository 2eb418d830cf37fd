package yamlmeta

import (
	"errors"
	"io/fs"
	"math"
	"testing"

	"github.com/user/framesync/pkg/mocks"
)

func TestParse_YAML(t *testing.T) {
	rec, err := Parse([]byte(`
sharedStartTime: 1700000000.5
stopCaptureTime: 1700000600
frameCaptTime:
  - 1700000000.5
  - .nan
  - 1700000000.6
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if v, ok := rec.Field("sharedStartTime"); !ok || len(v) != 1 || v[0] != 1700000000.5 {
		t.Errorf("sharedStartTime = %v", v)
	}
	if v, _ := rec.Field("stopCaptureTime"); v[0] != 1700000600 {
		t.Errorf("stopCaptureTime = %v", v)
	}
	times, _ := rec.Field("frameCaptTime")
	if len(times) != 3 || !math.IsNaN(times[1]) || times[2] != 1700000000.6 {
		t.Errorf("frameCaptTime = %v", times)
	}
}

func TestParse_JSON(t *testing.T) {
	rec, err := Parse([]byte(`{"sharedStartTime": 10, "frameCaptTime": [10.1, null, 10.2]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	times, ok := rec.Field("frameCaptTime")
	if !ok || len(times) != 3 || !math.IsNaN(times[1]) {
		t.Errorf("frameCaptTime = %v", times)
	}
	if len(rec.Names()) != 2 {
		t.Errorf("Names() = %v", rec.Names())
	}
}

func TestParse_NotNumeric(t *testing.T) {
	tests := []string{
		`sharedStartTime: soon`,
		`frameCaptTime: [1, two]`,
		`frameCaptTime: {a: 1}`,
		`frameCaptTime: [[1, 2]]`,
	}
	for _, doc := range tests {
		if _, err := Parse([]byte(doc)); !errors.Is(err, ErrNotNumeric) {
			t.Errorf("%q: got %v, want ErrNotNumeric", doc, err)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("a: [1, 2")); err == nil {
		t.Error("expected error")
	}
}

func TestLoader(t *testing.T) {
	fsys := mocks.NewFileSystem()
	fsys.WriteFile("/in/a.yaml", []byte("stopCaptureTime: 3\n"))

	l := NewLoader(fsys)
	rec, err := l.Load("/in/a.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, ok := rec.Field("stopCaptureTime"); !ok || v[0] != 3 {
		t.Errorf("stopCaptureTime = %v", v)
	}

	if _, err := l.Load("/in/missing.yaml"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want fs.ErrNotExist", err)
	}
}
