package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Encoder writes little-endian level 5 MAT-files holding double arrays.
type Encoder struct {
	// Compress wraps every variable in a zlib-compressed element.
	Compress bool
	// Now is used for the descriptive header text. Defaults to time.Now.
	Now func() time.Time
}

// Encode returns a MAT-file containing vars in the given order. Every
// variable is stored as a 1-by-N double row vector unless Dims is set.
func (e Encoder) Encode(vars ...Variable) ([]byte, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	var buf bytes.Buffer
	buf.Write(header(now()))

	for _, v := range vars {
		if v.Name == "" {
			return nil, fmt.Errorf("matfile: variable without a name")
		}
		dims := v.Dims
		if len(dims) == 0 {
			dims = []int{1, len(v.Data)}
		}
		if n := product(dims); n != len(v.Data) {
			return nil, fmt.Errorf("matfile: variable %s: dims hold %d values, data has %d", v.Name, n, len(v.Data))
		}

		matrix := encodeMatrix(v.Name, dims, v.Data)
		if !e.Compress {
			buf.Write(matrix)
			continue
		}

		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		if _, err := zw.Write(matrix); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		writeTag(&buf, miCOMPRESSED, z.Len())
		buf.Write(z.Bytes())
	}

	return buf.Bytes(), nil
}

// Scalars encodes one 1-by-1 double per name, in the order given by names.
func (e Encoder) Scalars(names []string, values map[string]float64) ([]byte, error) {
	vars := make([]Variable, 0, len(names))
	for _, name := range names {
		val, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("matfile: no value for %s", name)
		}
		vars = append(vars, Variable{Name: name, Dims: []int{1, 1}, Data: []float64{val}})
	}
	return e.Encode(vars...)
}

func header(now time.Time) []byte {
	h := make([]byte, headerSize)
	text := fmt.Sprintf("MATLAB 5.0 MAT-file, Platform: GLNXA64, Created on: %s",
		now.Format("Mon Jan _2 15:04:05 2006"))
	copy(h, text)
	for i := len(text); i < textSize; i++ {
		h[i] = ' '
	}
	// Subsystem data offset stays zero.
	binary.LittleEndian.PutUint16(h[124:], 0x0100)
	copy(h[126:], "IM")
	return h
}

// encodeMatrix returns a complete miMATRIX element.
func encodeMatrix(name string, dims []int, data []float64) []byte {
	var body bytes.Buffer

	writeTag(&body, miUINT32, 8)
	var flags [8]byte
	binary.LittleEndian.PutUint32(flags[0:], mxDOUBLE)
	body.Write(flags[:])

	writeTag(&body, miINT32, 4*len(dims))
	for _, d := range dims {
		_ = binary.Write(&body, binary.LittleEndian, int32(d))
	}
	writePad(&body, 4*len(dims))

	writeTag(&body, miINT8, len(name))
	body.WriteString(name)
	writePad(&body, len(name))

	writeTag(&body, miDOUBLE, 8*len(data))
	var word [8]byte
	for _, f := range data {
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(f))
		body.Write(word[:])
	}

	var out bytes.Buffer
	writeTag(&out, miMATRIX, body.Len())
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeTag(buf *bytes.Buffer, typ uint32, n int) {
	var tag [8]byte
	binary.LittleEndian.PutUint32(tag[0:], typ)
	binary.LittleEndian.PutUint32(tag[4:], uint32(n))
	buf.Write(tag[:])
}

func writePad(buf *bytes.Buffer, n int) {
	buf.Write(make([]byte, pad8(n)))
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
