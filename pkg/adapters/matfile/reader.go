package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// Variable is one numeric array stored in a MAT-file.
type Variable struct {
	Name string
	Dims []int
	// Data holds the real part in column-major order.
	Data []float64
}

// File is the decoded content of a MAT-file.
type File struct {
	Header    string
	Variables map[string]Variable
}

// Field implements ports.MetadataRecord.
func (f *File) Field(name string) ([]float64, bool) {
	v, ok := f.Variables[name]
	if !ok {
		return nil, false
	}
	return v.Data, true
}

// Names implements ports.MetadataRecord.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Variables))
	for k := range f.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Decode parses a complete MAT-file.
func Decode(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotMATv5, len(data))
	}

	var order binary.ByteOrder
	switch string(data[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad endian indicator %q", ErrNotMATv5, data[126:128])
	}

	f := &File{
		Header:    string(bytes.TrimRight(data[:textSize], " \x00")),
		Variables: make(map[string]Variable),
	}

	d := &decoder{order: order}
	body := data[headerSize:]
	for len(body) > 0 {
		if len(body) < 8 {
			// Trailing padding.
			break
		}
		typ, payload, rest, err := d.element(body)
		if err != nil {
			return nil, err
		}
		body = rest

		if typ == miCOMPRESSED {
			inner, err := inflate(payload)
			if err != nil {
				return nil, err
			}
			typ, payload, _, err = d.element(inner)
			if err != nil {
				return nil, err
			}
		}
		if typ != miMATRIX {
			continue
		}

		v, ok, err := d.matrix(payload)
		if err != nil {
			return nil, err
		}
		if ok {
			f.Variables[v.Name] = v
		}
	}

	return f, nil
}

type decoder struct {
	order binary.ByteOrder
}

// element splits one data element off buf. Compressed elements are not
// padded; everything else is aligned to 8 bytes.
func (d *decoder) element(buf []byte) (typ uint32, payload, rest []byte, err error) {
	if len(buf) < 8 {
		return 0, nil, nil, fmt.Errorf("%w: tag truncated", ErrCorrupt)
	}
	first := d.order.Uint32(buf[0:4])

	// Small data element: size and type share the first word.
	if first>>16 != 0 {
		n := int(first >> 16)
		if n > 4 {
			return 0, nil, nil, fmt.Errorf("%w: small element of %d bytes", ErrCorrupt, n)
		}
		return first & 0xffff, buf[4 : 4+n], buf[8:], nil
	}

	typ = first
	n := int(d.order.Uint32(buf[4:8]))
	if n < 0 || 8+n > len(buf) {
		return 0, nil, nil, fmt.Errorf("%w: element of %d bytes exceeds %d available", ErrCorrupt, n, len(buf)-8)
	}
	payload = buf[8 : 8+n]
	end := 8 + n
	if typ != miCOMPRESSED {
		end += pad8(n)
		if end > len(buf) {
			end = len(buf)
		}
	}
	return typ, payload, buf[end:], nil
}

// matrix decodes a miMATRIX payload. ok is false for classes that are not
// numeric arrays.
func (d *decoder) matrix(buf []byte) (Variable, bool, error) {
	// Empty arrays may be written as a zero-length matrix.
	if len(buf) == 0 {
		return Variable{}, false, nil
	}

	typ, flags, rest, err := d.element(buf)
	if err != nil || typ != miUINT32 || len(flags) < 8 {
		return Variable{}, false, fmt.Errorf("%w: array flags", ErrCorrupt)
	}
	class := d.order.Uint32(flags[0:4]) & 0xff

	typ, dimsRaw, rest, err := d.element(rest)
	if err != nil || typ != miINT32 {
		return Variable{}, false, fmt.Errorf("%w: dimensions", ErrCorrupt)
	}
	dims := make([]int, len(dimsRaw)/4)
	for i := range dims {
		dims[i] = int(int32(d.order.Uint32(dimsRaw[i*4:])))
	}

	typ, name, rest, err := d.element(rest)
	if err != nil || (typ != miINT8 && typ != miUTF8) {
		return Variable{}, false, fmt.Errorf("%w: array name", ErrCorrupt)
	}

	v := Variable{Name: string(name), Dims: dims}
	if class < mxDOUBLE || class > mxUINT64 {
		return v, false, nil
	}

	typ, re, _, err := d.element(rest)
	if err != nil {
		return Variable{}, false, fmt.Errorf("%w: real part of %s", ErrCorrupt, v.Name)
	}
	if v.Data, err = d.numbers(typ, re); err != nil {
		return Variable{}, false, fmt.Errorf("variable %s: %w", v.Name, err)
	}
	return v, true, nil
}

// numbers converts a numeric payload to float64.
func (d *decoder) numbers(typ uint32, buf []byte) ([]float64, error) {
	size := elementSize(typ)
	if size == 0 {
		return nil, fmt.Errorf("%w: unsupported data type %d", ErrCorrupt, typ)
	}
	out := make([]float64, len(buf)/size)
	for i := range out {
		b := buf[i*size:]
		switch typ {
		case miINT8:
			out[i] = float64(int8(b[0]))
		case miUINT8, miUTF8:
			out[i] = float64(b[0])
		case miINT16:
			out[i] = float64(int16(d.order.Uint16(b)))
		case miUINT16:
			out[i] = float64(d.order.Uint16(b))
		case miINT32:
			out[i] = float64(int32(d.order.Uint32(b)))
		case miUINT32:
			out[i] = float64(d.order.Uint32(b))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(d.order.Uint32(b)))
		case miDOUBLE:
			out[i] = math.Float64frombits(d.order.Uint64(b))
		case miINT64:
			out[i] = float64(int64(d.order.Uint64(b)))
		case miUINT64:
			out[i] = float64(d.order.Uint64(b))
		}
	}
	return out, nil
}

func inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
