// Package matfile reads and writes MATLAB level 5 MAT-files.
//
// Only what timestamp files need is supported: numeric arrays of any class
// (converted to float64), zlib-compressed elements and both byte orders.
// Cell arrays, structs, sparse and character arrays are skipped on read.
package matfile

import "errors"

// Data types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
)

// Array classes.
const (
	mxCELL   = 1
	mxSTRUCT = 2
	mxOBJECT = 3
	mxCHAR   = 4
	mxSPARSE = 5
	mxDOUBLE = 6
	mxSINGLE = 7
	mxINT8   = 8
	mxUINT64 = 15
)

const (
	headerSize  = 128
	textSize    = 116
	flagComplex = 0x0800
)

var (
	// ErrNotMATv5 is returned when the header is not a level 5 MAT-file header.
	ErrNotMATv5 = errors.New("matfile: not a level 5 MAT-file")

	// ErrCorrupt is returned when an element is truncated or malformed.
	ErrCorrupt = errors.New("matfile: corrupt data element")
)

// elementSize returns the byte size of one value of a numeric data type.
func elementSize(dataType uint32) int {
	switch dataType {
	case miINT8, miUINT8, miUTF8:
		return 1
	case miINT16, miUINT16:
		return 2
	case miINT32, miUINT32, miSINGLE:
		return 4
	case miDOUBLE, miINT64, miUINT64:
		return 8
	default:
		return 0
	}
}

func pad8(n int) int {
	return (8 - n%8) % 8
}
