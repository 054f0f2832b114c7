package kdlindex

import (
	"encoding/binary"

	"github.com/kdldoc/kdldoc/kdltok"
)

// RowSize is the fixed width, in bytes, of every index row (spec §3.2).
// Row index and byte offset are related by this constant: offset = index
// * RowSize.
const RowSize = 12

// UnknownSize is the size_or_length sentinel for a container row whose
// matching End* token has not yet been seen during parsing.
const UnknownSize int32 = -1

// Bit layout of the packed word (word 2), MSB first. Spec §3.2 allows
// widening the kind tag from 3 to 4 bits as long as bit 31 stays
// reserved for has_complex_children; this implementation takes that
// option because the closed kind enumeration has 10 members, more than
// 3 bits (8 values) can address.
const (
	complexChildrenBit  = uint32(1) << 31
	kindShift           = 27
	kindMask            = uint32(0xF) << kindShift // bits 30..27, 4 bits
	numberOfRowsMask    = uint32(0x07FFFFFF)        // bits 26..0
	maxNumberOfRows     = int(numberOfRowsMask)
)

// Row is the in-memory shape of one 12-byte index entry: three
// little-endian uint32 words backed by a contiguous, possibly pooled,
// byte array (spec §3.2).
type Row struct {
	Location     uint32
	SizeOrLength int32
	Packed       uint32
}

// Kind returns the token kind tag packed into this row.
func (r Row) Kind() kdltok.Kind {
	return kdltok.Kind((r.Packed & kindMask) >> kindShift)
}

// HasComplexChildren reports the complex-children/has-escapes bit
// (spec §3.4).
func (r Row) HasComplexChildren() bool {
	return r.Packed&complexChildrenBit != 0
}

// NumberOfRows returns the count of rows this row plus all of its
// descendants occupy, inclusive (1 for simple tokens).
func (r Row) NumberOfRows() int {
	return int(r.Packed & numberOfRowsMask)
}

func packWord(kind kdltok.Kind, hasComplexChildren bool, numberOfRows int) uint32 {
	if numberOfRows < 0 {
		numberOfRows = 0
	}
	if numberOfRows > maxNumberOfRows {
		numberOfRows = maxNumberOfRows
	}
	w := (uint32(kind) << kindShift) & kindMask
	w |= uint32(numberOfRows) & numberOfRowsMask
	if hasComplexChildren {
		w |= complexChildrenBit
	}
	return w
}

// encodeRow writes a Row's three words little-endian into dst[off:off+12].
func encodeRow(dst []byte, off int, r Row) {
	binary.LittleEndian.PutUint32(dst[off:], r.Location)
	binary.LittleEndian.PutUint32(dst[off+4:], uint32(r.SizeOrLength))
	binary.LittleEndian.PutUint32(dst[off+8:], r.Packed)
}

// decodeRow reads a Row's three words little-endian from src[off:off+12].
func decodeRow(src []byte, off int) Row {
	return Row{
		Location:     binary.LittleEndian.Uint32(src[off:]),
		SizeOrLength: int32(binary.LittleEndian.Uint32(src[off+4:])),
		Packed:       binary.LittleEndian.Uint32(src[off+8:]),
	}
}
