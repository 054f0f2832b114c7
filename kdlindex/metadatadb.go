package kdlindex

import (
	"math"

	"github.com/kdldoc/kdldoc/kdltok"
)

// hardCapBytes bounds total row storage: int32 max minus one row, so a
// byte offset into the row buffer never overflows int32 (spec §3.3).
const hardCapBytes = int(math.MaxInt32) - RowSize

// metadataDB is the append-only, length-tracking vector of rows (spec
// §3.3). It owns a single pool-rented []byte used as row storage; each
// row occupies RowSize contiguous bytes. Indexing is always by byte
// offset: rowIndex*RowSize.
type metadataDB struct {
	buf       *[]byte // pooled storage, nil once disposed
	length    int     // bytes used (always a multiple of RowSize)
	pooled    bool    // false for clone_subtree results (dispose is a no-op)
}

func newMetadataDB(estimatedRows int) *metadataDB {
	if estimatedRows < 8 {
		estimatedRows = 8
	}
	buf := getRowBuffer(estimatedRows * RowSize)
	return &metadataDB{buf: buf, pooled: true}
}

func (db *metadataDB) rowCount() int { return db.length / RowSize }

// append pushes a new row and returns its byte offset. Growth failure
// (document too large, spec §9) is returned to the caller rather than
// panicking, so a single oversized document can't escape the package's
// closed error surface (spec §6.3) or skip releasing pooled memory.
func (db *metadataDB) append(kind kdltok.Kind, location uint32, sizeOrLength int32) (int, error) {
	if err := db.ensureCapacity(db.length + RowSize); err != nil {
		return 0, err
	}
	off := db.length
	encodeRow(*db.buf, off, Row{
		Location:     location,
		SizeOrLength: sizeOrLength,
		Packed:       packWord(kind, false, 1),
	})
	db.length += RowSize
	return off, nil
}

func (db *metadataDB) ensureCapacity(need int) error {
	if need <= cap(*db.buf) {
		if need > len(*db.buf) {
			*db.buf = (*db.buf)[:need]
		}
		return nil
	}
	if need > hardCapBytes {
		return newError(ErrInvalidKDL, "document exceeds maximum supported size")
	}
	newCap := cap(*db.buf) * 2
	if newCap == 0 {
		newCap = RowSize * 16
	}
	for newCap < need {
		newCap *= 2
	}
	if newCap > hardCapBytes {
		newCap = hardCapBytes
	}
	grown := make([]byte, need, newCap)
	copy(grown, (*db.buf)[:db.length])
	*db.buf = grown
	diagLog.WithField("new_capacity", newCap).Debug("kdlindex: metadata DB grew past initial capacity")
	return nil
}

func (db *metadataDB) get(off int) Row {
	return decodeRow(*db.buf, off)
}

func (db *metadataDB) setLength(off int, value int32) {
	row := db.get(off)
	row.SizeOrLength = value
	encodeRow(*db.buf, off, row)
}

func (db *metadataDB) setNumberOfRows(off int, value int) {
	row := db.get(off)
	row.Packed = packWord(row.Kind(), row.HasComplexChildren(), value)
	encodeRow(*db.buf, off, row)
}

func (db *metadataDB) setHasComplexChildren(off int) {
	row := db.get(off)
	row.Packed = packWord(row.Kind(), true, row.NumberOfRows())
	encodeRow(*db.buf, off, row)
}

// findIndexOfFirstUnsetSizeOrLength scans backwards from the end and
// returns the byte offset of the most recent row of kind whose
// SizeOrLength is still UnknownSize (spec §3.3). Parser does not call it:
// it locates the matching Start* of a closing container from the offset
// recorded in that container's parse-stack frame.
func (db *metadataDB) findIndexOfFirstUnsetSizeOrLength(kind kdltok.Kind) int {
	for off := db.length - RowSize; off >= 0; off -= RowSize {
		row := db.get(off)
		if row.Kind() == kind && row.SizeOrLength == UnknownSize {
			return off
		}
	}
	return -1
}

// completeAllocations trims the backing buffer's excess capacity after
// parsing finishes (spec §3.3).
func (db *metadataDB) completeAllocations() {
	if cap(*db.buf) == db.length {
		return
	}
	trimmed := make([]byte, db.length)
	copy(trimmed, (*db.buf)[:db.length])
	old := db.buf
	db.buf = &trimmed
	db.pooled = false
	putRowBuffer(old)
}

// copySegment produces a new, non-pooled metadataDB whose rows are the
// contiguous slice [startOff, endOff), with every Location rebased so row
// 0 points at offset 0 of the copied document buffer (spec §3.3, §4.4).
func (db *metadataDB) copySegment(startOff, endOff int) *metadataDB {
	n := endOff - startOff
	rebase := db.get(startOff).Location
	out := make([]byte, n)
	copy(out, (*db.buf)[startOff:endOff])
	for off := 0; off < n; off += RowSize {
		row := decodeRow(out, off)
		row.Location -= rebase
		encodeRow(out, off, row)
	}
	return &metadataDB{buf: &out, length: n, pooled: false}
}

// shiftLocations adds delta to every row's Location. Used when the raw
// byte span the caller kept starts earlier than the first row's own
// location — CloneSubtree keeping a string's surrounding quotes shifts
// the copied buffer's start by one byte relative to the row it rebased
// against.
func (db *metadataDB) shiftLocations(delta int32) {
	for off := 0; off < db.length; off += RowSize {
		row := db.get(off)
		row.Location = uint32(int32(row.Location) + delta)
		encodeRow(*db.buf, off, row)
	}
}

// dispose returns pooled memory. Idempotent and concurrency-safe: callers
// race on the same *metadataDB only ever observe one winning release
// (guarded by Document's atomic compare-and-swap, spec §5.1).
func (db *metadataDB) dispose() {
	if !db.pooled || db.buf == nil {
		return
	}
	putRowBuffer(db.buf)
	db.buf = nil
	db.length = 0
}
