package kdlindex

import "unsafe"

// unsafeBytesToString views b as a string without copying. Safe only
// because every caller passes a slice into a Document's buffer, which is
// never mutated after Parse and outlives the returned string for exactly
// as long as the Document itself is not disposed — the same contract the
// teacher's parsers package documents for its own unsafeBytesToString.
func unsafeBytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return *(*string)(unsafe.Pointer(&b))
}
