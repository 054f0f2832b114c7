package kdlindex

import (
	"bytes"

	"github.com/kdldoc/kdldoc/kdltok"
)

// scratchStackBudget is the size under which unescape scratch space is
// taken from a local array rather than the pool (spec §5.2).
const scratchStackBudget = 256

// Element is a lightweight handle into a Document: a row offset plus the
// Document it belongs to. Elements are values, not resources — they carry
// no buffers of their own and never need disposing.
type Element struct {
	doc    *Document
	offset int
}

// Property pairs a property-name Element with its value Element, returned
// together by GetProperty since both are usually wanted at once.
type Property struct {
	Name  Element
	Value Element
}

func (e Element) row() (Row, error) {
	if err := e.doc.checkAlive(); err != nil {
		return Row{}, err
	}
	return e.doc.db.get(e.offset), nil
}

// Kind reports the token kind backing this element.
func (e Element) Kind() (kdltok.Kind, error) {
	row, err := e.row()
	if err != nil {
		return 0, err
	}
	return row.Kind(), nil
}

func rowSpan(row Row) int {
	if row.Kind().IsSimple() {
		return 1
	}
	return row.NumberOfRows()
}

// GetEndIndex returns the byte offset one past this element's last row
// (includeEnd true) or the offset of its own End* row (includeEnd false,
// containers only; for simple values the two coincide since there is no
// separate end marker).
func (e Element) GetEndIndex(includeEnd bool) (int, error) {
	row, err := e.row()
	if err != nil {
		return 0, err
	}
	if row.Kind().IsSimple() {
		return e.offset + RowSize, nil
	}
	end := e.offset + (row.NumberOfRows()-1)*RowSize
	if includeEnd {
		end += RowSize
	}
	return end, nil
}

// GetArrayLength returns the number of direct elements; row must be
// StartArray.
func (e Element) GetArrayLength() (int, error) {
	row, err := e.row()
	if err != nil {
		return 0, err
	}
	if row.Kind() != kdltok.StartArray {
		return 0, newError(ErrWrongKind, "GetArrayLength requires an array element")
	}
	return int(row.SizeOrLength), nil
}

// GetPropertyCount returns the number of direct properties; row must be
// StartObject.
func (e Element) GetPropertyCount() (int, error) {
	row, err := e.row()
	if err != nil {
		return 0, err
	}
	if row.Kind() != kdltok.StartObject {
		return 0, newError(ErrWrongKind, "GetPropertyCount requires an object element")
	}
	return int(row.SizeOrLength), nil
}

// GetArrayElement returns the k-th direct element (0-based). When the
// array has no container children, this is O(1); otherwise it walks
// direct children in order (spec §3.4).
func (e Element) GetArrayElement(k int) (Element, error) {
	row, err := e.row()
	if err != nil {
		return Element{}, err
	}
	if row.Kind() != kdltok.StartArray {
		return Element{}, newError(ErrWrongKind, "GetArrayElement requires an array element")
	}
	if k < 0 || k >= int(row.SizeOrLength) {
		return Element{}, newError(ErrIndexOutOfRange, "array index out of range")
	}
	if !row.HasComplexChildren() {
		return Element{doc: e.doc, offset: e.offset + (k+1)*RowSize}, nil
	}
	cur := e.offset + RowSize
	for i := 0; i < k; i++ {
		child := e.doc.db.get(cur)
		cur += rowSpan(child) * RowSize
	}
	return Element{doc: e.doc, offset: cur}, nil
}

// GetProperty returns the k-th direct property (0-based): its name and
// value elements. When the object has no container-valued children, this
// is O(1); otherwise it walks direct properties in order.
func (e Element) GetProperty(k int) (Property, error) {
	row, err := e.row()
	if err != nil {
		return Property{}, err
	}
	if row.Kind() != kdltok.StartObject {
		return Property{}, newError(ErrWrongKind, "GetProperty requires an object element")
	}
	if k < 0 || k >= int(row.SizeOrLength) {
		return Property{}, newError(ErrIndexOutOfRange, "property index out of range")
	}
	var nameOff int
	if !row.HasComplexChildren() {
		nameOff = e.offset + (1+k*2)*RowSize
	} else {
		cur := e.offset + RowSize
		for i := 0; i < k; i++ {
			valueRow := e.doc.db.get(cur + RowSize)
			cur += RowSize + rowSpan(valueRow)*RowSize
		}
		nameOff = cur
	}
	return Property{
		Name:  Element{doc: e.doc, offset: nameOff},
		Value: Element{doc: e.doc, offset: nameOff + RowSize},
	}, nil
}

// GetRawValue returns the raw (still-escaped) payload bytes backing this
// element's span in the document buffer (spec §4.2).
//
// For a number or true/false/null element this is always its literal
// token text; includeQuotes has no effect. For a string or property
// name, it is the quoted content excluding the surrounding quote bytes,
// unless includeQuotes is true, in which case the span widens by one
// byte on each side to include them. For a container (object or array)
// it is the full braced text: from the start row's location to the end
// row's location plus its size, regardless of includeQuotes.
func (e Element) GetRawValue(includeQuotes bool) ([]byte, error) {
	row, err := e.row()
	if err != nil {
		return nil, err
	}
	if !row.Kind().IsSimple() {
		endRowOffExclusive := e.offset + rowSpan(row)*RowSize
		lastRow := e.doc.db.get(endRowOffExclusive - RowSize)
		start := int(row.Location)
		end := int(lastRow.Location) + int(lastRow.SizeOrLength)
		return (*e.doc.buf)[start:end], nil
	}
	start := int(row.Location)
	end := start + int(row.SizeOrLength)
	if includeQuotes && (row.Kind() == kdltok.String || row.Kind() == kdltok.PropertyName) {
		start--
		end++
	}
	return (*e.doc.buf)[start:end], nil
}

// GetPropertyRawValue is a convenience for GetProperty(k).Value.GetRawValue.
func (e Element) GetPropertyRawValue(k int, includeQuotes bool) ([]byte, error) {
	prop, err := e.GetProperty(k)
	if err != nil {
		return nil, err
	}
	return prop.Value.GetRawValue(includeQuotes)
}

// GetString decodes a String or PropertyName element's text. When the
// payload contains no backslash escapes (the common case, flagged by
// has_complex_children), this is a zero-copy string view over the
// document's own buffer; otherwise it unescapes into scratch space.
func (e Element) GetString() (string, error) {
	row, err := e.row()
	if err != nil {
		return "", err
	}
	if row.Kind() != kdltok.String && row.Kind() != kdltok.PropertyName {
		return "", newError(ErrWrongKind, "GetString requires a string or property-name element")
	}
	raw, err := e.GetRawValue(false)
	if err != nil {
		return "", err
	}
	if !row.HasComplexChildren() {
		return unsafeBytesToString(raw), nil
	}
	var stackBuf [scratchStackBudget]byte
	scratch := stackBuf[:0]
	var rented *[]byte
	if len(raw) > scratchStackBudget {
		rented = getByteBuffer(len(raw))
		scratch = (*rented)[:0]
	}
	out, err := unescapeInto(raw, scratch)
	if rented != nil {
		defer putByteBuffer(rented)
	}
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// TextEquals compares this element's text against other. isPropertyName
// selects which token kind is expected (PropertyName vs String).
// shouldUnescape selects the comparison mode: false compares the raw,
// still-escaped source bytes verbatim against other (the fast mode for
// a caller that already holds text in escaped form); true decodes
// escapes before comparing, matching what GetString would return.
//
// When shouldUnescape is true and the payload has no escapes, this
// still avoids allocating: the raw bytes already are the decoded text.
// When it does have escapes, the literal run before the first backslash
// is compared directly against other's corresponding prefix — the
// common case of two property names differing in their first few bytes
// returns false without ever decoding — and only the remainder is
// unescaped into scratch space (spec §4.2).
func (e Element) TextEquals(other string, isPropertyName bool, shouldUnescape bool) (bool, error) {
	row, err := e.row()
	if err != nil {
		return false, err
	}
	wantKind := kdltok.String
	if isPropertyName {
		wantKind = kdltok.PropertyName
	}
	if row.Kind() != wantKind {
		return false, newError(ErrWrongKind, "TextEquals element kind does not match isPropertyName")
	}

	raw, err := e.GetRawValue(false)
	if err != nil {
		return false, err
	}

	if !shouldUnescape || !row.HasComplexChildren() {
		return unsafeBytesToString(raw) == other, nil
	}

	return escapedTextEquals(raw, other)
}

// escapedTextEquals implements the lazy half of TextEquals: it matches
// the literal prefix before the first backslash directly against other,
// then decodes only the remainder.
func escapedTextEquals(raw []byte, other string) (bool, error) {
	i := bytes.IndexByte(raw, '\\')
	if i < 0 {
		return unsafeBytesToString(raw) == other, nil
	}
	if len(other) < i || other[:i] != unsafeBytesToString(raw[:i]) {
		return false, nil
	}

	remainingRaw := raw[i:]
	remainingOther := other[i:]
	if len(remainingOther) > len(remainingRaw) {
		// No escape sequence decodes to more bytes than it occupies in
		// the source, so a longer suffix can never match.
		return false, nil
	}

	var stackBuf [scratchStackBudget]byte
	scratch := stackBuf[:0]
	var rented *[]byte
	if len(remainingRaw) > scratchStackBudget {
		rented = getByteBuffer(len(remainingRaw))
		scratch = (*rented)[:0]
	}
	decoded, err := unescapeInto(remainingRaw, scratch)
	if rented != nil {
		defer putByteBuffer(rented)
	}
	if err != nil {
		return false, err
	}
	return unsafeBytesToString(decoded) == remainingOther, nil
}

// CloneSubtree copies this element's rows and backing bytes into a fresh,
// independent, non-disposable Document (spec §3.1, §4.4). The clone
// outlives the source Document, including across its Dispose.
func (e Element) CloneSubtree() (*Document, error) {
	row, err := e.row()
	if err != nil {
		return nil, err
	}
	includeQuotes := row.Kind() == kdltok.String || row.Kind() == kdltok.PropertyName
	raw, err := e.GetRawValue(includeQuotes)
	if err != nil {
		return nil, err
	}

	newBuf := make([]byte, len(raw))
	copy(newBuf, raw)

	startRowOff := e.offset
	endRowOffExclusive := e.offset + rowSpan(row)*RowSize
	newDB := e.doc.db.copySegment(startRowOff, endRowOffExclusive)
	if includeQuotes {
		newDB.shiftLocations(1)
	}

	return &Document{buf: &newBuf, db: newDB, pooled: false}, nil
}

// WriteTo replays this element's subtree, in document order, as a
// sequence of calls against w (spec §6.4).
func (e Element) WriteTo(w Writer) error {
	row, err := e.row()
	if err != nil {
		return err
	}
	endOff := e.offset + rowSpan(row)*RowSize
	for off := e.offset; off < endOff; off += RowSize {
		r := e.doc.db.get(off)
		if err := writeRow(e.doc, r, w); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(doc *Document, r Row, w Writer) error {
	switch r.Kind() {
	case kdltok.StartObject:
		return w.WriteStartObject()
	case kdltok.EndObject:
		return w.WriteEndObject()
	case kdltok.StartArray:
		return w.WriteStartArray()
	case kdltok.EndArray:
		return w.WriteEndArray()
	case kdltok.PropertyName:
		payload, release, err := decodedPayload(doc, r)
		if err != nil {
			return err
		}
		err = w.WritePropertyName(payload)
		release()
		return err
	case kdltok.String:
		payload, release, err := decodedPayload(doc, r)
		if err != nil {
			return err
		}
		err = w.WriteStringValue(payload)
		release()
		return err
	case kdltok.Number:
		return w.WriteNumberValue(rawBytes(doc, r))
	case kdltok.True:
		return w.WriteBooleanValue(true)
	case kdltok.False:
		return w.WriteBooleanValue(false)
	case kdltok.Null:
		return w.WriteNullValue()
	default:
		return newError(ErrInvalidKDL, "unknown row kind")
	}
}

func rawBytes(doc *Document, r Row) []byte {
	start := int(r.Location)
	end := start + int(r.SizeOrLength)
	return (*doc.buf)[start:end]
}

// decodedPayload returns the unescaped bytes for a String/PropertyName
// row, for handing to a Writer (spec §4.3: "for String and PropertyName,
// unescape into a temporary buffer and pass the decoded bytes"). When the
// row has no escapes this is a zero-copy view over the document's own
// buffer; otherwise it decodes into scratch space exactly like
// Element.GetString, and the returned release func must be called once
// the caller is done with the bytes.
func decodedPayload(doc *Document, r Row) ([]byte, func(), error) {
	raw := rawBytes(doc, r)
	if !r.HasComplexChildren() {
		return raw, func() {}, nil
	}
	var stackBuf [scratchStackBudget]byte
	scratch := stackBuf[:0]
	var rented *[]byte
	if len(raw) > scratchStackBudget {
		rented = getByteBuffer(len(raw))
		scratch = (*rented)[:0]
	}
	out, err := unescapeInto(raw, scratch)
	release := func() {
		if rented != nil {
			putByteBuffer(rented)
		}
	}
	if err != nil {
		release()
		return nil, func() {}, err
	}
	return out, release, nil
}
