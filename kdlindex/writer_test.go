package kdlindex

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bufferWriter is a minimal Writer that renders back to JSON text, used
// only to exercise Element.WriteTo end-to-end; it is not part of the
// public API (spec §6.4 names the interface, not a reference sink).
type bufferWriter struct {
	out           strings.Builder
	needsComma    []bool // per open-container: has a prior member/element been written
	awaitingValue []bool // per open-container: true right after a property name
}

func newBufferWriter() *bufferWriter {
	return &bufferWriter{}
}

func (w *bufferWriter) beforeValue() {
	n := len(w.needsComma)
	if n == 0 {
		return
	}
	if w.awaitingValue[n-1] {
		w.awaitingValue[n-1] = false
		return
	}
	if w.needsComma[n-1] {
		w.out.WriteByte(',')
	}
	w.needsComma[n-1] = true
}

func (w *bufferWriter) WriteStartObject() error {
	w.beforeValue()
	w.out.WriteByte('{')
	w.needsComma = append(w.needsComma, false)
	w.awaitingValue = append(w.awaitingValue, false)
	return nil
}

func (w *bufferWriter) WriteEndObject() error {
	w.needsComma = w.needsComma[:len(w.needsComma)-1]
	w.awaitingValue = w.awaitingValue[:len(w.awaitingValue)-1]
	w.out.WriteByte('}')
	return nil
}

func (w *bufferWriter) WriteStartArray() error {
	w.beforeValue()
	w.out.WriteByte('[')
	w.needsComma = append(w.needsComma, false)
	w.awaitingValue = append(w.awaitingValue, false)
	return nil
}

func (w *bufferWriter) WriteEndArray() error {
	w.needsComma = w.needsComma[:len(w.needsComma)-1]
	w.awaitingValue = w.awaitingValue[:len(w.awaitingValue)-1]
	w.out.WriteByte(']')
	return nil
}

func (w *bufferWriter) WritePropertyName(name []byte) error {
	n := len(w.needsComma)
	if w.needsComma[n-1] {
		w.out.WriteByte(',')
	}
	w.needsComma[n-1] = true
	fmt.Fprintf(&w.out, "%q", name)
	w.out.WriteByte(':')
	w.awaitingValue[n-1] = true
	return nil
}

func (w *bufferWriter) WriteStringValue(raw []byte) error {
	w.beforeValue()
	fmt.Fprintf(&w.out, "%q", raw)
	return nil
}

func (w *bufferWriter) WriteNumberValue(raw []byte) error {
	w.beforeValue()
	w.out.Write(raw)
	return nil
}

func (w *bufferWriter) WriteBooleanValue(v bool) error {
	w.beforeValue()
	if v {
		w.out.WriteString("true")
	} else {
		w.out.WriteString("false")
	}
	return nil
}

func (w *bufferWriter) WriteNullValue() error {
	w.beforeValue()
	w.out.WriteString("null")
	return nil
}

func TestElement_WriteTo_RoundTripsShape(t *testing.T) {
	doc := mustParse(t, `{"a":1,"b":[2,3]}`)
	root, err := doc.Root()
	require.NoError(t, err)

	w := newBufferWriter()
	require.NoError(t, root.WriteTo(w))

	reparsed, err := Parse([]byte(w.out.String()), CommentModeSkip)
	require.NoError(t, err)
	t.Cleanup(reparsed.Dispose)

	assert.Equal(t, doc.db.rowCount(), reparsed.db.rowCount())

	origRoot, _ := doc.Root()
	newRoot, _ := reparsed.Root()
	origCount, _ := origRoot.GetPropertyCount()
	newCount, _ := newRoot.GetPropertyCount()
	assert.Equal(t, origCount, newCount)
}

// WriteTo must decode String/PropertyName payloads before handing them
// to the Writer (spec §4.3) — a writer that re-escapes decoded text, as
// bufferWriter does here, must round-trip an escaped source string to
// the same logical text.
func TestElement_WriteTo_UnescapesStrings(t *testing.T) {
	doc := mustParse(t, `{"a\nb":"x\ty"}`)
	root, err := doc.Root()
	require.NoError(t, err)

	w := newBufferWriter()
	require.NoError(t, root.WriteTo(w))

	reparsed, err := Parse([]byte(w.out.String()), CommentModeSkip)
	require.NoError(t, err)
	t.Cleanup(reparsed.Dispose)

	newRoot, err := reparsed.Root()
	require.NoError(t, err)
	prop, err := newRoot.GetProperty(0)
	require.NoError(t, err)

	name, err := prop.Name.GetString()
	require.NoError(t, err)
	assert.Equal(t, "a\nb", name)

	val, err := prop.Value.GetString()
	require.NoError(t, err)
	assert.Equal(t, "x\ty", val)
}
