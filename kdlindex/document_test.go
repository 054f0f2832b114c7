package kdlindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, input string) *Document {
	t.Helper()
	doc, err := Parse([]byte(input), CommentModeSkip)
	require.NoError(t, err)
	t.Cleanup(doc.Dispose)
	return doc
}

// scenario (a): object with two properties.
func TestDocument_ObjectScenario(t *testing.T) {
	doc := mustParse(t, `{"a":1,"b":"x"}`)
	root, err := doc.Root()
	require.NoError(t, err)

	kind, err := root.Kind()
	require.NoError(t, err)
	assert.Equal(t, StartObject, kind)

	assert.Equal(t, 6, doc.db.rowCount())

	count, err := root.GetPropertyCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	prop0, err := root.GetProperty(0)
	require.NoError(t, err)
	name, err := prop0.Name.GetString()
	require.NoError(t, err)
	assert.Equal(t, "a", name)

	v, ok, err := TryGetNumber[int32](prop0.Value)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), v)

	prop1, err := root.GetProperty(1)
	require.NoError(t, err)
	s, err := prop1.Value.GetString()
	require.NoError(t, err)
	assert.Equal(t, "x", s)
}

// scenario (b): flat array, fast-path indexing.
func TestDocument_FlatArrayScenario(t *testing.T) {
	doc := mustParse(t, `[1,2,3]`)
	root, err := doc.Root()
	require.NoError(t, err)

	length, err := root.GetArrayLength()
	require.NoError(t, err)
	assert.Equal(t, 3, length)

	row, err := root.row()
	require.NoError(t, err)
	assert.False(t, row.HasComplexChildren())

	el, err := root.GetArrayElement(2)
	require.NoError(t, err)
	assert.Equal(t, root.offset+RowSize*3, el.offset)

	raw, err := el.GetRawValue(false)
	require.NoError(t, err)
	assert.Equal(t, "3", string(raw))
}

// scenario (c): nested array, walk-based indexing.
func TestDocument_NestedArrayScenario(t *testing.T) {
	doc := mustParse(t, `[1,[2,3],4]`)
	root, err := doc.Root()
	require.NoError(t, err)

	length, err := root.GetArrayLength()
	require.NoError(t, err)
	assert.Equal(t, 3, length)

	row, err := root.row()
	require.NoError(t, err)
	assert.True(t, row.HasComplexChildren())

	el, err := root.GetArrayElement(2)
	require.NoError(t, err)
	raw, err := el.GetRawValue(false)
	require.NoError(t, err)
	assert.Equal(t, "4", string(raw))
}

// scenario (d): escaped string.
func TestDocument_EscapedStringScenario(t *testing.T) {
	doc := mustParse(t, `"a\nb"`)
	root, err := doc.Root()
	require.NoError(t, err)

	row, err := root.row()
	require.NoError(t, err)
	assert.True(t, row.HasComplexChildren())

	s, err := root.GetString()
	require.NoError(t, err)
	assert.Equal(t, "a\nb", s)
}

// scenario (d) continued, invariant 5: raw span with quotes included.
func TestDocument_GetRawValueIncludeQuotes(t *testing.T) {
	doc := mustParse(t, `"a\nb"`)
	root, err := doc.Root()
	require.NoError(t, err)

	withoutQuotes, err := root.GetRawValue(false)
	require.NoError(t, err)
	assert.Equal(t, `a\nb`, string(withoutQuotes))

	withQuotes, err := root.GetRawValue(true)
	require.NoError(t, err)
	assert.Equal(t, `"a\nb"`, string(withQuotes))
}

// GetRawValue's container branch spans the whole braced text regardless
// of includeQuotes.
func TestDocument_GetRawValueContainer(t *testing.T) {
	doc := mustParse(t, `[1,2,3]`)
	root, err := doc.Root()
	require.NoError(t, err)

	raw, err := root.GetRawValue(false)
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(raw))

	rawQuoted, err := root.GetRawValue(true)
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(rawQuoted))
}

func TestElement_TextEquals_RawMode(t *testing.T) {
	doc := mustParse(t, `{"a\nb":"x"}`)
	root, err := doc.Root()
	require.NoError(t, err)
	prop, err := root.GetProperty(0)
	require.NoError(t, err)

	eq, err := prop.Name.TextEquals(`a\nb`, true, false)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = prop.Name.TextEquals("a\nb", true, false)
	require.NoError(t, err)
	assert.False(t, eq, "raw mode must compare escaped bytes, not decoded text")
}

func TestElement_TextEquals_UnescapedMode(t *testing.T) {
	doc := mustParse(t, `{"a\nb":"x"}`)
	root, err := doc.Root()
	require.NoError(t, err)
	prop, err := root.GetProperty(0)
	require.NoError(t, err)

	eq, err := prop.Name.TextEquals("a\nb", true, true)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = prop.Name.TextEquals("a\nc", true, true)
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = prop.Value.TextEquals("x", false, true)
	require.NoError(t, err)
	assert.True(t, eq)

	_, err = prop.Name.TextEquals("a\nb", false, true)
	require.Error(t, err)
	assert.Equal(t, ErrWrongKind, err.(*Error).Code)
}

// scenario (e): empty array.
func TestDocument_EmptyArrayScenario(t *testing.T) {
	doc := mustParse(t, `[]`)
	root, err := doc.Root()
	require.NoError(t, err)

	row, err := root.row()
	require.NoError(t, err)
	assert.Equal(t, 2, row.NumberOfRows())

	endIdx, err := root.GetEndIndex(false)
	require.NoError(t, err)
	assert.Equal(t, RowSize, endIdx)
}

// scenario (f): clone independence.
func TestDocument_CloneIndependence(t *testing.T) {
	doc := mustParse(t, `[1,[2,3],4]`)
	root, err := doc.Root()
	require.NoError(t, err)

	sub, err := root.GetArrayElement(1) // [2,3]
	require.NoError(t, err)

	clone, err := sub.CloneSubtree()
	require.NoError(t, err)

	doc.Dispose()

	cloneRoot, err := clone.Root()
	require.NoError(t, err)
	length, err := cloneRoot.GetArrayLength()
	require.NoError(t, err)
	assert.Equal(t, 2, length)

	el, err := cloneRoot.GetArrayElement(1)
	require.NoError(t, err)
	raw, err := el.GetRawValue(false)
	require.NoError(t, err)
	assert.Equal(t, "3", string(raw))

	clone.Dispose() // no-op: non-pooled clone
}

func TestDocument_DisposeIsIdempotent(t *testing.T) {
	doc := mustParse(t, `42`)
	doc.Dispose()
	doc.Dispose()
	assert.True(t, doc.IsDisposed())

	_, err := doc.Root()
	require.Error(t, err)
	assert.Equal(t, ErrDisposed, err.(*Error).Code)
}

func TestDocument_RejectsNilInput(t *testing.T) {
	_, err := Parse(nil, CommentModeSkip)
	require.Error(t, err)
	assert.Equal(t, ErrArgumentNull, err.(*Error).Code)
}

func TestDocument_InvalidKDL(t *testing.T) {
	_, err := Parse([]byte(`{"a":1,}`), CommentModeSkip)
	require.Error(t, err)
}

func TestElement_WrongKind(t *testing.T) {
	doc := mustParse(t, `42`)
	root, err := doc.Root()
	require.NoError(t, err)

	_, err = root.GetArrayLength()
	require.Error(t, err)
	assert.Equal(t, ErrWrongKind, err.(*Error).Code)
}
