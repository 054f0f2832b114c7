package kdltok

import "fmt"

// frame tracks one open container on the tokenizer's stack. Only the kind
// and small bits of bookkeeping are kept — enough to know whether the
// currently-open container is an array, and what the cursor expects next.
type frame struct {
	kind       Kind // StartObject or StartArray
	count      int  // direct children seen so far
	expectKey  bool // object only: next non-whitespace must be a property name (or '}')
	afterValue bool // true once a value/member has been emitted and we expect ',' or close
}

// Tokenizer is a stateful cursor over a complete UTF-8 buffer. Read()
// advances and returns true iff a token was produced; the exposed fields
// below are then valid until the next Read() call.
type Tokenizer struct {
	input []byte
	pos   int
	row   int
	col   int

	stack    []frame
	rootDone bool

	comments CommentMode

	// Fields valid after a successful Read().
	Kind            Kind
	TokenStartIndex int
	ValueSpan       Span
	IsInArray       bool
	ValueIsEscaped  bool
	BytesConsumed   int
}

// New creates a tokenizer over input. comments == CommentModeAllow is
// rejected: the core never preserves comments (spec §6.1/§6.3).
func New(input []byte, comments CommentMode) (*Tokenizer, error) {
	if comments == CommentModeAllow {
		return nil, fmt.Errorf("not supported: comment handling %q is not supported", "allow")
	}
	return &Tokenizer{
		input:    input,
		row:      1,
		col:      1,
		comments: comments,
		stack:    make([]frame, 0, 16),
	}, nil
}

// InputLen reports the total size of the buffer being tokenized.
func (t *Tokenizer) InputLen() int {
	return len(t.input)
}

func (t *Tokenizer) top() *frame {
	if len(t.stack) == 0 {
		return nil
	}
	return &t.stack[len(t.stack)-1]
}

// containingIsArray reports whether the container currently open (the one
// a freshly scanned token would be a direct child of) is an array.
func (t *Tokenizer) containingIsArray() bool {
	f := t.top()
	return f != nil && f.kind == StartArray
}

// Read scans the next token. It returns false at end of input (after all
// containers are closed and no trailing content remains) and a non-nil
// error on malformed input.
func (t *Tokenizer) Read() (bool, error) {
	for {
		t.skipWhitespaceAndComments()

		if len(t.stack) == 0 {
			if t.rootDone {
				if t.pos < len(t.input) {
					return false, t.errorf("unexpected content after root value")
				}
				return false, nil
			}
			return true, t.scanValue()
		}

		f := t.top()

		if t.pos >= len(t.input) {
			return false, t.errorf("unexpected end of input inside %s", f.kind)
		}

		ch := t.input[t.pos]

		if f.kind == StartObject {
			if f.afterValue {
				switch ch {
				case '}':
					return true, t.scanEndContainer()
				case ',':
					t.advance(1)
					f.afterValue = false
					f.expectKey = true
					continue
				default:
					return false, t.errorf("expected ',' or '}' in object")
				}
			}
			if f.expectKey {
				if ch == '}' && f.count == 0 {
					return true, t.scanEndContainer()
				}
				return true, t.scanPropertyName()
			}
			// Key just scanned; expect ':' then a value.
			if ch != ':' {
				return false, t.errorf("expected ':' after property name")
			}
			t.advance(1)
			t.skipWhitespaceAndComments()
			return true, t.scanValue()
		}

		// StartArray
		if f.afterValue {
			switch ch {
			case ']':
				return true, t.scanEndContainer()
			case ',':
				t.advance(1)
				f.afterValue = false
				continue
			default:
				return false, t.errorf("expected ',' or ']' in array")
			}
		}
		if ch == ']' && f.count == 0 {
			return true, t.scanEndContainer()
		}
		return true, t.scanValue()
	}
}

// scanValue dispatches on the lookahead byte to produce one value token
// (object/array open, string, number, or literal). It updates the parent
// frame's bookkeeping when the value completes a member/element.
func (t *Tokenizer) scanValue() error {
	if t.pos >= len(t.input) {
		return t.errorf("unexpected end of input")
	}
	ch := t.input[t.pos]

	t.IsInArray = t.containingIsArray()
	t.TokenStartIndex = t.pos

	var err error
	opensContainer := false
	switch {
	case ch == '{':
		t.pushFrame(frame{kind: StartObject, expectKey: true})
		t.Kind = StartObject
		t.ValueSpan = Span{Length: 1}
		t.advance(1)
		opensContainer = true
	case ch == '[':
		t.pushFrame(frame{kind: StartArray})
		t.Kind = StartArray
		t.ValueSpan = Span{Length: 1}
		t.advance(1)
		opensContainer = true
	case ch == '"':
		err = t.scanString(String)
	case ch == 't':
		err = t.scanLiteral("true", True)
	case ch == 'f':
		err = t.scanLiteral("false", False)
	case ch == 'n':
		err = t.scanLiteral("null", Null)
	case ch == '-' || (ch >= '0' && ch <= '9'):
		err = t.scanNumber()
	default:
		err = t.errorf("unexpected character %q", ch)
	}
	if err != nil {
		return err
	}

	// A container open defers "child complete" bookkeeping to its matching
	// End token (completeParentChild); only a simple value completes a
	// member/element immediately.
	if !opensContainer {
		t.markValueComplete()
	}
	return nil
}

// markValueComplete records that a simple (non-container-opening) value
// just finished, updating the enclosing container's bookkeeping. Object
// frames already counted this child at the property-name step; only
// array frames count a child here, one per element.
func (t *Tokenizer) markValueComplete() {
	if len(t.stack) == 0 {
		t.rootDone = true
		return
	}
	f := t.top()
	if f.kind == StartArray {
		f.count++
	}
	f.afterValue = true
}

func (t *Tokenizer) pushFrame(f frame) {
	t.stack = append(t.stack, f)
}

// scanEndContainer closes the currently open container.
func (t *Tokenizer) scanEndContainer() error {
	f := t.top()
	closing := EndObject
	if f.kind == StartArray {
		closing = EndArray
	}
	t.IsInArray = len(t.stack) >= 2 && t.stack[len(t.stack)-2].kind == StartArray
	t.TokenStartIndex = t.pos
	t.Kind = closing
	t.ValueSpan = Span{Length: 1}
	t.advance(1)

	t.stack = t.stack[:len(t.stack)-1]
	t.completeParentChild()
	return nil
}

// completeParentChild marks the (new) top frame as having gained one more
// child, the way markValueComplete does for simple values.
func (t *Tokenizer) completeParentChild() {
	if len(t.stack) == 0 {
		t.rootDone = true
		return
	}
	parent := t.top()
	if parent.kind == StartArray {
		parent.count++
	}
	parent.afterValue = true
}

func (t *Tokenizer) scanPropertyName() error {
	if t.pos >= len(t.input) || t.input[t.pos] != '"' {
		return t.errorf("expected property name")
	}
	f := t.top()
	t.IsInArray = false
	if err := t.scanString(PropertyName); err != nil {
		return err
	}
	f.count++
	f.expectKey = false
	return nil
}

func (t *Tokenizer) scanString(kind Kind) error {
	start := t.pos
	t.advance(1) // opening quote
	contentStart := t.pos
	escaped := false

	for {
		if t.pos >= len(t.input) {
			t.pos = start
			return t.errorf("unterminated string")
		}
		ch := t.input[t.pos]
		if ch == '"' {
			break
		}
		if ch == '\\' {
			escaped = true
			t.advance(1)
			if t.pos >= len(t.input) {
				return t.errorf("unterminated escape sequence")
			}
			t.advance(1)
			continue
		}
		if ch < 0x20 {
			return t.errorf("invalid control character in string")
		}
		t.advance(1)
	}

	contentEnd := t.pos
	t.advance(1) // closing quote

	t.Kind = kind
	t.TokenStartIndex = contentStart
	t.ValueSpan = Span{Length: contentEnd - contentStart}
	t.ValueIsEscaped = escaped
	return nil
}

func (t *Tokenizer) scanLiteral(lit string, kind Kind) error {
	n := len(lit)
	if t.pos+n > len(t.input) || string(t.input[t.pos:t.pos+n]) != lit {
		return t.errorf("invalid literal, expected %q", lit)
	}
	t.Kind = kind
	t.TokenStartIndex = t.pos
	t.ValueSpan = Span{Length: n}
	t.advance(n)
	return nil
}

func (t *Tokenizer) scanNumber() error {
	start := t.pos
	if t.input[t.pos] == '-' {
		t.advance(1)
	}
	if t.pos >= len(t.input) || !isDigit(t.input[t.pos]) {
		return t.errorf("invalid number")
	}
	if t.input[t.pos] == '0' {
		t.advance(1)
	} else {
		for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
			t.advance(1)
		}
	}
	if t.pos < len(t.input) && t.input[t.pos] == '.' {
		t.advance(1)
		if t.pos >= len(t.input) || !isDigit(t.input[t.pos]) {
			return t.errorf("invalid number: expected digit after '.'")
		}
		for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
			t.advance(1)
		}
	}
	if t.pos < len(t.input) && (t.input[t.pos] == 'e' || t.input[t.pos] == 'E') {
		t.advance(1)
		if t.pos < len(t.input) && (t.input[t.pos] == '+' || t.input[t.pos] == '-') {
			t.advance(1)
		}
		if t.pos >= len(t.input) || !isDigit(t.input[t.pos]) {
			return t.errorf("invalid number: expected digit in exponent")
		}
		for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
			t.advance(1)
		}
	}

	t.Kind = Number
	t.TokenStartIndex = start
	t.ValueSpan = Span{Length: t.pos - start}
	return nil
}

func (t *Tokenizer) skipWhitespaceAndComments() {
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			t.advance(1)
			continue
		}
		if ch == '#' && t.comments == CommentModeSkip {
			for t.pos < len(t.input) && t.input[t.pos] != '\n' {
				t.advance(1)
			}
			continue
		}
		break
	}
}

func (t *Tokenizer) advance(n int) {
	for i := 0; i < n && t.pos < len(t.input); i++ {
		if t.input[t.pos] == '\n' {
			t.row++
			t.col = 1
		} else {
			t.col++
		}
		t.pos++
	}
	t.BytesConsumed = t.pos
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func (t *Tokenizer) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("invalid KDL at %d:%d: %s", t.row, t.col, fmt.Sprintf(format, args...))
}
