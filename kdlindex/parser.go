package kdlindex

import (
	"math"

	"github.com/kdldoc/kdldoc/kdltok"
)

// Parser drives a kdltok.Tokenizer and populates a metadataDB, back-
// patching container sizes when they close (spec §4.1). The per-container
// counters live in a parseStack of containerFrame (kdlindex/stack.go).
type Parser struct {
	tok   *kdltok.Tokenizer
	db    *metadataDB
	stack *parseStack
}

// maxInputBytes bounds the input per spec §9: offsets must fit in int32.
const maxInputBytes = math.MaxInt32 - RowSize

// ParseTokens tokenizes input completely and returns a populated, trimmed
// metadataDB. Any tokenizer error is fatal and propagates; on failure the
// DB's pooled memory is released and no partial document is returned
// (spec §4.1 Failure semantics). Parse (document.go) is the public entry point;
// this is the piece that does not also own the input buffer's lifecycle.
func ParseTokens(input []byte, comments kdltok.CommentMode) (*metadataDB, error) {
	if len(input) > maxInputBytes {
		return nil, newError(ErrInvalidKDL, "input exceeds maximum supported size")
	}

	tok, err := kdltok.New(input, comments)
	if err != nil {
		return nil, newError(ErrNotSupported, err.Error())
	}

	estimatedRows := len(input)/4 + 8
	p := &Parser{
		tok:   tok,
		db:    newMetadataDB(estimatedRows),
		stack: newParseStack(),
	}

	if err := p.run(); err != nil {
		p.db.dispose()
		return nil, err
	}

	p.db.completeAllocations()
	return p.db, nil
}

func (p *Parser) run() error {
	for {
		more, err := p.tok.Read()
		if err != nil {
			return newErrorAt(ErrInvalidKDL, err.Error(), p.tok.BytesConsumed)
		}
		if !more {
			break
		}
		if err := p.handleToken(); err != nil {
			return err
		}
	}
	if !p.stack.empty() {
		return newError(ErrInvalidKDL, "unclosed container at end of input")
	}
	if p.tok.BytesConsumed != p.tok.InputLen() {
		// Defensive: a conforming tokenizer always consumes every byte by
		// the time Read() returns false (spec §4.1 "assert... consumed
		// every byte").
		return newError(ErrInvalidKDL, "tokenizer did not consume entire input")
	}
	return nil
}

func (p *Parser) handleToken() error {
	kind := p.tok.Kind

	switch kind {
	case kdltok.StartObject, kdltok.StartArray:
		off, err := p.db.append(kind, uint32(p.tok.TokenStartIndex), UnknownSize)
		if err != nil {
			return err
		}
		if parent := p.stack.top(); parent != nil {
			// Object members were already counted at their PropertyName.
			if parent.kind == kdltok.StartArray {
				parent.directChildCount++
			}
			parent.hasContainerChild = true
		}
		p.stack.push(containerFrame{
			kind:        kind,
			startOffset: off,
		})
		return nil

	case kdltok.EndObject, kdltok.EndArray:
		if p.stack.empty() {
			return newError(ErrInvalidKDL, "unmatched closing marker")
		}
		closed := p.stack.pop()

		p.db.setLength(closed.startOffset, int32(closed.directChildCount))
		numberOfRows := closed.rowsSinceOpen + 2
		p.db.setNumberOfRows(closed.startOffset, numberOfRows)
		if closed.hasContainerChild {
			p.db.setHasComplexChildren(closed.startOffset)
		}

		endOff, err := p.db.append(kind, uint32(p.tok.TokenStartIndex), int32(p.tok.ValueSpan.Length))
		if err != nil {
			return err
		}
		p.db.setNumberOfRows(endOff, numberOfRows)

		if parent := p.stack.top(); parent != nil {
			parent.rowsSinceOpen += numberOfRows
		}
		return nil

	case kdltok.PropertyName:
		loc := uint32(p.tok.TokenStartIndex)
		off, err := p.db.append(kind, loc, int32(p.tok.ValueSpan.Length))
		if err != nil {
			return err
		}
		if p.tok.ValueIsEscaped {
			p.db.setHasComplexChildren(off)
		}
		if parent := p.stack.top(); parent != nil {
			parent.directChildCount++
			parent.rowsSinceOpen++
		}
		return nil

	case kdltok.String:
		loc := uint32(p.tok.TokenStartIndex)
		off, err := p.db.append(kind, loc, int32(p.tok.ValueSpan.Length))
		if err != nil {
			return err
		}
		if p.tok.ValueIsEscaped {
			p.db.setHasComplexChildren(off)
		}
		p.recordSimpleChild()
		return nil

	default: // Number, True, False, Null
		loc := uint32(p.tok.TokenStartIndex)
		if _, err := p.db.append(kind, loc, int32(p.tok.ValueSpan.Length)); err != nil {
			return err
		}
		p.recordSimpleChild()
		return nil
	}
}

// recordSimpleChild updates the enclosing frame for a value token
// (String/Number/True/False/Null). Array elements count as a direct
// child here; object property values were already counted at their
// PropertyName token.
func (p *Parser) recordSimpleChild() {
	parent := p.stack.top()
	if parent == nil {
		return
	}
	if parent.kind == kdltok.StartArray {
		parent.directChildCount++
	}
	parent.rowsSinceOpen++
}
