// Command kdldump parses a KDL/JSON-superset document and re-emits it as
// indented JSON, exercising kdlindex.Parse and Element.WriteTo end to end.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/kdldoc/kdldoc/kdlindex"
)

// indentWriter renders a WriteTo walk as indented JSON text. It is the
// demo-side replacement for the teacher's utils.PrettyPrint: where that
// helper re-marshaled an already-built AST through encoding/json, this
// walks kdlindex's row stream directly and writes text as it goes.
type indentWriter struct {
	buf    bytes.Buffer
	depth  int
	stack  []bool // per open container: has a prior member/element been written
	atProp []bool // per open container: true immediately after a property name
}

func newIndentWriter() *indentWriter {
	return &indentWriter{}
}

func (w *indentWriter) newline() {
	w.buf.WriteByte('\n')
	for i := 0; i < w.depth; i++ {
		w.buf.WriteString("  ")
	}
}

func (w *indentWriter) beforeValue() {
	n := len(w.stack)
	if n == 0 {
		return
	}
	if w.atProp[n-1] {
		w.atProp[n-1] = false
		w.buf.WriteByte(' ')
		return
	}
	if w.stack[n-1] {
		w.buf.WriteByte(',')
	}
	w.stack[n-1] = true
	w.newline()
}

func (w *indentWriter) WriteStartObject() error {
	w.beforeValue()
	w.buf.WriteByte('{')
	w.depth++
	w.stack = append(w.stack, false)
	w.atProp = append(w.atProp, false)
	return nil
}

func (w *indentWriter) WriteEndObject() error {
	hadMembers := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.atProp = w.atProp[:len(w.atProp)-1]
	w.depth--
	if hadMembers {
		w.newline()
	}
	w.buf.WriteByte('}')
	return nil
}

func (w *indentWriter) WriteStartArray() error {
	w.beforeValue()
	w.buf.WriteByte('[')
	w.depth++
	w.stack = append(w.stack, false)
	w.atProp = append(w.atProp, false)
	return nil
}

func (w *indentWriter) WriteEndArray() error {
	hadElements := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.atProp = w.atProp[:len(w.atProp)-1]
	w.depth--
	if hadElements {
		w.newline()
	}
	w.buf.WriteByte(']')
	return nil
}

func (w *indentWriter) WritePropertyName(name []byte) error {
	n := len(w.stack)
	if w.stack[n-1] {
		w.buf.WriteByte(',')
	}
	w.stack[n-1] = true
	w.newline()
	fmt.Fprintf(&w.buf, "%q", name)
	w.buf.WriteByte(':')
	w.atProp[n-1] = true
	return nil
}

func (w *indentWriter) WriteStringValue(raw []byte) error {
	w.beforeValue()
	fmt.Fprintf(&w.buf, "%q", raw)
	return nil
}

func (w *indentWriter) WriteNumberValue(raw []byte) error {
	w.beforeValue()
	w.buf.Write(raw)
	return nil
}

func (w *indentWriter) WriteBooleanValue(v bool) error {
	w.beforeValue()
	if v {
		w.buf.WriteString("true")
	} else {
		w.buf.WriteString("false")
	}
	return nil
}

func (w *indentWriter) WriteNullValue() error {
	w.beforeValue()
	w.buf.WriteString("null")
	return nil
}

func main() {
	var input []byte
	var err error
	if len(os.Args) > 1 {
		input, err = os.ReadFile(os.Args[1])
	} else {
		input, err = os.ReadFile("/dev/stdin")
	}
	if err != nil {
		log.Fatal(err)
	}

	doc, err := kdlindex.Parse(input, kdlindex.CommentModeSkip)
	if err != nil {
		log.Fatalf("parse error: %v", err)
	}
	defer doc.Dispose()

	root, err := doc.Root()
	if err != nil {
		log.Fatal(err)
	}

	w := newIndentWriter()
	if err := root.WriteTo(w); err != nil {
		log.Fatal(err)
	}
	fmt.Println(w.buf.String())
}
