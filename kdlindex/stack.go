package kdlindex

import "github.com/kdldoc/kdldoc/kdltok"

// containerFrame is one entry of the parser's LIFO (spec §4.1 Parse stack):
// the counters in effect for a container between its Start* and End*
// tokens. directChildCount becomes size_or_length when the container
// closes; rowsSinceOpen is the combined row-span of every direct child
// seen so far and becomes number_of_rows (minus the Start/End rows
// themselves) at close time. See DESIGN.md's open-question notes for why
// this single counter replaces the two asymmetrically-reset counters
// spec.md's prose names.
type containerFrame struct {
	kind              kdltok.Kind
	startOffset       int
	directChildCount  int
	rowsSinceOpen     int
	hasContainerChild bool
}

// parseStack is a simple growable LIFO of containerFrame, one pushed per
// open container and popped when its matching End* token is seen.
type parseStack struct {
	frames []containerFrame
}

func newParseStack() *parseStack {
	return &parseStack{frames: make([]containerFrame, 0, 16)}
}

func (s *parseStack) push(f containerFrame) {
	s.frames = append(s.frames, f)
}

func (s *parseStack) pop() containerFrame {
	n := len(s.frames) - 1
	f := s.frames[n]
	s.frames = s.frames[:n]
	return f
}

func (s *parseStack) top() *containerFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

func (s *parseStack) empty() bool {
	return len(s.frames) == 0
}
