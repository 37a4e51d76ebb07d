package classify

import "fmt"

// State is the traversal state of a Stack.
type State int

const (
	Idle State = iota
	InFile
	InClass
	InFunctionBody
	FileDone
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFile:
		return "in-file"
	case InClass:
		return "in-class"
	case InFunctionBody:
		return "in-function-body"
	case FileDone:
		return "file-done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type frameKind uint8

const (
	classFrame frameKind = iota
	functionFrame
)

type frame struct {
	kind   frameKind
	id     string // dotted class id, classFrame only
	simple string
}

// Stack tracks the enclosing scopes of the node being visited.
type Stack struct {
	frames    []frame
	functions int
	state     State
}

// Begin moves an idle stack into the file.
func (s *Stack) Begin() {
	if s.state != Idle {
		panic("classify: Begin on " + s.state.String() + " stack")
	}
	s.state = InFile
}

// End finishes the file. Every pushed scope must have been popped.
func (s *Stack) End() {
	if s.state != InFile {
		panic("classify: End on " + s.state.String() + " stack")
	}
	s.state = FileDone
}

// PushClass enters the body of the class called name.
func (s *Stack) PushClass(name string) {
	s.mustBeOpen("PushClass")
	id := name
	if outer := s.Class(); outer != "" {
		id = outer + "." + name
	}
	s.frames = append(s.frames, frame{kind: classFrame, id: id, simple: name})
	s.refresh()
}

// PushFunction enters a function or lambda body.
func (s *Stack) PushFunction() {
	s.mustBeOpen("PushFunction")
	s.frames = append(s.frames, frame{kind: functionFrame})
	s.functions++
	s.refresh()
}

// Pop leaves the innermost scope.
func (s *Stack) Pop() {
	if len(s.frames) == 0 {
		panic("classify: Pop on empty stack")
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	if top.kind == functionFrame {
		s.functions--
	}
	s.refresh()
}

// State returns the current traversal state.
func (s *Stack) State() State {
	return s.state
}

// Depth returns the number of open scopes.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Class returns the dotted id of the class whose body is the innermost scope,
// or "" when the innermost scope is not a class body.
func (s *Stack) Class() string {
	if n := len(s.frames); n > 0 && s.frames[n-1].kind == classFrame {
		return s.frames[n-1].id
	}
	return ""
}

// ClassName returns the undotted name matching Class.
func (s *Stack) ClassName() string {
	if n := len(s.frames); n > 0 && s.frames[n-1].kind == classFrame {
		return s.frames[n-1].simple
	}
	return ""
}

// InFunctionBody reports whether any enclosing scope is a function body.
func (s *Stack) InFunctionBody() bool {
	return s.functions > 0
}

func (s *Stack) mustBeOpen(op string) {
	if s.state == Idle || s.state == FileDone {
		panic("classify: " + op + " on " + s.state.String() + " stack")
	}
}

func (s *Stack) refresh() {
	switch {
	case s.functions > 0:
		s.state = InFunctionBody
	case len(s.frames) > 0:
		s.state = InClass
	default:
		s.state = InFile
	}
}
