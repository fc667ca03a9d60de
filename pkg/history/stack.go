// Package history implements the undo/redo command stack shared by the
// column and canvas layout modes.
//
// Every user-visible mutation is wrapped in an [Action] that closes over
// enough prior state to be exactly reversible. Actions are executed through
// a [Stack], which keeps two LIFO stacks:
//
//	stack := history.New(0)
//	stack.Execute(history.Func("Move block", do, undo))
//	stack.Undo() // runs undo, moves the action to the redo stack
//	stack.Redo() // runs do again, moves it back
//
// Executing a new action clears the redo stack. History is memory-only: the
// closures reference live state and are not persisted.
package history

// Action is a reversible command.
//
// Do applies the change to live state; Undo reverts it. Both must be
// idempotent with respect to state they do not own, and must tolerate
// targets that disappeared in the meantime (treat them as no-ops).
type Action interface {
	Label() string
	Do()
	Undo()
}

type funcAction struct {
	label    string
	do, undo func()
}

func (a funcAction) Label() string { return a.label }
func (a funcAction) Do()           { a.do() }
func (a funcAction) Undo()         { a.undo() }

// Func builds an Action from a pair of closures.
func Func(label string, do, undo func()) Action {
	if do == nil {
		do = func() {}
	}
	if undo == nil {
		undo = func() {}
	}
	return funcAction{label: label, do: do, undo: undo}
}

// Stack is an undo/redo command stack. It is not safe for concurrent use.
type Stack struct {
	undo  []Action
	redo  []Action
	limit int

	onChange func()
}

// New creates an empty stack. A positive limit caps the undo depth; the
// oldest entries are dropped first. Zero means unbounded.
func New(limit int) *Stack {
	if limit < 0 {
		limit = 0
	}
	return &Stack{limit: limit}
}

// OnChange registers a callback invoked after every Execute, Undo, Redo or
// Clear that changed the stack.
func (s *Stack) OnChange(fn func()) {
	s.onChange = fn
}

// Execute runs a.Do, pushes a onto the undo stack and discards any pending
// redo history.
func (s *Stack) Execute(a Action) {
	if a == nil {
		return
	}
	a.Do()
	s.undo = append(s.undo, a)
	if s.limit > 0 && len(s.undo) > s.limit {
		drop := len(s.undo) - s.limit
		clear(s.undo[:drop])
		s.undo = s.undo[drop:]
	}
	clear(s.redo)
	s.redo = s.redo[:0]
	s.changed()
}

// Undo reverts the most recent action. It reports false when there is
// nothing to undo.
func (s *Stack) Undo() bool {
	n := len(s.undo)
	if n == 0 {
		return false
	}
	a := s.undo[n-1]
	s.undo[n-1] = nil
	s.undo = s.undo[:n-1]

	a.Undo()
	s.redo = append(s.redo, a)
	s.changed()
	return true
}

// Redo re-applies the most recently undone action. It reports false when
// there is nothing to redo.
func (s *Stack) Redo() bool {
	n := len(s.redo)
	if n == 0 {
		return false
	}
	a := s.redo[n-1]
	s.redo[n-1] = nil
	s.redo = s.redo[:n-1]

	a.Do()
	s.undo = append(s.undo, a)
	s.changed()
	return true
}

// CanUndo reports whether Undo would do anything.
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// UndoLabel returns the label of the action Undo would revert.
func (s *Stack) UndoLabel() string {
	if len(s.undo) == 0 {
		return ""
	}
	return s.undo[len(s.undo)-1].Label()
}

// RedoLabel returns the label of the action Redo would re-apply.
func (s *Stack) RedoLabel() string {
	if len(s.redo) == 0 {
		return ""
	}
	return s.redo[len(s.redo)-1].Label()
}

// Len returns the depth of the undo and redo stacks.
func (s *Stack) Len() (undo, redo int) {
	return len(s.undo), len(s.redo)
}

// Clear drops all history.
func (s *Stack) Clear() {
	if len(s.undo) == 0 && len(s.redo) == 0 {
		return
	}
	s.undo = nil
	s.redo = nil
	s.changed()
}

func (s *Stack) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
