package saga

import (
	"fmt"
)

// RegistryError is returned when an ActionRegistry has no handler for a kind.
type RegistryError struct {
	error
	Kind ActionKind
}

// NotFoundError indicates that no undo handler is registered for kind.
func NotFoundError(kind ActionKind) error {
	return &RegistryError{error: fmt.Errorf("no undo handler registered for '%s'", kind), Kind: kind}
}

// UndoError represents a failed compensation.
type UndoError struct {
	error
}

// PayloadMismatch indicates that a Record's payload does not have the type its
// handler was registered with.
func PayloadMismatch(kind ActionKind, want, got any) error {
	return &UndoError{fmt.Errorf("payload for '%s' has type %T, want %T", kind, got, want)}
}

// UndoPanicked wraps a value recovered from a panicking undo handler.
func UndoPanicked(kind ActionKind, v any) error {
	return &UndoError{fmt.Errorf("undo handler for '%s' panicked: %v", kind, v)}
}

// StepError is returned by Executor.Execute when a step fails. It carries the
// outcome of the unwind that followed and unwraps to the step's own error.
type StepError struct {
	Saga Name
	ID   ID
	Step StepName
	Err  error
	Log  *UnwindLog
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga %s (%s) failed at step %s: %v", e.Saga, e.ID, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
