package saga

import "github.com/google/uuid"

// ID identifies a single saga execution.
type ID struct {
	UUID uuid.UUID
}

// NewID returns a fresh random ID.
func NewID() ID {
	return ID{UUID: uuid.New()}
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return id.UUID.String()
}

// Name is a human-readable name for a kind of saga, e.g. "acquire".
type Name string

// String returns the string representation of the Name.
func (n Name) String() string {
	return string(n)
}

// StepName uniquely names a step within a Plan.
type StepName string

// ActionKind names a kind of compensation. It selects the undo handler in an
// ActionRegistry.
type ActionKind string
