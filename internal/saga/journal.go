package saga

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is a state of the saga state machine. Plans define their own
// intermediate states through Step.Reaches; the four below are common to all.
type State string

const (
	StateStart        State = "Start"
	StateCommitted    State = "Committed"
	StateCompensating State = "Compensating"
	StateFailed       State = "Failed"
)

// Terminal reports whether no further transition may leave s.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

// EventType defines the things that can happen to a step.
type EventType int

const (
	EventStarted EventType = iota
	EventSucceeded
	EventFailed
	EventUndoStarted
	EventUndoFinished
	EventUndoFailed
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	case EventUndoStarted:
		return "undo_started"
	case EventUndoFinished:
		return "undo_finished"
	case EventUndoFailed:
		return "undo_failed"
	default:
		return fmt.Sprintf("Unknown EventType: %d", t)
	}
}

// StepStatus is the status of a step derived from its events.
type StepStatus int

const (
	StepNeverStarted StepStatus = iota
	StepStarted
	StepSucceeded
	StepFailed
	StepUndoStarted
	StepUndoFinished
	StepUndoFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepNeverStarted:
		return "NeverStarted"
	case StepStarted:
		return "Started"
	case StepSucceeded:
		return "Succeeded"
	case StepFailed:
		return "Failed"
	case StepUndoStarted:
		return "UndoStarted"
	case StepUndoFinished:
		return "UndoFinished"
	case StepUndoFailed:
		return "UndoFailed"
	default:
		return fmt.Sprintf("Unknown StepStatus: %d", s)
	}
}

// next returns the status of a step after recording an event of type t.
// A step may push more than one record, and a failed step may already have
// pushed one, so undo can start from any settled status.
func (s StepStatus) next(t EventType) (StepStatus, error) {
	switch s {
	case StepNeverStarted:
		if t == EventStarted {
			return StepStarted, nil
		}
	case StepStarted:
		switch t {
		case EventSucceeded:
			return StepSucceeded, nil
		case EventFailed:
			return StepFailed, nil
		}
	case StepSucceeded, StepFailed, StepUndoFinished, StepUndoFailed:
		if t == EventUndoStarted {
			return StepUndoStarted, nil
		}
	case StepUndoStarted:
		switch t {
		case EventUndoFinished:
			return StepUndoFinished, nil
		case EventUndoFailed:
			return StepUndoFailed, nil
		}
	}
	return s, fmt.Errorf("illegal event %s for step status %s", t, s)
}

// Event is an entry in a Journal.
type Event struct {
	Step StepName
	Type EventType
	At   time.Time
}

func (e *Event) String() string {
	return fmt.Sprintf("%s %s", e.Step, e.Type)
}

// Journal records the state transitions and step events of one saga
// execution.
type Journal struct {
	mu         sync.Mutex
	sagaID     ID
	states     []State
	events     []*Event
	stepStatus map[StepName]StepStatus
}

// NewJournal creates a Journal in StateStart.
func NewJournal(sagaID ID) *Journal {
	return &Journal{
		sagaID:     sagaID,
		states:     []State{StateStart},
		stepStatus: make(map[StepName]StepStatus),
	}
}

// Transition moves the saga to state to. Terminal states cannot be left, and
// a compensating saga can only fail.
func (j *Journal) Transition(to State) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	from := j.states[len(j.states)-1]
	switch {
	case from.Terminal():
		return fmt.Errorf("illegal transition %s -> %s: %s is terminal", from, to, from)
	case from == StateCompensating && to != StateFailed:
		return fmt.Errorf("illegal transition %s -> %s", from, to)
	case to == StateFailed && from != StateCompensating:
		return fmt.Errorf("illegal transition %s -> %s: must compensate first", from, to)
	}
	j.states = append(j.states, to)
	return nil
}

// Record adds an event for step.
func (j *Journal) Record(step StepName, t EventType) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	next, err := j.stepStatus[step].next(t)
	if err != nil {
		return fmt.Errorf("step %s: %w", step, err)
	}
	j.stepStatus[step] = next
	j.events = append(j.events, &Event{Step: step, Type: t, At: time.Now()})
	return nil
}

// State returns the current state.
func (j *Journal) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.states[len(j.states)-1]
}

// States returns every state visited, in order.
func (j *Journal) States() []State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]State(nil), j.states...)
}

// Events returns the recorded events, in order.
func (j *Journal) Events() []*Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*Event(nil), j.events...)
}

// StepStatus returns the status of step.
func (j *Journal) StepStatus(step StepName) StepStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stepStatus[step]
}

// Unwinding reports whether the saga has started compensating.
func (j *Journal) Unwinding() bool {
	for _, s := range j.States() {
		if s == StateCompensating {
			return true
		}
	}
	return false
}

// String pretty-prints the journal.
func (j *Journal) String() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("SAGA JOURNAL:\n")
	fmt.Fprintf(&sb, "saga id: %s\n", j.sagaID)
	parts := make([]string, len(j.states))
	for i, s := range j.states {
		parts[i] = string(s)
	}
	fmt.Fprintf(&sb, "states:  %s\n", strings.Join(parts, " -> "))
	fmt.Fprintf(&sb, "events (%d total):\n", len(j.events))
	for i, e := range j.events {
		fmt.Fprintf(&sb, "%03d %s\n", i+1, e)
	}
	return sb.String()
}
