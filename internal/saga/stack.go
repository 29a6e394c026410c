package saga

import (
	"context"
)

// Record describes how to undo one forward step: which handler to run and the
// pre-image data it needs.
type Record struct {
	Kind    ActionKind
	Payload any

	// Step is the step that pushed the record. Context.Push fills it in.
	Step StepName
}

// Stack is the ordered list of compensations accumulated by one saga
// execution. It is owned by a single goroutine.
type Stack struct {
	registry *ActionRegistry
	records  []Record
}

// NewStack creates an empty Stack dispatching through registry.
func NewStack(registry *ActionRegistry) *Stack {
	return &Stack{registry: registry}
}

// Push appends r to the stack.
func (s *Stack) Push(r Record) {
	s.records = append(s.records, r)
}

// Len returns the number of pushed records.
func (s *Stack) Len() int {
	return len(s.records)
}

// Records returns a copy of the pushed records in push order.
func (s *Stack) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Unwind runs every pushed record, last pushed first. A failing or panicking
// compensation is recorded and the remaining ones still run. Unwind never
// fails; the returned log has exactly one outcome per pushed record, in the
// order the compensations ran.
func (s *Stack) Unwind(ctx context.Context) *UnwindLog {
	log := &UnwindLog{Outcomes: make([]Outcome, 0, len(s.records))}
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		err := s.undo(ctx, r)
		outcome := Outcome{Index: i, Step: r.Step, Kind: r.Kind, Status: OutcomeSucceeded}
		if err != nil {
			outcome.Status = OutcomeFailed
			outcome.Err = err
		}
		log.Outcomes = append(log.Outcomes, outcome)
	}
	return log
}

func (s *Stack) undo(ctx context.Context, r Record) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = UndoPanicked(r.Kind, v)
		}
	}()

	fn, err := s.registry.Get(r.Kind)
	if err != nil {
		return err
	}
	return fn(ctx, r.Payload)
}
