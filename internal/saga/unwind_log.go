package saga

import (
	"fmt"
	"strings"
)

// OutcomeStatus is the result of one compensation attempt.
type OutcomeStatus int

const (
	OutcomeSucceeded OutcomeStatus = iota
	OutcomeFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Unknown OutcomeStatus: %d", s)
	}
}

// Outcome records how the compensation pushed at Index fared.
type Outcome struct {
	Index  int
	Step   StepName
	Kind   ActionKind
	Status OutcomeStatus
	Err    error
}

func (o Outcome) String() string {
	if o.Status == OutcomeFailed {
		return fmt.Sprintf("Compensation %d (%s) failed: %v", o.Index, o.Kind, o.Err)
	}
	return fmt.Sprintf("Compensation %d (%s) succeeded", o.Index, o.Kind)
}

// UnwindLog is the diagnostic returned by Stack.Unwind.
type UnwindLog struct {
	Outcomes []Outcome
}

// Len returns the number of attempted compensations.
func (l *UnwindLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Outcomes)
}

// Failed returns the outcomes whose compensation failed.
func (l *UnwindLog) Failed() []Outcome {
	if l == nil {
		return nil
	}
	var failed []Outcome
	for _, o := range l.Outcomes {
		if o.Status == OutcomeFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Clean reports whether every compensation succeeded.
func (l *UnwindLog) Clean() bool {
	return len(l.Failed()) == 0
}

// String renders the log one line per compensation, headed by a count.
func (l *UnwindLog) String() string {
	if l.Len() == 0 {
		return "No compensations required"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Performing %d compensation(s)", len(l.Outcomes))
	for _, o := range l.Outcomes {
		sb.WriteString("\n")
		sb.WriteString(o.String())
	}
	return sb.String()
}
