package saga

import (
	"github.com/tidwall/btree"
)

// Context is the state of one in-flight saga execution: its compensation
// stack, the outputs of completed steps and its journal. It exists only for
// the duration of Executor.Execute and the inspection of its result.
type Context struct {
	ID   ID
	Saga Name

	stack   *Stack
	outputs *btree.Map[StepName, any]
	journal *Journal
	current StepName
}

func newContext(name Name, registry *ActionRegistry, params any) *Context {
	id := NewID()
	c := &Context{
		ID:      id,
		Saga:    name,
		stack:   NewStack(registry),
		outputs: btree.NewMap[StepName, any](8),
		journal: NewJournal(id),
	}
	c.outputs.Set(ParamsStep, params)
	return c
}

// Push records the compensation for a mutation made by the running step.
func (c *Context) Push(r Record) {
	r.Step = c.current
	c.stack.Push(r)
}

// Set stores the output of the running step.
func (c *Context) Set(v any) {
	c.outputs.Set(c.current, v)
}

// Stack returns the compensation stack.
func (c *Context) Stack() *Stack {
	return c.stack
}

// Journal returns the journal.
func (c *Context) Journal() *Journal {
	return c.journal
}

// Lookup retrieves the output stored by step (or the saga parameters, for
// ParamsStep). It returns false if there is no output or it is not a T.
func Lookup[T any](c *Context, step StepName) (T, bool) {
	var zero T
	v, ok := c.outputs.Get(step)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
