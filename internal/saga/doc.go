// Package saga runs multi-step business transactions against remote services
// that share no transaction, undoing completed steps when a later one fails.
//
// Overview
//
//  1. Register undo handlers for each compensation kind in an ActionRegistry
//     (see Register).
//  2. Describe the saga as a Plan: build it with a PlanBuilder by appending
//     Steps in the order they must run. Each Step names the State the saga
//     reaches once it succeeds.
//  3. Inside a step, push a Record onto the Context before (or after) the
//     remote mutation it reverses. A Record carries the pre-image needed to
//     undo the mutation; nothing is recomputed at unwind time.
//  4. Run the plan with an Executor. On the first failing step the Stack is
//     unwound in LIFO order and a *StepError is returned carrying the
//     UnwindLog of every compensation attempt.
//
// A saga lives for the duration of one call to Executor.Execute and is never
// persisted.
package saga
