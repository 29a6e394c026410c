package saga

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fortressi/orgmanager/internal/saga/dag"
	"github.com/fortressi/orgmanager/internal/saga/set"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/topo"
)

// ParamsStep is the reserved step name under which Execute stores the saga
// parameters. Steps read them with Lookup.
const ParamsStep StepName = "params"

// StepFunc performs one forward step. It reads earlier outputs from sc,
// pushes the compensation for any remote mutation it makes, and stores its
// own output with sc.Set.
type StepFunc func(ctx context.Context, sc *Context) error

// Step is a node in a Plan.
type Step struct {
	Name  StepName
	Label string
	// Reaches is the state the saga is in once the step succeeds.
	Reaches State
	Do      StepFunc
}

// Plan is an immutable, ordered description of a saga. A Plan is built once
// and may be executed concurrently by any number of requests.
type Plan struct {
	name  Name
	graph *dag.Graph
	order []Step
}

// Name returns the saga name.
func (p *Plan) Name() Name {
	return p.name
}

// Steps returns the steps in execution order.
func (p *Plan) Steps() []Step {
	return append([]Step(nil), p.order...)
}

// ExportToDot renders the plan as a Graphviz digraph.
func (p *Plan) ExportToDot() (string, error) {
	return p.graph.ExportToDot(string(p.name))
}

// PlanBuilder builds a Plan by appending steps; each appended step depends on
// the one appended before it.
type PlanBuilder struct {
	name  Name
	graph *dag.Graph
	steps map[int64]Step
	last  *int64
	names *set.Set[StepName]
}

// NewPlanBuilder creates a PlanBuilder for a saga called name.
func NewPlanBuilder(name Name) *PlanBuilder {
	return &PlanBuilder{
		name:  name,
		graph: dag.New(),
		steps: make(map[int64]Step),
		names: &set.Set[StepName]{},
	}
}

// Append adds step after the most recently appended one.
func (b *PlanBuilder) Append(step Step) error {
	switch {
	case step.Name == "":
		return errors.New("step name is empty")
	case step.Name == ParamsStep:
		return fmt.Errorf("step name '%s' is reserved", ParamsStep)
	case b.names.Contains(step.Name):
		return fmt.Errorf("step with name '%s' already exists", step.Name)
	case step.Do == nil:
		return fmt.Errorf("step '%s' has no function", step.Name)
	case step.Reaches == "":
		return fmt.Errorf("step '%s' does not name the state it reaches", step.Name)
	}
	switch step.Reaches {
	case StateStart, StateCommitted, StateCompensating, StateFailed:
		return fmt.Errorf("step '%s' cannot reach the reserved state %s", step.Name, step.Reaches)
	}
	b.names.Insert(step.Name)

	node := b.graph.NewNode(string(step.Name))
	label := string(step.Name)
	if step.Label != "" {
		label = step.Label
	}
	if err := node.SetAttribute(encoding.Attribute{Key: "label", Value: label + " -> " + string(step.Reaches)}); err != nil {
		return fmt.Errorf("labelling step '%s': %w", step.Name, err)
	}
	b.graph.AddNode(node)
	b.steps[node.ID()] = step

	if b.last != nil {
		if err := b.graph.Connect(*b.last, node.ID()); err != nil {
			return fmt.Errorf("append '%s': %w", step.Name, err)
		}
	}
	id := node.ID()
	b.last = &id
	return nil
}

// Build orders the appended steps and returns the Plan.
func (b *PlanBuilder) Build() (*Plan, error) {
	if b.names.Len() == 0 {
		return nil, fmt.Errorf("plan '%s' has no steps", b.name)
	}

	sorted, err := topo.SortStabilized(b.graph, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return nodes[i].ID() < nodes[j].ID()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("ordering plan '%s': %w", b.name, err)
	}

	order := make([]Step, len(sorted))
	for i, n := range sorted {
		order[i] = b.steps[n.ID()]
	}
	return &Plan{name: b.name, graph: b.graph, order: order}, nil
}
