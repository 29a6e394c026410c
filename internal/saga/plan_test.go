package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *Context) error { return nil }

func TestPlanBuilderOrdersSteps(t *testing.T) {
	b := NewPlanBuilder("merge")
	require.NoError(t, b.Append(Step{Name: "validate", Reaches: "Validated", Do: noop}))
	require.NoError(t, b.Append(Step{Name: "fetch", Label: "Fetch organizations", Reaches: "Fetched", Do: noop}))
	require.NoError(t, b.Append(Step{Name: "apply", Reaches: "Applied", Do: noop}))

	plan, err := b.Build()
	require.NoError(t, err)

	var names []StepName
	for _, s := range plan.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []StepName{"validate", "fetch", "apply"}, names)
	assert.Equal(t, Name("merge"), plan.Name())

	dot, err := plan.ExportToDot()
	require.NoError(t, err)
	assert.Contains(t, dot, "digraph merge")
	assert.Contains(t, dot, `"Fetch organizations -> Fetched"`)
	assert.Contains(t, dot, "validate -> fetch")
}

func TestPlanBuilderRejects(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want string
	}{
		{name: "empty name", step: Step{Reaches: "X", Do: noop}, want: "empty"},
		{name: "reserved name", step: Step{Name: ParamsStep, Reaches: "X", Do: noop}, want: "reserved"},
		{name: "duplicate", step: Step{Name: "first", Reaches: "X", Do: noop}, want: "already exists"},
		{name: "no func", step: Step{Name: "second", Reaches: "X"}, want: "no function"},
		{name: "no state", step: Step{Name: "second", Do: noop}, want: "does not name"},
		{name: "reserved state", step: Step{Name: "second", Reaches: StateCommitted, Do: noop}, want: "reserved state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewPlanBuilder("p")
			require.NoError(t, b.Append(Step{Name: "first", Reaches: "First", Do: noop}))
			assert.ErrorContains(t, b.Append(tt.step), tt.want)
		})
	}

	_, err := NewPlanBuilder("empty").Build()
	assert.ErrorContains(t, err, "no steps")
}
