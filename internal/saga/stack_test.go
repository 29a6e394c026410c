package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackUnwindIsLIFO(t *testing.T) {
	registry := NewActionRegistry()
	var order []int
	require.NoError(t, Register(registry, "append", func(_ context.Context, n int) error {
		order = append(order, n)
		return nil
	}))

	stack := NewStack(registry)
	for i := 1; i <= 3; i++ {
		stack.Push(Record{Kind: "append", Payload: i})
	}

	log := stack.Unwind(context.Background())

	assert.Equal(t, []int{3, 2, 1}, order)
	require.Equal(t, 3, log.Len())
	assert.Equal(t, 2, log.Outcomes[0].Index)
	assert.Equal(t, 0, log.Outcomes[2].Index)
	assert.True(t, log.Clean())
}

func TestStackUnwindIsolatesFailures(t *testing.T) {
	registry := NewActionRegistry()
	var ran []string
	require.NoError(t, Register(registry, "ok", func(_ context.Context, name string) error {
		ran = append(ran, name)
		return nil
	}))
	require.NoError(t, Register(registry, "boom", func(_ context.Context, name string) error {
		ran = append(ran, name)
		return errors.New("remote said no")
	}))
	require.NoError(t, Register(registry, "panic", func(_ context.Context, name string) error {
		ran = append(ran, name)
		panic("nil map")
	}))

	stack := NewStack(registry)
	stack.Push(Record{Kind: "ok", Payload: "first"})
	stack.Push(Record{Kind: "boom", Payload: "second"})
	stack.Push(Record{Kind: "panic", Payload: "third"})
	stack.Push(Record{Kind: "unregistered", Payload: "fourth"})
	stack.Push(Record{Kind: "ok", Payload: 5})

	var log *UnwindLog
	require.NotPanics(t, func() { log = stack.Unwind(context.Background()) })

	assert.Equal(t, []string{"third", "second", "first"}, ran)
	require.Equal(t, 5, log.Len())
	assert.Len(t, log.Failed(), 4)
	assert.False(t, log.Clean())

	var undoErr *UndoError
	assert.ErrorAs(t, log.Outcomes[0].Err, &undoErr, "payload type mismatch")

	var regErr *RegistryError
	require.ErrorAs(t, log.Outcomes[1].Err, &regErr)
	assert.Equal(t, ActionKind("unregistered"), regErr.Kind)

	assert.ErrorAs(t, log.Outcomes[2].Err, &undoErr, "panic")
	assert.Contains(t, log.Outcomes[2].Err.Error(), "nil map")
	assert.EqualError(t, log.Outcomes[3].Err, "remote said no")
	assert.Equal(t, OutcomeSucceeded, log.Outcomes[4].Status)
}

func TestStackUnwindEmpty(t *testing.T) {
	log := NewStack(NewActionRegistry()).Unwind(context.Background())
	assert.Equal(t, 0, log.Len())
	assert.True(t, log.Clean())
	assert.Equal(t, "No compensations required", log.String())
}

func TestStackRecordsIsACopy(t *testing.T) {
	stack := NewStack(NewActionRegistry())
	stack.Push(Record{Kind: "a"})

	records := stack.Records()
	records[0].Kind = "b"

	assert.Equal(t, ActionKind("a"), stack.Records()[0].Kind)
	assert.Equal(t, 1, stack.Len())
}
