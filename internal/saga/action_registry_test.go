package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRegistry(t *testing.T) {
	registry := NewActionRegistry()

	require.NoError(t, registry.Register("noop", func(context.Context, any) error { return nil }))
	assert.Equal(t, 1, registry.Kinds())

	err := registry.Register("noop", func(context.Context, any) error { return nil })
	assert.ErrorContains(t, err, "already registered")

	assert.ErrorContains(t, registry.Register("nil", nil), "is nil")

	fn, err := registry.Get("noop")
	require.NoError(t, err)
	assert.NoError(t, fn(context.Background(), nil))

	_, err = registry.Get("missing")
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, ActionKind("missing"), regErr.Kind)
}

type turnoverPayload struct {
	ID       int64
	Turnover float32
}

func TestRegisterTyped(t *testing.T) {
	registry := NewActionRegistry()

	var got turnoverPayload
	require.NoError(t, Register(registry, "restore", func(_ context.Context, p turnoverPayload) error {
		got = p
		return nil
	}))

	fn, err := registry.Get("restore")
	require.NoError(t, err)

	require.NoError(t, fn(context.Background(), turnoverPayload{ID: 1, Turnover: 100}))
	assert.Equal(t, turnoverPayload{ID: 1, Turnover: 100}, got)

	err = fn(context.Background(), &turnoverPayload{})
	var undoErr *UndoError
	require.ErrorAs(t, err, &undoErr)
	assert.Contains(t, err.Error(), "*saga.turnoverPayload")
}
