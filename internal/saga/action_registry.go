package saga

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// UndoFunc reverses the effect of a forward step given the pre-image payload
// captured when its Record was pushed.
type UndoFunc func(ctx context.Context, payload any) error

// ActionRegistry is the dispatch table from ActionKind to undo handler.
// Handlers are registered once and shared by concurrent saga executions.
type ActionRegistry struct {
	actions *xsync.MapOf[ActionKind, UndoFunc]
}

// NewActionRegistry creates an empty ActionRegistry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		actions: xsync.NewMapOf[ActionKind, UndoFunc](),
	}
}

// Register adds an undo handler for kind.
func (r *ActionRegistry) Register(kind ActionKind, fn UndoFunc) error {
	if fn == nil {
		return fmt.Errorf("undo handler for '%s' is nil", kind)
	}
	if _, loaded := r.actions.LoadOrStore(kind, fn); loaded {
		return fmt.Errorf("action with kind '%s' already registered", kind)
	}
	return nil
}

// Get retrieves the undo handler registered for kind.
func (r *ActionRegistry) Get(kind ActionKind) (UndoFunc, error) {
	fn, ok := r.actions.Load(kind)
	if !ok {
		return nil, NotFoundError(kind)
	}
	return fn, nil
}

// Kinds returns the number of registered kinds.
func (r *ActionRegistry) Kinds() int {
	return r.actions.Size()
}

// Register adds a typed undo handler for kind. A record pushed with a payload
// of any other type fails its unwind with a PayloadMismatch error.
func Register[P any](r *ActionRegistry, kind ActionKind, fn func(ctx context.Context, payload P) error) error {
	return r.Register(kind, func(ctx context.Context, payload any) error {
		typed, ok := payload.(P)
		if !ok {
			var want P
			return PayloadMismatch(kind, want, payload)
		}
		return fn(ctx, typed)
	})
}
