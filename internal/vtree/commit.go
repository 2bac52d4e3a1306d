package vtree

import (
	"context"
	"fmt"
)

// CommitOptions configures Commit.
type CommitOptions struct {
	// Strategy resolves creates that collide with existing files.
	// Nil fails the commit on the first collision.
	Strategy ConflictStrategy
}

// Commit applies the staged log to the store in first-touch order.
// Either every change lands or none does: if a write fails, files already
// written are restored from the base snapshot (or removed if they are new).
func (t *Tree) Commit(ctx context.Context, opts CommitOptions) ([]Change, error) {
	if t.committed {
		return nil, fmt.Errorf("tree already committed")
	}

	// Phase 1: validate and collapse
	changes, err := t.Changes(opts.Strategy)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Phase 2: apply
	applied := make([]Change, 0, len(changes))
	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			t.rollback(applied)
			return nil, fmt.Errorf("commit cancelled: %w", err)
		}

		var err error
		switch c.Action {
		case ActionDelete:
			err = t.store.Remove(c.Path)
		default:
			err = t.store.WriteFile(c.Path, c.After)
		}
		if err != nil {
			t.rollback(applied)
			return nil, fmt.Errorf("failed to %s %s: %w", c.Action, c.Path, err)
		}
		applied = append(applied, c)
	}

	t.committed = true
	return changes, nil
}

// rollback undoes applied changes in reverse order. Best effort.
func (t *Tree) rollback(applied []Change) {
	for i := len(applied) - 1; i >= 0; i-- {
		c := applied[i]
		switch c.Action {
		case ActionCreate:
			_ = t.store.Remove(c.Path)
		default:
			_ = t.store.WriteFile(c.Path, c.Before)
		}
	}
}

// Committed reports whether Commit has succeeded.
func (t *Tree) Committed() bool {
	return t.committed
}
