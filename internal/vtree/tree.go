package vtree

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
)

// OpKind identifies a staged operation.
type OpKind int

const (
	OpCreate OpKind = iota
	OpOverwrite
	OpMove
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpOverwrite:
		return "overwrite"
	case OpMove:
		return "move"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is one staged operation. To is only used by OpMove.
type Op struct {
	Kind    OpKind
	Path    string
	To      string
	Content []byte
}

// Tree is a staged view over a Store: an ordered log of operations on top of
// a base snapshot read lazily from the store. Nothing touches the store until
// Commit.
type Tree struct {
	store Store
	ops   []Op

	mu        sync.Mutex
	base      map[string][]byte // snapshot cache; nil value = absent
	committed bool
}

// New creates an empty tree over store.
func New(store Store) *Tree {
	return &Tree{
		store: store,
		base:  make(map[string][]byte),
	}
}

// Stage appends an operation. It never fails; validity is checked at commit.
func (t *Tree) Stage(op Op) {
	op.Path = Clean(op.Path)
	if op.Kind == OpMove {
		op.To = Clean(op.To)
	}
	if op.Content != nil {
		op.Content = append([]byte(nil), op.Content...)
	}
	t.ops = append(t.ops, op)
}

// Create stages a new file.
func (t *Tree) Create(path string, content []byte) {
	if content == nil {
		content = []byte{}
	}
	t.Stage(Op{Kind: OpCreate, Path: path, Content: content})
}

// Overwrite stages new content for an existing file.
func (t *Tree) Overwrite(path string, content []byte) {
	if content == nil {
		content = []byte{}
	}
	t.Stage(Op{Kind: OpOverwrite, Path: path, Content: content})
}

// Move stages a rename.
func (t *Tree) Move(from, to string) {
	t.Stage(Op{Kind: OpMove, Path: from, To: to})
}

// Delete stages a removal.
func (t *Tree) Delete(path string) {
	t.Stage(Op{Kind: OpDelete, Path: path})
}

// Ops returns a copy of the staged log.
func (t *Tree) Ops() []Op {
	return append([]Op(nil), t.ops...)
}

// Read returns the most recently staged content for path, else the base
// content. It fails with errs.NotFound when neither exists.
func (t *Tree) Read(path string) ([]byte, error) {
	path = Clean(path)
	content, ok, err := t.resolve(path, len(t.ops))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.New(errs.KindNotFound, path, "file does not exist")
	}
	return append([]byte(nil), content...), nil
}

// Exists reports whether path resolves to a file.
func (t *Tree) Exists(path string) bool {
	_, ok, err := t.resolve(Clean(path), len(t.ops))
	return err == nil && ok
}

// resolve walks the log backwards from upto to find the latest state of path.
func (t *Tree) resolve(path string, upto int) ([]byte, bool, error) {
	for i := upto - 1; i >= 0; i-- {
		op := t.ops[i]
		switch op.Kind {
		case OpCreate, OpOverwrite:
			if op.Path == path {
				return op.Content, true, nil
			}
		case OpDelete:
			if op.Path == path {
				return nil, false, nil
			}
		case OpMove:
			if op.Path == op.To {
				continue
			}
			if op.To == path {
				return t.resolve(op.Path, i)
			}
			if op.Path == path {
				return nil, false, nil
			}
		}
	}
	return t.readBase(path)
}

// readBase reads and caches path from the store.
func (t *Tree) readBase(path string) ([]byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if content, ok := t.base[path]; ok {
		return content, content != nil, nil
	}

	content, err := t.store.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.base[path] = nil
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if content == nil {
		content = []byte{}
	}
	t.base[path] = content
	return content, true, nil
}

// Action is the net effect of the staged log on one path.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "Create"
	case ActionUpdate:
		return "Update"
	case ActionDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Change is the collapsed plan for one path.
type Change struct {
	Action Action
	Path   string
	Before []byte // nil when the file did not exist
	After  []byte // nil for deletes
}

// Description returns a one-line summary for terminal output.
func (c Change) Description() string {
	switch c.Action {
	case ActionDelete:
		return fmt.Sprintf("Delete %s", c.Path)
	default:
		return fmt.Sprintf("%s %s (%d bytes)", c.Action, c.Path, len(c.After))
	}
}

// state is the replayed view of one path during planning.
type state struct {
	exists  bool
	content []byte
	touched bool
}

// Changes validates the staged log and collapses it to one Change per
// touched path, in first-touch order. Paths whose final content equals the
// base are omitted. Collisions are resolved by strategy (nil = fail).
func (t *Tree) Changes(strategy ConflictStrategy) ([]Change, error) {
	if strategy == nil {
		strategy = FailStrategy{}
	}

	states := make(map[string]*state)
	var order []string

	get := func(path string) (*state, error) {
		if st, ok := states[path]; ok {
			return st, nil
		}
		content, ok, err := t.readBase(path)
		if err != nil {
			return nil, err
		}
		st := &state{exists: ok, content: content}
		states[path] = st
		order = append(order, path)
		return st, nil
	}

	for i, op := range t.ops {
		st, err := get(op.Path)
		if err != nil {
			return nil, err
		}

		switch op.Kind {
		case OpCreate:
			if st.exists && !st.touched {
				res, err := strategy.Resolve(op.Path, st.content, op.Content)
				if err != nil {
					return nil, err
				}
				switch res {
				case Skip:
					st.touched = true
					continue
				case Overwrite:
				default:
					return nil, errs.New(errs.KindCollision, op.Path, "file already exists (use --force to overwrite)")
				}
			}
			st.exists, st.content, st.touched = true, op.Content, true

		case OpOverwrite:
			if !st.exists {
				return nil, errs.New(errs.KindNotFound, op.Path, "cannot overwrite missing file (op %d)", i)
			}
			st.content, st.touched = op.Content, true

		case OpDelete:
			if !st.exists {
				return nil, errs.New(errs.KindNotFound, op.Path, "cannot delete missing file (op %d)", i)
			}
			st.exists, st.content, st.touched = false, nil, true

		case OpMove:
			if !st.exists {
				return nil, errs.New(errs.KindNotFound, op.Path, "cannot move missing file (op %d)", i)
			}
			if op.Path == op.To {
				continue
			}
			dst, err := get(op.To)
			if err != nil {
				return nil, err
			}
			if dst.exists && !dst.touched {
				return nil, errs.New(errs.KindCollision, op.To, "move destination already exists")
			}
			dst.exists, dst.content, dst.touched = true, st.content, true
			st.exists, st.content, st.touched = false, nil, true
		}
	}

	var changes []Change
	for _, path := range order {
		st := states[path]
		if !st.touched {
			continue
		}
		before, existed, err := t.readBase(path)
		if err != nil {
			return nil, err
		}
		switch {
		case existed && !st.exists:
			changes = append(changes, Change{Action: ActionDelete, Path: path, Before: before})
		case !existed && st.exists:
			changes = append(changes, Change{Action: ActionCreate, Path: path, After: st.content})
		case existed && st.exists && !bytes.Equal(before, st.content):
			changes = append(changes, Change{Action: ActionUpdate, Path: path, Before: before, After: st.content})
		}
	}
	return changes, nil
}
