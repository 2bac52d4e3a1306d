// Package vtree provides an in-memory, staged view of a project tree that is
// committed to storage in one all-or-nothing step.
//
// # Staging
//
// Every mutation is appended to an ordered log; nothing is written until
// Commit. Reads see the latest staged content for a path, falling back to the
// base snapshot held by the Store:
//
//	tree := vtree.New(vtree.NewDiskStore("."))
//	tree.Create("internal/components/nav/nav.component.go", src)
//	tree.Overwrite("package.json", updated)
//
//	changes, err := tree.Commit(ctx, vtree.CommitOptions{})
//	if err != nil {
//	    // nothing was written
//	}
//
// A later operation on a path supersedes an earlier one. Creating a path
// that already exists in the store (and was not touched earlier in the log)
// is a collision, resolved by a ConflictStrategy: fail (default), --force,
// --skip, --diff, or an interactive menu.
//
// # Atomicity
//
// Commit validates the whole log before writing anything. If a write fails
// part-way, every file already written is restored from the snapshot and
// every newly created file is removed.
package vtree
