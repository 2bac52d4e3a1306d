// Package pipeline runs one generation request against a virtual tree:
//
//	params → render → stage files → patch registry → merge manifest → merge
//	build collections → commit
//
// A blueprint that renders no files (such as "empty") stops after rendering
// and changes nothing.
//
// Every stage reads and writes through the tree, so nothing reaches the
// store until Generate commits. Any error aborts the run with the tree's
// store untouched.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/simonhull/firebird-suite/hatch/internal/collection"
	"github.com/simonhull/firebird-suite/hatch/internal/config"
	"github.com/simonhull/firebird-suite/hatch/internal/document"
	"github.com/simonhull/firebird-suite/hatch/internal/manifest"
	"github.com/simonhull/firebird-suite/hatch/internal/output"
	"github.com/simonhull/firebird-suite/hatch/internal/params"
	"github.com/simonhull/firebird-suite/hatch/internal/patch"
	"github.com/simonhull/firebird-suite/hatch/internal/project"
	"github.com/simonhull/firebird-suite/hatch/internal/render"
	"github.com/simonhull/firebird-suite/hatch/internal/vtree"
)

// Result summarises a run.
type Result struct {
	Exported     string              // exported symbol of the generated unit
	Files        []string            // rendered paths, in render order
	Registry     *patch.Patch        // nil when no registry was patched
	Manifest     *manifest.Result    // nil when no manifest was merged
	Collections  []string            // build collections that changed
	Conflicts    []manifest.Conflict // version conflicts, reported not fatal
	NeedsInstall bool                // the manifest gained dependencies
	Changes      []vtree.Change      // set by Generate after commit
}

// Run stages the whole request in tree without committing.
func Run(ctx context.Context, tree *vtree.Tree, set params.Set, cfg *config.Config, blueprint fs.FS) (*Result, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	r := &runner{
		tree:     tree,
		set:      set,
		cfg:      cfg,
		renderer: render.NewRenderer(),
		result:   &Result{Exported: set.ExportedName(cfg.Suffix)},
	}
	r.data = map[string]any{
		"exported": r.result.Exported,
		"selector": set.Selector(cfg.SelectorPrefix),
		"package":  set.PackageName(),
		"suffix":   cfg.Suffix,
		"dir":      path.Join(set.Dir(cfg.Path), set.FileName()),
	}

	stages := []struct {
		name string
		run  func() error
	}{
		{"render", func() error { return r.render(blueprint) }},
		{"registry", r.register},
		{"manifest", r.mergeManifest},
		{"build", r.mergeCollections},
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s cancelled: %w", stage.name, err)
		}
		output.Verbose("stage: " + stage.name)
		if err := stage.run(); err != nil {
			return nil, err
		}
		// The remaining stages wire up the rendered unit.
		if stage.name == "render" && len(r.result.Files) == 0 {
			output.Verbose("nothing rendered")
			break
		}
	}
	return r.result, nil
}

// Generate runs the request and commits it.
func Generate(ctx context.Context, tree *vtree.Tree, set params.Set, cfg *config.Config, blueprint fs.FS, opts vtree.CommitOptions) (*Result, error) {
	result, err := Run(ctx, tree, set, cfg, blueprint)
	if err != nil {
		return nil, err
	}
	changes, err := tree.Commit(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Changes = changes
	return result, nil
}

type runner struct {
	tree     *vtree.Tree
	set      params.Set
	cfg      *config.Config
	renderer *render.Renderer
	data     map[string]any
	result   *Result
}

func (r *runner) render(blueprint fs.FS) error {
	files, err := r.renderer.Render(blueprint, r.set, render.Options{
		Dir:          r.cfg.Path,
		TestPatterns: r.cfg.TestPatterns,
		Data:         r.data,
	})
	if err != nil {
		return err
	}
	for _, f := range files {
		r.tree.Create(f.Path, f.Content)
		r.result.Files = append(r.result.Files, f.Path)
		output.Verbose("staged " + f.Path)
	}
	return nil
}

// register adds the generated unit to the aggregation file. Nothing is
// registered when no Go source was rendered or no registry is configured.
func (r *runner) register() error {
	target := r.registryFile()
	unitDir := r.unitDir()
	if target == "" || unitDir == "" {
		return nil
	}

	mod, err := project.DetectModule(r.tree)
	if err != nil {
		return err
	}
	importPath := mod.Path + "/" + unitDir

	// The configured variable name only applies to the configured registry.
	patcher := patch.Patcher{EntryFormat: r.cfg.Registry.Entry}
	if strings.TrimSpace(r.set.Module) == "" {
		patcher.Var = r.cfg.Registry.Var
	}
	p, err := patcher.Patch(r.tree, target, r.result.Exported, importPath)
	if err != nil {
		return err
	}
	content, err := r.tree.Read(target)
	if err != nil {
		return err
	}
	patched, err := patch.Apply(content, p.Edits)
	if err != nil {
		return err
	}
	r.tree.Overwrite(target, patched)
	r.result.Registry = p
	output.Verbose(fmt.Sprintf("registered %s in %s", p.Entry, target))
	return nil
}

// registryFile is the declaring module when given, else the configured
// registry. A module reference without an extension names a .go file.
func (r *runner) registryFile() string {
	if m := strings.TrimSpace(r.set.Module); m != "" {
		if path.Ext(m) == "" {
			m += ".go"
		}
		return vtree.Clean(m)
	}
	return r.cfg.Registry.File
}

// unitDir is the directory of the first rendered non-test Go file.
func (r *runner) unitDir() string {
	patterns := r.cfg.TestPatterns
	if patterns == nil {
		patterns = render.DefaultTestPatterns
	}
	for _, f := range r.result.Files {
		if path.Ext(f) == ".go" && !isTest(patterns, f) {
			return path.Dir(f)
		}
	}
	return ""
}

func (r *runner) mergeManifest() error {
	deps := r.cfg.Manifest.Dependencies
	if r.cfg.Manifest.Path == "" || len(deps) == 0 {
		return nil
	}

	data, err := r.tree.Read(r.cfg.Manifest.Path)
	if err != nil {
		return err
	}
	m, err := manifest.Open(r.cfg.Manifest.Path, data)
	if err != nil {
		return err
	}
	res, err := manifest.Merge(m, deps, r.cfg.Policy())
	if err != nil {
		return err
	}

	r.result.Manifest = res
	r.result.Conflicts = res.Conflicts
	r.result.NeedsInstall = res.Changed
	if !res.Changed {
		return nil
	}

	out, err := m.Bytes()
	if err != nil {
		return err
	}
	r.tree.Overwrite(r.cfg.Manifest.Path, out)
	return nil
}

func (r *runner) mergeCollections() error {
	build := r.cfg.Build
	if build.Path == "" || len(build.Collections) == 0 {
		return nil
	}

	data, err := r.tree.Read(build.Path)
	if err != nil {
		return err
	}
	doc, err := document.Open(build.Path, data)
	if err != nil {
		return err
	}

	proj := r.set.Project
	if proj == "" {
		proj = build.Project
	}
	root, err := collection.ResolvePath(doc, build.Root, proj)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(build.Collections))
	for name := range build.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entries, err := r.expand(build.Collections[name])
		if err != nil {
			return err
		}
		keyPath := append(append([]string(nil), root...), name)
		changed, err := collection.Merge(doc, keyPath, entries)
		if err != nil {
			return err
		}
		if changed {
			r.result.Collections = append(r.result.Collections, name)
		}
	}
	if len(r.result.Collections) == 0 {
		return nil
	}

	out, err := doc.Bytes()
	if err != nil {
		return err
	}
	r.tree.Overwrite(build.Path, out)
	return nil
}

// expand substitutes path tokens in every string inside entries.
func (r *runner) expand(entries []any) ([]any, error) {
	data := r.set.Values()
	for k, v := range r.data {
		data[k] = v
	}

	var walk func(v any) (any, error)
	walk = func(v any) (any, error) {
		switch v := v.(type) {
		case string:
			return render.ExpandString(v, data)
		case []any:
			out := make([]any, len(v))
			for i, item := range v {
				e, err := walk(item)
				if err != nil {
					return nil, err
				}
				out[i] = e
			}
			return out, nil
		case map[string]any:
			out := make(map[string]any, len(v))
			for k, item := range v {
				e, err := walk(item)
				if err != nil {
					return nil, err
				}
				out[k] = e
			}
			return out, nil
		}
		return v, nil
	}

	out := make([]any, len(entries))
	for i, e := range entries {
		x, err := walk(e)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func isTest(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
