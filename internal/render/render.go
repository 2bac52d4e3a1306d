// Package render expands a directory of template units against a parameter
// set, producing concrete file paths and contents.
//
// Target paths come from the unit's path inside the template directory, with
// the ".tmpl" suffix removed and "__param@transform__" tokens expanded:
//
//	__name@dasherize__.component.go.tmpl  →  user-profile.component.go
//
// Contents are rendered with text/template using the naming helpers
// (dasherize, classify, camelize, ...). Missing keys are errors, so a
// placeholder is never emitted literally.
package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"github.com/simonhull/firebird-suite/hatch/internal/naming"
	"github.com/simonhull/firebird-suite/hatch/internal/params"
)

// DefaultTestPatterns match generated test scaffolding.
var DefaultTestPatterns = []string{"**/*_test.go", "**/*.spec.*"}

var tokenPattern = regexp.MustCompile(`__([A-Za-z][A-Za-z0-9]*)(?:@([A-Za-z]+))?__`)

// Unit is one template file and the pattern its output path is derived from.
type Unit struct {
	Source  string // path inside the template FS
	Pattern string // Source without the .tmpl suffix
}

// File is a rendered unit.
type File struct {
	Path    string
	Content []byte
}

// Options configures a Render call.
type Options struct {
	// Dir is the target directory used when the parameter set has no Path.
	Dir string
	// TestPatterns are doublestar globs dropped when params.Spec is false.
	// Nil means DefaultTestPatterns.
	TestPatterns []string
	// Data holds derived values merged over params.Values().
	Data map[string]any
}

// Renderer parses and executes templates, caching parsed templates.
type Renderer struct {
	funcMap template.FuncMap
	cache   map[string]*template.Template
	mu      sync.RWMutex
}

// NewRenderer creates a renderer with the naming helpers installed.
func NewRenderer() *Renderer {
	return &Renderer{
		funcMap: naming.FuncMap(),
		cache:   make(map[string]*template.Template),
	}
}

// Units lists the template units in fsys in lexical order.
func Units(fsys fs.FS) ([]Unit, error) {
	var units []Unit
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		units = append(units, Unit{Source: p, Pattern: strings.TrimSuffix(p, ".tmpl")})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Source < units[j].Source })
	return units, nil
}

// Render expands every unit in fsys. Units whose target matches a test
// pattern are dropped when set.Spec is false; nothing else changes.
func (r *Renderer) Render(fsys fs.FS, set params.Set, opts Options) ([]File, error) {
	units, err := Units(fsys)
	if err != nil {
		return nil, err
	}

	data := set.Values()
	for k, v := range opts.Data {
		data[k] = v
	}

	patterns := opts.TestPatterns
	if patterns == nil {
		patterns = DefaultTestPatterns
	}
	dir := set.Dir(opts.Dir)

	var files []File
	seen := make(map[string]string, len(units))
	for _, u := range units {
		rel, err := ExpandString(u.Pattern, data)
		if err != nil {
			return nil, err
		}
		target := path.Join(dir, rel)

		if !set.Spec && matchesAny(patterns, target) {
			continue
		}
		if prev, dup := seen[target]; dup {
			return nil, errs.New(errs.KindTemplate, u.Source, "renders to %s, already produced by %s", target, prev)
		}
		seen[target] = u.Source

		body, err := fs.ReadFile(fsys, u.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", u.Source, err)
		}
		content, err := r.RenderString(u.Source, string(body), data)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: target, Content: content})
	}
	return files, nil
}

// RenderString renders a template body. name is used for caching and errors.
func (r *Renderer) RenderString(name, body string, data any) ([]byte, error) {
	key := name + "\x00" + body

	r.mu.RLock()
	tmpl, ok := r.cache[key]
	r.mu.RUnlock()

	if !ok {
		var err error
		tmpl, err = template.New(name).Funcs(r.funcMap).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, errs.Wrap(errs.KindTemplate, name, fmt.Errorf("failed to parse template: %w", err))
		}
		r.mu.Lock()
		r.cache[key] = tmpl
		r.mu.Unlock()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errs.Wrap(errs.KindTemplate, name, fmt.Errorf("failed to render template: %w", err))
	}
	return buf.Bytes(), nil
}

// ExpandString replaces "__param__" and "__param@transform__" tokens in s.
// An unknown parameter or transform is an errs.Template error.
func ExpandString(s string, data map[string]any) (string, error) {
	var firstErr error
	out := tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		if firstErr != nil {
			return tok
		}
		m := tokenPattern.FindStringSubmatch(tok)
		raw, ok := data[m[1]]
		if !ok {
			firstErr = errs.New(errs.KindTemplate, s, "unresolved parameter %q", m[1])
			return tok
		}
		val := fmt.Sprint(raw)
		if m[2] == "" {
			return val
		}
		fn, ok := naming.Transform(m[2])
		if !ok {
			firstErr = errs.New(errs.KindTemplate, s, "unknown transform %q", m[2])
			return tok
		}
		return fn(val)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func matchesAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}
