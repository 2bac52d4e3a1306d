// Package params holds the typed option set for one generation request.
package params

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"github.com/simonhull/firebird-suite/hatch/internal/naming"
)

// Set is the recognised options of a generation request.
// Derived identifiers (file name, exported symbol, selector) are always
// computed from Name and never supplied separately.
type Set struct {
	Name    string            // required unit name
	Path    string            // target directory, relative to the project root
	Module  string            // aggregation file reference ("" = configured default)
	Spec    bool              // emit test scaffolding
	Project string            // build-config project key ("" = document default)
	Extra   map[string]string // additional template values from --set
}

// reserved keys cannot be overridden through Extra.
var reserved = map[string]bool{
	"name": true, "path": true, "module": true, "declaringModule": true,
	"spec": true, "project": true,
}

// Parse builds a Set from a raw option map (as collected from flags or an
// interactive prompt). "spec" is a boolean-as-string and defaults to true.
func Parse(raw map[string]string) (Set, error) {
	s := Set{
		Name:    raw["name"],
		Path:    raw["path"],
		Module:  raw["module"],
		Spec:    true,
		Project: raw["project"],
	}
	if s.Module == "" {
		s.Module = raw["declaringModule"]
	}
	if v, ok := raw["spec"]; ok && v != "" {
		b, err := ParseBool(v)
		if err != nil {
			return Set{}, errs.New(errs.KindValidation, "spec", "%v", err)
		}
		s.Spec = b
	}
	for k, v := range raw {
		if reserved[k] {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]string)
		}
		s.Extra[k] = v
	}

	if err := s.Validate(); err != nil {
		return Set{}, err
	}
	return s, nil
}

// ParseBool accepts the spellings a command line user is likely to type.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", v)
}

// Validate checks the required name and rejects paths escaping the project.
func (s Set) Validate() error {
	if err := naming.Validate(s.Name); err != nil {
		return err
	}
	if s.Path != "" {
		clean := path.Clean(strings.ReplaceAll(s.Path, "\\", "/"))
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return errs.New(errs.KindValidation, "path", "%q must be relative to the project root", s.Path)
		}
	}
	for k := range s.Extra {
		if reserved[k] {
			return errs.New(errs.KindValidation, k, "reserved option cannot be set through extras")
		}
	}
	return nil
}

// FileName is the dash-case base name of generated files.
func (s Set) FileName() string {
	return naming.Dasherize(s.Name)
}

// ExportedName is the PascalCase symbol exported by the generated unit.
func (s Set) ExportedName(suffix string) string {
	return naming.Classify(s.Name) + suffix
}

// Selector is the element selector for the unit ("app-user-profile").
func (s Set) Selector(prefix string) string {
	if prefix == "" {
		return s.FileName()
	}
	return prefix + "-" + s.FileName()
}

// PackageName is the Go package identifier of the generated unit.
func (s Set) PackageName() string {
	return naming.PackageName(s.Name)
}

// Dir is the normalised target directory: every segment dasherized.
// fallback is used when no path was supplied.
func (s Set) Dir(fallback string) string {
	p := s.Path
	if p == "" {
		p = fallback
	}
	return NormalizeDir(p)
}

// NormalizeDir cleans p and dasherizes each segment.
func NormalizeDir(p string) string {
	p = strings.Trim(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	if p == "." || p == "" {
		return ""
	}
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if d := naming.Dasherize(seg); d != "" {
			segments[i] = d
		}
	}
	return strings.Join(segments, "/")
}

// Values returns the template data for this set.
// Extras are included first so the recognised options always win.
func (s Set) Values() map[string]any {
	v := make(map[string]any, len(s.Extra)+5)
	for k, val := range s.Extra {
		v[k] = val
	}
	v["name"] = s.Name
	v["path"] = s.Path
	v["module"] = s.Module
	v["project"] = s.Project
	v["spec"] = s.Spec
	return v
}

// Keys lists the names available to templates, sorted.
func (s Set) Keys() []string {
	values := s.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
