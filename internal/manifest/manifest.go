// Package manifest reconciles a project's dependency manifest with the
// dependencies a generated unit needs.
//
// Merge only ever adds. A dependency that is already declared at another
// version is reported as a Conflict and left as it is; the caller decides
// whether to warn, and whether to run an install step when Result.Changed
// is set.
package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/simonhull/firebird-suite/hatch/internal/errs"
)

// Kind is the dependency section a requirement belongs to.
type Kind string

const (
	Runtime  Kind = "runtime"
	Dev      Kind = "dev"
	Peer     Kind = "peer"
	Optional Kind = "optional"
)

// ParseKind accepts a kind name; empty means Runtime.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return Runtime, nil
	case Runtime, Dev, Peer, Optional:
		return k, nil
	}
	return "", fmt.Errorf("unknown dependency kind %q (want runtime, dev, peer or optional)", s)
}

// Dependency is one requested (name, version, kind) triple.
type Dependency struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Version string `mapstructure:"version" yaml:"version"`
	Kind    Kind   `mapstructure:"kind" yaml:"kind,omitempty"`
}

func (d Dependency) String() string {
	return d.Name + "@" + d.Version
}

// Conflict records a requested version that differs from the declared one.
type Conflict struct {
	Name      string
	Existing  string
	Requested string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: keeping %s (requested %s)", c.Name, c.Existing, c.Requested)
}

// Result reports what Merge did.
type Result struct {
	Added     []Dependency
	Conflicts []Conflict
	Changed   bool // at least one dependency was added
}

// Manifest is a dependency list keyed by name.
type Manifest interface {
	// Lookup returns the declared version of name in any section.
	Lookup(name string) (version string, ok bool)
	// Add declares a dependency that is not yet present.
	Add(dep Dependency) error
	// Bytes renders the manifest.
	Bytes() ([]byte, error)
}

// Open parses a manifest, choosing the implementation from the file name:
// go.mod files use GoMod, anything else is a sectioned document such as
// package.json.
func Open(path string, data []byte) (Manifest, error) {
	if filepath.Base(path) == "go.mod" {
		return ParseGoMod(path, data)
	}
	return ParsePackageJSON(path, data)
}

// Policy decides whether a declared version already satisfies a request.
type Policy int

const (
	// PolicyExact treats only identical version strings as equal.
	PolicyExact Policy = iota
	// PolicySemver accepts a declared version whose base version satisfies
	// the requested constraint ("^5.2.0" satisfies "^5.0.0").
	PolicySemver
)

// ParsePolicy maps a configuration value to a Policy; empty means exact.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return PolicyExact, nil
	case "semver":
		return PolicySemver, nil
	}
	return 0, errs.New(errs.KindValidation, "version_policy", "unknown policy %q (want exact or semver)", s)
}

func (p Policy) String() string {
	if p == PolicySemver {
		return "semver"
	}
	return "exact"
}

// Satisfied reports whether existing is acceptable for requested.
func (p Policy) Satisfied(existing, requested string) bool {
	if strings.TrimSpace(existing) == strings.TrimSpace(requested) {
		return true
	}
	if p != PolicySemver {
		return false
	}

	c, err := semver.NewConstraint(strings.TrimPrefix(strings.TrimSpace(requested), "v"))
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(baseVersion(existing))
	if err != nil {
		return false
	}
	return c.Check(v)
}

// baseVersion extracts the lowest version a range starts at:
// "^5.2.0" → "5.2.0", ">=1.0.0 <2.0.0" → "1.0.0", "v1.4.0" → "1.4.0".
func baseVersion(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " ,|"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimLeft(s, "^~>=v")
}

// Merge adds every requested dependency missing from m. A request for a name
// already declared at an unsatisfying version yields exactly one Conflict
// and leaves the declared entry untouched. Repeated names within requested
// are compared against the first occurrence.
func Merge(m Manifest, requested []Dependency, policy Policy) (*Result, error) {
	result := &Result{}
	conflicted := make(map[string]bool)

	for _, dep := range requested {
		if strings.TrimSpace(dep.Name) == "" {
			return nil, errs.New(errs.KindValidation, "dependencies", "dependency with empty name")
		}
		if dep.Kind == "" {
			dep.Kind = Runtime
		}

		existing, ok := m.Lookup(dep.Name)
		if !ok {
			if err := m.Add(dep); err != nil {
				return nil, err
			}
			result.Added = append(result.Added, dep)
			result.Changed = true
			continue
		}

		if policy.Satisfied(existing, dep.Version) || conflicted[dep.Name] {
			continue
		}
		conflicted[dep.Name] = true
		result.Conflicts = append(result.Conflicts, Conflict{
			Name:      dep.Name,
			Existing:  existing,
			Requested: dep.Version,
		})
	}

	return result, nil
}
