package manifest

import (
	"fmt"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	modsemver "golang.org/x/mod/semver"
)

// GoMod is a go.mod manifest. All kinds map to require directives; go.mod
// has no notion of dev or peer dependencies.
type GoMod struct {
	path string
	file *modfile.File
}

// ParseGoMod parses a go.mod file.
func ParseGoMod(path string, data []byte) (*GoMod, error) {
	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedTarget, path, fmt.Errorf("failed to parse go.mod: %w", err))
	}
	return &GoMod{path: path, file: f}, nil
}

// Module returns the declared module path.
func (g *GoMod) Module() string {
	if g.file.Module == nil {
		return ""
	}
	return g.file.Module.Mod.Path
}

// Lookup returns the required version of module name.
func (g *GoMod) Lookup(name string) (string, bool) {
	for _, r := range g.file.Require {
		if r.Mod.Path == name {
			return r.Mod.Version, true
		}
	}
	return "", false
}

// Add requires dep.Name at dep.Version. The kind is ignored.
func (g *GoMod) Add(dep Dependency) error {
	if err := module.CheckPath(dep.Name); err != nil {
		return errs.Wrap(errs.KindValidation, dep.Name, err)
	}
	if !modsemver.IsValid(dep.Version) {
		return errs.New(errs.KindValidation, dep.Name, "invalid module version %q", dep.Version)
	}
	g.file.AddNewRequire(dep.Name, dep.Version, false)
	return nil
}

// Bytes formats the file after dropping empty blocks.
func (g *GoMod) Bytes() ([]byte, error) {
	g.file.Cleanup()
	out, err := g.file.Format()
	if err != nil {
		return nil, fmt.Errorf("formatting go.mod: %w", err)
	}
	return out, nil
}
