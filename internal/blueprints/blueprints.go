// Package blueprints embeds the built-in template directories.
//
// A blueprint is a directory of template units consumed by the render
// package. "component" scaffolds a UI component; "empty" renders nothing and
// is useful for exercising manifest and config updates on their own.
package blueprints

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

//go:embed all:component
var builtin embed.FS

// empty has no files.
var empty embed.FS

var registry = map[string]func() (fs.FS, error){
	"component": func() (fs.FS, error) { return fs.Sub(builtin, "component") },
	"empty":     func() (fs.FS, error) { return empty, nil },
}

// Names lists the built-in blueprints, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a built-in blueprint.
func Get(name string) (fs.FS, error) {
	open, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown blueprint %q (available: %v)", name, Names())
	}
	return open()
}

// Load returns the on-disk template directory dir when set, else the
// built-in blueprint name.
func Load(name, dir string) (fs.FS, error) {
	if dir == "" {
		return Get(name)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("template directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}
