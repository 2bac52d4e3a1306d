// Package project locates the project a command runs against and reads the
// Go module it belongs to.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"golang.org/x/mod/modfile"
)

// ConfigFile is the per-project configuration file name.
const ConfigFile = "hatch.yml"

// Reader reads project files by slash-separated relative path.
type Reader interface {
	Read(path string) ([]byte, error)
}

// ModuleInfo contains information from go.mod
type ModuleInfo struct {
	Path      string // Module path (e.g., "github.com/user/repo")
	GoVersion string // Go version requirement (e.g., "1.21")
}

// DetectModule parses go.mod at the project root.
func DetectModule(r Reader) (*ModuleInfo, error) {
	data, err := r.Read("go.mod")
	if err != nil {
		return nil, err
	}

	modFile, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedTarget, "go.mod", fmt.Errorf("failed to parse go.mod: %w", err))
	}
	if modFile.Module == nil {
		return nil, errs.New(errs.KindMalformedTarget, "go.mod", "no module directive")
	}

	info := &ModuleInfo{Path: modFile.Module.Mod.Path}
	if modFile.Go != nil {
		info.GoVersion = modFile.Go.Version
	}
	return info, nil
}

// IsHatchProject checks if a directory contains hatch.yml
func IsHatchProject(rootPath string) bool {
	_, err := os.Stat(filepath.Join(rootPath, ConfigFile))
	return err == nil
}

// FindRoot walks up from start to the nearest directory holding hatch.yml,
// falling back to the nearest one holding go.mod.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	var module string
	for {
		if IsHatchProject(dir) {
			return dir, nil
		}
		if module == "" {
			if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
				module = dir
			} else if !errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if module == "" {
		return "", errs.New(errs.KindNotFound, start, "no %s or go.mod found in this directory or any parent", ConfigFile)
	}
	return module, nil
}
