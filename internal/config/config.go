// Package config loads hatch.yml: built-in defaults, overridden by the
// project file, then HATCH_* environment variables, then command flags.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"github.com/simonhull/firebird-suite/hatch/internal/manifest"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file.
const FileName = "hatch.yml"

// EnvPrefix prefixes environment overrides (HATCH_REGISTRY_FILE, ...).
const EnvPrefix = "HATCH"

//go:embed defaults.yml
var defaults []byte

// Config is the resolved configuration for one run.
type Config struct {
	Path           string   `mapstructure:"path"`
	Suffix         string   `mapstructure:"suffix"`
	SelectorPrefix string   `mapstructure:"selector_prefix"`
	TestPatterns   []string `mapstructure:"test_patterns"`
	Templates      string   `mapstructure:"templates"`
	Registry       Registry `mapstructure:"registry"`
	Manifest       Manifest `mapstructure:"manifest"`
	Build          Build    `mapstructure:"build"`
	VersionPolicy  string   `mapstructure:"version_policy"`

	// File is the hatch.yml that was read, empty when only defaults apply.
	File string `mapstructure:"-"`
}

// Registry locates the aggregation file new components are registered in.
type Registry struct {
	File  string `mapstructure:"file"`
	Var   string `mapstructure:"var"`
	Entry string `mapstructure:"entry"`
}

// Manifest describes the dependency manifest and what it must declare.
type Manifest struct {
	Path         string                `mapstructure:"path"`
	Install      []string              `mapstructure:"install"`
	Dependencies []manifest.Dependency `mapstructure:"dependencies"`
}

// Build describes the build configuration document and its collections.
type Build struct {
	Path    string `mapstructure:"path"`
	Root    string `mapstructure:"root"`
	Project string `mapstructure:"project"`

	// Collections is filled by loadCollections with map keys as written.
	Collections map[string][]any `mapstructure:"-"`
}

// collectionsFile is the part of hatch.yml read with yaml.v3 directly.
type collectionsFile struct {
	Build struct {
		Collections map[string][]any `yaml:"collections"`
	} `yaml:"build"`
}

// Load reads configuration for the project at root (an empty root skips the
// project file). overrides are applied last, keyed like the file
// ("registry.file").
func Load(root string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to read built-in defaults: %w", err)
	}

	var file string
	if root != "" {
		var err error
		if file, err = mergeProjectFile(v, root); err != nil {
			return nil, err
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.File = file
	collections, err := loadCollections(file)
	if err != nil {
		return nil, err
	}
	cfg.Build.Collections = collections

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeProjectFile merges root/hatch.yml into v when it exists and returns
// its path.
func mergeProjectFile(v *viper.Viper, root string) (string, error) {
	file := filepath.Join(root, FileName)
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", FileName, err)
	}

	v.SetConfigFile(file)
	if err := v.MergeInConfig(); err != nil {
		return "", errs.Wrap(errs.KindMalformedTarget, FileName, fmt.Errorf("failed to read %s: %w", FileName, err))
	}
	return file, nil
}

// loadCollections reads build.collections from the defaults and then the
// project file. A collection named in the project file replaces the default
// one of the same name.
func loadCollections(file string) (map[string][]any, error) {
	var base collectionsFile
	if err := yaml.Unmarshal(defaults, &base); err != nil {
		return nil, fmt.Errorf("failed to read built-in collections: %w", err)
	}
	collections := base.Build.Collections
	if collections == nil {
		collections = make(map[string][]any)
	}
	if file == "" {
		return collections, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	var project collectionsFile
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil, errs.Wrap(errs.KindMalformedTarget, FileName+" build.collections", err)
	}
	for name, entries := range project.Build.Collections {
		collections[name] = entries
	}
	return collections, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in configuration: %v", err))
	}
	return cfg
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := manifest.ParsePolicy(c.VersionPolicy); err != nil {
		return err
	}
	for i, dep := range c.Manifest.Dependencies {
		if strings.TrimSpace(dep.Name) == "" {
			return errs.New(errs.KindValidation, fmt.Sprintf("manifest.dependencies[%d]", i), "name is required")
		}
		kind, err := manifest.ParseKind(string(dep.Kind))
		if err != nil {
			return errs.Wrap(errs.KindValidation, "manifest.dependencies."+dep.Name, err)
		}
		c.Manifest.Dependencies[i].Kind = kind
	}
	if c.Build.Path != "" && strings.TrimSpace(c.Build.Root) == "" && len(c.Build.Collections) > 0 {
		return errs.New(errs.KindValidation, "build.root", "required when build.path is set")
	}
	if c.Registry.Entry != "" && strings.Count(c.Registry.Entry, "%s") != 2 {
		return errs.New(errs.KindValidation, "registry.entry", "%q must contain two %%s verbs (package, exported name)", c.Registry.Entry)
	}
	return nil
}

// Policy returns the parsed version policy.
func (c *Config) Policy() manifest.Policy {
	p, _ := manifest.ParsePolicy(c.VersionPolicy)
	return p
}
