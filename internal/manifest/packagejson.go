package manifest

import (
	"github.com/simonhull/firebird-suite/hatch/internal/document"
	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"gopkg.in/yaml.v3"
)

// sections maps a kind to its package.json key, in lookup order.
var sections = []struct {
	kind Kind
	key  string
}{
	{Runtime, "dependencies"},
	{Dev, "devDependencies"},
	{Peer, "peerDependencies"},
	{Optional, "optionalDependencies"},
}

// PackageJSON is a manifest with one name→version object per dependency
// kind. The document may be JSON, YAML or TOML.
type PackageJSON struct {
	path string
	doc  *document.Document
}

// ParsePackageJSON parses a sectioned manifest.
func ParsePackageJSON(path string, data []byte) (*PackageJSON, error) {
	doc, err := document.Open(path, data)
	if err != nil {
		return nil, err
	}
	return &PackageJSON{path: path, doc: doc}, nil
}

// Lookup searches every section.
func (p *PackageJSON) Lookup(name string) (string, bool) {
	for _, s := range sections {
		if v, ok := p.doc.String([]string{s.key, name}); ok {
			return v, true
		}
	}
	return "", false
}

// Add appends the dependency to the end of its kind's section, creating the
// section when needed.
func (p *PackageJSON) Add(dep Dependency) error {
	key := sectionKey(dep.Kind)
	section, ok, err := p.doc.Lookup([]string{key})
	if err != nil {
		return err
	}
	if !ok {
		section = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if err := p.doc.Set([]string{key}, section); err != nil {
			return err
		}
	}
	if section.Kind != yaml.MappingNode {
		return errs.New(errs.KindSchemaMismatch, p.path, "%s is not an object", key)
	}

	section.Content = append(section.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: dep.Name},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: dep.Version, Style: yaml.DoubleQuotedStyle},
	)
	return nil
}

// Bytes renders the manifest in its original format.
func (p *PackageJSON) Bytes() ([]byte, error) {
	return p.doc.Bytes()
}

func sectionKey(k Kind) string {
	for _, s := range sections {
		if s.kind == k {
			return s.key
		}
	}
	return sections[0].key
}
