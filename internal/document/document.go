// Package document reads and rewrites structured configuration files (JSON,
// YAML, TOML) while keeping as much of their layout as the format allows.
//
// Every format is held as a yaml.v3 node tree. Mapping nodes keep their keys
// in source order, so a JSON or YAML file that is only appended to comes
// back out with its original key order. TOML is decoded through go-toml and
// loses key order.
package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format identifies a document syntax.
type Format int

const (
	JSON Format = iota
	YAML
	TOML
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	default:
		return "unknown"
	}
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return JSON, nil
	case ".yml", ".yaml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return 0, fmt.Errorf("unsupported document type %q", filepath.Ext(path))
}

// Document is a parsed configuration file with a mapping at its root.
type Document struct {
	format  Format
	doc     *yaml.Node // YAML document node, kept for head and foot comments
	root    *yaml.Node
	indent  string
	newline bool
}

// Open parses data using the format implied by path. Parse failures are
// reported as errs.MalformedTarget naming path.
func Open(path string, data []byte) (*Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedTarget, path, err)
	}
	d, err := Parse(data, format)
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedTarget, path, err)
	}
	return d, nil
}

// Parse reads data in the given format. Empty input yields an empty mapping.
func Parse(data []byte, format Format) (*Document, error) {
	d := &Document{
		format:  format,
		indent:  detectIndent(data, format),
		newline: len(data) == 0 || bytes.HasSuffix(data, []byte("\n")),
	}

	switch format {
	case JSON:
		var n yaml.Node
		if err := yaml.Unmarshal(jsonc.ToJSON(data), &n); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
		d.root = contentOf(&n)
	case YAML:
		var n yaml.Node
		if err := yaml.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		if n.Kind == yaml.DocumentNode {
			d.doc = &n
		}
		d.root = contentOf(&n)
	case TOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
		if m == nil {
			m = map[string]any{}
		}
		root, err := NodeOf(m)
		if err != nil {
			return nil, err
		}
		d.root = root
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}

	if d.root == nil {
		d.root = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if d.doc != nil {
			d.doc.Content = []*yaml.Node{d.root}
		}
	}
	if d.root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top-level value must be an object")
	}
	return d, nil
}

// contentOf unwraps a document node. It returns nil for empty input.
func contentOf(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		return n.Content[0]
	}
	if n.Kind == 0 {
		return nil
	}
	return n
}

// Format returns the document's syntax.
func (d *Document) Format() Format { return d.format }

// Root returns the top-level mapping.
func (d *Document) Root() *yaml.Node { return d.root }

// Lookup walks path through nested mappings. ok is false when a key along the
// way is absent. Stepping into anything other than a mapping is an
// errs.SchemaMismatch.
func (d *Document) Lookup(path []string) (node *yaml.Node, ok bool, err error) {
	cur := d.root
	for i, key := range path {
		cur = resolveAlias(cur)
		if cur.Kind != yaml.MappingNode {
			return nil, false, errs.New(errs.KindSchemaMismatch, strings.Join(path[:i], "."), "expected an object, found %s", kindName(cur))
		}
		next := valueFor(cur, key)
		if next == nil {
			return nil, false, nil
		}
		cur = next
	}
	return resolveAlias(cur), true, nil
}

// String returns the scalar string at path, if there is one.
func (d *Document) String(path []string) (string, bool) {
	n, ok, err := d.Lookup(path)
	if err != nil || !ok || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// Set stores value at path, creating intermediate mappings as needed. An
// existing key keeps its position.
func (d *Document) Set(path []string, value *yaml.Node) error {
	if len(path) == 0 {
		return fmt.Errorf("empty path")
	}
	cur := d.root
	for i, key := range path[:len(path)-1] {
		next := valueFor(cur, key)
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			appendPair(cur, key, next)
		}
		next = resolveAlias(next)
		if next.Kind != yaml.MappingNode {
			return errs.New(errs.KindSchemaMismatch, strings.Join(path[:i+1], "."), "expected an object, found %s", kindName(next))
		}
		cur = next
	}

	last := path[len(path)-1]
	for i := 0; i+1 < len(cur.Content); i += 2 {
		if cur.Content[i].Value == last {
			cur.Content[i+1] = value
			return nil
		}
	}
	appendPair(cur, last, value)
	return nil
}

// Bytes renders the document in its original format.
func (d *Document) Bytes() ([]byte, error) {
	switch d.format {
	case JSON:
		var buf bytes.Buffer
		if err := writeJSON(&buf, d.root, d.indent, 0); err != nil {
			return nil, err
		}
		if d.newline {
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(len(d.indent))
		n := d.root
		if d.doc != nil {
			n = d.doc
		}
		if err := enc.Encode(n); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case TOML:
		var m map[string]any
		if err := d.root.Decode(&m); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		out, err := toml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encoding toml: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported format %v", d.format)
}

// Value decodes a node into plain Go values.
func Value(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// NodeOf encodes a Go value as a node.
func NodeOf(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	return &n, nil
}

func valueFor(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "an object"
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return "null"
		}
		return "a scalar"
	}
	return "an unknown node"
}

// detectIndent returns the indentation unit of the first indented line,
// defaulting to two spaces.
func detectIndent(data []byte, format Format) string {
	if format == TOML {
		return ""
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == 0 || len(trimmed) == len(line) {
			continue
		}
		indent := string(line[:len(line)-len(trimmed)])
		if format == YAML && strings.Contains(indent, "\t") {
			break
		}
		return indent
	}
	return "  "
}
