// Package collection merges ordered value lists (asset globs, stylesheet
// entries, scripts) into a build configuration document.
//
// Values are compared structurally: two entries are duplicates when they
// decode to deeply equal Go values, regardless of formatting or key order.
// The first occurrence of each value wins, so pre-existing entries keep
// their position and new ones are appended in the order given.
package collection

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/simonhull/firebird-suite/hatch/internal/document"
	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"gopkg.in/yaml.v3"
)

// ProjectToken is replaced by the project name in path patterns.
const ProjectToken = "{project}"

// DefaultProjectKey names the document key consulted when no project is given.
const DefaultProjectKey = "defaultProject"

// Merge appends entries to the list at path, dropping every value deeply
// equal to one seen earlier. An absent (or null) path counts as an empty
// list; any other non-list value is an errs.SchemaMismatch. changed reports
// whether the document was modified.
func Merge(doc *document.Document, path []string, entries []any) (changed bool, err error) {
	subject := strings.Join(path, ".")

	node, ok, err := doc.Lookup(path)
	if err != nil {
		return false, err
	}

	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if ok && !isNull(node) {
		if node.Kind != yaml.SequenceNode {
			return false, errs.New(errs.KindSchemaMismatch, subject, "expected a list, found %s", describe(node))
		}
		seq = node
	}

	var seen []any
	contains := func(v any) bool {
		for _, s := range seen {
			if cmp.Equal(s, v) {
				return true
			}
		}
		return false
	}

	kept := make([]*yaml.Node, 0, len(seq.Content)+len(entries))
	for _, item := range seq.Content {
		v, err := document.Value(item)
		if err != nil {
			return false, errs.Wrap(errs.KindSchemaMismatch, subject, err)
		}
		if contains(v) {
			changed = true
			continue
		}
		seen = append(seen, v)
		kept = append(kept, item)
	}

	for _, entry := range entries {
		n, err := document.NodeOf(entry)
		if err != nil {
			return false, errs.Wrap(errs.KindSchemaMismatch, subject, err)
		}
		v, err := document.Value(n)
		if err != nil {
			return false, errs.Wrap(errs.KindSchemaMismatch, subject, err)
		}
		if contains(v) {
			continue
		}
		seen = append(seen, v)
		kept = append(kept, n)
		changed = true
	}

	if !changed {
		return false, nil
	}
	seq.Content = kept
	if seq != node {
		if err := doc.Set(path, seq); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Values returns the decoded list at path, or nil when it is absent.
func Values(doc *document.Document, path []string) ([]any, error) {
	node, ok, err := doc.Lookup(path)
	if err != nil || !ok || isNull(node) {
		return nil, err
	}
	if node.Kind != yaml.SequenceNode {
		return nil, errs.New(errs.KindSchemaMismatch, strings.Join(path, "."), "expected a list, found %s", describe(node))
	}
	out := make([]any, 0, len(node.Content))
	for _, item := range node.Content {
		v, err := document.Value(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ResolvePath turns a dotted pattern such as
// "projects.{project}.architect.build.options" into a key path. When project
// is empty the document's defaultProject value is used.
func ResolvePath(doc *document.Document, pattern, project string) ([]string, error) {
	if strings.Contains(pattern, ProjectToken) {
		if project == "" {
			project, _ = doc.String([]string{DefaultProjectKey})
		}
		if project == "" {
			return nil, errs.New(errs.KindValidation, "project", "no project given and the build configuration has no %s", DefaultProjectKey)
		}
		pattern = strings.ReplaceAll(pattern, ProjectToken, project)
	}

	var path []string
	for _, key := range strings.Split(pattern, ".") {
		if key = strings.TrimSpace(key); key != "" {
			path = append(path, key)
		}
	}
	if len(path) == 0 {
		return nil, errs.New(errs.KindValidation, "build.path", "empty collection path %q", pattern)
	}
	return path, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "an object"
	case yaml.ScalarNode:
		return "a scalar " + n.ShortTag()
	}
	return "an unsupported value"
}
