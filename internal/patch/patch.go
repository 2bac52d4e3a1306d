// Package patch registers a generated unit in an aggregation file: a Go
// source file holding one package-level slice (or array) literal.
//
// The file is parsed with go/parser to locate the literal and the import
// block; the change itself is expressed as positional text insertions so the
// rest of the file is left byte-for-byte intact.
//
//	var Registry = []Component{
//		nav.NavComponent{},
//		test.TestComponent{}, // ← inserted after the last entry
//	}
package patch

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"github.com/simonhull/firebird-suite/hatch/internal/naming"
)

// DefaultEntryFormat renders "<package>.<Exported>{}".
const DefaultEntryFormat = "%s.%s{}"

// Reader is the part of the virtual tree the patcher needs.
type Reader interface {
	Read(path string) ([]byte, error)
}

// InsertionEdit inserts Text at byte Offset of the file at Path.
type InsertionEdit struct {
	Path   string
	Offset int
	Text   string
}

// Patch is the set of edits registering one unit.
type Patch struct {
	Path  string
	Entry string          // entry expression added to the literal
	Edits []InsertionEdit // import edit (if any) then entry edit
}

// Patcher locates the aggregation literal and computes edits.
type Patcher struct {
	// Var names the registry variable. Empty means "the only slice or
	// array literal declared at package level".
	Var string
	// EntryFormat is a fmt format taking the package name and the exported
	// name. Empty means DefaultEntryFormat.
	EntryFormat string
}

// Patch computes the edits registering exportedName (imported from
// importPath) in targetPath. It does not guard against duplicates: patching
// twice for the same unit adds the entry twice.
func (p Patcher) Patch(tree Reader, targetPath, exportedName, importPath string) (*Patch, error) {
	src, err := tree.Read(targetPath)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, targetPath, src, parser.ParseComments)
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedTarget, targetPath, fmt.Errorf("parsing file: %w", err))
	}

	lit, err := p.findLiteral(file)
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedTarget, targetPath, err)
	}

	offset := func(pos token.Pos) int { return fset.Position(pos).Offset }

	pkg, importEdit := importFor(file, src, offset, importPath)

	format := p.EntryFormat
	if format == "" {
		format = DefaultEntryFormat
	}
	entry := fmt.Sprintf(format, pkg, exportedName)

	result := &Patch{Path: targetPath, Entry: entry}
	if importEdit != nil {
		importEdit.Path = targetPath
		result.Edits = append(result.Edits, *importEdit)
	}
	entryEdit := entryFor(fset, src, lit, entry)
	entryEdit.Path = targetPath
	result.Edits = append(result.Edits, entryEdit)

	return result, nil
}

// findLiteral returns the registry composite literal.
func (p Patcher) findLiteral(file *ast.File) (*ast.CompositeLit, error) {
	type candidate struct {
		name string
		lit  *ast.CompositeLit
	}
	var found []candidate

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, v := range vs.Values {
				lit, ok := v.(*ast.CompositeLit)
				if !ok {
					continue
				}
				if _, ok := lit.Type.(*ast.ArrayType); !ok {
					continue
				}
				name := ""
				if i < len(vs.Names) {
					name = vs.Names[i].Name
				}
				found = append(found, candidate{name: name, lit: lit})
			}
		}
	}

	if p.Var != "" {
		for _, c := range found {
			if c.name == p.Var {
				return c.lit, nil
			}
		}
		return nil, fmt.Errorf("no slice literal named %s", p.Var)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no package-level slice literal found")
	case 1:
		return found[0].lit, nil
	default:
		names := make([]string, len(found))
		for i, c := range found {
			names[i] = c.name
		}
		return nil, fmt.Errorf("ambiguous registry: %d slice literals (%s); set the registry variable name", len(found), strings.Join(names, ", "))
	}
}

// entryFor places entry immediately after the last element, or just inside
// the opening brace when the literal is empty.
func entryFor(fset *token.FileSet, src []byte, lit *ast.CompositeLit, entry string) InsertionEdit {
	lbrace := fset.Position(lit.Lbrace)
	rbrace := fset.Position(lit.Rbrace)

	if len(lit.Elts) == 0 {
		indent := lineIndent(src, lbrace.Offset) + "\t"
		if rbrace.Line > lbrace.Line {
			return InsertionEdit{Offset: lbrace.Offset + 1, Text: "\n" + indent + entry + ","}
		}
		return InsertionEdit{Offset: lbrace.Offset + 1, Text: "\n" + indent + entry + ",\n" + lineIndent(src, lbrace.Offset)}
	}

	last := fset.Position(lit.Elts[len(lit.Elts)-1].End())
	if rbrace.Line == last.Line {
		return InsertionEdit{Offset: last.Offset, Text: ", " + entry}
	}

	// Multi-line: a new line after the one holding the last element.
	first := fset.Position(lit.Elts[len(lit.Elts)-1].Pos())
	return InsertionEdit{
		Offset: lineEnd(src, last.Offset),
		Text:   "\n" + lineIndent(src, first.Offset) + entry + ",",
	}
}

// importFor returns the local package name to use for importPath and the
// edit adding the import, or nil when the path is already imported.
// A name already taken in the file gets the parent directory as a prefix
// ("web/footer/nav" → footernav), then a numeric suffix.
func importFor(file *ast.File, src []byte, offset func(token.Pos) int, importPath string) (string, *InsertionEdit) {
	used := make(map[string]bool)
	if file.Scope != nil {
		for name := range file.Scope.Objects {
			used[name] = true
		}
	}
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := naming.PackageName(path.Base(p))
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if p == importPath && name != "_" && name != "." {
			return name, nil
		}
		used[name] = true
	}

	base := path.Base(importPath)
	pkg := naming.PackageName(base)
	if used[pkg] {
		stem := naming.PackageName(path.Base(path.Dir(importPath))) + pkg
		pkg = stem
		for i := 2; used[pkg]; i++ {
			pkg = stem + strconv.Itoa(i)
		}
	}
	spec := strconv.Quote(importPath)
	if pkg != base {
		spec = pkg + " " + spec
	}

	var lastImport *ast.GenDecl
	for _, decl := range file.Decls {
		if gen, ok := decl.(*ast.GenDecl); ok && gen.Tok == token.IMPORT {
			lastImport = gen
		}
	}

	switch {
	case lastImport == nil:
		return pkg, &InsertionEdit{Offset: lineEnd(src, offset(file.Name.End())), Text: "\n\nimport " + spec}
	case lastImport.Lparen.IsValid() && len(lastImport.Specs) == 0:
		return pkg, &InsertionEdit{Offset: offset(lastImport.Lparen) + 1, Text: "\n\t" + spec + "\n"}
	case lastImport.Lparen.IsValid():
		lastSpec := lastImport.Specs[len(lastImport.Specs)-1]
		return pkg, &InsertionEdit{
			Offset: lineEnd(src, offset(lastSpec.End())),
			Text:   "\n" + lineIndent(src, offset(lastSpec.Pos())) + spec,
		}
	default:
		return pkg, &InsertionEdit{Offset: offset(lastImport.End()), Text: "\nimport " + spec}
	}
}

// lineEnd returns the offset of the newline ending the line containing off
// (or len(src) on the last line).
func lineEnd(src []byte, off int) int {
	for i := off; i < len(src); i++ {
		if src[i] == '\n' {
			return i
		}
	}
	return len(src)
}

// lineIndent returns the leading whitespace of the line containing off.
func lineIndent(src []byte, off int) string {
	start := off
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

// Apply inserts edits into content. Edits are applied from the highest offset
// down so earlier offsets stay valid; equal offsets keep their given order.
func Apply(content []byte, edits []InsertionEdit) ([]byte, error) {
	sorted := make([]InsertionEdit, len(edits))
	for i, e := range edits {
		sorted[len(edits)-1-i] = e
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset > sorted[j].Offset })

	out := append([]byte(nil), content...)
	for _, e := range sorted {
		if e.Offset < 0 || e.Offset > len(out) {
			return nil, fmt.Errorf("edit offset %d out of range (file is %d bytes)", e.Offset, len(out))
		}
		out = append(out[:e.Offset], append([]byte(e.Text), out[e.Offset:]...)...)
	}
	return out, nil
}
