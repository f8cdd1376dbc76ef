// Package imports extracts the module names referenced by Python import
// statements.
package imports

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/reqpin/pkg/uast"
)

// Python grammar node and field names.
const (
	nodeImport       = "import_statement"
	nodeImportFrom   = "import_from_statement"
	nodeFutureImport = "future_import_statement"
	nodeDottedName   = "dotted_name"
	nodeAliased      = "aliased_import"
	nodeRelative     = "relative_import"

	fieldName       = "name"
	fieldModuleName = "module_name"

	// FutureModule is the name reported for `from __future__ import ...`.
	FutureModule = "__future__"
)

// Extractor extracts import names from source files.
type Extractor struct {
	parser *uast.Parser
}

// NewExtractor creates a new Extractor backed by parser.
func NewExtractor(parser *uast.Parser) *Extractor {
	return &Extractor{parser: parser}
}

// IsSupported reports whether filename has an extension the parser handles.
func (e *Extractor) IsSupported(filename string) bool {
	return e.parser.IsSupported(filename)
}

// Extract parses content and returns the distinct module names it imports,
// in order of first appearance. Source that does not parse is an error and
// yields no names.
func (e *Extractor) Extract(ctx context.Context, filename string, content []byte) ([]string, error) {
	tree, err := e.parser.Parse(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("extract imports: %w", err)
	}
	defer tree.Close()

	return FromTree(tree), nil
}

// ExtractPython is Extract for files whose language was detected by other
// means than the extension (shebang scripts).
func (e *Extractor) ExtractPython(ctx context.Context, filename string, content []byte) ([]string, error) {
	tree, err := e.parser.ParseAs(ctx, uast.LanguagePython, filename, content)
	if err != nil {
		return nil, fmt.Errorf("extract imports: %w", err)
	}
	defer tree.Close()

	return FromTree(tree), nil
}

// FromTree walks the whole tree, so imports nested in functions, classes,
// try and if blocks are found as well.
//
//   - import a.b.c          -> "a.b.c"
//   - import numpy as np    -> "numpy"
//   - from x.y import z     -> "x.y"
//   - from __future__ import -> "__future__"
//   - from . import x       -> skipped (relative)
//   - from .mod import x    -> skipped (relative)
func FromTree(tree *uast.Tree) []string {
	names := make([]string, 0)
	seen := make(map[string]bool)

	add := func(name string) {
		if name == "" || seen[name] {
			return
		}

		seen[name] = true
		names = append(names, name)
	}

	uast.Walk(tree.Root(), func(n sitter.Node) bool {
		switch n.Type() {
		case nodeImport:
			for _, name := range importedModules(tree, n) {
				add(name)
			}

			return false
		case nodeImportFrom:
			add(fromModule(tree, n))

			return false
		case nodeFutureImport:
			add(FutureModule)

			return false
		default:
			return true
		}
	})

	return names
}

// importedModules returns every module of a plain import statement.
func importedModules(tree *uast.Tree, stmt sitter.Node) []string {
	var modules []string

	for idx := range stmt.NamedChildCount() {
		child := stmt.NamedChild(idx)

		switch child.Type() {
		case nodeDottedName:
			modules = append(modules, cleanDottedName(tree.Text(child)))
		case nodeAliased:
			modules = append(modules, cleanDottedName(tree.FieldText(child, fieldName)))
		}
	}

	return modules
}

// fromModule returns the module of a from-import, or "" for relative imports.
func fromModule(tree *uast.Tree, stmt sitter.Node) string {
	module := stmt.ChildByFieldName(fieldModuleName)
	if module.IsNull() || module.Type() == nodeRelative {
		return ""
	}

	return cleanDottedName(tree.Text(module))
}

// cleanDottedName drops whitespace the grammar tolerates between segments,
// so "a . b" is reported as "a.b".
func cleanDottedName(text string) string {
	return strings.Join(strings.Fields(text), "")
}
