package uast

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Tree is a parsed syntax tree bound to its source bytes. Close must be
// called once the tree is no longer needed.
type Tree struct {
	tree     *sitter.Tree
	source   []byte
	filename string
}

// Root returns the root node.
func (t *Tree) Root() sitter.Node {
	return t.tree.RootNode()
}

// Filename returns the name the tree was parsed under.
func (t *Tree) Filename() string {
	return t.filename
}

// Text returns a copy of the source text spanned by n.
func (t *Tree) Text(n sitter.Node) string {
	start := n.StartByte()
	end := n.EndByte()

	if start > end || end > uint(len(t.source)) {
		return ""
	}

	return string(t.source[start:end])
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Walk visits n and its named descendants in pre-order. When visit returns
// false the children of that node are not visited.
func Walk(n sitter.Node, visit func(sitter.Node) bool) {
	if n.IsNull() || !visit(n) {
		return
	}

	for idx := range n.NamedChildCount() {
		Walk(n.NamedChild(idx), visit)
	}
}

// FieldText returns the text of n's child under field, or "" when absent.
func (t *Tree) FieldText(n sitter.Node, field string) string {
	child := n.ChildByFieldName(field)
	if child.IsNull() {
		return ""
	}

	return t.Text(child)
}
