// Package uast wraps the tree-sitter Python grammar behind a small parser
// that hands out syntax trees together with the source they were built from.
package uast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"unicode/utf8"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parser operations.
var (
	ErrSyntax = errors.New("syntax error")

	errNoFileExtension      = errors.New("no file extension found")
	errNoParser             = errors.New("no parser found for extension")
	errLanguageNotAvailable = errors.New("tree-sitter language not available")
	errNoRootNode           = errors.New("parser: no root node")
	errPoolType             = errors.New("parser: pool returned unexpected type")
)

// utf8BOM is stripped from the start of source files before parsing.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reasons attached to syntax errors found before parsing.
const (
	ReasonNullByte    = "source contains a null byte"
	ReasonInvalidUTF8 = "source is not valid UTF-8"
)

// SyntaxError reports the first location tree-sitter could not parse, or the
// first byte that makes the source undecodable.
type SyntaxError struct {
	File   string
	Reason string
	Line   int
	Column int
}

// Error implements error.
func (e *SyntaxError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, ErrSyntax, e.Reason)
	}

	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, ErrSyntax)
}

// Is makes errors.Is(err, ErrSyntax) match any *SyntaxError.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Parser is the entry point for parsing source files. It is safe for
// concurrent use; tree-sitter parsers are pooled per language.
type Parser struct {
	pools sync.Map
}

// NewParser creates a new Parser. Grammars are loaded on first use.
func NewParser() (*Parser, error) {
	if GetLanguage(LanguagePython) == nil {
		return nil, fmt.Errorf("%w: %s", errLanguageNotAvailable, LanguagePython)
	}

	return &Parser{}, nil
}

// IsSupported returns true if the given filename is supported by any parser.
func (parser *Parser) IsSupported(filename string) bool {
	return LanguageForExtension(filepath.Ext(filename)) != ""
}

// GetLanguage returns the language name for the given filename if supported, or empty string.
func (parser *Parser) GetLanguage(filename string) string {
	return LanguageForExtension(filepath.Ext(filename))
}

// Parse parses content as the language selected by filename's extension.
// A tree containing any error node is rejected with a *SyntaxError; no
// partial tree is returned.
func (parser *Parser) Parse(ctx context.Context, filename string, content []byte) (*Tree, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, fmt.Errorf("%w for %s", errNoFileExtension, filename)
	}

	lang := LanguageForExtension(ext)
	if lang == "" {
		return nil, fmt.Errorf("%w %s", errNoParser, ext)
	}

	return parser.ParseAs(ctx, lang, filename, content)
}

// ParseAs parses content with the named grammar regardless of filename.
func (parser *Parser) ParseAs(ctx context.Context, lang, filename string, content []byte) (*Tree, error) {
	pool, err := parser.pool(lang)
	if err != nil {
		return nil, err
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	source := bytes.TrimPrefix(content, utf8BOM)

	err = checkEncoding(filename, source)
	if err != nil {
		return nil, err
	}

	tree, err := tsParser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, errNoRootNode
	}

	if root.HasError() {
		errNode := firstErrorNode(root)
		point := errNode.StartPoint()
		tree.Close()

		return nil, &SyntaxError{
			File:   filename,
			Line:   int(point.Row) + 1,
			Column: int(point.Column) + 1,
		}
	}

	return &Tree{tree: tree, source: source, filename: filename}, nil
}

func (parser *Parser) pool(lang string) (*sync.Pool, error) {
	if cached, ok := parser.pools.Load(lang); ok {
		pool, castOK := cached.(*sync.Pool)
		if castOK {
			return pool, nil
		}
	}

	language := GetLanguage(lang)
	if language == nil {
		return nil, fmt.Errorf("%w: %s", errLanguageNotAvailable, lang)
	}

	pool := &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(language)

			return tsParser
		},
	}

	actual, _ := parser.pools.LoadOrStore(lang, pool)

	stored, ok := actual.(*sync.Pool)
	if !ok {
		return nil, errPoolType
	}

	return stored, nil
}

// checkEncoding rejects sources the grammar would silently tolerate: NUL
// bytes (UTF-16 or corrupted files) and invalid UTF-8.
func checkEncoding(filename string, source []byte) error {
	if idx := bytes.IndexByte(source, 0); idx >= 0 {
		return syntaxErrorAt(filename, source, idx, ReasonNullByte)
	}

	if utf8.Valid(source) {
		return nil
	}

	for idx := 0; idx < len(source); {
		r, size := utf8.DecodeRune(source[idx:])
		if r == utf8.RuneError && size <= 1 {
			return syntaxErrorAt(filename, source, idx, ReasonInvalidUTF8)
		}

		idx += size
	}

	return nil
}

func syntaxErrorAt(filename string, source []byte, offset int, reason string) *SyntaxError {
	head := source[:offset]

	return &SyntaxError{
		File:   filename,
		Reason: reason,
		Line:   bytes.Count(head, []byte{'\n'}) + 1,
		Column: offset - bytes.LastIndexByte(head, '\n'),
	}
}

// firstErrorNode descends through the first erroneous named child at every
// level and returns the deepest node that still reports an error.
func firstErrorNode(n sitter.Node) sitter.Node {
	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.HasError() {
			return firstErrorNode(child)
		}
	}

	return n
}
