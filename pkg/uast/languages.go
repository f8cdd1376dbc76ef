package uast

import (
	"strings"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/python"
)

// LanguagePython is the only grammar reqpin parses.
const LanguagePython = "python"

// languageFuncs maps language names to their tree-sitter GetLanguage functions.
var languageFuncs = map[string]func() unsafe.Pointer{
	LanguagePython: python.GetLanguage,
}

// languageExtensions maps lower-cased file extensions to language names.
var languageExtensions = map[string]string{
	".py":  LanguagePython,
	".pyi": LanguagePython,
}

var languageCache sync.Map

// GetLanguage returns the tree-sitter Language for the given name, or nil if not supported.
func GetLanguage(name string) *sitter.Language {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[name]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(name, lang)

	return lang
}

// LanguageForExtension returns the language registered for ext (".py"), or "".
func LanguageForExtension(ext string) string {
	return languageExtensions[strings.ToLower(ext)]
}
