// Package importmodel defines the data model shared by the import extractor,
// the project scanner and the manifest matcher.
package importmodel

// File represents a scanned source file with its detected imports and any parse error.
type File struct {
	Path    string
	Imports []string
	Lines   int
	Error   error
}
