package scanner

import (
	"slices"
	"strings"
)

// DefaultExtension is the source file extension scanned when none is configured.
const DefaultExtension = ".py"

// Options selects which files of a project tree are scanned. It is built
// once per run and not mutated afterward.
type Options struct {
	// Extensions lists the suffixes of candidate source files.
	Extensions []string

	// ExcludedFiles skips files by exact base name.
	ExcludedFiles []string

	// ExcludedExtensions skips files whose base name ends with any suffix.
	ExcludedExtensions []string

	// ExcludedDirectories skips files whose containing directory, relative
	// to the scan root and slash separated, contains any of the substrings.
	ExcludedDirectories []string

	// MaxFileSize skips files larger than this many bytes. Zero disables the limit.
	MaxFileSize int64

	// SkipVendor skips paths enry classifies as vendored (vendor/, node_modules/, ...).
	SkipVendor bool

	// DetectShebang also scans extensionless files with a Python shebang.
	DetectShebang bool

	// RespectGitignore skips paths ignored by the enclosing git repository.
	RespectGitignore bool

	// SkipUnparsable records syntax errors on the file entry instead of
	// aborting the scan.
	SkipUnparsable bool
}

// DefaultOptions returns options that scan every .py file.
func DefaultOptions() Options {
	return Options{Extensions: []string{DefaultExtension}}
}

// normalized returns a copy with empty patterns removed and default
// extensions filled in. An empty substring would otherwise exclude every file.
func (o Options) normalized() Options {
	out := o
	out.Extensions = compact(o.Extensions)
	out.ExcludedFiles = compact(o.ExcludedFiles)
	out.ExcludedExtensions = compact(o.ExcludedExtensions)
	out.ExcludedDirectories = compact(o.ExcludedDirectories)

	if len(out.Extensions) == 0 {
		out.Extensions = []string{DefaultExtension}
	}

	return out
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}

	return out
}

func (o Options) isExcludedFile(name string) bool {
	return slices.Contains(o.ExcludedFiles, name)
}

func (o Options) hasExcludedExtension(name string) bool {
	return hasAnySuffix(name, o.ExcludedExtensions)
}

func (o Options) isSourceFile(name string) bool {
	return hasAnySuffix(name, o.Extensions)
}

// isExcludedDirectory reports whether relDir (slash separated, "" for the
// root) contains one of the excluded substrings.
func (o Options) isExcludedDirectory(relDir string) bool {
	for _, dir := range o.ExcludedDirectories {
		if strings.Contains(relDir, dir) {
			return true
		}
	}

	return false
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return false
}
