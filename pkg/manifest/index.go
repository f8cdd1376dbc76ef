// Package manifest matches import names against the installed-package
// listing and reads and writes the names file and the pinned manifest.
package manifest

import (
	"strings"

	"github.com/Sumatoshi-tech/reqpin/pkg/pkgname"
	"github.com/Sumatoshi-tech/reqpin/pkg/textutil"
)

// minListingTokens is the number of fields a listing line needs to carry a version.
const minListingTokens = 2

// Package is one installed package as listed by a package manager.
type Package struct {
	Name    string
	Version string
}

// Index maps normalized package names to the first listing line that
// declared them.
type Index struct {
	byKey    map[string]Package
	lines    []string
	packages []Package
}

// NewIndex builds an index in one pass over the listing lines. The first
// occurrence of a normalized name wins; later duplicates are ignored.
// Comment, header and separator lines are not indexed.
func NewIndex(listing string) *Index {
	lines := textutil.Lines(listing)
	idx := &Index{
		byKey: make(map[string]Package, len(lines)),
		lines: lines,
	}

	for _, line := range lines {
		pkg, ok := parseListingLine(line)
		if !ok {
			continue
		}

		key := pkgname.Normalize(pkg.Name)
		if _, seen := idx.byKey[key]; seen {
			continue
		}

		idx.byKey[key] = pkg
		idx.packages = append(idx.packages, pkg)
	}

	return idx
}

// Lookup returns the package whose normalized name equals the normalized name.
func (idx *Index) Lookup(name string) (Package, bool) {
	pkg, ok := idx.byKey[pkgname.Normalize(name)]

	return pkg, ok
}

// Len returns the number of indexed packages.
func (idx *Index) Len() int {
	return len(idx.packages)
}

// Packages returns the indexed packages in listing order.
func (idx *Index) Packages() []Package {
	return idx.packages
}

// Lines returns the raw listing lines in order.
func (idx *Index) Lines() []string {
	return idx.lines
}

func parseListingLine(line string) (Package, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Package{}, false
	}

	fields := strings.Fields(trimmed)
	if len(fields) < minListingTokens {
		return Package{}, false
	}

	if isHeader(fields) {
		return Package{}, false
	}

	return Package{Name: fields[0], Version: fields[1]}, true
}

// isHeader reports pip's "Package Version" title and its dashed underline.
func isHeader(fields []string) bool {
	if strings.EqualFold(fields[0], "package") && strings.EqualFold(fields[1], "version") {
		return true
	}

	return strings.Trim(fields[0], "-") == "" && strings.Trim(fields[1], "-") == ""
}
