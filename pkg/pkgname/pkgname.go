// Package pkgname maps package and module names to the key used to compare
// them against the installed-package listing.
package pkgname

import "strings"

// separators are stripped from names after lower-casing.
var separators = strings.NewReplacer("-", "", ".", "", "_", "")

// Normalize lower-cases s and removes every '-', '.' and '_'.
// No other transformation is applied, whitespace included.
func Normalize(s string) string {
	return separators.Replace(strings.ToLower(s))
}
