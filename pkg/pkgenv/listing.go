package pkgenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File names written by WriteListing.
const (
	CombinedFileName  = "list.txt"
	managerFileSuffix = "_list.txt"

	// CombinedManager names the single output of a listing read back from disk.
	CombinedManager = "combined"

	listingDirPerm  = 0o750
	listingFilePerm = 0o644
)

// errEmptyManagerName is returned when an output cannot be named on disk.
var errEmptyManagerName = errors.New("listing output without manager name")

// Output is the verbatim stdout of one package manager.
type Output struct {
	Manager string
	Text    string
}

// Listing is the installed-package listing of the environment.
type Listing struct {
	Outputs     []Output
	Unavailable []*UnavailableError
}

// Combined concatenates the outputs in manager order, separated by a newline,
// so a blank line separates two outputs that end with a newline.
func (l *Listing) Combined() string {
	texts := make([]string, 0, len(l.Outputs))
	for _, out := range l.Outputs {
		texts = append(texts, out.Text)
	}

	return strings.Join(texts, "\n")
}

// UnavailableManagers returns the names of the managers that could not run.
func (l *Listing) UnavailableManagers() []string {
	names := make([]string, 0, len(l.Unavailable))
	for _, u := range l.Unavailable {
		names = append(names, u.Manager)
	}

	return names
}

// WriteListing writes one <manager>_list.txt per output and the combined
// list.txt into dir, creating it when needed. It returns the combined path.
func WriteListing(dir string, listing *Listing) (string, error) {
	err := os.MkdirAll(dir, listingDirPerm)
	if err != nil {
		return "", fmt.Errorf("create listing dir: %w", err)
	}

	for _, out := range listing.Outputs {
		if out.Manager == "" {
			return "", errEmptyManagerName
		}

		path := filepath.Join(dir, out.Manager+managerFileSuffix)

		err = os.WriteFile(path, []byte(out.Text), listingFilePerm)
		if err != nil {
			return "", fmt.Errorf("write %s listing: %w", out.Manager, err)
		}
	}

	combined := filepath.Join(dir, CombinedFileName)

	err = os.WriteFile(combined, []byte(listing.Combined()), listingFilePerm)
	if err != nil {
		return "", fmt.Errorf("write combined listing: %w", err)
	}

	return combined, nil
}

// ReadListing loads a combined listing file written by WriteListing.
func ReadListing(path string) (*Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}

	return &Listing{Outputs: []Output{{Manager: CombinedManager, Text: string(data)}}}, nil
}
