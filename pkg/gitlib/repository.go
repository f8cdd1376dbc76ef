// Package gitlib exposes the small part of libgit2 the scanner needs: finding
// the repository that encloses a project and evaluating its ignore rules.
package gitlib

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

// Sentinel errors for repository operations.
var (
	// ErrNotRepository is returned when no repository encloses the path.
	ErrNotRepository = errors.New("not inside a git repository")
	// ErrBareRepository is returned for repositories without a working tree.
	ErrBareRepository = errors.New("bare repository has no working tree")
)

// Repository wraps a libgit2 repository.
type Repository struct {
	repo    *git2go.Repository
	workdir string
}

// OpenRepository discovers and opens the repository enclosing path,
// searching parent directories like git itself does.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepositoryExtended(path, 0, "")
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}

		return nil, fmt.Errorf("open repository: %w", err)
	}

	workdir := repo.Workdir()
	if workdir == "" {
		repo.Free()

		return nil, fmt.Errorf("%w: %s", ErrBareRepository, path)
	}

	return &Repository{repo: repo, workdir: resolve(workdir)}, nil
}

// Workdir returns the absolute working tree root.
func (r *Repository) Workdir() string {
	return r.workdir
}

// IsIgnored reports whether path is excluded by the repository's ignore
// rules. Paths outside the working tree are never ignored.
func (r *Repository) IsIgnored(path string) (bool, error) {
	rel, err := filepath.Rel(r.workdir, resolve(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false, nil //nolint:nilerr // a path outside the tree has no ignore rules.
	}

	ignored, err := r.repo.IsPathIgnored(filepath.ToSlash(rel))
	if err != nil {
		return false, fmt.Errorf("check ignore rules for %s: %w", rel, err)
	}

	return ignored, nil
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// resolve makes path absolute and follows symlinks so it can be compared
// with the working tree root.
func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}

	return resolved
}
