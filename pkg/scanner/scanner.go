// Package scanner walks a project tree and collects the import names of every
// Python source file that survives the exclusion rules.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/src-d/enry/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/reqpin/pkg/gitlib"
	"github.com/Sumatoshi-tech/reqpin/pkg/importmodel"
	"github.com/Sumatoshi-tech/reqpin/pkg/textutil"
	"github.com/Sumatoshi-tech/reqpin/pkg/uast"
)

const (
	tracerName = "reqpin"

	gitDirName = ".git"

	// enryPython is the language name enry reports for Python shebangs.
	enryPython = "Python"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("scan root is not a directory")

// SkipReason says why a candidate file was not parsed.
type SkipReason string

// Skip reasons recorded in Stats. SkipBinary only applies to extensionless
// shebang candidates.
const (
	SkipExcludedName      SkipReason = "excluded_name"
	SkipExcludedExtension SkipReason = "excluded_extension"
	SkipExcludedDirectory SkipReason = "excluded_directory"
	SkipVendored          SkipReason = "vendored"
	SkipGitignored        SkipReason = "gitignored"
	SkipTooLarge          SkipReason = "too_large"
	SkipBinary            SkipReason = "binary"
)

// Extractor returns the import names of one source file.
type Extractor interface {
	Extract(ctx context.Context, filename string, content []byte) ([]string, error)
	ExtractPython(ctx context.Context, filename string, content []byte) ([]string, error)
}

// Stats summarizes a scan.
type Stats struct {
	Skipped      map[SkipReason]int
	FilesVisited int
	FilesParsed  int
	FilesFailed  int
	Lines        int
	Bytes        int64
}

// SkippedTotal returns the number of skipped candidate files.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}

	return total
}

// Result is the outcome of scanning one project tree.
type Result struct {
	Names importmodel.NameSet
	Root  string
	Files []importmodel.File
	Stats Stats
}

// Scanner walks project trees with a fixed set of options.
type Scanner struct {
	extractor Extractor
	logger    *slog.Logger
	opts      Options
}

// New creates a Scanner. A nil logger discards log output.
func New(extractor Extractor, opts Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Scanner{
		extractor: extractor,
		logger:    logger,
		opts:      opts.normalized(),
	}
}

// Scan walks root recursively and returns the union of the raw import names
// of every retained file. A file that does not parse aborts the scan unless
// SkipUnparsable is set; any filesystem error aborts it.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "reqpin.scan",
		trace.WithAttributes(attribute.String("scan.root", root)))
	defer span.End()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	walk := &walkState{
		scanner: s,
		root:    root,
		result: &Result{
			Names: importmodel.NewNameSet(),
			Root:  root,
			Files: []importmodel.File{},
			Stats: Stats{Skipped: make(map[SkipReason]int)},
		},
	}

	if s.opts.RespectGitignore {
		repo, openErr := gitlib.OpenRepository(root)

		switch {
		case openErr == nil:
			walk.repo = repo
			defer repo.Free()
		case errors.Is(openErr, gitlib.ErrNotRepository), errors.Is(openErr, gitlib.ErrBareRepository):
			s.logger.WarnContext(ctx, "ignore rules unavailable, scanning every file", "root", root, "error", openErr)
		default:
			return nil, fmt.Errorf("scan %s: %w", root, openErr)
		}
	}

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		return walk.visit(ctx, path, entry, walkErr)
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	stats := walk.result.Stats
	span.SetAttributes(
		attribute.Int("scan.files_parsed", stats.FilesParsed),
		attribute.Int("scan.files_skipped", stats.SkippedTotal()),
		attribute.Int("scan.names", walk.result.Names.Len()),
	)

	s.logger.DebugContext(ctx, "scan finished",
		"root", root,
		"files_parsed", stats.FilesParsed,
		"files_skipped", stats.SkippedTotal(),
		"names", walk.result.Names.Len(),
	)

	return walk.result, nil
}

type walkState struct {
	scanner *Scanner
	repo    *gitlib.Repository
	result  *Result
	root    string
}

func (w *walkState) visit(ctx context.Context, path string, entry fs.DirEntry, walkErr error) error {
	if walkErr != nil {
		return walkErr
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return ctxErr
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return fmt.Errorf("relative path of %s: %w", path, err)
	}

	rel = filepath.ToSlash(rel)

	if entry.IsDir() {
		return w.visitDir(ctx, path, rel, entry)
	}

	if entry.Type()&fs.ModeSymlink != 0 {
		return w.visitSymlink(ctx, path, rel, entry)
	}

	if !entry.Type().IsRegular() {
		return nil
	}

	return w.visitFile(ctx, path, rel, entry)
}

// visitSymlink follows links to regular files. Linked directories are not
// descended into.
func (w *walkState) visitSymlink(ctx context.Context, path, rel string, entry fs.DirEntry) error {
	info, err := os.Stat(path)
	if err != nil {
		if !w.scanner.opts.isSourceFile(entry.Name()) {
			return nil
		}

		return fmt.Errorf("follow %s: %w", rel, err)
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	return w.visitFile(ctx, path, rel, fs.FileInfoToDirEntry(info))
}

func (w *walkState) visitDir(ctx context.Context, path, rel string, entry fs.DirEntry) error {
	if rel == "." {
		return nil
	}

	opts := w.scanner.opts

	switch {
	case entry.Name() == gitDirName:
		return filepath.SkipDir
	case opts.isExcludedDirectory(rel):
		w.scanner.logger.DebugContext(ctx, "skip directory", "path", rel, "reason", SkipExcludedDirectory)

		return filepath.SkipDir
	case opts.SkipVendor && enry.IsVendor(rel+"/"):
		w.scanner.logger.DebugContext(ctx, "skip directory", "path", rel, "reason", SkipVendored)

		return filepath.SkipDir
	}

	ignored, err := w.isIgnored(path)
	if err != nil {
		return err
	}

	if ignored {
		w.scanner.logger.DebugContext(ctx, "skip directory", "path", rel, "reason", SkipGitignored)

		return filepath.SkipDir
	}

	return nil
}

func (w *walkState) visitFile(ctx context.Context, path, rel string, entry fs.DirEntry) error {
	opts := w.scanner.opts
	name := entry.Name()

	byShebang := false

	if !opts.isSourceFile(name) {
		if !opts.DetectShebang || filepath.Ext(name) != "" {
			return nil
		}

		isScript, err := isPythonScript(path)
		if err != nil {
			return err
		}

		if !isScript {
			return nil
		}

		byShebang = true
	}

	w.result.Stats.FilesVisited++

	reason, err := w.skipReason(path, rel, entry)
	if err != nil {
		return err
	}

	if reason != "" {
		w.result.Stats.Skipped[reason]++
		w.scanner.logger.DebugContext(ctx, "skip file", "path", rel, "reason", reason)

		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}

	// Files selected by extension always reach the parser, which rejects
	// undecodable content as a syntax error.
	if byShebang && textutil.IsBinary(content) {
		w.result.Stats.Skipped[SkipBinary]++

		return nil
	}

	var names []string
	if byShebang {
		names, err = w.scanner.extractor.ExtractPython(ctx, rel, content)
	} else {
		names, err = w.scanner.extractor.Extract(ctx, rel, content)
	}

	file := importmodel.File{Path: rel, Lines: textutil.CountLines(content)}

	if err != nil {
		if !opts.SkipUnparsable || !errors.Is(err, uast.ErrSyntax) {
			return fmt.Errorf("scan %s: %w", rel, err)
		}

		w.scanner.logger.WarnContext(ctx, "skipping unparsable file", "path", rel, "error", err)
		file.Error = err
		w.result.Stats.FilesFailed++
	} else {
		file.Imports = names
		w.result.Names.Union(importmodel.NewNameSet(names...))
		w.result.Stats.FilesParsed++
	}

	w.result.Stats.Lines += file.Lines
	w.result.Stats.Bytes += int64(len(content))
	w.result.Files = append(w.result.Files, file)

	return nil
}

// skipReason applies the exclusion rules to a candidate file.
func (w *walkState) skipReason(path, rel string, entry fs.DirEntry) (SkipReason, error) {
	opts := w.scanner.opts
	name := entry.Name()

	relDir := filepath.ToSlash(filepath.Dir(rel))
	if relDir == "." {
		relDir = ""
	}

	switch {
	case opts.isExcludedFile(name):
		return SkipExcludedName, nil
	case opts.hasExcludedExtension(name):
		return SkipExcludedExtension, nil
	case opts.isExcludedDirectory(relDir):
		return SkipExcludedDirectory, nil
	case opts.SkipVendor && enry.IsVendor(rel):
		return SkipVendored, nil
	}

	if opts.MaxFileSize > 0 {
		info, err := entry.Info()
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", rel, err)
		}

		if info.Size() > opts.MaxFileSize {
			return SkipTooLarge, nil
		}
	}

	ignored, err := w.isIgnored(path)
	if err != nil {
		return "", err
	}

	if ignored {
		return SkipGitignored, nil
	}

	return "", nil
}

func (w *walkState) isIgnored(path string) (bool, error) {
	if w.repo == nil {
		return false, nil
	}

	ignored, err := w.repo.IsIgnored(path)
	if err != nil {
		return false, fmt.Errorf("ignore rules: %w", err)
	}

	return ignored, nil
}

// shebangSniffLength bounds how much of an extensionless file is read to
// classify its interpreter line.
const shebangSniffLength = 256

// isPythonScript reports whether the file at path starts with a shebang
// enry attributes to Python.
func isPythonScript(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, shebangSniffLength)

	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	head = head[:n]
	if !textutil.HasShebang(head) {
		return false, nil
	}

	lang, _ := enry.GetLanguageByShebang(head)

	return lang == enryPython, nil
}
