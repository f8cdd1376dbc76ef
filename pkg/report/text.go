package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

type palette struct {
	ok    *color.Color
	warn  *color.Color
	bad   *color.Color
	faint *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed),
		faint: color.New(color.Faint),
	}

	if noColor {
		for _, c := range []*color.Color{p.ok, p.warn, p.bad, p.faint} {
			c.DisableColor()
		}
	}

	return p
}

// RenderText writes a human-readable summary: scan statistics, a table of
// pinned packages, unmatched names with suggestions, and the output files.
func RenderText(w io.Writer, s *Summary, noColor bool) error {
	p := newPalette(noColor)

	var sb strings.Builder

	fmt.Fprintf(&sb, "Scanned %s files (%s lines, %s) in %s\n",
		humanize.Comma(int64(s.FilesScanned)), humanize.Comma(int64(s.Lines)),
		humanize.Bytes(uint64(max(s.Bytes, 0))), s.Root) //nolint:gosec // clamped above.

	if skipped := s.SkippedTotal(); skipped > 0 {
		p.faint.Fprintf(&sb, "Skipped %d files\n", skipped)
	}

	for _, name := range s.UnavailableManagers {
		p.warn.Fprintf(&sb, "Package manager %s unavailable\n", name)
	}

	if len(s.Entries) > 0 {
		sb.WriteString("\n")
		sb.WriteString(entriesTable(s))
		sb.WriteString("\n")
	}

	if len(s.Unmatched) > 0 {
		sb.WriteString("\n")

		for _, u := range s.Unmatched {
			p.bad.Fprintf(&sb, "  %s not found", u.Name)

			if len(u.Suggestions) > 0 {
				p.faint.Fprintf(&sb, " (did you mean %s?)", strings.Join(u.Suggestions, ", "))
			}

			sb.WriteString("\n")
		}
	}

	if s.Diff != "" {
		sb.WriteString("\n")

		for line := range strings.SplitSeq(strings.TrimSuffix(s.Diff, "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				p.ok.Fprintln(&sb, line)
			case strings.HasPrefix(line, "-"):
				p.bad.Fprintln(&sb, line)
			default:
				sb.WriteString(line + "\n")
			}
		}
	}

	sb.WriteString("\n")
	p.ok.Fprintf(&sb, "Pinned %d of %d packages", len(s.Entries), len(s.Entries)+len(s.Unmatched))
	fmt.Fprintf(&sb, " (%s strategy)\n", s.Strategy)

	for _, out := range []struct{ label, path string }{
		{"names", s.Outputs.NamesFile},
		{"listing", s.Outputs.Listing},
		{"manifest", s.Outputs.Manifest},
	} {
		if out.path != "" {
			fmt.Fprintf(&sb, "  %-8s %s\n", out.label, out.path)
		}
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func entriesTable(s *Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendHeader(table.Row{"Package", "Version"})

	for _, e := range s.Entries {
		tbl.AppendRow(table.Row{e.Name, e.Version})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d", len(s.Entries)), ""})

	return tbl.Render()
}
