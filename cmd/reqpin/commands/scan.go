package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/reqpin/pkg/manifest"
)

// ScanCommand holds configuration and dependencies for the scan command.
type ScanCommand struct {
	write     bool
	withFiles bool
	extra     scanOverrides

	deps deps
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	return newScanCommandWithDeps(defaultDeps())
}

func newScanCommandWithDeps(d deps) *cobra.Command {
	sc := &ScanCommand{deps: d}

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Print the import names found in a project",
		Long: `Extract the import names of every source file under path and print them
sorted, one per line. With --write the names file is written as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: sc.run,
	}

	cmd.Flags().BoolVar(&sc.write, "write", false, "Also write the names file (output.names_file)")
	cmd.Flags().BoolVar(&sc.withFiles, "files", false, "Print the imports of each file instead of the union")
	cmd.Flags().StringSliceVar(&sc.extra.excludedFiles, "exclude-file", nil, "Additional file names to skip")
	cmd.Flags().StringSliceVar(&sc.extra.excludedExtensions, "exclude-ext", nil, "Additional file suffixes to skip")
	cmd.Flags().StringSliceVar(&sc.extra.excludedDirectories, "exclude-dir", nil, "Additional directory substrings to skip")

	return cmd
}

func (sc *ScanCommand) run(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, sc.deps, "scan")
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	s.progressf("starting scan path=%s", root)

	result, err := s.scan(cmd.Context(), root, sc.extra)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if sc.withFiles {
		for _, file := range result.Files {
			if file.Error != nil {
				fmt.Fprintf(out, "%s: error: %v\n", file.Path, file.Error)

				continue
			}

			fmt.Fprintf(out, "%s: %s\n", file.Path, strings.Join(file.Imports, " "))
		}
	} else {
		for _, name := range result.Names.Sorted() {
			fmt.Fprintln(out, name)
		}
	}

	if sc.write {
		namesPath := resolvePath(root, s.cfg.Output.NamesFile)

		err = manifest.WriteNames(namesPath, result.Names)
		if err != nil {
			return err
		}

		s.progressf("names written: %s", namesPath)
	}

	s.progressf("scan completed: files=%d names=%d", result.Stats.FilesParsed, result.Names.Len())

	return nil
}
