package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/reqpin/pkg/manifest"
	"github.com/Sumatoshi-tech/reqpin/pkg/pkgenv"
)

// ErrMissingInput is returned when a required input file flag is not set.
var ErrMissingInput = errors.New("missing input file")

// MatchCommand holds configuration and dependencies for the match command.
type MatchCommand struct {
	namesPath   string
	listingPath string
	outputPath  string
	strategy    string

	deps deps
}

// NewMatchCommand creates the match command.
func NewMatchCommand() *cobra.Command {
	return newMatchCommandWithDeps(defaultDeps())
}

func newMatchCommandWithDeps(d deps) *cobra.Command {
	mc := &MatchCommand{deps: d}

	cmd := &cobra.Command{
		Use:   "match --names FILE --listing FILE",
		Short: "Match a saved names file against a saved package listing",
		Long: `Match the names written by "reqpin scan --write" against a listing written by
a previous run (or any pip list / conda list output) without touching the
environment. Entries are printed as name==version, or written with --output.`,
		Args: cobra.NoArgs,
		RunE: mc.run,
	}

	cmd.Flags().StringVar(&mc.namesPath, "names", "", "Names file, one import name per line")
	cmd.Flags().StringVar(&mc.listingPath, "listing", "", "Package listing file")
	cmd.Flags().StringVarP(&mc.outputPath, "output", "o", "", "Write the manifest here instead of stdout")
	cmd.Flags().StringVar(&mc.strategy, "strategy", "", "Match strategy: "+strings.Join(manifest.Strategies(), ", ")+" (default from config)")

	return cmd
}

func (mc *MatchCommand) run(cmd *cobra.Command, _ []string) error {
	if mc.namesPath == "" {
		return fmt.Errorf("%w: --names", ErrMissingInput)
	}

	if mc.listingPath == "" {
		return fmt.Errorf("%w: --listing", ErrMissingInput)
	}

	s, err := openSession(cmd, mc.deps, "match")
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	names, err := manifest.ReadNames(mc.namesPath)
	if err != nil {
		return err
	}

	listing, err := pkgenv.ReadListing(mc.listingPath)
	if err != nil {
		return err
	}

	s.progressf("loaded names=%d listing=%s", names.Len(), mc.listingPath)

	result, strategy, err := s.match(cmd.Context(), mc.strategy, names.Sorted(), listing.Combined())
	if err != nil {
		return err
	}

	s.reportUnmatched(cmd.ErrOrStderr(), result.Unmatched)

	if mc.outputPath != "" {
		err = manifest.Write(mc.outputPath, result.Entries)
		if err != nil {
			return err
		}

		s.progressf("manifest written: %s entries=%d strategy=%s", mc.outputPath, len(result.Entries), strategy)

		return nil
	}

	for _, entry := range result.Entries {
		fmt.Fprintln(cmd.OutOrStdout(), entry.String())
	}

	return nil
}
