package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/reqpin/pkg/pkgname"
)

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize NAME...",
		Short: "Print the comparison key of package names",
		Long: `Print the key used to compare import names with installed packages: the name
lower-cased with every "-", "." and "_" removed.`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range args {
				fmt.Fprintln(cmd.OutOrStdout(), pkgname.Normalize(name))
			}
		},
	}
}
