// Package main provides the entry point for the reqpin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/reqpin/cmd/reqpin/commands"
	"github.com/Sumatoshi-tech/reqpin/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "reqpin",
		Short: "Pin the installed versions of the packages a Python project imports",
		Long: `reqpin scans a Python project for import statements, looks the imported
names up in the packages installed in the current environment (pip list,
conda list) and writes a pinned requirements.txt.

Commands:
  run        Scan, list the environment, match and write the manifest
  scan       Print the import names found in a project
  match      Match a saved names file against a saved listing
  normalize  Print the comparison key of package names`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewMatchCommand())
	rootCmd.AddCommand(commands.NewNormalizeCommand())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reqpin %s\n", version.String())
		},
	}
}
