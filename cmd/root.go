package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the drivepath application
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivepath",
		Short: "Path-addressed access to Google Drive",
		Long: `drivepath exposes Google Drive as a filesystem addressed by absolute
paths such as /Projects/2024/report.pdf, hiding Drive's opaque file IDs.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants
  - A standalone CLI (ls, tree, resolve, mkdir, mv, read)`,
		SilenceUsage: true,
	}

	addGlobalFlags(cmd)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newTreeCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newMvCmd())
	cmd.AddCommand(newReadCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newGenerateDocsCmd())

	return cmd
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "drivepath version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "drivepath version %s\n", version)
		},
	}
}
